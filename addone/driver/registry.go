package driver

import (
	"sort"
	"strings"
	"sync"
)

var (
	registryMu sync.RWMutex
	registry   = map[string]Plugin{
		DefaultName: &DefaultPlugin{},
	}
)

// Register 注册驱动插件，名称不区分大小写
func Register(name string, plugin Plugin) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[strings.ToLower(strings.TrimSpace(name))] = plugin
}

// Get 获取指定驱动的插件，未注册时返回 default
func Get(name string) Plugin {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if p, ok := registry[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p
	}
	return registry[DefaultName]
}

// Lookup 精确查找，不回退
func Lookup(name string) (Plugin, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	p, ok := registry[strings.ToLower(strings.TrimSpace(name))]
	return p, ok
}

// Names 已注册的驱动名
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
