package parser

// FieldMap 规范键到有序取值序列的映射
// 键按首次出现顺序记录，同一键内的取值保持读取顺序
type FieldMap struct {
	keys   []string
	values map[string][]string
}

// NewFieldMap 创建空映射
func NewFieldMap() *FieldMap {
	return &FieldMap{values: make(map[string][]string)}
}

// Ensure 登记键（无取值时为空序列）
func (m *FieldMap) Ensure(key string) {
	if _, ok := m.values[key]; ok {
		return
	}
	m.keys = append(m.keys, key)
	m.values[key] = []string{}
}

// Add 追加取值
func (m *FieldMap) Add(key string, values ...string) {
	m.Ensure(key)
	m.values[key] = append(m.values[key], values...)
}

// dropPlaceholder 去掉空值行留下的单个 "" 占位
func (m *FieldMap) dropPlaceholder(key string) {
	if v := m.values[key]; len(v) == 1 && v[0] == "" {
		m.values[key] = v[:0]
	}
}

// Lookup 返回键的取值副本
func (m *FieldMap) Lookup(key string) ([]string, bool) {
	v, ok := m.values[key]
	if !ok {
		return nil, false
	}
	return append([]string{}, v...), true
}

// Get 返回键的取值副本，缺失时为空序列
func (m *FieldMap) Get(key string) []string {
	v, ok := m.Lookup(key)
	if !ok {
		return []string{}
	}
	return v
}

// First 返回第一个取值，缺失时为空串
func (m *FieldMap) First(key string) string {
	if v := m.values[key]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// Has 判断键是否存在
func (m *FieldMap) Has(key string) bool {
	_, ok := m.values[key]
	return ok
}

// Keys 按首次出现顺序返回全部键
func (m *FieldMap) Keys() []string {
	return append([]string{}, m.keys...)
}

// Len 键数量
func (m *FieldMap) Len() int {
	return len(m.keys)
}

// Map 返回普通 map 副本
func (m *FieldMap) Map() map[string][]string {
	out := make(map[string][]string, len(m.keys))
	for _, k := range m.keys {
		out[k] = m.Get(k)
	}
	return out
}

// Equal 判断两个映射的键、键序与取值是否完全一致
func (m *FieldMap) Equal(other *FieldMap) bool {
	if m == nil || other == nil {
		return m == other
	}
	if len(m.keys) != len(other.keys) {
		return false
	}
	for i, k := range m.keys {
		if other.keys[i] != k {
			return false
		}
		a, b := m.values[k], other.values[k]
		if len(a) != len(b) {
			return false
		}
		for j := range a {
			if a[j] != b[j] {
				return false
			}
		}
	}
	return true
}
