package parser

import (
	"regexp"
	"strings"
)

// notReported ethtool 对未上报列表的占位文本，不做拆分
const notReported = "Not reported"

// Section 区段标题与其键前缀
type Section struct {
	Header string // 例如 "Pre-set maximums:"
	Prefix string // 例如 "preset_max_"
}

// Options 解析选项
type Options struct {
	// Sections 识别的区段标题；命中后其后的键均加上前缀，直到下一个标题
	Sections []Section
	// ListKey 判断规范键（不含区段前缀）的取值是否按空白拆分；为空时使用 IsLinkModeKey
	ListKey func(key string) bool
}

var (
	titleRe = regexp.MustCompile(`(?i)^(?:(?:settings|pause parameters|ring parameters|channel parameters|coalesce parameters|features|offload parameters|private flags|fec parameters|eee settings|time stamping parameters)\s+for\s+\S.*|nic statistics):$`)
	// pairRe 匹配 "off  TX: off" 中的第二组键值
	pairRe    = regexp.MustCompile(`^(.*?)\s{2,}([A-Za-z][\w/-]*):\s*(.*)$`)
	bracketRe = regexp.MustCompile(`^\[(.*)\]$`)
)

// Parse 将命令输出解析为 FieldMap
// 纯函数：不做 I/O，不持有共享状态，可并发调用
func Parse(raw string, opts Options) *FieldMap {
	fm := NewFieldMap()
	listKey := opts.ListKey
	if listKey == nil {
		listKey = IsLinkModeKey
	}

	var (
		prefix     string
		lastKey    string
		lastBase   string
		lastIndent int
		lastOpen   bool
	)

	tok := NewTokenizer(raw)
	for {
		line, ok := tok.Next()
		if !ok {
			break
		}

		if p, isHeader := matchSection(opts.Sections, line.Text); isHeader {
			prefix = p
			lastKey = ""
			continue
		}
		// "Settings for eth0:" 一类的标题行不产生键
		if titleRe.MatchString(line.Text) {
			lastKey = ""
			continue
		}

		idx := strings.IndexByte(line.Text, ':')
		if idx < 0 {
			if lastKey == "" {
				continue
			}
			if line.Indent > lastIndent || lastOpen {
				if lastOpen {
					fm.dropPlaceholder(lastKey)
					lastOpen = false
				}
				fm.Add(lastKey, shapeValue(line.Text, listKey(lastBase))...)
			}
			continue
		}

		label := line.Text[:idx]
		value := strings.TrimSpace(line.Text[idx+1:])
		for _, pr := range splitPairs(label, value) {
			base := NormalizeKey(pr.label)
			if base == "" {
				continue
			}
			key := prefix + base
			fm.Ensure(key)
			fm.Add(key, shapeValue(pr.value, listKey(base))...)
			lastKey, lastBase = key, base
			lastOpen = pr.value == ""
		}
		lastIndent = line.Indent
	}
	return fm
}

func matchSection(sections []Section, text string) (string, bool) {
	for _, s := range sections {
		if strings.EqualFold(text, strings.TrimSpace(s.Header)) {
			return s.Prefix, true
		}
	}
	return "", false
}

type pair struct {
	label string
	value string
}

// splitPairs 拆分同一行内的多组 "标签: 值"
// 后续标签继承首个标签去掉末尾单词后的部分，如 "Adaptive RX" + "TX" -> "Adaptive TX"
func splitPairs(label, value string) []pair {
	out := []pair{}
	stem := ""
	if words := strings.Fields(label); len(words) > 1 {
		stem = strings.Join(words[:len(words)-1], " ") + " "
	}
	for {
		m := pairRe.FindStringSubmatch(value)
		if m == nil {
			out = append(out, pair{label: label, value: value})
			return out
		}
		out = append(out, pair{label: label, value: strings.TrimSpace(m[1])})
		label, value = stem+m[2], strings.TrimSpace(m[3])
	}
}

// shapeValue 将原始值转换为取值序列
func shapeValue(value string, list bool) []string {
	if m := bracketRe.FindStringSubmatch(value); m != nil {
		return strings.Fields(m[1])
	}
	if list {
		if value == notReported {
			return []string{value}
		}
		return strings.Fields(value)
	}
	return []string{value}
}
