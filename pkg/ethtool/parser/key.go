package parser

import "strings"

// NormalizeKey 将输出中的标签转换为规范键
// 小写化；[a-z0-9] 以外的字符替换为 '_'；连续 '_' 折叠；去除首尾 '_'
func NormalizeKey(label string) string {
	var b strings.Builder
	b.Grow(len(label))
	pending := false
	for _, r := range strings.ToLower(label) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pending && b.Len() > 0 {
				b.WriteByte('_')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}
	return b.String()
}

// IsLinkModeKey 默认的列表键判断：以 link_modes 结尾的键按空白拆分
func IsLinkModeKey(key string) bool {
	return strings.HasSuffix(key, "link_modes")
}
