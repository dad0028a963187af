package util

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/transform"
)

// legacyEncodings 非 UTF-8 输出的候选编码
// zh_CN 主机的 shell 错误信息通常为 GB18030，网卡固件/模块 EEPROM 字符串多为 Latin-1
var legacyEncodings = []encoding.Encoding{
	simplifiedchinese.GB18030,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// DecodeOutput 把命令输出转换为 UTF-8 字符串，并统一换行为 \n
func DecodeOutput(b []byte) string {
	return NormalizeNewlines(EnsureUTF8Bytes(b))
}

// EnsureUTF8Bytes 合法 UTF-8 原样返回，否则依次尝试候选编码，全部失败时按原字节返回
func EnsureUTF8Bytes(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	for _, enc := range legacyEncodings {
		if s, ok := tryDecode(enc, b); ok {
			return s
		}
	}
	return string(b)
}

// NormalizeNewlines CRLF 与孤立 CR 统一为 LF
func NormalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

func tryDecode(enc encoding.Encoding, b []byte) (string, bool) {
	decoded, _, err := transform.Bytes(enc.NewDecoder(), b)
	if err != nil || !utf8.Valid(decoded) {
		return "", false
	}
	return string(decoded), true
}
