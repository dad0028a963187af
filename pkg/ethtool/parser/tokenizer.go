package parser

import "strings"

// tabWidth 制表符折算的缩进列数
const tabWidth = 8

// RawLine 单行输出及其缩进深度
type RawLine struct {
	Number int    // 原始行号（从 1 开始）
	Indent int    // 前导空白宽度
	Text   string // 去除首尾空白后的内容
}

// Tokenizer 按行切分命令输出，单次遍历，不可重置
type Tokenizer struct {
	rest   string
	number int
	done   bool
}

// NewTokenizer 创建行切分器
func NewTokenizer(raw string) *Tokenizer {
	return &Tokenizer{rest: raw}
}

// Next 返回下一个非空行；输出耗尽时第二个返回值为 false
func (t *Tokenizer) Next() (RawLine, bool) {
	for !t.done {
		var line string
		if i := strings.IndexByte(t.rest, '\n'); i >= 0 {
			line, t.rest = t.rest[:i], t.rest[i+1:]
		} else {
			line, t.rest, t.done = t.rest, "", true
		}
		t.number++

		line = strings.TrimRight(line, "\r")
		text := strings.TrimSpace(line)
		if text == "" {
			continue
		}
		return RawLine{Number: t.number, Indent: indentWidth(line), Text: text}, true
	}
	return RawLine{}, false
}

func indentWidth(line string) int {
	width := 0
	for _, r := range line {
		switch r {
		case ' ':
			width++
		case '\t':
			width += tabWidth
		default:
			return width
		}
	}
	return width
}
