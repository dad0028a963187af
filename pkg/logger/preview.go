package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// OutputPreview 命令输出的头部与尾部若干行
type OutputPreview struct {
	HeadLines  []string `json:"head_lines"`
	TailLines  []string `json:"tail_lines"`
	TotalLines int      `json:"total_lines"`
}

// PreviewOutput 提取输出的头尾各 maxLines 行（空白行不计入）
func PreviewOutput(output string, maxLines int) OutputPreview {
	if maxLines <= 0 {
		maxLines = 5
	}
	output = strings.ReplaceAll(output, "\r\n", "\n")

	var lines []string
	for _, ln := range strings.Split(output, "\n") {
		if strings.TrimSpace(ln) != "" {
			lines = append(lines, strings.TrimRight(ln, " \t"))
		}
	}

	p := OutputPreview{TotalLines: len(lines)}
	if len(lines) == 0 {
		return p
	}
	if len(lines) <= maxLines {
		p.HeadLines = append([]string{}, lines...)
		return p
	}
	p.HeadLines = append([]string{}, lines[:maxLines]...)
	tail := maxLines
	if rest := len(lines) - maxLines; rest < tail {
		tail = rest
	}
	p.TailLines = append([]string{}, lines[len(lines)-tail:]...)
	return p
}

// String 单行格式，用于日志
func (p OutputPreview) String() string {
	if p.TotalLines == 0 {
		return "<empty>"
	}
	s := "[" + strings.Join(p.HeadLines, " ⟩ ") + "]"
	if len(p.TailLines) > 0 {
		s += " ... [" + strings.Join(p.TailLines, " ⟩ ") + "]"
	}
	return s
}

// DebugCommandOutput 在 debug 级别记录命令输出预览
func DebugCommandOutput(command string, returnCode int, output string, maxLines int) {
	if GetLogger().Level < logrus.DebugLevel {
		return
	}
	p := PreviewOutput(output, maxLines)
	Debug("Command output",
		"command", command,
		"rc", returnCode,
		"lines", p.TotalLines,
		"preview", p.String(),
	)
}
