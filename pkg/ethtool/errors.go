package ethtool

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyOutput 命令执行成功但没有可解析的字段
	ErrEmptyOutput = errors.New("error while fetching ethtool output")
	// ErrUnsupportedOption 调用方传入了不支持的选项
	ErrUnsupportedOption = errors.New("incorrect option for ethtool command")
	// ErrMalformedCombination 参数组合不符合通道参数语法
	ErrMalformedCombination = errors.New("malformed parameter combination")
	// ErrNotAvailable 目标主机上 ethtool 不可用
	ErrNotAvailable = errors.New("ethtool not available")
	// ErrVersionNotFound 版本输出中找不到版本号
	ErrVersionNotFound = errors.New("ethtool version not found")
	// ErrInvalidArgument 选项、设备、参数或命名空间中含有不允许的字符
	ErrInvalidArgument = errors.New("invalid ethtool argument")
)

// ExecutionError 命令返回码不被接受，或返回码为 0 但 stderr 有内容
type ExecutionError struct {
	Command    string
	ReturnCode int
	Stdout     string
	Stderr     string
}

func (e *ExecutionError) Error() string {
	stderr := strings.TrimSpace(e.Stderr)
	if e.ReturnCode == 0 {
		return fmt.Sprintf("error while running ethtool command: %s", stderr)
	}
	if stderr == "" {
		return fmt.Sprintf("ethtool command %q exited with code %d", e.Command, e.ReturnCode)
	}
	return fmt.Sprintf("ethtool command %q exited with code %d: %s", e.Command, e.ReturnCode, stderr)
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedCombination, fmt.Sprintf(format, args...))
}

func unsupported(option string) error {
	return fmt.Errorf("%w: %s", ErrUnsupportedOption, option)
}
