// Package ethtool 构造 ethtool 命令行，通过 Runner 执行并把文本输出解析为结构化记录
package ethtool

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
)

// DefaultBinary 默认的 ethtool 可执行文件
const DefaultBinary = "ethtool"

// previewLines debug 日志中输出预览的行数
const previewLines = 5

var versionRe = regexp.MustCompile(`ethtool version (\S+)`)

// tokenRe 命令行中每个以空白分隔的片段都必须匹配；拼接后的命令可能交给 shell 执行
var tokenRe = regexp.MustCompile(`^[A-Za-z0-9_.:@/,=+%-]+$`)

// Result 一次命令执行的结果
type Result struct {
	Command    string        `json:"command"`
	Stdout     string        `json:"stdout"`
	Stderr     string        `json:"stderr"`
	ReturnCode int           `json:"return_code"`
	Duration   time.Duration `json:"duration"`
}

// Runner 在本地或远端执行一条 shell 命令行
// 只有传输层失败才返回 error；非零返回码通过 Result.ReturnCode 体现
type Runner interface {
	Run(ctx context.Context, command string) (*Result, error)
}

// RunnerFunc 函数适配为 Runner
type RunnerFunc func(ctx context.Context, command string) (*Result, error)

// Run 实现 Runner
func (f RunnerFunc) Run(ctx context.Context, command string) (*Result, error) {
	return f(ctx, command)
}

// Ethtool 面向单个连接的 ethtool 封装，可并发使用
type Ethtool struct {
	runner       Runner
	binary       string
	succeedCodes []int
	metrics      *metrics.Metrics
}

// Option 构造选项
type Option func(*Ethtool)

// WithBinary 指定 ethtool 路径
func WithBinary(binary string) Option {
	return func(e *Ethtool) {
		if b := strings.TrimSpace(binary); b != "" {
			e.binary = b
		}
	}
}

// WithSucceedCodes 指定默认接受的返回码
func WithSucceedCodes(codes ...int) Option {
	return func(e *Ethtool) {
		if len(codes) > 0 {
			e.succeedCodes = append([]int{}, codes...)
		}
	}
}

// WithMetrics 挂载 Prometheus 指标
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Ethtool) { e.metrics = m }
}

// New 创建封装
func New(runner Runner, opts ...Option) *Ethtool {
	e := &Ethtool{runner: runner, binary: DefaultBinary, succeedCodes: []int{0}}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CallOption 单次调用选项
type CallOption func(*callConfig)

type callConfig struct {
	namespace    string
	succeedCodes []int
}

// InNamespace 在指定网络命名空间内执行（ip netns exec）
func InNamespace(ns string) CallOption {
	return func(c *callConfig) { c.namespace = strings.TrimSpace(ns) }
}

// ExpectCodes 覆盖本次调用接受的返回码
func ExpectCodes(codes ...int) CallOption {
	return func(c *callConfig) {
		if len(codes) > 0 {
			c.succeedCodes = append([]int{}, codes...)
		}
	}
}

func (e *Ethtool) resolve(opts []CallOption) callConfig {
	cfg := callConfig{succeedCodes: e.succeedCodes}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// Command 构造完整命令行：[ip netns exec NS ]ethtool <option> <device> [params]
func (e *Ethtool) Command(option, device, params string, opts ...CallOption) string {
	return e.command(option, device, params, e.resolve(opts).namespace)
}

func (e *Ethtool) command(option, device, params, namespace string) string {
	parts := []string{e.binary}
	for _, p := range []string{option, device, params} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	cmd := strings.Join(parts, " ")
	if namespace != "" {
		cmd = "ip netns exec " + namespace + " " + cmd
	}
	return cmd
}

// Execute 执行 ethtool 命令并返回 stdout
// 返回码不在接受集合内，或返回码为 0 但 stderr 非空时返回 *ExecutionError
func (e *Ethtool) Execute(ctx context.Context, option, device, params string, opts ...CallOption) (string, error) {
	cfg := e.resolve(opts)
	if err := ValidateArgs(option, device, params, cfg.namespace); err != nil {
		return "", err
	}
	cmd := e.command(option, device, params, cfg.namespace)
	res, err := e.run(ctx, cmd, cfg.succeedCodes)
	e.metrics.RecordCommand(option, durationOf(res), err)
	if err != nil {
		return "", err
	}
	return res.Stdout, nil
}

// ValidateArgs 校验命令行的各个组成部分，出现 shell 元字符时返回 ErrInvalidArgument
func ValidateArgs(parts ...string) error {
	for _, p := range parts {
		for _, tok := range strings.Fields(p) {
			if !tokenRe.MatchString(tok) {
				return fmt.Errorf("%w: %q", ErrInvalidArgument, tok)
			}
		}
	}
	return nil
}

func (e *Ethtool) run(ctx context.Context, cmd string, codes []int) (*Result, error) {
	start := time.Now()
	res, err := e.runner.Run(ctx, cmd)
	if err != nil {
		logger.Warn("ethtool command transport failed", "command", cmd, "error", err)
		return nil, fmt.Errorf("run %q: %w", cmd, err)
	}
	if res.Duration == 0 {
		res.Duration = time.Since(start)
	}
	logger.DebugCommandOutput(cmd, res.ReturnCode, res.Stdout, previewLines)

	if !slices.Contains(codes, res.ReturnCode) ||
		(res.ReturnCode == 0 && strings.TrimSpace(res.Stderr) != "") {
		execErr := &ExecutionError{Command: cmd, ReturnCode: res.ReturnCode, Stdout: res.Stdout, Stderr: res.Stderr}
		logger.Warn("ethtool command failed", "command", cmd, "rc", res.ReturnCode, "stderr", strings.TrimSpace(res.Stderr))
		return res, execErr
	}
	return res, nil
}

func durationOf(res *Result) time.Duration {
	if res == nil {
		return 0
	}
	return res.Duration
}

// CheckIfAvailable 检查 ethtool 是否可用
func (e *Ethtool) CheckIfAvailable(ctx context.Context, opts ...CallOption) error {
	if _, err := e.Execute(ctx, "--version", "", "", opts...); err != nil {
		return fmt.Errorf("%w: %v", ErrNotAvailable, err)
	}
	return nil
}

// GetVersion 返回 ethtool 版本号，如 "4.15"
func (e *Ethtool) GetVersion(ctx context.Context, opts ...CallOption) (string, error) {
	out, err := e.Execute(ctx, "--version", "", "", opts...)
	if err != nil {
		return "", err
	}
	m := versionRe.FindStringSubmatch(out)
	if m == nil {
		return "", ErrVersionNotFound
	}
	return m[1], nil
}

func joinParams(params ...string) string {
	out := make([]string, 0, len(params))
	for _, p := range params {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, " ")
}
