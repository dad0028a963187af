package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"sort"
	"strings"
	"time"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"

	"github.com/sshcollectorpro/ethtoolpro/internal/util"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ssh"
)

// exitCommandNotFound 找不到命令时的返回码，与 shell 一致
const exitCommandNotFound = 127

// SSHRunner 通过连接池在远端主机执行命令
type SSHRunner struct {
	pool *ssh.Pool
	info *ssh.ConnectionInfo
}

// NewSSHRunner 创建远端执行器
func NewSSHRunner(pool *ssh.Pool, info *ssh.ConnectionInfo) *SSHRunner {
	return &SSHRunner{pool: pool, info: info}
}

// Run 实现 ethtool.Runner
func (r *SSHRunner) Run(ctx context.Context, command string) (*ethtool.Result, error) {
	res, err := r.pool.Run(ctx, r.info, command)
	if err != nil {
		return nil, fmt.Errorf("ssh %s@%s: %w", r.info.Username, r.info.Host, err)
	}
	return &ethtool.Result{
		Command:    command,
		Stdout:     util.NormalizeNewlines(res.Stdout),
		Stderr:     util.NormalizeNewlines(res.Stderr),
		ReturnCode: res.ExitCode,
		Duration:   res.Duration,
	}, nil
}

// LocalRunner 在本机执行命令；命令行按空白拆分为参数列表，不经过 shell
type LocalRunner struct{}

// NewLocalRunner 创建本地执行器
func NewLocalRunner() *LocalRunner {
	return &LocalRunner{}
}

// Run 实现 ethtool.Runner；非零退出码不视为错误
func (r *LocalRunner) Run(ctx context.Context, command string) (*ethtool.Result, error) {
	argv := strings.Fields(command)
	if len(argv) == 0 {
		return nil, errors.New("empty command")
	}
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// 子进程继承了输出管道时，超时后不再等待其退出
	cmd.WaitDelay = 500 * time.Millisecond

	start := time.Now()
	err := cmd.Run()
	res := &ethtool.Result{
		Command:  command,
		Stdout:   util.DecodeOutput(stdout.Bytes()),
		Stderr:   util.DecodeOutput(stderr.Bytes()),
		Duration: time.Since(start),
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, fmt.Errorf("command timeout: %w", ctxErr)
	}
	var exitErr *exec.ExitError
	switch {
	case err == nil:
	case errors.As(err, &exitErr):
		res.ReturnCode = exitErr.ExitCode()
	case errors.Is(err, exec.ErrNotFound):
		res.ReturnCode = exitCommandNotFound
	default:
		return nil, fmt.Errorf("run %q: %w", command, err)
	}
	return res, nil
}

// withNsHandle 在指定网络命名空间（为空时为当前命名空间）打开 netlink 句柄
func withNsHandle(namespace string, f func(h *netlink.Handle) error) error {
	if namespace == "" {
		handle, err := netlink.NewHandle()
		if err != nil {
			return fmt.Errorf("failed to create netlink handle: %w", err)
		}
		defer handle.Close()
		return f(handle)
	}

	nsHandle, err := netns.GetFromName(namespace)
	if err != nil {
		return fmt.Errorf("network namespace %q: %w", namespace, err)
	}
	defer nsHandle.Close()

	handle, err := netlink.NewHandleAt(nsHandle)
	if err != nil {
		return fmt.Errorf("failed to create netlink handle: %w", err)
	}
	defer handle.Close()
	return f(handle)
}

// LocalInterfaces 列出本机（或命名空间内）的网卡名
func LocalInterfaces(namespace string) ([]string, error) {
	var names []string
	err := withNsHandle(namespace, func(h *netlink.Handle) error {
		links, err := h.LinkList()
		if err != nil {
			return err
		}
		for _, l := range links {
			names = append(names, l.Attrs().Name)
		}
		return nil
	})
	sort.Strings(names)
	return names, err
}

// CheckLocalInterface 确认本机网卡存在，避免对不存在的设备逐条执行命令
func CheckLocalInterface(namespace, iface string) error {
	iface = strings.TrimSpace(iface)
	if iface == "" {
		return nil
	}
	return withNsHandle(namespace, func(h *netlink.Handle) error {
		if _, err := h.LinkByName(iface); err != nil {
			return fmt.Errorf("interface %q not found: %w", iface, err)
		}
		return nil
	})
}
