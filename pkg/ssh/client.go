package ssh

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
)

// Config SSH配置
type Config struct {
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	KeepAlive   time.Duration `mapstructure:"keep_alive" yaml:"keep_alive"`
	MaxSessions int           `mapstructure:"max_sessions" yaml:"max_sessions"`
}

// sessionDrainTimeout 超时关闭会话后等待输出协程退出的时间
const sessionDrainTimeout = 2 * time.Second

// Client SSH客户端，只使用 exec 通道，一个连接上可并发打开多个会话
type Client struct {
	config     *Config
	connection *ssh.Client
	mutex      sync.RWMutex
	// 最近一次成功连接的参数，会话创建遇到 EOF 时用于重连
	info     *ConnectionInfo
	stopKeep chan struct{}
	sessions chan struct{}
}

// ConnectionInfo SSH连接信息
type ConnectionInfo struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
	KeyFile  string `json:"key_file,omitempty"`
}

// CommandResult 命令执行结果
type CommandResult struct {
	Command  string        `json:"command"`
	Stdout   string        `json:"stdout"`
	Stderr   string        `json:"stderr"`
	ExitCode int           `json:"exit_code"`
	Duration time.Duration `json:"duration"`
}

// NewClient 创建SSH客户端
func NewClient(config *Config) *Client {
	if config == nil {
		config = &Config{Timeout: 30 * time.Second}
	}
	c := &Client{config: config}
	if config.MaxSessions > 0 {
		c.sessions = make(chan struct{}, config.MaxSessions)
	}
	return c
}

// Connect 连接SSH服务器
func (c *Client) Connect(ctx context.Context, info *ConnectionInfo) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.connectLocked(ctx, info)
}

func (c *Client) connectLocked(ctx context.Context, info *ConnectionInfo) error {
	auth, err := authMethods(info)
	if err != nil {
		return err
	}
	c.info = info

	sshConfig := &ssh.ClientConfig{
		User:            info.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         c.config.Timeout,
		Config: ssh.Config{
			// 兼容较旧的 sshd
			KeyExchanges: []string{
				"curve25519-sha256",
				"curve25519-sha256@libssh.org",
				"ecdh-sha2-nistp256",
				"ecdh-sha2-nistp384",
				"ecdh-sha2-nistp521",
				"diffie-hellman-group14-sha256",
				"diffie-hellman-group14-sha1",
				"diffie-hellman-group-exchange-sha256",
			},
			Ciphers: []string{
				"aes128-gcm@openssh.com",
				"aes256-gcm@openssh.com",
				"chacha20-poly1305@openssh.com",
				"aes128-ctr",
				"aes192-ctr",
				"aes256-ctr",
			},
		},
	}

	address := net.JoinHostPort(info.Host, fmt.Sprint(info.Port))
	dialer := &net.Dialer{Timeout: c.config.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", address)
	if err != nil {
		return fmt.Errorf("failed to dial: %w", err)
	}

	sshConn, chans, reqs, err := ssh.NewClientConn(conn, address, sshConfig)
	if err != nil {
		conn.Close()
		return fmt.Errorf("failed to create SSH connection: %w", err)
	}

	c.connection = ssh.NewClient(sshConn, chans, reqs)
	c.stopKeep = make(chan struct{})
	go c.keepAlive(c.connection, c.stopKeep)
	return nil
}

// authMethods 密码（含 keyboard-interactive）与私钥认证，二者可同时提供
func authMethods(info *ConnectionInfo) ([]ssh.AuthMethod, error) {
	var methods []ssh.AuthMethod
	if info.KeyFile != "" {
		pem, err := os.ReadFile(info.KeyFile)
		if err != nil {
			return nil, fmt.Errorf("read key file: %w", err)
		}
		signer, err := ssh.ParsePrivateKey(pem)
		if err != nil {
			return nil, fmt.Errorf("parse key file %s: %w", info.KeyFile, err)
		}
		methods = append(methods, ssh.PublicKeys(signer))
	}
	if info.Password != "" {
		methods = append(methods,
			ssh.Password(info.Password),
			ssh.KeyboardInteractive(func(user, instruction string, questions []string, echos []bool) ([]string, error) {
				answers := make([]string, len(questions))
				for i := range questions {
					answers[i] = info.Password
				}
				return answers, nil
			}),
		)
	}
	if len(methods) == 0 {
		return nil, errors.New("no SSH credentials: password or key file required")
	}
	return methods, nil
}

// newSessionWithRetry 创建会话（带退避重试）
// 连接刚建立时部分 sshd 会拒绝打开通道或返回 EOF，EOF 时按保存的参数重连一次
func (c *Client) newSessionWithRetry(ctx context.Context) (*ssh.Session, error) {
	backoffs := []time.Duration{0, 200 * time.Millisecond, 500 * time.Millisecond, time.Second}
	var lastErr error
	reconnected := false
	for _, d := range backoffs {
		if d > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(d):
			}
		}
		c.mutex.RLock()
		conn := c.connection
		c.mutex.RUnlock()
		if conn == nil {
			return nil, fmt.Errorf("SSH connection not established")
		}
		sess, err := conn.NewSession()
		if err == nil {
			return sess, nil
		}
		lastErr = err
		if !reconnected && strings.Contains(strings.ToLower(err.Error()), "eof") && c.info != nil {
			reconnected = true
			c.mutex.Lock()
			c.closeLocked()
			_ = c.connectLocked(ctx, c.info)
			c.mutex.Unlock()
		}
	}
	return nil, lastErr
}

// Run 执行单条命令，stdout 与 stderr 分开收集
// 远端命令以非零状态退出时返回 nil error，退出码写入 ExitCode
func (c *Client) Run(ctx context.Context, command string) (*CommandResult, error) {
	if c.sessions != nil {
		select {
		case c.sessions <- struct{}{}:
			defer func() { <-c.sessions }()
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	start := time.Now()
	result := &CommandResult{Command: command, ExitCode: -1}

	session, err := c.newSessionWithRetry(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to create session: %w", err)
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(command) }()

	select {
	case err = <-done:
	case <-ctx.Done():
		_ = session.Signal(ssh.SIGTERM)
		_ = session.Close()
		result.Duration = time.Since(start)
		// 会话协程退出后缓冲区才不再被写入；等不到则丢弃部分输出
		select {
		case <-done:
			result.Stdout, result.Stderr = stdout.String(), stderr.String()
		case <-time.After(sessionDrainTimeout):
		}
		return result, fmt.Errorf("command timeout: %w", ctx.Err())
	}

	result.Duration = time.Since(start)
	result.Stdout, result.Stderr = stdout.String(), stderr.String()

	var exitErr *ssh.ExitError
	switch {
	case err == nil:
		result.ExitCode = 0
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitStatus()
	default:
		return result, err
	}
	return result, nil
}

// Close 关闭SSH连接
func (c *Client) Close() error {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.closeLocked()
}

func (c *Client) closeLocked() error {
	if c.stopKeep != nil {
		close(c.stopKeep)
		c.stopKeep = nil
	}
	if c.connection != nil {
		err := c.connection.Close()
		c.connection = nil
		return err
	}
	return nil
}

// IsConnected 检查连接状态
// 只发 keepalive 请求，不创建会话
func (c *Client) IsConnected() bool {
	c.mutex.RLock()
	conn := c.connection
	c.mutex.RUnlock()
	if conn == nil {
		return false
	}
	_, _, err := conn.SendRequest("keepalive@openssh.com", false, nil)
	return err == nil
}

// keepAlive 保持连接活跃，失败时关闭连接以便连接池清理
func (c *Client) keepAlive(conn *ssh.Client, stop <-chan struct{}) {
	if c.config.KeepAlive <= 0 {
		return
	}
	ticker := time.NewTicker(c.config.KeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if _, _, err := conn.SendRequest("keepalive@openssh.com", false, nil); err != nil {
				c.mutex.Lock()
				if c.connection == conn {
					_ = c.connection.Close()
					c.connection = nil
				}
				c.mutex.Unlock()
				return
			}
		}
	}
}
