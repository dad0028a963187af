// Package simulate 提供回放 ethtool 输出的 SSH 模拟主机，用于联调与测试
package simulate

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"
	"gopkg.in/yaml.v3"

	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
)

// Config 模拟器配置
type Config struct {
	Listen      string `yaml:"listen"`
	Password    string `yaml:"password"`
	HostKeyFile string `yaml:"host_key_file"`
	MaxConn     int    `yaml:"max_conn"`
	// Hosts 以登录用户名区分不同的模拟主机
	Hosts map[string]Host `yaml:"hosts"`
}

// Host 一台模拟主机的命令回放表
type Host struct {
	Commands []Fixture `yaml:"commands"`
}

// Fixture 一条命令的回放结果
type Fixture struct {
	Command    string `yaml:"command"`
	Stdout     string `yaml:"stdout"`
	Stderr     string `yaml:"stderr"`
	ExitStatus int    `yaml:"exit_status"`
	DelayMS    int    `yaml:"delay_ms"`
}

// unknownCommand 未登记命令的返回
var unknownCommand = Fixture{Stderr: "sh: command not found\n", ExitStatus: 127}

// LoadConfig 读取 YAML 回放文件
func LoadConfig(path string) (*Config, error) {
	bs, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read simulate config: %w", err)
	}
	return ParseConfig(bs)
}

// ParseConfig 解析 YAML 回放内容
func ParseConfig(bs []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(bs, &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal simulate config: %w", err)
	}
	if cfg.Listen == "" {
		cfg.Listen = "127.0.0.1:0"
	}
	if len(cfg.Hosts) == 0 {
		return nil, errors.New("simulate config has no hosts")
	}
	return &cfg, nil
}

// Server 只支持 exec 请求的 SSH 服务
type Server struct {
	cfg      *Config
	hostKey  ssh.Signer
	listener net.Listener
	active   int
	mu       sync.Mutex
	wg       sync.WaitGroup
	execs    []string
}

// New 创建模拟服务
func New(cfg *Config) (*Server, error) {
	signer, err := loadOrCreateHostKey(cfg.HostKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to init host key: %w", err)
	}
	return &Server{cfg: cfg, hostKey: signer}, nil
}

// Start 开始监听
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return err
	}
	s.listener = ln
	logger.Info("Simulate: listener started", "addr", ln.Addr().String(), "hosts", len(s.cfg.Hosts))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			s.mu.Lock()
			if s.cfg.MaxConn > 0 && s.active >= s.cfg.MaxConn {
				s.mu.Unlock()
				_ = conn.Close()
				logger.Warn("Simulate: reject connection, max_conn exceeded", "active", s.cfg.MaxConn)
				continue
			}
			s.active++
			s.mu.Unlock()

			s.wg.Add(1)
			go func(c net.Conn) {
				defer s.wg.Done()
				s.handleConn(c)
				s.mu.Lock()
				s.active--
				s.mu.Unlock()
			}(conn)
		}
	}()
	return nil
}

// Addr 实际监听地址
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Port 实际监听端口
func (s *Server) Port() int {
	if tcp, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return tcp.Port
	}
	return 0
}

// Executed 已执行过的命令（按到达顺序）
func (s *Server) Executed() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string{}, s.execs...)
}

// Stop 停止服务并等待在途会话结束
func (s *Server) Stop() {
	if s.listener != nil {
		_ = s.listener.Close()
	}
	s.wg.Wait()
}

func (s *Server) handleConn(nc net.Conn) {
	srvCfg := &ssh.ServerConfig{
		PasswordCallback: func(meta ssh.ConnMetadata, password []byte) (*ssh.Permissions, error) {
			if _, ok := s.cfg.Hosts[meta.User()]; ok && string(password) == s.cfg.Password {
				return nil, nil
			}
			logger.Debug("Simulate: auth failed (password)", "user", meta.User())
			return nil, fmt.Errorf("access denied")
		},
	}
	srvCfg.AddHostKey(s.hostKey)

	conn, chans, reqs, err := ssh.NewServerConn(nc, srvCfg)
	if err != nil {
		logger.Debug("Simulate: SSH handshake failed", "remote", nc.RemoteAddr().String(), "error", err)
		_ = nc.Close()
		return
	}
	defer conn.Close()
	go ssh.DiscardRequests(reqs)

	host := s.cfg.Hosts[conn.User()]
	var sessions sync.WaitGroup
	for ch := range chans {
		if ch.ChannelType() != "session" {
			_ = ch.Reject(ssh.UnknownChannelType, "unknown channel type")
			continue
		}
		channel, requests, err := ch.Accept()
		if err != nil {
			logger.Error("Simulate: channel accept failed", "error", err)
			continue
		}
		sessions.Add(1)
		go func() {
			defer sessions.Done()
			s.handleSession(channel, requests, conn.User(), host)
		}()
	}
	sessions.Wait()
}

func (s *Server) handleSession(channel ssh.Channel, requests <-chan *ssh.Request, user string, host Host) {
	defer channel.Close()

	for req := range requests {
		if req.Type != "exec" {
			// 只回放非交互命令
			_ = req.Reply(false, nil)
			continue
		}
		var payload struct{ Command string }
		if err := ssh.Unmarshal(req.Payload, &payload); err != nil {
			_ = req.Reply(false, nil)
			return
		}
		_ = req.Reply(true, nil)

		cmd := strings.TrimSpace(payload.Command)
		s.mu.Lock()
		s.execs = append(s.execs, cmd)
		s.mu.Unlock()

		fx := host.lookup(cmd)
		logger.Debug("Simulate: exec", "user", user, "cmd", cmd, "exit_status", fx.ExitStatus)
		if fx.DelayMS > 0 {
			time.Sleep(time.Duration(fx.DelayMS) * time.Millisecond)
		}
		_, _ = channel.Write([]byte(fx.Stdout))
		_, _ = channel.Stderr().Write([]byte(fx.Stderr))
		status := struct{ Status uint32 }{uint32(fx.ExitStatus)}
		_, _ = channel.SendRequest("exit-status", false, ssh.Marshal(&status))
		return
	}
}

func (h Host) lookup(cmd string) Fixture {
	for _, fx := range h.Commands {
		if strings.TrimSpace(fx.Command) == cmd {
			return fx
		}
	}
	return unknownCommand
}

// loadOrCreateHostKey 指定文件时从文件加载，否则生成临时 ed25519 密钥
func loadOrCreateHostKey(path string) (ssh.Signer, error) {
	if path != "" {
		bs, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return ssh.ParsePrivateKey(bs)
	}
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return ssh.NewSignerFromKey(priv)
}
