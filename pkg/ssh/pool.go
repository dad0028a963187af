package ssh

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
)

// Pool SSH连接池，同一目标的连接在多个调用方之间共享
type Pool struct {
	config      *Config
	connections map[string]*pooledConnection
	mutex       sync.RWMutex
	maxIdle     int
	maxActive   int
	idleTimeout time.Duration
	metrics     *metrics.Metrics
	stop        chan struct{}
	closeOnce   sync.Once
}

// pooledConnection 池化的连接
type pooledConnection struct {
	client   *Client
	lastUsed time.Time
	refs     int
	created  time.Time
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdle     int           `mapstructure:"max_idle" yaml:"max_idle"`
	MaxActive   int           `mapstructure:"max_active" yaml:"max_active"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`
	SSHConfig   *Config       `mapstructure:"ssh" yaml:"ssh"`
}

// NewPool 创建SSH连接池
func NewPool(config *PoolConfig, m *metrics.Metrics) *Pool {
	pool := &Pool{
		config:      config.SSHConfig,
		connections: make(map[string]*pooledConnection),
		maxIdle:     config.MaxIdle,
		maxActive:   config.MaxActive,
		idleTimeout: config.IdleTimeout,
		metrics:     m,
		stop:        make(chan struct{}),
	}
	if pool.idleTimeout <= 0 {
		pool.idleTimeout = 5 * time.Minute
	}

	go pool.cleanup()
	return pool
}

// GetConnection 获取SSH连接，用完后必须调用 ReleaseConnection
func (p *Pool) GetConnection(ctx context.Context, info *ConnectionInfo) (*Client, error) {
	key := p.getConnectionKey(info)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if conn, exists := p.connections[key]; exists {
		if conn.client.IsConnected() {
			conn.refs++
			conn.lastUsed = time.Now()
			return conn.client, nil
		}
		// 已断开：只有无人使用时才能直接关闭
		if conn.refs == 0 {
			_ = conn.client.Close()
		}
		delete(p.connections, key)
	}

	if p.maxActive > 0 && len(p.connections) >= p.maxActive {
		return nil, fmt.Errorf("connection pool is full, connections: %d", len(p.connections))
	}

	client := NewClient(p.config)
	if err := client.Connect(ctx, info); err != nil {
		return nil, fmt.Errorf("failed to create SSH connection: %w", err)
	}

	now := time.Now()
	p.connections[key] = &pooledConnection{client: client, lastUsed: now, refs: 1, created: now}
	p.metrics.SetPoolConnections(len(p.connections))
	return client, nil
}

// ReleaseConnection 释放SSH连接
func (p *Pool) ReleaseConnection(info *ConnectionInfo) {
	key := p.getConnectionKey(info)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if conn, exists := p.connections[key]; exists && conn.refs > 0 {
		conn.refs--
		conn.lastUsed = time.Now()
	}
}

// CloseConnection 关闭指定连接
func (p *Pool) CloseConnection(info *ConnectionInfo) error {
	key := p.getConnectionKey(info)

	p.mutex.Lock()
	defer p.mutex.Unlock()

	if conn, exists := p.connections[key]; exists {
		err := conn.client.Close()
		delete(p.connections, key)
		p.metrics.SetPoolConnections(len(p.connections))
		return err
	}
	return nil
}

// Run 通过连接池执行命令
func (p *Pool) Run(ctx context.Context, info *ConnectionInfo, command string) (*CommandResult, error) {
	client, err := p.GetConnection(ctx, info)
	if err != nil {
		return nil, err
	}
	defer p.ReleaseConnection(info)

	return client.Run(ctx, command)
}

// Close 关闭连接池
func (p *Pool) Close() error {
	p.closeOnce.Do(func() { close(p.stop) })

	p.mutex.Lock()
	defer p.mutex.Unlock()

	var lastErr error
	for key, conn := range p.connections {
		if err := conn.client.Close(); err != nil {
			lastErr = err
		}
		delete(p.connections, key)
	}
	p.metrics.SetPoolConnections(0)
	return lastErr
}

// GetStats 获取连接池统计信息
func (p *Pool) GetStats() map[string]interface{} {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	return map[string]interface{}{
		"total_connections":  len(p.connections),
		"active_connections": p.getActiveCount(),
		"idle_connections":   len(p.connections) - p.getActiveCount(),
		"max_idle":           p.maxIdle,
		"max_active":         p.maxActive,
	}
}

// getConnectionKey 生成连接键；包含凭据摘要，凭据不同的请求不会复用已登录的连接
func (p *Pool) getConnectionKey(info *ConnectionInfo) string {
	sum := sha256.Sum256([]byte(info.Password + "\x00" + info.KeyFile))
	return fmt.Sprintf("%s:%d@%s#%s", info.Host, info.Port, info.Username, hex.EncodeToString(sum[:8]))
}

func (p *Pool) getActiveCount() int {
	count := 0
	for _, conn := range p.connections {
		if conn.refs > 0 {
			count++
		}
	}
	return count
}

// cleanup 定期清理过期连接
func (p *Pool) cleanup() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			p.cleanupExpiredConnections()
		}
	}
}

// cleanupExpiredConnections 关闭超时空闲、已断开以及超出 maxIdle 的空闲连接
func (p *Pool) cleanupExpiredConnections() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	now := time.Now()
	idle := 0
	for key, conn := range p.connections {
		if conn.refs > 0 {
			continue
		}
		if now.Sub(conn.lastUsed) > p.idleTimeout || !conn.client.IsConnected() {
			_ = conn.client.Close()
			delete(p.connections, key)
			continue
		}
		idle++
	}

	if p.maxIdle > 0 && idle > p.maxIdle {
		excess := idle - p.maxIdle
		for key, conn := range p.connections {
			if excess <= 0 {
				break
			}
			if conn.refs == 0 {
				_ = conn.client.Close()
				delete(p.connections, key)
				excess--
			}
		}
	}
	p.metrics.SetPoolConnections(len(p.connections))
}

// Health 健康检查
func (p *Pool) Health() error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if len(p.connections) == 0 {
		return nil
	}
	for _, conn := range p.connections {
		if conn.client.IsConnected() {
			return nil
		}
	}
	return fmt.Errorf("all connections are disconnected")
}
