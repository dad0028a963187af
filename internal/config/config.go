package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
)

// Config 应用配置结构
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Storage  StorageConfig  `mapstructure:"storage"`
	SSH      SSHConfig      `mapstructure:"ssh"`
	Log      logger.Config  `mapstructure:"log"`
	Ethtool  EthtoolConfig  `mapstructure:"ethtool"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Simulate SimulateConfig `mapstructure:"simulate"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	Port           int           `mapstructure:"port"`
	Mode           string        `mapstructure:"mode"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	SimulateEnable bool          `mapstructure:"simulate_enable"`
}

// SimulateConfig 内置 SSH 模拟器
type SimulateConfig struct {
	Fixtures string `mapstructure:"fixtures"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig SQLite配置
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// StorageConfig 快照文档存储配置
type StorageConfig struct {
	// Backend local | minio
	Backend string             `mapstructure:"backend"`
	Prefix  string             `mapstructure:"prefix"`
	Local   LocalStorageConfig `mapstructure:"local"`
	Minio   MinioConfig        `mapstructure:"minio"`
}

// LocalStorageConfig 本地存储配置
type LocalStorageConfig struct {
	BaseDir        string `mapstructure:"base_dir"`
	MkdirIfMissing bool   `mapstructure:"mkdir_if_missing"`
}

// MinioConfig 对象存储配置
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// SSHConfig SSH配置
type SSHConfig struct {
	Timeout     time.Duration `mapstructure:"timeout"`
	KeepAlive   time.Duration `mapstructure:"keep_alive"`
	MaxSessions int           `mapstructure:"max_sessions"`
	Pool        PoolConfig    `mapstructure:"pool"`
}

// PoolConfig 连接池配置
type PoolConfig struct {
	MaxIdle     int           `mapstructure:"max_idle"`
	MaxActive   int           `mapstructure:"max_active"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// EthtoolConfig ethtool 命令执行配置
type EthtoolConfig struct {
	Binary              string        `mapstructure:"binary"`
	SucceedCodes        []int         `mapstructure:"succeed_codes"`
	CommandTimeout      time.Duration `mapstructure:"command_timeout"`
	SnapshotConcurrency int           `mapstructure:"snapshot_concurrency"`
	DefaultFamilies     []string      `mapstructure:"default_families"`
	DefaultDriver       string        `mapstructure:"default_driver"`
	// AllowLocal 是否允许 local 目标在服务所在主机上执行；命令行工具始终打开
	AllowLocal          bool          `mapstructure:"allow_local"`
}

// MetricsConfig Prometheus 指标
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

var (
	globalConfig *Config
	globalViper  *viper.Viper
)

// Load 加载配置文件；configPath 为空时在 ./configs 等目录查找 config.yaml
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./configs")
		v.AddConfigPath("../configs")
		v.AddConfigPath("../../configs")
	}

	v.SetEnvPrefix("ETHTOOLPRO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		// 未指定路径且找不到配置文件时使用默认值
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	config = replaceEnvVars(config)
	normalize(&config)

	globalConfig = &config
	globalViper = v
	return &config, nil
}

// setDefaults 设置默认值
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 18000)
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.simulate_enable", false)
	v.SetDefault("simulate.fixtures", "simulate/fixtures.yaml")

	v.SetDefault("database.sqlite.path", "./data/ethtoolpro.db")
	v.SetDefault("database.sqlite.max_idle_conns", 5)
	v.SetDefault("database.sqlite.max_open_conns", 10)
	v.SetDefault("database.sqlite.conn_max_lifetime", time.Hour)

	v.SetDefault("storage.backend", "local")
	v.SetDefault("storage.prefix", "snapshots")
	v.SetDefault("storage.local.base_dir", "./data")
	v.SetDefault("storage.local.mkdir_if_missing", true)
	v.SetDefault("storage.minio.port", 9000)

	v.SetDefault("ssh.timeout", 30*time.Second)
	v.SetDefault("ssh.keep_alive", 30*time.Second)
	v.SetDefault("ssh.max_sessions", 8)
	v.SetDefault("ssh.pool.max_idle", 16)
	v.SetDefault("ssh.pool.max_active", 64)
	v.SetDefault("ssh.pool.idle_timeout", 5*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.output", "console")
	v.SetDefault("log.max_size", 100)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age", 30)

	v.SetDefault("ethtool.binary", "ethtool")
	v.SetDefault("ethtool.succeed_codes", []int{0})
	v.SetDefault("ethtool.command_timeout", 30*time.Second)
	v.SetDefault("ethtool.snapshot_concurrency", 4)
	v.SetDefault("ethtool.default_driver", "default")
	v.SetDefault("ethtool.allow_local", false)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}

// Get 获取全局配置
func Get() *Config {
	return globalConfig
}

// Viper 返回最近一次 Load 使用的 viper 实例，供热加载监听
func Viper() *viper.Viper {
	return globalViper
}

// replaceEnvVars 替换 ${VAR} 形式的敏感配置
func replaceEnvVars(config Config) Config {
	config.Storage.Minio.AccessKey = expandEnv(config.Storage.Minio.AccessKey)
	config.Storage.Minio.SecretKey = expandEnv(config.Storage.Minio.SecretKey)
	return config
}

func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		envVar := strings.TrimSuffix(strings.TrimPrefix(s, "${"), "}")
		if value := os.Getenv(envVar); value != "" {
			return value
		}
	}
	return s
}

// normalize 修正非法取值
func normalize(c *Config) {
	c.Storage.Backend = strings.ToLower(strings.TrimSpace(c.Storage.Backend))
	if c.Storage.Backend != "minio" {
		c.Storage.Backend = "local"
	}
	if len(c.Ethtool.SucceedCodes) == 0 {
		c.Ethtool.SucceedCodes = []int{0}
	}
	if c.Ethtool.SnapshotConcurrency <= 0 {
		c.Ethtool.SnapshotConcurrency = 1
	}
	if strings.TrimSpace(c.Ethtool.Binary) == "" {
		c.Ethtool.Binary = "ethtool"
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// GetServerAddr 获取服务器地址
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
