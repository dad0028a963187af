package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sshcollectorpro/ethtoolpro/addone/driver"
	"github.com/sshcollectorpro/ethtoolpro/api/router"
	"github.com/sshcollectorpro/ethtoolpro/internal/config"
	"github.com/sshcollectorpro/ethtoolpro/internal/database"
	"github.com/sshcollectorpro/ethtoolpro/internal/service"
	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ssh"
	"github.com/sshcollectorpro/ethtoolpro/simulate"
)

func main() {
	configPath := flag.String("config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.Init(cfg.Log); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger.Info("Starting Ethtool Pro Server", "version", "1.0.0", "drivers", driver.Names())

	// 初始化数据库
	if err := database.InitSQLite(cfg.Database.SQLite); err != nil {
		logger.Fatal("Failed to initialize database", "error", err)
	}
	defer database.Close()

	// 指标
	var (
		reg *prometheus.Registry
		m   *metrics.Metrics
	)
	if cfg.Metrics.Enabled {
		reg = metrics.NewRegistry()
		m = metrics.New(reg)
	}

	// SSH 连接池
	pool := ssh.NewPool(&ssh.PoolConfig{
		MaxIdle:     cfg.SSH.Pool.MaxIdle,
		MaxActive:   cfg.SSH.Pool.MaxActive,
		IdleTimeout: cfg.SSH.Pool.IdleTimeout,
		SSHConfig: &ssh.Config{
			Timeout:     cfg.SSH.Timeout,
			KeepAlive:   cfg.SSH.KeepAlive,
			MaxSessions: cfg.SSH.MaxSessions,
		},
	}, m)
	defer pool.Close()

	ethtoolService := service.NewEthtoolService(cfg, pool, m)
	snapshotService := service.NewSnapshotService(cfg, ethtoolService, service.NewStorageWriter(cfg), m)

	// 启动模拟主机（可选）
	var sim *simulate.Server
	if cfg.Server.SimulateEnable {
		sim = startSimulator(cfg.Simulate.Fixtures)
	}
	defer func() {
		if sim != nil {
			sim.Stop()
		}
	}()

	deps := router.Deps{
		Config:   cfg,
		Ethtool:  ethtoolService,
		Snapshot: snapshotService,
		Pool:     pool,
	}
	if reg != nil {
		deps.Gatherer = reg
	}
	r := router.SetupRouter(deps)

	server := &http.Server{
		Addr:           cfg.GetServerAddr(),
		Handler:        r,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: 1 << 20, // 1MB
	}

	go func() {
		logger.Info("Server starting", "addr", server.Addr, "mode", cfg.Server.Mode)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	watchLogLevel()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	} else {
		logger.Info("Server shutdown complete")
	}
}

// startSimulator 启动回放 SSH 主机；失败只记录告警
func startSimulator(path string) *simulate.Server {
	sc, err := simulate.LoadConfig(path)
	if err != nil {
		logger.Warn("Simulate: failed to load fixtures", "path", path, "error", err)
		return nil
	}
	srv, err := simulate.New(sc)
	if err != nil {
		logger.Warn("Simulate: failed to init", "error", err)
		return nil
	}
	if err := srv.Start(); err != nil {
		logger.Warn("Simulate: failed to start", "error", err)
		return nil
	}
	logger.Info("Simulate: started", "addr", srv.Addr(), "hosts", len(sc.Hosts))
	return srv
}

// watchLogLevel 配置文件变化时只热更新日志级别，其余配置需重启生效
func watchLogLevel() {
	v := config.Viper()
	if v == nil || v.ConfigFileUsed() == "" {
		return
	}
	var (
		debounce *time.Timer
		interval = 300 * time.Millisecond
	)
	v.OnConfigChange(func(ev fsnotify.Event) {
		if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
			return
		}
		if debounce != nil {
			debounce.Stop()
		}
		debounce = time.AfterFunc(interval, func() {
			level := v.GetString("log.level")
			if err := logger.SetLevel(level); err != nil {
				logger.Warn("Config reload: invalid log level", "level", level, "error", err)
				return
			}
			logger.Info("Config reloaded", "file", ev.Name, "log_level", level)
		})
	})
	v.WatchConfig()
}
