package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sshcollectorpro/ethtoolpro/api/handler"
	"github.com/sshcollectorpro/ethtoolpro/internal/config"
	"github.com/sshcollectorpro/ethtoolpro/internal/service"
	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
	"github.com/sshcollectorpro/ethtoolpro/pkg/metrics"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ssh"
)

// Deps 路由依赖
type Deps struct {
	Config   *config.Config
	Ethtool  *service.EthtoolService
	Snapshot *service.SnapshotService
	Pool     *ssh.Pool
	// Gatherer 为空时不暴露指标接口
	Gatherer prometheus.Gatherer
}

// SetupRouter 设置路由
func SetupRouter(d Deps) *gin.Engine {
	mode := gin.ReleaseMode
	if d.Config != nil && d.Config.Server.Mode != "" {
		mode = d.Config.Server.Mode
	}
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(CORSMiddleware())
	r.Use(RequestIDMiddleware())
	r.Use(LoggingMiddleware())

	logPath := ""
	if d.Config != nil {
		logPath = d.Config.Log.FilePath
	}
	ethtoolHandler := handler.NewEthtoolHandler(d.Ethtool)
	snapshotHandler := handler.NewSnapshotHandler(d.Snapshot)
	healthHandler := handler.NewHealthHandler(d.Pool)
	logsHandler := handler.NewLogsHandler(logPath)

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"name":    "Ethtool Pro",
			"version": "1.0.0",
			"status":  "running",
		})
	})

	if d.Gatherer != nil && (d.Config == nil || d.Config.Metrics.Enabled) {
		path := "/metrics"
		if d.Config != nil && d.Config.Metrics.Path != "" {
			path = d.Config.Metrics.Path
		}
		r.GET(path, gin.WrapH(metrics.Handler(d.Gatherer)))
	}

	v1 := r.Group("/api/v1")
	{
		v1.GET("/health", healthHandler.Health)
		v1.GET("/logs", logsHandler.TailLogs)

		eth := v1.Group("/ethtool")
		{
			eth.GET("/operations", ethtoolHandler.Operations)
			eth.POST("/query", ethtoolHandler.Query)
			eth.POST("/set", ethtoolHandler.Set)
			eth.POST("/raw", ethtoolHandler.Raw)
			eth.POST("/version", ethtoolHandler.Version)
		}

		snapshots := v1.Group("/snapshots")
		{
			snapshots.POST("", snapshotHandler.Create)
			snapshots.GET("", snapshotHandler.List)
		}
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
			"path":    c.Request.URL.Path,
		})
	})

	return r
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Request-ID")
		c.Header("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// RequestIDMiddleware 请求ID中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)
		c.Set("request_id", requestID)
		c.Next()
	}
}

// LoggingMiddleware 日志中间件
func LoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		kv := []interface{}{
			"request_id", c.GetString("request_id"),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", status,
			"duration", time.Since(start),
			"client_ip", c.ClientIP(),
		}
		if status >= http.StatusInternalServerError {
			logger.Error("HTTP Request", kv...)
			return
		}
		logger.Info("HTTP Request", kv...)
	}
}
