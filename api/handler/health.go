package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sshcollectorpro/ethtoolpro/internal/database"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ssh"
)

// HealthHandler 健康检查
type HealthHandler struct {
	pool *ssh.Pool
}

// NewHealthHandler 创建处理器，pool 可为空
func NewHealthHandler(pool *ssh.Pool) *HealthHandler {
	return &HealthHandler{pool: pool}
}

// Health 汇总连接池与数据库状态；数据库未启用时不影响结果
func (h *HealthHandler) Health(c *gin.Context) {
	data := gin.H{}
	if h.pool != nil {
		data["ssh_pool"] = h.pool.GetStats()
		if err := h.pool.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: "连接池不可用: " + err.Error(), Details: data})
			return
		}
	}
	if database.GetDB() != nil {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "SERVICE_UNAVAILABLE", Message: "数据库不可用: " + err.Error(), Details: data})
			return
		}
		data["database"] = database.GetStats()
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "服务正常",
		Data:    data,
	})
}
