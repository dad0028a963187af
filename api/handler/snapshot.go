package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/sshcollectorpro/ethtoolpro/internal/service"
)

// SnapshotHandler 快照处理器
type SnapshotHandler struct {
	svc *service.SnapshotService
}

// NewSnapshotHandler 创建处理器
func NewSnapshotHandler(svc *service.SnapshotService) *SnapshotHandler {
	return &SnapshotHandler{svc: svc}
}

// Create 采集一次快照
// @Summary 采集网卡配置快照
// @Tags snapshot
// @Accept json
// @Produce json
// @Param request body service.SnapshotRequest true "快照请求"
// @Success 200 {object} service.SnapshotResult
// @Router /api/v1/snapshots [post]
func (h *SnapshotHandler) Create(c *gin.Context) {
	var req service.SnapshotRequest
	if !bindJSON(c, &req) {
		return
	}
	res, err := h.svc.Take(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// List 查询历史快照
// @Param device_ip query string false "设备IP"
// @Param interface query string false "网卡"
// @Param limit query int false "条数，默认 50"
// @Router /api/v1/snapshots [get]
func (h *SnapshotHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	list, err := h.svc.List(c.Query("device_ip"), c.Query("interface"), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "获取成功",
		Data:    gin.H{"count": len(list), "items": list},
	})
}
