package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sshcollectorpro/ethtoolpro/internal/service"
)

// EthtoolHandler ethtool 查询与设置处理器
type EthtoolHandler struct {
	svc *service.EthtoolService
}

// NewEthtoolHandler 创建处理器
func NewEthtoolHandler(svc *service.EthtoolService) *EthtoolHandler {
	return &EthtoolHandler{svc: svc}
}

// Query 查询结构化记录
// @Summary 按命令族查询网卡参数
// @Tags ethtool
// @Accept json
// @Produce json
// @Param request body service.QueryRequest true "查询请求"
// @Success 200 {object} service.QueryResponse
// @Failure 400 {object} ErrorResponse "请求参数错误"
// @Failure 502 {object} ErrorResponse "命令执行失败"
// @Router /api/v1/ethtool/query [post]
func (h *EthtoolHandler) Query(c *gin.Context) {
	var req service.QueryRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Query(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Set 执行设置类操作
// @Router /api/v1/ethtool/set [post]
func (h *EthtoolHandler) Set(c *gin.Context) {
	var req service.SetRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Apply(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Raw 执行原样返回输出的操作
// @Router /api/v1/ethtool/raw [post]
func (h *EthtoolHandler) Raw(c *gin.Context) {
	var req service.RawRequest
	if !bindJSON(c, &req) {
		return
	}
	resp, err := h.svc.Raw(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Version 检查 ethtool 可用性并返回版本
// @Router /api/v1/ethtool/version [post]
func (h *EthtoolHandler) Version(c *gin.Context) {
	var target service.Target
	if !bindJSON(c, &target) {
		return
	}
	v, err := h.svc.Version(c.Request.Context(), target)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "ethtool 可用",
		Data:    gin.H{"version": v},
	})
}

// Operations 列出支持的命令族与操作
// @Router /api/v1/ethtool/operations [get]
func (h *EthtoolHandler) Operations(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "获取成功",
		Data: gin.H{
			"families": service.FamilyNames(),
			"set":      service.SetOperations(),
			"raw":      service.RawOperations(),
		},
	})
}
