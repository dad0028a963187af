package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sshcollectorpro/ethtoolpro/internal/service"
	"github.com/sshcollectorpro/ethtoolpro/pkg/ethtool"
	"github.com/sshcollectorpro/ethtoolpro/pkg/logger"
)

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ExecutionDetails 命令失败时附带的返回码与 stderr
type ExecutionDetails struct {
	Command    string `json:"command"`
	ReturnCode int    `json:"return_code"`
	Stderr     string `json:"stderr"`
}

// respondError 按错误类型映射 HTTP 状态码
func respondError(c *gin.Context, err error) {
	status, resp := classify(err)
	logger.Error("Request failed", "request_id", c.GetString("request_id"), "path", c.Request.URL.Path, "code", resp.Code, "error", err)
	c.JSON(status, resp)
}

func classify(err error) (int, ErrorResponse) {
	var execErr *ethtool.ExecutionError
	switch {
	case errors.Is(err, service.ErrInvalidTarget):
		return http.StatusBadRequest, ErrorResponse{Code: "INVALID_TARGET", Message: err.Error()}
	case errors.Is(err, ethtool.ErrUnsupportedOption):
		return http.StatusBadRequest, ErrorResponse{Code: "UNSUPPORTED_OPTION", Message: err.Error()}
	case errors.Is(err, ethtool.ErrInvalidArgument):
		return http.StatusBadRequest, ErrorResponse{Code: "INVALID_ARGUMENT", Message: err.Error()}
	case errors.Is(err, ethtool.ErrMalformedCombination):
		return http.StatusBadRequest, ErrorResponse{Code: "MALFORMED_COMBINATION", Message: err.Error()}
	case errors.Is(err, ethtool.ErrNotAvailable):
		return http.StatusServiceUnavailable, ErrorResponse{Code: "ETHTOOL_UNAVAILABLE", Message: err.Error()}
	case errors.As(err, &execErr):
		return http.StatusBadGateway, ErrorResponse{
			Code:    "EXECUTION_FAILED",
			Message: err.Error(),
			Details: ExecutionDetails{Command: execErr.Command, ReturnCode: execErr.ReturnCode, Stderr: execErr.Stderr},
		}
	case errors.Is(err, ethtool.ErrEmptyOutput):
		return http.StatusBadGateway, ErrorResponse{Code: "EMPTY_OUTPUT", Message: err.Error()}
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorResponse{Code: "TIMEOUT", Message: err.Error()}
	default:
		return http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_ERROR", Message: err.Error()}
	}
}

// bindJSON 解析请求体，失败时直接返回 400
func bindJSON(c *gin.Context, v interface{}) bool {
	if err := c.ShouldBindJSON(v); err != nil {
		logger.Error("Invalid request parameters", "error", err)
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_PARAMS",
			Message: "请求参数无效: " + err.Error(),
		})
		return false
	}
	return true
}
