package handler

import (
	"bufio"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// maxTailLines 单次最多返回的行数
const maxTailLines = 1000

// LogsHandler 日志查询处理器
type LogsHandler struct {
	path string
}

// NewLogsHandler path 为 log.file_path
func NewLogsHandler(path string) *LogsHandler {
	return &LogsHandler{path: strings.TrimSpace(path)}
}

// TailLogs 按关键字、级别过滤后返回末尾 N 行
// @Param q query string false "关键字"
// @Param level query string false "日志级别"
// @Param limit query int false "行数，默认 200"
// @Router /api/v1/logs [get]
func (h *LogsHandler) TailLogs(c *gin.Context) {
	if h.path == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "LOG_PATH_EMPTY", Message: "日志路径未配置"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "200"))
	if limit <= 0 || limit > maxTailLines {
		limit = 200
	}
	q := strings.ToLower(strings.TrimSpace(c.Query("q")))
	lvl := strings.ToLower(strings.TrimSpace(c.Query("level")))

	lines, err := readAllLines(h.path)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "READ_FAILED", Message: "读取日志失败: " + err.Error()})
		return
	}

	filtered := make([]string, 0, len(lines))
	for _, ln := range lines {
		lc := strings.ToLower(ln)
		if q != "" && !strings.Contains(lc, q) {
			continue
		}
		// json 与 text 格式都带 level 字段
		if lvl != "" && !strings.Contains(lc, `"level":"`+lvl+`"`) && !strings.Contains(lc, "level="+lvl) {
			continue
		}
		filtered = append(filtered, ln)
	}
	if len(filtered) > limit {
		filtered = filtered[len(filtered)-limit:]
	}

	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "获取日志成功",
		Data: gin.H{
			"path":  h.path,
			"count": len(filtered),
			"lines": filtered,
		},
	})
}

func readAllLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	s := bufio.NewScanner(f)
	s.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	res := make([]string, 0, 256)
	for s.Scan() {
		res = append(res, s.Text())
	}
	return res, s.Err()
}
