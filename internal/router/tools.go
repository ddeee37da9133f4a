package router

import (
	"context"
	"net/http"

	"czagent/internal/tools"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ToolsHandler 将工具层的只读操作暴露为 REST 接口。
type ToolsHandler struct {
	svc    *tools.Service
	logger *zap.Logger
}

// NewToolsHandler 构建一个新的 ToolsHandler。
func NewToolsHandler(svc *tools.Service, logger *zap.Logger) *ToolsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ToolsHandler{svc: svc, logger: logger}
}

// RegisterRoutes 注册服务器、机柜、交换机查询路由。
func (h *ToolsHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/servers", h.handleListServers)
	rg.GET("/servers/:id", h.byID(h.svc.GetServerDetails))
	rg.GET("/servers/:id/topology", h.byID(h.svc.GetServerTopology))
	rg.GET("/servers/:id/installation-logs", h.handleInstallationLogs)
	rg.GET("/servers/:id/failure-analysis", h.byID(h.svc.AnalyzeInstallationFailure))
	rg.GET("/racks/:id/topology", h.handleRackTopology)
	rg.GET("/switches/:id", h.byID(h.svc.GetSwitchInfo))
}

type rackQuery struct {
	Region           string `form:"region"`
	AvailabilityZone string `form:"az"`
	Room             string `form:"room"`
}

func (h *ToolsHandler) handleListServers(c *gin.Context) {
	var filter tools.ServerFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter"})
		return
	}
	res, err := h.svc.ListServers(c.Request.Context(), filter)
	h.respond(c, res, err)
}

func (h *ToolsHandler) byID(op func(context.Context, string) (tools.Result, error)) gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := op(c.Request.Context(), c.Param("id"))
		h.respond(c, res, err)
	}
}

func (h *ToolsHandler) handleInstallationLogs(c *gin.Context) {
	window, err := tools.ParseLogWindow(c.Query("start_time"), c.Query("end_time"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.svc.GetInstallationLogs(c.Request.Context(), c.Param("id"), window)
	h.respond(c, res, err)
}

func (h *ToolsHandler) handleRackTopology(c *gin.Context) {
	var q rackQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rack scope"})
		return
	}
	scope := tools.RackScope{Region: q.Region, AvailabilityZone: q.AvailabilityZone, Room: q.Room}
	res, err := h.svc.GetRackTopology(c.Request.Context(), c.Param("id"), scope)
	h.respond(c, res, err)
}

func (h *ToolsHandler) respond(c *gin.Context, res tools.Result, err error) {
	if err != nil {
		status := http.StatusInternalServerError
		if c.Request.Context().Err() != nil {
			status = http.StatusServiceUnavailable
		}
		h.logger.Error("tool call failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	if _, ok := res.(*tools.NotFound); ok {
		c.JSON(http.StatusNotFound, res)
		return
	}
	c.JSON(http.StatusOK, res)
}
