package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// NewEngine 构建 gin 引擎并注册所有模块路由。limiter 为 nil 时不限流。
func NewEngine(agentHandler *AgentHandler, toolsHandler *ToolsHandler, limiter *rate.Limiter) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api/v1")
	api.Use(RateLimit(limiter))
	agentHandler.RegisterRoutes(api.Group("/agent"))
	toolsHandler.RegisterRoutes(api)

	return engine
}
