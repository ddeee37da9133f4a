package ioc

import (
	"czagent/internal/agent"
	"czagent/internal/app"
	"czagent/internal/router"
	"czagent/internal/tools"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// InitAgentHandler 构建自然语言查询 HTTP 处理器。
func InitAgentHandler(a *agent.Agent, logger *zap.Logger) *router.AgentHandler {
	return router.NewAgentHandler(a, logger)
}

// InitToolsHandler 构建工具查询 HTTP 处理器。
func InitToolsHandler(svc *tools.Service, logger *zap.Logger) *router.ToolsHandler {
	return router.NewToolsHandler(svc, logger)
}

// InitGinEngine 构建 gin 引擎。
func InitGinEngine(cfg app.Config, agentHandler *router.AgentHandler, toolsHandler *router.ToolsHandler) *gin.Engine {
	limiter := router.NewLimiter(cfg.HTTP.RateLimit.RPS, cfg.HTTP.RateLimit.Burst)
	return router.NewEngine(agentHandler, toolsHandler, limiter)
}
