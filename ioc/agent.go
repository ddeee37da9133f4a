package ioc

import (
	"czagent/internal/agent"
	"czagent/internal/inventory"
	"czagent/internal/tools"
	"czagent/internal/workflow"
	"go.uber.org/zap"
)

// InitToolService 构建工具层。
func InitToolService(store *inventory.Store, logger *zap.Logger) (*tools.Service, error) {
	return tools.NewService(store, logger)
}

// InitWorkflow 构建查询编排工作流。
func InitWorkflow(svc *tools.Service, logger *zap.Logger) (*workflow.Workflow, error) {
	return workflow.New(svc, workflow.WithLogger(logger))
}

// InitAgent 构建运维助手入口。
func InitAgent(wf *workflow.Workflow, logger *zap.Logger) (*agent.Agent, error) {
	return agent.New(wf, logger)
}
