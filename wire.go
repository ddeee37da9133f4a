//go:build wireinject

package main

import (
	"context"

	"czagent/ioc"
	"czagent/pkg/server"
	"github.com/google/wire"
)

func InitApp(ctx context.Context) (*server.HTTPServer, func(), error) {
	panic(wire.Build(
		ioc.InitConfig,
		ioc.InitLogger,
		ioc.InitInventory,
		ioc.InitToolService,
		ioc.InitWorkflow,
		ioc.InitAgent,
		ioc.InitExportService,
		ioc.InitAgentHandler,
		ioc.InitToolsHandler,
		ioc.InitGinEngine,
		ioc.InitJobs,
		server.NewHTTPServer,
	))
}
