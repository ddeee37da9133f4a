package ioc

import (
	"czagent/internal/app"
	"czagent/internal/inventory"
	"czagent/internal/job"
	"czagent/internal/tools"
	"go.uber.org/zap"
)

const (
	defaultPatrolCron = "@every 10m"
	defaultExportCron = "0 7 * * *"
)

// InitJobs 构建机柜巡检、定时导出和每小时心跳任务。
func InitJobs(cfg app.Config, svc *tools.Service, store *inventory.Store, export *app.Service, logger *zap.Logger) *job.Jobs {
	jobs := &job.Jobs{
		Patrol: job.NewScheduler("rack_patrol", cfg.Patrol.Cron, defaultPatrolCron, job.NewRackPatrol(svc, logger).Task(), logger),
		Hourly: job.NewHourlyLogger(store, logger),
	}
	if export != nil {
		jobs.Export = job.NewScheduler("inventory_export", cfg.Export.JobCron, defaultExportCron, export.Sync, logger)
	}
	return jobs
}
