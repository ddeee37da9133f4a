package job

import "context"

// Jobs 聚合服务进程内的全部后台任务，nil 字段表示未启用。
type Jobs struct {
	Patrol *Scheduler
	Export *Scheduler
	Hourly *HourlyLogger
}

// Start 启动全部已配置的任务，返回统一的停止函数。
func (j *Jobs) Start(ctx context.Context) context.CancelFunc {
	if j == nil {
		return func() {}
	}
	var stops []context.CancelFunc
	if j.Patrol != nil {
		stops = append(stops, j.Patrol.Start(ctx))
	}
	if j.Export != nil {
		stops = append(stops, j.Export.Start(ctx))
	}
	if j.Hourly != nil {
		stops = append(stops, j.Hourly.Start(ctx))
	}
	return func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}
}
