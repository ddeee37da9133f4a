package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	ToolCalls = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "czagent_tool_calls_total",
		Help: "工具调用次数，按操作和结果类型区分",
	}, []string{"operation", "result"})

	StageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "czagent_workflow_stage_duration_seconds",
		Help:    "工作流各阶段耗时",
		Buckets: prometheus.DefBuckets,
	}, []string{"stage"})

	QueryIntents = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "czagent_query_intents_total",
		Help: "查询意图分布",
	}, []string{"intent"})

	WorkflowErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "czagent_workflow_errors_total",
		Help: "工作流以错误结束的次数",
	})

	RackAlerts = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "czagent_rack_alerts",
		Help: "最近一次巡检发现的告警机柜数",
	})

	ExportDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "czagent_export_duration_seconds",
		Help:    "单次图数据库导出耗时",
		Buckets: prometheus.DefBuckets,
	})

	ExportErrors = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "czagent_export_errors_total",
		Help: "图数据库导出失败次数",
	})
)

// MustRegister 注册指标，可在 main 中调用。
func MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(ToolCalls, StageDuration, QueryIntents, WorkflowErrors, RackAlerts, ExportDuration, ExportErrors)
}
