package main

import (
	"errors"
	"fmt"
	"io/fs"

	"czagent/internal/agent"
	"czagent/internal/app"
	"czagent/internal/inventory"
	"czagent/internal/tools"
	"czagent/internal/workflow"
	"czagent/ioc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const defaultConfigPath = "configs/config.yaml"

type rootOptions struct {
	configPath string
	logLevel   string
}

// runtime 一次命令执行所需的全部组件。
type runtime struct {
	cfg    app.Config
	logger *zap.Logger
	store  *inventory.Store
	tools  *tools.Service
	flow   *workflow.Workflow
	agent  *agent.Agent
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "czagent",
		Short: "Data-center operations assistant over a simulated server fleet",
		Long: `czagent answers natural-language questions about servers, racks, switches
and OS installation failures. It classifies the query, fetches inventory
data, diagnoses installation failures and renders a text answer.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configPath, "config", defaultConfigPath, "配置文件路径")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "命令行模式下的日志级别，日志输出到 stderr")

	cmd.AddCommand(
		newAskCmd(opts),
		newChatCmd(opts),
		newDemoCmd(opts),
		newPatrolCmd(opts),
		newServersCmd(opts),
		newMCPCmd(opts),
	)
	return cmd
}

// loadConfig 显式指定的配置文件必须存在，默认路径缺失时使用内置默认值。
func (o *rootOptions) loadConfig(explicit bool) (app.Config, error) {
	cfg, err := app.LoadConfig(o.configPath)
	if err == nil {
		return cfg, nil
	}
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		cfg = app.Config{}
		cfg.ApplyDefaults()
		return cfg, nil
	}
	return cfg, err
}

func (o *rootOptions) bootstrap(cmd *cobra.Command) (*runtime, error) {
	cfg, err := o.loadConfig(cmd.Flags().Changed("config"))
	if err != nil {
		return nil, err
	}
	if o.logLevel != "" {
		cfg.Log.Level = o.logLevel
	}
	logger, err := ioc.InitLogger(cfg)
	if err != nil {
		return nil, err
	}
	store, err := ioc.InitInventory(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("加载机群数据失败: %w", err)
	}
	svc, err := ioc.InitToolService(store, logger)
	if err != nil {
		return nil, err
	}
	flow, err := ioc.InitWorkflow(svc, logger)
	if err != nil {
		return nil, fmt.Errorf("构建工作流失败: %w", err)
	}
	a, err := ioc.InitAgent(flow, logger)
	if err != nil {
		return nil, err
	}
	return &runtime{cfg: cfg, logger: logger, store: store, tools: svc, flow: flow, agent: a}, nil
}

func (r *runtime) close() {
	_ = r.logger.Sync()
}
