package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"czagent/internal/app"
	"czagent/internal/inventory"
	"czagent/pkg/logging"
)

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "configs/config.yaml", "配置文件路径")
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(1)
	}

	cmd := flag.Arg(0)

	cfg, err := app.LoadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	logger, err := logging.NewZapLogger(cfg.Log.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var opts []inventory.Option
	if ref, _ := cfg.Inventory.Reference(); !ref.IsZero() {
		opts = append(opts, inventory.WithReferenceTime(ref))
	}
	store := inventory.New(opts...)

	svc, err := app.NewService(ctx, cfg, store, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "构建服务失败: %v\n", err)
		os.Exit(1)
	}
	defer svc.Close(context.Background())

	switch cmd {
	case "init":
		err = svc.Init(ctx)
	case "sync":
		err = svc.Sync(ctx)
	case "validate":
		err = svc.Validate(ctx)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s 执行失败: %v\n", cmd, err)
		os.Exit(1)
	}
	if runID := svc.LastRunID(); runID != "" {
		fmt.Printf("%s 完成 run_id=%s\n", cmd, runID)
	} else {
		fmt.Printf("%s 完成\n", cmd)
	}
}

func usage() {
	fmt.Println("用法: syncer [-config configs/config.yaml] {init|sync|validate}")
}
