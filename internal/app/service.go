package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"czagent/internal/graph"
	"czagent/internal/inventory"
	"czagent/internal/loader"
	"czagent/internal/metrics"
	"go.uber.org/zap"
)

// Service 负责装配导出相关的各个 Flow 并提供统一入口。
type Service struct {
	cfg          Config
	store        *inventory.Store
	neoClient    *loader.Client
	graphClient  *graph.Client
	InitFlow     *InitFlow
	SyncFlow     *SyncFlow
	ValidateFlow *ValidateFlow
	logger       *zap.Logger
	now          func() time.Time

	mu        sync.Mutex
	lastRunID string
}

// NewService 连接 Neo4j 并构建 Service。
func NewService(ctx context.Context, cfg Config, store *inventory.Store, logger *zap.Logger) (*Service, error) {
	neoClient, err := loader.NewClient(ctx, loader.Config{
		URI:                  cfg.Neo4j.URI,
		Username:             cfg.Neo4j.Username,
		Password:             cfg.Neo4j.Password,
		Database:             cfg.Neo4j.Database,
		MaxConnectionPool:    cfg.Neo4j.MaxConnectionPool,
		ConnectionTimeoutSec: cfg.Neo4j.ConnectTimeoutSecond,
	})
	if err != nil {
		return nil, err
	}
	graphClient, err := graph.NewClient(ctx, graph.Config{
		URI:                  cfg.Neo4j.URI,
		Username:             cfg.Neo4j.Username,
		Password:             cfg.Neo4j.Password,
		Database:             cfg.Neo4j.Database,
		MaxConnectionPool:    cfg.Neo4j.MaxConnectionPool,
		ConnectionTimeoutSec: cfg.Neo4j.ConnectTimeoutSecond,
	})
	if err != nil {
		_ = neoClient.Close(ctx)
		return nil, err
	}
	svc, err := NewServiceWithClients(cfg, store, neoClient, graphClient, logger)
	if err != nil {
		_ = neoClient.Close(ctx)
		_ = graphClient.Close(ctx)
		return nil, err
	}
	svc.neoClient = neoClient
	svc.graphClient = graphClient
	return svc, nil
}

// NewServiceWithClients 使用已有的写入执行器和读客户端构建 Service。
func NewServiceWithClients(cfg Config, store *inventory.Store, exec loader.Executor, reader graph.Reader, logger *zap.Logger) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("必须提供 inventory store")
	}
	if exec == nil {
		return nil, fmt.Errorf("必须提供 neo4j 写入执行器")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "export"))
	cfg.ApplyDefaults()
	retry := loader.Retry{Attempts: cfg.Export.Retry.Attempts, Backoff: cfg.Export.RetryBackoff()}

	nodeUpserter := loader.NewNodeUpserter(exec, cfg.Export.BatchSize, retry)
	relUpserter := loader.NewRelUpserter(exec, cfg.Export.BatchSize, retry)
	edgeFixer := loader.NewEdgeFixer(exec)

	svc := &Service{
		cfg:   cfg,
		store: store,
		InitFlow: &InitFlow{
			Store:  store,
			Schema: loader.NewSchemaManager(exec),
			Nodes:  nodeUpserter,
			Rels:   relUpserter,
			Fixer:  edgeFixer,
			Logger: logger,
		},
		SyncFlow: &SyncFlow{
			Store:   store,
			Nodes:   nodeUpserter,
			Rels:    relUpserter,
			Fixer:   edgeFixer,
			Cleaner: loader.NewCleaner(exec),
			Logger:  logger,
		},
		logger: logger,
		now:    time.Now,
	}
	if reader != nil {
		svc.ValidateFlow = &ValidateFlow{Store: store, Reader: reader, Logger: logger}
	}
	return svc, nil
}

// Close 释放资源。
func (s *Service) Close(ctx context.Context) error {
	var firstErr error
	if s.graphClient != nil {
		firstErr = s.graphClient.Close(ctx)
	}
	if s.neoClient != nil {
		if err := s.neoClient.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// LastRunID 返回最近一次成功导出的批次号。
func (s *Service) LastRunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRunID
}

func (s *Service) Init(ctx context.Context) error {
	if s.InitFlow == nil {
		return fmt.Errorf("未初始化 init flow")
	}
	return s.export(ctx, "init", s.InitFlow.Run)
}

func (s *Service) Sync(ctx context.Context) error {
	if s.SyncFlow == nil {
		return fmt.Errorf("未初始化 sync flow")
	}
	return s.export(ctx, "sync", s.SyncFlow.Run)
}

// Validate 校验最近一次导出，本进程尚未导出时校验全部节点。
func (s *Service) Validate(ctx context.Context) error {
	if s.ValidateFlow == nil {
		return fmt.Errorf("未初始化 validate flow")
	}
	return s.ValidateFlow.Run(ctx, s.LastRunID())
}

func (s *Service) export(ctx context.Context, mode string, run func(context.Context, string) error) error {
	runID := NewRunID(s.now())
	start := time.Now()
	err := run(ctx, runID)
	metrics.ExportDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExportErrors.Inc()
		s.logger.Error("导出失败", zap.String("mode", mode), zap.String("run_id", runID), zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.lastRunID = runID
	s.mu.Unlock()
	return nil
}
