package workflow

import (
	"context"
	"fmt"
	"time"

	"czagent/internal/metrics"
	"github.com/google/uuid"
	"github.com/smallnest/langgraphgo/graph"
	"go.uber.org/zap"
)

// Workflow 四阶段查询编排：analyze_query → fetch_data → [analyze_fault] → generate_response。
// 编译后的图可被多个查询并发复用，每次调用独占自己的 State。
type Workflow struct {
	tools    Toolset
	logger   *zap.Logger
	now      func() time.Time
	runnable *graph.StateRunnable[*State]
}

// Option 调整 Workflow 构建参数。
type Option func(*Workflow)

func WithLogger(logger *zap.Logger) Option {
	return func(w *Workflow) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithClock 替换历史记录使用的时钟，便于测试。
func WithClock(now func() time.Time) Option {
	return func(w *Workflow) {
		if now != nil {
			w.now = now
		}
	}
}

func New(toolset Toolset, opts ...Option) (*Workflow, error) {
	if toolset == nil {
		return nil, fmt.Errorf("toolset is required")
	}
	w := &Workflow{tools: toolset, logger: zap.NewNop(), now: time.Now}
	for _, opt := range opts {
		opt(w)
	}

	g := graph.NewStateGraph[*State]()
	g.AddNode(StepAnalyzeQuery, "classify query intent and extract entities", guard(StepAnalyzeQuery, w.analyzeQuery))
	g.AddNode(StepFetchData, "call tools for the detected intent", guard(StepFetchData, w.fetchData))
	g.AddNode(StepAnalyzeFault, "fallback fault diagnosis from fetched data", guard(StepAnalyzeFault, w.analyzeFault))
	g.AddNode(StepGenerateResponse, "render the final response", guard(StepGenerateResponse, w.generateResponse))

	g.SetEntryPoint(StepAnalyzeQuery)
	g.AddEdge(StepAnalyzeQuery, StepFetchData)
	g.AddConditionalEdge(StepFetchData, shouldAnalyzeFault)
	g.AddEdge(StepAnalyzeFault, StepGenerateResponse)
	g.AddEdge(StepGenerateResponse, graph.END)

	runnable, err := g.Compile()
	if err != nil {
		return nil, fmt.Errorf("compile workflow graph failed: %w", err)
	}
	w.runnable = runnable
	return w, nil
}

// Run 执行一次查询并返回最终状态。图执行错误或节点 panic 都会转成 State.Error 和错误回复，不会向上抛出。
func (w *Workflow) Run(ctx context.Context, query string) (state *State) {
	start := w.now()
	state = NewState(uuid.NewString(), query, start)

	defer func() {
		if r := recover(); r != nil {
			w.fail(state, fmt.Errorf("panic: %v", r))
		}
		state.ExecutionTime = w.now().Sub(start)
		if state.Error != "" {
			metrics.WorkflowErrors.Inc()
		}
	}()

	final, err := w.runnable.Invoke(ctx, state)
	if err != nil {
		w.fail(state, err)
		return state
	}
	if final != nil {
		state = final
	}
	return state
}

func (w *Workflow) fail(s *State, err error) {
	w.logger.Error("工作流执行失败", zap.String("run_id", s.RunID), zap.Error(err))
	if s.Error == "" {
		s.Error = err.Error()
	}
	s.Response = Render(s)
}

type node func(ctx context.Context, s *State) (*State, error)

// guard 把节点内的 panic 转为错误，交由 Run 统一处理。
func guard(step string, fn node) node {
	return func(ctx context.Context, s *State) (out *State, err error) {
		defer func() {
			if r := recover(); r != nil {
				out, err = s, fmt.Errorf("panic in %s: %v", step, r)
			}
		}()
		return fn(ctx, s)
	}
}

func (w *Workflow) timeStage(step string) func() {
	start := time.Now()
	return func() {
		metrics.StageDuration.WithLabelValues(step).Observe(time.Since(start).Seconds())
	}
}
