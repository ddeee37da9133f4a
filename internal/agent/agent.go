package agent

import (
	"context"
	"fmt"
	"time"

	"czagent/internal/workflow"
	"go.uber.org/zap"
)

// Runner 执行一次查询编排。
type Runner interface {
	Run(ctx context.Context, query string) *workflow.State
}

// Agent 运维助手入口，包装工作流并维护对话记忆。
type Agent struct {
	runner Runner
	memory   *Memory
	sessions *Sessions
	logger   *zap.Logger
}

func New(runner Runner, logger *zap.Logger) (*Agent, error) {
	if runner == nil {
		return nil, fmt.Errorf("workflow runner is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{runner: runner, memory: NewMemory(), sessions: NewSessions(DefaultMaxSessions), logger: logger}, nil
}

// Query 执行查询并返回完整状态。
func (a *Agent) Query(ctx context.Context, query string) *workflow.State {
	a.logger.Info("开始处理查询", zap.String("query", query))
	st := a.runner.Run(ctx, query)
	if st == nil {
		return nil
	}
	a.logger.Info("查询处理完成",
		zap.String("run_id", st.RunID),
		zap.String("intent", string(st.Intent())),
		zap.Duration("elapsed", st.ExecutionTime))
	return st
}

// ProcessQuery 执行查询，只返回回复文本。
func (a *Agent) ProcessQuery(ctx context.Context, query string) string {
	st := a.Query(ctx, query)
	if st == nil || st.Response == "" {
		return "Sorry, something went wrong while processing your request."
	}
	return st.Response
}

// Chat 带记忆的对话接口，使用进程内的默认会话（命令行场景）。
func (a *Agent) Chat(ctx context.Context, message string) string {
	return a.chat(ctx, a.memory, message)
}

func (a *Agent) chat(ctx context.Context, mem *Memory, message string) string {
	askedAt := time.Now()
	resp := a.ProcessQuery(ctx, message)
	mem.AddExchange(message, resp, askedAt, time.Now())
	a.logger.Debug("对话记忆已更新", zap.Int("messages", mem.Len()))
	return resp
}

// ChatSession 在指定会话中对话。sessionID 为空时新建会话，返回实际使用的会话 id。
func (a *Agent) ChatSession(ctx context.Context, sessionID, message string) (string, string, error) {
	var mem *Memory
	if sessionID == "" {
		sessionID, mem = a.sessions.Open()
		a.logger.Info("新建对话会话", zap.String("session_id", sessionID))
	} else {
		var ok bool
		if mem, ok = a.sessions.Get(sessionID); !ok {
			return sessionID, "", ErrSessionNotFound
		}
	}
	return sessionID, a.chat(ctx, mem, message), nil
}

// SessionMessages 返回会话内的消息副本。
func (a *Agent) SessionMessages(sessionID string) ([]Message, error) {
	mem, ok := a.sessions.Get(sessionID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	return mem.Messages(), nil
}

// CloseSession 删除会话及其记忆。
func (a *Agent) CloseSession(sessionID string) error {
	if !a.sessions.Close(sessionID) {
		return ErrSessionNotFound
	}
	a.logger.Info("对话会话已关闭", zap.String("session_id", sessionID))
	return nil
}

func (a *Agent) ClearMemory() {
	a.memory.Clear()
	a.logger.Info("对话记忆已清空")
}

func (a *Agent) Messages() []Message {
	return a.memory.Messages()
}
