package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"czagent/internal/agent"
	"czagent/internal/inventory"
	"czagent/internal/tools"
	"czagent/internal/workflow"
	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	// 测试目录下不存在默认配置，走内置默认值
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestAskFaultDiagnosis(t *testing.T) {
	out, err := run(t, "", "ask", "分析srv-0020安装失败的原因")
	require.NoError(t, err)
	assert.Contains(t, out, tools.RootCauseInfrastructure)
	assert.Contains(t, out, tools.RackAlertMessage)
}

func TestAskJSON(t *testing.T) {
	out, err := run(t, "", "ask", "--json", "srv-0020的状态是什么")
	require.NoError(t, err)
	assert.Contains(t, out, `"user_query": "srv-0020的状态是什么"`)
	assert.Contains(t, out, `"execution_history"`)
}

func TestAskRequiresQuery(t *testing.T) {
	_, err := run(t, "", "ask")
	assert.Error(t, err)
}

func TestChatSession(t *testing.T) {
	history := filepath.Join(t.TempDir(), "history")
	out, err := run(t, "srv-0020的状态是什么\n/history\n/clear\n/history\n/quit\n", "chat", "--history-file", history)
	require.NoError(t, err)
	assert.Contains(t, out, "[user] srv-0020的状态是什么")
	assert.Contains(t, out, "(memory cleared)")
	assert.Contains(t, out, "(no messages)")
}

type scriptedReader struct {
	lines []string
	errs  []error
}

func (r *scriptedReader) Readline() (string, error) {
	if len(r.lines) == 0 {
		return "", io.EOF
	}
	line, err := r.lines[0], r.errs[0]
	r.lines, r.errs = r.lines[1:], r.errs[1:]
	return line, err
}

func newChatSessionForTest(t *testing.T, out io.Writer) *chatSession {
	t.Helper()
	svc, err := tools.NewService(inventory.New(), nil)
	require.NoError(t, err)
	wf, err := workflow.New(svc)
	require.NoError(t, err)
	a, err := agent.New(wf, nil)
	require.NoError(t, err)
	return &chatSession{agent: a, out: out}
}

func TestRunChatInterruptAndEOF(t *testing.T) {
	var out bytes.Buffer
	s := newChatSessionForTest(t, &out)
	rl := &scriptedReader{
		lines: []string{"half typed", "srv-0020的状态是什么", "/nope", "/history"},
		errs:  []error{readline.ErrInterrupt, nil, nil, nil},
	}
	require.NoError(t, runChat(context.Background(), rl, s))

	msgs := s.agent.Messages()
	require.Len(t, msgs, 2, "interrupted line must be discarded")
	assert.Equal(t, "srv-0020的状态是什么", msgs[0].Content)
	assert.Contains(t, out.String(), "unknown command /nope")
	assert.Contains(t, out.String(), "[assistant] ")
}

func TestRunChatQuitAndErrors(t *testing.T) {
	var out bytes.Buffer
	s := newChatSessionForTest(t, &out)
	rl := &scriptedReader{lines: []string{"/quit", "srv-0020的状态是什么"}, errs: []error{nil, nil}}
	require.NoError(t, runChat(context.Background(), rl, s))
	assert.Empty(t, s.agent.Messages())
	assert.Len(t, rl.lines, 1)

	rl = &scriptedReader{lines: []string{""}, errs: []error{errors.New("tty gone")}}
	assert.ErrorContains(t, runChat(context.Background(), rl, s), "tty gone")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	rl = &scriptedReader{lines: []string{"srv-0020的状态是什么"}, errs: []error{nil}}
	require.NoError(t, runChat(ctx, rl, s))
	assert.Len(t, rl.lines, 1)
}

func TestChatCompleter(t *testing.T) {
	c := newChatCompleter()
	got, offset := c.Do([]rune("/cl"), 3)
	require.Len(t, got, 1)
	assert.Equal(t, "ear ", string(got[0]))
	assert.Equal(t, 3, offset)

	got, _ = c.Do([]rune("/"), 1)
	assert.Len(t, got, len(chatCommands))
}

func TestDemoSection(t *testing.T) {
	out, err := run(t, "", "demo", "rack")
	require.NoError(t, err)
	assert.Contains(t, out, "=== Rack analysis ===")
	assert.Contains(t, out, tools.RackAlertMessage)

	_, err = run(t, "", "demo", "nope")
	assert.Error(t, err)
}

func TestPatrol(t *testing.T) {
	out, err := run(t, "", "patrol")
	require.NoError(t, err)
	assert.Contains(t, out, "room-01/rack-A02")
	assert.Equal(t, 4, strings.Count(out, tools.RackAlertMessage))
}

func TestExplicitConfigMustExist(t *testing.T) {
	_, err := run(t, "", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "patrol")
	assert.Error(t, err)
}

func TestServersTable(t *testing.T) {
	out, err := run(t, "", "servers", "--status", "install_failed", "--room", "room-01", "--rack", "rack-A02")
	require.NoError(t, err)
	assert.Contains(t, out, "srv-0020")
	assert.Contains(t, out, "install_failed")
	assert.NotContains(t, out, "srv-0001 ")
}

func TestBootstrapUsesValidatedInventory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("inventory:\n  reference_time: \"2024-05-01T08:00:00Z\"\n"), 0o644))

	opts := &rootOptions{configPath: path, logLevel: "error"}
	cmd := newRootCmd()
	require.NoError(t, cmd.PersistentFlags().Set("config", path))
	rt, err := opts.bootstrap(cmd)
	require.NoError(t, err)
	defer rt.close()

	assert.Equal(t, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC), rt.store.AsOf())
	assert.NoError(t, rt.store.Validate())

	require.NoError(t, os.WriteFile(path, []byte("inventory:\n  reference_time: \"yesterday\"\n"), 0o644))
	_, err = opts.bootstrap(cmd)
	assert.Error(t, err)
}
