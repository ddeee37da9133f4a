package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"czagent/internal/agent"
	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

const chatPrompt = "czagent> "

var chatCommands = []string{"/clear", "/history", "/quit", "/exit"}

func newChatCmd(opts *rootOptions) *cobra.Command {
	var historyFile string
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive session with conversation memory",
		Long: `Starts an interactive session. Each line is one query. Special inputs:
  /clear   clear the conversation memory
  /history print the conversation so far
  /quit    exit (Ctrl+D also exits, Ctrl+C discards the current line)
TAB completes the special inputs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			rl, err := readline.NewEx(&readline.Config{
				Prompt:            chatPrompt,
				HistoryFile:       historyFile,
				AutoComplete:      newChatCompleter(),
				InterruptPrompt:   "^C",
				EOFPrompt:         "exit",
				HistorySearchFold: true,
				Stdin:             io.NopCloser(cmd.InOrStdin()),
				Stdout:            cmd.OutOrStdout(),
				Stderr:            cmd.ErrOrStderr(),
			})
			if err != nil {
				return fmt.Errorf("初始化 readline 失败: %w", err)
			}
			defer rl.Close()

			return runChat(cmd.Context(), rl, &chatSession{agent: rt.agent, out: cmd.OutOrStdout()})
		},
	}
	cmd.Flags().StringVar(&historyFile, "history-file", filepath.Join(os.TempDir(), ".czagent_chat_history"), "输入历史文件，留空不保存")
	return cmd
}

func newChatCompleter() *readline.PrefixCompleter {
	items := make([]readline.PrefixCompleterInterface, 0, len(chatCommands))
	for _, c := range chatCommands {
		items = append(items, readline.PcItem(c))
	}
	return readline.NewPrefixCompleter(items...)
}

type lineReader interface {
	Readline() (string, error)
}

// runChat 读取输入直到 /quit、EOF 或 ctx 取消。
func runChat(ctx context.Context, rl lineReader, s *chatSession) error {
	for {
		if ctx != nil && ctx.Err() != nil {
			return nil
		}
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return fmt.Errorf("readline error: %w", err)
		}
		if !s.handle(ctx, line) {
			return nil
		}
	}
}

type chatSession struct {
	agent *agent.Agent
	out   io.Writer
}

// handle 处理一行输入，返回 false 表示退出。
func (s *chatSession) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	switch line {
	case "":
	case "/quit", "/exit":
		return false
	case "/clear":
		s.agent.ClearMemory()
		fmt.Fprintln(s.out, "(memory cleared)")
	case "/history":
		msgs := s.agent.Messages()
		if len(msgs) == 0 {
			fmt.Fprintln(s.out, "(no messages)")
		}
		for _, m := range msgs {
			fmt.Fprintf(s.out, "[%s] %s\n", m.Role, m.Content)
		}
	default:
		if strings.HasPrefix(line, "/") {
			fmt.Fprintf(s.out, "unknown command %s, available: %s\n", line, strings.Join(chatCommands, " "))
			return true
		}
		fmt.Fprintln(s.out, s.agent.Chat(ctx, line))
	}
	return true
}
