package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
)

type demoSection struct {
	title   string
	queries []string
	chat    bool
}

var demoSections = map[string]demoSection{
	"basic": {title: "Basic queries", queries: []string{
		"查看所有在线的服务器",
		"srv-0001的状态是什么",
		"显示srv-0001的网络拓扑",
	}},
	"fault": {title: "Fault diagnosis", queries: []string{
		"显示所有安装失败的服务器",
		"分析srv-0020安装失败的原因",
		"查看srv-0020的安装日志",
	}},
	"rack": {title: "Rack analysis", queries: []string{
		"查看机柜rack-A02的网络拓扑",
		"查看room-01机柜rack-A02的网络拓扑",
	}},
	"chat": {title: "Conversation", chat: true, queries: []string{
		"有哪些服务器出现故障？",
		"srv-0020的状态是什么",
	}},
}

var demoOrder = []string{"basic", "fault", "rack", "chat"}

func newDemoCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:       "demo [basic|fault|rack|chat|all]",
		Short:     "Run the scripted demonstration queries",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: append(append([]string{}, demoOrder...), "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			names := demoOrder
			if len(args) == 1 && args[0] != "all" {
				if _, ok := demoSections[args[0]]; !ok {
					return fmt.Errorf("unknown demo section %q", args[0])
				}
				names = []string{args[0]}
			}
			rt, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			out := cmd.OutOrStdout()
			for _, name := range names {
				sec := demoSections[name]
				fmt.Fprintf(out, "\n=== %s ===\n", sec.title)
				for _, q := range sec.queries {
					var resp string
					if sec.chat {
						resp = rt.agent.Chat(cmd.Context(), q)
					} else {
						resp = rt.agent.ProcessQuery(cmd.Context(), q)
					}
					printExchange(out, q, resp)
				}
				if sec.chat {
					rt.agent.ClearMemory()
					fmt.Fprintln(out, "(memory cleared)")
				}
			}
			return nil
		},
	}
}

func printExchange(out io.Writer, query, resp string) {
	fmt.Fprintf(out, "\nQ: %s\n%s\n%s\n", query, resp, strings.Repeat("-", 50))
}
