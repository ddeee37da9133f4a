package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func newAskCmd(opts *rootOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "ask <query>",
		Short: "Run one query through the workflow and print the answer",
		Example: `  czagent ask "分析srv-0020安装失败的原因"
  czagent ask --json "查看机柜rack-A02的网络拓扑"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			query := strings.Join(args, " ")
			st := rt.agent.Query(cmd.Context(), query)
			out := cmd.OutOrStdout()
			if asJSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				enc.SetEscapeHTML(false)
				return enc.Encode(st)
			}
			fmt.Fprintln(out, st.Response)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "输出完整的编排状态")
	return cmd
}
