package main

import (
	"czagent/internal/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the inventory tools over MCP stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			srv, err := mcpserver.New(rt.tools, rt.flow, rt.logger)
			if err != nil {
				return err
			}
			return srv.ServeStdio()
		},
	}
}
