package main

import (
	"fmt"
	"io"

	"czagent/internal/tools"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newServersCmd(opts *rootOptions) *cobra.Command {
	var filter tools.ServerFilter
	cmd := &cobra.Command{
		Use:   "servers",
		Short: "List servers matching the given filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			res, err := rt.tools.ListServers(cmd.Context(), filter)
			if err != nil {
				return err
			}
			list, ok := res.(*tools.ServerList)
			if !ok {
				return fmt.Errorf("unexpected result %T", res)
			}
			out := cmd.OutOrStdout()
			t := newTable(out)
			t.AppendHeader(table.Row{"ID", "Hostname", "Status", "Region", "Room", "Rack"})
			for _, s := range list.Servers {
				t.AppendRow(table.Row{s.ID, s.Hostname, s.Status, s.Location.Region, s.Location.Room, s.Location.RackID})
			}
			t.AppendFooter(table.Row{"", "", "", "", "Total", list.Total})
			t.Render()
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Status, "status", "", "按状态过滤 (online|offline|maintenance|installing|install_failed)")
	cmd.Flags().StringVar(&filter.Region, "region", "", "按区域过滤")
	cmd.Flags().StringVar(&filter.Room, "room", "", "按机房过滤")
	cmd.Flags().StringVar(&filter.Rack, "rack", "", "按机柜过滤")
	return cmd
}

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)
	return t
}
