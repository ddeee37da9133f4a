package main

import (
	"fmt"

	"czagent/internal/job"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newPatrolCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "patrol",
		Short: "Scan every physical rack once and list out-of-band alerts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rt, err := opts.bootstrap(cmd)
			if err != nil {
				return err
			}
			defer rt.close()

			alerts, err := job.NewRackPatrol(rt.tools, rt.logger).Run(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(alerts) == 0 {
				fmt.Fprintln(out, "No rack alerts.")
				return nil
			}
			t := newTable(out)
			t.AppendHeader(table.Row{"Rack", "Servers", "OOB Connected", "In-band Connected", "Alert"})
			for _, r := range alerts {
				t.AppendRow(table.Row{
					r.Scope.Region + "/" + r.Scope.AvailabilityZone + "/" + r.Scope.Room + "/" + r.RackID,
					r.TotalServers, r.OutOfBandConnected, r.InBandConnected, r.Alert,
				})
			}
			t.Render()
			return nil
		},
	}
}
