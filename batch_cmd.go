package main

import (
	"fmt"
	"runtime"
	"text/tabwriter"

	"github.com/sandeepkandula/awsplus/batch"
	"github.com/spf13/cobra"
)

func newBatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Inspect AWS Batch jobs",
	}

	client := func(cmd *cobra.Command) (*batch.Client, error) {
		api, err := a.batchAPI(cmd.Context())
		if err != nil {
			return nil, err
		}
		workers := 1
		if a.cfg.Sync.Parallel {
			workers = a.cfg.Sync.Workers
			if workers <= 0 {
				workers = runtime.NumCPU()
			}
		}
		return batch.New(api, workers), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "runtime JOB_ID",
			Short: "Show when a finished job started and stopped",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client(cmd)
				if err != nil {
					return err
				}
				rt, err := c.Runtime(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), map[string]any{
					"start":         rt.Start,
					"stop":          rt.Stop,
					"total":         rt.Total.String(),
					"total_seconds": rt.Total.Seconds(),
				})
			},
		},
		&cobra.Command{
			Use:   "status JOB_ID...",
			Short: "Show the status of one or more jobs",
			Args:  cobra.MinimumNArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client(cmd)
				if err != nil {
					return err
				}
				jobs, err := c.Statuses(cmd.Context(), args)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, j := range jobs {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", j.ID, j.Name, j.Status, j.Reason)
				}
				return tw.Flush()
			},
		},
	)
	return cmd
}
