package main

import (
	"fmt"

	"github.com/sandeepkandula/awsplus/stepfn"
	"github.com/spf13/cobra"
)

func newSfnCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sfn",
		Short: "Describe, list and run Step Functions state machines by name",
	}

	client := func(cmd *cobra.Command) (*stepfn.Client, error) {
		api, identity, err := a.sfnAPI(cmd.Context())
		if err != nil {
			return nil, err
		}
		return stepfn.New(cmd.Context(), api, identity, a.cfg.AWS.Region)
	}

	printLines := func(cmd *cobra.Command, lines []string) {
		for _, l := range lines {
			fmt.Fprintln(cmd.OutOrStdout(), l)
		}
	}

	var lsARNs bool
	ls := &cobra.Command{
		Use:   "ls",
		Short: "List state machine names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			format := stepfn.Names
			if lsARNs {
				format = stepfn.ARNs
			}
			names, err := c.List(cmd.Context(), format)
			if err != nil {
				return err
			}
			printLines(cmd, names)
			return nil
		},
	}
	ls.Flags().BoolVar(&lsARNs, "arns", false, "print ARNs instead of names")

	var versionARNs bool
	versions := &cobra.Command{
		Use:   "versions NAME",
		Short: "List the published versions of a state machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			format := stepfn.Versions
			if versionARNs {
				format = stepfn.ARNs
			}
			vs, err := c.ListVersions(cmd.Context(), args[0], format)
			if err != nil {
				return err
			}
			printLines(cmd, vs)
			return nil
		},
	}
	versions.Flags().BoolVar(&versionARNs, "arns", false, "print version ARNs instead of numbers")

	var describeVersion string
	describe := &cobra.Command{
		Use:   "describe NAME",
		Short: "Describe a state machine",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := client(cmd)
			if err != nil {
				return err
			}
			sm, err := c.Describe(cmd.Context(), args[0], describeVersion)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), sm)
		},
	}
	describe.Flags().StringVar(&describeVersion, "version", "", "describe this version")

	var (
		input string
		opts  stepfn.ExecuteOptions
	)
	exec := &cobra.Command{
		Use:   "exec NAME",
		Short: "Start an execution with a JSON input",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := parseJSONObject(input)
			if err != nil {
				return err
			}
			c, err := client(cmd)
			if err != nil {
				return err
			}
			if a.cfg.Sync.DryRun {
				a.log.Info("(dryrun) start execution", "arn", c.ARN(args[0], opts.Version), "name", opts.Name)
				a.dryRunNotice(cmd, 1)
				return nil
			}
			execution, err := c.Execute(cmd.Context(), args[0], body, opts)
			if err != nil {
				return err
			}
			return printYAML(cmd.OutOrStdout(), execution)
		},
	}
	exec.Flags().StringVarP(&input, "input", "i", "{}", "execution input as a JSON object")
	exec.Flags().StringVar(&opts.Name, "name", "", "execution name (default NAME-<random>)")
	exec.Flags().StringVar(&opts.Version, "version", "", "run this version")
	exec.Flags().StringVar(&opts.TraceHeader, "trace-header", "", "X-Ray trace header")

	cmd.AddCommand(ls, versions, describe, exec)
	return cmd
}
