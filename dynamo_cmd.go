package main

import (
	"fmt"

	"github.com/sandeepkandula/awsplus/dynamo"
	"github.com/spf13/cobra"
)

func newDynamoCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dynamo",
		Short: "Read and write DynamoDB items",
	}

	client := func(cmd *cobra.Command) (*dynamo.Client, error) {
		api, err := a.dynamoAPI(cmd.Context())
		if err != nil {
			return nil, err
		}
		return dynamo.New(api), nil
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "exists TABLE",
			Short: "Report whether a table exists",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				c, err := client(cmd)
				if err != nil {
					return err
				}
				ok, err := c.TableExists(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), ok)
				return nil
			},
		},
		&cobra.Command{
			Use:   "get TABLE PK=VALUE [SK=VALUE]",
			Short: "Fetch an item by partition key, or partition and sort key",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := parseKey(args[1:])
				if err != nil {
					return err
				}
				c, err := client(cmd)
				if err != nil {
					return err
				}
				item, err := c.Get(cmd.Context(), args[0], key)
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), item)
			},
		},
		&cobra.Command{
			Use:   "scan TABLE NAME=VALUE",
			Short: "Find every item whose attribute equals a value",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				name, value, err := parseAttr(args[1])
				if err != nil {
					return err
				}
				c, err := client(cmd)
				if err != nil {
					return err
				}
				items, err := c.ScanByAttribute(cmd.Context(), args[0], name, value)
				if err != nil {
					return err
				}
				return printYAML(cmd.OutOrStdout(), items)
			},
		},
		&cobra.Command{
			Use:   "put TABLE JSON",
			Short: "Write an item given as a JSON object",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				item, err := parseJSONObject(args[1])
				if err != nil {
					return err
				}
				if a.cfg.Sync.DryRun {
					a.log.Info("(dryrun) put item", "table", args[0], "attributes", len(item))
					a.dryRunNotice(cmd, 1)
					return nil
				}
				c, err := client(cmd)
				if err != nil {
					return err
				}
				return c.Put(cmd.Context(), args[0], item)
			},
		},
		&cobra.Command{
			Use:   "delete TABLE PK=VALUE [SK=VALUE]",
			Short: "Delete an item by key",
			Args:  cobra.RangeArgs(2, 3),
			RunE: func(cmd *cobra.Command, args []string) error {
				key, err := parseKey(args[1:])
				if err != nil {
					return err
				}
				if a.cfg.Sync.DryRun {
					a.log.Info("(dryrun) delete item", "table", args[0], "key", map[string]any(key))
					a.dryRunNotice(cmd, 1)
					return nil
				}
				c, err := client(cmd)
				if err != nil {
					return err
				}
				return c.Delete(cmd.Context(), args[0], key)
			},
		},
	)
	return cmd
}

func parseKey(args []string) (dynamo.Key, error) {
	key := dynamo.Key{}
	for _, arg := range args {
		name, value, err := parseAttr(arg)
		if err != nil {
			return nil, err
		}
		key[name] = value
	}
	return key, nil
}
