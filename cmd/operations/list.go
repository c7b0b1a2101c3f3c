package operations

import (
	"context"

	"github.com/opstrack/opstrack/pkg/client"
	"github.com/spf13/cobra"
)

var listOperationsExample = `
# List all operations
opstrack operations list

# List failed votes
opstrack operations list --status failure --kind vote`

func ListOperationsCmd(c client.Client) *cobra.Command {
	var (
		status  string
		kind    string
		account string
		output  string
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List operations",
		Example: listOperationsExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			ops, err := c.ListOperations(context.TODO(), &client.ListParams{
				Status:  status,
				Kind:    kind,
				Account: account,
			})
			if err != nil {
				return err
			}

			if output == "json" {
				return printJSON(cmd, ops)
			}

			prettyPrintOperations(cmd, ops...)
			return nil
		},
	}

	cmd.Flags().StringVarP(&status, "status", "s", "", "filter by status, can be one of: pending, success, failure")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "filter by kind")
	cmd.Flags().StringVarP(&account, "account", "a", "", "filter by account address")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format, can be one of: json")

	return cmd
}
