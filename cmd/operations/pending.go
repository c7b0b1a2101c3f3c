package operations

import (
	"context"

	"github.com/opstrack/opstrack/pkg/client"
	"github.com/spf13/cobra"
)

var pendingOperationsExample = `
# Check if any vote on proposal p1 is pending
opstrack operations pending --kind vote --meta proposalId=p1`

func PendingOperationsCmd(c client.Client) *cobra.Command {
	var (
		kind    string
		account string
		meta    map[string]string
		output  string
	)

	cmd := &cobra.Command{
		Use:     "pending",
		Short:   "Check for pending operations",
		Example: pendingOperationsExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.PendingOperations(context.TODO(), &client.PendingParams{
				Kind:    kind,
				Account: account,
				Meta:    meta,
			})
			if err != nil {
				return err
			}

			if output == "json" {
				return printJSON(cmd, res)
			}

			if !res.Pending {
				cmd.Println("No pending operations")
				return nil
			}

			prettyPrintOperations(cmd, res.Operations...)
			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "filter by kind")
	cmd.Flags().StringVarP(&account, "account", "a", "", "filter by account address")
	cmd.Flags().StringToStringVar(&meta, "meta", map[string]string{}, "filter by meta entry")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format, can be one of: json")

	return cmd
}
