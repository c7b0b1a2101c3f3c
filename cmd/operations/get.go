package operations

import (
	"context"
	"errors"

	"github.com/opstrack/opstrack/pkg/client"
	"github.com/spf13/cobra"
)

var getOperationExample = `
# Get an operation
opstrack operations get vote-p1-0xabc`

func GetOperationCmd(c client.Client) *cobra.Command {
	var (
		output string
	)

	cmd := &cobra.Command{
		Use:     "get <id>",
		Short:   "Get an operation",
		Example: getOperationExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("must specify an id")
			}

			o, err := c.GetOperation(context.TODO(), args[0])
			if err != nil {
				return err
			}

			if output == "json" {
				return printJSON(cmd, o)
			}

			prettyPrintOperation(cmd, o)
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format, can be one of: json")

	return cmd
}
