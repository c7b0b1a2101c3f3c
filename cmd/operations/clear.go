package operations

import (
	"context"
	"errors"

	"github.com/opstrack/opstrack/pkg/client"
	"github.com/spf13/cobra"
)

var clearOperationExample = `
# Clear a failed operation
opstrack operations clear vote-p1-0xabc`

func ClearOperationCmd(c client.Client) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "clear <id>",
		Aliases: []string{"rm"},
		Short:   "Clear an operation",
		Example: clearOperationExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("must specify an id")
			}

			if err := c.ClearOperation(context.TODO(), args[0]); err != nil {
				return err
			}

			cmd.Printf("Cleared operation: %s\n", args[0])
			return nil
		},
	}

	return cmd
}
