package operations

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/opstrack/opstrack/pkg/client"
	"github.com/spf13/cobra"
)

func NotificationsCmd(c client.Client) *cobra.Command {
	var (
		output string
	)

	cmd := &cobra.Command{
		Use:   "notifications",
		Short: "List recent notifications",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := c.Notifications(context.TODO())
			if err != nil {
				return err
			}

			if output == "json" {
				return printJSON(cmd, ns)
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			formatted := func(row ...any) {
				_, _ = fmt.Fprintf(w, "%v\t%v\t%v\n", row...)
			}

			formatted("STATUS", "TIME", "TEXT")
			for _, n := range ns {
				formatted(n.Status, time.UnixMilli(n.CreatedOn).UTC().Format(time.RFC3339), n.Text)
			}

			_ = w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output format, can be one of: json")

	return cmd
}
