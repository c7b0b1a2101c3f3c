package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/opstrack/opstrack/internal/app/subsystems/persist/sqlite"
	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/operation"
	"github.com/spf13/cobra"
)

var snapshotExample = `
# Print the operations persisted by a server
opstrack snapshot --path opstrack.db

# Print only failed operations as json
opstrack snapshot --status failure -o json`

func NewCmd() *cobra.Command {
	var (
		path   string
		status []string
		output string
	)

	cmd := &cobra.Command{
		Use:     "snapshot",
		Short:   "Print the operations persisted in a sqlite database",
		Example: snapshotExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			mask := operation.Any
			if len(status) > 0 {
				mask = 0
				for _, s := range status {
					v, err := operation.ParseStatus(s)
					if err != nil {
						return err
					}
					mask |= v
				}
			}

			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("cannot open %s: %w", path, err)
			}

			store, err := sqlite.New(&sqlite.Config{Path: path, TxTimeout: 10 * time.Second})
			if err != nil {
				return err
			}
			if err := store.Start(); err != nil {
				return err
			}
			defer util.DeferAndLog(store.Stop)

			ops, err := store.LoadStatus(mask)
			if err != nil {
				return err
			}

			if output == "json" {
				data, err := json.MarshalIndent(ops, "", "  ")
				if err != nil {
					return err
				}

				cmd.Println(string(data))
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			formatted := func(row ...any) {
				_, _ = fmt.Fprintf(w, "%v\t%v\t%v\t%v\n", row...)
			}

			formatted("ID", "STATUS", "ATTEMPT", "MESSAGE")
			for _, o := range ops {
				formatted(o.Id, o.Status, o.Attempt, o.Message)
			}

			_ = w.Flush()
			return nil
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "opstrack.db", "sqlite database path")
	cmd.Flags().StringSliceVarP(&status, "status", "s", nil, "filter by status, can be any of: pending, success, failure")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format, can be one of: json")

	return cmd
}
