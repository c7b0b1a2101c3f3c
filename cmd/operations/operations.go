package operations

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/client"
	"github.com/opstrack/opstrack/pkg/operation"
	"github.com/spf13/cobra"
)

func NewCmd(c client.Client) *cobra.Command {
	var (
		server   string
		username string
		password string
		token    string
	)

	cmd := &cobra.Command{
		Use:     "operations",
		Aliases: []string{"operation", "ops"},
		Short:   "Tracked operations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if username != "" || password != "" {
				c.SetBasicAuth(username, password)
			}

			if token != "" {
				c.SetBearerToken(token)
			}

			return c.Setup(server)
		},
		Run: func(cmd *cobra.Command, args []string) {
			_ = cmd.Help()
		},
	}

	// Add subcommands
	cmd.AddCommand(ListOperationsCmd(c))
	cmd.AddCommand(GetOperationCmd(c))
	cmd.AddCommand(PendingOperationsCmd(c))
	cmd.AddCommand(RunOperationCmd(c))
	cmd.AddCommand(ClearOperationCmd(c))
	cmd.AddCommand(NotificationsCmd(c))

	// Flags
	cmd.PersistentFlags().StringVarP(&server, "server", "", "http://localhost:8001", "opstrack url")
	cmd.PersistentFlags().StringVarP(&username, "username", "U", "", "basic auth username")
	cmd.PersistentFlags().StringVarP(&password, "password", "P", "", "basic auth password")
	cmd.PersistentFlags().StringVarP(&token, "token", "T", "", "JWT bearer token")

	return cmd
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	cmd.Println(string(data))
	return nil
}

func prettyPrintOperations(cmd *cobra.Command, ops ...*operation.Operation) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	formatted := func(row ...any) {
		_, _ = fmt.Fprintf(w, "%v\t%v\t%v\t%v\t%v\n", row...)
	}

	formatted(
		"ID",
		"STATUS",
		"ATTEMPT",
		"MESSAGE",
		"META",
	)

	for _, o := range ops {
		formatted(
			o.Id,
			o.Status,
			o.Attempt,
			o.Message,
			strings.Join(prettyMeta(o.Meta, ":"), " "),
		)
	}

	_ = w.Flush()
}

func prettyPrintOperation(cmd *cobra.Command, o *operation.Operation) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintf(w, "Id:\t%v\n", o.Id)
	_, _ = fmt.Fprintf(w, "Kind:\t%v\n", o.Kind)
	_, _ = fmt.Fprintf(w, "Status:\t%s\n", o.Status)
	_, _ = fmt.Fprintf(w, "Message:\t%s\n", o.Message)
	_, _ = fmt.Fprintf(w, "Attempt:\t%d\n", o.Attempt)
	_, _ = fmt.Fprintf(w, "Steps:\t%d\n", o.TotalSteps)
	_, _ = fmt.Fprintf(w, "Updated:\t%s\n", time.UnixMilli(o.UpdatedOn).UTC().Format(time.RFC3339))
	_, _ = fmt.Fprintf(w, "\n")

	_, _ = fmt.Fprintf(w, "Meta:\n")
	for _, m := range prettyMeta(o.Meta, ":\t") {
		_, _ = fmt.Fprintf(w, "\t%s\n", m)
	}

	if o.Status == operation.Success && o.Payload != nil {
		payload, _ := json.Marshal(o.Payload)
		_, _ = fmt.Fprintf(w, "\nPayload:\n\t%s\n", payload)
	}
	if o.Status == operation.Failure && o.Error != "" {
		_, _ = fmt.Fprintf(w, "\nError:\n\t%s\n", o.Error)
	}

	_ = w.Flush()
}

func prettyMeta(meta map[string]string, sep string) []string {
	out := make([]string, 0, len(meta))
	for _, kv := range util.OrderedRangeKV(meta) {
		out = append(out, kv.Key+sep+kv.Value)
	}

	return out
}
