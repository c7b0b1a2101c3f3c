package operations

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/opstrack/opstrack/pkg/client"
	"github.com/opstrack/opstrack/pkg/operation"
	"github.com/spf13/cobra"
)

var runOperationExample = `
# Run an operation that succeeds after one second
opstrack operations run vote-p1-0xabc --message "Voting..." --delay 1s --payload '{"outcome":1}'

# Run an operation that fails and wait for the result
opstrack operations run stake-p1-0xabc --message "Staking..." --fail "insufficient funds" --wait`

func RunOperationCmd(c client.Client) *cobra.Command {
	var (
		kind           string
		message        string
		successMessage string
		failureMessage string
		meta           map[string]string
		steps          int
		delay          time.Duration
		fail           string
		payload        string
		silent         bool
		wait           bool
		output         string
	)

	cmd := &cobra.Command{
		Use:     "run <id>",
		Short:   "Run a tracked echo operation",
		Example: runOperationExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("must specify an id")
			}

			id := args[0]

			req := &client.RunRequest{
				Kind:           kind,
				Message:        message,
				SuccessMessage: successMessage,
				FailureMessage: failureMessage,
				Meta:           meta,
				TotalSteps:     steps,
				Delay:          delay.Milliseconds(),
				Fail:           fail,
				Silent:         silent,
			}

			if cmd.Flag("payload").Changed {
				var v any
				if err := json.Unmarshal([]byte(payload), &v); err != nil {
					v = payload
				}
				req.Payload = v
			}

			res, err := c.RunOperation(context.TODO(), id, req, wait)
			if err != nil {
				return err
			}

			if res.Accepted {
				cmd.Printf("Started operation: %s\n", res.Id)
				return nil
			}

			if output == "json" {
				return printJSON(cmd, res.Operation)
			}

			switch res.Operation.Status {
			case operation.Success:
				cmd.Printf("Operation succeeded: %s\n", res.Id)
			case operation.Failure:
				cmd.Printf("Operation failed: %s (%s)\n", res.Id, res.Operation.Error)
			default:
				cmd.Printf("Operation %s: %s\n", res.Operation.Status, res.Id)
			}

			return nil
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "", "operation kind")
	cmd.Flags().StringVarP(&message, "message", "m", "", "pending message")
	cmd.Flags().StringVar(&successMessage, "success-message", "", "message shown on success")
	cmd.Flags().StringVar(&failureMessage, "failure-message", "", "message shown on failure")
	cmd.Flags().StringToStringVar(&meta, "meta", map[string]string{}, "operation meta")
	cmd.Flags().IntVar(&steps, "steps", 0, "total steps")
	cmd.Flags().DurationVarP(&delay, "delay", "d", 0, "time the task takes to resolve")
	cmd.Flags().StringVar(&fail, "fail", "", "fail the task with this error")
	cmd.Flags().StringVar(&payload, "payload", "", "task result, parsed as json when possible")
	cmd.Flags().BoolVar(&silent, "silent", false, "do not publish a notification")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "wait for the operation to resolve")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output format, can be one of: json")

	_ = cmd.MarkFlagRequired("message")

	return cmd
}
