package operations

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/opstrack/opstrack/pkg/client"
	"github.com/opstrack/opstrack/pkg/notification"
	"github.com/opstrack/opstrack/pkg/operation"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"
)

var vote = &operation.Operation{
	Id:         "vote-p1-0xabc",
	Kind:       "vote",
	Status:     operation.Success,
	Message:    "Voting succeeded!",
	Meta:       map[string]string{"proposalId": "p1"},
	Payload:    map[string]any{"outcome": float64(1)},
	TotalSteps: 1,
	Attempt:    1,
}

func row(cols ...any) string {
	return fmt.Sprintf("%-15v%-9v%-9v%-19v%v\n", cols...)
}

func TestOperationsCmds(t *testing.T) {
	// Set Gomock controller
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Set test cases
	tcs := []struct {
		name       string
		cmd        func(client.Client) *cobra.Command
		args       []string
		expect     func(*client.MockClient)
		wantStdout string
		wantStderr string
	}{
		{
			name: "ListOperations",
			cmd:  ListOperationsCmd,
			args: []string{"--status", "success", "--kind", "vote"},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					ListOperations(gomock.Any(), &client.ListParams{Status: "success", Kind: "vote"}).
					Return([]*operation.Operation{vote}, nil).
					Times(1)
			},
			wantStdout: row("ID", "STATUS", "ATTEMPT", "MESSAGE", "META") +
				row("vote-p1-0xabc", "SUCCESS", 1, "Voting succeeded!", "proposalId:p1"),
		},
		{
			name: "ListOperationsJson",
			cmd:  ListOperationsCmd,
			args: []string{"-o", "json"},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					ListOperations(gomock.Any(), &client.ListParams{}).
					Return([]*operation.Operation{}, nil).
					Times(1)
			},
			wantStdout: "[]\n",
		},
		{
			name:       "GetOperationMissingId",
			cmd:        GetOperationCmd,
			args:       []string{},
			expect:     func(*client.MockClient) {},
			wantStderr: "Error: must specify an id\n",
		},
		{
			name: "GetOperationNotFound",
			cmd:  GetOperationCmd,
			args: []string{"vote-p2-0xabc"},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					GetOperation(gomock.Any(), "vote-p2-0xabc").
					Return(nil, &client.Error{StatusCode: 404, Body: `{"error":"operation not found"}`}).
					Times(1)
			},
			wantStderr: "Error: 404 Not Found: {\"error\":\"operation not found\"}\n",
		},
		{
			name: "PendingOperationsNone",
			cmd:  PendingOperationsCmd,
			args: []string{"--kind", "vote", "--meta", "proposalId=p1"},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					PendingOperations(gomock.Any(), &client.PendingParams{
						Kind: "vote",
						Meta: map[string]string{"proposalId": "p1"},
					}).
					Return(&client.PendingResponse{Pending: false, Operations: []*operation.Operation{}}, nil).
					Times(1)
			},
			wantStdout: "No pending operations\n",
		},
		{
			name: "RunOperationAccepted",
			cmd:  RunOperationCmd,
			args: []string{"vote-p1-0xabc", "--message", "Voting...", "--payload", `{"outcome":1}`},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					RunOperation(gomock.Any(), "vote-p1-0xabc", &client.RunRequest{
						Message: "Voting...",
						Meta:    map[string]string{},
						Payload: map[string]any{"outcome": float64(1)},
					}, false).
					Return(&client.RunResponse{Id: "vote-p1-0xabc", Accepted: true}, nil).
					Times(1)
			},
			wantStdout: "Started operation: vote-p1-0xabc\n",
		},
		{
			name: "RunOperationWaitFailure",
			cmd:  RunOperationCmd,
			args: []string{"stake-p1-0xabc", "-m", "Staking...", "--fail", "insufficient funds", "--wait"},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					RunOperation(gomock.Any(), "stake-p1-0xabc", gomock.Any(), true).
					Return(&client.RunResponse{
						Id: "stake-p1-0xabc",
						Operation: &operation.Operation{
							Id:     "stake-p1-0xabc",
							Status: operation.Failure,
							Error:  "insufficient funds",
						},
					}, nil).
					Times(1)
			},
			wantStdout: "Operation failed: stake-p1-0xabc (insufficient funds)\n",
		},
		{
			name:       "RunOperationMissingMessage",
			cmd:        RunOperationCmd,
			args:       []string{"vote-p1-0xabc"},
			expect:     func(*client.MockClient) {},
			wantStderr: "Error: required flag(s) \"message\" not set\n",
		},
		{
			name: "ClearOperation",
			cmd:  ClearOperationCmd,
			args: []string{"vote-p1-0xabc"},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					ClearOperation(gomock.Any(), "vote-p1-0xabc").
					Return(nil).
					Times(1)
			},
			wantStdout: "Cleared operation: vote-p1-0xabc\n",
		},
		{
			name: "Notifications",
			cmd:  NotificationsCmd,
			args: []string{"-o", "json"},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					Notifications(gomock.Any()).
					Return([]*notification.Notification{}, nil).
					Times(1)
			},
			wantStdout: "[]\n",
		},
		{
			name: "NotificationsError",
			cmd:  NotificationsCmd,
			args: []string{},
			expect: func(mock *client.MockClient) {
				mock.
					EXPECT().
					Notifications(gomock.Any()).
					Return(nil, errors.New("connection refused")).
					Times(1)
			},
			wantStderr: "Error: connection refused\n",
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			// Create buffer writer
			stdout := &bytes.Buffer{}
			stderr := &bytes.Buffer{}

			// Create mock client
			mock := client.NewMockClient(ctrl)
			tc.expect(mock)

			// Create commands in test
			cmd := tc.cmd(mock)

			// Set streams for command
			cmd.SetOut(stdout)
			cmd.SetErr(stderr)

			// Set args for command
			cmd.SetArgs(tc.args)

			// Execute command
			if err := cmd.Execute(); err != nil {
				assert.Equal(t, tc.wantStderr, stderr.String())
			} else {
				assert.Equal(t, tc.wantStdout, stdout.String())
			}
		})
	}
}

func TestOperationsCmdSetup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	mock := client.NewMockClient(ctrl)
	gomock.InOrder(
		mock.EXPECT().SetBearerToken("token").Times(1),
		mock.EXPECT().Setup("http://opstrack:8001").Return(nil).Times(1),
		mock.EXPECT().ClearOperation(gomock.Any(), "vote-p1-0xabc").Return(nil).Times(1),
	)

	stdout := &bytes.Buffer{}

	cmd := NewCmd(mock)
	cmd.SetOut(stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"clear", "vote-p1-0xabc", "--server", "http://opstrack:8001", "-T", "token"})

	assert.NoError(t, cmd.Execute())
	assert.Equal(t, "Cleared operation: vote-p1-0xabc\n", stdout.String())
}
