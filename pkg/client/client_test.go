package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/opstrack/opstrack/pkg/operation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T, handler http.HandlerFunc) Client {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := New()
	require.NoError(t, c.Setup(server.URL))
	return c
}

func TestSetup(t *testing.T) {
	for _, tc := range []struct {
		server string
		ok     bool
	}{
		{"http://127.0.0.1:8001", true},
		{"https://opstrack.example.com/api", true},
		{"127.0.0.1:8001", false},
		{"", false},
	} {
		t.Run(tc.server, func(t *testing.T) {
			err := New().Setup(tc.server)
			if tc.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestListOperationsFollowsCursor(t *testing.T) {
	calls := 0
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/operations", r.URL.Path)
		assert.Equal(t, "vote", r.URL.Query().Get("kind"))

		res := map[string]any{}
		if r.URL.Query().Get("cursor") == "" {
			res["operations"] = []*operation.Operation{{Id: "vote-p1-a", Status: operation.Pending}}
			res["cursor"] = "next"
		} else {
			assert.Equal(t, "next", r.URL.Query().Get("cursor"))
			res["operations"] = []*operation.Operation{{Id: "vote-p1-b", Status: operation.Success}}
		}

		_ = json.NewEncoder(w).Encode(res)
	})

	ops, err := c.ListOperations(context.Background(), &ListParams{Kind: "vote"})
	require.NoError(t, err)
	require.Len(t, ops, 2)
	assert.Equal(t, "vote-p1-a", ops[0].Id)
	assert.Equal(t, operation.Success, ops[1].Status)
	assert.Equal(t, 2, calls)
}

func TestPendingOperations(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/operations/pending", r.URL.Path)
		assert.Equal(t, []string{"outcome:1", "proposalId:p1"}, r.URL.Query()["meta"])

		_, _ = w.Write([]byte(`{"pending":true,"operations":[{"id":"vote-p1-0xabc","status":"PENDING"}]}`))
	})

	res, err := c.PendingOperations(context.Background(), &PendingParams{
		Meta: map[string]string{"proposalId": "p1", "outcome": "1"},
	})
	require.NoError(t, err)
	assert.True(t, res.Pending)
	assert.Equal(t, "vote-p1-0xabc", res.Operations[0].Id)
}

func TestRunOperation(t *testing.T) {
	for _, tc := range []struct {
		name     string
		wait     bool
		status   int
		body     string
		accepted bool
		err      bool
	}{
		{name: "Accepted", status: http.StatusAccepted, body: `{"id":"vote-p1-0xabc"}`, accepted: true},
		{name: "Wait", wait: true, status: http.StatusOK, body: `{"id":"vote-p1-0xabc","status":"SUCCESS","attempt":1}`},
		{name: "Unavailable", status: http.StatusServiceUnavailable, body: `{"id":"vote-p1-0xabc","status":"FAILURE"}`, err: true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			c := setup(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.Equal(t, tc.wait, r.URL.Query().Get("wait") == "true")

				var req RunRequest
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
				assert.Equal(t, "Voting...", req.Message)

				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			res, err := c.RunOperation(context.Background(), "vote-p1-0xabc", &RunRequest{Message: "Voting..."}, tc.wait)
			if tc.err {
				var e *Error
				require.ErrorAs(t, err, &e)
				assert.Equal(t, tc.status, e.StatusCode)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.accepted, res.Accepted)
			if !tc.accepted {
				assert.Equal(t, operation.Success, res.Operation.Status)
			}
		})
	}
}

func TestAuthHeaders(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	})

	c.SetBearerToken("token")
	require.NoError(t, c.ClearOperation(context.Background(), "vote-p1-0xabc"))
}

func TestNotFound(t *testing.T) {
	c := setup(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"operation not found"}`))
	})

	_, err := c.GetOperation(context.Background(), "vote-p1-0xabc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation not found")
}
