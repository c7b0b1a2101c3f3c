package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/opstrack/opstrack/internal/util"
	"github.com/opstrack/opstrack/pkg/notification"
	"github.com/opstrack/opstrack/pkg/operation"
)

//go:generate mockgen -source=client.go -destination=mock_client.go -package=client

// Client talks to the http api of a running opstrack server.
type Client interface {
	Setup(server string) error
	SetBasicAuth(username string, password string)
	SetBearerToken(token string)

	ListOperations(ctx context.Context, params *ListParams) ([]*operation.Operation, error)
	GetOperation(ctx context.Context, id string) (*operation.Operation, error)
	PendingOperations(ctx context.Context, params *PendingParams) (*PendingResponse, error)
	RunOperation(ctx context.Context, id string, req *RunRequest, wait bool) (*RunResponse, error)
	ClearOperation(ctx context.Context, id string) error
	Notifications(ctx context.Context) ([]*notification.Notification, error)
}

type ListParams struct {
	Status  string
	Kind    string
	Account string
}

type PendingParams struct {
	Kind    string
	Account string
	Meta    map[string]string
}

type PendingResponse struct {
	Pending    bool                   `json:"pending"`
	Operations []*operation.Operation `json:"operations"`
}

type RunRequest struct {
	Kind           string            `json:"kind,omitempty"`
	Message        string            `json:"message"`
	SuccessMessage string            `json:"successMessage,omitempty"`
	FailureMessage string            `json:"failureMessage,omitempty"`
	Meta           map[string]string `json:"meta,omitempty"`
	TotalSteps     int               `json:"totalSteps,omitempty"`
	Delay          int64             `json:"delay,omitempty"`
	Fail           string            `json:"fail,omitempty"`
	Payload        any               `json:"payload,omitempty"`
	Silent         bool              `json:"silent,omitempty"`
}

// RunResponse holds the terminal record when the server waited for the
// operation, otherwise only the id of the accepted operation.
type RunResponse struct {
	Id        string
	Accepted  bool
	Operation *operation.Operation
}

// Error is returned for every non successful response.
type Error struct {
	StatusCode int
	Body       string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, http.StatusText(e.StatusCode), strings.TrimSpace(e.Body))
}

type client struct {
	server   *url.URL
	http     *http.Client
	username string
	password string
	token    string
}

func New() Client {
	return &client{http: &http.Client{Timeout: 60 * time.Second}}
}

func (c *client) Setup(server string) error {
	u, err := url.Parse(server)
	if err != nil {
		return err
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid server url %q", server)
	}

	c.server = u
	return nil
}

func (c *client) SetBasicAuth(username string, password string) {
	c.username = username
	c.password = password
}

func (c *client) SetBearerToken(token string) {
	c.token = token
}

func (c *client) ListOperations(ctx context.Context, params *ListParams) ([]*operation.Operation, error) {
	query := url.Values{}
	if params.Status != "" {
		query.Set("status", params.Status)
	}
	if params.Kind != "" {
		query.Set("kind", params.Kind)
	}
	if params.Account != "" {
		query.Set("account", params.Account)
	}

	ops := []*operation.Operation{}
	for {
		var res struct {
			Operations []*operation.Operation `json:"operations"`
			Cursor     string                 `json:"cursor"`
		}

		if err := c.do(ctx, http.MethodGet, "/operations", query, nil, &res); err != nil {
			return nil, err
		}

		ops = append(ops, res.Operations...)
		if res.Cursor == "" {
			return ops, nil
		}

		query.Set("cursor", res.Cursor)
	}
}

func (c *client) GetOperation(ctx context.Context, id string) (*operation.Operation, error) {
	var o *operation.Operation
	if err := c.do(ctx, http.MethodGet, "/operations/"+url.PathEscape(id), nil, nil, &o); err != nil {
		return nil, err
	}

	return o, nil
}

func (c *client) PendingOperations(ctx context.Context, params *PendingParams) (*PendingResponse, error) {
	query := url.Values{}
	if params.Kind != "" {
		query.Set("kind", params.Kind)
	}
	if params.Account != "" {
		query.Set("account", params.Account)
	}
	for _, kv := range util.OrderedRangeKV(params.Meta) {
		query.Add("meta", fmt.Sprintf("%s:%s", kv.Key, kv.Value))
	}

	var res *PendingResponse
	if err := c.do(ctx, http.MethodGet, "/operations/pending", query, nil, &res); err != nil {
		return nil, err
	}

	return res, nil
}

func (c *client) RunOperation(ctx context.Context, id string, req *RunRequest, wait bool) (*RunResponse, error) {
	query := url.Values{}
	if wait {
		query.Set("wait", "true")
	}

	res, body, err := c.send(ctx, http.MethodPost, "/operations/"+url.PathEscape(id), query, req)
	if err != nil {
		return nil, err
	}

	switch res.StatusCode {
	case http.StatusAccepted:
		return &RunResponse{Id: id, Accepted: true}, nil
	case http.StatusOK:
		var o *operation.Operation
		if err := json.Unmarshal(body, &o); err != nil {
			return nil, err
		}
		return &RunResponse{Id: id, Operation: o}, nil
	default:
		return nil, &Error{StatusCode: res.StatusCode, Body: string(body)}
	}
}

func (c *client) ClearOperation(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/operations/"+url.PathEscape(id), nil, nil, nil)
}

func (c *client) Notifications(ctx context.Context) ([]*notification.Notification, error) {
	var res struct {
		Notifications []*notification.Notification `json:"notifications"`
	}

	if err := c.do(ctx, http.MethodGet, "/notifications", nil, nil, &res); err != nil {
		return nil, err
	}

	return res.Notifications, nil
}

func (c *client) do(ctx context.Context, method string, path string, query url.Values, in any, out any) error {
	res, body, err := c.send(ctx, method, path, query, in)
	if err != nil {
		return err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return &Error{StatusCode: res.StatusCode, Body: string(body)}
	}

	if out == nil || len(body) == 0 {
		return nil
	}

	return json.Unmarshal(body, out)
}

func (c *client) send(ctx context.Context, method string, path string, query url.Values, in any) (*http.Response, []byte, error) {
	util.Assert(c.server != nil, "client must be set up")

	u := c.server.JoinPath(path)
	u.RawQuery = query.Encode()

	var reader io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return nil, nil, err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, nil, err
	}

	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	res, err := c.http.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, nil, err
	}

	return res, body, nil
}
