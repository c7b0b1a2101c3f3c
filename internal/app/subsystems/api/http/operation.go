package http

import (
	"context"
	"errors"
	"maps"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/opstrack/opstrack/internal/app/auth"
	"github.com/opstrack/opstrack/internal/kernel/selectors"
	"github.com/opstrack/opstrack/internal/kernel/system"
	"github.com/opstrack/opstrack/pkg/operation"
)

const defaultLimit = 100

// List Operations

type ListOperationsParams struct {
	Status  string `form:"status" binding:"omitempty,oneofci=pending success failure"`
	Kind    string `form:"kind" binding:"max=64"`
	Account string `form:"account"`
	Limit   int    `form:"limit" binding:"gte=0,lte=1000"`
	Cursor  string `form:"cursor"`
}

type ListOperationsResponse struct {
	Operations []*operation.Operation `json:"operations"`
	Cursor     string                 `json:"cursor,omitempty"`
}

func (s *server) listOperations(c *gin.Context) {
	var params ListOperationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, validationError(err))
		return
	}

	mask := operation.Any
	if params.Status != "" {
		status, err := operation.ParseStatus(params.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		mask = status
	}

	var after string
	if params.Cursor != "" {
		cursor, err := DecodeCursor(params.Cursor, []byte(s.config.CursorKey))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid cursor"})
			return
		}
		after = cursor.Next
	}

	limit := params.Limit
	if limit == 0 {
		limit = defaultLimit
	}

	predicate := filter(params.Kind, params.Account, nil)
	res := &ListOperationsResponse{Operations: []*operation.Operation{}}

	var next string
	s.api.Snapshot().Range(func(o *operation.Operation) bool {
		if o.Id < after || !o.Status.In(mask) || !predicate(o) {
			return true
		}
		if len(res.Operations) == limit {
			next = o.Id
			return false
		}

		res.Operations = append(res.Operations, o.Copy())
		return true
	})

	if next != "" {
		token, err := (&Cursor{Next: next}).Encode([]byte(s.config.CursorKey))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		res.Cursor = token
	}

	c.JSON(http.StatusOK, res)
}

// Pending Operations

type PendingOperationsParams struct {
	Kind    string   `form:"kind" binding:"max=64"`
	Account string   `form:"account"`
	Meta    []string `form:"meta"`
}

type PendingOperationsResponse struct {
	Pending    bool                   `json:"pending"`
	Operations []*operation.Operation `json:"operations"`
}

func (s *server) pendingOperations(c *gin.Context) {
	var params PendingOperationsParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, validationError(err))
		return
	}

	meta := map[string]string{}
	for _, kv := range params.Meta {
		k, v, ok := strings.Cut(kv, ":")
		if !ok || k == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "meta filters must have the form key:value"})
			return
		}
		meta[k] = v
	}

	ops := selectors.Pending(s.api.Snapshot(), filter(params.Kind, params.Account, meta))

	c.JSON(http.StatusOK, &PendingOperationsResponse{
		Pending:    len(ops) > 0,
		Operations: ops,
	})
}

// Read Operation

func (s *server) readOperation(c *gin.Context) {
	o, ok := s.api.Snapshot().Get(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "operation not found"})
		return
	}

	c.JSON(http.StatusOK, o)
}

// Run Operation

type RunOperationParams struct {
	Wait bool `form:"wait"`
}

// RunOperationBody describes an echo task: it waits Delay milliseconds
// and then resolves Payload, or fails with Fail when set.
type RunOperationBody struct {
	Kind           string            `json:"kind" binding:"max=64"`
	Message        string            `json:"message" binding:"required,max=256"`
	SuccessMessage string            `json:"successMessage" binding:"max=256"`
	FailureMessage string            `json:"failureMessage" binding:"max=256"`
	Meta           map[string]string `json:"meta"`
	TotalSteps     int               `json:"totalSteps" binding:"gte=0,lte=100"`
	Delay          int64             `json:"delay" binding:"gte=0,lte=3600000"`
	Fail           string            `json:"fail"`
	Payload        any               `json:"payload"`
	Silent         bool              `json:"silent"`
}

func (s *server) runOperation(c *gin.Context) {
	id := c.Param("id")

	var params RunOperationParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, validationError(err))
		return
	}

	var body RunOperationBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, validationError(err))
		return
	}

	meta := maps.Clone(body.Meta)
	if identity, ok := auth.FromContext(c); ok && identity.Account != "" {
		if meta == nil {
			meta = map[string]string{}
		}
		if _, ok := meta[selectors.MetaAccountAddress]; !ok {
			meta[selectors.MetaAccountAddress] = identity.Account
		}
	}

	opts := []system.Option{
		system.WithMeta(meta),
		system.WithTotalSteps(body.TotalSteps),
	}
	if body.Kind != "" {
		opts = append(opts, system.WithKind(body.Kind))
	}
	if body.SuccessMessage != "" {
		opts = append(opts, system.WithSuccessMessage(body.SuccessMessage))
	}
	if body.FailureMessage != "" {
		opts = append(opts, system.WithFailureMessage(body.FailureMessage))
	}
	if body.Silent {
		opts = append(opts, system.WithoutNotification())
	}

	task := Echo(time.Duration(body.Delay)*time.Millisecond, body.Fail, body.Payload)
	h := s.api.RunTrackedOperation(id, body.Message, task, opts...)

	if params.Wait {
		ctx, cancel := context.WithTimeout(c.Request.Context(), s.config.WaitTimeout)
		defer cancel()

		if _, err := h.AwaitContext(ctx); err == nil {
			respond(c, h)
			return
		}
	} else {
		select {
		case <-h.Done():
			if h.Attempt() == 0 {
				respond(c, h)
				return
			}
		default:
		}
	}

	c.Header("Location", "/operations/"+id)
	c.JSON(http.StatusAccepted, gin.H{"id": id})
}

// respond writes the terminal record of a resolved handle, attempts
// rejected before reaching the store have attempt zero.
func respond(c *gin.Context, h *system.Handle) {
	o := h.Await()
	if o.Attempt == 0 {
		c.JSON(http.StatusServiceUnavailable, o)
		return
	}

	c.JSON(http.StatusOK, o)
}

// Clear Operation

func (s *server) clearOperation(c *gin.Context) {
	id := c.Param("id")

	if _, ok := s.api.Snapshot().Get(id); !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "operation not found"})
		return
	}

	if err := s.api.Clear(c.Request.Context(), id); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, system.ErrShuttingDown) || errors.Is(err, system.ErrSubmissionQueueFull) {
			status = http.StatusServiceUnavailable
		}

		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.Status(http.StatusNoContent)
}

// Proposal Pending

type ProposalPendingParams struct {
	Action  string `form:"action" binding:"required,oneofci=vote stake redeem"`
	Outcome *int   `form:"outcome" binding:"omitempty,gte=0"`
	Account string `form:"account"`
}

func (s *server) proposalPending(c *gin.Context) {
	proposalId := c.Param("proposalId")

	var params ProposalPendingParams
	if err := c.ShouldBindQuery(&params); err != nil {
		c.JSON(http.StatusBadRequest, validationError(err))
		return
	}

	snapshot := s.api.Snapshot()

	var pending bool
	switch strings.ToLower(params.Action) {
	case selectors.KindVote, selectors.KindStake:
		if params.Outcome == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "outcome must be provided"})
			return
		}

		if strings.EqualFold(params.Action, selectors.KindVote) {
			pending = selectors.IsVotePending(snapshot, proposalId, *params.Outcome)
		} else {
			pending = selectors.IsStakePending(snapshot, proposalId, *params.Outcome)
		}
	case selectors.KindRedeem:
		account := strings.ToLower(params.Account)
		if identity, ok := auth.FromContext(c); ok && account == "" {
			account = identity.Account
		}
		if account == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "account must be provided"})
			return
		}

		pending = selectors.IsRedeemPending(snapshot, proposalId, account)
	}

	c.JSON(http.StatusOK, gin.H{"pending": pending})
}

func filter(kind string, account string, meta map[string]string) selectors.Predicate {
	predicates := []selectors.Predicate{}
	if kind != "" {
		predicates = append(predicates, selectors.ByKind(kind))
	}
	if account != "" {
		predicates = append(predicates, selectors.ByMeta(selectors.MetaAccountAddress, strings.ToLower(account)))
	}
	for k, v := range meta {
		if k == selectors.MetaAccountAddress {
			v = strings.ToLower(v)
		}
		predicates = append(predicates, selectors.ByMeta(k, v))
	}

	return selectors.And(predicates...)
}
