package selectors

import (
	"strconv"
	"strings"

	"github.com/opstrack/opstrack/internal/kernel/store"
	"github.com/opstrack/opstrack/pkg/operation"
)

// Operation kinds and meta keys used by the governance actions.
const (
	KindVote   = "vote"
	KindStake  = "stake"
	KindRedeem = "redeem"

	MetaProposalId     = "proposalId"
	MetaAccountAddress = "accountAddress"
	MetaOutcome        = "outcome"
)

// Predicate reports whether an operation matches. Predicates must not
// modify the operation they are given.
type Predicate func(*operation.Operation) bool

func ById(id string) Predicate {
	return func(o *operation.Operation) bool {
		return o.Id == id
	}
}

func ByKind(kind string) Predicate {
	return func(o *operation.Operation) bool {
		return o.Kind == kind
	}
}

func ByMeta(key string, value string) Predicate {
	return func(o *operation.Operation) bool {
		v, ok := o.Meta[key]
		return ok && v == value
	}
}

func And(predicates ...Predicate) Predicate {
	return func(o *operation.Operation) bool {
		for _, p := range predicates {
			if !p(o) {
				return false
			}
		}
		return true
	}
}

func IsPending(s *store.Store, id string) bool {
	o, ok := s.Get(id)
	return ok && o.Status == operation.Pending
}

func IsPendingMatching(s *store.Store, predicate Predicate) bool {
	found := false
	s.Range(func(o *operation.Operation) bool {
		if o.Status == operation.Pending && predicate(o) {
			found = true
			return false
		}
		return true
	})

	return found
}

// Pending returns copies of all pending operations matching predicate,
// ordered by id.
func Pending(s *store.Store, predicate Predicate) []*operation.Operation {
	pending := []*operation.Operation{}
	s.Range(func(o *operation.Operation) bool {
		if o.Status == operation.Pending && predicate(o) {
			pending = append(pending, o.Copy())
		}
		return true
	})

	return pending
}

func IsVotePending(s *store.Store, proposalId string, outcome int) bool {
	return IsPendingMatching(s, And(
		ByKind(KindVote),
		ByMeta(MetaProposalId, proposalId),
		ByMeta(MetaOutcome, strconv.Itoa(outcome)),
	))
}

func IsStakePending(s *store.Store, proposalId string, outcome int) bool {
	return IsPendingMatching(s, And(
		ByKind(KindStake),
		ByMeta(MetaProposalId, proposalId),
		ByMeta(MetaOutcome, strconv.Itoa(outcome)),
	))
}

func IsRedeemPending(s *store.Store, proposalId string, accountAddress string) bool {
	return IsPendingMatching(s, And(
		ByKind(KindRedeem),
		ByMeta(MetaProposalId, proposalId),
		ByMeta(MetaAccountAddress, strings.ToLower(accountAddress)),
	))
}
