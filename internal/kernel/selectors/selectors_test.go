package selectors

import (
	"testing"

	"github.com/opstrack/opstrack/internal/kernel/store"
	"github.com/opstrack/opstrack/internal/kernel/t_op"
	"github.com/stretchr/testify/assert"
)

func apply(s *store.Store, events ...t_op.Event) *store.Store {
	for _, e := range events {
		s, _ = store.Apply(s, e, false)
	}
	return s
}

func TestIsPending(t *testing.T) {
	s := apply(store.New(), &t_op.Pending{Id: "foo"})
	assert.True(t, IsPending(s, "foo"))
	assert.False(t, IsPending(s, "bar"))

	s = apply(s, &t_op.Succeeded{Id: "foo", Attempt: 1})
	assert.False(t, IsPending(s, "foo"))
}

func TestIsPendingMatching(t *testing.T) {
	predicate := And(ByKind(KindVote), ByMeta(MetaAccountAddress, "0xabc"))

	s := apply(store.New(), &t_op.Pending{
		Id:   "vote-p1-0xabc",
		Kind: KindVote,
		Meta: map[string]string{MetaAccountAddress: "0xabc"},
	})
	assert.True(t, IsPendingMatching(s, predicate))
	assert.False(t, IsPendingMatching(s, ByMeta(MetaAccountAddress, "0xdef")))

	s = apply(s, &t_op.Failed{Id: "vote-p1-0xabc", Attempt: 1})
	assert.False(t, IsPendingMatching(s, predicate))
}

func TestPending(t *testing.T) {
	s := apply(store.New(),
		&t_op.Pending{Id: "b", Kind: KindStake},
		&t_op.Pending{Id: "a", Kind: KindStake},
		&t_op.Pending{Id: "c", Kind: KindVote},
		&t_op.Succeeded{Id: "b", Attempt: 1},
	)

	pending := Pending(s, ByKind(KindStake))
	assert.Len(t, pending, 1)
	assert.Equal(t, "a", pending[0].Id)

	assert.Len(t, Pending(s, And()), 2)
}

func TestGovernanceSelectors(t *testing.T) {
	s := apply(store.New(),
		&t_op.Pending{
			Id:   "vote-p1-1-0xabc",
			Kind: KindVote,
			Meta: map[string]string{MetaProposalId: "p1", MetaOutcome: "1", MetaAccountAddress: "0xabc"},
		},
		&t_op.Pending{
			Id:   "stake-p1-2-0xabc",
			Kind: KindStake,
			Meta: map[string]string{MetaProposalId: "p1", MetaOutcome: "2", MetaAccountAddress: "0xabc"},
		},
		&t_op.Pending{
			Id:   "redeem-p2-0xabc",
			Kind: KindRedeem,
			Meta: map[string]string{MetaProposalId: "p2", MetaAccountAddress: "0xabc"},
		},
	)

	for _, tc := range []struct {
		name     string
		selector func(*store.Store) bool
		expected bool
	}{
		{"vote yes", func(s *store.Store) bool { return IsVotePending(s, "p1", 1) }, true},
		{"vote no", func(s *store.Store) bool { return IsVotePending(s, "p1", 2) }, false},
		{"stake no", func(s *store.Store) bool { return IsStakePending(s, "p1", 2) }, true},
		{"stake other proposal", func(s *store.Store) bool { return IsStakePending(s, "p2", 2) }, false},
		{"redeem", func(s *store.Store) bool { return IsRedeemPending(s, "p2", "0xabc") }, true},
		{"redeem mixed case account", func(s *store.Store) bool { return IsRedeemPending(s, "p2", "0xABC") }, true},
		{"redeem other account", func(s *store.Store) bool { return IsRedeemPending(s, "p2", "0xdef") }, false},
	} {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.selector(s))
		})
	}
}
