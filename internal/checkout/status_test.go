package checkout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusNominalSequence(t *testing.T) {
	sequence := []Status{
		StatusPending, StatusValidating, StatusReserving,
		StatusWriting, StatusClearing, StatusCommitted,
	}
	for i := 0; i < len(sequence)-1; i++ {
		assert.True(t, sequence[i].CanTransitionTo(sequence[i+1]),
			"%s doit pouvoir passer à %s", sequence[i], sequence[i+1])
	}
}

func TestStatusNoSkipping(t *testing.T) {
	assert.False(t, StatusPending.CanTransitionTo(StatusReserving))
	assert.False(t, StatusValidating.CanTransitionTo(StatusCommitted))
	assert.False(t, StatusReserving.CanTransitionTo(StatusClearing))
}

func TestStatusRollbackFromAnyNonTerminal(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusValidating, StatusReserving, StatusWriting, StatusClearing} {
		assert.True(t, s.CanTransitionTo(StatusRolledBack), "%s doit pouvoir rollback", s)
	}
}

func TestStatusTerminalStatesAreFrozen(t *testing.T) {
	for _, terminal := range []Status{StatusCommitted, StatusRolledBack} {
		assert.True(t, terminal.IsTerminal())
		for _, next := range []Status{StatusPending, StatusValidating, StatusReserving, StatusWriting, StatusClearing, StatusCommitted, StatusRolledBack} {
			assert.False(t, terminal.CanTransitionTo(next))
		}
	}
}

func TestAttemptRefusesIllegalJump(t *testing.T) {
	a := newAttempt("user-1")
	assert.NoError(t, a.to(StatusValidating))
	assert.ErrorIs(t, a.to(StatusWriting), errIllegalTransition)
	assert.Equal(t, StatusValidating, a.status)
}

func TestAttemptFailIsIdempotent(t *testing.T) {
	a := newAttempt("user-1")
	a.fail()
	assert.Equal(t, StatusRolledBack, a.status)
	a.fail()
	assert.Equal(t, StatusRolledBack, a.status)
}
