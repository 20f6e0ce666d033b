package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatusIsValid(t *testing.T) {
	valid := []Status{
		StatusDraft, StatusPending, StatusApproved, StatusActive,
		StatusDelivered, StatusFulfilled, StatusRejected, StatusCancelled, StatusCompleted,
	}
	for _, s := range valid {
		assert.True(t, s.IsValid(), "expected %s to be valid", s)
	}

	assert.False(t, Status("shipped").IsValid())
	assert.False(t, Status("").IsValid())
}

func TestStatusProgress(t *testing.T) {
	tests := []struct {
		status   Status
		expected int
	}{
		{StatusPending, 0},
		{StatusApproved, 25},
		{StatusActive, 50},
		{StatusDelivered, 75},
		{StatusFulfilled, 100},
		{StatusDraft, 0},
		{StatusRejected, 0},
		{StatusCancelled, 0},
		{StatusCompleted, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Progress())
		})
	}
}

func TestStatusProgressionIndex(t *testing.T) {
	assert.Equal(t, 0, StatusPending.ProgressionIndex())
	assert.Equal(t, 4, StatusFulfilled.ProgressionIndex())
	assert.Equal(t, -1, StatusDraft.ProgressionIndex())
	assert.Equal(t, -1, StatusRejected.ProgressionIndex())
}

func TestStatusIsTerminal(t *testing.T) {
	assert.True(t, StatusRejected.IsTerminal())
	assert.True(t, StatusCancelled.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusFulfilled.IsTerminal())
}

func TestPermissivePolicyAllowsEverything(t *testing.T) {
	policy := PolicyPermissive

	assert.True(t, policy.Allows(StatusCompleted, StatusDraft))
	assert.True(t, policy.Allows(StatusRejected, StatusActive))
	assert.True(t, policy.Allows(StatusFulfilled, StatusPending))
}

func TestStrictPolicyFollowsTransitionTable(t *testing.T) {
	policy := PolicyStrict

	assert.True(t, policy.Allows(StatusDraft, StatusPending))
	assert.True(t, policy.Allows(StatusPending, StatusApproved))
	assert.True(t, policy.Allows(StatusPending, StatusRejected))
	assert.True(t, policy.Allows(StatusApproved, StatusActive))
	assert.True(t, policy.Allows(StatusActive, StatusDelivered))
	assert.True(t, policy.Allows(StatusDelivered, StatusCompleted))
	assert.True(t, policy.Allows(StatusFulfilled, StatusCompleted))

	assert.False(t, policy.Allows(StatusDraft, StatusActive))
	assert.False(t, policy.Allows(StatusPending, StatusDelivered))
	assert.False(t, policy.Allows(StatusRejected, StatusPending))
	assert.False(t, policy.Allows(StatusCompleted, StatusDraft))
}

func TestUnknownPolicyDefaultsToPermissive(t *testing.T) {
	policy := TransitionPolicy("")
	assert.True(t, policy.Allows(StatusCompleted, StatusDraft))
}
