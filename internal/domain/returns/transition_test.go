package returns

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finledger/backend/internal/domain/shared"
)

var allStatuses = []ReturnStatus{
	ReturnStatusDraft, ReturnStatusSubmitted, ReturnStatusApproved,
	ReturnStatusRejected, ReturnStatusProcessing, ReturnStatusCompleted,
	ReturnStatusCancelled,
}

var allEvents = []ReturnEvent{
	EventSubmit, EventApprove, EventReject,
	EventStartProcessing, EventComplete, EventCancel,
}

// legal enumerates every permitted (status, event) pair and its target.
// Everything outside this table must be rejected.
var legal = map[ReturnStatus]map[ReturnEvent]ReturnStatus{
	ReturnStatusDraft: {
		EventSubmit: ReturnStatusSubmitted,
		EventCancel: ReturnStatusCancelled,
	},
	ReturnStatusSubmitted: {
		EventApprove: ReturnStatusApproved,
		EventReject:  ReturnStatusRejected,
		EventCancel:  ReturnStatusCancelled,
	},
	ReturnStatusApproved: {
		EventStartProcessing: ReturnStatusProcessing,
		EventCancel:          ReturnStatusCancelled,
	},
	ReturnStatusProcessing: {
		EventComplete: ReturnStatusCompleted,
	},
}

func TestNextStatus_FullMatrix(t *testing.T) {
	for _, status := range allStatuses {
		for _, event := range allEvents {
			expected, ok := legal[status][event]
			t.Run(status.String()+"_"+event.String(), func(t *testing.T) {
				next, err := NextStatus(status, event)
				if ok {
					require.NoError(t, err)
					assert.Equal(t, expected, next)
					assert.True(t, CanFire(status, event))
				} else {
					require.Error(t, err)
					assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
					assert.False(t, CanFire(status, event))
				}
			})
		}
	}
}

func TestNextStatus_UnknownStatus(t *testing.T) {
	_, err := NextStatus(ReturnStatus("LIMBO"), EventSubmit)
	require.Error(t, err)
	assert.Equal(t, shared.CodeInvalidTransition, shared.ErrorCode(err))
}

func TestReturnStatus_IsTerminal(t *testing.T) {
	terminal := map[ReturnStatus]bool{
		ReturnStatusDraft:      false,
		ReturnStatusSubmitted:  false,
		ReturnStatusApproved:   false,
		ReturnStatusProcessing: false,
		ReturnStatusRejected:   true,
		ReturnStatusCompleted:  true,
		ReturnStatusCancelled:  true,
	}
	for status, want := range terminal {
		assert.Equal(t, want, status.IsTerminal(), "status %s", status)
	}
	assert.False(t, ReturnStatus("LIMBO").IsTerminal())
}
