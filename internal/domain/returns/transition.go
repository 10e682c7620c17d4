package returns

import "github.com/finledger/backend/internal/domain/shared"

// ReturnStatus represents the lifecycle status of a return order
type ReturnStatus string

const (
	ReturnStatusDraft      ReturnStatus = "DRAFT"
	ReturnStatusSubmitted  ReturnStatus = "SUBMITTED"
	ReturnStatusApproved   ReturnStatus = "APPROVED"
	ReturnStatusRejected   ReturnStatus = "REJECTED"
	ReturnStatusProcessing ReturnStatus = "PROCESSING"
	ReturnStatusCompleted  ReturnStatus = "COMPLETED"
	ReturnStatusCancelled  ReturnStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ReturnStatus
func (s ReturnStatus) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// String returns the string representation of ReturnStatus
func (s ReturnStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no event can leave this status
func (s ReturnStatus) IsTerminal() bool {
	return len(transitions[s]) == 0 && s.IsValid()
}

// ReturnEvent names an operation that drives the return order state machine
type ReturnEvent string

const (
	EventSubmit          ReturnEvent = "submit"
	EventApprove         ReturnEvent = "approve"
	EventReject          ReturnEvent = "reject"
	EventStartProcessing ReturnEvent = "start_processing"
	EventComplete        ReturnEvent = "complete"
	EventCancel          ReturnEvent = "cancel"
)

// String returns the string representation of ReturnEvent
func (e ReturnEvent) String() string {
	return string(e)
}

// transitions is the single source of truth for the return order lifecycle.
// Cancellation is allowed from DRAFT, SUBMITTED and APPROVED only: once a
// return is PROCESSING money may already be moving, so it must run to
// COMPLETED. REJECTED, COMPLETED and CANCELLED are terminal.
var transitions = map[ReturnStatus]map[ReturnEvent]ReturnStatus{
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
	ReturnStatusRejected:  {},
	ReturnStatusCompleted: {},
	ReturnStatusCancelled: {},
}

// NextStatus resolves the target status for an event from the current status,
// returning an InvalidTransitionError when the pair is not in the table.
func NextStatus(current ReturnStatus, event ReturnEvent) (ReturnStatus, error) {
	next, ok := transitions[current][event]
	if !ok {
		return "", shared.NewInvalidTransitionError(current.String(), event.String())
	}
	return next, nil
}

// CanFire reports whether the event is legal from the current status
func CanFire(current ReturnStatus, event ReturnEvent) bool {
	_, ok := transitions[current][event]
	return ok
}
