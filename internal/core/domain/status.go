package domain

import "fmt"

// Legal forward transitions. Statuses absent from the map are terminal.
// FAILED is reachable from any non-terminal status.
var transitions = map[DocumentStatus]map[DocumentStatus]struct{}{
	StatusUploaded: {
		StatusProcessing: {},
		StatusFailed:     {},
	},
	StatusProcessing: {
		StatusPendingReview: {},
		StatusApproved:      {},
		StatusFailed:        {},
	},
	StatusPendingReview: {
		StatusApproved: {},
		StatusRejected: {},
		StatusFailed:   {},
	},
}

var allStatuses = []DocumentStatus{
	StatusUploaded,
	StatusProcessing,
	StatusPendingReview,
	StatusApproved,
	StatusRejected,
	StatusFailed,
}

// IsTerminalStatus reports whether a document in this status can never
// move again. Terminal statuses have no outgoing transitions.
func IsTerminalStatus(status DocumentStatus) bool {
	_, ok := transitions[status]
	return !ok
}

// TerminalStatuses returns the statuses with no outgoing transitions, in
// declaration order. Persistence layers use it to exclude settled rows
// from conditional updates.
func TerminalStatuses() []DocumentStatus {
	var out []DocumentStatus
	for _, status := range allStatuses {
		if IsTerminalStatus(status) {
			out = append(out, status)
		}
	}
	return out
}

func CanTransition(from, to DocumentStatus) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[to]
	return ok
}

// Transition validates a status move against the state machine and returns
// a conflict error for anything but a legal forward step.
func Transition(from, to DocumentStatus) error {
	if !CanTransition(from, to) {
		return WrapError(ErrConflict, "status transition",
			fmt.Errorf("illegal transition %s -> %s", from, to))
	}
	return nil
}
