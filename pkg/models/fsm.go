package models

import (
	"fmt"
)

// validTransitions maps from-state to allowed to-states.
// Jobs are processing from the instant they are accepted; there is no
// queued or pending state, and terminal states are sticky.
var validTransitions = map[JobStatus]map[JobStatus]bool{
	JobStatusProcessing: {
		JobStatusCompleted: true, // Processing → Completed (scoring produced a result)
		JobStatusFailed:    true, // Processing → Failed (every modality failed)
	},
	// Terminal states (no transitions allowed)
	JobStatusCompleted: {},
	JobStatusFailed:    {},
}

// ValidateTransition checks if a state transition is valid
func ValidateTransition(from, to JobStatus) error {
	allowed, exists := validTransitions[from]
	if !exists {
		return fmt.Errorf("unknown source state: %s", from)
	}
	if !allowed[to] {
		return fmt.Errorf("invalid transition from %s to %s", from, to)
	}
	return nil
}
