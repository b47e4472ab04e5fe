package subscription

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownEvent indicates an event type outside the closed event set.
	ErrUnknownEvent = errors.New("unknown subscription event")
)

// ErrTransitionRejected indicates an event that is not permitted from the
// subscription's current status. It is a sentinel result, not a failure of
// the engine: callers must branch on it explicitly.
type ErrTransitionRejected struct {
	Status Status
	Event  string
}

func (e *ErrTransitionRejected) Error() string {
	return fmt.Sprintf("transition rejected: event '%s' is not allowed from status '%s'", e.Event, e.Status)
}

func NewErrTransitionRejected(status Status, event Event) *ErrTransitionRejected {
	return &ErrTransitionRejected{
		Status: status,
		Event:  event.Name(),
	}
}

// IsTransitionRejectedError reports whether err is a transition rejection as
// opposed to caller misuse (unknown tier, unknown event).
func IsTransitionRejectedError(err error) bool {
	var e *ErrTransitionRejected
	return errors.As(err, &e)
}
