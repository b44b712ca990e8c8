package service

import (
	"errors"
	"fmt"

	"github.com/AdamBeresnev/ultimate-tournaments/internal/bracket"
	"github.com/AdamBeresnev/ultimate-tournaments/internal/store"
)

// Errors returned by the engine. Handlers map them to HTTP statuses in httputil.
var (
	ErrNotFound               = store.ErrNotFound
	ErrConcurrentModification = store.ErrStaleVersion

	// Schedule generation
	ErrInsufficientTeams  = bracket.ErrInsufficientTeams
	ErrUnsupportedFormat  = bracket.ErrUnsupportedFormat
	ErrInvalidPoolCount   = bracket.ErrInvalidPoolCount
	ErrInvalidAdvancement = bracket.ErrInvalidAdvancement
	ErrBracketLocked      = errors.New("teams cannot change once a schedule exists")
	ErrRoundsExhausted    = errors.New("all swiss rounds have been played")
	ErrRoundInProgress    = errors.New("the current round still has unfinished matches")
	ErrNameRequired       = errors.New("a name is required")

	// Match lifecycle
	ErrAttendanceIncomplete    = errors.New("attendance has not been recorded for every player")
	ErrInvalidAttendanceStatus = errors.New("attendance status must be present, absent or late")
	ErrMatchNotOngoing         = errors.New("match is not in progress")
	ErrMatchClosed             = errors.New("match is already completed")
	ErrInvalidTransition       = errors.New("match cannot move to the requested status")
	ErrTeamsNotSet             = errors.New("both teams of the match must be known")
	ErrInvalidScore            = errors.New("score values must be non-negative and increments positive")
	ErrTiedScore               = errors.New("match cannot be completed with a tied score")
	ErrSlotOccupied            = errors.New("next match slot is already held by another team")
	ErrForbidden               = errors.New("operation not allowed for the current user")
	ErrInvalidRole             = errors.New("role must be admin or volunteer")
)

// AttendanceIncompleteError reports how far attendance got. It matches
// ErrAttendanceIncomplete with errors.Is.
type AttendanceIncompleteError struct {
	Recorded int
	Expected int
}

func (e *AttendanceIncompleteError) Error() string {
	return fmt.Sprintf("%s: %d of %d recorded", ErrAttendanceIncomplete, e.Recorded, e.Expected)
}

func (e *AttendanceIncompleteError) Is(target error) bool {
	return target == ErrAttendanceIncomplete
}
