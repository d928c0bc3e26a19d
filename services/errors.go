package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
)

// Errors shared by every service and mapped to HTTP statuses by the handlers.
var (
	ErrNotFound         = errors.New("requested resource not found")
	ErrValidationFailed = errors.New("validation failed")

	// configuration errors, raised before anything is written
	ErrInvalidConfiguration = errors.New("invalid configuration")
	ErrNoGroupsConfigured   = errors.New("no groups configured for stage")
	ErrNoParticipants       = errors.New("no participants to place")

	// state errors
	ErrStageNotCompleted    = errors.New("stage not completed")
	ErrInvalidStageState    = errors.New("invalid stage state")
	ErrInvalidTransition    = errors.New("invalid match transition")
	ErrGroupsFinalized      = errors.New("groups already drawn and finalized")
	ErrMatchesAlreadyPlayed = errors.New("group matches already in play")

	ErrPermissionDenied = errors.New("permission denied")
	// ErrAmbiguousResult is recoverable: resubmit the scores or raise a dispute.
	ErrAmbiguousResult = errors.New("ambiguous result: scores are equal and draws are not allowed")

	ErrArchiveUnavailable = errors.New("standings archive is not configured")
)

// StateError reports an entity found in a state the operation does not accept.
// It unwraps to the sentinel in Err.
type StateError struct {
	Entity   string
	ID       int
	Expected []string
	Actual   string
	Err      error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%v: %s %d is %q, expected %s", e.Err, e.Entity, e.ID, e.Actual, strings.Join(e.Expected, " or "))
}

func (e *StateError) Unwrap() error {
	return e.Err
}

func matchStateError(m *models.Match, expected ...models.MatchState) error {
	names := make([]string, len(expected))
	for i, s := range expected {
		names[i] = string(s)
	}
	return &StateError{Entity: "match", ID: m.ID, Expected: names, Actual: string(m.State), Err: ErrInvalidTransition}
}

func stageStateError(sentinel error, s *models.Stage, expected ...models.StageState) error {
	names := make([]string, len(expected))
	for i, st := range expected {
		names[i] = string(st)
	}
	return &StateError{Entity: "stage", ID: s.ID, Expected: names, Actual: string(s.State), Err: sentinel}
}

// handleRepositoryError folds repository sentinels into the service taxonomy and
// adds the operation as context.
func handleRepositoryError(err error, op string) error {
	switch {
	case errors.Is(err, repositories.ErrTournamentNotFound),
		errors.Is(err, repositories.ErrParticipantNotFound),
		errors.Is(err, repositories.ErrStageNotFound),
		errors.Is(err, repositories.ErrGroupNotFound),
		errors.Is(err, repositories.ErrStandingNotFound),
		errors.Is(err, repositories.ErrMatchNotFound),
		errors.Is(err, repositories.ErrDisputeNotFound):
		return fmt.Errorf("%s: %w: %w", op, ErrNotFound, err)
	case errors.Is(err, repositories.ErrStageOrderConflict),
		errors.Is(err, repositories.ErrStandingConflict),
		errors.Is(err, repositories.ErrGroupCapacityExceeded),
		errors.Is(err, repositories.ErrBracketUIDConflict),
		errors.Is(err, repositories.ErrParticipantInvalid),
		errors.Is(err, models.ErrStandingOwnerInvalid):
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidConfiguration, err)
	case errors.Is(err, repositories.ErrOpenDisputeExists):
		return fmt.Errorf("%s: %w: %w", op, ErrInvalidTransition, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
