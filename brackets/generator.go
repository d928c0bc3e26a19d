package brackets

import (
	"context"
	"errors"
)

var (
	ErrNotEnoughParticipants     = errors.New("not enough participants")
	ErrInvalidGroupConfiguration = errors.New("invalid group configuration")
	ErrCapacityExceeded          = errors.New("participants exceed total group capacity")
	ErrIncompleteAssignment      = errors.New("manual assignment is incomplete or inconsistent")
)

// GenerateBracketParams carries the ordered participant ids (strongest seed
// first) and a prefix that keeps bracket UIDs unique across stages.
type GenerateBracketParams struct {
	Participants []int
	UIDPrefix    string
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

// BracketMatch is a generated, not yet persisted match. SourceMatch UIDs point at
// the matches whose winners fill the empty participant slots.
type BracketMatch struct {
	UID          string
	Round        int
	OrderInRound int

	Participant1ID *int
	Participant2ID *int

	SourceMatch1UID *string
	SourceMatch2UID *string

	IsPlaceholder bool

	IsBye            bool
	ByeParticipantID *int
}
