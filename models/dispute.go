package models

import (
	"time"

	"github.com/google/uuid"
)

type DisputeStatus string

const (
	DisputeOpen     DisputeStatus = "open"
	DisputeResolved DisputeStatus = "resolved"
)

type DisputeOutcome string

const (
	OutcomeAcceptReported DisputeOutcome = "accept_reported"
	OutcomeOverride       DisputeOutcome = "override"
	OutcomeRematch        DisputeOutcome = "rematch"
	OutcomeDisqualify     DisputeOutcome = "disqualify"
)

func (o DisputeOutcome) IsValid() bool {
	switch o {
	case OutcomeAcceptReported, OutcomeOverride, OutcomeRematch, OutcomeDisqualify:
		return true
	}
	return false
}

type Dispute struct {
	ID                        int             `json:"id" db:"id"`
	Reference                 uuid.UUID       `json:"reference" db:"reference"`
	MatchID                   int             `json:"match_id" db:"match_id"`
	RaisedBy                  int             `json:"raised_by" db:"raised_by"`
	Reason                    string          `json:"reason" db:"reason"`
	Status                    DisputeStatus   `json:"status" db:"status"`
	PreviousState             MatchState      `json:"previous_state" db:"previous_state"`
	Outcome                   *DisputeOutcome `json:"outcome,omitempty" db:"outcome"`
	OverrideP1Score           *int            `json:"override_p1_score,omitempty" db:"override_p1_score"`
	OverrideP2Score           *int            `json:"override_p2_score,omitempty" db:"override_p2_score"`
	DisqualifiedParticipantID *int            `json:"disqualified_participant_id,omitempty" db:"disqualified_participant_id"`
	ResolvedBy                *int            `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt                *time.Time      `json:"resolved_at,omitempty" db:"resolved_at"`
	CreatedAt                 time.Time       `json:"created_at" db:"created_at"`
}
