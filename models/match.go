package models

import "time"

type MatchState string

const (
	MatchScheduled     MatchState = "scheduled"
	MatchLive          MatchState = "live"
	MatchPendingResult MatchState = "pending_result"
	MatchCompleted     MatchState = "completed"
	MatchDisputed      MatchState = "disputed"
	MatchCancelled     MatchState = "cancelled"
)

// IsTerminal reports whether the match no longer takes part in play. A completed
// match may still be disputed, but it counts as finished for stage completion.
func (s MatchState) IsTerminal() bool {
	return s == MatchCompleted || s == MatchCancelled
}

// SideStats carries the per-side game counters reported with a result.
type SideStats struct {
	Kills     int `json:"kills,omitempty"`
	Deaths    int `json:"deaths,omitempty"`
	Assists   int `json:"assists,omitempty"`
	Placement int `json:"placement,omitempty"`
	Rounds    int `json:"rounds,omitempty"`
}

type Match struct {
	ID                 int        `json:"id" db:"id"`
	TournamentID       int        `json:"tournament_id" db:"tournament_id"`
	StageID            *int       `json:"stage_id,omitempty" db:"stage_id"`
	GroupID            *int       `json:"group_id,omitempty" db:"group_id"`
	Round              int        `json:"round" db:"round"`
	OrderInRound       int        `json:"order_in_round" db:"order_in_round"`
	BracketMatchUID    *string    `json:"bracket_match_uid,omitempty" db:"bracket_match_uid"`
	NextMatchID        *int       `json:"next_match_id,omitempty" db:"next_match_id"`
	WinnerToSlot       *int       `json:"winner_to_slot,omitempty" db:"winner_to_slot"`
	P1ParticipantID    *int       `json:"p1_participant_id,omitempty" db:"p1_participant_id"`
	P2ParticipantID    *int       `json:"p2_participant_id,omitempty" db:"p2_participant_id"`
	State              MatchState `json:"state" db:"state"`
	P1Score            int        `json:"p1_score" db:"p1_score"`
	P2Score            int        `json:"p2_score" db:"p2_score"`
	P1Stats            *SideStats `json:"p1_stats,omitempty" db:"p1_stats"`
	P2Stats            *SideStats `json:"p2_stats,omitempty" db:"p2_stats"`
	ReportedBy         *int       `json:"reported_by,omitempty" db:"reported_by"`
	WinnerID           *int       `json:"winner_id,omitempty" db:"winner_participant_id"`
	LoserID            *int       `json:"loser_id,omitempty" db:"loser_participant_id"`
	IsDraw             bool       `json:"is_draw" db:"is_draw"`
	LastOperation      *string    `json:"-" db:"last_operation"`
	LastIdempotencyKey *string    `json:"-" db:"last_idempotency_key"`
	Version            int        `json:"version" db:"version"`
	ScheduledAt        *time.Time `json:"scheduled_at,omitempty" db:"scheduled_at"`
	StartedAt          *time.Time `json:"started_at,omitempty" db:"started_at"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt          time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at" db:"updated_at"`
}

// HasParticipant reports whether participantID occupies one of the two slots.
func (m *Match) HasParticipant(participantID int) bool {
	return (m.P1ParticipantID != nil && *m.P1ParticipantID == participantID) ||
		(m.P2ParticipantID != nil && *m.P2ParticipantID == participantID)
}

// Opponent returns the participant in the other slot, if any.
func (m *Match) Opponent(participantID int) *int {
	if m.P1ParticipantID != nil && *m.P1ParticipantID == participantID {
		return m.P2ParticipantID
	}
	if m.P2ParticipantID != nil && *m.P2ParticipantID == participantID {
		return m.P1ParticipantID
	}
	return nil
}

func (m *Match) IsElimination() bool {
	return m.GroupID == nil && m.BracketMatchUID != nil
}

// ClearResult drops scores and the outcome, used when a rematch is ordered.
func (m *Match) ClearResult() {
	m.P1Score = 0
	m.P2Score = 0
	m.P1Stats = nil
	m.P2Stats = nil
	m.ReportedBy = nil
	m.WinnerID = nil
	m.LoserID = nil
	m.IsDraw = false
	m.StartedAt = nil
	m.CompletedAt = nil
}

// IdempotencyRecord marks that (MatchID, Operation, Key) has already been applied.
type IdempotencyRecord struct {
	MatchID   int       `json:"match_id" db:"match_id"`
	Operation string    `json:"operation" db:"operation"`
	Key       string    `json:"key" db:"idempotency_key"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
