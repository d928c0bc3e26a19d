package models

import "time"

type ParticipantStatus string

const (
	ParticipantPending   ParticipantStatus = "pending"
	ParticipantConfirmed ParticipantStatus = "confirmed"
	ParticipantWithdrawn ParticipantStatus = "withdrawn"
)

func (s ParticipantStatus) IsValid() bool {
	switch s {
	case ParticipantPending, ParticipantConfirmed, ParticipantWithdrawn:
		return true
	}
	return false
}

// Participant is a roster entry owned by the registration side of the platform.
// Exactly one of UserID and TeamID is set.
type Participant struct {
	ID           int               `json:"id" db:"id"`
	TournamentID int               `json:"tournament_id" db:"tournament_id"`
	UserID       *int              `json:"user_id,omitempty" db:"user_id"`
	TeamID       *int              `json:"team_id,omitempty" db:"team_id"`
	Seed         *int              `json:"seed,omitempty" db:"seed"`
	Status       ParticipantStatus `json:"status" db:"status"`
	CreatedAt    time.Time         `json:"created_at" db:"created_at"`
}

func (p *Participant) IsTeam() bool {
	return p.TeamID != nil
}
