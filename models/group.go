package models

import "time"

type DrawStrategy string

const (
	DrawRandom DrawStrategy = "random"
	DrawSeeded DrawStrategy = "seeded"
	DrawManual DrawStrategy = "manual"
)

func (d DrawStrategy) IsValid() bool {
	switch d {
	case DrawRandom, DrawSeeded, DrawManual:
		return true
	}
	return false
}

// Group is a round-robin pool inside a stage. Once IsFinalized is set the
// membership and DrawSeed never change.
type Group struct {
	ID                      int           `json:"id" db:"id"`
	StageID                 int           `json:"stage_id" db:"stage_id"`
	TournamentID            int           `json:"tournament_id" db:"tournament_id"`
	Name                    string        `json:"name" db:"name"`
	DisplayOrder            int           `json:"display_order" db:"display_order"`
	Capacity                int           `json:"capacity" db:"capacity"`
	AdvancementCount        int           `json:"advancement_count" db:"advancement_count"`
	CurrentParticipantCount int           `json:"current_participant_count" db:"current_participant_count"`
	DrawStrategy            *DrawStrategy `json:"draw_strategy,omitempty" db:"draw_strategy"`
	DrawSeed                *int64        `json:"draw_seed,omitempty" db:"draw_seed"`
	DrawHash                *string       `json:"draw_hash,omitempty" db:"draw_hash"`
	IsFinalized             bool          `json:"is_finalized" db:"is_finalized"`
	Points                  PointsSystem  `json:"points" db:"-"`
	Tiebreakers             []Tiebreaker  `json:"tiebreakers" db:"tiebreakers"`
	MatchFormat             MatchFormat   `json:"match_format" db:"-"`
	CreatedAt               time.Time     `json:"created_at" db:"created_at"`
}

func (g *Group) IsFull() bool {
	return g.CurrentParticipantCount >= g.Capacity
}

// GroupName returns "Group A", "Group B", ... and continues with "Group AA"
// once the alphabet is exhausted.
func GroupName(index int) string {
	if index < 26 {
		return "Group " + string(rune('A'+index))
	}
	return "Group " + string(rune('A'+index/26-1)) + string(rune('A'+index%26))
}
