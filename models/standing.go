package models

import (
	"errors"
	"time"
)

// StandingCounters is the bag of game specific counters. Only the fields of the
// counter family selected by the rule-set's scoring type are ever written.
type StandingCounters struct {
	GoalsFor        int `json:"goals_for,omitempty"`
	GoalsAgainst    int `json:"goals_against,omitempty"`
	RoundsWon       int `json:"rounds_won,omitempty"`
	RoundsLost      int `json:"rounds_lost,omitempty"`
	Kills           int `json:"kills,omitempty"`
	Deaths          int `json:"deaths,omitempty"`
	Assists         int `json:"assists,omitempty"`
	PlacementPoints int `json:"placement_points,omitempty"`
	ScoreFor        int `json:"score_for,omitempty"`
	ScoreAgainst    int `json:"score_against,omitempty"`
}

// Standing is one participant's record inside a group.
type Standing struct {
	ID            int              `json:"id" db:"id"`
	GroupID       int              `json:"group_id" db:"group_id"`
	StageID       int              `json:"stage_id" db:"stage_id"`
	ParticipantID int              `json:"participant_id" db:"participant_id"`
	UserID        *int             `json:"user_id,omitempty" db:"user_id"`
	TeamID        *int             `json:"team_id,omitempty" db:"team_id"`
	DrawPosition  int              `json:"draw_position" db:"draw_position"`
	MatchesPlayed int              `json:"matches_played" db:"matches_played"`
	Wins          int              `json:"wins" db:"wins"`
	Draws         int              `json:"draws" db:"draws"`
	Losses        int              `json:"losses" db:"losses"`
	Points        int              `json:"points" db:"points"`
	Counters      StandingCounters `json:"counters" db:"counters"`
	Rank          *int             `json:"rank,omitempty" db:"rank"`
	IsAdvancing   bool             `json:"is_advancing" db:"is_advancing"`
	IsEliminated  bool             `json:"is_eliminated" db:"is_eliminated"`
	UpdatedAt     time.Time        `json:"updated_at" db:"updated_at"`
}

var ErrStandingOwnerInvalid = errors.New("standing must reference exactly one of user or team")

func (s *Standing) Validate() error {
	if (s.UserID == nil) == (s.TeamID == nil) {
		return ErrStandingOwnerInvalid
	}
	return nil
}

// ResetCounters zeroes every aggregated field ahead of a full recompute.
func (s *Standing) ResetCounters() {
	s.MatchesPlayed = 0
	s.Wins = 0
	s.Draws = 0
	s.Losses = 0
	s.Points = 0
	s.Counters = StandingCounters{}
	s.Rank = nil
	s.IsAdvancing = false
	s.IsEliminated = false
}
