package models

import "fmt"

// ScoringType selects the counter family a game's standings track.
type ScoringType string

const (
	ScoringGoals     ScoringType = "goals"
	ScoringRounds    ScoringType = "rounds"
	ScoringPlacement ScoringType = "placement"
	ScoringKDA       ScoringType = "kda"
	ScoringScore     ScoringType = "score"
)

func (t ScoringType) IsValid() bool {
	switch t {
	case ScoringGoals, ScoringRounds, ScoringPlacement, ScoringKDA, ScoringScore:
		return true
	}
	return false
}

type Tiebreaker string

const (
	TiebreakPoints       Tiebreaker = "points"
	TiebreakWins         Tiebreaker = "wins"
	TiebreakHeadToHead   Tiebreaker = "head_to_head"
	TiebreakDifferential Tiebreaker = "differential"
	TiebreakScoreFor     Tiebreaker = "score_for"
)

func (t Tiebreaker) IsValid() bool {
	switch t {
	case TiebreakPoints, TiebreakWins, TiebreakHeadToHead, TiebreakDifferential, TiebreakScoreFor:
		return true
	}
	return false
}

// DefaultTiebreakers is the chain used when a group is configured without one.
var DefaultTiebreakers = []Tiebreaker{
	TiebreakPoints,
	TiebreakWins,
	TiebreakHeadToHead,
	TiebreakDifferential,
	TiebreakScoreFor,
}

type PointsSystem struct {
	Win  int `json:"win" mapstructure:"win"`
	Draw int `json:"draw" mapstructure:"draw"`
	Loss int `json:"loss" mapstructure:"loss"`
}

var DefaultPoints = PointsSystem{Win: 3, Draw: 1, Loss: 0}

type MatchFormat struct {
	BestOf int `json:"best_of" mapstructure:"best_of"`
}

// RuleSet is the game specific scoring configuration handed to the aggregator and
// the match controller. It is resolved from a catalog by the caller, never looked
// up from inside the engine.
type RuleSet struct {
	GameSlug    string       `json:"game_slug" mapstructure:"game_slug"`
	ScoringType ScoringType  `json:"scoring_type" mapstructure:"scoring_type"`
	AllowDraws  bool         `json:"allow_draws" mapstructure:"allow_draws"`
	Points      PointsSystem `json:"points" mapstructure:"points"`
	Tiebreakers []Tiebreaker `json:"tiebreakers" mapstructure:"tiebreakers"`
}

func (r RuleSet) Validate() error {
	if !r.ScoringType.IsValid() {
		return fmt.Errorf("unknown scoring type %q", r.ScoringType)
	}
	for _, tb := range r.Tiebreakers {
		if !tb.IsValid() {
			return fmt.Errorf("unknown tiebreaker %q", tb)
		}
	}
	return nil
}
