package standings

import (
	"errors"
	"fmt"

	"github.com/Dosada05/tournament-stages/models"
)

var ErrUnknownScoringType = errors.New("unknown scoring type")

// family is the closed set of counter families. The unexported method keeps
// implementations inside this package, so the switch in familyFor is exhaustive.
type family interface {
	// credit folds one side of a completed match into c.
	credit(c *models.StandingCounters, own, opp int, ownStats, oppStats *models.SideStats)
	differential(c models.StandingCounters) int
	scoreFor(c models.StandingCounters) int
	sealed()
}

type goalsFamily struct{}

func (goalsFamily) credit(c *models.StandingCounters, own, opp int, _, _ *models.SideStats) {
	c.GoalsFor += own
	c.GoalsAgainst += opp
}
func (goalsFamily) differential(c models.StandingCounters) int { return c.GoalsFor - c.GoalsAgainst }
func (goalsFamily) scoreFor(c models.StandingCounters) int     { return c.GoalsFor }
func (goalsFamily) sealed()                                    {}

// roundsFamily tracks rounds won/lost plus kills. Without per-side stats the
// reported score is taken as rounds won.
type roundsFamily struct{}

func (roundsFamily) credit(c *models.StandingCounters, own, opp int, ownStats, oppStats *models.SideStats) {
	won, lost := own, opp
	if ownStats != nil && oppStats != nil && (ownStats.Rounds > 0 || oppStats.Rounds > 0) {
		won, lost = ownStats.Rounds, oppStats.Rounds
	}
	c.RoundsWon += won
	c.RoundsLost += lost
	if ownStats != nil {
		c.Kills += ownStats.Kills
	}
}
func (roundsFamily) differential(c models.StandingCounters) int { return c.RoundsWon - c.RoundsLost }
func (roundsFamily) scoreFor(c models.StandingCounters) int     { return c.RoundsWon }
func (roundsFamily) sealed()                                    {}

// placementFamily: the reported score is the placement points earned.
type placementFamily struct{}

func (placementFamily) credit(c *models.StandingCounters, own, _ int, ownStats, _ *models.SideStats) {
	c.PlacementPoints += own
	if ownStats != nil {
		c.Kills += ownStats.Kills
	}
}
func (placementFamily) differential(c models.StandingCounters) int { return c.PlacementPoints }
func (placementFamily) scoreFor(c models.StandingCounters) int     { return c.Kills }
func (placementFamily) sealed()                                    {}

type kdaFamily struct{}

func (kdaFamily) credit(c *models.StandingCounters, own, opp int, ownStats, _ *models.SideStats) {
	if ownStats == nil {
		c.Kills += own
		c.Deaths += opp
		return
	}
	c.Kills += ownStats.Kills
	c.Deaths += ownStats.Deaths
	c.Assists += ownStats.Assists
}
func (kdaFamily) differential(c models.StandingCounters) int { return c.Kills - c.Deaths }
func (kdaFamily) scoreFor(c models.StandingCounters) int     { return c.Kills }
func (kdaFamily) sealed()                                    {}

type scoreFamily struct{}

func (scoreFamily) credit(c *models.StandingCounters, own, opp int, _, _ *models.SideStats) {
	c.ScoreFor += own
	c.ScoreAgainst += opp
}
func (scoreFamily) differential(c models.StandingCounters) int { return c.ScoreFor - c.ScoreAgainst }
func (scoreFamily) scoreFor(c models.StandingCounters) int     { return c.ScoreFor }
func (scoreFamily) sealed()                                    {}

func familyFor(t models.ScoringType) (family, error) {
	switch t {
	case models.ScoringGoals:
		return goalsFamily{}, nil
	case models.ScoringRounds:
		return roundsFamily{}, nil
	case models.ScoringPlacement:
		return placementFamily{}, nil
	case models.ScoringKDA:
		return kdaFamily{}, nil
	case models.ScoringScore:
		return scoreFamily{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScoringType, t)
}
