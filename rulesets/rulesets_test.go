package rulesets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-stages/models"
)

func writeCatalog(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rulesets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestDefaults(t *testing.T) {
	rs, err := Defaults().Resolve("Football")
	require.NoError(t, err)
	assert.Equal(t, models.ScoringGoals, rs.ScoringType)
	assert.True(t, rs.AllowDraws)
	assert.Equal(t, models.DefaultTiebreakers, rs.Tiebreakers)

	rs, err = Defaults().Resolve("unknown-game")
	require.NoError(t, err)
	assert.Equal(t, models.ScoringScore, rs.ScoringType)
	assert.Equal(t, "unknown-game", rs.GameSlug)
}

func TestLoadOverlaysFile(t *testing.T) {
	path := writeCatalog(t, `
games:
  rocket-league:
    scoring_type: goals
    allow_draws: false
    points:
      win: 2
      loss: 0
    tiebreakers: [points, differential]
  football:
    scoring_type: goals
    allow_draws: true
    points:
      win: 3
      draw: 1
`)
	c, err := Load(path)
	require.NoError(t, err)

	rs, err := c.Resolve("rocket-league")
	require.NoError(t, err)
	assert.Equal(t, models.PointsSystem{Win: 2}, rs.Points)
	assert.Equal(t, []models.Tiebreaker{models.TiebreakPoints, models.TiebreakDifferential}, rs.Tiebreakers)
	assert.False(t, rs.AllowDraws)

	rs, err = c.Resolve("cs2")
	require.NoError(t, err)
	assert.Equal(t, models.ScoringRounds, rs.ScoringType)
}

func TestLoadRejectsUnknownScoringType(t *testing.T) {
	path := writeCatalog(t, `
games:
  tetris:
    scoring_type: lines
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tetris")
}

func TestResolveWithoutDefault(t *testing.T) {
	c := &Catalog{rules: map[string]models.RuleSet{}}
	_, err := c.Resolve("chess")
	assert.ErrorIs(t, err, ErrUnknownGame)
}
