// Package rulesets resolves a game slug to the scoring rules the engine is
// handed. The catalog is loaded once at startup and passed around explicitly.
package rulesets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Dosada05/tournament-stages/models"
)

var ErrUnknownGame = errors.New("no rule-set configured for game")

type Resolver interface {
	Resolve(gameSlug string) (models.RuleSet, error)
}

// Catalog maps game slugs to rule-sets. A "default" entry, when present, serves
// any slug without its own entry.
type Catalog struct {
	rules map[string]models.RuleSet
}

const defaultSlug = "default"

func builtin() map[string]models.RuleSet {
	return map[string]models.RuleSet{
		defaultSlug: {ScoringType: models.ScoringScore, AllowDraws: false, Points: models.PointsSystem{Win: 3, Draw: 1, Loss: 0}},
		"football":  {ScoringType: models.ScoringGoals, AllowDraws: true, Points: models.PointsSystem{Win: 3, Draw: 1, Loss: 0}},
		"cs2":       {ScoringType: models.ScoringRounds, Points: models.PointsSystem{Win: 3, Loss: 0}},
		"valorant":  {ScoringType: models.ScoringRounds, Points: models.PointsSystem{Win: 3, Loss: 0}},
		"pubg":      {ScoringType: models.ScoringPlacement, Points: models.PointsSystem{Win: 1, Loss: 0}},
		"dota2":     {ScoringType: models.ScoringKDA, Points: models.PointsSystem{Win: 3, Loss: 0}},
		"chess":     {ScoringType: models.ScoringScore, AllowDraws: true, Points: models.PointsSystem{Win: 2, Draw: 1, Loss: 0}},
	}
}

// Defaults returns the built-in catalog.
func Defaults() *Catalog {
	c := &Catalog{rules: builtin()}
	for slug, rs := range c.rules {
		rs.GameSlug = slug
		if len(rs.Tiebreakers) == 0 {
			rs.Tiebreakers = models.DefaultTiebreakers
		}
		c.rules[slug] = rs
	}
	return c
}

type catalogFile struct {
	Games map[string]models.RuleSet `mapstructure:"games"`
}

// Load reads a YAML (or any viper supported) catalog file and overlays it on the
// built-in defaults. An empty path returns the defaults.
func Load(path string) (*Catalog, error) {
	c := Defaults()
	if path == "" {
		return c, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("reading rule-set catalog %s: %w", path, err)
	}
	var file catalogFile
	if err := v.Unmarshal(&file); err != nil {
		return nil, fmt.Errorf("decoding rule-set catalog %s: %w", path, err)
	}

	for slug, rs := range file.Games {
		slug = strings.ToLower(slug)
		rs.GameSlug = slug
		if len(rs.Tiebreakers) == 0 {
			rs.Tiebreakers = models.DefaultTiebreakers
		}
		if rs.Points == (models.PointsSystem{}) {
			rs.Points = models.DefaultPoints
		}
		if err := rs.Validate(); err != nil {
			return nil, fmt.Errorf("rule-set %q: %w", slug, err)
		}
		c.rules[slug] = rs
	}
	return c, nil
}

func (c *Catalog) Resolve(gameSlug string) (models.RuleSet, error) {
	slug := strings.ToLower(gameSlug)
	if rs, ok := c.rules[slug]; ok {
		return rs, nil
	}
	if rs, ok := c.rules[defaultSlug]; ok {
		rs.GameSlug = slug
		return rs, nil
	}
	return models.RuleSet{}, fmt.Errorf("%w: %q", ErrUnknownGame, gameSlug)
}
