// Package standings folds completed matches into ranked standings. It is pure:
// callers load the group's standings and matches, pass the scoring rules in and
// persist what comes back.
package standings

import (
	"sort"

	"github.com/Dosada05/tournament-stages/models"
)

// Config carries everything a recompute needs besides the rows themselves.
type Config struct {
	ScoringType      models.ScoringType
	Points           models.PointsSystem
	Tiebreakers      []models.Tiebreaker
	AdvancementCount int

	// MatchesPerParticipant is how many matches make a finished schedule for one
	// participant. Zero means a full round robin (members - 1).
	MatchesPerParticipant int
	// Open is set while more matches will still be generated for the group
	// (pending Swiss rounds). It disables the "every match is terminal" shortcut
	// for elimination flags.
	Open bool
}

// ConfigFor merges group level settings over the rule-set defaults. A group
// points system left at zero and an empty tiebreaker chain fall back to the
// rule-set, then to the package defaults.
func ConfigFor(group *models.Group, rules models.RuleSet) Config {
	cfg := Config{
		ScoringType:      rules.ScoringType,
		Points:           rules.Points,
		Tiebreakers:      rules.Tiebreakers,
		AdvancementCount: group.AdvancementCount,
	}
	if group.Points != (models.PointsSystem{}) {
		cfg.Points = group.Points
	}
	if cfg.Points == (models.PointsSystem{}) {
		cfg.Points = models.DefaultPoints
	}
	if len(group.Tiebreakers) > 0 {
		cfg.Tiebreakers = group.Tiebreakers
	}
	if len(cfg.Tiebreakers) == 0 {
		cfg.Tiebreakers = models.DefaultTiebreakers
	}
	return cfg
}

// Recompute resets the given standings and folds every completed match into
// them, then ranks and flags them. Standings are ranked from draw order, so the
// result does not depend on the order of the input slices. Matches of other
// groups or with participants outside the standings are ignored.
func Recompute(rows []*models.Standing, matches []*models.Match, cfg Config) ([]*models.Standing, error) {
	fam, err := familyFor(cfg.ScoringType)
	if err != nil {
		return nil, err
	}

	ordered := make([]*models.Standing, len(rows))
	copy(ordered, rows)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DrawPosition != ordered[j].DrawPosition {
			return ordered[i].DrawPosition < ordered[j].DrawPosition
		}
		return ordered[i].ParticipantID < ordered[j].ParticipantID
	})

	byParticipant := make(map[int]*models.Standing, len(ordered))
	for _, s := range ordered {
		s.ResetCounters()
		byParticipant[s.ParticipantID] = s
	}

	allTerminal := len(matches) > 0
	for _, m := range matches {
		if !m.State.IsTerminal() {
			allTerminal = false
		}
		if m.State != models.MatchCompleted {
			continue
		}
		fold(byParticipant, m, fam, cfg.Points)
	}

	ranked := rank(ordered, matches, cfg.Tiebreakers, fam, cfg.Points)
	flag(ranked, cfg, allTerminal && !cfg.Open)
	return ranked, nil
}

func fold(byParticipant map[int]*models.Standing, m *models.Match, fam family, points models.PointsSystem) {
	if m.P1ParticipantID == nil {
		return
	}
	p1 := byParticipant[*m.P1ParticipantID]

	// a completed match with an empty second slot is a bye: a win, no counters
	if m.P2ParticipantID == nil {
		if p1 != nil {
			p1.MatchesPlayed++
			p1.Wins++
			p1.Points += points.Win
		}
		return
	}
	p2 := byParticipant[*m.P2ParticipantID]
	if p1 == nil || p2 == nil {
		return
	}

	p1.MatchesPlayed++
	p2.MatchesPlayed++
	fam.credit(&p1.Counters, m.P1Score, m.P2Score, m.P1Stats, m.P2Stats)
	fam.credit(&p2.Counters, m.P2Score, m.P1Score, m.P2Stats, m.P1Stats)

	switch outcomeFor(m) {
	case 0:
		p1.Draws++
		p2.Draws++
		p1.Points += points.Draw
		p2.Points += points.Draw
	case 1:
		p1.Wins++
		p2.Losses++
		p1.Points += points.Win
		p2.Points += points.Loss
	case 2:
		p2.Wins++
		p1.Losses++
		p2.Points += points.Win
		p1.Points += points.Loss
	}
}

// outcomeFor returns 1 or 2 for the winning slot and 0 for a draw. The recorded
// winner wins over the raw scores, which matters after a score override.
func outcomeFor(m *models.Match) int {
	if m.IsDraw {
		return 0
	}
	if m.WinnerID != nil {
		if *m.WinnerID == *m.P1ParticipantID {
			return 1
		}
		return 2
	}
	switch {
	case m.P1Score > m.P2Score:
		return 1
	case m.P2Score > m.P1Score:
		return 2
	}
	return 0
}

func flag(ranked []*models.Standing, cfg Config, scheduleDone bool) {
	perParticipant := cfg.MatchesPerParticipant
	if perParticipant == 0 {
		perParticipant = len(ranked) - 1
	}
	for i, s := range ranked {
		r := i + 1
		s.Rank = &r
		s.IsAdvancing = r <= cfg.AdvancementCount
		finished := scheduleDone || (perParticipant > 0 && s.MatchesPlayed >= perParticipant)
		s.IsEliminated = !s.IsAdvancing && finished
	}
}
