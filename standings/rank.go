package standings

import (
	"sort"

	"github.com/Dosada05/tournament-stages/models"
)

// Rank orders standings by the tiebreaker chain without refolding matches. It
// is used to pool standings of several groups; the input order is the final
// fallback.
func Rank(rows []*models.Standing, matches []*models.Match, chain []models.Tiebreaker, scoring models.ScoringType, points models.PointsSystem) ([]*models.Standing, error) {
	fam, err := familyFor(scoring)
	if err != nil {
		return nil, err
	}
	ordered := make([]*models.Standing, len(rows))
	copy(ordered, rows)
	return rank(ordered, matches, chain, fam, points), nil
}

// rank applies the chain criterion by criterion to blocks of still tied
// standings. Each criterion only reorders inside a block, so anything left tied
// after the chain keeps its input order.
func rank(ordered []*models.Standing, matches []*models.Match, chain []models.Tiebreaker, fam family, points models.PointsSystem) []*models.Standing {
	blocks := [][]*models.Standing{ordered}

	for _, tb := range chain {
		next := make([][]*models.Standing, 0, len(blocks))
		for _, block := range blocks {
			if len(block) < 2 {
				next = append(next, block)
				continue
			}
			if tb == models.TiebreakHeadToHead {
				next = append(next, headToHead(block, matches, points)...)
				continue
			}
			key := keyFor(tb, fam)
			if key == nil {
				next = append(next, block)
				continue
			}
			next = append(next, splitBy(block, key)...)
		}
		blocks = next
	}

	out := make([]*models.Standing, 0, len(ordered))
	for _, block := range blocks {
		out = append(out, block...)
	}
	return out
}

func keyFor(tb models.Tiebreaker, fam family) func(*models.Standing) int {
	switch tb {
	case models.TiebreakPoints:
		return func(s *models.Standing) int { return s.Points }
	case models.TiebreakWins:
		return func(s *models.Standing) int { return s.Wins }
	case models.TiebreakDifferential:
		return func(s *models.Standing) int { return fam.differential(s.Counters) }
	case models.TiebreakScoreFor:
		return func(s *models.Standing) int { return fam.scoreFor(s.Counters) }
	}
	return nil
}

// splitBy sorts a block by key descending and cuts it into runs of equal keys.
func splitBy(block []*models.Standing, key func(*models.Standing) int) [][]*models.Standing {
	sorted := make([]*models.Standing, len(block))
	copy(sorted, block)
	sort.SliceStable(sorted, func(i, j int) bool { return key(sorted[i]) > key(sorted[j]) })

	var out [][]*models.Standing
	start := 0
	for i := 1; i <= len(sorted); i++ {
		if i == len(sorted) || key(sorted[i]) != key(sorted[start]) {
			out = append(out, sorted[start:i])
			start = i
		}
	}
	return out
}

// headToHead only decides a tie between exactly two participants: points taken
// from their mutual completed matches, then the score difference in those
// matches. Larger ties and undecided pairs are left as they are.
func headToHead(block []*models.Standing, matches []*models.Match, points models.PointsSystem) [][]*models.Standing {
	if len(block) != 2 {
		return [][]*models.Standing{block}
	}
	a, b := block[0].ParticipantID, block[1].ParticipantID

	var aPts, bPts, aDiff int
	for _, m := range matches {
		if m.State != models.MatchCompleted || m.P1ParticipantID == nil || m.P2ParticipantID == nil {
			continue
		}
		p1, p2 := *m.P1ParticipantID, *m.P2ParticipantID
		if !(p1 == a && p2 == b) && !(p1 == b && p2 == a) {
			continue
		}
		aIsP1 := p1 == a
		switch outcomeFor(m) {
		case 0:
			aPts += points.Draw
			bPts += points.Draw
		case 1:
			if aIsP1 {
				aPts += points.Win
				bPts += points.Loss
			} else {
				bPts += points.Win
				aPts += points.Loss
			}
		case 2:
			if aIsP1 {
				bPts += points.Win
				aPts += points.Loss
			} else {
				aPts += points.Win
				bPts += points.Loss
			}
		}
		if aIsP1 {
			aDiff += m.P1Score - m.P2Score
		} else {
			aDiff += m.P2Score - m.P1Score
		}
	}

	switch {
	case aPts > bPts, aPts == bPts && aDiff > 0:
		return [][]*models.Standing{{block[0]}, {block[1]}}
	case bPts > aPts, aPts == bPts && aDiff < 0:
		return [][]*models.Standing{{block[1]}, {block[0]}}
	}
	return [][]*models.Standing{block}
}
