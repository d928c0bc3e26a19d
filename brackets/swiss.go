package brackets

import (
	"context"
	"fmt"
)

// PairKey identifies an unordered pairing.
type PairKey [2]int

func NewPairKey(a, b int) PairKey {
	if a > b {
		a, b = b, a
	}
	return PairKey{a, b}
}

// SwissGenerator pairs one Swiss round. Round 1 sets the top half of the seed
// list against the bottom half; later rounds walk the current ranking and pair
// each participant with the next one it has not met yet.
type SwissGenerator struct {
	Round  int
	Played map[PairKey]bool
	HadBye map[int]bool
}

func NewSwissGenerator(round int, played map[PairKey]bool, hadBye map[int]bool) *SwissGenerator {
	if played == nil {
		played = map[PairKey]bool{}
	}
	if hadBye == nil {
		hadBye = map[int]bool{}
	}
	return &SwissGenerator{Round: round, Played: played, HadBye: hadBye}
}

func (g *SwissGenerator) GetName() string {
	return "Swiss"
}

// GenerateBracket expects participants ordered by seed for round 1 and by the
// current ranking afterwards. An odd participant out gets a bye match.
func (g *SwissGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	ranked := make([]int, len(params.Participants))
	copy(ranked, params.Participants)
	if len(ranked) < 2 {
		return nil, fmt.Errorf("%w: swiss needs at least 2, found %d", ErrNotEnoughParticipants, len(ranked))
	}

	var byeID *int
	if len(ranked)%2 != 0 {
		idx := len(ranked) - 1
		for i := len(ranked) - 1; i >= 0; i-- {
			if !g.HadBye[ranked[i]] {
				idx = i
				break
			}
		}
		id := ranked[idx]
		byeID = &id
		ranked = append(ranked[:idx], ranked[idx+1:]...)
	}

	var pairs [][2]int
	if g.Round <= 1 {
		half := len(ranked) / 2
		for i := 0; i < half; i++ {
			pairs = append(pairs, [2]int{ranked[i], ranked[i+half]})
		}
	} else {
		pairs = g.pairByRanking(ranked)
	}

	matches := make([]*BracketMatch, 0, len(pairs)+1)
	for i, pair := range pairs {
		p1, p2 := pair[0], pair[1]
		matches = append(matches, &BracketMatch{
			UID:            fmt.Sprintf("%sSW%dM%d", params.UIDPrefix, g.Round, i+1),
			Round:          g.Round,
			OrderInRound:   i + 1,
			Participant1ID: &p1,
			Participant2ID: &p2,
		})
	}
	if byeID != nil {
		matches = append(matches, &BracketMatch{
			UID:              fmt.Sprintf("%sSW%dBYE", params.UIDPrefix, g.Round),
			Round:            g.Round,
			OrderInRound:     len(pairs) + 1,
			Participant1ID:   byeID,
			IsBye:            true,
			ByeParticipantID: byeID,
		})
	}
	return matches, nil
}

func (g *SwissGenerator) pairByRanking(ranked []int) [][2]int {
	paired := make(map[int]bool, len(ranked))
	pairs := make([][2]int, 0, len(ranked)/2)

	for i, a := range ranked {
		if paired[a] {
			continue
		}
		opponent := -1
		fallback := -1
		for j := i + 1; j < len(ranked); j++ {
			b := ranked[j]
			if paired[b] {
				continue
			}
			if fallback < 0 {
				fallback = j
			}
			if !g.Played[NewPairKey(a, b)] {
				opponent = j
				break
			}
		}
		// everyone left has already met a; a rematch beats leaving a unpaired
		if opponent < 0 {
			opponent = fallback
		}
		if opponent < 0 {
			continue
		}
		b := ranked[opponent]
		paired[a] = true
		paired[b] = true
		pairs = append(pairs, [2]int{a, b})
	}
	return pairs
}
