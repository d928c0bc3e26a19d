package brackets

import (
	"context"
	"fmt"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket pairs every member of one group with every other member
// exactly once: n*(n-1)/2 matches, enumerated in list order (i < j).
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	participants := params.Participants
	if len(participants) < 2 {
		return nil, fmt.Errorf("%w: round robin needs at least 2, found %d", ErrNotEnoughParticipants, len(participants))
	}

	rounds := circleRounds(len(participants))
	matches := make([]*BracketMatch, 0, len(participants)*(len(participants)-1)/2)
	matchOrder := 0

	for i := 0; i < len(participants); i++ {
		for j := i + 1; j < len(participants); j++ {
			p1ID := participants[i]
			p2ID := participants[j]

			matchOrder++
			matches = append(matches, &BracketMatch{
				UID:            fmt.Sprintf("%sRR%d_P%dvP%d", params.UIDPrefix, matchOrder, p1ID, p2ID),
				Round:          rounds[[2]int{i, j}],
				OrderInRound:   matchOrder,
				Participant1ID: &p1ID,
				Participant2ID: &p2ID,
			})
		}
	}

	return matches, nil
}

// circleRounds assigns each index pair (i < j) a play day using the circle
// method, so nobody plays twice in the same round. A phantom slot gives the
// odd member out a rest.
func circleRounds(n int) map[[2]int]int {
	slots := make([]int, n)
	for i := range slots {
		slots[i] = i
	}
	if n%2 != 0 {
		slots = append(slots, -1)
	}
	size := len(slots)
	result := make(map[[2]int]int, n*(n-1)/2)

	for round := 1; round < size; round++ {
		for k := 0; k < size/2; k++ {
			a, b := slots[k], slots[size-1-k]
			if a < 0 || b < 0 {
				continue
			}
			if a > b {
				a, b = b, a
			}
			result[[2]int{a, b}] = round
		}
		// keep slot 0 fixed and rotate the rest clockwise
		last := slots[size-1]
		copy(slots[2:], slots[1:size-1])
		slots[1] = last
	}
	return result
}
