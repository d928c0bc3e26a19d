package brackets

import (
	"context"
	"fmt"
	"sort"
)

type node struct {
	participantID    *int
	sourceMatchUID   *string
	isByePlaceholder bool
}

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// SeedOrder returns the standard bracket line-up for a power-of-two size:
// 1 v size, then the halves mirrored so seeds 1 and 2 can only meet in the final.
// For size 8 it is [1 8 4 5 2 7 3 6].
func SeedOrder(size int) []int {
	order := []int{1}
	for len(order) < size {
		sum := 2*len(order) + 1
		next := make([]int, 0, 2*len(order))
		for _, seed := range order {
			next = append(next, seed, sum-seed)
		}
		order = next
	}
	return order
}

func nextPowerOfTwo(n int) int {
	size := 1
	for size < n {
		size <<= 1
	}
	return size
}

// GenerateBracket builds every round of a seeded single elimination bracket.
// Participants must be ordered by seed. Missing seeds become byes, which always
// fall to the top seeds; a bye match is returned with IsBye set and its
// participant is placed straight into the round 2 slot.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	participants := params.Participants
	n := len(participants)
	if n < 2 {
		return nil, fmt.Errorf("%w: single elimination needs at least 2, found %d", ErrNotEnoughParticipants, n)
	}

	sizeOfFullBracket := nextPowerOfTwo(n)
	numRounds := 0
	for (1 << numRounds) < sizeOfFullBracket {
		numRounds++
	}

	currentRoundNodes := make([]*node, sizeOfFullBracket)
	for i, seed := range SeedOrder(sizeOfFullBracket) {
		if seed > n {
			currentRoundNodes[i] = &node{isByePlaceholder: true}
			continue
		}
		pid := participants[seed-1]
		currentRoundNodes[i] = &node{participantID: &pid}
	}

	allGeneratedMatches := make([]*BracketMatch, 0, sizeOfFullBracket-1)

	for r := 1; r <= numRounds; r++ {
		nextRoundNodes := make([]*node, 0, len(currentRoundNodes)/2)

		for i := 0; i < len(currentRoundNodes); i += 2 {
			node1 := currentRoundNodes[i]
			node2 := currentRoundNodes[i+1]
			order := i/2 + 1
			currentMatchUID := fmt.Sprintf("%sR%dM%d", params.UIDPrefix, r, order)

			bm := &BracketMatch{
				UID:          currentMatchUID,
				Round:        r,
				OrderInRound: order,
			}

			switch {
			case node1.participantID != nil && node2.isByePlaceholder:
				bm.IsBye = true
				bm.ByeParticipantID = node1.participantID
				bm.Participant1ID = node1.participantID
				nextRoundNodes = append(nextRoundNodes, &node{participantID: node1.participantID})
			case node2.participantID != nil && node1.isByePlaceholder:
				bm.IsBye = true
				bm.ByeParticipantID = node2.participantID
				bm.Participant1ID = node2.participantID
				nextRoundNodes = append(nextRoundNodes, &node{participantID: node2.participantID})
			case node1.isByePlaceholder && node2.isByePlaceholder:
				return nil, fmt.Errorf("internal error: two byes met in round %d, match %d", r, order)
			default:
				if node1.participantID != nil {
					bm.Participant1ID = node1.participantID
				} else {
					bm.SourceMatch1UID = node1.sourceMatchUID
					bm.IsPlaceholder = true
				}
				if node2.participantID != nil {
					bm.Participant2ID = node2.participantID
				} else {
					bm.SourceMatch2UID = node2.sourceMatchUID
					bm.IsPlaceholder = true
				}
				uid := currentMatchUID
				nextRoundNodes = append(nextRoundNodes, &node{sourceMatchUID: &uid})
			}

			allGeneratedMatches = append(allGeneratedMatches, bm)
		}
		currentRoundNodes = nextRoundNodes
	}

	if len(currentRoundNodes) != 1 {
		return nil, fmt.Errorf("internal error: bracket did not converge to a final (%d nodes left)", len(currentRoundNodes))
	}

	sort.Slice(allGeneratedMatches, func(i, j int) bool {
		if allGeneratedMatches[i].Round != allGeneratedMatches[j].Round {
			return allGeneratedMatches[i].Round < allGeneratedMatches[j].Round
		}
		return allGeneratedMatches[i].OrderInRound < allGeneratedMatches[j].OrderInRound
	})

	return allGeneratedMatches, nil
}
