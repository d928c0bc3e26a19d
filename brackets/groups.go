package brackets

import (
	"encoding/hex"
	"fmt"
	"math/rand"
	"strconv"
	"strings"

	"golang.org/x/crypto/blake2b"
)

// GroupSizes splits participantCount across groupCount groups. The remainder is
// handed out one per group starting from group 0, so sizes differ by at most one.
func GroupSizes(participantCount, groupCount int) ([]int, error) {
	if groupCount < 1 {
		return nil, fmt.Errorf("%w: group count must be positive, got %d", ErrInvalidGroupConfiguration, groupCount)
	}
	if participantCount < 2*groupCount {
		return nil, fmt.Errorf("%w: %d participants cannot fill %d groups with at least 2 each",
			ErrInvalidGroupConfiguration, participantCount, groupCount)
	}
	base := participantCount / groupCount
	remainder := participantCount % groupCount

	sizes := make([]int, groupCount)
	for i := range sizes {
		sizes[i] = base
		if i < remainder {
			sizes[i]++
		}
	}
	return sizes, nil
}

func totalCapacity(capacities []int) int {
	total := 0
	for _, c := range capacities {
		total += c
	}
	return total
}

// DrawRandom shuffles participants with a generator seeded by seed and fills the
// groups in order, each up to its capacity. The same seed always yields the same
// draw.
func DrawRandom(participants []int, capacities []int, seed int64) ([][]int, error) {
	if len(participants) > totalCapacity(capacities) {
		return nil, fmt.Errorf("%w: %d participants, capacity %d", ErrCapacityExceeded, len(participants), totalCapacity(capacities))
	}

	shuffled := make([]int, len(participants))
	copy(shuffled, participants)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	groups := make([][]int, len(capacities))
	g := 0
	for _, pid := range shuffled {
		for len(groups[g]) >= capacities[g] {
			g++
		}
		groups[g] = append(groups[g], pid)
	}
	return groups, nil
}

// DrawSnake places participants ordered by seed (strongest first) in a snake:
// forward across the groups on even rounds, backwards on odd rounds. A full
// group is skipped in the current direction.
//
// 8 participants into 2 groups: A = {1,4,5,8}, B = {2,3,6,7}.
func DrawSnake(seeded []int, capacities []int) ([][]int, error) {
	if len(seeded) > totalCapacity(capacities) {
		return nil, fmt.Errorf("%w: %d participants, capacity %d", ErrCapacityExceeded, len(seeded), totalCapacity(capacities))
	}
	groupCount := len(capacities)
	groups := make([][]int, groupCount)

	position := 0
	next := func() int {
		round := position / groupCount
		offset := position % groupCount
		position++
		if round%2 == 1 {
			return groupCount - 1 - offset
		}
		return offset
	}

	for _, pid := range seeded {
		g := next()
		for len(groups[g]) >= capacities[g] {
			g = next()
		}
		groups[g] = append(groups[g], pid)
	}
	return groups, nil
}

// DrawManual validates an explicit participant -> group index map. Every
// participant must be assigned exactly once and no group may overflow. Members
// keep the order of the participants slice.
func DrawManual(participants []int, assignment map[int]int, capacities []int) ([][]int, error) {
	if len(assignment) != len(participants) {
		return nil, fmt.Errorf("%w: %d participants, %d assignments", ErrIncompleteAssignment, len(participants), len(assignment))
	}
	groups := make([][]int, len(capacities))
	for _, pid := range participants {
		g, ok := assignment[pid]
		if !ok {
			return nil, fmt.Errorf("%w: participant %d is not assigned", ErrIncompleteAssignment, pid)
		}
		if g < 0 || g >= len(capacities) {
			return nil, fmt.Errorf("%w: participant %d assigned to unknown group index %d", ErrIncompleteAssignment, pid, g)
		}
		if len(groups[g]) >= capacities[g] {
			return nil, fmt.Errorf("%w: group index %d is full (capacity %d)", ErrCapacityExceeded, g, capacities[g])
		}
		groups[g] = append(groups[g], pid)
	}
	return groups, nil
}

// DrawHash fingerprints a draw so it can be audited and reproduced later.
func DrawHash(strategy string, seed int64, groups [][]int) string {
	var b strings.Builder
	b.WriteString(strategy)
	b.WriteByte('|')
	b.WriteString(strconv.FormatInt(seed, 10))
	for i, members := range groups {
		b.WriteString("|g")
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(':')
		for j, pid := range members {
			if j > 0 {
				b.WriteByte(',')
			}
			b.WriteString(strconv.Itoa(pid))
		}
	}
	sum := blake2b.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
