package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundRobinPairCount(t *testing.T) {
	gen := NewRoundRobinGenerator()
	for n := 2; n <= 9; n++ {
		matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Participants: ids(n), UIDPrefix: "G1_"})
		require.NoError(t, err)
		assert.Len(t, matches, n*(n-1)/2)

		seen := map[PairKey]bool{}
		for _, m := range matches {
			require.NotNil(t, m.Participant1ID)
			require.NotNil(t, m.Participant2ID)
			assert.NotEqual(t, *m.Participant1ID, *m.Participant2ID)
			key := NewPairKey(*m.Participant1ID, *m.Participant2ID)
			assert.False(t, seen[key], "duplicate pairing %v", key)
			seen[key] = true
		}
	}
}

func TestRoundRobinOrderFollowsListOrder(t *testing.T) {
	matches, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Participants: []int{7, 3, 9}})
	require.NoError(t, err)
	require.Len(t, matches, 3)

	got := make([][2]int, 0, len(matches))
	for _, m := range matches {
		got = append(got, [2]int{*m.Participant1ID, *m.Participant2ID})
	}
	assert.Equal(t, [][2]int{{7, 3}, {7, 9}, {3, 9}}, got)
}

func TestRoundRobinRoundsNeverDoubleBook(t *testing.T) {
	matches, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Participants: ids(6)})
	require.NoError(t, err)

	busy := map[int]map[int]bool{}
	for _, m := range matches {
		if busy[m.Round] == nil {
			busy[m.Round] = map[int]bool{}
		}
		for _, pid := range []int{*m.Participant1ID, *m.Participant2ID} {
			assert.False(t, busy[m.Round][pid], "participant %d plays twice in round %d", pid, m.Round)
			busy[m.Round][pid] = true
		}
	}
	assert.Len(t, busy, 5)
}

func TestRoundRobinNeedsTwo(t *testing.T) {
	_, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Participants: ids(1)})
	assert.ErrorIs(t, err, ErrNotEnoughParticipants)
}

func TestSeedOrder(t *testing.T) {
	assert.Equal(t, []int{1, 2}, SeedOrder(2))
	assert.Equal(t, []int{1, 4, 2, 3}, SeedOrder(4))
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, SeedOrder(8))
}

func TestSingleEliminationEightSeeds(t *testing.T) {
	seeds := []int{101, 102, 103, 104, 105, 106, 107, 108}
	matches, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Participants: seeds, UIDPrefix: "S2_"})
	require.NoError(t, err)
	require.Len(t, matches, 7)

	first := matches[0]
	assert.Equal(t, "S2_R1M1", first.UID)
	assert.Equal(t, 101, *first.Participant1ID)
	assert.Equal(t, 108, *first.Participant2ID)

	second := matches[1]
	assert.Equal(t, 104, *second.Participant1ID)
	assert.Equal(t, 105, *second.Participant2ID)

	final := matches[6]
	assert.Equal(t, 3, final.Round)
	assert.True(t, final.IsPlaceholder)
	require.NotNil(t, final.SourceMatch1UID)
	require.NotNil(t, final.SourceMatch2UID)
	assert.Equal(t, "S2_R2M1", *final.SourceMatch1UID)
	assert.Equal(t, "S2_R2M2", *final.SourceMatch2UID)
}

func TestSingleEliminationByesGoToTopSeeds(t *testing.T) {
	matches, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Participants: ids(6)})
	require.NoError(t, err)

	var byes []int
	var round2 []*BracketMatch
	for _, m := range matches {
		if m.IsBye {
			byes = append(byes, *m.ByeParticipantID)
		}
		if m.Round == 2 {
			round2 = append(round2, m)
		}
	}
	assert.ElementsMatch(t, []int{1, 2}, byes)

	require.Len(t, round2, 2)
	require.NotNil(t, round2[0].Participant1ID)
	assert.Equal(t, 1, *round2[0].Participant1ID)
	require.NotNil(t, round2[0].SourceMatch2UID)
	assert.Equal(t, "R1M2", *round2[0].SourceMatch2UID)
}

func TestSwissFirstRoundTopHalfAgainstBottomHalf(t *testing.T) {
	gen := NewSwissGenerator(1, nil, nil)
	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Participants: ids(8)})
	require.NoError(t, err)
	require.Len(t, matches, 4)
	assert.Equal(t, 1, *matches[0].Participant1ID)
	assert.Equal(t, 5, *matches[0].Participant2ID)
	assert.Equal(t, 4, *matches[3].Participant1ID)
	assert.Equal(t, 8, *matches[3].Participant2ID)
}

func TestSwissAvoidsRematchesAndRotatesByes(t *testing.T) {
	played := map[PairKey]bool{NewPairKey(1, 2): true}
	gen := NewSwissGenerator(2, played, map[int]bool{5: true})
	matches, err := gen.GenerateBracket(context.Background(), GenerateBracketParams{Participants: ids(5)})
	require.NoError(t, err)

	var bye *BracketMatch
	for _, m := range matches {
		if m.IsBye {
			bye = m
			continue
		}
		assert.False(t, played[NewPairKey(*m.Participant1ID, *m.Participant2ID)])
	}
	require.NotNil(t, bye)
	assert.Equal(t, 4, *bye.ByeParticipantID)
	assert.Equal(t, 1, *matches[0].Participant1ID)
	assert.Equal(t, 3, *matches[0].Participant2ID)
}
