package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-stages/brackets"
	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/models"
)

func TestConfigureGroupsRejectsBadConfiguration(t *testing.T) {
	f := newFixture(t, "default", 5)
	stages := f.createStages(StageSpec{Format: models.StageRoundRobin, Settings: &models.StageSettings{GroupCount: 1, AdvancementPerGroup: 1}})
	stageID := stages[0].ID

	cases := []GroupSettings{
		{GroupCount: 3, AdvancementCount: 1},
		{GroupCount: 0, AdvancementCount: 1},
		{GroupCount: 2, AdvancementCount: 3},
		{GroupCount: 1, AdvancementCount: 1, Tiebreakers: []models.Tiebreaker{"coin_flip"}},
		{GroupCount: 1, AdvancementCount: 1, Points: &models.PointsSystem{Win: -1}},
	}
	for i, gs := range cases {
		t.Run(fmt.Sprint(i), func(t *testing.T) {
			_, err := f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{StageID: stageID, GroupSettings: gs})
			assert.ErrorIs(t, err, ErrInvalidConfiguration)
		})
	}

	groups, err := f.store.Groups().ListByStage(f.ctx, stageID)
	require.NoError(t, err)
	assert.Empty(t, groups, "rejected configurations must not write anything")
}

func TestConfigureGroupsCreatesNamedBalancedGroups(t *testing.T) {
	f := newFixture(t, "default", 7)
	f.createStages(groupStageSpec(2, 2))

	groups, err := f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{
		GroupSettings: GroupSettings{GroupCount: 2, AdvancementCount: 3, Points: &models.PointsSystem{Win: 2, Draw: 1}},
	})
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Group A", groups[0].Name)
	assert.Equal(t, "Group B", groups[1].Name)
	assert.Equal(t, 4, groups[0].Capacity)
	assert.Equal(t, 3, groups[1].Capacity)
	assert.Equal(t, models.PointsSystem{Win: 2, Draw: 1}, groups[0].Points)

	// reconfiguring before the draw replaces the groups
	groups, err = f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{
		GroupSettings: GroupSettings{GroupCount: 3, AdvancementCount: 1},
	})
	require.NoError(t, err)
	assert.Len(t, groups, 3)
	stored, err := f.store.Groups().ListByStage(f.ctx, groups[0].StageID)
	require.NoError(t, err)
	assert.Len(t, stored, 3)
	assert.Contains(t, f.recorder.Types(), events.GroupsConfigured)
}

func TestDrawGroupsSnake(t *testing.T) {
	f := newFixture(t, "default", 8)
	stage := f.createStages(groupStageSpec(2, 2))[0]
	_, err := f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{GroupSettings: GroupSettings{GroupCount: 2, AdvancementCount: 2}})
	require.NoError(t, err)

	result, err := f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawSeeded})
	require.NoError(t, err)
	assert.Equal(t, stage.ID, result.StageID)
	assert.Len(t, result.Hash, 64)
	require.Len(t, result.Standings, 8)

	groups, err := f.store.Groups().ListByStage(f.ctx, stage.ID)
	require.NoError(t, err)
	want := [][]int{{1, 4, 5, 8}, {2, 3, 6, 7}}
	for i, g := range groups {
		rows, err := f.store.Standings().ListByGroup(f.ctx, g.ID)
		require.NoError(t, err)
		assert.Equal(t, want[i], standingIDs(rows), g.Name)
		assert.True(t, g.IsFinalized)
		assert.Equal(t, 4, g.CurrentParticipantCount)
		require.NotNil(t, g.DrawHash)
		assert.Equal(t, result.Hash, *g.DrawHash)
		for _, row := range rows {
			assert.NotNil(t, row.UserID)
			assert.Nil(t, row.TeamID)
		}
	}

	_, err = f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawSeeded})
	assert.ErrorIs(t, err, ErrGroupsFinalized)
	_, err = f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{GroupSettings: GroupSettings{GroupCount: 2, AdvancementCount: 2}})
	assert.ErrorIs(t, err, ErrGroupsFinalized)
}

func TestDrawGroupsRandomIsBalancedAndReproducible(t *testing.T) {
	for g := 1; g <= 4; g++ {
		for p := 2 * g; p <= 2*g+7; p++ {
			f := newFixture(t, "default", p)
			f.createStages(groupStageSpec(g, 1))
			_, err := f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{GroupSettings: GroupSettings{GroupCount: g, AdvancementCount: 1}})
			require.NoError(t, err)

			seed := int64(p*31 + g)
			result, err := f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawRandom, Seed: &seed})
			require.NoError(t, err)
			assert.Equal(t, seed, result.Seed)

			sizes := map[int]int{}
			for _, row := range result.Standings {
				sizes[row.GroupID]++
			}
			require.Len(t, sizes, g)
			lo, hi, total := p, 0, 0
			for _, n := range sizes {
				lo, hi, total = min(lo, n), max(hi, n), total+n
			}
			assert.LessOrEqual(t, hi-lo, 1, "g=%d p=%d", g, p)
			assert.Equal(t, p, total)

			// the stored seed reproduces the draw
			members := make([][]int, len(result.Groups))
			for i, grp := range result.Groups {
				rows, err := f.store.Standings().ListByGroup(f.ctx, grp.ID)
				require.NoError(t, err)
				members[i] = standingIDs(rows)
			}
			pool := make([]int, p)
			capacities := make([]int, len(result.Groups))
			for i := range pool {
				pool[i] = i + 1
			}
			for i, grp := range result.Groups {
				capacities[i] = grp.Capacity
			}
			again, err := brackets.DrawRandom(pool, capacities, *result.Groups[0].DrawSeed)
			require.NoError(t, err)
			assert.Equal(t, again, members)
		}
	}
}

func TestDrawGroupsManual(t *testing.T) {
	f := newFixture(t, "default", 4)
	f.createStages(groupStageSpec(2, 1))
	_, err := f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{GroupSettings: GroupSettings{GroupCount: 2, AdvancementCount: 1}})
	require.NoError(t, err)

	_, err = f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawManual, Assignment: map[int]int{1: 0, 2: 0, 3: 0}})
	assert.ErrorIs(t, err, ErrInvalidConfiguration)

	result, err := f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawManual, Assignment: map[int]int{1: 1, 2: 0, 3: 0, 4: 1}})
	require.NoError(t, err)
	byGroup := map[int][]int{}
	for _, row := range result.Standings {
		byGroup[row.GroupID] = append(byGroup[row.GroupID], row.ParticipantID)
	}
	assert.Equal(t, []int{2, 3}, byGroup[result.Groups[0].ID])
	assert.Equal(t, []int{1, 4}, byGroup[result.Groups[1].ID])
}

func TestDrawGroupsWithoutGroups(t *testing.T) {
	f := newFixture(t, "default", 4)
	f.createStages(groupStageSpec(2, 1))

	_, err := f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawSeeded})
	assert.ErrorIs(t, err, ErrNoGroupsConfigured)

	other := newFixture(t, "default", 4)
	_, err = other.groups.DrawGroups(other.ctx, other.tournament.ID, DrawParams{Strategy: models.DrawSeeded})
	assert.ErrorIs(t, err, ErrNoGroupsConfigured)
}

func TestGenerateGroupMatches(t *testing.T) {
	f := newFixture(t, "default", 7)
	stage := f.createStages(groupStageSpec(2, 1))[0]
	_, err := f.stages.StartStage(f.ctx, stage.ID)
	require.NoError(t, err)
	_, err = f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{GroupSettings: GroupSettings{GroupCount: 2, AdvancementCount: 1}})
	require.NoError(t, err)

	_, err = f.groups.GenerateGroupMatches(f.ctx, stage.ID)
	assert.ErrorIs(t, err, ErrNoParticipants, "groups must be drawn first")

	_, err = f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawSeeded})
	require.NoError(t, err)

	count, err := f.groups.GenerateGroupMatches(f.ctx, stage.ID)
	require.NoError(t, err)
	assert.Equal(t, 4*3/2+3*2/2, count)

	groups, err := f.store.Groups().ListByStage(f.ctx, stage.ID)
	require.NoError(t, err)
	pairings := func() map[int][]brackets.PairKey {
		out := map[int][]brackets.PairKey{}
		for _, g := range groups {
			rows, err := f.store.Standings().ListByGroup(f.ctx, g.ID)
			require.NoError(t, err)
			members := map[int]bool{}
			for _, r := range rows {
				members[r.ParticipantID] = true
			}
			matches, err := f.store.Matches().ListByGroup(f.ctx, g.ID)
			require.NoError(t, err)
			n := len(rows)
			require.Len(t, matches, n*(n-1)/2)
			seen := map[brackets.PairKey]bool{}
			for _, m := range matches {
				assert.True(t, members[*m.P1ParticipantID] && members[*m.P2ParticipantID], "no cross-group pairs")
				key := brackets.NewPairKey(*m.P1ParticipantID, *m.P2ParticipantID)
				assert.False(t, seen[key], "duplicate pair %v", key)
				seen[key] = true
				out[g.ID] = append(out[g.ID], key)
			}
		}
		return out
	}
	first := pairings()

	again, err := f.groups.GenerateGroupMatches(f.ctx, stage.ID)
	require.NoError(t, err)
	assert.Equal(t, count, again)
	assert.Equal(t, first, pairings(), "regeneration before play yields identical pairings")

	f.start(f.stageMatches(stage.ID)[0].ID)
	_, err = f.groups.GenerateGroupMatches(f.ctx, stage.ID)
	assert.ErrorIs(t, err, ErrMatchesAlreadyPlayed)
}

func TestDrawGroupsFollowsRosterChanges(t *testing.T) {
	tests := []struct {
		name       string
		players    int
		groups     int
		registered int // added through the roster service before configuring
		withdrawn  int // withdrawn upstream after configuring
		joined     int // confirmed upstream after configuring
		wantErr    bool
	}{
		{name: "withdrawals leave 14 for 4 groups", players: 16, groups: 4, withdrawn: 2},
		{name: "late entries make 17 for 4 groups", players: 14, groups: 4, joined: 3},
		{name: "registered then withdrawn", players: 7, groups: 2, registered: 2, withdrawn: 1},
		{name: "one more than two per group", players: 8, groups: 3, joined: 1},
		{name: "roster too small after withdrawal", players: 6, groups: 3, withdrawn: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, "default", tt.players)
			roster := NewTournamentService(f.store, f.rules, f.logger)
			confirmed := models.ParticipantConfirmed
			for i := 0; i < tt.registered; i++ {
				p, err := roster.RegisterParticipant(f.ctx, f.tournament.ID, RegisterParticipantInput{UserID: intPtr(500 + i), Status: &confirmed})
				require.NoError(t, err)
				f.participants = append(f.participants, p)
			}

			f.createStages(groupStageSpec(tt.groups, 1))
			_, err := f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{GroupSettings: GroupSettings{GroupCount: tt.groups, AdvancementCount: 1}})
			require.NoError(t, err)

			// the roster service is closed once groups exist
			withdrawn := models.ParticipantWithdrawn
			_, err = roster.UpdateParticipant(f.ctx, f.participants[0].ID, UpdateParticipantInput{Status: &withdrawn})
			require.ErrorIs(t, err, ErrInvalidStageState)
			_, err = roster.RegisterParticipant(f.ctx, f.tournament.ID, RegisterParticipantInput{UserID: intPtr(900)})
			require.ErrorIs(t, err, ErrInvalidStageState)

			// the owning platform can still change the roster directly
			gone := map[int]bool{}
			for _, p := range f.participants[len(f.participants)-tt.withdrawn:] {
				p.Status = models.ParticipantWithdrawn
				require.NoError(t, f.store.Participants().Update(f.ctx, p))
				gone[p.ID] = true
			}
			for i := 0; i < tt.joined; i++ {
				require.NoError(t, f.store.Participants().Create(f.ctx, &models.Participant{
					TournamentID: f.tournament.ID,
					UserID:       intPtr(700 + i),
					Status:       models.ParticipantConfirmed,
				}))
			}
			pool := tt.players + tt.registered - tt.withdrawn + tt.joined

			seed := int64(pool)
			result, err := f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawRandom, Seed: &seed})
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidConfiguration)
				return
			}
			require.NoError(t, err)

			require.Len(t, result.Groups, tt.groups)
			lo, hi, total := pool, 0, 0
			for _, g := range result.Groups {
				rows, err := f.store.Standings().ListByGroup(f.ctx, g.ID)
				require.NoError(t, err)
				assert.Len(t, rows, g.Capacity, g.Name)
				assert.True(t, g.IsFull(), g.Name)
				for _, row := range rows {
					assert.False(t, gone[row.ParticipantID], "withdrawn participant %d was drawn", row.ParticipantID)
				}
				lo, hi, total = min(lo, len(rows)), max(hi, len(rows)), total+len(rows)
			}
			assert.LessOrEqual(t, hi-lo, 1)
			assert.Equal(t, pool, total)
			assert.Len(t, result.Standings, pool)
		})
	}
}
