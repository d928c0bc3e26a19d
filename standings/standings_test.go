package standings

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-stages/models"
)

func intp(v int) *int { return &v }

func row(groupID, participantID, drawPosition int) *models.Standing {
	return &models.Standing{GroupID: groupID, ParticipantID: participantID, UserID: intp(participantID * 10), DrawPosition: drawPosition}
}

func played(groupID, p1, p2, s1, s2 int) *models.Match {
	m := &models.Match{
		GroupID:         intp(groupID),
		P1ParticipantID: intp(p1),
		P2ParticipantID: intp(p2),
		State:           models.MatchCompleted,
		P1Score:         s1,
		P2Score:         s2,
	}
	switch {
	case s1 > s2:
		m.WinnerID, m.LoserID = intp(p1), intp(p2)
	case s2 > s1:
		m.WinnerID, m.LoserID = intp(p2), intp(p1)
	default:
		m.IsDraw = true
	}
	return m
}

func participantOrder(rows []*models.Standing) []int {
	out := make([]int, len(rows))
	for i, s := range rows {
		out[i] = s.ParticipantID
	}
	return out
}

func goalsConfig(advance int) Config {
	return Config{
		ScoringType:      models.ScoringGoals,
		Points:           models.PointsSystem{Win: 3, Draw: 1, Loss: 0},
		Tiebreakers:      models.DefaultTiebreakers,
		AdvancementCount: advance,
	}
}

func TestRecomputeThreeWayRoundRobin(t *testing.T) {
	const a, b, c = 1, 2, 3
	rows := []*models.Standing{row(1, c, 2), row(1, a, 0), row(1, b, 1)}
	matches := []*models.Match{
		played(1, a, b, 2, 0),
		played(1, a, c, 1, 0),
		played(1, b, c, 3, 1),
	}
	cfg := goalsConfig(1)
	cfg.Points = models.PointsSystem{Win: 3, Loss: 0}

	ranked, err := Recompute(rows, matches, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{a, b, c}, participantOrder(ranked))
	assert.Equal(t, 6, ranked[0].Points)
	assert.Equal(t, 3, ranked[1].Points)
	assert.Equal(t, 0, ranked[2].Points)

	assert.Equal(t, 1, *ranked[0].Rank)
	assert.True(t, ranked[0].IsAdvancing)
	assert.False(t, ranked[0].IsEliminated)
	assert.True(t, ranked[1].IsEliminated)
	assert.True(t, ranked[2].IsEliminated)

	assert.Equal(t, 3, ranked[0].Counters.GoalsFor)
	assert.Equal(t, 0, ranked[0].Counters.GoalsAgainst)
	assert.Equal(t, 2, ranked[1].MatchesPlayed)
}

func TestRecomputeIsIdempotent(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(1, 3, 2), row(1, 4, 3)}
	matches := []*models.Match{
		played(1, 1, 2, 1, 1),
		played(1, 3, 4, 0, 2),
		played(1, 1, 3, 4, 2),
	}
	group := &models.Group{ID: 1, Name: "Group A"}

	first, err := Recompute(rows, matches, goalsConfig(2))
	require.NoError(t, err)
	firstExport, err := BuildExport(9, []*models.Group{group}, first, models.ScoringGoals)
	require.NoError(t, err)
	firstJSON, err := json.Marshal(firstExport)
	require.NoError(t, err)

	second, err := Recompute(rows, matches, goalsConfig(2))
	require.NoError(t, err)
	secondExport, err := BuildExport(9, []*models.Group{group}, second, models.ScoringGoals)
	require.NoError(t, err)
	secondJSON, err := json.Marshal(secondExport)
	require.NoError(t, err)

	assert.Equal(t, string(firstJSON), string(secondJSON))
}

func TestRecomputeIgnoresMatchOrder(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(1, 3, 2)}
	forward := []*models.Match{played(1, 1, 2, 2, 1), played(1, 2, 3, 2, 2), played(1, 3, 1, 0, 1)}
	backward := []*models.Match{forward[2], forward[1], forward[0]}

	first, err := Recompute(rows, forward, goalsConfig(1))
	require.NoError(t, err)
	firstOrder := participantOrder(first)
	firstPoints := []int{first[0].Points, first[1].Points, first[2].Points}

	second, err := Recompute(rows, backward, goalsConfig(1))
	require.NoError(t, err)
	assert.Equal(t, firstOrder, participantOrder(second))
	assert.Equal(t, firstPoints, []int{second[0].Points, second[1].Points, second[2].Points})
}

func TestRecomputeSkipsUnfinishedMatches(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1)}
	live := played(1, 1, 2, 5, 0)
	live.State = models.MatchPendingResult

	ranked, err := Recompute(rows, []*models.Match{live}, goalsConfig(1))
	require.NoError(t, err)
	for _, s := range ranked {
		assert.Zero(t, s.MatchesPlayed)
		assert.Zero(t, s.Points)
		assert.False(t, s.IsEliminated, "group still in progress")
	}
}

func TestStableFallbackKeepsDrawOrder(t *testing.T) {
	rows := []*models.Standing{row(1, 7, 1), row(1, 5, 0), row(1, 9, 2)}
	ranked, err := Recompute(rows, nil, goalsConfig(1))
	require.NoError(t, err)
	assert.Equal(t, []int{5, 7, 9}, participantOrder(ranked))
}

func TestHeadToHeadBreaksTwoWayTie(t *testing.T) {
	// 1 and 2 finish level on points and wins; 2 won the mutual match.
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(1, 3, 2), row(1, 4, 3)}
	matches := []*models.Match{
		played(1, 1, 2, 0, 1),
		played(1, 1, 3, 5, 0),
		played(1, 2, 3, 0, 1),
		played(1, 1, 4, 1, 0),
		played(1, 2, 4, 1, 0),
		played(1, 3, 4, 0, 1),
	}
	cfg := goalsConfig(2)

	ranked, err := Recompute(rows, matches, cfg)
	require.NoError(t, err)
	assert.Equal(t, 2, ranked[0].ParticipantID)
	assert.Equal(t, 1, ranked[1].ParticipantID)

	// without head to head the goal differential puts 1 on top
	cfg.Tiebreakers = []models.Tiebreaker{models.TiebreakPoints, models.TiebreakWins, models.TiebreakDifferential}
	ranked, err = Recompute(rows, matches, cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, ranked[0].ParticipantID)
}

func TestHeadToHeadIsNoOpForThreeWayTie(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(1, 3, 2)}
	matches := []*models.Match{
		played(1, 1, 2, 1, 0),
		played(1, 2, 3, 1, 0),
		played(1, 3, 1, 1, 0),
	}
	cfg := goalsConfig(1)
	cfg.Tiebreakers = []models.Tiebreaker{models.TiebreakPoints, models.TiebreakHeadToHead}

	ranked, err := Recompute(rows, matches, cfg)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, participantOrder(ranked))
}

func TestDrawsAndDifferential(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(1, 3, 2)}
	matches := []*models.Match{
		played(1, 1, 2, 2, 2),
		played(1, 1, 3, 3, 0),
		played(1, 2, 3, 1, 0),
	}
	ranked, err := Recompute(rows, matches, goalsConfig(2))
	require.NoError(t, err)

	require.Equal(t, []int{1, 2, 3}, participantOrder(ranked))
	assert.Equal(t, 4, ranked[0].Points)
	assert.Equal(t, 1, ranked[0].Draws)
	assert.Equal(t, 4, ranked[1].Points)
	assert.True(t, ranked[1].IsAdvancing)
	assert.True(t, ranked[2].IsEliminated)
}

func TestEliminatedOnlyOnceScheduleIsDone(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(1, 3, 2), row(1, 4, 3)}
	matches := []*models.Match{
		played(1, 1, 2, 1, 0),
		played(1, 3, 4, 1, 0),
		{GroupID: intp(1), P1ParticipantID: intp(1), P2ParticipantID: intp(3), State: models.MatchScheduled},
	}
	ranked, err := Recompute(rows, matches, goalsConfig(2))
	require.NoError(t, err)
	for _, s := range ranked {
		assert.False(t, s.IsEliminated, "participant %d has matches left", s.ParticipantID)
	}
}

func TestOpenScheduleKeepsEveryoneAlive(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(1, 3, 2), row(1, 4, 3)}
	matches := []*models.Match{played(1, 1, 4, 1, 0), played(1, 2, 3, 1, 0)}
	cfg := goalsConfig(2)
	cfg.MatchesPerParticipant = 3
	cfg.Open = true

	ranked, err := Recompute(rows, matches, cfg)
	require.NoError(t, err)
	for _, s := range ranked {
		assert.False(t, s.IsEliminated)
	}

	cfg.Open = false
	ranked, err = Recompute(rows, matches, cfg)
	require.NoError(t, err)
	assert.True(t, ranked[3].IsEliminated)
}

func TestByeCountsAsWin(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(1, 3, 2)}
	bye := &models.Match{GroupID: intp(1), P1ParticipantID: intp(3), State: models.MatchCompleted, WinnerID: intp(3)}
	ranked, err := Recompute(rows, []*models.Match{played(1, 1, 2, 1, 0), bye}, goalsConfig(1))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 3, 2}, participantOrder(ranked))
	assert.Equal(t, 1, ranked[1].Wins)
	assert.Zero(t, ranked[1].Counters.GoalsFor)
}

func TestScoringFamilies(t *testing.T) {
	rows := func() []*models.Standing { return []*models.Standing{row(1, 1, 0), row(1, 2, 1)} }

	rounds := played(1, 1, 2, 2, 1)
	rounds.P1Stats = &models.SideStats{Rounds: 13, Kills: 70}
	rounds.P2Stats = &models.SideStats{Rounds: 9, Kills: 55}
	cfg := goalsConfig(1)
	cfg.ScoringType = models.ScoringRounds
	ranked, err := Recompute(rows(), []*models.Match{rounds}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 13, ranked[0].Counters.RoundsWon)
	assert.Equal(t, 9, ranked[0].Counters.RoundsLost)
	assert.Equal(t, 70, ranked[0].Counters.Kills)
	assert.Zero(t, ranked[0].Counters.GoalsFor)

	kda := played(1, 1, 2, 1, 0)
	kda.P1Stats = &models.SideStats{Kills: 20, Deaths: 5, Assists: 7}
	kda.P2Stats = &models.SideStats{Kills: 5, Deaths: 20, Assists: 2}
	cfg.ScoringType = models.ScoringKDA
	ranked, err = Recompute(rows(), []*models.Match{kda}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 7, ranked[0].Counters.Assists)
	assert.Equal(t, 20, ranked[1].Counters.Deaths)

	placement := played(1, 1, 2, 12, 4)
	placement.P2Stats = &models.SideStats{Kills: 9}
	cfg.ScoringType = models.ScoringPlacement
	ranked, err = Recompute(rows(), []*models.Match{placement}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 12, ranked[0].Counters.PlacementPoints)
	assert.Equal(t, 9, ranked[1].Counters.Kills)

	cfg.ScoringType = models.ScoringScore
	ranked, err = Recompute(rows(), []*models.Match{played(1, 1, 2, 100, 80)}, cfg)
	require.NoError(t, err)
	assert.Equal(t, 80, ranked[1].Counters.ScoreFor)
	assert.Equal(t, 100, ranked[1].Counters.ScoreAgainst)
}

func TestUnknownScoringTypeRejected(t *testing.T) {
	cfg := goalsConfig(1)
	cfg.ScoringType = "elo"
	_, err := Recompute([]*models.Standing{row(1, 1, 0)}, nil, cfg)
	assert.ErrorIs(t, err, ErrUnknownScoringType)
}

func TestRankPoolsGroupsByChain(t *testing.T) {
	a := &models.Standing{GroupID: 1, ParticipantID: 1, Points: 6, Wins: 2}
	b := &models.Standing{GroupID: 2, ParticipantID: 2, Points: 9, Wins: 3}
	c := &models.Standing{GroupID: 3, ParticipantID: 3, Points: 6, Wins: 2, Counters: models.StandingCounters{GoalsFor: 4, GoalsAgainst: 1}}

	pooled, err := Rank([]*models.Standing{a, b, c}, nil, models.DefaultTiebreakers, models.ScoringGoals, models.DefaultPoints)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3, 1}, participantOrder(pooled))
}

func TestConfigForFallsBackToRuleSet(t *testing.T) {
	rules := models.RuleSet{ScoringType: models.ScoringRounds, Points: models.PointsSystem{Win: 2}}
	cfg := ConfigFor(&models.Group{AdvancementCount: 2}, rules)
	assert.Equal(t, models.PointsSystem{Win: 2}, cfg.Points)
	assert.Equal(t, models.DefaultTiebreakers, cfg.Tiebreakers)
	assert.Equal(t, 2, cfg.AdvancementCount)

	group := &models.Group{Points: models.PointsSystem{Win: 3, Draw: 1}, Tiebreakers: []models.Tiebreaker{models.TiebreakWins}}
	cfg = ConfigFor(group, rules)
	assert.Equal(t, 3, cfg.Points.Win)
	assert.Equal(t, []models.Tiebreaker{models.TiebreakWins}, cfg.Tiebreakers)
}

func TestExportShape(t *testing.T) {
	rows := []*models.Standing{row(1, 1, 0), row(1, 2, 1), row(2, 3, 0), row(2, 4, 1)}
	matches := []*models.Match{played(1, 1, 2, 0, 2), played(2, 3, 4, 1, 0)}
	first, err := Recompute(rows[:2], matches, goalsConfig(1))
	require.NoError(t, err)
	second, err := Recompute(rows[2:], matches, goalsConfig(1))
	require.NoError(t, err)

	groups := []*models.Group{{ID: 2, Name: "Group B", DisplayOrder: 1}, {ID: 1, Name: "Group A", DisplayOrder: 0}}
	export, err := BuildExport(3, groups, append(first, second...), models.ScoringGoals)
	require.NoError(t, err)

	require.Len(t, export.Groups, 2)
	assert.Equal(t, "Group A", export.Groups[0].Name)
	top := export.Groups[0].Entries[0]
	assert.Equal(t, 2, top.ParticipantID)
	assert.Equal(t, 1, top.Rank)
	assert.Equal(t, TiebreakerSnapshot{Points: 3, Wins: 1, Differential: 2, For: 2}, top.Tiebreakers)

	raw, err := json.Marshal(top)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"points":3`)
	assert.Contains(t, string(raw), `"for":2`)
}
