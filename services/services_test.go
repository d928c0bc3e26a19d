package services

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
	"github.com/Dosada05/tournament-stages/rulesets"
)

var staff = models.Actor{UserID: 1, Role: models.RoleOrganizer}

type fixture struct {
	t            *testing.T
	ctx          context.Context
	store        *repositories.MemoryStore
	recorder     *events.Recorder
	logger       *slog.Logger
	rules        rulesets.Resolver
	stages       StageService
	groups       GroupService
	matches      MatchService
	standings    StandingsService
	tournament   *models.Tournament
	participants []*models.Participant
}

// newFixture seeds a tournament for game with n confirmed participants. Seeds
// follow creation order, so participant id i has seed i.
func newFixture(t *testing.T, game string, n int) *fixture {
	t.Helper()
	f := &fixture{
		t:        t,
		ctx:      context.Background(),
		store:    repositories.NewMemoryStore(),
		recorder: &events.Recorder{},
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		rules:    rulesets.Defaults(),
	}
	f.stages = NewStageService(f.store, f.rules, f.recorder, f.logger)
	f.groups = NewGroupService(f.store, f.recorder, f.logger)
	f.matches = NewMatchService(f.store, f.rules, f.recorder, f.logger, 0)
	f.standings = NewStandingsService(f.store, f.rules, f.recorder, nil, f.logger)

	f.tournament = &models.Tournament{
		Name:              "Spring Cup",
		GameSlug:          game,
		Format:            models.FormatGroupPlayoff,
		ParticipationMode: models.ParticipationIndividual,
	}
	require.NoError(t, f.store.Tournaments().Create(f.ctx, f.tournament))
	for i := 1; i <= n; i++ {
		p := &models.Participant{
			TournamentID: f.tournament.ID,
			UserID:       intPtr(100 + i),
			Seed:         intPtr(i),
			Status:       models.ParticipantConfirmed,
		}
		require.NoError(t, f.store.Participants().Create(f.ctx, p))
		f.participants = append(f.participants, p)
	}
	return f
}

func (f *fixture) player(participantID int) models.Actor {
	return models.Actor{UserID: 1000 + participantID, Role: models.RolePlayer, ParticipantIDs: []int{participantID}}
}

func (f *fixture) createStages(specs ...StageSpec) []*models.Stage {
	f.t.Helper()
	stages, err := f.stages.CreateStages(f.ctx, f.tournament.ID, specs)
	require.NoError(f.t, err)
	return stages
}

func groupStageSpec(groups, advance int) StageSpec {
	return StageSpec{
		Name:        "Groups",
		Format:      models.StageRoundRobin,
		Advancement: models.AdvancementPolicy{Type: models.AdvanceTopNPerGroup, Count: advance},
		Settings:    &models.StageSettings{GroupCount: groups, AdvancementPerGroup: advance},
	}
}

func playoffSpec() StageSpec {
	return StageSpec{
		Name:        "Playoffs",
		Format:      models.StageSingleElimination,
		Advancement: models.AdvancementPolicy{Type: models.AdvanceTopNOverall, Count: 1},
	}
}

// setupGroups starts stage, then configures, draws (snake) and schedules its
// groups.
func (f *fixture) setupGroups(stage *models.Stage, gs GroupSettings) []*models.Match {
	f.t.Helper()
	_, err := f.stages.StartStage(f.ctx, stage.ID)
	require.NoError(f.t, err)
	_, err = f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{StageID: stage.ID, GroupSettings: gs})
	require.NoError(f.t, err)
	_, err = f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{StageID: stage.ID, Strategy: models.DrawSeeded})
	require.NoError(f.t, err)
	_, err = f.groups.GenerateGroupMatches(f.ctx, stage.ID)
	require.NoError(f.t, err)
	return f.stageMatches(stage.ID)
}

func (f *fixture) stageMatches(stageID int) []*models.Match {
	f.t.Helper()
	matches, err := f.store.Matches().ListByStage(f.ctx, stageID)
	require.NoError(f.t, err)
	return matches
}

func (f *fixture) match(id int) *models.Match {
	f.t.Helper()
	m, err := f.store.Matches().GetByID(f.ctx, id)
	require.NoError(f.t, err)
	return m
}

func (f *fixture) start(matchID int) {
	f.t.Helper()
	_, err := f.matches.Start(f.ctx, staff, matchID, "")
	require.NoError(f.t, err)
}

func (f *fixture) submit(matchID, p1, p2 int) {
	f.t.Helper()
	m := f.match(matchID)
	_, err := f.matches.SubmitResult(f.ctx, f.player(*m.P1ParticipantID), matchID, "", SubmitResultInput{P1Score: p1, P2Score: p2})
	require.NoError(f.t, err)
}

// play takes a scheduled match through start, submit and confirm.
func (f *fixture) play(matchID, p1, p2 int) *models.Match {
	f.t.Helper()
	f.start(matchID)
	f.submit(matchID, p1, p2)
	res, err := f.matches.ConfirmResult(f.ctx, staff, matchID, "")
	require.NoError(f.t, err)
	return res.Match
}

// favouriteWins plays m so the stronger seed (lower id) wins 2-0.
func (f *fixture) favouriteWins(m *models.Match) *models.Match {
	f.t.Helper()
	if *m.P1ParticipantID < *m.P2ParticipantID {
		return f.play(m.ID, 2, 0)
	}
	return f.play(m.ID, 0, 2)
}

func standingIDs(rows []*models.Standing) []int {
	out := make([]int, len(rows))
	for i, r := range rows {
		out[i] = r.ParticipantID
	}
	return out
}
