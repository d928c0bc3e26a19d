package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-stages/models"
)

func intp(v int) *int { return &v }

func seedTournament(t *testing.T, store *MemoryStore) *models.Tournament {
	t.Helper()
	tournament := &models.Tournament{Name: "Cup", GameSlug: "football"}
	require.NoError(t, store.Tournaments().Create(context.Background(), tournament))
	return tournament
}

func TestMemoryStoreRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tournament := seedTournament(t, store)

	boom := errors.New("boom")
	err := store.RunInTx(ctx, func(tx Repositories) error {
		stage := &models.Stage{TournamentID: tournament.ID, Name: "Groups", Order: 1, Format: models.StageRoundRobin}
		require.NoError(t, tx.Stages().Create(ctx, stage))
		require.NoError(t, tx.Tournaments().UpdateProgress(ctx, tournament.ID, models.StatusActive, &stage.ID))
		return boom
	})
	assert.ErrorIs(t, err, boom)

	stages, err := store.Stages().ListByTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Empty(t, stages)

	reloaded, err := store.Tournaments().GetByID(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, reloaded.Status)
	assert.Nil(t, reloaded.CurrentStageID)
}

func TestMemoryStoreCommits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tournament := seedTournament(t, store)

	err := store.RunInTx(ctx, func(tx Repositories) error {
		return tx.Stages().Create(ctx, &models.Stage{TournamentID: tournament.ID, Name: "Groups", Order: 1, Format: models.StageRoundRobin})
	})
	require.NoError(t, err)

	stage, err := store.Stages().GetByOrder(ctx, tournament.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, models.StagePending, stage.State)

	err = store.Stages().Create(ctx, &models.Stage{TournamentID: tournament.ID, Name: "Again", Order: 1, Format: models.StageSwiss})
	assert.ErrorIs(t, err, ErrStageOrderConflict)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tournament := seedTournament(t, store)

	m := &models.Match{TournamentID: tournament.ID, P1ParticipantID: intp(1), P2ParticipantID: intp(2)}
	require.NoError(t, store.Matches().Create(ctx, m))

	loaded, err := store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	*loaded.P1ParticipantID = 99
	loaded.State = models.MatchLive

	again, err := store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, *again.P1ParticipantID)
	assert.Equal(t, models.MatchScheduled, again.State)

	require.NoError(t, store.Matches().Update(ctx, loaded))
	again, err = store.Matches().GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Version)
	assert.Equal(t, models.MatchLive, again.State)
}

func TestMemoryStoreIdempotencyAndDisputes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tournament := seedTournament(t, store)
	m := &models.Match{TournamentID: tournament.ID}
	require.NoError(t, store.Matches().Create(ctx, m))

	rec := &models.IdempotencyRecord{MatchID: m.ID, Operation: "start", Key: "k1"}
	require.NoError(t, store.Idempotency().Record(ctx, rec))
	assert.ErrorIs(t, store.Idempotency().Record(ctx, rec), ErrIdempotencyKeyRecorded)

	found, err := store.Idempotency().Exists(ctx, m.ID, "start", "k1")
	require.NoError(t, err)
	assert.True(t, found)
	found, err = store.Idempotency().Exists(ctx, m.ID, "cancel", "k1")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Disputes().Create(ctx, &models.Dispute{MatchID: m.ID, Reason: "score", PreviousState: models.MatchCompleted}))
	err = store.Disputes().Create(ctx, &models.Dispute{MatchID: m.ID, Reason: "again", PreviousState: models.MatchCompleted})
	assert.ErrorIs(t, err, ErrOpenDisputeExists)
}

func TestMemoryStoreStandingsUniquePerStage(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	tournament := seedTournament(t, store)
	p := &models.Participant{TournamentID: tournament.ID, UserID: intp(7), Status: models.ParticipantConfirmed}
	require.NoError(t, store.Participants().Create(ctx, p))
	stage := &models.Stage{TournamentID: tournament.ID, Name: "Groups", Order: 1, Format: models.StageRoundRobin}
	require.NoError(t, store.Stages().Create(ctx, stage))
	a := &models.Group{StageID: stage.ID, TournamentID: tournament.ID, Name: "Group A", Capacity: 2}
	b := &models.Group{StageID: stage.ID, TournamentID: tournament.ID, Name: "Group B", DisplayOrder: 1, Capacity: 2}
	require.NoError(t, store.Groups().Create(ctx, a))
	require.NoError(t, store.Groups().Create(ctx, b))

	require.NoError(t, store.Standings().CreateBatch(ctx, []*models.Standing{{GroupID: a.ID, StageID: stage.ID, ParticipantID: p.ID, UserID: p.UserID}}))
	err := store.Standings().CreateBatch(ctx, []*models.Standing{{GroupID: b.ID, StageID: stage.ID, ParticipantID: p.ID, UserID: p.UserID}})
	assert.ErrorIs(t, err, ErrStandingConflict)

	err = store.Standings().CreateBatch(ctx, []*models.Standing{{GroupID: b.ID, StageID: stage.ID, ParticipantID: p.ID}})
	assert.ErrorIs(t, err, models.ErrStandingOwnerInvalid)
}
