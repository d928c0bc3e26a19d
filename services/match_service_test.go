package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/models"
)

// groupMatch returns a fixture with one drawn and scheduled group of n and the
// first match of that group.
func groupMatch(t *testing.T, game string, n int) (*fixture, *models.Match) {
	t.Helper()
	f := newFixture(t, game, n)
	stage := f.createStages(groupStageSpec(1, 1))[0]
	matches := f.setupGroups(stage, GroupSettings{GroupCount: 1, AdvancementCount: 1})
	require.NotEmpty(t, matches)
	return f, matches[0]
}

// bracket returns a fixture whose only stage is an active 4 player bracket:
// round 1 pairs (1,4) and (2,3).
func bracket(t *testing.T) (*fixture, []*models.Match) {
	t.Helper()
	f := newFixture(t, "football", 4)
	stage := f.createStages(playoffSpec())[0]
	_, err := f.stages.StartStage(f.ctx, stage.ID)
	require.NoError(t, err)
	matches := f.stageMatches(stage.ID)
	require.Len(t, matches, 3)
	return f, matches
}

func rowFor(t *testing.T, f *fixture, groupID, participantID int) *models.Standing {
	t.Helper()
	rows, err := f.store.Standings().ListByGroup(f.ctx, groupID)
	require.NoError(t, err)
	for _, r := range rows {
		if r.ParticipantID == participantID {
			return r
		}
	}
	t.Fatalf("participant %d has no standing in group %d", participantID, groupID)
	return nil
}

func TestMatchLifecycle(t *testing.T) {
	f, m := groupMatch(t, "default", 4)
	p1, p2 := *m.P1ParticipantID, *m.P2ParticipantID

	res, err := f.matches.Start(f.ctx, staff, m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MatchLive, res.Match.State)
	assert.NotNil(t, res.Match.StartedAt)

	res, err = f.matches.SubmitResult(f.ctx, f.player(p2), m.ID, "", SubmitResultInput{P1Score: 1, P2Score: 3})
	require.NoError(t, err)
	assert.Equal(t, models.MatchPendingResult, res.Match.State)
	require.NotNil(t, res.Match.ReportedBy)
	assert.Equal(t, p2, *res.Match.ReportedBy)

	res, err = f.matches.ConfirmResult(f.ctx, staff, m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, res.Match.State)
	assert.Equal(t, p2, *res.Match.WinnerID)
	assert.Equal(t, p1, *res.Match.LoserID)
	assert.NotNil(t, res.Match.CompletedAt)

	winner := rowFor(t, f, *m.GroupID, p2)
	assert.Equal(t, 3, winner.Points)
	assert.Equal(t, 1, winner.Wins)
	loser := rowFor(t, f, *m.GroupID, p1)
	assert.Equal(t, 0, loser.Points)
	assert.Equal(t, 1, loser.Losses)

	assert.Contains(t, f.recorder.Types(), events.StandingsUpdated)
}

func TestMatchTransitionsOutsideTheTable(t *testing.T) {
	f, m := groupMatch(t, "default", 4)

	_, err := f.matches.ConfirmResult(f.ctx, staff, m.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	_, err = f.matches.SubmitResult(f.ctx, f.player(*m.P1ParticipantID), m.ID, "", SubmitResultInput{P1Score: 1})
	assert.ErrorIs(t, err, ErrInvalidTransition)

	f.play(m.ID, 2, 1)
	_, err = f.matches.ConfirmResult(f.ctx, staff, m.ID, "")
	var stateErr *StateError
	require.ErrorAs(t, err, &stateErr)
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, string(models.MatchCompleted), stateErr.Actual)

	_, err = f.matches.Start(f.ctx, staff, m.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.MatchCompleted, f.match(m.ID).State)
}

func TestMatchStartNeedsActiveStage(t *testing.T) {
	f := newFixture(t, "default", 4)
	stage := f.createStages(groupStageSpec(1, 1))[0]
	_, err := f.groups.ConfigureGroups(f.ctx, f.tournament.ID, ConfigureGroupsParams{GroupSettings: GroupSettings{GroupCount: 1, AdvancementCount: 1}})
	require.NoError(t, err)
	_, err = f.groups.DrawGroups(f.ctx, f.tournament.ID, DrawParams{Strategy: models.DrawSeeded})
	require.NoError(t, err)
	_, err = f.groups.GenerateGroupMatches(f.ctx, stage.ID)
	require.NoError(t, err)

	m := f.stageMatches(stage.ID)[0]
	_, err = f.matches.Start(f.ctx, staff, m.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMatchIdempotencyKeys(t *testing.T) {
	f, m := groupMatch(t, "default", 4)
	f.start(m.ID)
	f.submit(m.ID, 3, 0)

	first, err := f.matches.ConfirmResult(f.ctx, staff, m.ID, "confirm-1")
	require.NoError(t, err)
	assert.False(t, first.Replay)
	published := len(f.recorder.Events())

	again, err := f.matches.ConfirmResult(f.ctx, staff, m.ID, "confirm-1")
	require.NoError(t, err)
	assert.True(t, again.Replay)
	assert.Equal(t, models.MatchCompleted, again.Match.State)
	assert.Equal(t, *first.Match.WinnerID, *again.Match.WinnerID)
	assert.Equal(t, first.Match.Version, again.Match.Version)
	assert.Len(t, f.recorder.Events(), published, "a replay publishes nothing")

	winner := rowFor(t, f, *m.GroupID, *first.Match.WinnerID)
	assert.Equal(t, 3, winner.Points, "standings are not applied twice")

	// a fresh key is a new request and fails the state check
	_, err = f.matches.ConfirmResult(f.ctx, staff, m.ID, "confirm-2")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestMatchIdempotencyKeyOutlivesLastOperation(t *testing.T) {
	f, m := groupMatch(t, "default", 4)

	_, err := f.matches.Start(f.ctx, staff, m.ID, "start-1")
	require.NoError(t, err)
	f.submit(m.ID, 1, 0)

	res, err := f.matches.Start(f.ctx, staff, m.ID, "start-1")
	require.NoError(t, err)
	assert.True(t, res.Replay)
	assert.Equal(t, models.MatchPendingResult, res.Match.State)
}

func TestMatchAmbiguousResult(t *testing.T) {
	f, m := groupMatch(t, "default", 4)
	f.start(m.ID)
	f.submit(m.ID, 1, 1)

	_, err := f.matches.ConfirmResult(f.ctx, staff, m.ID, "")
	assert.ErrorIs(t, err, ErrAmbiguousResult)
	assert.Equal(t, models.MatchPendingResult, f.match(m.ID).State)

	res, err := f.matches.Dispute(f.ctx, f.player(*m.P2ParticipantID), m.ID, "", DisputeInput{Reason: "it was 1-2"})
	require.NoError(t, err)
	assert.Equal(t, models.MatchDisputed, res.Match.State)

	res, err = f.matches.ResolveDispute(f.ctx, staff, m.ID, "", ResolveDisputeInput{Outcome: models.OutcomeOverride, P1Score: intPtr(1), P2Score: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, res.Match.State)
	assert.Equal(t, *m.P2ParticipantID, *res.Match.WinnerID)
}

func TestMatchDrawWhenAllowed(t *testing.T) {
	f, m := groupMatch(t, "football", 4)
	done := f.play(m.ID, 2, 2)
	assert.True(t, done.IsDraw)
	assert.Nil(t, done.WinnerID)

	for _, pid := range []int{*m.P1ParticipantID, *m.P2ParticipantID} {
		row := rowFor(t, f, *m.GroupID, pid)
		assert.Equal(t, 1, row.Draws)
		assert.Equal(t, 1, row.Points)
	}
}

func TestMatchPermissions(t *testing.T) {
	f, m := groupMatch(t, "default", 4)
	outsider := f.player(4)
	if m.HasParticipant(4) {
		outsider = f.player(3)
	}
	if m.HasParticipant(outsider.ParticipantIDs[0]) {
		t.Fatalf("expected a participant outside match %d", m.ID)
	}

	_, err := f.matches.Start(f.ctx, f.player(*m.P1ParticipantID), m.ID, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	f.start(m.ID)

	_, err = f.matches.SubmitResult(f.ctx, outsider, m.ID, "", SubmitResultInput{P1Score: 1})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.matches.SubmitResult(f.ctx, staff, m.ID, "", SubmitResultInput{P1Score: 1})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.matches.SubmitResult(f.ctx, f.player(*m.P1ParticipantID), m.ID, "", SubmitResultInput{P1Score: -1})
	assert.ErrorIs(t, err, ErrValidationFailed)

	f.submit(m.ID, 1, 0)
	_, err = f.matches.ConfirmResult(f.ctx, f.player(*m.P1ParticipantID), m.ID, "")
	assert.ErrorIs(t, err, ErrPermissionDenied)
	_, err = f.matches.Dispute(f.ctx, outsider, m.ID, "", DisputeInput{Reason: "nope"})
	assert.ErrorIs(t, err, ErrPermissionDenied)
	assert.Equal(t, models.MatchPendingResult, f.match(m.ID).State)
}

func TestMatchDisputeAcceptReported(t *testing.T) {
	f, m := groupMatch(t, "default", 4)
	f.play(m.ID, 2, 0)
	winner := *m.P1ParticipantID
	assert.Equal(t, 3, rowFor(t, f, *m.GroupID, winner).Points)

	_, err := f.matches.Dispute(f.ctx, f.player(*m.P2ParticipantID), m.ID, "", DisputeInput{Reason: "   "})
	assert.ErrorIs(t, err, ErrValidationFailed)

	res, err := f.matches.Dispute(f.ctx, f.player(*m.P2ParticipantID), m.ID, "", DisputeInput{Reason: "wrong map"})
	require.NoError(t, err)
	require.NotNil(t, res.Dispute)
	assert.Equal(t, models.MatchCompleted, res.Dispute.PreviousState)
	assert.Equal(t, models.DisputeOpen, res.Dispute.Status)
	assert.Equal(t, 0, rowFor(t, f, *m.GroupID, winner).Points, "a disputed result leaves the standings")

	_, err = f.matches.Dispute(f.ctx, f.player(*m.P1ParticipantID), m.ID, "", DisputeInput{Reason: "again"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.matches.ResolveDispute(f.ctx, staff, m.ID, "", ResolveDisputeInput{Outcome: "coin_flip"})
	assert.ErrorIs(t, err, ErrValidationFailed)

	res, err = f.matches.ResolveDispute(f.ctx, staff, m.ID, "", ResolveDisputeInput{Outcome: models.OutcomeAcceptReported})
	require.NoError(t, err)
	assert.Equal(t, models.MatchCompleted, res.Match.State)
	assert.Equal(t, models.DisputeResolved, res.Dispute.Status)
	assert.Equal(t, staff.UserID, *res.Dispute.ResolvedBy)
	assert.Equal(t, 3, rowFor(t, f, *m.GroupID, winner).Points)

	disputes, err := f.matches.ListDisputes(f.ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, disputes, 1)
}

func TestMatchDisputeRematch(t *testing.T) {
	f, m := groupMatch(t, "default", 4)
	f.play(m.ID, 2, 0)
	_, err := f.matches.Dispute(f.ctx, f.player(*m.P2ParticipantID), m.ID, "", DisputeInput{Reason: "server crash"})
	require.NoError(t, err)

	res, err := f.matches.ResolveDispute(f.ctx, staff, m.ID, "", ResolveDisputeInput{Outcome: models.OutcomeRematch})
	require.NoError(t, err)
	assert.Equal(t, models.MatchScheduled, res.Match.State)
	assert.Nil(t, res.Match.WinnerID)
	assert.Nil(t, res.Match.CompletedAt)
	assert.Zero(t, res.Match.P1Score)

	done := f.play(m.ID, 0, 1)
	assert.Equal(t, *m.P2ParticipantID, *done.WinnerID)
	assert.Equal(t, 3, rowFor(t, f, *m.GroupID, *m.P2ParticipantID).Points)
	assert.Equal(t, 0, rowFor(t, f, *m.GroupID, *m.P1ParticipantID).Points)
}

func TestMatchDisputeWindow(t *testing.T) {
	f, m := groupMatch(t, "default", 4)
	f.matches = NewMatchService(f.store, f.rules, f.recorder, f.logger, time.Hour)
	f.play(m.ID, 2, 0)

	stale := f.match(m.ID)
	completedAt := time.Now().UTC().Add(-2 * time.Hour)
	stale.CompletedAt = &completedAt
	require.NoError(t, f.store.Matches().Update(f.ctx, stale))

	_, err := f.matches.Dispute(f.ctx, f.player(*m.P2ParticipantID), m.ID, "", DisputeInput{Reason: "late"})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.MatchCompleted, f.match(m.ID).State)
}

func TestMatchCancel(t *testing.T) {
	f, m := groupMatch(t, "default", 4)
	f.play(m.ID, 2, 0)
	_, err := f.matches.Dispute(f.ctx, f.player(*m.P2ParticipantID), m.ID, "", DisputeInput{Reason: "smurf"})
	require.NoError(t, err)

	res, err := f.matches.Cancel(f.ctx, staff, m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.MatchCancelled, res.Match.State)
	assert.Nil(t, res.Match.WinnerID)

	disputes, err := f.matches.ListDisputes(f.ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, disputes, 1)
	assert.Equal(t, models.DisputeResolved, disputes[0].Status)

	_, err = f.matches.Cancel(f.ctx, staff, m.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	_, err = f.matches.Start(f.ctx, staff, m.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, 0, rowFor(t, f, *m.GroupID, *m.P1ParticipantID).Points)
}

func TestEliminationWinnerFillsNextSlot(t *testing.T) {
	f, matches := bracket(t)
	semi1, semi2, final := matches[0], matches[1], matches[2]
	require.Equal(t, []int{1, 4}, []int{*semi1.P1ParticipantID, *semi1.P2ParticipantID})
	require.Equal(t, []int{2, 3}, []int{*semi2.P1ParticipantID, *semi2.P2ParticipantID})
	require.Equal(t, final.ID, *semi1.NextMatchID)
	require.Equal(t, 1, *semi1.WinnerToSlot)
	require.Equal(t, 2, *semi2.WinnerToSlot)

	_, err := f.matches.Start(f.ctx, staff, final.ID, "")
	assert.ErrorIs(t, err, ErrInvalidTransition, "the final is still waiting for its participants")

	f.start(semi1.ID)
	f.submit(semi1.ID, 1, 1)
	_, err = f.matches.ConfirmResult(f.ctx, staff, semi1.ID, "")
	assert.ErrorIs(t, err, ErrAmbiguousResult, "elimination matches never end in a draw")

	_, err = f.matches.Dispute(f.ctx, f.player(4), semi1.ID, "", DisputeInput{Reason: "tied"})
	require.NoError(t, err)
	_, err = f.matches.ResolveDispute(f.ctx, staff, semi1.ID, "", ResolveDisputeInput{Outcome: models.OutcomeOverride, P1Score: intPtr(2), P2Score: intPtr(1)})
	require.NoError(t, err)
	assert.Equal(t, 1, *f.match(final.ID).P1ParticipantID)
	assert.Contains(t, f.recorder.Types(), events.BracketSlotAssigned)

	// overriding the winner while the final is scheduled rewrites the slot
	_, err = f.matches.Dispute(f.ctx, f.player(4), semi1.ID, "", DisputeInput{Reason: "wrong score"})
	require.NoError(t, err)
	_, err = f.matches.ResolveDispute(f.ctx, staff, semi1.ID, "", ResolveDisputeInput{Outcome: models.OutcomeOverride, P1Score: intPtr(0), P2Score: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, 4, *f.match(final.ID).P1ParticipantID)

	f.play(semi2.ID, 2, 0)
	assert.Equal(t, 2, *f.match(final.ID).P2ParticipantID)
	f.start(final.ID)

	// once the final is live the semi-final result is locked to it
	_, err = f.matches.Dispute(f.ctx, f.player(1), semi1.ID, "", DisputeInput{Reason: "appeal"})
	require.NoError(t, err)
	_, err = f.matches.ResolveDispute(f.ctx, staff, semi1.ID, "", ResolveDisputeInput{Outcome: models.OutcomeOverride, P1Score: intPtr(3), P2Score: intPtr(0)})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.MatchDisputed, f.match(semi1.ID).State)
	assert.Equal(t, 4, *f.match(final.ID).P1ParticipantID)
}

func TestEliminationDisqualifyIsWalkover(t *testing.T) {
	f, matches := bracket(t)
	semi2, final := matches[1], matches[2]

	f.start(semi2.ID)
	f.submit(semi2.ID, 3, 0)
	_, err := f.matches.Dispute(f.ctx, f.player(3), semi2.ID, "", DisputeInput{Reason: "cheating"})
	require.NoError(t, err)

	_, err = f.matches.ResolveDispute(f.ctx, staff, semi2.ID, "", ResolveDisputeInput{Outcome: models.OutcomeDisqualify, DisqualifiedParticipantID: intPtr(1)})
	assert.ErrorIs(t, err, ErrValidationFailed)

	res, err := f.matches.ResolveDispute(f.ctx, staff, semi2.ID, "", ResolveDisputeInput{Outcome: models.OutcomeDisqualify, DisqualifiedParticipantID: intPtr(2)})
	require.NoError(t, err)
	assert.Equal(t, models.MatchCancelled, res.Match.State)
	assert.Equal(t, 3, *res.Match.WinnerID)
	assert.Equal(t, 2, *res.Match.LoserID)
	assert.Equal(t, 2, *res.Dispute.DisqualifiedParticipantID)
	assert.Equal(t, 3, *f.match(final.ID).P2ParticipantID)
}
