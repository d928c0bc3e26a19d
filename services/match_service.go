package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
	"github.com/Dosada05/tournament-stages/rulesets"
)

// Operation names recorded in the idempotency ledger.
const (
	OpStart          = "start"
	OpSubmitResult   = "submit_result"
	OpConfirmResult  = "confirm_result"
	OpDispute        = "dispute"
	OpResolveDispute = "resolve_dispute"
	OpCancel         = "cancel"
)

// MatchResult is the match after a transition. Replay is set when the
// idempotency key had already been applied and nothing changed.
type MatchResult struct {
	Match   *models.Match   `json:"match"`
	Replay  bool            `json:"replay"`
	Dispute *models.Dispute `json:"dispute,omitempty"`
}

type SubmitResultInput struct {
	P1Score int               `json:"p1_score"`
	P2Score int               `json:"p2_score"`
	P1Stats *models.SideStats `json:"p1_stats,omitempty"`
	P2Stats *models.SideStats `json:"p2_stats,omitempty"`
}

type DisputeInput struct {
	Reason string `json:"reason"`
}

type ResolveDisputeInput struct {
	Outcome                   models.DisputeOutcome `json:"outcome"`
	P1Score                   *int                  `json:"p1_score,omitempty"`
	P2Score                   *int                  `json:"p2_score,omitempty"`
	DisqualifiedParticipantID *int                  `json:"disqualified_participant_id,omitempty"`
}

type MatchService interface {
	GetMatch(ctx context.Context, matchID int) (*models.Match, error)
	ListStageMatches(ctx context.Context, stageID int) ([]*models.Match, error)
	ListDisputes(ctx context.Context, matchID int) ([]*models.Dispute, error)

	Start(ctx context.Context, actor models.Actor, matchID int, key string) (*MatchResult, error)
	SubmitResult(ctx context.Context, actor models.Actor, matchID int, key string, in SubmitResultInput) (*MatchResult, error)
	ConfirmResult(ctx context.Context, actor models.Actor, matchID int, key string) (*MatchResult, error)
	Dispute(ctx context.Context, actor models.Actor, matchID int, key string, in DisputeInput) (*MatchResult, error)
	ResolveDispute(ctx context.Context, actor models.Actor, matchID int, key string, in ResolveDisputeInput) (*MatchResult, error)
	Cancel(ctx context.Context, actor models.Actor, matchID int, key string) (*MatchResult, error)
}

type matchService struct {
	store         repositories.Store
	rules         rulesets.Resolver
	publisher     events.Publisher
	logger        *slog.Logger
	disputeWindow time.Duration
}

// NewMatchService builds the lifecycle controller. A zero disputeWindow lets a
// completed match be disputed at any time.
func NewMatchService(
	store repositories.Store,
	rules rulesets.Resolver,
	publisher events.Publisher,
	logger *slog.Logger,
	disputeWindow time.Duration,
) MatchService {
	return &matchService{
		store:         store,
		rules:         rules,
		publisher:     publisher,
		logger:        logger,
		disputeWindow: disputeWindow,
	}
}

// transition is one state change applied to a locked match.
type transition struct {
	op    string
	staff bool
	apply func(ctx context.Context, tx repositories.Repositories, m *models.Match, tc *transitionContext) error
}

type transitionContext struct {
	actor       models.Actor
	participant int
	rules       models.RuleSet
	dispute     *models.Dispute
	events      []events.Event
}

func (tc *transitionContext) emit(t events.Type, m *models.Match) {
	tc.events = append(tc.events, newEvent(t, m.TournamentID, m.StageID, intPtr(m.ID), m))
}

// run locks the match, checks the caller, short-circuits replays and applies
// t. Everything it writes, including the idempotency record, the standings
// and the bracket slot, commits or rolls back together.
func (s *matchService) run(ctx context.Context, actor models.Actor, matchID int, key string, t transition) (*MatchResult, error) {
	var (
		result MatchResult
		tc     *transitionContext
	)
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		m, err := tx.Matches().GetByIDForUpdate(ctx, matchID)
		if err != nil {
			return handleRepositoryError(err, "loading match")
		}

		tc = &transitionContext{actor: actor}
		if t.staff {
			if !actor.IsStaff() {
				return fmt.Errorf("%w: %s requires a staff role", ErrPermissionDenied, t.op)
			}
		} else {
			pid, ok := actor.ActsFor(m)
			if !ok {
				return fmt.Errorf("%w: only the participants of match %d may %s", ErrPermissionDenied, m.ID, t.op)
			}
			tc.participant = pid
		}

		if key != "" {
			replay := m.LastOperation != nil && *m.LastOperation == t.op &&
				m.LastIdempotencyKey != nil && *m.LastIdempotencyKey == key
			if !replay {
				if replay, err = tx.Idempotency().Exists(ctx, m.ID, t.op, key); err != nil {
					return handleRepositoryError(err, "checking idempotency key")
				}
			}
			if replay {
				result = MatchResult{Match: m, Replay: true}
				return nil
			}
		}

		if _, tc.rules, err = rulesFor(ctx, tx, s.rules, m.TournamentID); err != nil {
			return err
		}
		prevState := m.State
		var prevWinner *int
		if m.WinnerID != nil {
			prevWinner = intPtr(*m.WinnerID)
		}

		if err := t.apply(ctx, tx, m, tc); err != nil {
			return err
		}

		m.LastOperation = strPtr(t.op)
		m.LastIdempotencyKey = nil
		if key != "" {
			m.LastIdempotencyKey = strPtr(key)
		}
		if err := tx.Matches().Update(ctx, m); err != nil {
			return handleRepositoryError(err, "saving match")
		}
		if key != "" {
			rec := &models.IdempotencyRecord{MatchID: m.ID, Operation: t.op, Key: key}
			if err := tx.Idempotency().Record(ctx, rec); err != nil {
				return handleRepositoryError(err, "recording idempotency key")
			}
		}
		if err := s.propagate(ctx, tx, m, prevState, prevWinner, tc); err != nil {
			return err
		}
		result = MatchResult{Match: m, Dispute: tc.dispute}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Replay {
		s.logger.InfoContext(ctx, "Match operation replayed",
			slog.Int("match_id", matchID), slog.String("operation", t.op), slog.String("idempotency_key", key))
		return &result, nil
	}
	s.logger.InfoContext(ctx, "Match transition applied",
		slog.Int("match_id", matchID), slog.String("operation", t.op), slog.String("state", string(result.Match.State)))
	publishAll(ctx, s.publisher, s.logger, tc.events)
	return &result, nil
}

func sameParticipant(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// propagate keeps derived rows in line with the match: group standings when a
// completed result appears or disappears, and the next bracket slot when the
// winner changes. A slot is only rewritten while the next match is scheduled.
func (s *matchService) propagate(ctx context.Context, tx repositories.Repositories, m *models.Match, prevState models.MatchState, prevWinner *int, tc *transitionContext) error {
	if m.GroupID != nil && (prevState == models.MatchCompleted || m.State == models.MatchCompleted) {
		group, err := tx.Groups().GetByID(ctx, *m.GroupID)
		if err != nil {
			return handleRepositoryError(err, "loading group")
		}
		stage, err := tx.Stages().GetByID(ctx, group.StageID)
		if err != nil {
			return handleRepositoryError(err, "loading stage")
		}
		if _, err := recomputeGroup(ctx, tx, tc.rules, stage, group); err != nil {
			return err
		}
		tc.events = append(tc.events, newEvent(events.StandingsUpdated, m.TournamentID, m.StageID, intPtr(m.ID), map[string]int{"group_id": group.ID}))
	}

	if !m.IsElimination() || m.NextMatchID == nil || m.WinnerToSlot == nil || sameParticipant(prevWinner, m.WinnerID) {
		return nil
	}
	next, err := tx.Matches().GetByIDForUpdate(ctx, *m.NextMatchID)
	if err != nil {
		return handleRepositoryError(err, "loading next bracket match")
	}
	slot := &next.P1ParticipantID
	if *m.WinnerToSlot == 2 {
		slot = &next.P2ParticipantID
	}
	if sameParticipant(*slot, m.WinnerID) {
		return nil
	}
	if next.State != models.MatchScheduled {
		return fmt.Errorf("%w: next match %d is already %s", ErrInvalidTransition, next.ID, next.State)
	}
	*slot = nil
	if m.WinnerID != nil {
		*slot = intPtr(*m.WinnerID)
	}
	if err := tx.Matches().Update(ctx, next); err != nil {
		return handleRepositoryError(err, "filling next bracket slot")
	}
	tc.emit(events.BracketSlotAssigned, next)
	return nil
}

// decide sets the outcome from the scores. Equal scores are a draw only when the
// rule-set allows it and the match is not an elimination match.
func decide(m *models.Match, rules models.RuleSet) error {
	m.WinnerID, m.LoserID, m.IsDraw = nil, nil, false
	switch {
	case m.P1ParticipantID == nil || m.P2ParticipantID == nil:
		return fmt.Errorf("%w: match %d has an empty slot", ErrInvalidTransition, m.ID)
	case m.P1Score > m.P2Score:
		m.WinnerID, m.LoserID = intPtr(*m.P1ParticipantID), intPtr(*m.P2ParticipantID)
	case m.P2Score > m.P1Score:
		m.WinnerID, m.LoserID = intPtr(*m.P2ParticipantID), intPtr(*m.P1ParticipantID)
	case rules.AllowDraws && !m.IsElimination():
		m.IsDraw = true
	default:
		return fmt.Errorf("%w: match %d reported %d-%d", ErrAmbiguousResult, m.ID, m.P1Score, m.P2Score)
	}
	return nil
}

func markCompleted(m *models.Match) {
	m.State = models.MatchCompleted
	if m.CompletedAt == nil {
		completedAt := now()
		m.CompletedAt = &completedAt
	}
}

func (s *matchService) Start(ctx context.Context, actor models.Actor, matchID int, key string) (*MatchResult, error) {
	return s.run(ctx, actor, matchID, key, transition{op: OpStart, staff: true,
		apply: func(ctx context.Context, tx repositories.Repositories, m *models.Match, tc *transitionContext) error {
			if m.State != models.MatchScheduled {
				return matchStateError(m, models.MatchScheduled)
			}
			if m.P1ParticipantID == nil || m.P2ParticipantID == nil {
				return fmt.Errorf("%w: match %d is still waiting for its participants", ErrInvalidTransition, m.ID)
			}
			if m.StageID != nil {
				stage, err := tx.Stages().GetByID(ctx, *m.StageID)
				if err != nil {
					return handleRepositoryError(err, "loading stage")
				}
				if stage.State != models.StageActive {
					return stageStateError(ErrInvalidTransition, stage, models.StageActive)
				}
			}
			startedAt := now()
			m.State = models.MatchLive
			m.StartedAt = &startedAt
			tc.emit(events.MatchStarted, m)
			return nil
		}})
}

func (s *matchService) SubmitResult(ctx context.Context, actor models.Actor, matchID int, key string, in SubmitResultInput) (*MatchResult, error) {
	return s.run(ctx, actor, matchID, key, transition{op: OpSubmitResult,
		apply: func(ctx context.Context, tx repositories.Repositories, m *models.Match, tc *transitionContext) error {
			if m.State != models.MatchLive {
				return matchStateError(m, models.MatchLive)
			}
			if in.P1Score < 0 || in.P2Score < 0 {
				return fmt.Errorf("%w: scores must not be negative", ErrValidationFailed)
			}
			m.P1Score, m.P2Score = in.P1Score, in.P2Score
			m.P1Stats, m.P2Stats = in.P1Stats, in.P2Stats
			m.ReportedBy = intPtr(tc.participant)
			m.State = models.MatchPendingResult
			tc.emit(events.MatchResultSubmitted, m)
			return nil
		}})
}

func (s *matchService) ConfirmResult(ctx context.Context, actor models.Actor, matchID int, key string) (*MatchResult, error) {
	return s.run(ctx, actor, matchID, key, transition{op: OpConfirmResult, staff: true,
		apply: func(ctx context.Context, tx repositories.Repositories, m *models.Match, tc *transitionContext) error {
			if m.State != models.MatchPendingResult {
				return matchStateError(m, models.MatchPendingResult)
			}
			if err := decide(m, tc.rules); err != nil {
				return err
			}
			markCompleted(m)
			tc.emit(events.MatchCompleted, m)
			return nil
		}})
}

func (s *matchService) Dispute(ctx context.Context, actor models.Actor, matchID int, key string, in DisputeInput) (*MatchResult, error) {
	return s.run(ctx, actor, matchID, key, transition{op: OpDispute,
		apply: func(ctx context.Context, tx repositories.Repositories, m *models.Match, tc *transitionContext) error {
			switch m.State {
			case models.MatchPendingResult:
			case models.MatchCompleted:
				if s.disputeWindow > 0 && m.CompletedAt != nil && now().After(m.CompletedAt.Add(s.disputeWindow)) {
					return fmt.Errorf("%w: the %s dispute window of match %d has closed", ErrInvalidTransition, s.disputeWindow, m.ID)
				}
			default:
				return matchStateError(m, models.MatchPendingResult, models.MatchCompleted)
			}
			reason := strings.TrimSpace(in.Reason)
			if reason == "" {
				return fmt.Errorf("%w: a dispute needs a reason", ErrValidationFailed)
			}

			d := &models.Dispute{
				Reference:     uuid.New(),
				MatchID:       m.ID,
				RaisedBy:      tc.participant,
				Reason:        reason,
				Status:        models.DisputeOpen,
				PreviousState: m.State,
			}
			if err := tx.Disputes().Create(ctx, d); err != nil {
				return handleRepositoryError(err, "opening dispute")
			}
			m.State = models.MatchDisputed
			tc.dispute = d
			tc.emit(events.MatchDisputed, m)
			return nil
		}})
}

func (s *matchService) ResolveDispute(ctx context.Context, actor models.Actor, matchID int, key string, in ResolveDisputeInput) (*MatchResult, error) {
	return s.run(ctx, actor, matchID, key, transition{op: OpResolveDispute, staff: true,
		apply: func(ctx context.Context, tx repositories.Repositories, m *models.Match, tc *transitionContext) error {
			if m.State != models.MatchDisputed {
				return matchStateError(m, models.MatchDisputed)
			}
			if !in.Outcome.IsValid() {
				return fmt.Errorf("%w: unknown dispute outcome %q", ErrValidationFailed, in.Outcome)
			}
			d, err := tx.Disputes().GetOpenByMatch(ctx, m.ID)
			if err != nil {
				return handleRepositoryError(err, "loading open dispute")
			}

			switch in.Outcome {
			case models.OutcomeAcceptReported:
				if err := decide(m, tc.rules); err != nil {
					return err
				}
				markCompleted(m)
			case models.OutcomeOverride:
				if in.P1Score == nil || in.P2Score == nil || *in.P1Score < 0 || *in.P2Score < 0 {
					return fmt.Errorf("%w: override needs both scores", ErrValidationFailed)
				}
				m.P1Score, m.P2Score = *in.P1Score, *in.P2Score
				if err := decide(m, tc.rules); err != nil {
					return err
				}
				markCompleted(m)
				d.OverrideP1Score = intPtr(*in.P1Score)
				d.OverrideP2Score = intPtr(*in.P2Score)
			case models.OutcomeRematch:
				m.ClearResult()
				m.State = models.MatchScheduled
			case models.OutcomeDisqualify:
				dq := in.DisqualifiedParticipantID
				if dq == nil || !m.HasParticipant(*dq) {
					return fmt.Errorf("%w: disqualify needs a participant of match %d", ErrValidationFailed, m.ID)
				}
				m.State = models.MatchCancelled
				m.IsDraw = false
				m.WinnerID, m.LoserID = nil, nil
				// the opponent advances as a walkover
				if opponent := m.Opponent(*dq); m.IsElimination() && opponent != nil {
					m.WinnerID, m.LoserID = intPtr(*opponent), intPtr(*dq)
				}
				d.DisqualifiedParticipantID = intPtr(*dq)
			}

			resolvedAt := now()
			outcome := in.Outcome
			d.Status = models.DisputeResolved
			d.Outcome = &outcome
			d.ResolvedBy = intPtr(tc.actor.UserID)
			d.ResolvedAt = &resolvedAt
			if err := tx.Disputes().Update(ctx, d); err != nil {
				return handleRepositoryError(err, "resolving dispute")
			}
			tc.dispute = d
			tc.emit(events.MatchDisputeResolved, m)
			return nil
		}})
}

func (s *matchService) Cancel(ctx context.Context, actor models.Actor, matchID int, key string) (*MatchResult, error) {
	return s.run(ctx, actor, matchID, key, transition{op: OpCancel, staff: true,
		apply: func(ctx context.Context, tx repositories.Repositories, m *models.Match, tc *transitionContext) error {
			if m.State == models.MatchCancelled {
				return matchStateError(m, models.MatchScheduled, models.MatchLive, models.MatchPendingResult,
					models.MatchCompleted, models.MatchDisputed)
			}
			if m.State == models.MatchDisputed {
				d, err := tx.Disputes().GetOpenByMatch(ctx, m.ID)
				if err != nil {
					return handleRepositoryError(err, "loading open dispute")
				}
				resolvedAt := now()
				d.Status = models.DisputeResolved
				d.ResolvedBy = intPtr(tc.actor.UserID)
				d.ResolvedAt = &resolvedAt
				if err := tx.Disputes().Update(ctx, d); err != nil {
					return handleRepositoryError(err, "closing dispute")
				}
			}
			m.State = models.MatchCancelled
			m.WinnerID, m.LoserID, m.IsDraw = nil, nil, false
			tc.emit(events.MatchCancelled, m)
			return nil
		}})
}

func (s *matchService) GetMatch(ctx context.Context, matchID int) (*models.Match, error) {
	m, err := s.store.Matches().GetByID(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "loading match")
	}
	return m, nil
}

func (s *matchService) ListStageMatches(ctx context.Context, stageID int) ([]*models.Match, error) {
	if _, err := s.store.Stages().GetByID(ctx, stageID); err != nil {
		return nil, handleRepositoryError(err, "loading stage")
	}
	matches, err := s.store.Matches().ListByStage(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing matches")
	}
	return matches, nil
}

func (s *matchService) ListDisputes(ctx context.Context, matchID int) ([]*models.Dispute, error) {
	if _, err := s.store.Matches().GetByID(ctx, matchID); err != nil {
		return nil, handleRepositoryError(err, "loading match")
	}
	disputes, err := s.store.Disputes().ListByMatch(ctx, matchID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing disputes")
	}
	return disputes, nil
}
