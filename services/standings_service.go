package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
	"github.com/Dosada05/tournament-stages/rulesets"
	"github.com/Dosada05/tournament-stages/standings"
	"github.com/Dosada05/tournament-stages/storage"
)

type StandingsService interface {
	// CalculateStandings recomputes one group from its completed matches and
	// returns the ranked rows.
	CalculateStandings(ctx context.Context, groupID int) ([]*models.Standing, error)
	// RecalculateStage recomputes every group of a stage, one transaction per
	// group, in parallel.
	RecalculateStage(ctx context.Context, stageID int) (map[int][]*models.Standing, error)
	ListGroupStandings(ctx context.Context, groupID int) ([]*models.Standing, error)
	ExportStandings(ctx context.Context, stageID int) (*standings.Export, error)
	ArchiveStandings(ctx context.Context, stageID int) (*storage.UploadResult, error)
}

type standingsService struct {
	store     repositories.Store
	rules     rulesets.Resolver
	publisher events.Publisher
	uploader  storage.FileUploader
	logger    *slog.Logger
}

// NewStandingsService builds the service. uploader may be nil, which disables
// ArchiveStandings.
func NewStandingsService(
	store repositories.Store,
	rules rulesets.Resolver,
	publisher events.Publisher,
	uploader storage.FileUploader,
	logger *slog.Logger,
) StandingsService {
	return &standingsService{
		store:     store,
		rules:     rules,
		publisher: publisher,
		uploader:  uploader,
		logger:    logger,
	}
}

// recomputeGroup is the serialized "read matches, compute, write standings"
// unit. It must run inside a transaction.
func recomputeGroup(ctx context.Context, tx repositories.Repositories, rules models.RuleSet, stage *models.Stage, group *models.Group) ([]*models.Standing, error) {
	if err := tx.Standings().LockGroup(ctx, group.ID); err != nil {
		return nil, handleRepositoryError(err, "locking group standings")
	}
	rows, err := tx.Standings().ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing standings")
	}
	matches, err := tx.Matches().ListByGroup(ctx, group.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing group matches")
	}

	cfg := standings.ConfigFor(group, rules)
	if stage.Format == models.StageSwiss {
		settings, err := stage.GetSettings()
		if err != nil {
			return nil, fmt.Errorf("%w: stage settings: %w", ErrInvalidConfiguration, err)
		}
		cfg.MatchesPerParticipant = settings.SwissRounds
		cfg.Open = stage.State != models.StageCompleted && lastRound(matches) < settings.SwissRounds
	}

	ranked, err := standings.Recompute(rows, matches, cfg)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	if err := tx.Standings().SaveResults(ctx, ranked); err != nil {
		return nil, handleRepositoryError(err, "saving standings")
	}
	return ranked, nil
}

func lastRound(matches []*models.Match) int {
	last := 0
	for _, m := range matches {
		if m.Round > last {
			last = m.Round
		}
	}
	return last
}

func (s *standingsService) CalculateStandings(ctx context.Context, groupID int) ([]*models.Standing, error) {
	var (
		ranked []*models.Standing
		stage  *models.Stage
	)
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		group, err := tx.Groups().GetByID(ctx, groupID)
		if err != nil {
			return handleRepositoryError(err, "loading group")
		}
		stage, err = tx.Stages().GetByID(ctx, group.StageID)
		if err != nil {
			return handleRepositoryError(err, "loading stage")
		}
		_, rules, err := rulesFor(ctx, tx, s.rules, stage.TournamentID)
		if err != nil {
			return err
		}
		ranked, err = recomputeGroup(ctx, tx, rules, stage, group)
		return err
	})
	if err != nil {
		return nil, err
	}

	publishAll(ctx, s.publisher, s.logger, []events.Event{
		newEvent(events.StandingsUpdated, stage.TournamentID, intPtr(stage.ID), nil, map[string]int{"group_id": groupID}),
	})
	return ranked, nil
}

func (s *standingsService) RecalculateStage(ctx context.Context, stageID int) (map[int][]*models.Standing, error) {
	stage, err := s.store.Stages().GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "loading stage")
	}
	groups, err := s.store.Groups().ListByStage(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing groups")
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: stage %d", ErrNoGroupsConfigured, stageID)
	}
	_, rules, err := rulesFor(ctx, s.store, s.rules, stage.TournamentID)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	result := make(map[int][]*models.Standing, len(groups))
	g, gctx := errgroup.WithContext(ctx)
	for _, group := range groups {
		group := group
		g.Go(func() error {
			return s.store.RunInTx(gctx, func(tx repositories.Repositories) error {
				ranked, err := recomputeGroup(gctx, tx, rules, stage, group)
				if err != nil {
					return fmt.Errorf("group %d: %w", group.ID, err)
				}
				mu.Lock()
				result[group.ID] = ranked
				mu.Unlock()
				return nil
			})
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Stage standings recalculated", slog.Int("stage_id", stageID), slog.Int("groups", len(groups)))
	publishAll(ctx, s.publisher, s.logger, []events.Event{
		newEvent(events.StandingsUpdated, stage.TournamentID, intPtr(stage.ID), nil, nil),
	})
	return result, nil
}

func (s *standingsService) ListGroupStandings(ctx context.Context, groupID int) ([]*models.Standing, error) {
	if _, err := s.store.Groups().GetByID(ctx, groupID); err != nil {
		return nil, handleRepositoryError(err, "loading group")
	}
	rows, err := s.store.Standings().ListByGroup(ctx, groupID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing standings")
	}
	return rows, nil
}

func (s *standingsService) ExportStandings(ctx context.Context, stageID int) (*standings.Export, error) {
	stage, err := s.store.Stages().GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "loading stage")
	}

	var (
		groups []*models.Group
		rows   []*models.Standing
		rules  models.RuleSet
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		groups, err = s.store.Groups().ListByStage(gctx, stageID)
		return handleErr(err, "listing groups")
	})
	g.Go(func() error {
		var err error
		rows, err = s.store.Standings().ListByStage(gctx, stageID)
		return handleErr(err, "listing standings")
	})
	g.Go(func() error {
		var err error
		_, rules, err = rulesFor(gctx, s.store, s.rules, stage.TournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	export, err := standings.BuildExport(stageID, groups, rows, rules.ScoringType)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return export, nil
}

func handleErr(err error, op string) error {
	if err == nil {
		return nil
	}
	return handleRepositoryError(err, op)
}

// ArchiveStandings uploads the export of a stage as JSON. It runs outside any
// transaction.
func (s *standingsService) ArchiveStandings(ctx context.Context, stageID int) (*storage.UploadResult, error) {
	if s.uploader == nil {
		return nil, ErrArchiveUnavailable
	}
	stage, err := s.store.Stages().GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "loading stage")
	}
	export, err := s.ExportStandings(ctx, stageID)
	if err != nil {
		return nil, err
	}
	body, err := json.MarshalIndent(export, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding standings export: %w", err)
	}

	key := storage.StandingsArchiveKey(stage.TournamentID, stage.ID, now())
	result, err := s.uploader.Upload(ctx, key, "application/json", bytes.NewReader(body))
	if err != nil {
		s.logger.ErrorContext(ctx, "Standings archive upload failed", slog.Int("stage_id", stageID), slog.Any("error", err))
		return nil, fmt.Errorf("%w: %w", ErrArchiveUnavailable, err)
	}
	s.logger.InfoContext(ctx, "Standings archived", slog.Int("stage_id", stageID), slog.String("key", result.Key))
	return result, nil
}
