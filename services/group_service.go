package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/tournament-stages/brackets"
	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
)

// GroupSettings configures the groups of a round-robin stage.
type GroupSettings struct {
	GroupCount       int                  `json:"group_count"`
	AdvancementCount int                  `json:"advancement_count"`
	Points           *models.PointsSystem `json:"points,omitempty"`
	Tiebreakers      []models.Tiebreaker  `json:"tiebreakers,omitempty"`
	MatchFormat      models.MatchFormat   `json:"match_format"`
}

// ConfigureGroupsParams targets StageID, or the first unfinished round-robin
// stage of the tournament when StageID is zero.
type ConfigureGroupsParams struct {
	StageID int `json:"stage_id,omitempty"`
	GroupSettings
}

type DrawParams struct {
	StageID  int                 `json:"stage_id,omitempty"`
	Strategy models.DrawStrategy `json:"strategy"`
	// Seed drives the random strategy; a fresh one is picked when nil.
	Seed *int64 `json:"seed,omitempty"`
	// Assignment maps participant id to group index for the manual strategy.
	Assignment map[int]int `json:"assignment,omitempty"`
}

type DrawResult struct {
	StageID   int                 `json:"stage_id"`
	Strategy  models.DrawStrategy `json:"strategy"`
	Seed      int64               `json:"seed"`
	Hash      string              `json:"hash"`
	Groups    []*models.Group     `json:"groups"`
	Standings []*models.Standing  `json:"standings"`
}

type GroupService interface {
	ConfigureGroups(ctx context.Context, tournamentID int, params ConfigureGroupsParams) ([]*models.Group, error)
	DrawGroups(ctx context.Context, tournamentID int, params DrawParams) (*DrawResult, error)
	GenerateGroupMatches(ctx context.Context, stageID int) (int, error)
	ListGroups(ctx context.Context, stageID int) ([]*models.Group, error)
}

type groupService struct {
	store     repositories.Store
	publisher events.Publisher
	logger    *slog.Logger
}

func NewGroupService(store repositories.Store, publisher events.Publisher, logger *slog.Logger) GroupService {
	return &groupService{store: store, publisher: publisher, logger: logger}
}

// groupStage resolves the round-robin stage a group operation applies to.
func groupStage(ctx context.Context, tx repositories.Repositories, tournamentID, stageID int) (*models.Stage, error) {
	if stageID != 0 {
		stage, err := tx.Stages().GetByID(ctx, stageID)
		if err != nil {
			return nil, handleRepositoryError(err, "loading stage")
		}
		if stage.TournamentID != tournamentID {
			return nil, fmt.Errorf("%w: stage %d does not belong to tournament %d", ErrNotFound, stageID, tournamentID)
		}
		if stage.Format != models.StageRoundRobin {
			return nil, fmt.Errorf("%w: stage %d is %s, groups need a round-robin stage", ErrInvalidConfiguration, stage.ID, stage.Format)
		}
		return stage, nil
	}
	stages, err := tx.Stages().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing stages")
	}
	for _, stage := range stages {
		if stage.Format == models.StageRoundRobin && !stage.IsTerminalState() {
			return stage, nil
		}
	}
	return nil, fmt.Errorf("%w: tournament %d has no open round-robin stage", ErrInvalidConfiguration, tournamentID)
}

// validateGroupSettings checks a configuration against the number of
// participants it has to hold and returns the group capacities.
func validateGroupSettings(gs GroupSettings, poolSize int) ([]int, error) {
	for _, tb := range gs.Tiebreakers {
		if !tb.IsValid() {
			return nil, fmt.Errorf("%w: unknown tiebreaker %q", ErrInvalidConfiguration, tb)
		}
	}
	if gs.Points != nil && (gs.Points.Win < 0 || gs.Points.Draw < 0 || gs.Points.Loss < 0) {
		return nil, fmt.Errorf("%w: point values must not be negative", ErrInvalidConfiguration)
	}
	if gs.AdvancementCount < 0 {
		return nil, fmt.Errorf("%w: advancement count must not be negative", ErrInvalidConfiguration)
	}
	if gs.MatchFormat.BestOf < 0 {
		return nil, fmt.Errorf("%w: best_of must not be negative", ErrInvalidConfiguration)
	}
	sizes, err := brackets.GroupSizes(poolSize, gs.GroupCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	smallest := sizes[len(sizes)-1]
	if gs.AdvancementCount > smallest {
		return nil, fmt.Errorf("%w: advancement count %d exceeds the smallest group size %d",
			ErrInvalidConfiguration, gs.AdvancementCount, smallest)
	}
	return sizes, nil
}

// configureGroupsTx replaces the (not yet drawn) groups of a stage.
func configureGroupsTx(ctx context.Context, tx repositories.Repositories, stage *models.Stage, poolSize int, gs GroupSettings) ([]*models.Group, error) {
	if stage.IsTerminalState() {
		return nil, stageStateError(ErrInvalidStageState, stage, models.StagePending, models.StageActive)
	}
	sizes, err := validateGroupSettings(gs, poolSize)
	if err != nil {
		return nil, err
	}

	existing, err := tx.Groups().ListByStage(ctx, stage.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing groups")
	}
	for _, g := range existing {
		if g.IsFinalized {
			return nil, fmt.Errorf("%w: stage %d", ErrGroupsFinalized, stage.ID)
		}
	}
	if len(existing) > 0 {
		if err := tx.Groups().DeleteByStage(ctx, stage.ID); err != nil {
			return nil, handleRepositoryError(err, "dropping previous groups")
		}
	}

	var points models.PointsSystem
	if gs.Points != nil {
		points = *gs.Points
	}
	groups := make([]*models.Group, 0, len(sizes))
	for i, size := range sizes {
		g := &models.Group{
			StageID:          stage.ID,
			TournamentID:     stage.TournamentID,
			Name:             models.GroupName(i),
			DisplayOrder:     i,
			Capacity:         size,
			AdvancementCount: gs.AdvancementCount,
			Points:           points,
			Tiebreakers:      gs.Tiebreakers,
			MatchFormat:      gs.MatchFormat,
		}
		if err := tx.Groups().Create(ctx, g); err != nil {
			return nil, handleRepositoryError(err, "creating group")
		}
		groups = append(groups, g)
	}

	settings, err := stage.GetSettings()
	if err != nil {
		return nil, fmt.Errorf("%w: stage settings: %w", ErrInvalidConfiguration, err)
	}
	settings.GroupCount = gs.GroupCount
	settings.AdvancementPerGroup = gs.AdvancementCount
	settings.Points = gs.Points
	settings.Tiebreakers = gs.Tiebreakers
	settings.MatchFormat = gs.MatchFormat
	if err := stage.SetSettings(settings); err != nil {
		return nil, err
	}
	if stage.Advancement.Type == "" {
		stage.Advancement = models.AdvancementPolicy{Type: models.AdvanceTopNPerGroup, Count: gs.AdvancementCount}
	}
	if err := tx.Stages().Update(ctx, stage); err != nil {
		return nil, handleRepositoryError(err, "saving stage settings")
	}
	return groups, nil
}

// drawGroupsTx places pool (strongest first) into the stage's groups, writes
// the initial standings and finalizes every group.
func drawGroupsTx(ctx context.Context, tx repositories.Repositories, stage *models.Stage, pool []int, params DrawParams) (*DrawResult, error) {
	groups, err := tx.Groups().ListByStage(ctx, stage.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing groups")
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: stage %d", ErrNoGroupsConfigured, stage.ID)
	}
	for _, g := range groups {
		if g.IsFinalized {
			return nil, fmt.Errorf("%w: stage %d", ErrGroupsFinalized, stage.ID)
		}
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: stage %d", ErrNoParticipants, stage.ID)
	}

	// The roster may have changed since the groups were configured; resize so
	// the draw still places every participant in balanced groups.
	capacities := make([]int, len(groups))
	for i, g := range groups {
		capacities[i] = g.Capacity
	}
	if total := sumInts(capacities); total != len(pool) {
		resized, err := brackets.GroupSizes(len(pool), len(groups))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		for i, g := range groups {
			g.Capacity = resized[i]
		}
		capacities = resized
	}

	var (
		seed    int64
		members [][]int
	)
	switch params.Strategy {
	case models.DrawRandom:
		if params.Seed != nil {
			seed = *params.Seed
		} else {
			seed = now().UnixNano()
		}
		members, err = brackets.DrawRandom(pool, capacities, seed)
	case models.DrawSeeded:
		members, err = brackets.DrawSnake(pool, capacities)
	case models.DrawManual:
		members, err = brackets.DrawManual(pool, params.Assignment, capacities)
	default:
		return nil, fmt.Errorf("%w: unknown draw strategy %q", ErrInvalidConfiguration, params.Strategy)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	for i, m := range members {
		if len(m) < 2 {
			return nil, fmt.Errorf("%w: %s would hold %d participants", ErrInvalidConfiguration, groups[i].Name, len(m))
		}
	}

	index, _, err := participantIndex(ctx, tx, stage.TournamentID)
	if err != nil {
		return nil, err
	}
	hash := brackets.DrawHash(string(params.Strategy), seed, members)
	strategy := params.Strategy

	result := &DrawResult{StageID: stage.ID, Strategy: strategy, Seed: seed, Hash: hash, Groups: groups}
	for i, g := range groups {
		rows, err := newStandings(ctx, tx, index, g, members[i])
		if err != nil {
			return nil, err
		}
		if err := tx.Standings().CreateBatch(ctx, rows); err != nil {
			return nil, handleRepositoryError(err, "creating standings")
		}
		result.Standings = append(result.Standings, rows...)

		drawSeed := seed
		drawHash := hash
		g.CurrentParticipantCount = len(members[i])
		if !g.IsFull() {
			return nil, fmt.Errorf("%w: %s holds %d of %d participants", ErrInvalidConfiguration,
				g.Name, g.CurrentParticipantCount, g.Capacity)
		}
		g.DrawStrategy = &strategy
		g.DrawSeed = &drawSeed
		g.DrawHash = &drawHash
		g.IsFinalized = true
		if err := tx.Groups().Update(ctx, g); err != nil {
			return nil, handleRepositoryError(err, "finalizing group")
		}
	}
	return result, nil
}

// generateGroupMatchesTx (re)builds the round-robin schedule of every group. It
// refuses once any match of a group has left the scheduled state.
func generateGroupMatchesTx(ctx context.Context, tx repositories.Repositories, stage *models.Stage) (int, error) {
	if stage.IsTerminalState() {
		return 0, stageStateError(ErrInvalidStageState, stage, models.StagePending, models.StageActive)
	}
	groups, err := tx.Groups().ListByStage(ctx, stage.ID)
	if err != nil {
		return 0, handleRepositoryError(err, "listing groups")
	}
	if len(groups) == 0 {
		return 0, fmt.Errorf("%w: stage %d", ErrNoGroupsConfigured, stage.ID)
	}

	generator := brackets.NewRoundRobinGenerator()
	total := 0
	for _, g := range groups {
		if !g.IsFinalized {
			return 0, fmt.Errorf("%w: %s has not been drawn", ErrNoParticipants, g.Name)
		}
		existing, err := tx.Matches().ListByGroup(ctx, g.ID)
		if err != nil {
			return 0, handleRepositoryError(err, "listing group matches")
		}
		for _, m := range existing {
			if m.State != models.MatchScheduled {
				return 0, fmt.Errorf("%w: match %d is %s", ErrMatchesAlreadyPlayed, m.ID, m.State)
			}
		}
		if len(existing) > 0 {
			if err := tx.Matches().DeleteByGroup(ctx, g.ID); err != nil {
				return 0, handleRepositoryError(err, "dropping group matches")
			}
		}

		rows, err := tx.Standings().ListByGroup(ctx, g.ID)
		if err != nil {
			return 0, handleRepositoryError(err, "listing standings")
		}
		members := make([]int, len(rows))
		for i, s := range rows {
			members[i] = s.ParticipantID
		}

		pairings, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
			Participants: members,
			UIDPrefix:    fmt.Sprintf("G%d_", g.ID),
		})
		if err != nil {
			return 0, fmt.Errorf("%w: %s %s: %w", ErrInvalidConfiguration, generator.GetName(), g.Name, err)
		}
		for _, bm := range pairings {
			m := &models.Match{
				TournamentID:    stage.TournamentID,
				StageID:         intPtr(stage.ID),
				GroupID:         intPtr(g.ID),
				Round:           bm.Round,
				OrderInRound:    bm.OrderInRound,
				BracketMatchUID: strPtr(bm.UID),
				P1ParticipantID: bm.Participant1ID,
				P2ParticipantID: bm.Participant2ID,
				State:           models.MatchScheduled,
			}
			if err := tx.Matches().Create(ctx, m); err != nil {
				return 0, handleRepositoryError(err, "creating match")
			}
		}
		total += len(pairings)
	}
	return total, nil
}

func (s *groupService) ConfigureGroups(ctx context.Context, tournamentID int, params ConfigureGroupsParams) ([]*models.Group, error) {
	var (
		groups []*models.Group
		stage  *models.Stage
	)
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		if _, err := tx.Tournaments().GetByIDForUpdate(ctx, tournamentID); err != nil {
			return handleRepositoryError(err, "loading tournament")
		}
		var err error
		stage, err = groupStage(ctx, tx, tournamentID, params.StageID)
		if err != nil {
			return err
		}
		pool, err := stagePool(ctx, tx, stage)
		if err != nil {
			return err
		}
		groups, err = configureGroupsTx(ctx, tx, stage, len(pool), params.GroupSettings)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Groups configured",
		slog.Int("tournament_id", tournamentID), slog.Int("stage_id", stage.ID), slog.Int("groups", len(groups)))
	publishAll(ctx, s.publisher, s.logger, []events.Event{
		newEvent(events.GroupsConfigured, tournamentID, intPtr(stage.ID), nil, groups),
	})
	return groups, nil
}

func (s *groupService) DrawGroups(ctx context.Context, tournamentID int, params DrawParams) (*DrawResult, error) {
	var result *DrawResult
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		if _, err := tx.Tournaments().GetByIDForUpdate(ctx, tournamentID); err != nil {
			return handleRepositoryError(err, "loading tournament")
		}
		stage, err := groupStage(ctx, tx, tournamentID, params.StageID)
		if err != nil {
			if errors.Is(err, ErrInvalidConfiguration) {
				return fmt.Errorf("%w: %w", ErrNoGroupsConfigured, err)
			}
			return err
		}
		pool, err := stagePool(ctx, tx, stage)
		if err != nil {
			return err
		}
		result, err = drawGroupsTx(ctx, tx, stage, pool, params)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Groups drawn",
		slog.Int("tournament_id", tournamentID),
		slog.Int("stage_id", result.StageID),
		slog.String("strategy", string(result.Strategy)),
		slog.String("hash", result.Hash))
	publishAll(ctx, s.publisher, s.logger, []events.Event{
		newEvent(events.GroupsDrawn, tournamentID, intPtr(result.StageID), nil, map[string]interface{}{
			"strategy": result.Strategy,
			"seed":     result.Seed,
			"hash":     result.Hash,
		}),
	})
	return result, nil
}

func (s *groupService) GenerateGroupMatches(ctx context.Context, stageID int) (int, error) {
	var (
		count int
		stage *models.Stage
	)
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		var err error
		stage, err = tx.Stages().GetByID(ctx, stageID)
		if err != nil {
			return handleRepositoryError(err, "loading stage")
		}
		if _, err := tx.Tournaments().GetByIDForUpdate(ctx, stage.TournamentID); err != nil {
			return handleRepositoryError(err, "locking tournament")
		}
		if stage.Format != models.StageRoundRobin {
			return fmt.Errorf("%w: stage %d is %s", ErrInvalidConfiguration, stage.ID, stage.Format)
		}
		count, err = generateGroupMatchesTx(ctx, tx, stage)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Group matches generated", slog.Int("stage_id", stageID), slog.Int("matches", count))
	publishAll(ctx, s.publisher, s.logger, []events.Event{
		newEvent(events.MatchesGenerated, stage.TournamentID, intPtr(stage.ID), nil, map[string]int{"count": count}),
	})
	return count, nil
}

func (s *groupService) ListGroups(ctx context.Context, stageID int) ([]*models.Group, error) {
	if _, err := s.store.Stages().GetByID(ctx, stageID); err != nil {
		return nil, handleRepositoryError(err, "loading stage")
	}
	groups, err := s.store.Groups().ListByStage(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing groups")
	}
	return groups, nil
}
