package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/Dosada05/tournament-stages/brackets"
	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
	"github.com/Dosada05/tournament-stages/rulesets"
	"github.com/Dosada05/tournament-stages/standings"
)

// StageSpec describes one stage to append to a tournament.
type StageSpec struct {
	Name        string                   `json:"name"`
	Format      models.StageFormat       `json:"format"`
	Advancement models.AdvancementPolicy `json:"advancement"`
	Settings    *models.StageSettings    `json:"settings,omitempty"`
}

// AdvancementResult holds two disjoint lists. Advanced is ordered as the seeding
// input of the next stage.
type AdvancementResult struct {
	StageID    int   `json:"stage_id"`
	Advanced   []int `json:"advanced"`
	Eliminated []int `json:"eliminated"`
}

// NextStageResult is either the newly active stage or, with Terminal set, the
// last stage of the tournament.
type NextStageResult struct {
	Stage    *models.Stage `json:"stage"`
	Terminal bool          `json:"terminal"`
	Matches  int           `json:"matches_created"`
}

type StageService interface {
	CreateStages(ctx context.Context, tournamentID int, specs []StageSpec) ([]*models.Stage, error)
	GetStage(ctx context.Context, stageID int) (*models.Stage, error)
	ListStages(ctx context.Context, tournamentID int) ([]*models.Stage, error)
	StartStage(ctx context.Context, stageID int) (*models.Stage, error)
	CompleteStage(ctx context.Context, stageID int) (*AdvancementResult, error)
	CalculateAdvancement(ctx context.Context, stageID int) (*AdvancementResult, error)
	GenerateNextStage(ctx context.Context, stageID int) (*NextStageResult, error)
	GenerateSwissRound(ctx context.Context, stageID int) (int, error)
}

type stageService struct {
	store     repositories.Store
	rules     rulesets.Resolver
	publisher events.Publisher
	logger    *slog.Logger
}

func NewStageService(store repositories.Store, rules rulesets.Resolver, publisher events.Publisher, logger *slog.Logger) StageService {
	return &stageService{store: store, rules: rules, publisher: publisher, logger: logger}
}

// validateStageSpec normalizes spec in place and returns how many participants
// leave the stage. pool is the number entering it, zero when not known yet.
func validateStageSpec(spec *StageSpec, order, pool int) (int, error) {
	if !spec.Format.IsValid() {
		return 0, fmt.Errorf("%w: unknown stage format %q", ErrInvalidConfiguration, spec.Format)
	}
	if spec.Name == "" {
		spec.Name = fmt.Sprintf("Stage %d", order)
	}
	if spec.Settings == nil {
		spec.Settings = &models.StageSettings{}
	}
	settings := spec.Settings
	policy := &spec.Advancement

	if policy.Type == "" {
		switch spec.Format {
		case models.StageRoundRobin:
			policy.Type = models.AdvanceTopNPerGroup
		case models.StageSingleElimination:
			policy.Type, policy.Count = models.AdvanceTopNOverall, 1
		case models.StageSwiss:
			policy.Type = models.AdvanceAll
		}
	}
	if policy.Count < 0 {
		return 0, fmt.Errorf("%w: advancement count must not be negative", ErrInvalidConfiguration)
	}

	switch spec.Format {
	case models.StageRoundRobin:
		if settings.GroupCount < 1 {
			return 0, fmt.Errorf("%w: a round-robin stage needs at least one group", ErrInvalidConfiguration)
		}
		if policy.Type == models.AdvanceTopNPerGroup {
			switch {
			case policy.Count == 0:
				policy.Count = settings.AdvancementPerGroup
			case settings.AdvancementPerGroup == 0:
				settings.AdvancementPerGroup = policy.Count
			case policy.Count != settings.AdvancementPerGroup:
				return 0, fmt.Errorf("%w: advancement per group given as both %d and %d",
					ErrInvalidConfiguration, policy.Count, settings.AdvancementPerGroup)
			}
			if policy.Count == 0 {
				return 0, fmt.Errorf("%w: top_n_per_group needs a count", ErrInvalidConfiguration)
			}
		}
		if pool > 0 {
			_, err := validateGroupSettings(GroupSettings{
				GroupCount:       settings.GroupCount,
				AdvancementCount: settings.AdvancementPerGroup,
				Points:           settings.Points,
				Tiebreakers:      settings.Tiebreakers,
				MatchFormat:      settings.MatchFormat,
			}, pool)
			if err != nil {
				return 0, err
			}
		}
	case models.StageSingleElimination, models.StageSwiss:
		if policy.Type == models.AdvanceTopNPerGroup {
			return 0, fmt.Errorf("%w: %s stages have no groups", ErrInvalidConfiguration, spec.Format)
		}
		if pool > 0 && pool < 2 {
			return 0, fmt.Errorf("%w: %s needs at least 2 participants, %d expected", ErrInvalidConfiguration, spec.Format, pool)
		}
		if spec.Format == models.StageSwiss {
			if settings.SwissRounds < 0 || (pool > 0 && settings.SwissRounds > pool-1) {
				return 0, fmt.Errorf("%w: %d swiss rounds for %d participants", ErrInvalidConfiguration, settings.SwissRounds, pool)
			}
		}
	}
	for _, tb := range settings.Tiebreakers {
		if !tb.IsValid() {
			return 0, fmt.Errorf("%w: unknown tiebreaker %q", ErrInvalidConfiguration, tb)
		}
	}

	switch policy.Type {
	case models.AdvanceAll:
		return pool, nil
	case models.AdvanceTopNOverall:
		if policy.Count == 0 {
			return 0, fmt.Errorf("%w: top_n_overall needs a count", ErrInvalidConfiguration)
		}
		if pool > 0 && policy.Count > pool {
			return 0, fmt.Errorf("%w: %d advance out of %d participants", ErrInvalidConfiguration, policy.Count, pool)
		}
		return policy.Count, nil
	case models.AdvanceTopNPerGroup:
		if pool == 0 {
			return 0, nil
		}
		return policy.Count * settings.GroupCount, nil
	}
	return 0, fmt.Errorf("%w: unknown advancement policy %q", ErrInvalidConfiguration, policy.Type)
}

func (s *stageService) CreateStages(ctx context.Context, tournamentID int, specs []StageSpec) ([]*models.Stage, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no stages given", ErrInvalidConfiguration)
	}
	created := make([]*models.Stage, 0, len(specs))
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		if _, err := tx.Tournaments().GetByIDForUpdate(ctx, tournamentID); err != nil {
			return handleRepositoryError(err, "loading tournament")
		}
		existing, err := tx.Stages().ListByTournament(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "listing stages")
		}

		order, pool := 1, 0
		if len(existing) == 0 {
			_, roster, err := participantIndex(ctx, tx, tournamentID)
			if err != nil {
				return err
			}
			pool = len(roster)
		} else {
			last := existing[len(existing)-1]
			order = last.Order + 1
			if last.IsTerminalState() {
				pool = len(last.AdvancedIDs)
			}
		}

		for i := range specs {
			spec := specs[i]
			out, err := validateStageSpec(&spec, order, pool)
			if err != nil {
				return fmt.Errorf("stage %d: %w", order, err)
			}
			stage := &models.Stage{
				TournamentID: tournamentID,
				Name:         spec.Name,
				Order:        order,
				Format:       spec.Format,
				Advancement:  spec.Advancement,
				State:        models.StagePending,
			}
			if err := stage.SetSettings(spec.Settings); err != nil {
				return err
			}
			if err := tx.Stages().Create(ctx, stage); err != nil {
				return handleRepositoryError(err, "creating stage")
			}
			created = append(created, stage)
			order++
			pool = out
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Stages created", slog.Int("tournament_id", tournamentID), slog.Int("count", len(created)))
	return created, nil
}

func (s *stageService) GetStage(ctx context.Context, stageID int) (*models.Stage, error) {
	stage, err := s.store.Stages().GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "loading stage")
	}
	groups, err := s.store.Groups().ListByStage(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing groups")
	}
	stage.Groups = make([]models.Group, len(groups))
	for i, g := range groups {
		stage.Groups[i] = *g
	}
	if _, err := stage.GetSettings(); err != nil {
		return nil, fmt.Errorf("decoding stage settings: %w", err)
	}
	return stage, nil
}

func (s *stageService) ListStages(ctx context.Context, tournamentID int) ([]*models.Stage, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err, "loading tournament")
	}
	stages, err := s.store.Stages().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing stages")
	}
	return stages, nil
}

func activateStage(ctx context.Context, tx repositories.Repositories, stage *models.Stage) error {
	activatedAt := now()
	stage.State = models.StageActive
	stage.ActivatedAt = &activatedAt
	if err := tx.Stages().Update(ctx, stage); err != nil {
		return handleRepositoryError(err, "activating stage")
	}
	if err := tx.Tournaments().UpdateProgress(ctx, stage.TournamentID, models.StatusActive, intPtr(stage.ID)); err != nil {
		return handleRepositoryError(err, "moving tournament to stage")
	}
	return nil
}

func (s *stageService) StartStage(ctx context.Context, stageID int) (*models.Stage, error) {
	var (
		stage *models.Stage
		count int
	)
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		var err error
		stage, err = tx.Stages().GetByID(ctx, stageID)
		if err != nil {
			return handleRepositoryError(err, "loading stage")
		}
		_, rules, err := rulesFor(ctx, tx, s.rules, stage.TournamentID)
		if err != nil {
			return err
		}
		if _, err := tx.Tournaments().GetByIDForUpdate(ctx, stage.TournamentID); err != nil {
			return handleRepositoryError(err, "locking tournament")
		}
		if stage.State != models.StagePending {
			return stageStateError(ErrInvalidStageState, stage, models.StagePending)
		}

		stages, err := tx.Stages().ListByTournament(ctx, stage.TournamentID)
		if err != nil {
			return handleRepositoryError(err, "listing stages")
		}
		for _, other := range stages {
			if other.ID != stage.ID && other.State == models.StageActive {
				return fmt.Errorf("%w: stage %d is still active", ErrInvalidStageState, other.ID)
			}
			if other.Order == stage.Order-1 && !other.IsTerminalState() {
				return stageStateError(ErrInvalidStageState, other, models.StageCompleted)
			}
		}

		if needsPopulation(ctx, tx, stage) {
			pool, err := stagePool(ctx, tx, stage)
			if err != nil {
				return err
			}
			if count, err = populateStage(ctx, tx, rules, stage, pool); err != nil {
				return err
			}
		}
		return activateStage(ctx, tx, stage)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Stage started", slog.Int("stage_id", stage.ID), slog.Int("matches", count))
	evts := []events.Event{newEvent(events.StageActivated, stage.TournamentID, intPtr(stage.ID), nil, stage)}
	if count > 0 {
		evts = append(evts, newEvent(events.MatchesGenerated, stage.TournamentID, intPtr(stage.ID), nil, map[string]int{"count": count}))
	}
	publishAll(ctx, s.publisher, s.logger, evts)
	return stage, nil
}

// needsPopulation reports whether starting the stage should build its matches.
// The groups of a first round-robin stage are configured and drawn by the
// organizer instead.
func needsPopulation(ctx context.Context, tx repositories.Repositories, stage *models.Stage) bool {
	if stage.Format == models.StageRoundRobin {
		if stage.Order <= 1 {
			return false
		}
		groups, err := tx.Groups().ListByStage(ctx, stage.ID)
		return err == nil && len(groups) == 0
	}
	matches, err := tx.Matches().ListByStage(ctx, stage.ID)
	return err == nil && len(matches) == 0
}

// populateStage builds the matches of a stage from its entrants, strongest
// first.
func populateStage(ctx context.Context, tx repositories.Repositories, rules models.RuleSet, stage *models.Stage, pool []int) (int, error) {
	if len(pool) < 2 {
		return 0, fmt.Errorf("%w: %d participants enter stage %d", ErrNoParticipants, len(pool), stage.ID)
	}
	switch stage.Format {
	case models.StageSingleElimination:
		return seedEliminationTx(ctx, tx, stage, pool)
	case models.StageSwiss:
		return seedSwissTx(ctx, tx, rules, stage, pool)
	case models.StageRoundRobin:
		return seedGroupsTx(ctx, tx, stage, pool)
	}
	return 0, fmt.Errorf("%w: unknown stage format %q", ErrInvalidConfiguration, stage.Format)
}

func seedGroupsTx(ctx context.Context, tx repositories.Repositories, stage *models.Stage, pool []int) (int, error) {
	settings, err := stage.GetSettings()
	if err != nil {
		return 0, fmt.Errorf("%w: stage settings: %w", ErrInvalidConfiguration, err)
	}
	gs := GroupSettings{
		GroupCount:       settings.GroupCount,
		AdvancementCount: settings.AdvancementPerGroup,
		Points:           settings.Points,
		Tiebreakers:      settings.Tiebreakers,
		MatchFormat:      settings.MatchFormat,
	}
	if gs.GroupCount == 0 {
		gs.GroupCount = max(1, len(pool)/4)
	}
	if _, err := configureGroupsTx(ctx, tx, stage, len(pool), gs); err != nil {
		return 0, err
	}
	if _, err := drawGroupsTx(ctx, tx, stage, pool, DrawParams{Strategy: models.DrawSeeded}); err != nil {
		return 0, err
	}
	return generateGroupMatchesTx(ctx, tx, stage)
}

// seedEliminationTx persists a seeded bracket. Bye matches are not stored:
// their participant already sits in the round 2 slot.
func seedEliminationTx(ctx context.Context, tx repositories.Repositories, stage *models.Stage, pool []int) (int, error) {
	generator := brackets.NewSingleEliminationGenerator()
	generated, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		Participants: pool,
		UIDPrefix:    fmt.Sprintf("S%d_", stage.ID),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, generator.GetName(), err)
	}

	byUID := make(map[string]*models.Match, len(generated))
	for _, bm := range generated {
		if bm.IsBye {
			continue
		}
		m := &models.Match{
			TournamentID:    stage.TournamentID,
			StageID:         intPtr(stage.ID),
			Round:           bm.Round,
			OrderInRound:    bm.OrderInRound,
			BracketMatchUID: strPtr(bm.UID),
			P1ParticipantID: bm.Participant1ID,
			P2ParticipantID: bm.Participant2ID,
			State:           models.MatchScheduled,
		}
		if err := tx.Matches().Create(ctx, m); err != nil {
			return 0, handleRepositoryError(err, "creating bracket match")
		}
		byUID[bm.UID] = m
	}

	for _, bm := range generated {
		if bm.IsBye {
			continue
		}
		target := byUID[bm.UID]
		for slot, src := range []*string{bm.SourceMatch1UID, bm.SourceMatch2UID} {
			if src == nil {
				continue
			}
			source, ok := byUID[*src]
			if !ok {
				return 0, fmt.Errorf("bracket match %s feeds from unknown match %s", bm.UID, *src)
			}
			source.NextMatchID = intPtr(target.ID)
			source.WinnerToSlot = intPtr(slot + 1)
			if err := tx.Matches().Update(ctx, source); err != nil {
				return 0, handleRepositoryError(err, "linking bracket match")
			}
		}
	}
	return len(byUID), nil
}

func swissRoundsFor(participants int) int {
	rounds := 0
	for (1 << rounds) < participants {
		rounds++
	}
	return max(rounds, 1)
}

func advancementCountFor(policy models.AdvancementPolicy, pool int) int {
	if policy.Type == models.AdvanceAll {
		return pool
	}
	return min(policy.Count, pool)
}

func seedSwissTx(ctx context.Context, tx repositories.Repositories, rules models.RuleSet, stage *models.Stage, pool []int) (int, error) {
	existing, err := tx.Groups().ListByStage(ctx, stage.ID)
	if err != nil {
		return 0, handleRepositoryError(err, "listing groups")
	}
	if len(existing) > 0 {
		return 0, fmt.Errorf("%w: swiss stage %d is already seeded", ErrInvalidStageState, stage.ID)
	}

	settings, err := stage.GetSettings()
	if err != nil {
		return 0, fmt.Errorf("%w: stage settings: %w", ErrInvalidConfiguration, err)
	}
	if settings.SwissRounds == 0 {
		settings.SwissRounds = swissRoundsFor(len(pool))
	}
	if err := stage.SetSettings(settings); err != nil {
		return 0, err
	}
	if err := tx.Stages().Update(ctx, stage); err != nil {
		return 0, handleRepositoryError(err, "saving swiss settings")
	}

	var points models.PointsSystem
	if settings.Points != nil {
		points = *settings.Points
	}
	strategy := models.DrawSeeded
	var seed int64
	hash := brackets.DrawHash(string(strategy), seed, [][]int{pool})
	group := &models.Group{
		StageID:                 stage.ID,
		TournamentID:            stage.TournamentID,
		Name:                    "Swiss",
		Capacity:                len(pool),
		AdvancementCount:        advancementCountFor(stage.Advancement, len(pool)),
		CurrentParticipantCount: len(pool),
		DrawStrategy:            &strategy,
		DrawSeed:                &seed,
		DrawHash:                &hash,
		IsFinalized:             true,
		Points:                  points,
		Tiebreakers:             settings.Tiebreakers,
		MatchFormat:             settings.MatchFormat,
	}
	if err := tx.Groups().Create(ctx, group); err != nil {
		return 0, handleRepositoryError(err, "creating swiss pool")
	}

	index, _, err := participantIndex(ctx, tx, stage.TournamentID)
	if err != nil {
		return 0, err
	}
	rows, err := newStandings(ctx, tx, index, group, pool)
	if err != nil {
		return 0, err
	}
	if err := tx.Standings().CreateBatch(ctx, rows); err != nil {
		return 0, handleRepositoryError(err, "creating swiss standings")
	}

	count, err := createSwissRoundTx(ctx, tx, stage, group, 1, pool, nil, nil)
	if err != nil {
		return 0, err
	}
	if _, err := recomputeGroup(ctx, tx, rules, stage, group); err != nil {
		return 0, err
	}
	return count, nil
}

// createSwissRoundTx stores one Swiss round. A bye is stored as a completed
// match with an empty second slot so standings credit it as a win.
func createSwissRoundTx(ctx context.Context, tx repositories.Repositories, stage *models.Stage, group *models.Group, round int, ranked []int, played map[brackets.PairKey]bool, hadBye map[int]bool) (int, error) {
	generator := brackets.NewSwissGenerator(round, played, hadBye)
	generated, err := generator.GenerateBracket(ctx, brackets.GenerateBracketParams{
		Participants: ranked,
		UIDPrefix:    fmt.Sprintf("S%d_", stage.ID),
	})
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %w", ErrInvalidConfiguration, generator.GetName(), err)
	}
	for _, bm := range generated {
		m := &models.Match{
			TournamentID:    stage.TournamentID,
			StageID:         intPtr(stage.ID),
			GroupID:         intPtr(group.ID),
			Round:           bm.Round,
			OrderInRound:    bm.OrderInRound,
			BracketMatchUID: strPtr(bm.UID),
			P1ParticipantID: bm.Participant1ID,
			P2ParticipantID: bm.Participant2ID,
			State:           models.MatchScheduled,
		}
		if bm.IsBye {
			completedAt := now()
			m.State = models.MatchCompleted
			m.WinnerID = intPtr(*bm.ByeParticipantID)
			m.CompletedAt = &completedAt
		}
		if err := tx.Matches().Create(ctx, m); err != nil {
			return 0, handleRepositoryError(err, "creating swiss match")
		}
	}
	return len(generated), nil
}

func (s *stageService) GenerateSwissRound(ctx context.Context, stageID int) (int, error) {
	var (
		stage *models.Stage
		count int
		round int
	)
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		var err error
		stage, err = tx.Stages().GetByID(ctx, stageID)
		if err != nil {
			return handleRepositoryError(err, "loading stage")
		}
		_, rules, err := rulesFor(ctx, tx, s.rules, stage.TournamentID)
		if err != nil {
			return err
		}
		if _, err := tx.Tournaments().GetByIDForUpdate(ctx, stage.TournamentID); err != nil {
			return handleRepositoryError(err, "locking tournament")
		}
		if stage.Format != models.StageSwiss {
			return fmt.Errorf("%w: stage %d is %s", ErrInvalidConfiguration, stage.ID, stage.Format)
		}
		if stage.State != models.StageActive {
			return stageStateError(ErrInvalidStageState, stage, models.StageActive)
		}
		groups, err := tx.Groups().ListByStage(ctx, stage.ID)
		if err != nil {
			return handleRepositoryError(err, "listing groups")
		}
		if len(groups) != 1 {
			return fmt.Errorf("%w: swiss stage %d has %d pools", ErrNoGroupsConfigured, stage.ID, len(groups))
		}
		group := groups[0]

		matches, err := tx.Matches().ListByGroup(ctx, group.ID)
		if err != nil {
			return handleRepositoryError(err, "listing swiss matches")
		}
		current := lastRound(matches)
		for _, m := range matches {
			if m.Round == current && !m.State.IsTerminal() {
				return fmt.Errorf("%w: round %d still has unfinished matches", ErrInvalidStageState, current)
			}
		}
		settings, err := stage.GetSettings()
		if err != nil {
			return fmt.Errorf("%w: stage settings: %w", ErrInvalidConfiguration, err)
		}
		if current >= settings.SwissRounds {
			return fmt.Errorf("%w: all %d swiss rounds are generated", ErrInvalidStageState, settings.SwissRounds)
		}

		ranked, err := recomputeGroup(ctx, tx, rules, stage, group)
		if err != nil {
			return err
		}
		played := make(map[brackets.PairKey]bool, len(matches))
		hadBye := make(map[int]bool)
		for _, m := range matches {
			switch {
			case m.P1ParticipantID != nil && m.P2ParticipantID != nil:
				played[brackets.NewPairKey(*m.P1ParticipantID, *m.P2ParticipantID)] = true
			case m.P1ParticipantID != nil:
				hadBye[*m.P1ParticipantID] = true
			}
		}
		order := make([]int, len(ranked))
		for i, row := range ranked {
			order[i] = row.ParticipantID
		}

		round = current + 1
		if count, err = createSwissRoundTx(ctx, tx, stage, group, round, order, played, hadBye); err != nil {
			return err
		}
		_, err = recomputeGroup(ctx, tx, rules, stage, group)
		return err
	})
	if err != nil {
		return 0, err
	}

	s.logger.InfoContext(ctx, "Swiss round generated", slog.Int("stage_id", stageID), slog.Int("round", round), slog.Int("matches", count))
	publishAll(ctx, s.publisher, s.logger, []events.Event{
		newEvent(events.MatchesGenerated, stage.TournamentID, intPtr(stage.ID), nil, map[string]int{"round": round, "count": count}),
		newEvent(events.StandingsUpdated, stage.TournamentID, intPtr(stage.ID), nil, nil),
	})
	return count, nil
}

// completeStageTx requires every match to be terminal, recomputes the final
// standings and stores the advancement lists. The tournament completes with
// its last stage.
func completeStageTx(ctx context.Context, tx repositories.Repositories, rules models.RuleSet, stage *models.Stage) (*AdvancementResult, error) {
	matches, err := tx.Matches().ListByStage(ctx, stage.ID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing stage matches")
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("%w: stage %d has no matches", ErrStageNotCompleted, stage.ID)
	}
	unfinished := 0
	for _, m := range matches {
		if !m.State.IsTerminal() {
			unfinished++
		}
	}
	if unfinished > 0 {
		return nil, fmt.Errorf("%w: %d of %d matches of stage %d are unfinished",
			ErrStageNotCompleted, unfinished, len(matches), stage.ID)
	}
	if stage.Format == models.StageSwiss {
		settings, err := stage.GetSettings()
		if err != nil {
			return nil, fmt.Errorf("%w: stage settings: %w", ErrInvalidConfiguration, err)
		}
		if played := lastRound(matches); played < settings.SwissRounds {
			return nil, fmt.Errorf("%w: swiss round %d of %d", ErrStageNotCompleted, played, settings.SwissRounds)
		}
	}

	completedAt := now()
	stage.State = models.StageCompleted
	stage.CompletedAt = &completedAt

	var adv *AdvancementResult
	if stage.Format == models.StageSingleElimination {
		pool, err := stagePool(ctx, tx, stage)
		if err != nil {
			return nil, err
		}
		adv = eliminationAdvancement(stage, matches, pool)
	} else {
		groups, err := tx.Groups().ListByStage(ctx, stage.ID)
		if err != nil {
			return nil, handleRepositoryError(err, "listing groups")
		}
		if len(groups) == 0 {
			return nil, fmt.Errorf("%w: stage %d", ErrNoGroupsConfigured, stage.ID)
		}
		rowsByGroup := make(map[int][]*models.Standing, len(groups))
		for _, g := range groups {
			ranked, err := recomputeGroup(ctx, tx, rules, stage, g)
			if err != nil {
				return nil, err
			}
			rowsByGroup[g.ID] = ranked
		}
		if adv, err = groupAdvancement(stage, groups, rowsByGroup, matches, rules); err != nil {
			return nil, err
		}
	}

	stage.AdvancedIDs = adv.Advanced
	stage.EliminatedIDs = adv.Eliminated
	if err := tx.Stages().Update(ctx, stage); err != nil {
		return nil, handleRepositoryError(err, "completing stage")
	}

	_, err = tx.Stages().GetByOrder(ctx, stage.TournamentID, stage.Order+1)
	switch {
	case errors.Is(err, repositories.ErrStageNotFound):
		if err := tx.Tournaments().UpdateProgress(ctx, stage.TournamentID, models.StatusCompleted, intPtr(stage.ID)); err != nil {
			return nil, handleRepositoryError(err, "completing tournament")
		}
	case err != nil:
		return nil, handleRepositoryError(err, "loading next stage")
	}
	return adv, nil
}

// groupAdvancement applies the stage policy to ranked group standings.
// Candidates are ordered by group rank, then group display order, so every
// group winner precedes every runner-up.
func groupAdvancement(stage *models.Stage, groups []*models.Group, rowsByGroup map[int][]*models.Standing, matches []*models.Match, rules models.RuleSet) (*AdvancementResult, error) {
	longest := 0
	limit := make(map[int]int, len(groups))
	for _, g := range groups {
		longest = max(longest, len(rowsByGroup[g.ID]))
		limit[g.ID] = g.AdvancementCount
	}
	ordered := make([]*models.Standing, 0)
	for r := 0; r < longest; r++ {
		for _, g := range groups {
			if rows := rowsByGroup[g.ID]; r < len(rows) {
				ordered = append(ordered, rows[r])
			}
		}
	}

	var advanced []*models.Standing
	policy := stage.Advancement
	switch policy.Type {
	case models.AdvanceAll:
		advanced = ordered
	case models.AdvanceTopNOverall:
		cfg := standings.ConfigFor(groups[0], rules)
		pooled, err := standings.Rank(ordered, matches, cfg.Tiebreakers, rules.ScoringType, cfg.Points)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		advanced = pooled[:min(policy.Count, len(pooled))]
	default:
		for _, row := range ordered {
			n := limit[row.GroupID]
			if policy.Count > 0 {
				n = policy.Count
			}
			if row.Rank != nil && *row.Rank <= n {
				advanced = append(advanced, row)
			}
		}
	}

	result := &AdvancementResult{StageID: stage.ID, Advanced: make([]int, 0, len(advanced)), Eliminated: make([]int, 0)}
	in := make(map[int]bool, len(advanced))
	for _, row := range advanced {
		in[row.ParticipantID] = true
		result.Advanced = append(result.Advanced, row.ParticipantID)
	}
	for _, row := range ordered {
		if !in[row.ParticipantID] {
			result.Eliminated = append(result.Eliminated, row.ParticipantID)
		}
	}
	return result, nil
}

// eliminationAdvancement ranks bracket entrants by the furthest round reached,
// the champion above the other finalist, ties kept in seed order.
func eliminationAdvancement(stage *models.Stage, matches []*models.Match, pool []int) *AdvancementResult {
	reached := make(map[int]int, len(pool))
	final := matches[0]
	for _, m := range matches {
		if m.Round > final.Round {
			final = m
		}
		for _, p := range []*int{m.P1ParticipantID, m.P2ParticipantID} {
			if p != nil {
				reached[*p] = max(reached[*p], m.Round)
			}
		}
	}
	if final.WinnerID != nil {
		reached[*final.WinnerID] = final.Round + 1
	}

	ordered := make([]int, len(pool))
	copy(ordered, pool)
	sort.SliceStable(ordered, func(i, j int) bool { return reached[ordered[i]] > reached[ordered[j]] })

	n := len(ordered)
	if stage.Advancement.Type != models.AdvanceAll {
		n = min(max(stage.Advancement.Count, 1), len(ordered))
	}
	result := &AdvancementResult{StageID: stage.ID, Advanced: make([]int, n), Eliminated: make([]int, len(ordered)-n)}
	copy(result.Advanced, ordered[:n])
	copy(result.Eliminated, ordered[n:])
	return result
}

func (s *stageService) CompleteStage(ctx context.Context, stageID int) (*AdvancementResult, error) {
	var (
		stage *models.Stage
		adv   *AdvancementResult
	)
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		var err error
		stage, err = tx.Stages().GetByID(ctx, stageID)
		if err != nil {
			return handleRepositoryError(err, "loading stage")
		}
		_, rules, err := rulesFor(ctx, tx, s.rules, stage.TournamentID)
		if err != nil {
			return err
		}
		if _, err := tx.Tournaments().GetByIDForUpdate(ctx, stage.TournamentID); err != nil {
			return handleRepositoryError(err, "locking tournament")
		}
		if stage.State != models.StageActive {
			return stageStateError(ErrInvalidStageState, stage, models.StageActive)
		}
		adv, err = completeStageTx(ctx, tx, rules, stage)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "Stage completed",
		slog.Int("stage_id", stageID), slog.Int("advanced", len(adv.Advanced)), slog.Int("eliminated", len(adv.Eliminated)))
	publishAll(ctx, s.publisher, s.logger, []events.Event{
		newEvent(events.StageCompleted, stage.TournamentID, intPtr(stage.ID), nil, adv),
	})
	return adv, nil
}

// CalculateAdvancement reads the advancement stored when the stage completed.
// It never mutates anything.
func (s *stageService) CalculateAdvancement(ctx context.Context, stageID int) (*AdvancementResult, error) {
	stage, err := s.store.Stages().GetByID(ctx, stageID)
	if err != nil {
		return nil, handleRepositoryError(err, "loading stage")
	}
	if stage.State != models.StageCompleted {
		return nil, stageStateError(ErrStageNotCompleted, stage, models.StageCompleted)
	}
	result := &AdvancementResult{
		StageID:    stage.ID,
		Advanced:   make([]int, len(stage.AdvancedIDs)),
		Eliminated: make([]int, len(stage.EliminatedIDs)),
	}
	copy(result.Advanced, stage.AdvancedIDs)
	copy(result.Eliminated, stage.EliminatedIDs)
	return result, nil
}

func (s *stageService) GenerateNextStage(ctx context.Context, stageID int) (*NextStageResult, error) {
	var (
		result NextStageResult
		evts   []events.Event
	)
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		evts = evts[:0]
		stage, err := tx.Stages().GetByID(ctx, stageID)
		if err != nil {
			return handleRepositoryError(err, "loading stage")
		}
		_, rules, err := rulesFor(ctx, tx, s.rules, stage.TournamentID)
		if err != nil {
			return err
		}
		if _, err := tx.Tournaments().GetByIDForUpdate(ctx, stage.TournamentID); err != nil {
			return handleRepositoryError(err, "locking tournament")
		}

		switch stage.State {
		case models.StagePending:
			return stageStateError(ErrStageNotCompleted, stage, models.StageCompleted)
		case models.StageActive:
			adv, err := completeStageTx(ctx, tx, rules, stage)
			if err != nil {
				return err
			}
			evts = append(evts, newEvent(events.StageCompleted, stage.TournamentID, intPtr(stage.ID), nil, adv))
		}

		next, err := tx.Stages().GetByOrder(ctx, stage.TournamentID, stage.Order+1)
		if errors.Is(err, repositories.ErrStageNotFound) {
			result = NextStageResult{Stage: stage, Terminal: true}
			return nil
		}
		if err != nil {
			return handleRepositoryError(err, "loading next stage")
		}
		if next.State != models.StagePending {
			return stageStateError(ErrInvalidStageState, next, models.StagePending)
		}

		pool := make([]int, len(stage.AdvancedIDs))
		copy(pool, stage.AdvancedIDs)
		count, err := populateStage(ctx, tx, rules, next, pool)
		if err != nil {
			return err
		}
		if err := activateStage(ctx, tx, next); err != nil {
			return err
		}
		result = NextStageResult{Stage: next, Matches: count}
		evts = append(evts,
			newEvent(events.StageActivated, next.TournamentID, intPtr(next.ID), nil, next),
			newEvent(events.MatchesGenerated, next.TournamentID, intPtr(next.ID), nil, map[string]int{"count": count}),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Terminal {
		s.logger.InfoContext(ctx, "No stage after this one", slog.Int("stage_id", stageID))
	} else {
		s.logger.InfoContext(ctx, "Next stage activated",
			slog.Int("from_stage_id", stageID), slog.Int("stage_id", result.Stage.ID), slog.Int("matches", result.Matches))
	}
	publishAll(ctx, s.publisher, s.logger, evts)
	return &result, nil
}
