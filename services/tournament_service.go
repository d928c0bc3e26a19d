package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
	"github.com/Dosada05/tournament-stages/rulesets"
)

type CreateTournamentInput struct {
	Name              string                   `json:"name"`
	GameSlug          string                   `json:"game_slug"`
	Format            models.TournamentFormat  `json:"format"`
	ParticipationMode models.ParticipationMode `json:"participation_mode"`
}

// RegisterParticipantInput names a user for individual tournaments and a team
// for team tournaments.
type RegisterParticipantInput struct {
	UserID *int                      `json:"user_id,omitempty"`
	TeamID *int                      `json:"team_id,omitempty"`
	Seed   *int                      `json:"seed,omitempty"`
	Status *models.ParticipantStatus `json:"status,omitempty"`
}

type UpdateParticipantInput struct {
	Seed   *int                      `json:"seed,omitempty"`
	Status *models.ParticipantStatus `json:"status,omitempty"`
}

// TournamentService manages the roster the stage engine draws from. The roster
// can only change while the tournament is a draft.
type TournamentService interface {
	CreateTournament(ctx context.Context, in CreateTournamentInput) (*models.Tournament, error)
	GetTournament(ctx context.Context, id int) (*models.Tournament, error)
	RegisterParticipant(ctx context.Context, tournamentID int, in RegisterParticipantInput) (*models.Participant, error)
	UpdateParticipant(ctx context.Context, participantID int, in UpdateParticipantInput) (*models.Participant, error)
	ListParticipants(ctx context.Context, tournamentID int) ([]*models.Participant, error)
}

type tournamentService struct {
	store  repositories.Store
	rules  rulesets.Resolver
	logger *slog.Logger
}

func NewTournamentService(store repositories.Store, rules rulesets.Resolver, logger *slog.Logger) TournamentService {
	return &tournamentService{store: store, rules: rules, logger: logger}
}

func (s *tournamentService) CreateTournament(ctx context.Context, in CreateTournamentInput) (*models.Tournament, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: tournament name is required", ErrValidationFailed)
	}
	if !in.Format.IsValid() {
		return nil, fmt.Errorf("%w: unknown tournament format %q", ErrValidationFailed, in.Format)
	}
	if in.ParticipationMode == "" {
		in.ParticipationMode = models.ParticipationIndividual
	}
	if !in.ParticipationMode.IsValid() {
		return nil, fmt.Errorf("%w: unknown participation mode %q", ErrValidationFailed, in.ParticipationMode)
	}
	if strings.TrimSpace(in.GameSlug) == "" {
		return nil, fmt.Errorf("%w: game_slug is required", ErrValidationFailed)
	}
	if _, err := s.rules.Resolve(in.GameSlug); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	t := &models.Tournament{
		Name:              name,
		GameSlug:          in.GameSlug,
		Format:            in.Format,
		ParticipationMode: in.ParticipationMode,
		Status:            models.StatusDraft,
	}
	if err := s.store.Tournaments().Create(ctx, t); err != nil {
		return nil, handleRepositoryError(err, "creating tournament")
	}
	s.logger.InfoContext(ctx, "Tournament created",
		slog.Int("tournament_id", t.ID), slog.String("game", t.GameSlug))
	return t, nil
}

func (s *tournamentService) GetTournament(ctx context.Context, id int) (*models.Tournament, error) {
	t, err := s.store.Tournaments().GetByID(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "loading tournament")
	}
	stages, err := s.store.Stages().ListByTournament(ctx, id)
	if err != nil {
		return nil, handleRepositoryError(err, "listing stages")
	}
	t.Stages = make([]models.Stage, len(stages))
	for i, st := range stages {
		t.Stages[i] = *st
	}
	return t, nil
}

func (s *tournamentService) RegisterParticipant(ctx context.Context, tournamentID int, in RegisterParticipantInput) (*models.Participant, error) {
	if (in.UserID == nil) == (in.TeamID == nil) {
		return nil, fmt.Errorf("%w: exactly one of user_id and team_id is required", ErrValidationFailed)
	}
	if err := validateRosterFields(in.Seed, in.Status); err != nil {
		return nil, err
	}

	p := &models.Participant{
		TournamentID: tournamentID,
		UserID:       in.UserID,
		TeamID:       in.TeamID,
		Seed:         in.Seed,
		Status:       models.ParticipantPending,
	}
	if in.Status != nil {
		p.Status = *in.Status
	}

	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		t, err := tx.Tournaments().GetByIDForUpdate(ctx, tournamentID)
		if err != nil {
			return handleRepositoryError(err, "loading tournament")
		}
		if err := rosterOpen(ctx, tx, t); err != nil {
			return err
		}
		if (t.ParticipationMode == models.ParticipationTeam) != p.IsTeam() {
			return fmt.Errorf("%w: tournament %d is %s", ErrValidationFailed, t.ID, t.ParticipationMode)
		}
		if err := tx.Participants().Create(ctx, p); err != nil {
			return handleRepositoryError(err, "registering participant")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Participant registered",
		slog.Int("tournament_id", tournamentID), slog.Int("participant_id", p.ID))
	return p, nil
}

func (s *tournamentService) UpdateParticipant(ctx context.Context, participantID int, in UpdateParticipantInput) (*models.Participant, error) {
	if err := validateRosterFields(in.Seed, in.Status); err != nil {
		return nil, err
	}

	var p *models.Participant
	err := s.store.RunInTx(ctx, func(tx repositories.Repositories) error {
		var err error
		p, err = tx.Participants().GetByID(ctx, participantID)
		if err != nil {
			return handleRepositoryError(err, "loading participant")
		}
		t, err := tx.Tournaments().GetByIDForUpdate(ctx, p.TournamentID)
		if err != nil {
			return handleRepositoryError(err, "loading tournament")
		}
		if err := rosterOpen(ctx, tx, t); err != nil {
			return err
		}
		if in.Seed != nil {
			p.Seed = in.Seed
		}
		if in.Status != nil {
			p.Status = *in.Status
		}
		if err := tx.Participants().Update(ctx, p); err != nil {
			return handleRepositoryError(err, "updating participant")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *tournamentService) ListParticipants(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	if _, err := s.store.Tournaments().GetByID(ctx, tournamentID); err != nil {
		return nil, handleRepositoryError(err, "loading tournament")
	}
	participants, err := s.store.Participants().ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "listing participants")
	}
	return participants, nil
}

func validateRosterFields(seed *int, status *models.ParticipantStatus) error {
	if seed != nil && *seed <= 0 {
		return fmt.Errorf("%w: seed must be positive", ErrValidationFailed)
	}
	if status != nil && !status.IsValid() {
		return fmt.Errorf("%w: unknown participant status %q", ErrValidationFailed, *status)
	}
	return nil
}

// rosterOpen allows roster changes only on a draft tournament whose stages have
// no groups yet. Configured group capacities are sized from the roster.
func rosterOpen(ctx context.Context, tx repositories.Repositories, t *models.Tournament) error {
	if t.Status != models.StatusDraft {
		return &StateError{Entity: "tournament", ID: t.ID, Expected: []string{string(models.StatusDraft)},
			Actual: string(t.Status), Err: ErrInvalidStageState}
	}
	stages, err := tx.Stages().ListByTournament(ctx, t.ID)
	if err != nil {
		return handleRepositoryError(err, "listing stages")
	}
	for _, stage := range stages {
		groups, err := tx.Groups().ListByStage(ctx, stage.ID)
		if err != nil {
			return handleRepositoryError(err, "listing groups")
		}
		if len(groups) > 0 {
			return fmt.Errorf("%w: stage %d already has groups configured", ErrInvalidStageState, stage.ID)
		}
	}
	return nil
}
