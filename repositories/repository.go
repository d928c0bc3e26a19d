package repositories

import (
	"context"
	"errors"

	"github.com/Dosada05/tournament-stages/models"
)

var (
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrStageNotFound       = errors.New("stage not found")
	ErrGroupNotFound       = errors.New("group not found")
	ErrStandingNotFound    = errors.New("standing not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrDisputeNotFound     = errors.New("dispute not found")

	ErrStageOrderConflict     = errors.New("stage order already used in this tournament")
	ErrStandingConflict       = errors.New("participant already placed in this stage")
	ErrGroupCapacityExceeded  = errors.New("group capacity exceeded")
	ErrBracketUIDConflict     = errors.New("bracket match uid already used in this stage")
	ErrIdempotencyKeyRecorded = errors.New("idempotency key already recorded for this operation")
	ErrOpenDisputeExists      = errors.New("match already has an open dispute")
	ErrParticipantInvalid     = errors.New("participant reference is invalid")
)

type TournamentRepository interface {
	Create(ctx context.Context, t *models.Tournament) error
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	// GetByIDForUpdate locks the tournament row until the transaction ends. Stage
	// transitions take this lock so only one of them runs per tournament.
	GetByIDForUpdate(ctx context.Context, id int) (*models.Tournament, error)
	UpdateProgress(ctx context.Context, id int, status models.TournamentStatus, currentStageID *int) error
}

type ParticipantRepository interface {
	Create(ctx context.Context, p *models.Participant) error
	GetByID(ctx context.Context, id int) (*models.Participant, error)
	// ListConfirmed returns confirmed participants ordered by seed (unseeded
	// last), then id.
	ListConfirmed(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
	// Update writes seed and status.
	Update(ctx context.Context, p *models.Participant) error
}

type StageRepository interface {
	Create(ctx context.Context, s *models.Stage) error
	GetByID(ctx context.Context, id int) (*models.Stage, error)
	GetByOrder(ctx context.Context, tournamentID, order int) (*models.Stage, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error)
	Update(ctx context.Context, s *models.Stage) error
}

type GroupRepository interface {
	Create(ctx context.Context, g *models.Group) error
	GetByID(ctx context.Context, id int) (*models.Group, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Group, error)
	Update(ctx context.Context, g *models.Group) error
	DeleteByStage(ctx context.Context, stageID int) error
}

type StandingRepository interface {
	CreateBatch(ctx context.Context, rows []*models.Standing) error
	ListByGroup(ctx context.Context, groupID int) ([]*models.Standing, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Standing, error)
	// SaveResults overwrites the aggregated columns of every row.
	SaveResults(ctx context.Context, rows []*models.Standing) error
	DeleteByStage(ctx context.Context, stageID int) error
	// LockGroup serializes standings recomputation of one group until the
	// transaction ends.
	LockGroup(ctx context.Context, groupID int) error
}

type MatchRepository interface {
	Create(ctx context.Context, m *models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// GetByIDForUpdate locks the match row until the transaction ends.
	GetByIDForUpdate(ctx context.Context, id int) (*models.Match, error)
	ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error)
	ListByStage(ctx context.Context, stageID int) ([]*models.Match, error)
	// Update writes every mutable column and bumps Version.
	Update(ctx context.Context, m *models.Match) error
	DeleteByGroup(ctx context.Context, groupID int) error
}

type DisputeRepository interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetOpenByMatch(ctx context.Context, matchID int) (*models.Dispute, error)
	ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error)
	Update(ctx context.Context, d *models.Dispute) error
}

type IdempotencyRepository interface {
	Exists(ctx context.Context, matchID int, operation, key string) (bool, error)
	// Record fails with ErrIdempotencyKeyRecorded when the triple is already known.
	Record(ctx context.Context, rec *models.IdempotencyRecord) error
}

// Repositories is the set of repositories bound to one executor: the pool or a
// single transaction.
type Repositories interface {
	Tournaments() TournamentRepository
	Participants() ParticipantRepository
	Stages() StageRepository
	Groups() GroupRepository
	Standings() StandingRepository
	Matches() MatchRepository
	Disputes() DisputeRepository
	Idempotency() IdempotencyRepository
}

// Store runs fn inside one transaction. fn must only use the repositories it is
// handed; any error rolls everything back.
type Store interface {
	Repositories
	RunInTx(ctx context.Context, fn func(tx Repositories) error) error
}
