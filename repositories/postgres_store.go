package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
)

type postgresRepositories struct {
	exec SQLExecutor
}

func (r postgresRepositories) Tournaments() TournamentRepository {
	return NewPostgresTournamentRepository(r.exec)
}
func (r postgresRepositories) Participants() ParticipantRepository {
	return NewPostgresParticipantRepository(r.exec)
}
func (r postgresRepositories) Stages() StageRepository  { return NewPostgresStageRepository(r.exec) }
func (r postgresRepositories) Groups() GroupRepository  { return NewPostgresGroupRepository(r.exec) }
func (r postgresRepositories) Matches() MatchRepository { return NewPostgresMatchRepository(r.exec) }
func (r postgresRepositories) Standings() StandingRepository {
	return NewPostgresStandingRepository(r.exec)
}
func (r postgresRepositories) Disputes() DisputeRepository {
	return NewPostgresDisputeRepository(r.exec)
}
func (r postgresRepositories) Idempotency() IdempotencyRepository {
	return NewPostgresIdempotencyRepository(r.exec)
}

// PostgresStore binds the repositories to the pool outside a transaction and to
// a *sql.Tx inside RunInTx.
type PostgresStore struct {
	postgresRepositories
	db     *sql.DB
	logger *slog.Logger
}

func NewPostgresStore(db *sql.DB, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{
		postgresRepositories: postgresRepositories{exec: db},
		db:                   db,
		logger:               logger,
	}
}

func (s *PostgresStore) RunInTx(ctx context.Context, fn func(tx Repositories) error) (txErr error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		} else if txErr != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				s.logger.ErrorContext(ctx, "Rollback failed", slog.Any("error", rbErr), slog.Any("cause", txErr))
				txErr = fmt.Errorf("%w (rollback also failed: %v)", txErr, rbErr)
			}
		} else if cErr := tx.Commit(); cErr != nil {
			txErr = fmt.Errorf("failed to commit transaction: %w", cErr)
		}
	}()

	txErr = fn(postgresRepositories{exec: tx})
	return txErr
}
