package models

import "time"

// TournamentStatus mirrors the tournament_status enum in the database.
type TournamentStatus string

const (
	StatusDraft     TournamentStatus = "draft"
	StatusActive    TournamentStatus = "active"
	StatusCompleted TournamentStatus = "completed"
	StatusCanceled  TournamentStatus = "canceled"
)

type TournamentFormat string

const (
	FormatSingleStage  TournamentFormat = "single_stage"
	FormatGroupPlayoff TournamentFormat = "group_playoff"
)

func (f TournamentFormat) IsValid() bool {
	return f == FormatSingleStage || f == FormatGroupPlayoff
}

type ParticipationMode string

const (
	ParticipationIndividual ParticipationMode = "individual"
	ParticipationTeam       ParticipationMode = "team"
)

func (m ParticipationMode) IsValid() bool {
	return m == ParticipationIndividual || m == ParticipationTeam
}

// Tournament is the root aggregate. Stages and matches are loaded separately.
type Tournament struct {
	ID                int               `json:"id" db:"id"`
	Name              string            `json:"name" db:"name"`
	GameSlug          string            `json:"game_slug" db:"game_slug"`
	Format            TournamentFormat  `json:"format" db:"format"`
	ParticipationMode ParticipationMode `json:"participation_mode" db:"participation_mode"`
	Status            TournamentStatus  `json:"status" db:"status"`
	CurrentStageID    *int              `json:"current_stage_id,omitempty" db:"current_stage_id"`
	CreatedAt         time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time         `json:"updated_at" db:"updated_at"`

	Stages []Stage `json:"stages,omitempty" db:"-"`
}
