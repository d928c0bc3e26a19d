package models

import (
	"encoding/json"
	"time"
)

type StageFormat string

const (
	StageRoundRobin        StageFormat = "round_robin"
	StageSingleElimination StageFormat = "single_elimination"
	StageSwiss             StageFormat = "swiss"
)

func (f StageFormat) IsValid() bool {
	switch f {
	case StageRoundRobin, StageSingleElimination, StageSwiss:
		return true
	}
	return false
}

type StageState string

const (
	StagePending   StageState = "pending"
	StageActive    StageState = "active"
	StageCompleted StageState = "completed"
)

type AdvancementPolicyType string

const (
	AdvanceTopNOverall  AdvancementPolicyType = "top_n_overall"
	AdvanceTopNPerGroup AdvancementPolicyType = "top_n_per_group"
	AdvanceAll          AdvancementPolicyType = "all"
)

type AdvancementPolicy struct {
	Type  AdvancementPolicyType `json:"type"`
	Count int                   `json:"count,omitempty"`
}

// StageSettings holds the format specific configuration of a stage. It is stored
// as JSON next to the stage row.
type StageSettings struct {
	GroupCount          int           `json:"group_count,omitempty"`
	AdvancementPerGroup int           `json:"advancement_per_group,omitempty"`
	Points              *PointsSystem `json:"points,omitempty"`
	Tiebreakers         []Tiebreaker  `json:"tiebreakers,omitempty"`
	MatchFormat         MatchFormat   `json:"match_format"`
	SwissRounds         int           `json:"swiss_rounds,omitempty"`
}

type Stage struct {
	ID            int               `json:"id" db:"id"`
	TournamentID  int               `json:"tournament_id" db:"tournament_id"`
	Name          string            `json:"name" db:"name"`
	Order         int               `json:"order" db:"stage_order"`
	Format        StageFormat       `json:"format" db:"format"`
	Advancement   AdvancementPolicy `json:"advancement" db:"-"`
	State         StageState        `json:"state" db:"state"`
	SettingsJSON  *string           `json:"-" db:"settings_json"`
	ActivatedAt   *time.Time        `json:"activated_at,omitempty" db:"activated_at"`
	CompletedAt   *time.Time        `json:"completed_at,omitempty" db:"completed_at"`
	AdvancedIDs   []int             `json:"advanced_ids,omitempty" db:"advanced_ids"`
	EliminatedIDs []int             `json:"eliminated_ids,omitempty" db:"eliminated_ids"`
	CreatedAt     time.Time         `json:"created_at" db:"created_at"`

	Settings *StageSettings `json:"settings,omitempty" db:"-"`
	Groups   []Group        `json:"groups,omitempty" db:"-"`
}

// GetSettings parses SettingsJSON once and caches the result on the stage.
func (s *Stage) GetSettings() (*StageSettings, error) {
	if s.Settings != nil {
		return s.Settings, nil
	}
	settings := &StageSettings{}
	if s.SettingsJSON == nil || *s.SettingsJSON == "" {
		s.Settings = settings
		return settings, nil
	}
	if err := json.Unmarshal([]byte(*s.SettingsJSON), settings); err != nil {
		return nil, err
	}
	s.Settings = settings
	return settings, nil
}

// SetSettings serializes settings into SettingsJSON.
func (s *Stage) SetSettings(settings *StageSettings) error {
	if settings == nil {
		s.SettingsJSON = nil
		s.Settings = nil
		return nil
	}
	raw, err := json.Marshal(settings)
	if err != nil {
		return err
	}
	str := string(raw)
	s.SettingsJSON = &str
	s.Settings = settings
	return nil
}

func (s *Stage) IsTerminalState() bool {
	return s.State == StageCompleted
}
