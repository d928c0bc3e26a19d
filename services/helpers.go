package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Dosada05/tournament-stages/events"
	"github.com/Dosada05/tournament-stages/models"
	"github.com/Dosada05/tournament-stages/repositories"
	"github.com/Dosada05/tournament-stages/rulesets"
)

func intPtr(v int) *int {
	return &v
}

func strPtr(v string) *string {
	return &v
}

func now() time.Time {
	return time.Now().UTC()
}

func newEvent(t events.Type, tournamentID int, stageID, matchID *int, payload interface{}) events.Event {
	return events.Event{
		Type:         t,
		TournamentID: tournamentID,
		StageID:      stageID,
		MatchID:      matchID,
		Payload:      payload,
		OccurredAt:   now(),
	}
}

// publishAll runs after commit. A nil publisher drops the events.
func publishAll(ctx context.Context, p events.Publisher, logger *slog.Logger, evts []events.Event) {
	if p == nil {
		return
	}
	for _, e := range evts {
		p.Publish(ctx, e)
	}
	if len(evts) > 0 {
		logger.DebugContext(ctx, "Events published", slog.Int("count", len(evts)), slog.String("first", string(evts[0].Type)))
	}
}

// rulesFor resolves the rule-set of the tournament's game.
func rulesFor(ctx context.Context, repos repositories.Repositories, resolver rulesets.Resolver, tournamentID int) (*models.Tournament, models.RuleSet, error) {
	tournament, err := repos.Tournaments().GetByID(ctx, tournamentID)
	if err != nil {
		return nil, models.RuleSet{}, handleRepositoryError(err, "loading tournament")
	}
	rules, err := resolver.Resolve(tournament.GameSlug)
	if err != nil {
		if errors.Is(err, rulesets.ErrUnknownGame) {
			return nil, models.RuleSet{}, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
		}
		return nil, models.RuleSet{}, err
	}
	return tournament, rules, nil
}

// participantIndex maps the confirmed roster by id.
func participantIndex(ctx context.Context, repos repositories.Repositories, tournamentID int) (map[int]*models.Participant, []int, error) {
	roster, err := repos.Participants().ListConfirmed(ctx, tournamentID)
	if err != nil {
		return nil, nil, handleRepositoryError(err, "listing participants")
	}
	index := make(map[int]*models.Participant, len(roster))
	ordered := make([]int, 0, len(roster))
	for _, p := range roster {
		index[p.ID] = p
		ordered = append(ordered, p.ID)
	}
	return index, ordered, nil
}

// stagePool returns the participants entering a stage, strongest first: the
// seeded roster for the first stage, the stored advancement list otherwise.
func stagePool(ctx context.Context, repos repositories.Repositories, stage *models.Stage) ([]int, error) {
	if stage.Order <= 1 {
		_, ordered, err := participantIndex(ctx, repos, stage.TournamentID)
		return ordered, err
	}
	prev, err := repos.Stages().GetByOrder(ctx, stage.TournamentID, stage.Order-1)
	if err != nil {
		return nil, handleRepositoryError(err, "loading previous stage")
	}
	if prev.State != models.StageCompleted {
		return nil, stageStateError(ErrStageNotCompleted, prev, models.StageCompleted)
	}
	pool := make([]int, len(prev.AdvancedIDs))
	copy(pool, prev.AdvancedIDs)
	return pool, nil
}

// newStandings builds the initial rows of one group, draw position following
// the member order.
func newStandings(ctx context.Context, repos repositories.Repositories, index map[int]*models.Participant, group *models.Group, members []int) ([]*models.Standing, error) {
	rows := make([]*models.Standing, 0, len(members))
	for pos, pid := range members {
		p, ok := index[pid]
		if !ok {
			loaded, err := repos.Participants().GetByID(ctx, pid)
			if err != nil {
				return nil, handleRepositoryError(err, "loading participant")
			}
			p = loaded
		}
		rows = append(rows, &models.Standing{
			GroupID:       group.ID,
			StageID:       group.StageID,
			ParticipantID: pid,
			UserID:        p.UserID,
			TeamID:        p.TeamID,
			DrawPosition:  pos + 1,
		})
	}
	return rows, nil
}

func sumInts(values []int) int {
	total := 0
	for _, v := range values {
		total += v
	}
	return total
}
