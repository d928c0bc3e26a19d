// Package events fans committed state changes out to live listeners. Publishing
// is fire-and-forget: it runs after the transaction commits and never fails the
// operation that produced the event.
package events

import (
	"context"
	"strconv"
	"sync"
	"time"
)

type Type string

const (
	StageActivated       Type = "STAGE_ACTIVATED"
	StageCompleted       Type = "STAGE_COMPLETED"
	GroupsConfigured     Type = "GROUPS_CONFIGURED"
	GroupsDrawn          Type = "GROUPS_DRAWN"
	MatchesGenerated     Type = "MATCHES_GENERATED"
	StandingsUpdated     Type = "STANDINGS_UPDATED"
	MatchStarted         Type = "MATCH_STARTED"
	MatchResultSubmitted Type = "MATCH_RESULT_SUBMITTED"
	MatchCompleted       Type = "MATCH_COMPLETED"
	MatchDisputed        Type = "MATCH_DISPUTED"
	MatchDisputeResolved Type = "MATCH_DISPUTE_RESOLVED"
	MatchCancelled       Type = "MATCH_CANCELLED"
	BracketSlotAssigned  Type = "BRACKET_SLOT_ASSIGNED"
)

type Event struct {
	Type         Type        `json:"type"`
	TournamentID int         `json:"tournament_id"`
	StageID      *int        `json:"stage_id,omitempty"`
	MatchID      *int        `json:"match_id,omitempty"`
	Payload      interface{} `json:"payload,omitempty"`
	OccurredAt   time.Time   `json:"occurred_at"`
}

// Room is the hub room of the event's tournament.
func (e Event) Room() string {
	return RoomForTournament(e.TournamentID)
}

func RoomForTournament(tournamentID int) string {
	return "tournament_" + strconv.Itoa(tournamentID)
}

type Publisher interface {
	Publish(ctx context.Context, e Event)
}

type Noop struct{}

func (Noop) Publish(context.Context, Event) {}

// Multi publishes to every publisher in order.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		p.Publish(ctx, e)
	}
}

// Recorder keeps every published event; used by tests.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *Recorder) Publish(_ context.Context, e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func (r *Recorder) Types() []Type {
	events := r.Events()
	out := make([]Type, len(events))
	for i, e := range events {
		out[i] = e.Type
	}
	return out
}
