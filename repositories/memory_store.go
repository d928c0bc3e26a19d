package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/Dosada05/tournament-stages/models"
)

type idempotencyKey struct {
	matchID   int
	operation string
	key       string
}

type memoryState struct {
	seq          map[string]int
	tournaments  map[int]models.Tournament
	participants map[int]models.Participant
	stages       map[int]models.Stage
	groups       map[int]models.Group
	standings    map[int]models.Standing
	matches      map[int]models.Match
	disputes     map[int]models.Dispute
	idempotency  map[idempotencyKey]time.Time
}

func newMemoryState() *memoryState {
	return &memoryState{
		seq:          map[string]int{},
		tournaments:  map[int]models.Tournament{},
		participants: map[int]models.Participant{},
		stages:       map[int]models.Stage{},
		groups:       map[int]models.Group{},
		standings:    map[int]models.Standing{},
		matches:      map[int]models.Match{},
		disputes:     map[int]models.Dispute{},
		idempotency:  map[idempotencyKey]time.Time{},
	}
}

func (st *memoryState) next(table string) int {
	st.seq[table]++
	return st.seq[table]
}

func cloneMap[K comparable, V any](in map[K]V, clone func(V) V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = clone(v)
	}
	return out
}

func (st *memoryState) clone() *memoryState {
	same := func(v time.Time) time.Time { return v }
	seq := make(map[string]int, len(st.seq))
	for k, v := range st.seq {
		seq[k] = v
	}
	return &memoryState{
		seq:          seq,
		tournaments:  cloneMap(st.tournaments, cloneTournament),
		participants: cloneMap(st.participants, cloneParticipant),
		stages:       cloneMap(st.stages, cloneStage),
		groups:       cloneMap(st.groups, cloneGroup),
		standings:    cloneMap(st.standings, cloneStanding),
		matches:      cloneMap(st.matches, cloneMatch),
		disputes:     cloneMap(st.disputes, cloneDispute),
		idempotency:  cloneMap(st.idempotency, same),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneSlice[T any](in []T) []T {
	if in == nil {
		return nil
	}
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func cloneTournament(t models.Tournament) models.Tournament {
	t.CurrentStageID = clonePtr(t.CurrentStageID)
	t.Stages = nil
	return t
}

func cloneParticipant(p models.Participant) models.Participant {
	p.UserID = clonePtr(p.UserID)
	p.TeamID = clonePtr(p.TeamID)
	p.Seed = clonePtr(p.Seed)
	return p
}

func cloneStage(s models.Stage) models.Stage {
	s.SettingsJSON = clonePtr(s.SettingsJSON)
	s.ActivatedAt = clonePtr(s.ActivatedAt)
	s.CompletedAt = clonePtr(s.CompletedAt)
	s.AdvancedIDs = cloneSlice(s.AdvancedIDs)
	s.EliminatedIDs = cloneSlice(s.EliminatedIDs)
	s.Settings = nil
	s.Groups = nil
	return s
}

func cloneGroup(g models.Group) models.Group {
	g.DrawStrategy = clonePtr(g.DrawStrategy)
	g.DrawSeed = clonePtr(g.DrawSeed)
	g.DrawHash = clonePtr(g.DrawHash)
	g.Tiebreakers = cloneSlice(g.Tiebreakers)
	return g
}

func cloneStanding(s models.Standing) models.Standing {
	s.UserID = clonePtr(s.UserID)
	s.TeamID = clonePtr(s.TeamID)
	s.Rank = clonePtr(s.Rank)
	return s
}

func cloneMatch(m models.Match) models.Match {
	m.StageID = clonePtr(m.StageID)
	m.GroupID = clonePtr(m.GroupID)
	m.BracketMatchUID = clonePtr(m.BracketMatchUID)
	m.NextMatchID = clonePtr(m.NextMatchID)
	m.WinnerToSlot = clonePtr(m.WinnerToSlot)
	m.P1ParticipantID = clonePtr(m.P1ParticipantID)
	m.P2ParticipantID = clonePtr(m.P2ParticipantID)
	m.P1Stats = clonePtr(m.P1Stats)
	m.P2Stats = clonePtr(m.P2Stats)
	m.ReportedBy = clonePtr(m.ReportedBy)
	m.WinnerID = clonePtr(m.WinnerID)
	m.LoserID = clonePtr(m.LoserID)
	m.LastOperation = clonePtr(m.LastOperation)
	m.LastIdempotencyKey = clonePtr(m.LastIdempotencyKey)
	m.ScheduledAt = clonePtr(m.ScheduledAt)
	m.StartedAt = clonePtr(m.StartedAt)
	m.CompletedAt = clonePtr(m.CompletedAt)
	return m
}

func cloneDispute(d models.Dispute) models.Dispute {
	d.Outcome = clonePtr(d.Outcome)
	d.OverrideP1Score = clonePtr(d.OverrideP1Score)
	d.OverrideP2Score = clonePtr(d.OverrideP2Score)
	d.DisqualifiedParticipantID = clonePtr(d.DisqualifiedParticipantID)
	d.ResolvedBy = clonePtr(d.ResolvedBy)
	d.ResolvedAt = clonePtr(d.ResolvedAt)
	return d
}

// MemoryStore keeps everything in process. A single mutex serializes every
// call; RunInTx works on a deep copy that replaces the live state only when fn
// succeeds, which gives the same all-or-nothing behaviour as a transaction.
type MemoryStore struct {
	memoryRepositories
	mu    sync.Mutex
	state *memoryState
}

func NewMemoryStore() *MemoryStore {
	s := &MemoryStore{state: newMemoryState()}
	s.memoryRepositories = memoryRepositories{view: memoryView{store: s}}
	return s
}

func (s *MemoryStore) RunInTx(ctx context.Context, fn func(tx Repositories) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(memoryRepositories{view: memoryView{state: snapshot}}); err != nil {
		return err
	}
	s.state = snapshot
	return nil
}

// memoryView is either bound to a transaction snapshot (state set) or to the
// live store, in which case every call takes the store lock.
type memoryView struct {
	store *MemoryStore
	state *memoryState
}

func (v memoryView) do(fn func(st *memoryState) error) error {
	if v.state != nil {
		return fn(v.state)
	}
	v.store.mu.Lock()
	defer v.store.mu.Unlock()
	return fn(v.store.state)
}

type memoryRepositories struct {
	view memoryView
}

func (r memoryRepositories) Tournaments() TournamentRepository   { return memTournaments(r) }
func (r memoryRepositories) Participants() ParticipantRepository { return memParticipants(r) }
func (r memoryRepositories) Stages() StageRepository             { return memStages(r) }
func (r memoryRepositories) Groups() GroupRepository             { return memGroups(r) }
func (r memoryRepositories) Standings() StandingRepository       { return memStandings(r) }
func (r memoryRepositories) Matches() MatchRepository            { return memMatches(r) }
func (r memoryRepositories) Disputes() DisputeRepository         { return memDisputes(r) }
func (r memoryRepositories) Idempotency() IdempotencyRepository  { return memIdempotency(r) }

type memTournaments memoryRepositories

func (r memTournaments) Create(ctx context.Context, t *models.Tournament) error {
	return r.view.do(func(st *memoryState) error {
		now := time.Now().UTC()
		t.ID = st.next("tournaments")
		if t.Status == "" {
			t.Status = models.StatusDraft
		}
		t.CreatedAt, t.UpdatedAt = now, now
		st.tournaments[t.ID] = cloneTournament(*t)
		return nil
	})
}

func (r memTournaments) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	var out *models.Tournament
	err := r.view.do(func(st *memoryState) error {
		t, ok := st.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		c := cloneTournament(t)
		out = &c
		return nil
	})
	return out, err
}

func (r memTournaments) GetByIDForUpdate(ctx context.Context, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r memTournaments) UpdateProgress(ctx context.Context, id int, status models.TournamentStatus, currentStageID *int) error {
	return r.view.do(func(st *memoryState) error {
		t, ok := st.tournaments[id]
		if !ok {
			return ErrTournamentNotFound
		}
		t.Status = status
		t.CurrentStageID = clonePtr(currentStageID)
		t.UpdatedAt = time.Now().UTC()
		st.tournaments[id] = t
		return nil
	})
}

type memParticipants memoryRepositories

func (r memParticipants) Create(ctx context.Context, p *models.Participant) error {
	return r.view.do(func(st *memoryState) error {
		if _, ok := st.tournaments[p.TournamentID]; !ok {
			return ErrTournamentNotFound
		}
		if (p.UserID == nil) == (p.TeamID == nil) {
			return models.ErrStandingOwnerInvalid
		}
		for _, existing := range st.participants {
			if existing.TournamentID != p.TournamentID {
				continue
			}
			if (p.UserID != nil && existing.UserID != nil && *p.UserID == *existing.UserID) ||
				(p.TeamID != nil && existing.TeamID != nil && *p.TeamID == *existing.TeamID) {
				return ErrParticipantInvalid
			}
		}
		if p.Status == "" {
			p.Status = models.ParticipantPending
		}
		p.ID = st.next("participants")
		p.CreatedAt = time.Now().UTC()
		st.participants[p.ID] = cloneParticipant(*p)
		return nil
	})
}

func (r memParticipants) GetByID(ctx context.Context, id int) (*models.Participant, error) {
	var out *models.Participant
	err := r.view.do(func(st *memoryState) error {
		p, ok := st.participants[id]
		if !ok {
			return ErrParticipantNotFound
		}
		c := cloneParticipant(p)
		out = &c
		return nil
	})
	return out, err
}

func (r memParticipants) ListConfirmed(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0)
	err := r.view.do(func(st *memoryState) error {
		for _, p := range st.participants {
			if p.TournamentID == tournamentID && p.Status == models.ParticipantConfirmed {
				c := cloneParticipant(p)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Seed != nil && b.Seed != nil && *a.Seed != *b.Seed:
			return *a.Seed < *b.Seed
		case a.Seed != nil && b.Seed == nil:
			return true
		case a.Seed == nil && b.Seed != nil:
			return false
		}
		return a.ID < b.ID
	})
	return out, err
}

func (r memParticipants) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	out := make([]*models.Participant, 0)
	err := r.view.do(func(st *memoryState) error {
		for _, p := range st.participants {
			if p.TournamentID == tournamentID {
				c := cloneParticipant(p)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r memParticipants) Update(ctx context.Context, p *models.Participant) error {
	return r.view.do(func(st *memoryState) error {
		existing, ok := st.participants[p.ID]
		if !ok {
			return ErrParticipantNotFound
		}
		existing.Seed = clonePtr(p.Seed)
		existing.Status = p.Status
		st.participants[p.ID] = existing
		return nil
	})
}

type memStages memoryRepositories

func (r memStages) Create(ctx context.Context, s *models.Stage) error {
	return r.view.do(func(st *memoryState) error {
		if _, ok := st.tournaments[s.TournamentID]; !ok {
			return ErrTournamentNotFound
		}
		for _, existing := range st.stages {
			if existing.TournamentID == s.TournamentID && existing.Order == s.Order {
				return fmt.Errorf("%w: order %d", ErrStageOrderConflict, s.Order)
			}
		}
		if s.State == "" {
			s.State = models.StagePending
		}
		s.ID = st.next("stages")
		s.CreatedAt = time.Now().UTC()
		st.stages[s.ID] = cloneStage(*s)
		return nil
	})
}

func (r memStages) get(st *memoryState, match func(models.Stage) bool) (*models.Stage, error) {
	for _, s := range st.stages {
		if match(s) {
			c := cloneStage(s)
			return &c, nil
		}
	}
	return nil, ErrStageNotFound
}

func (r memStages) GetByID(ctx context.Context, id int) (*models.Stage, error) {
	var out *models.Stage
	err := r.view.do(func(st *memoryState) (err error) {
		out, err = r.get(st, func(s models.Stage) bool { return s.ID == id })
		return err
	})
	return out, err
}

func (r memStages) GetByOrder(ctx context.Context, tournamentID, order int) (*models.Stage, error) {
	var out *models.Stage
	err := r.view.do(func(st *memoryState) (err error) {
		out, err = r.get(st, func(s models.Stage) bool { return s.TournamentID == tournamentID && s.Order == order })
		return err
	})
	return out, err
}

func (r memStages) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Stage, error) {
	out := make([]*models.Stage, 0)
	err := r.view.do(func(st *memoryState) error {
		for _, s := range st.stages {
			if s.TournamentID == tournamentID {
				c := cloneStage(s)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Order < out[j].Order })
	return out, err
}

func (r memStages) Update(ctx context.Context, s *models.Stage) error {
	return r.view.do(func(st *memoryState) error {
		existing, ok := st.stages[s.ID]
		if !ok {
			return ErrStageNotFound
		}
		updated := cloneStage(*s)
		updated.TournamentID = existing.TournamentID
		updated.Order = existing.Order
		updated.CreatedAt = existing.CreatedAt
		st.stages[s.ID] = updated
		return nil
	})
}

type memGroups memoryRepositories

func (r memGroups) Create(ctx context.Context, g *models.Group) error {
	return r.view.do(func(st *memoryState) error {
		if _, ok := st.stages[g.StageID]; !ok {
			return ErrStageNotFound
		}
		if g.CurrentParticipantCount > g.Capacity {
			return ErrGroupCapacityExceeded
		}
		g.ID = st.next("groups")
		g.CreatedAt = time.Now().UTC()
		st.groups[g.ID] = cloneGroup(*g)
		return nil
	})
}

func (r memGroups) GetByID(ctx context.Context, id int) (*models.Group, error) {
	var out *models.Group
	err := r.view.do(func(st *memoryState) error {
		g, ok := st.groups[id]
		if !ok {
			return ErrGroupNotFound
		}
		c := cloneGroup(g)
		out = &c
		return nil
	})
	return out, err
}

func (r memGroups) ListByStage(ctx context.Context, stageID int) ([]*models.Group, error) {
	out := make([]*models.Group, 0)
	err := r.view.do(func(st *memoryState) error {
		for _, g := range st.groups {
			if g.StageID == stageID {
				c := cloneGroup(g)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].DisplayOrder < out[j].DisplayOrder })
	return out, err
}

func (r memGroups) Update(ctx context.Context, g *models.Group) error {
	return r.view.do(func(st *memoryState) error {
		existing, ok := st.groups[g.ID]
		if !ok {
			return ErrGroupNotFound
		}
		if g.CurrentParticipantCount > g.Capacity {
			return ErrGroupCapacityExceeded
		}
		updated := cloneGroup(*g)
		updated.StageID = existing.StageID
		updated.TournamentID = existing.TournamentID
		updated.CreatedAt = existing.CreatedAt
		st.groups[g.ID] = updated
		return nil
	})
}

func (r memGroups) DeleteByStage(ctx context.Context, stageID int) error {
	return r.view.do(func(st *memoryState) error {
		for id, g := range st.groups {
			if g.StageID != stageID {
				continue
			}
			delete(st.groups, id)
			for sid, s := range st.standings {
				if s.GroupID == id {
					delete(st.standings, sid)
				}
			}
			for mid, m := range st.matches {
				if m.GroupID != nil && *m.GroupID == id {
					delete(st.matches, mid)
				}
			}
		}
		return nil
	})
}

type memStandings memoryRepositories

func (r memStandings) CreateBatch(ctx context.Context, rows []*models.Standing) error {
	return r.view.do(func(st *memoryState) error {
		for _, s := range rows {
			if err := s.Validate(); err != nil {
				return fmt.Errorf("CreateBatch: participant %d: %w", s.ParticipantID, err)
			}
			if _, ok := st.groups[s.GroupID]; !ok {
				return ErrGroupNotFound
			}
			if _, ok := st.participants[s.ParticipantID]; !ok {
				return ErrParticipantInvalid
			}
			for _, existing := range st.standings {
				if existing.ParticipantID == s.ParticipantID && (existing.GroupID == s.GroupID || existing.StageID == s.StageID) {
					return fmt.Errorf("%w: participant %d", ErrStandingConflict, s.ParticipantID)
				}
			}
			s.ID = st.next("standings")
			s.UpdatedAt = time.Now().UTC()
			st.standings[s.ID] = cloneStanding(*s)
		}
		return nil
	})
}

func (r memStandings) ListByGroup(ctx context.Context, groupID int) ([]*models.Standing, error) {
	out := make([]*models.Standing, 0)
	err := r.view.do(func(st *memoryState) error {
		for _, s := range st.standings {
			if s.GroupID == groupID {
				c := cloneStanding(s)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].DrawPosition != out[j].DrawPosition {
			return out[i].DrawPosition < out[j].DrawPosition
		}
		return out[i].ParticipantID < out[j].ParticipantID
	})
	return out, err
}

func (r memStandings) ListByStage(ctx context.Context, stageID int) ([]*models.Standing, error) {
	out := make([]*models.Standing, 0)
	err := r.view.do(func(st *memoryState) error {
		for _, s := range st.standings {
			if s.StageID == stageID {
				c := cloneStanding(s)
				out = append(out, &c)
			}
		}
		return nil
	})
	rank := func(s *models.Standing) int {
		if s.Rank == nil {
			return 1 << 30
		}
		return *s.Rank
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.GroupID != b.GroupID {
			return a.GroupID < b.GroupID
		}
		if rank(a) != rank(b) {
			return rank(a) < rank(b)
		}
		return a.DrawPosition < b.DrawPosition
	})
	return out, err
}

func (r memStandings) SaveResults(ctx context.Context, rows []*models.Standing) error {
	return r.view.do(func(st *memoryState) error {
		now := time.Now().UTC()
		for _, s := range rows {
			existing, ok := st.standings[s.ID]
			if !ok {
				return ErrStandingNotFound
			}
			existing.MatchesPlayed = s.MatchesPlayed
			existing.Wins = s.Wins
			existing.Draws = s.Draws
			existing.Losses = s.Losses
			existing.Points = s.Points
			existing.Counters = s.Counters
			existing.Rank = clonePtr(s.Rank)
			existing.IsAdvancing = s.IsAdvancing
			existing.IsEliminated = s.IsEliminated
			existing.UpdatedAt = now
			st.standings[s.ID] = existing
			s.UpdatedAt = now
		}
		return nil
	})
}

func (r memStandings) DeleteByStage(ctx context.Context, stageID int) error {
	return r.view.do(func(st *memoryState) error {
		for id, s := range st.standings {
			if s.StageID == stageID {
				delete(st.standings, id)
			}
		}
		return nil
	})
}

// LockGroup is a no-op: the store lock already serializes every transaction.
func (r memStandings) LockGroup(ctx context.Context, groupID int) error {
	return nil
}

type memMatches memoryRepositories

func (r memMatches) Create(ctx context.Context, m *models.Match) error {
	return r.view.do(func(st *memoryState) error {
		if _, ok := st.tournaments[m.TournamentID]; !ok {
			return ErrTournamentNotFound
		}
		if m.BracketMatchUID != nil && m.StageID != nil {
			for _, existing := range st.matches {
				if existing.StageID != nil && *existing.StageID == *m.StageID &&
					existing.BracketMatchUID != nil && *existing.BracketMatchUID == *m.BracketMatchUID {
					return fmt.Errorf("%w: %s", ErrBracketUIDConflict, *m.BracketMatchUID)
				}
			}
		}
		if m.State == "" {
			m.State = models.MatchScheduled
		}
		now := time.Now().UTC()
		m.ID = st.next("matches")
		m.Version = 1
		m.CreatedAt, m.UpdatedAt = now, now
		st.matches[m.ID] = cloneMatch(*m)
		return nil
	})
}

func (r memMatches) GetByID(ctx context.Context, id int) (*models.Match, error) {
	var out *models.Match
	err := r.view.do(func(st *memoryState) error {
		m, ok := st.matches[id]
		if !ok {
			return ErrMatchNotFound
		}
		c := cloneMatch(m)
		out = &c
		return nil
	})
	return out, err
}

func (r memMatches) GetByIDForUpdate(ctx context.Context, id int) (*models.Match, error) {
	return r.GetByID(ctx, id)
}

func (r memMatches) list(filter func(models.Match) bool) ([]*models.Match, error) {
	out := make([]*models.Match, 0)
	err := r.view.do(func(st *memoryState) error {
		for _, m := range st.matches {
			if filter(m) {
				c := cloneMatch(m)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		if a.OrderInRound != b.OrderInRound {
			return a.OrderInRound < b.OrderInRound
		}
		return a.ID < b.ID
	})
	return out, err
}

func (r memMatches) ListByGroup(ctx context.Context, groupID int) ([]*models.Match, error) {
	return r.list(func(m models.Match) bool { return m.GroupID != nil && *m.GroupID == groupID })
}

func (r memMatches) ListByStage(ctx context.Context, stageID int) ([]*models.Match, error) {
	return r.list(func(m models.Match) bool { return m.StageID != nil && *m.StageID == stageID })
}

func (r memMatches) Update(ctx context.Context, m *models.Match) error {
	return r.view.do(func(st *memoryState) error {
		existing, ok := st.matches[m.ID]
		if !ok {
			return ErrMatchNotFound
		}
		updated := cloneMatch(*m)
		updated.TournamentID = existing.TournamentID
		updated.StageID = clonePtr(existing.StageID)
		updated.GroupID = clonePtr(existing.GroupID)
		updated.Round = existing.Round
		updated.OrderInRound = existing.OrderInRound
		updated.BracketMatchUID = clonePtr(existing.BracketMatchUID)
		updated.CreatedAt = existing.CreatedAt
		updated.Version = existing.Version + 1
		updated.UpdatedAt = time.Now().UTC()
		st.matches[m.ID] = updated
		m.Version = updated.Version
		m.UpdatedAt = updated.UpdatedAt
		return nil
	})
}

func (r memMatches) DeleteByGroup(ctx context.Context, groupID int) error {
	return r.view.do(func(st *memoryState) error {
		for id, m := range st.matches {
			if m.GroupID != nil && *m.GroupID == groupID {
				delete(st.matches, id)
				for key := range st.idempotency {
					if key.matchID == id {
						delete(st.idempotency, key)
					}
				}
			}
		}
		return nil
	})
}

type memDisputes memoryRepositories

func (r memDisputes) Create(ctx context.Context, d *models.Dispute) error {
	return r.view.do(func(st *memoryState) error {
		if _, ok := st.matches[d.MatchID]; !ok {
			return ErrMatchNotFound
		}
		if d.Status == "" {
			d.Status = models.DisputeOpen
		}
		for _, existing := range st.disputes {
			if existing.MatchID == d.MatchID && existing.Status == models.DisputeOpen && d.Status == models.DisputeOpen {
				return ErrOpenDisputeExists
			}
		}
		d.ID = st.next("disputes")
		d.CreatedAt = time.Now().UTC()
		st.disputes[d.ID] = cloneDispute(*d)
		return nil
	})
}

func (r memDisputes) GetOpenByMatch(ctx context.Context, matchID int) (*models.Dispute, error) {
	var out *models.Dispute
	err := r.view.do(func(st *memoryState) error {
		for _, d := range st.disputes {
			if d.MatchID == matchID && d.Status == models.DisputeOpen {
				c := cloneDispute(d)
				out = &c
				return nil
			}
		}
		return ErrDisputeNotFound
	})
	return out, err
}

func (r memDisputes) ListByMatch(ctx context.Context, matchID int) ([]*models.Dispute, error) {
	out := make([]*models.Dispute, 0)
	err := r.view.do(func(st *memoryState) error {
		for _, d := range st.disputes {
			if d.MatchID == matchID {
				c := cloneDispute(d)
				out = append(out, &c)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, err
}

func (r memDisputes) Update(ctx context.Context, d *models.Dispute) error {
	return r.view.do(func(st *memoryState) error {
		existing, ok := st.disputes[d.ID]
		if !ok {
			return ErrDisputeNotFound
		}
		updated := cloneDispute(*d)
		updated.Reference = existing.Reference
		updated.MatchID = existing.MatchID
		updated.CreatedAt = existing.CreatedAt
		st.disputes[d.ID] = updated
		return nil
	})
}

type memIdempotency memoryRepositories

func (r memIdempotency) Exists(ctx context.Context, matchID int, operation, key string) (bool, error) {
	var found bool
	err := r.view.do(func(st *memoryState) error {
		_, found = st.idempotency[idempotencyKey{matchID: matchID, operation: operation, key: key}]
		return nil
	})
	return found, err
}

func (r memIdempotency) Record(ctx context.Context, rec *models.IdempotencyRecord) error {
	return r.view.do(func(st *memoryState) error {
		if _, ok := st.matches[rec.MatchID]; !ok {
			return ErrMatchNotFound
		}
		k := idempotencyKey{matchID: rec.MatchID, operation: rec.Operation, key: rec.Key}
		if _, ok := st.idempotency[k]; ok {
			return ErrIdempotencyKeyRecorded
		}
		rec.CreatedAt = time.Now().UTC()
		st.idempotency[k] = rec.CreatedAt
		return nil
	})
}
