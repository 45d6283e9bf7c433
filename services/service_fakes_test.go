package services

import (
	"context"
	"sync"

	"github.com/warta-arena/arena-api/models"
	"github.com/warta-arena/arena-api/repositories"
)

// fakeStore is an in-memory stand-in for the database used by the service
// tests. A single mutex plays the role of the tournament/match row lock: the
// fake transactor holds it for the whole callback, so concurrent WithinTx
// calls serialize exactly like transactions blocked on FOR UPDATE.
type fakeStore struct {
	mu sync.Mutex

	tournaments  map[int]*models.Tournament
	participants map[int]*models.Participant
	matches      map[int]*models.Match

	nextParticipantID int
	nextMatchID       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		tournaments:       make(map[int]*models.Tournament),
		participants:      make(map[int]*models.Participant),
		matches:           make(map[int]*models.Match),
		nextParticipantID: 1,
		nextMatchID:       1,
	}
}

func (s *fakeStore) snapshot() (map[int]*models.Participant, map[int]*models.Match, map[int]models.Tournament) {
	participants := make(map[int]*models.Participant, len(s.participants))
	for id, p := range s.participants {
		cp := *p
		participants[id] = &cp
	}
	matches := make(map[int]*models.Match, len(s.matches))
	for id, m := range s.matches {
		cp := *m
		matches[id] = &cp
	}
	tournaments := make(map[int]models.Tournament, len(s.tournaments))
	for id, t := range s.tournaments {
		tournaments[id] = *t
	}
	return participants, matches, tournaments
}

func (s *fakeStore) restore(participants map[int]*models.Participant, matches map[int]*models.Match, tournaments map[int]models.Tournament) {
	s.participants = participants
	s.matches = matches
	for id, t := range tournaments {
		cp := t
		s.tournaments[id] = &cp
	}
	for id := range s.tournaments {
		if _, ok := tournaments[id]; !ok {
			delete(s.tournaments, id)
		}
	}
}

// fakeTransactor serializes callbacks on the store mutex and rolls the store
// back when the callback fails, mirroring the real transactor's
// begin/rollback/commit behavior.
type fakeTransactor struct {
	store *fakeStore
}

func (t *fakeTransactor) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()

	participants, matches, tournaments := t.store.snapshot()
	if err := fn(nil); err != nil {
		t.store.restore(participants, matches, tournaments)
		return err
	}
	return nil
}

type fakeTournamentRepo struct {
	store *fakeStore
}

func (r *fakeTournamentRepo) Create(ctx context.Context, t *models.Tournament) error {
	r.store.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	t, ok := r.store.tournaments[id]
	if !ok {
		return nil, repositories.ErrTournamentNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTournamentRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Tournament, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeTournamentRepo) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	out := make([]models.Tournament, 0, len(r.store.tournaments))
	for _, t := range r.store.tournaments {
		out = append(out, *t)
	}
	return out, nil
}

func (r *fakeTournamentRepo) Update(ctx context.Context, t *models.Tournament) error {
	if _, ok := r.store.tournaments[t.ID]; !ok {
		return repositories.ErrTournamentNotFound
	}
	r.store.tournaments[t.ID] = t
	return nil
}

func (r *fakeTournamentRepo) UpdateStatus(ctx context.Context, exec repositories.SQLExecutor, id int, status models.TournamentStatus) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.Status = status
	return nil
}

func (r *fakeTournamentRepo) UpdateLogoKey(ctx context.Context, id int, logoKey *string) error {
	t, ok := r.store.tournaments[id]
	if !ok {
		return repositories.ErrTournamentNotFound
	}
	t.LogoKey = logoKey
	return nil
}

func (r *fakeTournamentRepo) Delete(ctx context.Context, id int) error {
	if _, ok := r.store.tournaments[id]; !ok {
		return repositories.ErrTournamentNotFound
	}
	delete(r.store.tournaments, id)
	return nil
}

type fakeParticipantRepo struct {
	store *fakeStore

	// createErr, when set, makes Create fail the way a unique constraint
	// violation would after all application-level checks have passed.
	createErr error
}

func (r *fakeParticipantRepo) Create(ctx context.Context, exec repositories.SQLExecutor, p *models.Participant) error {
	if r.createErr != nil {
		return r.createErr
	}
	p.ID = r.store.nextParticipantID
	r.store.nextParticipantID++
	cp := *p
	r.store.participants[p.ID] = &cp
	return nil
}

func (r *fakeParticipantRepo) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	p, ok := r.store.participants[id]
	if !ok {
		return nil, repositories.ErrParticipantNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakeParticipantRepo) FindByUserAndTournament(ctx context.Context, exec repositories.SQLExecutor, userID, tournamentID int) (*models.Participant, error) {
	for _, p := range r.store.participants {
		if p.UserID == userID && p.TournamentID == tournamentID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) FindByLicenseNumber(ctx context.Context, exec repositories.SQLExecutor, licenseNumber string) (*models.Participant, error) {
	for _, p := range r.store.participants {
		if p.LicenseNumber == licenseNumber {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) FindByRanking(ctx context.Context, exec repositories.SQLExecutor, ranking int) (*models.Participant, error) {
	for _, p := range r.store.participants {
		if p.Ranking == ranking {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repositories.ErrParticipantNotFound
}

func (r *fakeParticipantRepo) CountByTournament(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (int, error) {
	count := 0
	for _, p := range r.store.participants {
		if p.TournamentID == tournamentID {
			count++
		}
	}
	return count, nil
}

func (r *fakeParticipantRepo) ListByTournamentRanked(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	var out []*models.Participant
	for _, p := range r.store.participants {
		if p.TournamentID == tournamentID {
			cp := *p
			out = append(out, &cp)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Ranking > out[i].Ranking {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (r *fakeParticipantRepo) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	return r.ListByTournamentRanked(ctx, nil, tournamentID)
}

type fakeMatchRepo struct {
	store *fakeStore
}

func (r *fakeMatchRepo) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, matches []*models.Match) error {
	for _, m := range matches {
		m.ID = r.store.nextMatchID
		r.store.nextMatchID++
		cp := *m
		r.store.matches[m.ID] = &cp
	}
	return nil
}

func (r *fakeMatchRepo) GetByID(ctx context.Context, id int) (*models.Match, error) {
	m, ok := r.store.matches[id]
	if !ok {
		return nil, repositories.ErrMatchNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	return r.GetByID(ctx, id)
}

func (r *fakeMatchRepo) ListByTournament(ctx context.Context, tournamentID int, round *int) ([]*models.Match, error) {
	var out []*models.Match
	for _, m := range r.store.matches {
		if m.TournamentID != tournamentID {
			continue
		}
		if round != nil && m.Round != *round {
			continue
		}
		cp := *m
		out = append(out, &cp)
	}
	return out, nil
}

func (r *fakeMatchRepo) UpdateReports(ctx context.Context, exec repositories.SQLExecutor, id int, player1Report, player2Report, winnerID *int) error {
	m, ok := r.store.matches[id]
	if !ok {
		return repositories.ErrMatchNotFound
	}
	m.Player1Report = player1Report
	m.Player2Report = player2Report
	m.WinnerID = winnerID
	return nil
}
