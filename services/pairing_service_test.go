package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/warta-arena/arena-api/models"
	"github.com/warta-arena/arena-api/pairing"
)

func newPairingFixture(now time.Time) (*fakeStore, PairingService) {
	store := newFakeStore()
	svc := NewPairingService(
		&fakeTransactor{store: store},
		&fakeTournamentRepo{store: store},
		&fakeParticipantRepo{store: store},
		&fakeMatchRepo{store: store},
		pairing.NewRankedPairGenerator(),
		nil,
	)
	svc.(*pairingService).now = func() time.Time { return now }
	return store, svc
}

func closedTournament(store *fakeStore, id, organizerID int, deadline time.Time) *models.Tournament {
	t := &models.Tournament{
		ID:              id,
		Name:            "Autumn Cup",
		Discipline:      "chess",
		Location:        "Gdansk",
		StartTime:       deadline.Add(24 * time.Hour),
		Deadline:        deadline,
		MaxParticipants: 16,
		OrganizerID:     organizerID,
		Status:          models.StatusRegistrationOpen,
	}
	store.tournaments[id] = t
	return t
}

func TestGenerateRoundPairsByRankingDescending(t *testing.T) {
	now := time.Now()
	store, svc := newPairingFixture(now)
	closedTournament(store, 1, 100, now.Add(-time.Hour))

	// user id / ranking
	addParticipant(store, 1, 201, "L-201", 10)
	addParticipant(store, 1, 202, "L-202", 40)
	addParticipant(store, 1, 203, "L-203", 20)
	addParticipant(store, 1, 204, "L-204", 30)

	matches, err := svc.GenerateRound(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}

	// Top two rankings meet first, the next two after them.
	if matches[0].Player1ID != 202 || matches[0].Player2ID != 204 {
		t.Errorf("match 0: expected 202 vs 204, got %d vs %d", matches[0].Player1ID, matches[0].Player2ID)
	}
	if matches[1].Player1ID != 203 || matches[1].Player2ID != 201 {
		t.Errorf("match 1: expected 203 vs 201, got %d vs %d", matches[1].Player1ID, matches[1].Player2ID)
	}

	for i, m := range matches {
		if m.Round != 1 {
			t.Errorf("match %d: expected round 1, got %d", i, m.Round)
		}
		if m.ID == 0 {
			t.Errorf("match %d: expected assigned id", i)
		}
	}

	if store.tournaments[1].Status != models.StatusRoundGenerated {
		t.Errorf("expected tournament status %q, got %q", models.StatusRoundGenerated, store.tournaments[1].Status)
	}
}

// An odd participant count leaves the lowest-ranked player without a match.
func TestGenerateRoundOddCountBye(t *testing.T) {
	now := time.Now()
	store, svc := newPairingFixture(now)
	closedTournament(store, 1, 100, now.Add(-time.Hour))

	addParticipant(store, 1, 301, "L-301", 10)
	addParticipant(store, 1, 302, "L-302", 9)
	addParticipant(store, 1, 303, "L-303", 8)
	addParticipant(store, 1, 304, "L-304", 7)
	addParticipant(store, 1, 305, "L-305", 6)

	matches, err := svc.GenerateRound(context.Background(), 1, 100)
	if err != nil {
		t.Fatalf("GenerateRound returned error: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches for 5 participants, got %d", len(matches))
	}

	for _, m := range matches {
		if m.Player1ID == 305 || m.Player2ID == 305 {
			t.Errorf("lowest-ranked participant should get the bye, but appears in match %d", m.ID)
		}
	}
}

func TestGenerateRoundTournamentNotFound(t *testing.T) {
	_, svc := newPairingFixture(time.Now())

	_, err := svc.GenerateRound(context.Background(), 99, 100)
	if !errors.Is(err, ErrTournamentNotFound) {
		t.Fatalf("expected ErrTournamentNotFound, got %v", err)
	}
}

func TestGenerateRoundAnonymousRejected(t *testing.T) {
	now := time.Now()
	store, svc := newPairingFixture(now)
	closedTournament(store, 1, 100, now.Add(-time.Hour))

	_, err := svc.GenerateRound(context.Background(), 1, 0)
	if !errors.Is(err, ErrAuthenticationRequired) {
		t.Fatalf("expected ErrAuthenticationRequired, got %v", err)
	}
}

func TestGenerateRoundOnlyOrganizer(t *testing.T) {
	now := time.Now()
	store, svc := newPairingFixture(now)
	closedTournament(store, 1, 100, now.Add(-time.Hour))

	_, err := svc.GenerateRound(context.Background(), 1, 555)
	if !errors.Is(err, ErrForbiddenOperation) {
		t.Fatalf("expected ErrForbiddenOperation, got %v", err)
	}
}

func TestGenerateRoundBeforeDeadline(t *testing.T) {
	now := time.Now()
	store, svc := newPairingFixture(now)
	closedTournament(store, 1, 100, now.Add(time.Hour))
	addParticipant(store, 1, 201, "L-201", 10)
	addParticipant(store, 1, 202, "L-202", 20)

	_, err := svc.GenerateRound(context.Background(), 1, 100)
	if !errors.Is(err, ErrDeadlineNotPassed) {
		t.Fatalf("expected ErrDeadlineNotPassed, got %v", err)
	}
}

func TestGenerateRoundNotEnoughParticipants(t *testing.T) {
	now := time.Now()
	store, svc := newPairingFixture(now)
	closedTournament(store, 1, 100, now.Add(-time.Hour))
	addParticipant(store, 1, 201, "L-201", 10)

	_, err := svc.GenerateRound(context.Background(), 1, 100)
	if !errors.Is(err, ErrNotEnoughParticipants) {
		t.Fatalf("expected ErrNotEnoughParticipants, got %v", err)
	}
	if len(store.matches) != 0 {
		t.Errorf("no matches should exist after a failed generation, got %d", len(store.matches))
	}
}

// The status moves to round_generated in the same transaction as the insert,
// so invoking generation a second time cannot duplicate the match set.
func TestGenerateRoundSecondCallRejected(t *testing.T) {
	now := time.Now()
	store, svc := newPairingFixture(now)
	closedTournament(store, 1, 100, now.Add(-time.Hour))
	addParticipant(store, 1, 201, "L-201", 10)
	addParticipant(store, 1, 202, "L-202", 20)

	if _, err := svc.GenerateRound(context.Background(), 1, 100); err != nil {
		t.Fatalf("first GenerateRound returned error: %v", err)
	}

	_, err := svc.GenerateRound(context.Background(), 1, 100)
	if !errors.Is(err, ErrRoundAlreadyGenerated) {
		t.Fatalf("expected ErrRoundAlreadyGenerated, got %v", err)
	}
	if len(store.matches) != 1 {
		t.Errorf("expected the single original match to survive, got %d", len(store.matches))
	}
}
