package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/warta-arena/arena-api/models"
	"github.com/warta-arena/arena-api/pairing"
	"github.com/warta-arena/arena-api/realtime"
	"github.com/warta-arena/arena-api/repositories"
)

type PairingService interface {
	GenerateRound(ctx context.Context, tournamentID, currentUserID int) ([]*models.Match, error)
}

type pairingService struct {
	tx              repositories.Transactor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	generator       pairing.Generator
	hub             *realtime.Hub
	now             func() time.Time
}

func NewPairingService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	generator pairing.Generator,
	hub *realtime.Hub,
) PairingService {
	return &pairingService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		generator:       generator,
		hub:             hub,
		now:             time.Now,
	}
}

// GenerateRound creates the round-1 match set for a tournament whose
// registration deadline has passed. The tournament row is locked and its
// status moves registration_open -> round_generated in the same transaction
// as the bulk insert, so a second invocation is rejected instead of
// duplicating the whole match set.
func (s *pairingService) GenerateRound(ctx context.Context, tournamentID, currentUserID int) ([]*models.Match, error) {
	if currentUserID <= 0 {
		return nil, ErrAuthenticationRequired
	}

	var matches []*models.Match

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to lock tournament %d: %w", tournamentID, err)
		}

		if tournament.OrganizerID != currentUserID {
			return ErrForbiddenOperation
		}
		if s.now().Before(tournament.Deadline) {
			return ErrDeadlineNotPassed
		}
		if tournament.Status != models.StatusRegistrationOpen {
			return ErrRoundAlreadyGenerated
		}

		participants, err := s.participantRepo.ListByTournamentRanked(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if len(participants) < 2 {
			return ErrNotEnoughParticipants
		}

		pairs := s.generator.Generate(participants)
		matches = make([]*models.Match, 0, len(pairs))
		for _, p := range pairs {
			matches = append(matches, &models.Match{
				TournamentID: tournamentID,
				Round:        1,
				Player1ID:    p.Player1ID,
				Player2ID:    p.Player2ID,
			})
		}

		if err := s.matchRepo.CreateBatch(ctx, exec, matches); err != nil {
			return fmt.Errorf("failed to insert round matches: %w", err)
		}
		return s.tournamentRepo.UpdateStatus(ctx, exec, tournamentID, models.StatusRoundGenerated)
	})

	if err != nil {
		return nil, err
	}

	if s.hub != nil {
		s.hub.BroadcastToRoom(realtime.TournamentRoom(tournamentID), realtime.EventRoundGenerated, matches)
	}
	return matches, nil
}
