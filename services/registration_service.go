package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/warta-arena/arena-api/models"
	"github.com/warta-arena/arena-api/repositories"
)

type RegisterInput struct {
	LicenseNumber string `json:"license_number"`
	Ranking       int    `json:"ranking"`
}

type RegistrationService interface {
	Register(ctx context.Context, tournamentID, currentUserID int, input RegisterInput) (*models.Participant, error)
}

type registrationService struct {
	tx              repositories.Transactor
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
}

func NewRegistrationService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
) RegistrationService {
	return &registrationService{
		tx:              tx,
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
	}
}

// Register runs the whole check-then-insert sequence inside one transaction
// with the tournament row locked, so two concurrent registrations for the
// same tournament cannot both pass the capacity or uniqueness checks.
func (s *registrationService) Register(ctx context.Context, tournamentID, currentUserID int, input RegisterInput) (*models.Participant, error) {
	if input.LicenseNumber == "" {
		return nil, ErrLicenseRequired
	}

	var participant *models.Participant

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		tournament, err := s.tournamentRepo.GetByIDForUpdate(ctx, exec, tournamentID)
		if err != nil {
			if errors.Is(err, repositories.ErrTournamentNotFound) {
				return ErrTournamentNotFound
			}
			return fmt.Errorf("failed to lock tournament %d: %w", tournamentID, err)
		}

		if currentUserID <= 0 {
			return ErrAuthenticationRequired
		}

		_, err = s.participantRepo.FindByUserAndTournament(ctx, exec, currentUserID, tournamentID)
		if err == nil {
			return ErrAlreadyRegistered
		}
		if !errors.Is(err, repositories.ErrParticipantNotFound) {
			return fmt.Errorf("failed to check existing registration: %w", err)
		}

		count, err := s.participantRepo.CountByTournament(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if count >= tournament.MaxParticipants {
			return ErrTournamentFull
		}

		_, err = s.participantRepo.FindByLicenseNumber(ctx, exec, input.LicenseNumber)
		if err == nil {
			return ErrLicenseTaken
		}
		if !errors.Is(err, repositories.ErrParticipantNotFound) {
			return fmt.Errorf("failed to check license number: %w", err)
		}

		_, err = s.participantRepo.FindByRanking(ctx, exec, input.Ranking)
		if err == nil {
			return ErrRankingTaken
		}
		if !errors.Is(err, repositories.ErrParticipantNotFound) {
			return fmt.Errorf("failed to check ranking: %w", err)
		}

		participant = &models.Participant{
			TournamentID:  tournamentID,
			UserID:        currentUserID,
			LicenseNumber: input.LicenseNumber,
			Ranking:       input.Ranking,
			Status:        models.ParticipantStatusRegistered,
		}
		return s.participantRepo.Create(ctx, exec, participant)
	})

	if err != nil {
		return nil, mapRegistrationStorageError(err)
	}
	return participant, nil
}

// mapRegistrationStorageError translates storage-layer constraint violations
// that outran the application-level checks into the same domain errors the
// checks would have produced.
func mapRegistrationStorageError(err error) error {
	switch {
	case errors.Is(err, repositories.ErrParticipantConflict):
		return ErrAlreadyRegistered
	case errors.Is(err, repositories.ErrParticipantLicenseConflict):
		return ErrLicenseTaken
	case errors.Is(err, repositories.ErrParticipantRankingConflict):
		return ErrRankingTaken
	default:
		return err
	}
}
