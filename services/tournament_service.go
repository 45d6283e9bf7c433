package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/warta-arena/arena-api/models"
	"github.com/warta-arena/arena-api/repositories"
	"github.com/warta-arena/arena-api/storage"
)

type CreateTournamentInput struct {
	Name            string    `json:"name"`
	Discipline      string    `json:"discipline"`
	Location        string    `json:"location"`
	StartTime       time.Time `json:"start_time"`
	Deadline        time.Time `json:"deadline"`
	MaxParticipants int       `json:"max_participants"`
	Sponsors        []string  `json:"sponsors"`
}

type UpdateTournamentInput struct {
	Name            *string    `json:"name"`
	Discipline      *string    `json:"discipline"`
	Location        *string    `json:"location"`
	StartTime       *time.Time `json:"start_time"`
	Deadline        *time.Time `json:"deadline"`
	MaxParticipants *int       `json:"max_participants"`
	Sponsors        []string   `json:"sponsors"`
}

type TournamentService interface {
	Create(ctx context.Context, currentUserID int, input CreateTournamentInput) (*models.Tournament, error)
	GetByID(ctx context.Context, id int) (*models.Tournament, error)
	List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error)
	Update(ctx context.Context, id, currentUserID int, input UpdateTournamentInput) (*models.Tournament, error)
	Delete(ctx context.Context, id, currentUserID int) error
	UploadLogo(ctx context.Context, id, currentUserID int, contentType string, file io.Reader) (*models.Tournament, error)
}

type tournamentService struct {
	tournamentRepo  repositories.TournamentRepository
	participantRepo repositories.ParticipantRepository
	matchRepo       repositories.MatchRepository
	userRepo        repositories.UserRepository
	uploader        storage.FileUploader
	now             func() time.Time
}

func NewTournamentService(
	tournamentRepo repositories.TournamentRepository,
	participantRepo repositories.ParticipantRepository,
	matchRepo repositories.MatchRepository,
	userRepo repositories.UserRepository,
	uploader storage.FileUploader,
) TournamentService {
	return &tournamentService{
		tournamentRepo:  tournamentRepo,
		participantRepo: participantRepo,
		matchRepo:       matchRepo,
		userRepo:        userRepo,
		uploader:        uploader,
		now:             time.Now,
	}
}

func (s *tournamentService) Create(ctx context.Context, currentUserID int, input CreateTournamentInput) (*models.Tournament, error) {
	if currentUserID <= 0 {
		return nil, ErrAuthenticationRequired
	}
	if err := s.validate(input.Name, input.Discipline, input.Location, input.StartTime, input.Deadline, input.MaxParticipants); err != nil {
		return nil, err
	}

	sponsors := input.Sponsors
	if sponsors == nil {
		sponsors = []string{}
	}

	tournament := &models.Tournament{
		Name:            strings.TrimSpace(input.Name),
		Discipline:      strings.TrimSpace(input.Discipline),
		Location:        strings.TrimSpace(input.Location),
		StartTime:       input.StartTime,
		Deadline:        input.Deadline,
		MaxParticipants: input.MaxParticipants,
		OrganizerID:     currentUserID,
		Sponsors:        sponsors,
		Status:          models.StatusRegistrationOpen,
	}

	if err := s.tournamentRepo.Create(ctx, tournament); err != nil {
		return nil, fmt.Errorf("failed to create tournament: %w", err)
	}
	return tournament, nil
}

func (s *tournamentService) validate(name, discipline, location string, startTime, deadline time.Time, maxParticipants int) error {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(discipline) == "" || strings.TrimSpace(location) == "" {
		return ErrValidationFailed
	}
	if maxParticipants <= 0 {
		return ErrTournamentInvalidCapacity
	}
	if startTime.Before(s.now()) {
		return ErrTournamentStartInPast
	}
	if deadline.After(startTime) {
		return ErrTournamentInvalidDateRange
	}
	return nil
}

// GetByID returns the tournament together with its organizer, participants
// and matches. The three lookups are independent, so they run concurrently.
func (s *tournamentService) GetByID(ctx context.Context, id int) (*models.Tournament, error) {
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		organizer, err := s.userRepo.GetByID(gCtx, tournament.OrganizerID)
		if err != nil {
			return fmt.Errorf("failed to load organizer %d: %w", tournament.OrganizerID, err)
		}
		organizer.PasswordHash = ""
		tournament.Organizer = organizer
		return nil
	})
	g.Go(func() error {
		participants, err := s.participantRepo.ListByTournament(gCtx, id)
		if err != nil {
			return err
		}
		tournament.Participants = participants
		return nil
	})
	g.Go(func() error {
		matches, err := s.matchRepo.ListByTournament(gCtx, id, nil)
		if err != nil {
			return err
		}
		tournament.Matches = matches
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.fillLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) List(ctx context.Context, filter repositories.ListTournamentsFilter) ([]models.Tournament, error) {
	tournaments, err := s.tournamentRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	for i := range tournaments {
		s.fillLogoURL(&tournaments[i])
	}
	return tournaments, nil
}

// Update replaces the mutable fields; only the organizer may call it.
func (s *tournamentService) Update(ctx context.Context, id, currentUserID int, input UpdateTournamentInput) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		tournament.Name = *input.Name
	}
	if input.Discipline != nil {
		tournament.Discipline = *input.Discipline
	}
	if input.Location != nil {
		tournament.Location = *input.Location
	}
	if input.StartTime != nil {
		tournament.StartTime = *input.StartTime
	}
	if input.Deadline != nil {
		tournament.Deadline = *input.Deadline
	}
	if input.MaxParticipants != nil {
		tournament.MaxParticipants = *input.MaxParticipants
	}
	if input.Sponsors != nil {
		tournament.Sponsors = input.Sponsors
	}

	if strings.TrimSpace(tournament.Name) == "" || strings.TrimSpace(tournament.Discipline) == "" || strings.TrimSpace(tournament.Location) == "" {
		return nil, ErrValidationFailed
	}
	if tournament.MaxParticipants <= 0 {
		return nil, ErrTournamentInvalidCapacity
	}
	if tournament.Deadline.After(tournament.StartTime) {
		return nil, ErrTournamentInvalidDateRange
	}

	if err := s.tournamentRepo.Update(ctx, tournament); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	return tournament, nil
}

func (s *tournamentService) Delete(ctx context.Context, id, currentUserID int) error {
	if _, err := s.authorize(ctx, id, currentUserID); err != nil {
		return err
	}
	if err := s.tournamentRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return ErrTournamentNotFound
		}
		return err
	}
	return nil
}

func (s *tournamentService) UploadLogo(ctx context.Context, id, currentUserID int, contentType string, file io.Reader) (*models.Tournament, error) {
	tournament, err := s.authorize(ctx, id, currentUserID)
	if err != nil {
		return nil, err
	}
	if s.uploader == nil {
		return nil, fmt.Errorf("file storage is not configured")
	}

	key := fmt.Sprintf("tournaments/%d/logo", id)
	result, err := s.uploader.Upload(ctx, key, contentType, file)
	if err != nil {
		return nil, fmt.Errorf("failed to upload tournament logo: %w", err)
	}

	if err := s.tournamentRepo.UpdateLogoKey(ctx, id, &result.Key); err != nil {
		return nil, err
	}
	tournament.LogoKey = &result.Key
	s.fillLogoURL(tournament)
	return tournament, nil
}

func (s *tournamentService) authorize(ctx context.Context, id, currentUserID int) (*models.Tournament, error) {
	if currentUserID <= 0 {
		return nil, ErrAuthenticationRequired
	}
	tournament, err := s.tournamentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repositories.ErrTournamentNotFound) {
			return nil, ErrTournamentNotFound
		}
		return nil, err
	}
	if tournament.OrganizerID != currentUserID {
		return nil, ErrForbiddenOperation
	}
	return tournament, nil
}

func (s *tournamentService) fillLogoURL(t *models.Tournament) {
	if s.uploader == nil || t.LogoKey == nil {
		return
	}
	url := s.uploader.GetPublicURL(*t.LogoKey)
	if url != "" {
		t.LogoURL = &url
	}
}
