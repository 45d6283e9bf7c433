package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/warta-arena/arena-api/models"
)

var (
	ErrParticipantNotFound          = errors.New("participant not found")
	ErrParticipantConflict          = errors.New("participant conflict: user already registered for this tournament")
	ErrParticipantLicenseConflict   = errors.New("participant license number conflict")
	ErrParticipantRankingConflict   = errors.New("participant ranking conflict")
	ErrParticipantUserInvalid       = errors.New("participant user reference invalid")
	ErrParticipantTournamentInvalid = errors.New("participant tournament reference invalid")
)

type ParticipantRepository interface {
	Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error
	FindByID(ctx context.Context, id int) (*models.Participant, error)
	FindByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (*models.Participant, error)
	FindByLicenseNumber(ctx context.Context, exec SQLExecutor, licenseNumber string) (*models.Participant, error)
	FindByRanking(ctx context.Context, exec SQLExecutor, ranking int) (*models.Participant, error)
	CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error)
	// ListByTournamentRanked returns all participants of a tournament ordered
	// by ranking descending, the order the pairing generator seeds from.
	ListByTournamentRanked(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error)
	ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error)
}

type postgresParticipantRepository struct {
	db *sql.DB
}

func NewPostgresParticipantRepository(db *sql.DB) ParticipantRepository {
	return &postgresParticipantRepository{db: db}
}

func (r *postgresParticipantRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

func (r *postgresParticipantRepository) Create(ctx context.Context, exec SQLExecutor, p *models.Participant) error {
	executor := r.getExecutor(exec)
	query := `
		INSERT INTO participants (tournament_id, user_id, license_number, ranking, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err := executor.QueryRowContext(ctx, query,
		p.TournamentID,
		p.UserID,
		p.LicenseNumber,
		p.Ranking,
		p.Status,
	).Scan(&p.ID, &p.CreatedAt)

	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Code {
			case "23505": // unique_violation
				switch pqErr.Constraint {
				case "participants_tournament_id_user_id_key":
					return ErrParticipantConflict
				case "participants_license_number_key":
					return ErrParticipantLicenseConflict
				case "participants_ranking_key":
					return ErrParticipantRankingConflict
				}
			case "23503": // foreign_key_violation
				switch pqErr.Constraint {
				case "participants_user_id_fkey":
					return ErrParticipantUserInvalid
				case "participants_tournament_id_fkey":
					return ErrParticipantTournamentInvalid
				}
			}
		}
		return fmt.Errorf("failed to create participant: %w", err)
	}
	return nil
}

func (r *postgresParticipantRepository) scanParticipant(rowScanner interface {
	Scan(dest ...interface{}) error
}, p *models.Participant) error {
	return rowScanner.Scan(
		&p.ID,
		&p.TournamentID,
		&p.UserID,
		&p.LicenseNumber,
		&p.Ranking,
		&p.Status,
		&p.CreatedAt,
	)
}

func (r *postgresParticipantRepository) findOne(ctx context.Context, exec SQLExecutor, query string, args ...interface{}) (*models.Participant, error) {
	p := &models.Participant{}
	row := r.getExecutor(exec).QueryRowContext(ctx, query, args...)
	err := r.scanParticipant(row, p)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrParticipantNotFound
		}
		return nil, fmt.Errorf("failed to find participant: %w", err)
	}
	return p, nil
}

const participantColumns = `id, tournament_id, user_id, license_number, ranking, status, created_at`

func (r *postgresParticipantRepository) FindByID(ctx context.Context, id int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE id = $1`
	return r.findOne(ctx, nil, query, id)
}

func (r *postgresParticipantRepository) FindByUserAndTournament(ctx context.Context, exec SQLExecutor, userID, tournamentID int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE user_id = $1 AND tournament_id = $2`
	return r.findOne(ctx, exec, query, userID, tournamentID)
}

func (r *postgresParticipantRepository) FindByLicenseNumber(ctx context.Context, exec SQLExecutor, licenseNumber string) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE license_number = $1`
	return r.findOne(ctx, exec, query, licenseNumber)
}

func (r *postgresParticipantRepository) FindByRanking(ctx context.Context, exec SQLExecutor, ranking int) (*models.Participant, error) {
	query := `SELECT ` + participantColumns + ` FROM participants WHERE ranking = $1`
	return r.findOne(ctx, exec, query, ranking)
}

func (r *postgresParticipantRepository) CountByTournament(ctx context.Context, exec SQLExecutor, tournamentID int) (int, error) {
	executor := r.getExecutor(exec)
	var count int
	err := executor.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants WHERE tournament_id = $1`, tournamentID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count participants for tournament %d: %w", tournamentID, err)
	}
	return count, nil
}

func (r *postgresParticipantRepository) ListByTournamentRanked(ctx context.Context, exec SQLExecutor, tournamentID int) ([]*models.Participant, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + participantColumns + ` FROM participants WHERE tournament_id = $1 ORDER BY ranking DESC`

	rows, err := executor.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ranked participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()
	return r.collect(rows)
}

func (r *postgresParticipantRepository) ListByTournament(ctx context.Context, tournamentID int) ([]*models.Participant, error) {
	query := `
		SELECT
			p.id, p.tournament_id, p.user_id, p.license_number, p.ranking, p.status, p.created_at,
			u.id, u.first_name, u.last_name
		FROM participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.tournament_id = $1
		ORDER BY p.created_at ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		var u models.User
		if err := rows.Scan(
			&p.ID, &p.TournamentID, &p.UserID, &p.LicenseNumber, &p.Ranking, &p.Status, &p.CreatedAt,
			&u.ID, &u.FirstName, &u.LastName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		p.User = &u
		participants = append(participants, &p)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}

func (r *postgresParticipantRepository) collect(rows *sql.Rows) ([]*models.Participant, error) {
	participants := make([]*models.Participant, 0)
	for rows.Next() {
		var p models.Participant
		if err := r.scanParticipant(rows, &p); err != nil {
			return nil, fmt.Errorf("failed to scan participant row: %w", err)
		}
		participants = append(participants, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating participant rows: %w", err)
	}
	return participants, nil
}
