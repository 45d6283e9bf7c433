package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/warta-arena/arena-api/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament reference invalid")
	ErrMatchPlayerInvalid     = errors.New("match player reference invalid")
)

type MatchRepository interface {
	// CreateBatch inserts a whole round of matches on the given executor.
	// The pairing generator calls it exactly once per tournament.
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error
	GetByID(ctx context.Context, id int) (*models.Match, error)
	// GetByIDForUpdate locks the match row so two concurrent reports
	// serialize across the read-modify-write of the report pair.
	GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, round *int) ([]*models.Match, error)
	UpdateReports(ctx context.Context, exec SQLExecutor, id int, player1Report, player2Report, winnerID *int) error
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

func (r *postgresMatchRepository) getExecutor(exec SQLExecutor) SQLExecutor {
	if exec != nil {
		return exec
	}
	return r.db
}

const matchColumns = `id, tournament_id, round, player1_id, player2_id, player1_report, player2_report, winner_id, created_at`

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []*models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	executor := r.getExecutor(exec)

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`INSERT INTO matches (tournament_id, round, player1_id, player2_id) VALUES `)

	args := make([]interface{}, 0, len(matches)*4)
	for i, m := range matches {
		if i > 0 {
			queryBuilder.WriteString(", ")
		}
		base := i * 4
		queryBuilder.WriteString(fmt.Sprintf("($%d, $%d, $%d, $%d)", base+1, base+2, base+3, base+4))
		args = append(args, m.TournamentID, m.Round, m.Player1ID, m.Player2ID)
	}
	queryBuilder.WriteString(" RETURNING id, created_at")

	rows, err := executor.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return r.handleMatchError(err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(matches) {
			break
		}
		if err := rows.Scan(&matches[i].ID, &matches[i].CreatedAt); err != nil {
			return fmt.Errorf("failed to scan created match: %w", err)
		}
		i++
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("error iterating created matches: %w", err)
	}
	return nil
}

func (r *postgresMatchRepository) scanMatch(row *sql.Row) (*models.Match, error) {
	m := &models.Match{}
	err := row.Scan(
		&m.ID,
		&m.TournamentID,
		&m.Round,
		&m.Player1ID,
		&m.Player2ID,
		&m.Player1Report,
		&m.Player2Report,
		&m.WinnerID,
		&m.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match: %w", err)
	}
	return m, nil
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`
	return r.scanMatch(r.db.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) GetByIDForUpdate(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	executor := r.getExecutor(exec)
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1 FOR UPDATE`
	return r.scanMatch(executor.QueryRowContext(ctx, query, id))
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, round *int) ([]*models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + ` FROM matches WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	if round != nil {
		queryBuilder.WriteString(" AND round = $")
		queryBuilder.WriteString(strconv.Itoa(len(args) + 1))
		args = append(args, *round)
	}
	queryBuilder.WriteString(" ORDER BY round ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]*models.Match, 0)
	for rows.Next() {
		var m models.Match
		if scanErr := rows.Scan(
			&m.ID,
			&m.TournamentID,
			&m.Round,
			&m.Player1ID,
			&m.Player2ID,
			&m.Player1Report,
			&m.Player2Report,
			&m.WinnerID,
			&m.CreatedAt,
		); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, &m)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating match rows: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) UpdateReports(ctx context.Context, exec SQLExecutor, id int, player1Report, player2Report, winnerID *int) error {
	executor := r.getExecutor(exec)
	query := `UPDATE matches SET player1_report = $1, player2_report = $2, winner_id = $3 WHERE id = $4`
	result, err := executor.ExecContext(ctx, query, player1Report, player2Report, winnerID, id)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23503" {
		switch pqErr.Constraint {
		case "matches_tournament_id_fkey":
			return ErrMatchTournamentInvalid
		case "matches_player1_id_fkey", "matches_player2_id_fkey":
			return ErrMatchPlayerInvalid
		}
	}
	return err
}
