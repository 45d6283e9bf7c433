package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/warta-arena/arena-api/models"
	"github.com/warta-arena/arena-api/realtime"
	"github.com/warta-arena/arena-api/repositories"
)

type ReportService interface {
	SubmitReport(ctx context.Context, matchID, reporterID, winnerID int) (models.MatchState, error)
}

type reportService struct {
	tx        repositories.Transactor
	matchRepo repositories.MatchRepository
	hub       *realtime.Hub
}

func NewReportService(
	tx repositories.Transactor,
	matchRepo repositories.MatchRepository,
	hub *realtime.Hub,
) ReportService {
	return &reportService{
		tx:        tx,
		matchRepo: matchRepo,
		hub:       hub,
	}
}

// SubmitReport records one player's claim of who won and reconciles the two
// claims. The match row stays locked across the read-modify-write so
// concurrent reports from both players cannot lose an update.
//
// A report from anyone who is not player1 or player2 is a silent no-op: the
// match recognizes exactly two reporters. The winner value itself is not
// validated here; a value naming neither player can never match the other
// side's report, so it can only end in a dispute-reset.
func (s *reportService) SubmitReport(ctx context.Context, matchID, reporterID, winnerID int) (models.MatchState, error) {
	var (
		state models.MatchState
		event string
		match *models.Match
	)

	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		match, err = s.matchRepo.GetByIDForUpdate(ctx, exec, matchID)
		if err != nil {
			if errors.Is(err, repositories.ErrMatchNotFound) {
				return ErrMatchNotFound
			}
			return fmt.Errorf("failed to lock match %d: %w", matchID, err)
		}

		if !match.HasPlayer(reporterID) {
			state = match.State()
			return nil
		}

		if reporterID == match.Player1ID {
			match.Player1Report = &winnerID
		} else {
			match.Player2Report = &winnerID
		}

		if match.Player1Report != nil && match.Player2Report != nil {
			if *match.Player1Report == *match.Player2Report {
				agreed := *match.Player1Report
				match.WinnerID = &agreed
				event = realtime.EventMatchResolved
			} else {
				// The two reports disagree: clear both and start over
				// rather than persisting a conflict.
				match.Player1Report = nil
				match.Player2Report = nil
				match.WinnerID = nil
				event = realtime.EventMatchDisputed
			}
		} else {
			event = realtime.EventMatchReported
		}

		state = match.State()
		return s.matchRepo.UpdateReports(ctx, exec, matchID, match.Player1Report, match.Player2Report, match.WinnerID)
	})

	if err != nil {
		return "", err
	}

	if s.hub != nil && event != "" {
		s.hub.BroadcastToRoom(realtime.TournamentRoom(match.TournamentID), event, match)
	}
	return state, nil
}
