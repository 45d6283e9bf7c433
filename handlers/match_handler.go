package handlers

import (
	"net/http"
	"strconv"

	"github.com/warta-arena/arena-api/middleware"
	"github.com/warta-arena/arena-api/repositories"
	"github.com/warta-arena/arena-api/services"
)

type MatchHandler struct {
	reportService services.ReportService
	matchRepo     repositories.MatchRepository
}

func NewMatchHandler(rs services.ReportService, matchRepo repositories.MatchRepository) *MatchHandler {
	return &MatchHandler{
		reportService: rs,
		matchRepo:     matchRepo,
	}
}

func (h *MatchHandler) ListByTournament(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var round *int
	if raw := r.URL.Query().Get("round"); raw != "" {
		value, err := strconv.Atoi(raw)
		if err != nil || value <= 0 {
			badRequestResponse(w, r, err)
			return
		}
		round = &value
	}

	matches, err := h.matchRepo.ListByTournament(r.Context(), tournamentID, round)
	if err != nil {
		serverErrorResponse(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// SubmitReport records the caller's claim of who won the match. A report
// from a user who is not one of the two players is accepted and ignored.
func (h *MatchHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	currentUserID, err := middleware.GetUserIDFromContext(r.Context())
	if err != nil {
		unauthorizedResponse(w, r, "authentication required")
		return
	}

	var input struct {
		WinnerID int `json:"winner_id"`
	}
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	state, err := h.reportService.SubmitReport(r.Context(), matchID, currentUserID, input.WinnerID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"state": state}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
