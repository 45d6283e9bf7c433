package handlers

import (
	"net/http"

	"github.com/warta-arena/arena-api/middleware"
	"github.com/warta-arena/arena-api/services"
)

type ParticipantHandler struct {
	registrationService services.RegistrationService
}

func NewParticipantHandler(rs services.RegistrationService) *ParticipantHandler {
	return &ParticipantHandler{
		registrationService: rs,
	}
}

// Register submits the caller's registration for a tournament. License
// number and ranking come from the body; the player is always the caller.
func (h *ParticipantHandler) Register(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Anonymous callers reach the service layer, which rejects them after
	// locking the tournament row.
	currentUserID := middleware.CurrentUserID(r.Context())

	var input services.RegisterInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	participant, err := h.registrationService.Register(r.Context(), tournamentID, currentUserID, input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"participant": participant}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
