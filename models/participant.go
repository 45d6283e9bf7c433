package models

import "time"

type ParticipantStatus string

const (
	ParticipantStatusRegistered ParticipantStatus = "registered"
)

// Participant is one player's registration in one tournament. LicenseNumber
// and Ranking are unique across the whole system, not per tournament.
type Participant struct {
	ID            int               `json:"id"`
	TournamentID  int               `json:"tournament_id"`
	UserID        int               `json:"user_id"`
	LicenseNumber string            `json:"license_number"`
	Ranking       int               `json:"ranking"`
	Status        ParticipantStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`

	User *User `json:"user,omitempty"`
}
