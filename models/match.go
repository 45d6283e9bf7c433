package models

import "time"

// MatchState is derived from the report pair, never stored.
type MatchState string

const (
	MatchUnreported        MatchState = "unreported"
	MatchPartiallyReported MatchState = "partially_reported"
	MatchResolved          MatchState = "resolved"
)

// Match is one round-1 pairing. Each player files an independent report of
// who won; WinnerID is only ever set to a value both reports agreed on.
type Match struct {
	ID           int `json:"id"`
	TournamentID int `json:"tournament_id"`
	Round        int `json:"round"`
	Player1ID    int `json:"player1_id"`
	Player2ID    int `json:"player2_id"`

	Player1Report *int `json:"player1_report,omitempty"`
	Player2Report *int `json:"player2_report,omitempty"`
	WinnerID      *int `json:"winner_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

// State derives the reconciliation state from the report slots and winner.
// A dispute clears both slots, so a disputed match reads as unreported again.
func (m *Match) State() MatchState {
	if m.WinnerID != nil {
		return MatchResolved
	}
	if m.Player1Report != nil || m.Player2Report != nil {
		return MatchPartiallyReported
	}
	return MatchUnreported
}

// HasPlayer reports whether userID is one of the two recognized reporters.
func (m *Match) HasPlayer(userID int) bool {
	return userID == m.Player1ID || userID == m.Player2ID
}
