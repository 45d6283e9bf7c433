package models

import "time"

// TournamentStatus mirrors the ENUM in the tournaments table.
type TournamentStatus string

const (
	StatusRegistrationOpen TournamentStatus = "registration_open"
	StatusRoundGenerated   TournamentStatus = "round_generated"
)

// Tournament is a single-round event. Registration is open until Deadline,
// after which the organizer generates the first (and only) round of matches.
type Tournament struct {
	ID              int              `json:"id" db:"id"`
	Name            string           `json:"name" db:"name"`
	Discipline      string           `json:"discipline" db:"discipline"`
	Location        string           `json:"location" db:"location"`
	StartTime       time.Time        `json:"start_time" db:"start_time"`
	Deadline        time.Time        `json:"deadline" db:"deadline"`
	MaxParticipants int              `json:"max_participants" db:"max_participants"`
	OrganizerID     int              `json:"organizer_id" db:"organizer_id"`
	Sponsors        []string         `json:"sponsors" db:"sponsors"`
	Status          TournamentStatus `json:"status" db:"status"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`

	LogoKey *string `json:"-" db:"logo_key"`
	LogoURL *string `json:"logo_url,omitempty" db:"-"`

	// Optional linked entities, populated by the service layer.
	Organizer    *User          `json:"organizer,omitempty" db:"-"`
	Participants []*Participant `json:"participants,omitempty" db:"-"`
	Matches      []*Match       `json:"matches,omitempty" db:"-"`
}
