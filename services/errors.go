package services

import "errors"

// Sentinel errors shared across services and the HTTP error mapping.
var (
	// Lookup failures
	ErrNotFound            = errors.New("requested resource not found")
	ErrUserNotFound        = errors.New("user not found")
	ErrTournamentNotFound  = errors.New("tournament not found")
	ErrParticipantNotFound = errors.New("participant registration not found")
	ErrMatchNotFound       = errors.New("match not found")

	// Identity
	ErrAuthenticationRequired = errors.New("authentication required")
	ErrForbiddenOperation     = errors.New("operation not allowed for the current user")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrAccountNotActivated    = errors.New("account is not activated")
	ErrEmailTaken             = errors.New("email address is already in use")
	ErrTokenInvalid           = errors.New("invalid token")
	ErrTokenExpired           = errors.New("token has expired")

	// Registration business rules
	ErrAlreadyRegistered = errors.New("user is already registered for this tournament")
	ErrTournamentFull    = errors.New("tournament registration is full")
	ErrLicenseTaken      = errors.New("license number is already taken")
	ErrRankingTaken      = errors.New("ranking is already taken")
	ErrLicenseRequired   = errors.New("license number is required")

	// Round generation business rules
	ErrDeadlineNotPassed     = errors.New("registration deadline has not passed yet")
	ErrNotEnoughParticipants = errors.New("at least two participants are required to generate a round")
	ErrRoundAlreadyGenerated = errors.New("matches for this tournament have already been generated")

	// Tournament validation
	ErrValidationFailed           = errors.New("validation failed")
	ErrTournamentInvalidCapacity  = errors.New("tournament max participants must be positive")
	ErrTournamentInvalidDateRange = errors.New("tournament deadline must not be after its start time")
	ErrTournamentStartInPast      = errors.New("tournament start time must be in the future")

	// Account validation
	ErrPasswordTooShort = errors.New("password is too short")
)
