package services

import "errors"

// Bracket engine errors. All of them are precondition violations and are never retried.
var (
	ErrInsufficientParticipants = errors.New("at least two participants are required to start")
	ErrTournamentNotReady       = errors.New("tournament is not in a state that allows this operation")
	ErrSeedingRequired          = errors.New("participants must be seeded before building the bracket")
	ErrInvalidTransition        = errors.New("invalid match status transition")
	ErrMatchNotActive           = errors.New("match is not active")
	ErrInvalidWinner            = errors.New("winner must occupy one of the match slots")
	ErrPlayerNotInMatch         = errors.New("player does not occupy a slot of this match")
	ErrTournamentNotFound       = errors.New("tournament not found")
	ErrDuplicateRegistration    = errors.New("player is already registered for this tournament")
)

var (
	ErrPlayerNotFound      = errors.New("player not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrParticipantNotFound = errors.New("player is not registered for this tournament")
	ErrInvalidScore        = errors.New("scores must be non-negative integers")
	ErrNoEmptySlot         = errors.New("match has no empty slot")
	ErrValidationFailed    = errors.New("validation failed")
	ErrPlayerInUse         = errors.New("player is referenced by matches; use force to delete permanently")
	ErrPlayerInactive      = errors.New("player is disabled")
	ErrTournamentLocked    = errors.New("tournament can only be changed while planned")
	ErrUnsupportedFormat   = errors.New("tournament format is not supported by the bracket engine")
)
