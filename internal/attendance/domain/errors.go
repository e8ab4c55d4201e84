package domain

import "errors"

var (
	ErrNotOwner              = errors.New("only the meeting owner can manage attendance")
	ErrNotParticipant        = errors.New("user is not on the meeting roster")
	ErrSessionNotActive      = errors.New("no attendance session is active")
	ErrCodeMismatch          = errors.New("attendance code does not match")
	ErrAlreadyFinalizedToday = errors.New("attendance was already completed for this date")

	ErrInvalidDate            = errors.New("invalid attendance date")
	ErrConcurrentModification = errors.New("attendance register was modified concurrently")
)
