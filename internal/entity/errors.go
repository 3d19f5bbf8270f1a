package entity

import "errors"

var (
	// Session errors
	ErrSessionNotFound = errors.New("class session not found")
	ErrSessionFull     = errors.New("class session is full")
	ErrSessionNotFull  = errors.New("class session is not full")

	// Package errors
	ErrPackageNotFound     = errors.New("user package not found")
	ErrPackageExpired      = errors.New("user package has expired")
	ErrInsufficientCredits = errors.New("insufficient credits in package")
	ErrCountryMismatch     = errors.New("package country does not match class country")

	// Booking errors
	ErrBookingNotFound         = errors.New("booking not found")
	ErrBookingAlreadyCancelled = errors.New("booking is already cancelled")
	ErrOverlappingBooking      = errors.New("overlapping booking exists for this time window")
	ErrCheckInTooEarly         = errors.New("check-in is not open yet")
	ErrCheckInTooLate          = errors.New("class has already ended")

	// Waitlist errors
	ErrAlreadyWaitlisted = errors.New("user is already in the waitlist for this class")

	// Coordination errors
	ErrLockContention = errors.New("class is being booked by another user")
)
