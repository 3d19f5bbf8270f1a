package entity

import (
	"time"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusCheckedIn BookingStatus = "checked_in"
	BookingStatusCancelled BookingStatus = "cancelled"
	// BookingStatusCompleted is part of the status model but nothing
	// transitions into it yet; kept for forward compatibility.
	BookingStatusCompleted BookingStatus = "completed"
)

type Booking struct {
	ID            int64         `json:"id" db:"id"`
	UserID        int64         `json:"user_id" db:"user_id"`
	SessionID     int64         `json:"session_id" db:"session_id"`
	UserPackageID int64         `json:"user_package_id" db:"user_package_id"`
	CreditsUsed   int           `json:"credits_used" db:"credits_used"`
	Status        BookingStatus `json:"status" db:"status"`
	IsCheckedIn   bool          `json:"is_checked_in" db:"is_checked_in"`
	CheckInTime   *time.Time    `json:"check_in_time,omitempty" db:"check_in_time"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}
