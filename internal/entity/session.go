package entity

import (
	"time"
)

// ClassSession описывает занятие с ограниченным количеством мест
type ClassSession struct {
	ID              int64     `json:"id" db:"id"`
	Name            string    `json:"name" db:"name"`
	Description     string    `json:"description" db:"description"`
	CountryID       int64     `json:"country_id" db:"country_id"`
	StartTime       time.Time `json:"start_time" db:"start_time"`
	EndTime         time.Time `json:"end_time" db:"end_time"`
	RequiredCredits int       `json:"required_credits" db:"required_credits"`
	MaxCapacity     int       `json:"max_capacity" db:"max_capacity"`
	CurrentBookings int       `json:"current_bookings" db:"current_bookings"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// IsFull reports whether the session has no free seats left.
func (s *ClassSession) IsFull() bool {
	return s.CurrentBookings >= s.MaxCapacity
}

// HasEnded reports whether the session time window is already over.
func (s *ClassSession) HasEnded(now time.Time) bool {
	return now.After(s.EndTime)
}
