package entity

import (
	"time"
)

// WaitlistEntry — запись в очереди ожидания на занятие.
// Position назначается при вставке и никогда не переиспользуется.
type WaitlistEntry struct {
	ID              int64     `json:"id" db:"id"`
	UserID          int64     `json:"user_id" db:"user_id"`
	SessionID       int64     `json:"session_id" db:"session_id"`
	UserPackageID   int64     `json:"user_package_id" db:"user_package_id"`
	CreditsReserved int       `json:"credits_reserved" db:"credits_reserved"`
	Position        int       `json:"position" db:"position"`
	IsPromoted      bool      `json:"is_promoted" db:"is_promoted"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}
