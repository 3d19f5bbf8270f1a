package entity

import (
	"time"
)

// UserPackage представляет купленный пакет кредитов пользователя
type UserPackage struct {
	ID               int64     `json:"id" db:"id"`
	UserID           int64     `json:"user_id" db:"user_id"`
	CountryID        int64     `json:"country_id" db:"country_id"`
	TotalCredits     int       `json:"total_credits" db:"total_credits"`
	RemainingCredits int       `json:"remaining_credits" db:"remaining_credits"`
	PurchaseDate     time.Time `json:"purchase_date" db:"purchase_date"`
	ExpiryDate       time.Time `json:"expiry_date" db:"expiry_date"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time `json:"updated_at" db:"updated_at"`
}

// IsExpired reports whether the package can no longer be spent.
func (p *UserPackage) IsExpired(now time.Time) bool {
	return now.After(p.ExpiryDate)
}
