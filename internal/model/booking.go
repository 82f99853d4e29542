package model

import "time"

type Booking struct {
	ID          int64     `json:"id" db:"id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	ApartmentID int64     `json:"apartment_id" db:"apartment_id"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	NightsUsed  int       `json:"nights_used" db:"nights_used"`
	Status      string    `json:"status" db:"status"`
}

// Nights derives the booked night count from the date range.
func (b *Booking) Nights() int {
	return int(b.EndDate.Sub(b.StartDate).Hours() / 24)
}
