package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

var ErrBookingNotFound = errors.New("booking not found")

func (r *Repository) GetBooking(ctx context.Context, id int64) (*model.Booking, error) {
	var booking model.Booking
	err := r.db.GetContext(ctx, &booking, "SELECT * FROM bookings WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return &booking, nil
}

func (r *Repository) GetUserBookings(ctx context.Context, userID int64) ([]model.Booking, error) {
	var bookings []model.Booking
	query := "SELECT * FROM bookings WHERE user_id = $1 ORDER BY start_date DESC"
	err := r.db.SelectContext(ctx, &bookings, query, userID)
	return bookings, err
}

// CreateBookingTx runs on the caller's transaction so the booking row and
// the night deduction commit together.
func (r *Repository) CreateBookingTx(ctx context.Context, tx *sqlx.Tx, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (user_id, apartment_id, start_date, end_date, nights_used, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return tx.QueryRowContext(ctx, query,
		booking.UserID,
		booking.ApartmentID,
		booking.StartDate,
		booking.EndDate,
		booking.NightsUsed,
		booking.Status,
	).Scan(&booking.ID)
}
