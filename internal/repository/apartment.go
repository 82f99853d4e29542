package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/vegasatr/OtpuskPass-bot/internal/model"
)

var ErrApartmentNotFound = errors.New("apartment not found")

// GetBaseApartment returns the canonical demo listing for a city. Absence is
// a normal outcome and surfaces as ErrApartmentNotFound.
func (r *Repository) GetBaseApartment(ctx context.Context, city string) (*model.Apartment, error) {
	var apt model.Apartment
	query := "SELECT * FROM apartments WHERE city = $1 AND apartment_type = $2"
	err := r.db.GetContext(ctx, &apt, query, city, model.ApartmentTypeBase)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApartmentNotFound
		}
		return nil, err
	}
	return &apt, nil
}

func (r *Repository) GetApartment(ctx context.Context, id int64) (*model.Apartment, error) {
	var apt model.Apartment
	err := r.db.GetContext(ctx, &apt, "SELECT * FROM apartments WHERE id = $1", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrApartmentNotFound
		}
		return nil, err
	}
	return &apt, nil
}

func (r *Repository) GetApartmentsByCity(ctx context.Context, city string) ([]model.Apartment, error) {
	var apts []model.Apartment
	query := "SELECT * FROM apartments WHERE city = $1 ORDER BY id"
	err := r.db.SelectContext(ctx, &apts, query, city)
	return apts, err
}

// UpsertApartment inserts or refreshes a listing keyed by (city, type). The
// loader re-runs against existing rows without duplicating them.
func (r *Repository) UpsertApartment(ctx context.Context, apt *model.Apartment) error {
	query := `
		INSERT INTO apartments (
			city, apartment_type, address, description, features,
			nearby_attractions, video_file_id, status, area_sqm, num_bedrooms, owner_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (city, apartment_type) DO UPDATE SET
			address = EXCLUDED.address,
			description = EXCLUDED.description,
			features = EXCLUDED.features,
			nearby_attractions = EXCLUDED.nearby_attractions,
			video_file_id = EXCLUDED.video_file_id,
			status = EXCLUDED.status,
			area_sqm = EXCLUDED.area_sqm,
			num_bedrooms = EXCLUDED.num_bedrooms
		RETURNING id`

	return r.db.QueryRowContext(ctx, query,
		apt.City,
		apt.ApartmentType,
		apt.Address,
		apt.Description,
		apt.Features,
		apt.NearbyAttractions,
		apt.VideoFileID,
		apt.Status,
		apt.AreaSqm,
		apt.NumBedrooms,
		apt.OwnerID,
	).Scan(&apt.ID)
}
