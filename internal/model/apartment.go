package model

import "fmt"

// ApartmentTypeBase marks the one canonical demo listing per city shown
// during the sales pitch. Owner-submitted listings use other types.
const ApartmentTypeBase = "base"

// ApartmentStatusAvailable is the status assigned to freshly imported
// listings.
const ApartmentStatusAvailable = "available"

type Apartment struct {
	ID                int64   `json:"id" db:"id"`
	City              string  `json:"city" db:"city"`
	ApartmentType     string  `json:"apartment_type" db:"apartment_type"`
	Address           string  `json:"address" db:"address"`
	Description       string  `json:"description" db:"description"`
	Features          string  `json:"features" db:"features"`
	NearbyAttractions string  `json:"nearby_attractions" db:"nearby_attractions"`
	VideoFileID       *string `json:"video_file_id,omitempty" db:"video_file_id"`
	Status            string  `json:"status" db:"status"`
	AreaSqm           float64 `json:"area_sqm" db:"area_sqm"`
	NumBedrooms       int     `json:"num_bedrooms" db:"num_bedrooms"`
	OwnerID           *int64  `json:"owner_id,omitempty" db:"owner_id"`
}

// FormatInfo renders the listing card sent to the user.
func (a *Apartment) FormatInfo() string {
	return fmt.Sprintf(`🏠 Квартира в %s

📍 Адрес: %s
📐 Площадь: %.0f м²
🛏 Спальни: %d

📝 Описание:
%s

✨ Особенности:
%s

🏖️ Рядом:
%s`,
		a.City,
		a.Address,
		a.AreaSqm,
		a.NumBedrooms,
		a.Description,
		a.Features,
		a.NearbyAttractions,
	)
}
