package model

import "time"

// Place categories accepted at write time.
const (
	PlaceTypeCovered = "covered"
	PlaceTypeOpen    = "open"
	PlaceTypeGarage  = "garage"
	PlaceTypeOther   = "other"
)

// Place is a bookable parking location listed by its owner (UserID).
// Geolocation is a GeoJSON-style [longitude, latitude] pair and must
// validate or the write is rejected.
type Place struct {
	ID               string     `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Description      string     `json:"description" bson:"description" validate:"required,min=2,max=500"`
	Type             string     `json:"type" bson:"type" validate:"required,oneof=covered open garage other"`
	Geolocation      []float64  `json:"geolocation" bson:"geolocation" validate:"required,geo_coordinates"`
	Picture          string     `json:"picture,omitempty" bson:"picture,omitempty" validate:"omitempty,url"`
	AvailabilityDate *time.Time `json:"availabilityDate,omitempty" bson:"availability_date,omitempty"`
	UserID           string     `json:"userId" bson:"user_id" validate:"omitempty,mongodb"`
	CreatedAt        time.Time  `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}

type PlaceUpdate struct {
	Description      string     `json:"description,omitempty" validate:"omitempty,min=2,max=500"`
	Type             string     `json:"type,omitempty" validate:"omitempty,oneof=covered open garage other"`
	Geolocation      []float64  `json:"geolocation,omitempty" validate:"omitempty,geo_coordinates"`
	Picture          string     `json:"picture,omitempty" validate:"omitempty,url"`
	AvailabilityDate *time.Time `json:"availabilityDate,omitempty"`
}
