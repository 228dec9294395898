package model

// Vehicle is owned by exactly one user. A vehicle used in a reservation
// must belong to the requesting principal.
type Vehicle struct {
	ID                 string `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Type               string `json:"type" bson:"type" validate:"required,min=2,max=30"`
	RegistrationNumber string `json:"registrationNumber" bson:"registration_number" validate:"required,min=2,max=20"`
	Color              string `json:"color" bson:"color" validate:"required,min=2,max=30"`
	Brand              string `json:"brand" bson:"brand" validate:"required,min=2,max=30"`
	UserID             string `json:"userId" bson:"user_id" validate:"omitempty,mongodb"`
}

type VehicleUpdate struct {
	Type               string `json:"type,omitempty" validate:"omitempty,min=2,max=30"`
	RegistrationNumber string `json:"registrationNumber,omitempty" validate:"omitempty,min=2,max=20"`
	Color              string `json:"color,omitempty" validate:"omitempty,min=2,max=30"`
	Brand              string `json:"brand,omitempty" validate:"omitempty,min=2,max=30"`
}
