package model

import "time"

// Reservation lifecycle states. InProcess is the initial state; status is
// a plain attribute mutated by the renter through the update path, no
// transition table is enforced.
const (
	StatusInProcess = "In process"
	StatusConfirmed = "Confirmed"
	StatusCancelled = "Cancelled"
	StatusFinished  = "Finished"
)

// ReservationStatuses lists every accepted status value.
var ReservationStatuses = []string{
	StatusInProcess,
	StatusConfirmed,
	StatusCancelled,
	StatusFinished,
}

// IsValidReservationStatus reports whether s is one of the accepted
// status values.
func IsValidReservationStatus(s string) bool {
	for _, v := range ReservationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Reservation is a time-bounded booking of a place by a renter using one
// of the renter's vehicles. OwnerUserID is a snapshot of the place owner
// taken at creation time: it is never re-derived, even if the place later
// changes owner. All entity references are weak (identifier + lookup).
type Reservation struct {
	ID           string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ParkingID    string    `json:"parkingId" bson:"parking_id" validate:"required,mongodb"`
	RenterUserID string    `json:"renterUserId" bson:"renter_user_id" validate:"required,mongodb"`
	OwnerUserID  string    `json:"ownerUserId" bson:"owner_user_id" validate:"required,mongodb"`
	VehicleID    string    `json:"vehiculeId" bson:"vehicle_id" validate:"required,mongodb"`
	StartDate    time.Time `json:"startDate" bson:"start_date" validate:"required"`
	EndDate      time.Time `json:"endDate" bson:"end_date" validate:"required"`
	Status       string    `json:"status" bson:"status" validate:"required,reservation_status"`
	CreatedAt    time.Time `json:"createdAt,omitempty" bson:"created_at" validate:"omitempty"`
}

// ReservationUpdate carries a partial update applied by the renter.
type ReservationUpdate struct {
	StartDate *time.Time `json:"startDate,omitempty"`
	EndDate   *time.Time `json:"endDate,omitempty"`
	VehicleID string     `json:"vehiculeId,omitempty" validate:"omitempty,mongodb"`
	Status    string     `json:"status,omitempty" validate:"omitempty,reservation_status"`
}

// ReservationDetail is the populated read model returned by the single
// reservation lookup: weak references resolved to their entities.
type ReservationDetail struct {
	Reservation
	Place   *Place   `json:"place,omitempty"`
	Vehicle *Vehicle `json:"vehicle,omitempty"`
	Renter  *User    `json:"renter,omitempty"`
	Owner   *User    `json:"owner,omitempty"`
}
