package notify

import (
	"time"

	"github.com/google/uuid"

	"parkspot/pkg/model"
)

// Event types emitted by the marketplace core.
const (
	EventPlaceCreated          = "place-created"
	EventReservationCreated    = "reservation-created"
	EventReservationEndingSoon = "reservation-ending-soon"
)

// Event is the structured payload delivered to every listener. Payloads
// are always typed structs built by the emitting service, so subscribers
// never see malformed data.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

func NewEvent(eventType string, payload any) Event {
	return Event{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Payload:   payload,
	}
}

type PlaceCreated struct {
	Place *model.Place `json:"place"`
}

// ReservationCreated is addressed to the place owner; OwnerName is the
// owner's username at emission time.
type ReservationCreated struct {
	Reservation *model.Reservation `json:"reservation"`
	OwnerName   string             `json:"ownerName"`
}

type ReservationEndingSoon struct {
	Reservation *model.Reservation `json:"reservation"`
}
