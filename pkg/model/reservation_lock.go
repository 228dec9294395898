package model

import "time"

// ReservationLock is an advisory lock document guarding the
// conflict-check-then-insert window for one place. The unique _id makes a
// second concurrent acquisition fail with a duplicate key error; the TTL
// index on expires_at reclaims locks leaked by a crashed request.
type ReservationLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
