package store

import "github.com/google/uuid"

// NewID returns a fresh opaque identifier for a persisted record.
func NewID() string {
	return uuid.NewString()
}
