package store

import "github.com/google/uuid"

// IDGenerator supplies opaque unique identifiers, one per Create.
type IDGenerator func() string

// UUIDGenerator returns random (v4) UUID strings.
func UUIDGenerator() string {
	return uuid.NewString()
}
