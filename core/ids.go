package core

import "github.com/google/uuid"

// NewID generates a unique identifier suitable for generation jobs.
//
// IDs are caller-generated so that a client can keep a handle for a later
// explicit cancel before the response arrives. Collision probability of a
// UUID is negligible for this purpose.
func NewID() string { return uuid.NewString() }
