package util

import (
	"encoding/base64"

	"github.com/google/uuid"
)

// NewCycleID returns a 22 character URL-safe identifier for a refresh cycle
func NewCycleID() string {
	u := uuid.New()
	return base64.RawURLEncoding.EncodeToString(u[:])
}
