package models

import (
	"github.com/google/uuid"
)

// newID returns the store-wide identity used by every record.
func newID() string {
	return uuid.NewString()
}
