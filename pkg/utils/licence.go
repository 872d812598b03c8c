package utils

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// LicencePlate returns a short lowercase hex identifier for a new project,
// taken from the random bytes of a v4 UUID.
func LicencePlate() string {
	id := uuid.New()
	return hex.EncodeToString(id[:3])
}
