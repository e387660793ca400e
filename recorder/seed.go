package recorder

import (
	"strings"

	"github.com/google/uuid"
)

// NewSeed returns a fresh run identifier. Two calls never return the same seed.
func NewSeed() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}
