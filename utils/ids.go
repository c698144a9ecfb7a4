package utils

import (
	"github.com/google/uuid"
)

const maxRequestIDLength = 128

// GenerateID returns a new random identifier
func GenerateID() string {
	return uuid.New().String()
}

// PrefixedID returns a random identifier tagged with its origin, e.g. "auto-<uuid>"
func PrefixedID(prefix string) string {
	return prefix + "-" + GenerateID()
}

// SanitizeRequestID returns id when it is a usable correlation id and a
// fresh one otherwise.
func SanitizeRequestID(id string) string {
	if id == "" || len(id) > maxRequestIDLength {
		return GenerateID()
	}
	for _, r := range id {
		if r < 0x21 || r > 0x7e {
			return GenerateID()
		}
	}
	return id
}
