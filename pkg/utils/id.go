package utils

import (
	"strings"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// NewUUID generates a new UUID
func NewUUID() uuid.UUID {
	return uuid.New()
}

// ParseUUID parses a string into a UUID
func ParseUUID(s string) (uuid.UUID, error) {
	return uuid.Parse(s)
}

// NewID returns an opaque, prefix-tagged identifier such as "ord_01j9z3...".
// The ULID body sorts by creation time, which keeps FIFO scans index friendly.
func NewID(prefix string) string {
	id := strings.ToLower(ulid.Make().String())
	if prefix == "" {
		return id
	}
	return prefix + "_" + id
}

// IDPrefix returns the tag portion of an id produced by NewID
func IDPrefix(id string) string {
	i := strings.LastIndex(id, "_")
	if i < 0 {
		return ""
	}
	return id[:i]
}
