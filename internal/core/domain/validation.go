package domain

import (
	"fmt"
	"unicode"

	"github.com/google/uuid"
)

// MaxKeyNameLen bounds the label length accepted from callers.
const MaxKeyNameLen = 128

// ValidateKeyName checks a caller-supplied key label. Any name is accepted,
// including the empty string, as long as it is short and printable.
// Names are not required to be unique.
func ValidateKeyName(name string) error {
	if len(name) > MaxKeyNameLen {
		return fmt.Errorf("key name exceeds %d characters", MaxKeyNameLen)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return fmt.Errorf("key name contains control characters")
		}
	}
	return nil
}

// ValidateKeyID ensures id is a UUID as assigned by the lifecycle manager.
func ValidateKeyID(id string) error {
	if id == "" {
		return fmt.Errorf("key id cannot be empty")
	}
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("key id '%s' is not a valid UUID", id)
	}
	return nil
}
