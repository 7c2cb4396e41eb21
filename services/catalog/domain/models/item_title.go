package models

import (
	"fmt"
	"strings"
)

// ItemTitle is a value object representing a valid item title.
// Titles are trimmed and must be 1–255 characters after trimming.
type ItemTitle string

const maxItemTitleLength = 255

// NewItemTitle trims s and constructs a valid ItemTitle, or returns an error
// if constraints are violated.
func NewItemTitle(s string) (ItemTitle, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("item title must not be empty")
	}
	if len(trimmed) > maxItemTitleLength {
		return "", fmt.Errorf("item title must not exceed %d characters", maxItemTitleLength)
	}
	return ItemTitle(trimmed), nil
}

// String returns the underlying string value.
func (t ItemTitle) String() string {
	return string(t)
}
