package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Catalog visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Catalog is an owned collection of Items. Its cover image goes through the
// same acquisition and safety pipeline as item images.
type Catalog struct {
	ID         uuid.UUID
	OwnerID    uuid.UUID
	Title      string
	ImageURL   string
	Visibility string
	CreatedAt  time.Time
}

// NewCatalog constructs a Catalog with generated ID and current timestamp.
func NewCatalog(ownerID uuid.UUID, title, imageURL, visibility string) (*Catalog, error) {
	if ownerID == uuid.Nil {
		return nil, fmt.Errorf("owner_id must be set")
	}
	if visibility != VisibilityPublic && visibility != VisibilityPrivate {
		return nil, fmt.Errorf("visibility must be %s or %s", VisibilityPublic, VisibilityPrivate)
	}
	return &Catalog{
		ID:         uuid.New(),
		OwnerID:    ownerID,
		Title:      title,
		ImageURL:   imageURL,
		Visibility: visibility,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
