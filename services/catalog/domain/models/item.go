package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EnrichmentStatus tracks whether an item's taxonomy fields are trustworthy.
// Items are fully usable in every status; taxonomy is a bonus, not a gate.
type EnrichmentStatus string

const (
	EnrichmentPending  EnrichmentStatus = "pending"
	EnrichmentEnriched EnrichmentStatus = "enriched"
	EnrichmentFailed   EnrichmentStatus = "failed"
)

// Item is the core aggregate for this bounded context: one externally-sourced
// product inside a catalog. ImageURL always points at owned storage — raw
// uploads and remote images are rehosted before an Item is constructed.
type Item struct {
	ID         uuid.UUID
	CatalogID  uuid.UUID
	Title      ItemTitle
	ImageURL   string
	ProductURL string
	Seller     string
	Price      string // free-form, stored as presented
	LikeCount  int

	EnrichmentStatus EnrichmentStatus
	Taxonomy         *Taxonomy // nil unless EnrichmentStatus == enriched

	CreatedAt time.Time
}

// NewItem constructs a pending Item with generated ID and current timestamp.
func NewItem(catalogID uuid.UUID, title ItemTitle, imageURL, productURL, seller, price string) (*Item, error) {
	if catalogID == uuid.Nil {
		return nil, fmt.Errorf("catalog_id must be set")
	}
	if imageURL == "" {
		return nil, fmt.Errorf("image_url must be set")
	}
	if productURL == "" {
		return nil, fmt.Errorf("product_url must be set")
	}
	return &Item{
		ID:               uuid.New(),
		CatalogID:        catalogID,
		Title:            title,
		ImageURL:         imageURL,
		ProductURL:       productURL,
		Seller:           seller,
		Price:            price,
		EnrichmentStatus: EnrichmentPending,
		CreatedAt:        time.Now().UTC(),
	}, nil
}
