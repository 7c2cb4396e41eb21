package events

import (
	"time"

	"github.com/google/uuid"
)

// TopicItemCreated is the Watermill topic published when an Item is persisted.
// The enrichment worker subscribes to it; delivery is decoupled from the
// submitting request's lifetime because the message is enqueued in the same
// database transaction as the insert.
const TopicItemCreated = "catalog.item.created"

// ItemCreatedEvent is published after a new Item is persisted.
type ItemCreatedEvent struct {
	EventID    uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int       `json:"version"`  // Schema version; increment on breaking changes
	ItemID     uuid.UUID `json:"item_id"`
	CatalogID  uuid.UUID `json:"catalog_id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url"`
	ProductURL string    `json:"product_url"`
	Price      string    `json:"price,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}
