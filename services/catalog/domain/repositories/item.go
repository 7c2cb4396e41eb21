package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/services/catalog/domain/models"
)

// QueryOpts contains pagination parameters for list queries.
type QueryOpts struct {
	Limit  int // Maximum number of records to return
	Offset int // Number of records to skip
}

// ItemRepository is the persistence interface for the Item aggregate.
// The domain layer owns this interface; infrastructure implements it.
//
// Write ordering contract: Insert happens-before ApplyEnrichment or
// MarkEnrichmentFailed for any given item id — the enrichment worker only
// sees an item id after Insert's transaction commits.
type ItemRepository interface {
	// Insert persists a new pending item atomically and enqueues the
	// item-created event in the same transaction.
	Insert(ctx context.Context, item *models.Item) error

	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// FindByCatalogAndProductURL supports idempotent submission: a resubmitted
	// (catalog, product URL) pair resolves to the existing item. Returns
	// (nil, nil) when absent.
	FindByCatalogAndProductURL(ctx context.Context, catalogID uuid.UUID, productURL string) (*models.Item, error)

	// FindByCatalogID retrieves a page of items plus the total count.
	FindByCatalogID(ctx context.Context, catalogID uuid.UUID, opts QueryOpts) ([]*models.Item, int, error)

	// ApplyEnrichment sets every taxonomy field and status=enriched in one
	// atomic update. A no-op (not an error) when the item no longer exists.
	ApplyEnrichment(ctx context.Context, id uuid.UUID, taxonomy *models.Taxonomy) error

	// MarkEnrichmentFailed sets status=failed only, never touching taxonomy or
	// item fields. Idempotent; a no-op when the item no longer exists.
	MarkEnrichmentFailed(ctx context.Context, id uuid.UUID) error

	// Delete removes an item by ID.
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteMany removes multiple items at once and reports how many went away.
	DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error)
}

// CatalogRepository is the persistence interface for the Catalog aggregate.
type CatalogRepository interface {
	Insert(ctx context.Context, catalog *models.Catalog) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Catalog, error)
	FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Catalog, error)
	Delete(ctx context.Context, id uuid.UUID) error
}
