// Package subscribers contains the event-bus handlers for the catalog bounded
// context. They run in the worker process (cmd/worker).
package subscribers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/logger"
	"github.com/sourcedhq/sourced/services/catalog/domain/events"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
	"github.com/sourcedhq/sourced/services/catalog/domain/repositories"
	"github.com/sourcedhq/sourced/services/catalog/infrastructure/enrichment"
)

// TaxonomyClassifier is the slice of enrichment.Classifier the handler needs.
type TaxonomyClassifier interface {
	Classify(ctx context.Context, in enrichment.Input) (*models.Taxonomy, bool, error)
}

// ItemCacheWarmer warms the read cache after a successful enrichment. nil
// disables warming.
type ItemCacheWarmer interface {
	Set(ctx context.Context, item *models.Item) error
}

// EnrichmentHandler consumes item-created events and attaches taxonomy.
//
// Enrichment is strictly best-effort: no outcome here is ever surfaced to the
// submitting user. A classification failure, a non-fashion verdict, or a
// malformed response all end the same way, with the item marked failed and
// its user-entered fields untouched.
type EnrichmentHandler struct {
	items      repositories.ItemRepository
	classifier TaxonomyClassifier
	cache      ItemCacheWarmer
	log        logger.Logger
}

// NewEnrichmentHandler wires the enrichment pipeline. cache may be nil.
func NewEnrichmentHandler(
	items repositories.ItemRepository,
	classifier TaxonomyClassifier,
	cache ItemCacheWarmer,
	log logger.Logger,
) *EnrichmentHandler {
	return &EnrichmentHandler{items: items, classifier: classifier, cache: cache, log: log}
}

// Handle processes one item-created event. It returns an error only for
// malformed payloads; enrichment outcomes are recorded on the item row, so the
// bus never needs to redeliver.
func (h *EnrichmentHandler) Handle(ctx context.Context, msg *message.Message) error {
	var evt events.ItemCreatedEvent
	if err := json.Unmarshal(msg.Payload, &evt); err != nil {
		return fmt.Errorf("decode item created event: %w", err)
	}
	if evt.ItemID == uuid.Nil {
		return fmt.Errorf("item created event %s has no item id", evt.EventID)
	}

	item, err := h.items.GetByID(ctx, evt.ItemID)
	if err != nil {
		// Deleted before the worker got to it; nothing to enrich.
		h.log.InfoContext(ctx, "enrichment skipped, item gone",
			"item_id", evt.ItemID, "error", err)
		return nil
	}

	// Pending-status guard makes redelivery after a crash harmless: an already
	// enriched or failed item is never reprocessed.
	if item.EnrichmentStatus != models.EnrichmentPending {
		h.log.InfoContext(ctx, "enrichment skipped, item not pending",
			"item_id", item.ID, "status", item.EnrichmentStatus)
		return nil
	}

	taxonomy, isFashion, err := h.classifier.Classify(ctx, enrichment.Input{
		Title:      item.Title.String(),
		ImageURL:   item.ImageURL,
		ProductURL: item.ProductURL,
		Price:      item.Price,
	})
	if err != nil {
		h.log.WarnContext(ctx, "enrichment classification failed",
			"item_id", item.ID, "error", err)
		h.markFailed(ctx, item.ID)
		return nil
	}
	if !isFashion {
		h.log.InfoContext(ctx, "enrichment rejected non-fashion item", "item_id", item.ID)
		h.markFailed(ctx, item.ID)
		return nil
	}

	if err := h.items.ApplyEnrichment(ctx, item.ID, taxonomy); err != nil {
		h.log.WarnContext(ctx, "enrichment write failed",
			"item_id", item.ID, "error", err)
		return nil
	}

	h.log.InfoContext(ctx, "item enriched",
		"item_id", item.ID,
		"category", taxonomy.Category,
		"confidence", taxonomy.Confidence,
	)

	if h.cache != nil {
		item.EnrichmentStatus = models.EnrichmentEnriched
		item.Taxonomy = taxonomy
		if err := h.cache.Set(ctx, item); err != nil {
			h.log.WarnContext(ctx, "enriched item cache warm failed",
				"item_id", item.ID, "error", err)
		}
	}
	return nil
}

func (h *EnrichmentHandler) markFailed(ctx context.Context, id uuid.UUID) {
	if err := h.items.MarkEnrichmentFailed(ctx, id); err != nil {
		h.log.ErrorContext(ctx, "could not mark enrichment failed",
			"item_id", id, "error", err)
	}
}
