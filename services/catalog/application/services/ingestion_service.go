package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/logger"
	"github.com/sourcedhq/sourced/pkg/moderation"
	catalogdomain "github.com/sourcedhq/sourced/services/catalog/domain"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
	"github.com/sourcedhq/sourced/services/catalog/domain/repositories"
	domainsvcs "github.com/sourcedhq/sourced/services/catalog/domain/services"
)

// ImageAcquirer rehosts an image from either input mode and returns the
// owned URL. Implemented by media.Acquirer.
type ImageAcquirer interface {
	FromBytes(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error)
	FromURL(ctx context.Context, userID uuid.UUID, remoteURL string) (string, error)
}

// SafetyGate classifies an acquired image before persistence. Implemented by
// moderation.Gate.
type SafetyGate interface {
	Check(ctx context.Context, imageURL string) error
}

// ImageSource is the caller's image input: exactly one of RemoteURL or Data
// must be set. ContentType accompanies Data.
type ImageSource struct {
	RemoteURL   string
	Data        []byte
	ContentType string
}

// SubmitItemCommand carries one item submission.
type SubmitItemCommand struct {
	CatalogID  uuid.UUID
	UserID     uuid.UUID
	Title      string
	ProductURL string
	Seller     string // optional; derived from ProductURL's host when empty
	Price      string // optional free-form text
	Image      ImageSource
}

// IngestionService is the single entry point for adding an item to a catalog.
// It owns the submission pipeline: validate → ownership → duplicate check →
// acquire image → safety gate → persist. Enrichment dispatch rides inside the
// persist step (the repository enqueues the item-created event in the insert
// transaction), so a successful return guarantees exactly one dispatch and a
// failed one guarantees none.
type IngestionService struct {
	items    repositories.ItemRepository
	catalogs repositories.CatalogRepository
	acquirer ImageAcquirer
	gate     SafetyGate
	screen   *domainsvcs.LanguageScreen
	cache    *ItemCache
	log      logger.Logger
}

// NewIngestionService wires the ingestion pipeline. cache may be nil.
func NewIngestionService(
	items repositories.ItemRepository,
	catalogs repositories.CatalogRepository,
	acquirer ImageAcquirer,
	gate SafetyGate,
	screen *domainsvcs.LanguageScreen,
	itemCache *ItemCache,
	log logger.Logger,
) *IngestionService {
	return &IngestionService{
		items:    items,
		catalogs: catalogs,
		acquirer: acquirer,
		gate:     gate,
		screen:   screen,
		cache:    itemCache,
		log:      log,
	}
}

// SubmitItem runs the full ingestion pipeline and returns the persisted Item.
// The returned item is immediately visible and usable; taxonomy arrives later
// (or never) without affecting it.
//
// Idempotency: resubmitting the same (catalog, product URL) — e.g. a client
// retrying after a timeout — returns the already-persisted item instead of
// creating a second one.
func (s *IngestionService) SubmitItem(ctx context.Context, cmd SubmitItemCommand) (*models.Item, error) {
	title, err := models.NewItemTitle(cmd.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalogdomain.ErrValidation, err)
	}
	if s.screen.ContainsBannedLanguage(title.String()) {
		return nil, fmt.Errorf("%w: title contains banned language", catalogdomain.ErrValidation)
	}
	if err := validateProductURL(cmd.ProductURL); err != nil {
		return nil, err
	}
	if err := validateImageSource(cmd.Image); err != nil {
		return nil, err
	}

	catalog, err := s.catalogs.GetByID(ctx, cmd.CatalogID)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	if catalog.OwnerID != cmd.UserID {
		return nil, catalogdomain.ErrNotCatalogOwner
	}

	if existing, err := s.items.FindByCatalogAndProductURL(ctx, cmd.CatalogID, cmd.ProductURL); err != nil {
		return nil, fmt.Errorf("duplicate check: %w", err)
	} else if existing != nil {
		s.log.InfoContext(ctx, "duplicate submission resolved to existing item",
			"item_id", existing.ID, "catalog_id", cmd.CatalogID, "product_url", cmd.ProductURL)
		return existing, nil
	}

	imageURL, err := s.acquireImage(ctx, cmd)
	if err != nil {
		return nil, err
	}

	if err := s.gate.Check(ctx, imageURL); err != nil {
		if errors.Is(err, moderation.ErrImageRejected) {
			// The acquired object stays orphaned in storage; garbage
			// collection is outside this pipeline.
			return nil, fmt.Errorf("%w: %w", catalogdomain.ErrContentRejected, err)
		}
		return nil, fmt.Errorf("safety gate: %w", err)
	}

	seller := cmd.Seller
	if seller == "" {
		seller = domainsvcs.DeriveSeller(cmd.ProductURL)
	}

	item, err := models.NewItem(cmd.CatalogID, title, imageURL, cmd.ProductURL, seller, cmd.Price)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalogdomain.ErrValidation, err)
	}

	if err := s.items.Insert(ctx, item); err != nil {
		if errors.Is(err, catalogdomain.ErrDuplicateItem) {
			// Lost a race against a concurrent identical submission; resolve
			// to the winner's item.
			existing, findErr := s.items.FindByCatalogAndProductURL(ctx, cmd.CatalogID, cmd.ProductURL)
			if findErr == nil && existing != nil {
				return existing, nil
			}
			return nil, fmt.Errorf("%w: duplicate insert race: %w", catalogdomain.ErrStorageUnavailable, err)
		}
		return nil, err
	}

	s.log.InfoContext(ctx, "item submitted",
		"item_id", item.ID, "catalog_id", item.CatalogID, "seller", item.Seller)
	return item, nil
}

// GetItem retrieves an Item using a read-through cache:
//  1. Check Redis first.
//  2. On miss (or cache error), query Postgres.
//  3. Asynchronously warm the cache with the Postgres result.
func (s *IngestionService) GetItem(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, id); err == nil {
			return cached, nil
		} else if !errors.Is(err, ErrCacheMiss) {
			s.log.WarnContext(ctx, "item cache read failed", "item_id", id, "error", err)
		}
	}

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if s.cache != nil {
		go func() {
			if err := s.cache.Set(context.Background(), item); err != nil {
				s.log.Warn("item cache warm failed", "item_id", item.ID, "error", err)
			}
		}()
	}
	return item, nil
}

// ListItems returns a page of a catalog's items plus the total count.
func (s *IngestionService) ListItems(ctx context.Context, catalogID uuid.UUID, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	if opts.Limit <= 0 || opts.Limit > 100 {
		opts.Limit = 50
	}
	if opts.Offset < 0 {
		opts.Offset = 0
	}
	items, total, err := s.items.FindByCatalogID(ctx, catalogID, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("list items: %w", err)
	}
	return items, total, nil
}

// DeleteItem removes one item after verifying the caller owns its catalog.
func (s *IngestionService) DeleteItem(ctx context.Context, userID, itemID uuid.UUID) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("load item: %w", err)
	}
	if err := s.requireOwner(ctx, userID, item.CatalogID); err != nil {
		return err
	}
	if err := s.items.Delete(ctx, itemID); err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if s.cache != nil {
		_ = s.cache.Delete(context.Background(), itemID)
	}
	return nil
}

// DeleteItems removes a batch of items, all of which must live in catalogs
// the caller owns. Returns the number of deleted rows.
func (s *IngestionService) DeleteItems(ctx context.Context, userID uuid.UUID, itemIDs []uuid.UUID) (int, error) {
	for _, id := range itemIDs {
		item, err := s.items.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, catalogdomain.ErrItemNotFound) {
				continue // already gone; bulk delete tolerates this
			}
			return 0, fmt.Errorf("load item: %w", err)
		}
		if err := s.requireOwner(ctx, userID, item.CatalogID); err != nil {
			return 0, err
		}
	}
	n, err := s.items.DeleteMany(ctx, itemIDs)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	if s.cache != nil {
		for _, id := range itemIDs {
			_ = s.cache.Delete(context.Background(), id)
		}
	}
	return n, nil
}

func (s *IngestionService) acquireImage(ctx context.Context, cmd SubmitItemCommand) (string, error) {
	if cmd.Image.RemoteURL != "" {
		return s.acquirer.FromURL(ctx, cmd.UserID, cmd.Image.RemoteURL)
	}
	return s.acquirer.FromBytes(ctx, cmd.UserID, cmd.Image.Data, cmd.Image.ContentType)
}

func (s *IngestionService) requireOwner(ctx context.Context, userID, catalogID uuid.UUID) error {
	catalog, err := s.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	if catalog.OwnerID != userID {
		return catalogdomain.ErrNotCatalogOwner
	}
	return nil
}

func validateProductURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%w: product_url is not a valid URL", catalogdomain.ErrValidation)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: product_url must be an absolute http(s) URL", catalogdomain.ErrValidation)
	}
	return nil
}

func validateImageSource(src ImageSource) error {
	hasURL := src.RemoteURL != ""
	hasData := len(src.Data) > 0
	if hasURL == hasData {
		return fmt.Errorf("%w: provide exactly one of image URL or image data", catalogdomain.ErrValidation)
	}
	if hasData && src.ContentType == "" {
		return fmt.Errorf("%w: image data requires a content type", catalogdomain.ErrValidation)
	}
	return nil
}
