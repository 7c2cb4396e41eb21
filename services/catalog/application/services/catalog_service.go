package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/logger"
	"github.com/sourcedhq/sourced/pkg/moderation"
	catalogdomain "github.com/sourcedhq/sourced/services/catalog/domain"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
	"github.com/sourcedhq/sourced/services/catalog/domain/repositories"
	domainsvcs "github.com/sourcedhq/sourced/services/catalog/domain/services"
)

// CreateCatalogCommand carries one catalog creation request. The cover image
// goes through the same acquisition and safety pipeline as item images.
type CreateCatalogCommand struct {
	UserID     uuid.UUID
	Title      string
	Visibility string
	Image      ImageSource
}

// CatalogService handles catalog CRUD. Item-level operations live on
// IngestionService.
type CatalogService struct {
	catalogs repositories.CatalogRepository
	acquirer ImageAcquirer
	gate     SafetyGate
	screen   *domainsvcs.LanguageScreen
	log      logger.Logger
}

// NewCatalogService wires catalog CRUD with the shared image pipeline.
func NewCatalogService(
	catalogs repositories.CatalogRepository,
	acquirer ImageAcquirer,
	gate SafetyGate,
	screen *domainsvcs.LanguageScreen,
	log logger.Logger,
) *CatalogService {
	return &CatalogService{catalogs: catalogs, acquirer: acquirer, gate: gate, screen: screen, log: log}
}

// CreateCatalog validates, acquires the cover image, runs it through the
// safety gate, and persists the catalog.
func (s *CatalogService) CreateCatalog(ctx context.Context, cmd CreateCatalogCommand) (*models.Catalog, error) {
	title, err := models.NewItemTitle(cmd.Title)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalogdomain.ErrValidation, err)
	}
	if s.screen.ContainsBannedLanguage(title.String()) {
		return nil, fmt.Errorf("%w: title contains banned language", catalogdomain.ErrValidation)
	}
	if err := validateImageSource(cmd.Image); err != nil {
		return nil, err
	}

	var imageURL string
	if cmd.Image.RemoteURL != "" {
		imageURL, err = s.acquirer.FromURL(ctx, cmd.UserID, cmd.Image.RemoteURL)
	} else {
		imageURL, err = s.acquirer.FromBytes(ctx, cmd.UserID, cmd.Image.Data, cmd.Image.ContentType)
	}
	if err != nil {
		return nil, err
	}

	if err := s.gate.Check(ctx, imageURL); err != nil {
		if errors.Is(err, moderation.ErrImageRejected) {
			return nil, fmt.Errorf("%w: %w", catalogdomain.ErrContentRejected, err)
		}
		return nil, fmt.Errorf("safety gate: %w", err)
	}

	catalog, err := models.NewCatalog(cmd.UserID, title.String(), imageURL, cmd.Visibility)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", catalogdomain.ErrValidation, err)
	}
	if err := s.catalogs.Insert(ctx, catalog); err != nil {
		return nil, fmt.Errorf("insert catalog: %w", err)
	}

	s.log.InfoContext(ctx, "catalog created", "catalog_id", catalog.ID, "owner_id", catalog.OwnerID)
	return catalog, nil
}

// GetCatalog returns one catalog. Private catalogs are visible only to their
// owner.
func (s *CatalogService) GetCatalog(ctx context.Context, userID, catalogID uuid.UUID) (*models.Catalog, error) {
	catalog, err := s.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return nil, fmt.Errorf("get catalog: %w", err)
	}
	if catalog.Visibility == models.VisibilityPrivate && catalog.OwnerID != userID {
		return nil, catalogdomain.ErrCatalogNotFound
	}
	return catalog, nil
}

// ListCatalogs returns all catalogs owned by the caller.
func (s *CatalogService) ListCatalogs(ctx context.Context, userID uuid.UUID) ([]*models.Catalog, error) {
	catalogs, err := s.catalogs.FindByOwner(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list catalogs: %w", err)
	}
	return catalogs, nil
}

// DeleteCatalog removes a catalog and (via FK cascade) its items.
func (s *CatalogService) DeleteCatalog(ctx context.Context, userID, catalogID uuid.UUID) error {
	catalog, err := s.catalogs.GetByID(ctx, catalogID)
	if err != nil {
		return fmt.Errorf("get catalog: %w", err)
	}
	if catalog.OwnerID != userID {
		return catalogdomain.ErrNotCatalogOwner
	}
	if err := s.catalogs.Delete(ctx, catalogID); err != nil {
		return fmt.Errorf("delete catalog: %w", err)
	}
	s.log.InfoContext(ctx, "catalog deleted", "catalog_id", catalogID)
	return nil
}
