package services

import (
	"time"

	"github.com/sourcedhq/sourced/pkg/app"
	"github.com/sourcedhq/sourced/pkg/moderation"
	domainsvcs "github.com/sourcedhq/sourced/services/catalog/domain/services"
	"github.com/sourcedhq/sourced/services/catalog/infrastructure/media"
	"github.com/sourcedhq/sourced/services/catalog/infrastructure/persistence/postgres"
)

// Services is the application-layer service container for this bounded context.
// It wires domain services with their infrastructure implementations.
type Services struct {
	Ingestion *IngestionService
	Catalog   *CatalogService
}

// New wires all catalog application services with infrastructure from the
// Application container.
func New(a *app.Application) *Services {
	items := postgres.NewItemRepository(a.Db, a.EventBus)
	catalogs := postgres.NewCatalogRepository(a.Db)

	acquirer := media.NewAcquirer(
		a.ObjectStore,
		a.Config.MaxImageBytes,
		time.Duration(a.Config.ImageFetchTimeoutSeconds)*time.Second,
	)
	gate := moderation.NewGate(
		a.OpenAI,
		a.Config.ModerationModel,
		time.Duration(a.Config.ModerationTimeoutSeconds)*time.Second,
		a.Logger,
	)
	screen := domainsvcs.NewLanguageScreen()
	itemCache := NewItemCache(a.Redis)

	return &Services{
		Ingestion: NewIngestionService(items, catalogs, acquirer, gate, screen, itemCache, a.Logger),
		Catalog:   NewCatalogService(catalogs, acquirer, gate, screen, a.Logger),
	}
}
