// Package api registers the catalog bounded context's routes.
package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/sourcedhq/sourced/pkg/app"
	"github.com/sourcedhq/sourced/pkg/auth"
	"github.com/sourcedhq/sourced/services/catalog/application/handlers"
	appsvcs "github.com/sourcedhq/sourced/services/catalog/application/services"
)

// CatalogRoutes registers catalog and item endpoints on the provided chi router.
// All routes require an authenticated session.
func CatalogRoutes(r chi.Router, a *app.Application) {
	svcs := appsvcs.New(a)
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth(a.SessionStore, a.Logger))

		r.Route("/catalogs", func(r chi.Router) {
			r.Post("/", handlers.NewPostCatalogHandler(svcs).Execute)
			r.Get("/", handlers.NewListCatalogsHandler(svcs).Execute)
			r.Route("/{catalogID}", func(r chi.Router) {
				r.Get("/", handlers.NewGetCatalogHandler(svcs).Execute)
				r.Delete("/", handlers.NewDeleteCatalogHandler(svcs).Execute)
				r.Post("/items", handlers.NewPostItemHandler(svcs).Execute)
				r.Get("/items", handlers.NewListItemsHandler(svcs).Execute)
			})
		})

		r.Route("/items", func(r chi.Router) {
			r.Post("/delete", handlers.NewBulkDeleteItemsHandler(svcs).Execute)
			r.Route("/{itemID}", func(r chi.Router) {
				r.Get("/", handlers.NewGetItemHandler(svcs).Execute)
				r.Delete("/", handlers.NewDeleteItemHandler(svcs).Execute)
			})
		})
	})
}
