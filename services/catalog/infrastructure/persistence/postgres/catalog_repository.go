package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/database"
	catalogdomain "github.com/sourcedhq/sourced/services/catalog/domain"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
)

// CatalogRepository implements repositories.CatalogRepository against PostgreSQL.
type CatalogRepository struct {
	db *database.Database
}

// NewCatalogRepository returns a CatalogRepository backed by the given pool.
func NewCatalogRepository(db *database.Database) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Insert persists a new Catalog.
func (r *CatalogRepository) Insert(ctx context.Context, catalog *models.Catalog) error {
	_, err := r.db.DB().ExecContext(ctx, `
		INSERT INTO catalogs (id, owner_id, title, image_url, visibility, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		catalog.ID, catalog.OwnerID, catalog.Title, catalog.ImageURL, catalog.Visibility, catalog.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("%w: insert catalog: %w", catalogdomain.ErrStorageUnavailable, err)
	}
	return nil
}

// GetByID retrieves a Catalog by ID. Returns ErrCatalogNotFound if not found.
func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Catalog, error) {
	var c models.Catalog
	err := r.db.DB().QueryRowContext(ctx, `
		SELECT id, owner_id, title, image_url, visibility, created_at
		FROM catalogs WHERE id = $1`, id,
	).Scan(&c.ID, &c.OwnerID, &c.Title, &c.ImageURL, &c.Visibility, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogdomain.ErrCatalogNotFound
		}
		return nil, fmt.Errorf("query catalog: %w", err)
	}
	return &c, nil
}

// FindByOwner retrieves all catalogs belonging to ownerID, newest first.
func (r *CatalogRepository) FindByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Catalog, error) {
	rows, err := r.db.DB().QueryContext(ctx, `
		SELECT id, owner_id, title, image_url, visibility, created_at
		FROM catalogs WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("query catalogs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var catalogs []*models.Catalog
	for rows.Next() {
		var c models.Catalog
		if err := rows.Scan(&c.ID, &c.OwnerID, &c.Title, &c.ImageURL, &c.Visibility, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan catalog: %w", err)
		}
		catalogs = append(catalogs, &c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate catalogs: %w", err)
	}
	return catalogs, nil
}

// Delete removes a catalog and, via ON DELETE CASCADE, its items.
func (r *CatalogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.DB().ExecContext(ctx, `DELETE FROM catalogs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete catalog: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalogdomain.ErrCatalogNotFound
	}
	return nil
}
