package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/sourcedhq/sourced/pkg/database"
	"github.com/sourcedhq/sourced/pkg/events"
	catalogdomain "github.com/sourcedhq/sourced/services/catalog/domain"
	domainevents "github.com/sourcedhq/sourced/services/catalog/domain/events"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
	"github.com/sourcedhq/sourced/services/catalog/domain/repositories"
)

const uniqueViolation = "23505"

// itemColumns is the select list shared by every item query.
const itemColumns = `id, catalog_id, title, image_url, product_url, seller, price, like_count,
	enrichment_status, category, subcategory, brand, product_type, colors, primary_color,
	material, pattern, style_tags, season, formality, gender, fit_type, occasion_tags,
	price_tier, categorization_confidence, created_at`

// ItemRepository implements repositories.ItemRepository against PostgreSQL.
// Insert enqueues the ItemCreatedEvent through the event bus's tx publisher in
// the same transaction as the row, so a committed item always has exactly one
// enrichment dispatch and an aborted insert has none.
type ItemRepository struct {
	db  *database.Database
	bus *events.EventBus
}

// NewItemRepository returns an ItemRepository backed by the given pool and
// event bus. A nil bus disables event publishing (tests).
func NewItemRepository(db *database.Database, bus *events.EventBus) *ItemRepository {
	return &ItemRepository{db: db, bus: bus}
}

// Insert persists a new pending Item and publishes ItemCreatedEvent within the
// same transaction. Returns ErrDuplicateItem when the (catalog_id, product_url)
// unique index is violated by a concurrent submission.
func (r *ItemRepository) Insert(ctx context.Context, item *models.Item) error {
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO catalog_items (id, catalog_id, title, image_url, product_url, seller, price, enrichment_status, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			item.ID, item.CatalogID, item.Title.String(), item.ImageURL, item.ProductURL,
			item.Seller, item.Price, string(item.EnrichmentStatus), item.CreatedAt,
		)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return catalogdomain.ErrDuplicateItem
			}
			return fmt.Errorf("insert item: %w", err)
		}

		if r.bus != nil {
			if err := r.publishCreated(tx, item); err != nil {
				return fmt.Errorf("publish item created: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, catalogdomain.ErrDuplicateItem) {
			return err
		}
		return fmt.Errorf("%w: %w", catalogdomain.ErrStorageUnavailable, err)
	}
	return nil
}

// GetByID retrieves an Item by ID. Returns ErrItemNotFound if not found.
func (r *ItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM catalog_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, catalogdomain.ErrItemNotFound
		}
		return nil, fmt.Errorf("query item: %w", err)
	}
	return item, nil
}

// FindByCatalogAndProductURL returns the item matching the soft-unique
// (catalog, product URL) pair, or (nil, nil) when absent.
func (r *ItemRepository) FindByCatalogAndProductURL(ctx context.Context, catalogID uuid.UUID, productURL string) (*models.Item, error) {
	row := r.db.DB().QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM catalog_items WHERE catalog_id = $1 AND product_url = $2`,
		catalogID, productURL)
	item, err := scanItem(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query item by product url: %w", err)
	}
	return item, nil
}

// FindByCatalogID retrieves a page of items (oldest first, as catalogs are
// displayed) plus the total count.
func (r *ItemRepository) FindByCatalogID(ctx context.Context, catalogID uuid.UUID, opts repositories.QueryOpts) ([]*models.Item, int, error) {
	rows, err := r.db.DB().QueryContext(ctx,
		`SELECT `+itemColumns+` FROM catalog_items
		 WHERE catalog_id = $1 ORDER BY created_at ASC LIMIT $2 OFFSET $3`,
		catalogID, opts.Limit, opts.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var items []*models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate items: %w", err)
	}

	var total int
	if err := r.db.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM catalog_items WHERE catalog_id = $1`, catalogID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count items: %w", err)
	}
	return items, total, nil
}

// ApplyEnrichment sets every taxonomy column and status=enriched in a single
// UPDATE. Only items still pending are touched; a vanished or already-settled
// row is a no-op.
func (r *ItemRepository) ApplyEnrichment(ctx context.Context, id uuid.UUID, taxonomy *models.Taxonomy) error {
	colors, err := json.Marshal(taxonomy.Colors)
	if err != nil {
		return fmt.Errorf("marshal colors: %w", err)
	}
	styleTags, err := json.Marshal(taxonomy.StyleTags)
	if err != nil {
		return fmt.Errorf("marshal style_tags: %w", err)
	}
	occasionTags, err := json.Marshal(taxonomy.OccasionTags)
	if err != nil {
		return fmt.Errorf("marshal occasion_tags: %w", err)
	}

	_, err = r.db.DB().ExecContext(ctx, `
		UPDATE catalog_items SET
			enrichment_status = $2,
			category = $3, subcategory = $4, brand = $5, product_type = $6,
			colors = $7, primary_color = $8, material = $9, pattern = $10,
			style_tags = $11, season = $12, formality = $13, gender = $14,
			fit_type = $15, occasion_tags = $16, price_tier = $17,
			categorization_confidence = $18
		WHERE id = $1 AND enrichment_status = $19`,
		id, string(models.EnrichmentEnriched),
		nullable(taxonomy.Category), nullable(taxonomy.Subcategory), nullable(taxonomy.Brand), nullable(taxonomy.ProductType),
		colors, nullable(taxonomy.PrimaryColor), nullable(taxonomy.Material), nullable(taxonomy.Pattern),
		styleTags, nullable(taxonomy.Season), nullable(taxonomy.Formality), nullable(taxonomy.Gender),
		nullable(taxonomy.FitType), occasionTags, nullable(taxonomy.PriceTier),
		taxonomy.Confidence, string(models.EnrichmentPending),
	)
	if err != nil {
		return fmt.Errorf("%w: apply enrichment: %w", catalogdomain.ErrStorageUnavailable, err)
	}
	return nil
}

// MarkEnrichmentFailed flips status to failed without touching any other
// column. Idempotent; a no-op when the item no longer exists.
func (r *ItemRepository) MarkEnrichmentFailed(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.DB().ExecContext(ctx,
		`UPDATE catalog_items SET enrichment_status = $2 WHERE id = $1 AND enrichment_status = $3`,
		id, string(models.EnrichmentFailed), string(models.EnrichmentPending))
	if err != nil {
		return fmt.Errorf("%w: mark enrichment failed: %w", catalogdomain.ErrStorageUnavailable, err)
	}
	return nil
}

// Delete removes an item by ID.
func (r *ItemRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.DB().ExecContext(ctx, `DELETE FROM catalog_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete item: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return catalogdomain.ErrItemNotFound
	}
	return nil
}

// DeleteMany removes multiple items at once and reports how many were deleted.
func (r *ItemRepository) DeleteMany(ctx context.Context, ids []uuid.UUID) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	res, err := r.db.DB().ExecContext(ctx,
		`DELETE FROM catalog_items WHERE id IN (`+strings.Join(placeholders, ", ")+`)`, args...)
	if err != nil {
		return 0, fmt.Errorf("delete items: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete items affected: %w", err)
	}
	return int(n), nil
}

func (r *ItemRepository) publishCreated(tx *sql.Tx, item *models.Item) error {
	event := domainevents.ItemCreatedEvent{
		EventID:    uuid.New(),
		Version:    1,
		ItemID:     item.ID,
		CatalogID:  item.CatalogID,
		Title:      item.Title.String(),
		ImageURL:   item.ImageURL,
		ProductURL: item.ProductURL,
		Price:      item.Price,
		OccurredAt: item.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := message.NewMessage(watermill.NewUUID(), payload)
	msg.Metadata.Set("event_id", event.EventID.String())
	msg.Metadata.Set("event_version", "1")
	p, err := r.bus.NewTxPublisher(tx)
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	return p.Publish(domainevents.TopicItemCreated, msg)
}

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*models.Item, error) {
	var (
		item         models.Item
		title        string
		status       string
		seller       sql.NullString
		price        sql.NullString
		category     sql.NullString
		subcategory  sql.NullString
		brand        sql.NullString
		productType  sql.NullString
		colors       []byte
		primaryColor sql.NullString
		material     sql.NullString
		pattern      sql.NullString
		styleTags    []byte
		season       sql.NullString
		formality    sql.NullString
		gender       sql.NullString
		fitType      sql.NullString
		occasionTags []byte
		priceTier    sql.NullString
		confidence   sql.NullFloat64
		createdAt    time.Time
	)

	err := row.Scan(
		&item.ID, &item.CatalogID, &title, &item.ImageURL, &item.ProductURL, &seller, &price, &item.LikeCount,
		&status, &category, &subcategory, &brand, &productType, &colors, &primaryColor,
		&material, &pattern, &styleTags, &season, &formality, &gender, &fitType, &occasionTags,
		&priceTier, &confidence, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	item.Title = models.ItemTitle(title)
	item.Seller = seller.String
	item.Price = price.String
	item.EnrichmentStatus = models.EnrichmentStatus(status)
	item.CreatedAt = createdAt

	if item.EnrichmentStatus == models.EnrichmentEnriched {
		taxonomy := &models.Taxonomy{
			Category:     category.String,
			Subcategory:  subcategory.String,
			Brand:        brand.String,
			ProductType:  productType.String,
			PrimaryColor: primaryColor.String,
			Material:     material.String,
			Pattern:      pattern.String,
			Season:       season.String,
			Formality:    formality.String,
			Gender:       gender.String,
			FitType:      fitType.String,
			PriceTier:    priceTier.String,
			Confidence:   confidence.Float64,
		}
		if len(colors) > 0 {
			if err := json.Unmarshal(colors, &taxonomy.Colors); err != nil {
				return nil, fmt.Errorf("unmarshal colors: %w", err)
			}
		}
		if len(styleTags) > 0 {
			if err := json.Unmarshal(styleTags, &taxonomy.StyleTags); err != nil {
				return nil, fmt.Errorf("unmarshal style_tags: %w", err)
			}
		}
		if len(occasionTags) > 0 {
			if err := json.Unmarshal(occasionTags, &taxonomy.OccasionTags); err != nil {
				return nil, fmt.Errorf("unmarshal occasion_tags: %w", err)
			}
		}
		item.Taxonomy = taxonomy
	}

	return &item, nil
}

// nullable maps "" to SQL NULL so optional taxonomy members stay NULL in the row.
func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
