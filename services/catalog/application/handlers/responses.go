// Package handlers contains the HTTP handlers for the catalog bounded context.
package handlers

import (
	"time"

	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/services/catalog/domain/models"
)

// ErrorResponse is returned on all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TaxonomyResponse is the enriched metadata block of an item. Present only
// when enrichment has completed.
type TaxonomyResponse struct {
	Category     string   `json:"category"`
	Subcategory  string   `json:"subcategory"`
	Brand        string   `json:"brand,omitempty"`
	ProductType  string   `json:"product_type"`
	Colors       []string `json:"colors"`
	PrimaryColor string   `json:"primary_color"`
	Material     string   `json:"material,omitempty"`
	Pattern      string   `json:"pattern,omitempty"`
	StyleTags    []string `json:"style_tags"`
	Season       string   `json:"season"`
	Formality    string   `json:"formality"`
	Gender       string   `json:"gender"`
	FitType      string   `json:"fit_type,omitempty"`
	OccasionTags []string `json:"occasion_tags"`
	PriceTier    string   `json:"price_tier,omitempty"`
	Confidence   float64  `json:"categorization_confidence"`
}

// ItemResponse is the wire shape of an item.
type ItemResponse struct {
	ID               uuid.UUID         `json:"id"`
	CatalogID        uuid.UUID         `json:"catalog_id"`
	Title            string            `json:"title"`
	ImageURL         string            `json:"image_url"`
	ProductURL       string            `json:"product_url"`
	Seller           string            `json:"seller,omitempty"`
	Price            string            `json:"price,omitempty"`
	LikeCount        int               `json:"like_count"`
	EnrichmentStatus string            `json:"enrichment_status"`
	Taxonomy         *TaxonomyResponse `json:"taxonomy,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// CatalogResponse is the wire shape of a catalog.
type CatalogResponse struct {
	ID         uuid.UUID `json:"id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Title      string    `json:"title"`
	ImageURL   string    `json:"image_url"`
	Visibility string    `json:"visibility"`
	CreatedAt  time.Time `json:"created_at"`
}

func toItemResponse(item *models.Item) ItemResponse {
	resp := ItemResponse{
		ID:               item.ID,
		CatalogID:        item.CatalogID,
		Title:            item.Title.String(),
		ImageURL:         item.ImageURL,
		ProductURL:       item.ProductURL,
		Seller:           item.Seller,
		Price:            item.Price,
		LikeCount:        item.LikeCount,
		EnrichmentStatus: string(item.EnrichmentStatus),
		CreatedAt:        item.CreatedAt,
	}
	if item.Taxonomy != nil {
		resp.Taxonomy = &TaxonomyResponse{
			Category:     item.Taxonomy.Category,
			Subcategory:  item.Taxonomy.Subcategory,
			Brand:        item.Taxonomy.Brand,
			ProductType:  item.Taxonomy.ProductType,
			Colors:       item.Taxonomy.Colors,
			PrimaryColor: item.Taxonomy.PrimaryColor,
			Material:     item.Taxonomy.Material,
			Pattern:      item.Taxonomy.Pattern,
			StyleTags:    item.Taxonomy.StyleTags,
			Season:       item.Taxonomy.Season,
			Formality:    item.Taxonomy.Formality,
			Gender:       item.Taxonomy.Gender,
			FitType:      item.Taxonomy.FitType,
			OccasionTags: item.Taxonomy.OccasionTags,
			PriceTier:    item.Taxonomy.PriceTier,
			Confidence:   item.Taxonomy.Confidence,
		}
	}
	return resp
}

func toCatalogResponse(c *models.Catalog) CatalogResponse {
	return CatalogResponse{
		ID:         c.ID,
		OwnerID:    c.OwnerID,
		Title:      c.Title,
		ImageURL:   c.ImageURL,
		Visibility: c.Visibility,
		CreatedAt:  c.CreatedAt,
	}
}
