package models

import "fmt"

// Taxonomy is the derived metadata produced by one enrichment attempt.
// It is written atomically: either every field below is populated together
// or the item carries no taxonomy at all. Nullable members (Brand, Material,
// Pattern, FitType, PriceTier) may legitimately be empty strings.
type Taxonomy struct {
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

// Validate reports whether the taxonomy is complete enough to persist.
// Partial taxonomies are never written; an enrichment attempt that cannot
// produce all required fields fails as a whole.
func (t *Taxonomy) Validate() error {
	required := map[string]string{
		"category":      t.Category,
		"subcategory":   t.Subcategory,
		"product_type":  t.ProductType,
		"primary_color": t.PrimaryColor,
		"season":        t.Season,
		"formality":     t.Formality,
		"gender":        t.Gender,
	}
	for field, value := range required {
		if value == "" {
			return fmt.Errorf("taxonomy missing %s", field)
		}
	}
	if len(t.Colors) == 0 {
		return fmt.Errorf("taxonomy missing colors")
	}
	if len(t.StyleTags) == 0 {
		return fmt.Errorf("taxonomy missing style_tags")
	}
	if t.Confidence < 0 || t.Confidence > 1 {
		return fmt.Errorf("taxonomy confidence %v out of range", t.Confidence)
	}
	return nil
}
