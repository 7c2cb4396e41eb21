// Package enrichment derives taxonomy metadata for a persisted item by
// asking a vision-capable model to classify its image and listing text.
package enrichment

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sourcedhq/sourced/pkg/openai"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
)

const systemPrompt = `You are a fashion expert AI. Categorize fashion items with precision.
IMPORTANT: First determine if this is actually a FASHION item. Fashion includes:
- Clothing (shirts, pants, dresses, etc.)
- Footwear (shoes, sneakers, boots, sandals)
- Accessories (bags, belts, hats, scarves, gloves)
- Jewelry (rings, necklaces, bracelets, earrings)
- Eyewear (sunglasses, glasses)
- Watches
- Hair accessories
- Any wearable fashion item

NOT fashion: furniture, food, electronics (unless wearable tech like smartwatches), home decor, cars, etc.
Return ONLY valid JSON, no markdown.`

const userPromptTemplate = `Analyze this item:

TITLE: %s
PRICE: %s
URL: %s

Return JSON with:
{
  "is_fashion_item": true/false (Is this a wearable fashion item?),
  "category": "tops/bottoms/outerwear/shoes/accessories/dresses/activewear/bags/jewelry/eyewear/watches/other",
  "subcategory": "specific type",
  "brand": "brand name or null",
  "product_type": "casual/formal/athletic/streetwear/luxury",
  "colors": ["array"],
  "primary_color": "main color",
  "material": "material or null",
  "pattern": "pattern or null",
  "style_tags": ["tag1", "tag2"],
  "season": "spring/summer/fall/winter/all-season",
  "formality": "casual/business-casual/formal/athletic",
  "gender": "men/women/unisex",
  "fit_type": "slim/regular/oversized or null",
  "occasion_tags": ["everyday", "work"],
  "price_tier": "budget/mid-range/luxury or null",
  "confidence": 0.95
}`

// ChatClient is the slice of openai.Client the classifier needs.
type ChatClient interface {
	ChatJSON(ctx context.Context, model string, messages []openai.ChatMessage, maxTokens int, temperature float64) (string, error)
}

// Input carries the item fields the model classifies from.
type Input struct {
	Title      string
	ImageURL   string
	ProductURL string
	Price      string
}

// classification mirrors the model's response schema. Nullable fields decode
// via pointers so JSON null does not fail the parse.
type classification struct {
	IsFashionItem bool     `json:"is_fashion_item"`
	Category      string   `json:"category"`
	Subcategory   string   `json:"subcategory"`
	Brand         *string  `json:"brand"`
	ProductType   string   `json:"product_type"`
	Colors        []string `json:"colors"`
	PrimaryColor  string   `json:"primary_color"`
	Material      *string  `json:"material"`
	Pattern       *string  `json:"pattern"`
	StyleTags     []string `json:"style_tags"`
	Season        string   `json:"season"`
	Formality     string   `json:"formality"`
	Gender        string   `json:"gender"`
	FitType       *string  `json:"fit_type"`
	OccasionTags  []string `json:"occasion_tags"`
	PriceTier     *string  `json:"price_tier"`
	Confidence    float64  `json:"confidence"`
}

// Classifier asks a vision model for a full taxonomy in a single call.
type Classifier struct {
	client  ChatClient
	model   string
	timeout time.Duration
}

// NewClassifier creates a Classifier. timeout bounds each call; values <= 0
// default to 45s.
func NewClassifier(client ChatClient, model string, timeout time.Duration) *Classifier {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &Classifier{client: client, model: model, timeout: timeout}
}

// Classify returns the full taxonomy plus whether the model considers the
// item a fashion item at all. A response that cannot be parsed into a
// complete taxonomy is an error — partial results are never returned.
func (c *Classifier) Classify(ctx context.Context, in Input) (*models.Taxonomy, bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	userPrompt := fmt.Sprintf(userPromptTemplate,
		in.Title, orUnknown(in.Price), orNotProvided(in.ProductURL))

	messages := []openai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: []map[string]any{
			openai.TextPart(userPrompt),
			openai.ImagePart(in.ImageURL),
		}},
	}

	raw, err := c.client.ChatJSON(callCtx, c.model, messages, 500, 0.3)
	if err != nil {
		return nil, false, fmt.Errorf("classify item: %w", err)
	}

	var parsed classification
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, false, fmt.Errorf("classify item: malformed response: %w", err)
	}

	taxonomy := &models.Taxonomy{
		Category:     parsed.Category,
		Subcategory:  parsed.Subcategory,
		Brand:        deref(parsed.Brand),
		ProductType:  parsed.ProductType,
		Colors:       parsed.Colors,
		PrimaryColor: parsed.PrimaryColor,
		Material:     deref(parsed.Material),
		Pattern:      deref(parsed.Pattern),
		StyleTags:    parsed.StyleTags,
		Season:       parsed.Season,
		Formality:    parsed.Formality,
		Gender:       parsed.Gender,
		FitType:      deref(parsed.FitType),
		OccasionTags: parsed.OccasionTags,
		PriceTier:    deref(parsed.PriceTier),
		Confidence:   parsed.Confidence,
	}
	if err := taxonomy.Validate(); err != nil {
		return nil, false, fmt.Errorf("classify item: incomplete taxonomy: %w", err)
	}

	return taxonomy, parsed.IsFashionItem, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

func orNotProvided(s string) string {
	if s == "" {
		return "Not provided"
	}
	return s
}
