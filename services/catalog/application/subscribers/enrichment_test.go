package subscribers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/config"
	"github.com/sourcedhq/sourced/pkg/logger"
	catalogdomain "github.com/sourcedhq/sourced/services/catalog/domain"
	"github.com/sourcedhq/sourced/services/catalog/domain/events"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
	"github.com/sourcedhq/sourced/services/catalog/domain/repositories"
	"github.com/sourcedhq/sourced/services/catalog/infrastructure/enrichment"
)

type stubRepo struct {
	item *models.Item

	applied  map[uuid.UUID]*models.Taxonomy
	failed   []uuid.UUID
	applyErr error
}

func newStubRepo(item *models.Item) *stubRepo {
	return &stubRepo{item: item, applied: map[uuid.UUID]*models.Taxonomy{}}
}

func (s *stubRepo) Insert(_ context.Context, _ *models.Item) error { return nil }

func (s *stubRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	if s.item == nil || s.item.ID != id {
		return nil, catalogdomain.ErrItemNotFound
	}
	return s.item, nil
}

func (s *stubRepo) FindByCatalogAndProductURL(_ context.Context, _ uuid.UUID, _ string) (*models.Item, error) {
	return nil, nil
}

func (s *stubRepo) FindByCatalogID(_ context.Context, _ uuid.UUID, _ repositories.QueryOpts) ([]*models.Item, int, error) {
	return nil, 0, nil
}

func (s *stubRepo) ApplyEnrichment(_ context.Context, id uuid.UUID, taxonomy *models.Taxonomy) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied[id] = taxonomy
	return nil
}

func (s *stubRepo) MarkEnrichmentFailed(_ context.Context, id uuid.UUID) error {
	s.failed = append(s.failed, id)
	return nil
}

func (s *stubRepo) Delete(_ context.Context, _ uuid.UUID) error { return nil }

func (s *stubRepo) DeleteMany(_ context.Context, _ []uuid.UUID) (int, error) { return 0, nil }

type stubClassifier struct {
	taxonomy  *models.Taxonomy
	isFashion bool
	err       error

	calls    int
	gotInput enrichment.Input
}

func (s *stubClassifier) Classify(_ context.Context, in enrichment.Input) (*models.Taxonomy, bool, error) {
	s.calls++
	s.gotInput = in
	return s.taxonomy, s.isFashion, s.err
}

type stubWarmer struct {
	warmed []*models.Item
}

func (s *stubWarmer) Set(_ context.Context, item *models.Item) error {
	s.warmed = append(s.warmed, item)
	return nil
}

func testLogger() logger.Logger {
	return logger.New(&config.Config{LogLevel: "error"})
}

func pendingItem(t *testing.T) *models.Item {
	t.Helper()
	title, err := models.NewItemTitle("Vintage Denim Jacket")
	if err != nil {
		t.Fatalf("title: %v", err)
	}
	item, err := models.NewItem(uuid.New(), title, "https://media.example/items/u/1.jpg", "https://grailed.com/listings/1", "Grailed", "$85")
	if err != nil {
		t.Fatalf("item: %v", err)
	}
	return item
}

func eventFor(t *testing.T, item *models.Item) *message.Message {
	t.Helper()
	payload, err := json.Marshal(events.ItemCreatedEvent{
		EventID:    uuid.New(),
		Version:    1,
		ItemID:     item.ID,
		CatalogID:  item.CatalogID,
		Title:      item.Title.String(),
		ImageURL:   item.ImageURL,
		ProductURL: item.ProductURL,
		Price:      item.Price,
		OccurredAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	return message.NewMessage(watermill.NewUUID(), payload)
}

func sampleTaxonomy() *models.Taxonomy {
	return &models.Taxonomy{
		Category:     "outerwear",
		Subcategory:  "denim jacket",
		ProductType:  "casual",
		Colors:       []string{"blue"},
		PrimaryColor: "blue",
		StyleTags:    []string{"vintage"},
		Season:       "fall",
		Formality:    "casual",
		Gender:       "unisex",
		OccasionTags: []string{"everyday"},
		Confidence:   0.9,
	}
}

func TestHandle_SuccessAppliesTaxonomyAndWarmsCache(t *testing.T) {
	item := pendingItem(t)
	repo := newStubRepo(item)
	cls := &stubClassifier{taxonomy: sampleTaxonomy(), isFashion: true}
	warmer := &stubWarmer{}
	h := NewEnrichmentHandler(repo, cls, warmer, testLogger())

	if err := h.Handle(context.Background(), eventFor(t, item)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if repo.applied[item.ID] == nil {
		t.Fatal("taxonomy should be applied")
	}
	if len(repo.failed) != 0 {
		t.Error("successful enrichment must not mark failed")
	}
	if len(warmer.warmed) != 1 {
		t.Fatalf("cache should be warmed once, got %d", len(warmer.warmed))
	}
	if warmer.warmed[0].EnrichmentStatus != models.EnrichmentEnriched {
		t.Error("warmed item should be in enriched state")
	}
	if cls.gotInput.Title != "Vintage Denim Jacket" || cls.gotInput.Price != "$85" {
		t.Errorf("classifier input should come from the stored item, got %+v", cls.gotInput)
	}
}

func TestHandle_ClassifierFailureMarksFailed(t *testing.T) {
	item := pendingItem(t)
	repo := newStubRepo(item)
	cls := &stubClassifier{err: errors.New("HTTP 500")}
	h := NewEnrichmentHandler(repo, cls, nil, testLogger())

	if err := h.Handle(context.Background(), eventFor(t, item)); err != nil {
		t.Fatalf("classification failure must not bubble up, got %v", err)
	}
	if len(repo.failed) != 1 || repo.failed[0] != item.ID {
		t.Errorf("item should be marked failed, got %v", repo.failed)
	}
	if len(repo.applied) != 0 {
		t.Error("no taxonomy may be written on failure")
	}
}

func TestHandle_NonFashionMarksFailed(t *testing.T) {
	item := pendingItem(t)
	repo := newStubRepo(item)
	cls := &stubClassifier{taxonomy: sampleTaxonomy(), isFashion: false}
	h := NewEnrichmentHandler(repo, cls, nil, testLogger())

	if err := h.Handle(context.Background(), eventFor(t, item)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.failed) != 1 {
		t.Error("non-fashion verdict should mark the item failed")
	}
	if len(repo.applied) != 0 {
		t.Error("non-fashion verdict must not write taxonomy")
	}
}

func TestHandle_SkipsNonPendingItem(t *testing.T) {
	for _, status := range []models.EnrichmentStatus{models.EnrichmentEnriched, models.EnrichmentFailed} {
		t.Run(string(status), func(t *testing.T) {
			item := pendingItem(t)
			item.EnrichmentStatus = status
			repo := newStubRepo(item)
			cls := &stubClassifier{taxonomy: sampleTaxonomy(), isFashion: true}
			h := NewEnrichmentHandler(repo, cls, nil, testLogger())

			if err := h.Handle(context.Background(), eventFor(t, item)); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cls.calls != 0 {
				t.Error("redelivered message for a settled item must not reclassify")
			}
		})
	}
}

func TestHandle_ItemGoneIsNoop(t *testing.T) {
	item := pendingItem(t)
	repo := newStubRepo(nil) // item deleted before the worker ran
	cls := &stubClassifier{}
	h := NewEnrichmentHandler(repo, cls, nil, testLogger())

	if err := h.Handle(context.Background(), eventFor(t, item)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cls.calls != 0 {
		t.Error("deleted item must not be classified")
	}
}

func TestHandle_MalformedPayload(t *testing.T) {
	repo := newStubRepo(nil)
	h := NewEnrichmentHandler(repo, &stubClassifier{}, nil, testLogger())

	msg := message.NewMessage(watermill.NewUUID(), []byte("not json"))
	if err := h.Handle(context.Background(), msg); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestHandle_ApplyFailureDoesNotMarkFailed(t *testing.T) {
	item := pendingItem(t)
	repo := newStubRepo(item)
	repo.applyErr = errors.New("db down")
	cls := &stubClassifier{taxonomy: sampleTaxonomy(), isFashion: true}
	h := NewEnrichmentHandler(repo, cls, nil, testLogger())

	if err := h.Handle(context.Background(), eventFor(t, item)); err != nil {
		t.Fatalf("write failure must not bubble up, got %v", err)
	}
	// The item stays pending; a failed write is not a failed classification.
	if len(repo.failed) != 0 {
		t.Error("apply failure should leave the item pending, not failed")
	}
}
