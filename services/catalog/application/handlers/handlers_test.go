package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/auth"
	"github.com/sourcedhq/sourced/pkg/config"
	"github.com/sourcedhq/sourced/pkg/logger"
	appsvcs "github.com/sourcedhq/sourced/services/catalog/application/services"
	catalogdomain "github.com/sourcedhq/sourced/services/catalog/domain"
	"github.com/sourcedhq/sourced/services/catalog/domain/models"
	"github.com/sourcedhq/sourced/services/catalog/domain/repositories"
	domainsvcs "github.com/sourcedhq/sourced/services/catalog/domain/services"
)

// --- stubs backing real application services ---

type memItemRepo struct {
	items map[uuid.UUID]*models.Item
}

func newMemItemRepo() *memItemRepo { return &memItemRepo{items: map[uuid.UUID]*models.Item{}} }

func (m *memItemRepo) Insert(_ context.Context, item *models.Item) error {
	m.items[item.ID] = item
	return nil
}

func (m *memItemRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Item, error) {
	if item, ok := m.items[id]; ok {
		return item, nil
	}
	return nil, catalogdomain.ErrItemNotFound
}

func (m *memItemRepo) FindByCatalogAndProductURL(_ context.Context, catalogID uuid.UUID, productURL string) (*models.Item, error) {
	for _, item := range m.items {
		if item.CatalogID == catalogID && item.ProductURL == productURL {
			return item, nil
		}
	}
	return nil, nil
}

func (m *memItemRepo) FindByCatalogID(_ context.Context, catalogID uuid.UUID, _ repositories.QueryOpts) ([]*models.Item, int, error) {
	var out []*models.Item
	for _, item := range m.items {
		if item.CatalogID == catalogID {
			out = append(out, item)
		}
	}
	return out, len(out), nil
}

func (m *memItemRepo) ApplyEnrichment(_ context.Context, _ uuid.UUID, _ *models.Taxonomy) error {
	return nil
}

func (m *memItemRepo) MarkEnrichmentFailed(_ context.Context, _ uuid.UUID) error { return nil }

func (m *memItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *memItemRepo) DeleteMany(_ context.Context, ids []uuid.UUID) (int, error) {
	n := 0
	for _, id := range ids {
		if _, ok := m.items[id]; ok {
			delete(m.items, id)
			n++
		}
	}
	return n, nil
}

type memCatalogRepo struct {
	catalogs map[uuid.UUID]*models.Catalog
}

func newMemCatalogRepo() *memCatalogRepo {
	return &memCatalogRepo{catalogs: map[uuid.UUID]*models.Catalog{}}
}

func (m *memCatalogRepo) Insert(_ context.Context, c *models.Catalog) error {
	m.catalogs[c.ID] = c
	return nil
}

func (m *memCatalogRepo) GetByID(_ context.Context, id uuid.UUID) (*models.Catalog, error) {
	if c, ok := m.catalogs[id]; ok {
		return c, nil
	}
	return nil, catalogdomain.ErrCatalogNotFound
}

func (m *memCatalogRepo) FindByOwner(_ context.Context, ownerID uuid.UUID) ([]*models.Catalog, error) {
	var out []*models.Catalog
	for _, c := range m.catalogs {
		if c.OwnerID == ownerID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memCatalogRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.catalogs, id)
	return nil
}

type okAcquirer struct{ url string }

func (a *okAcquirer) FromBytes(_ context.Context, _ uuid.UUID, _ []byte, _ string) (string, error) {
	return a.url, nil
}

func (a *okAcquirer) FromURL(_ context.Context, _ uuid.UUID, _ string) (string, error) {
	return a.url, nil
}

type okGate struct{}

func (okGate) Check(_ context.Context, _ string) error { return nil }

// --- fixture ---

type webFixture struct {
	router   chi.Router
	svcs     *appsvcs.Services
	items    *memItemRepo
	catalogs *memCatalogRepo
	userID   uuid.UUID
	catalog  *models.Catalog
}

func newWebFixture(t *testing.T) *webFixture {
	t.Helper()
	log := logger.New(&config.Config{LogLevel: "error"})
	f := &webFixture{
		items:    newMemItemRepo(),
		catalogs: newMemCatalogRepo(),
		userID:   uuid.New(),
	}

	catalog, err := models.NewCatalog(f.userID, "Fits", "https://media.example/c.jpg", models.VisibilityPublic)
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	f.catalog = catalog
	f.catalogs.catalogs[catalog.ID] = catalog

	acquirer := &okAcquirer{url: "https://media.example/items/u/1.jpg"}
	screen := domainsvcs.NewLanguageScreen()
	f.svcs = &appsvcs.Services{
		Ingestion: appsvcs.NewIngestionService(f.items, f.catalogs, acquirer, okGate{}, screen, nil, log),
		Catalog:   appsvcs.NewCatalogService(f.catalogs, acquirer, okGate{}, screen, log),
	}

	r := chi.NewRouter()
	r.Route("/catalogs", func(r chi.Router) {
		r.Post("/", NewPostCatalogHandler(f.svcs).Execute)
		r.Get("/", NewListCatalogsHandler(f.svcs).Execute)
		r.Route("/{catalogID}", func(r chi.Router) {
			r.Get("/", NewGetCatalogHandler(f.svcs).Execute)
			r.Delete("/", NewDeleteCatalogHandler(f.svcs).Execute)
			r.Post("/items", NewPostItemHandler(f.svcs).Execute)
			r.Get("/items", NewListItemsHandler(f.svcs).Execute)
		})
	})
	r.Route("/items", func(r chi.Router) {
		r.Post("/delete", NewBulkDeleteItemsHandler(f.svcs).Execute)
		r.Route("/{itemID}", func(r chi.Router) {
			r.Get("/", NewGetItemHandler(f.svcs).Execute)
			r.Delete("/", NewDeleteItemHandler(f.svcs).Execute)
		})
	})
	f.router = r
	return f
}

// do performs a request as the given user (uuid.Nil means unauthenticated).
func (f *webFixture) do(method, path, body string, userID uuid.UUID) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, http.NoBody)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if userID != uuid.Nil {
		r = r.WithContext(auth.WithUserID(r.Context(), userID))
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)
	return w
}

// --- tests ---

func TestPostItem_Created(t *testing.T) {
	f := newWebFixture(t)
	body := `{"title":"Vintage Denim Jacket","product_url":"https://grailed.com/listings/1","image_url":"https://cdn.example/raw.jpg","price":"$85"}`

	w := f.do(http.MethodPost, "/catalogs/"+f.catalog.ID.String()+"/items", body, f.userID)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var resp ItemResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.EnrichmentStatus != "pending" {
		t.Errorf("expected pending status, got %q", resp.EnrichmentStatus)
	}
	if resp.ImageURL != "https://media.example/items/u/1.jpg" {
		t.Errorf("response should carry the rehosted URL, got %q", resp.ImageURL)
	}
	if resp.Seller != "Grailed" {
		t.Errorf("expected derived seller, got %q", resp.Seller)
	}
	if resp.Taxonomy != nil {
		t.Error("fresh item should have no taxonomy in the response")
	}
}

func TestPostItem_UploadMode(t *testing.T) {
	f := newWebFixture(t)
	data := base64.StdEncoding.EncodeToString([]byte("jpegbytes"))
	body := `{"title":"Sneakers","product_url":"https://stockx.com/x","image_data":"` + data + `","image_content_type":"image/jpeg"}`

	w := f.do(http.MethodPost, "/catalogs/"+f.catalog.ID.String()+"/items", body, f.userID)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
}

func TestPostItem_Unauthenticated(t *testing.T) {
	f := newWebFixture(t)
	w := f.do(http.MethodPost, "/catalogs/"+f.catalog.ID.String()+"/items", `{}`, uuid.Nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPostItem_BadInputs(t *testing.T) {
	f := newWebFixture(t)
	itemsPath := "/catalogs/" + f.catalog.ID.String() + "/items"

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"invalid catalog id", "/catalogs/not-a-uuid/items", `{"title":"x","product_url":"https://a.com/x","image_url":"https://a.com/i.jpg"}`, http.StatusBadRequest},
		{"missing title", itemsPath, `{"product_url":"https://a.com/x","image_url":"https://a.com/i.jpg"}`, http.StatusUnprocessableEntity},
		{"bad base64", itemsPath, `{"title":"x","product_url":"https://a.com/x","image_data":"%%%","image_content_type":"image/jpeg"}`, http.StatusBadRequest},
		{"both image modes", itemsPath, `{"title":"x","product_url":"https://a.com/x","image_url":"https://a.com/i.jpg","image_data":"aGk=","image_content_type":"image/jpeg"}`, http.StatusUnprocessableEntity},
		{"banned language", itemsPath, `{"title":"r4pe shirt","product_url":"https://a.com/x","image_url":"https://a.com/i.jpg"}`, http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(http.MethodPost, tt.path, tt.body, f.userID)
			if w.Code != tt.want {
				t.Fatalf("expected %d, got %d: %s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestPostItem_ResubmissionIdempotent(t *testing.T) {
	f := newWebFixture(t)
	body := `{"title":"Jacket","product_url":"https://grailed.com/listings/1","image_url":"https://cdn.example/raw.jpg"}`
	path := "/catalogs/" + f.catalog.ID.String() + "/items"

	w1 := f.do(http.MethodPost, path, body, f.userID)
	w2 := f.do(http.MethodPost, path, body, f.userID)
	if w1.Code != http.StatusCreated || w2.Code != http.StatusCreated {
		t.Fatalf("expected 201s, got %d and %d", w1.Code, w2.Code)
	}

	var r1, r2 ItemResponse
	_ = json.NewDecoder(w1.Body).Decode(&r1)
	_ = json.NewDecoder(w2.Body).Decode(&r2)
	if r1.ID != r2.ID {
		t.Errorf("resubmission should return the same item, got %s and %s", r1.ID, r2.ID)
	}
	if len(f.items.items) != 1 {
		t.Errorf("expected a single stored item, got %d", len(f.items.items))
	}
}

func TestGetItem_FoundAndMissing(t *testing.T) {
	f := newWebFixture(t)
	title, _ := models.NewItemTitle("Jacket")
	item, _ := models.NewItem(f.catalog.ID, title, "https://media.example/i.jpg", "https://grailed.com/1", "Grailed", "")
	f.items.items[item.ID] = item

	w := f.do(http.MethodGet, "/items/"+item.ID.String(), "", f.userID)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/items/"+uuid.NewString(), "", f.userID)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for missing item, got %d", w.Code)
	}
}

func TestDeleteItem_ForeignCallerForbidden(t *testing.T) {
	f := newWebFixture(t)
	title, _ := models.NewItemTitle("Jacket")
	item, _ := models.NewItem(f.catalog.ID, title, "https://media.example/i.jpg", "https://grailed.com/1", "Grailed", "")
	f.items.items[item.ID] = item

	w := f.do(http.MethodDelete, "/items/"+item.ID.String(), "", uuid.New())
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}

	w = f.do(http.MethodDelete, "/items/"+item.ID.String(), "", f.userID)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 for owner, got %d", w.Code)
	}
}

func TestBulkDeleteItems(t *testing.T) {
	f := newWebFixture(t)
	title, _ := models.NewItemTitle("Jacket")
	a, _ := models.NewItem(f.catalog.ID, title, "https://media.example/a.jpg", "https://grailed.com/a", "Grailed", "")
	b, _ := models.NewItem(f.catalog.ID, title, "https://media.example/b.jpg", "https://grailed.com/b", "Grailed", "")
	f.items.items[a.ID] = a
	f.items.items[b.ID] = b

	body := `{"item_ids":["` + a.ID.String() + `","` + b.ID.String() + `"]}`
	w := f.do(http.MethodPost, "/items/delete", body, f.userID)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp BulkDeleteItemsResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Deleted != 2 {
		t.Errorf("expected 2 deleted, got %d", resp.Deleted)
	}
	if len(f.items.items) != 0 {
		t.Errorf("expected empty store, got %d items", len(f.items.items))
	}
}

func TestCatalogLifecycle(t *testing.T) {
	f := newWebFixture(t)

	w := f.do(http.MethodPost, "/catalogs", `{"title":"Winter","visibility":"private","image_url":"https://cdn.example/c.jpg"}`, f.userID)
	if w.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created CatalogResponse
	_ = json.NewDecoder(w.Body).Decode(&created)

	w = f.do(http.MethodGet, "/catalogs/"+created.ID.String(), "", f.userID)
	if w.Code != http.StatusOK {
		t.Fatalf("get: expected 200, got %d", w.Code)
	}

	// A stranger cannot see a private catalog.
	w = f.do(http.MethodGet, "/catalogs/"+created.ID.String(), "", uuid.New())
	if w.Code != http.StatusNotFound {
		t.Fatalf("stranger get: expected 404, got %d", w.Code)
	}

	w = f.do(http.MethodGet, "/catalogs", "", f.userID)
	if w.Code != http.StatusOK {
		t.Fatalf("list: expected 200, got %d", w.Code)
	}
	var list ListCatalogsResponse
	_ = json.NewDecoder(w.Body).Decode(&list)
	if len(list.Catalogs) != 2 { // fixture catalog + created
		t.Errorf("expected 2 catalogs, got %d", len(list.Catalogs))
	}

	w = f.do(http.MethodDelete, "/catalogs/"+created.ID.String(), "", f.userID)
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", w.Code)
	}
}

func TestListItems(t *testing.T) {
	f := newWebFixture(t)
	title, _ := models.NewItemTitle("Jacket")
	item, _ := models.NewItem(f.catalog.ID, title, "https://media.example/i.jpg", "https://grailed.com/1", "Grailed", "")
	f.items.items[item.ID] = item

	w := f.do(http.MethodGet, "/catalogs/"+f.catalog.ID.String()+"/items?limit=10", "", f.userID)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ListItemsResponse
	_ = json.NewDecoder(w.Body).Decode(&resp)
	if resp.Total != 1 || len(resp.Items) != 1 {
		t.Errorf("expected one item, got total=%d len=%d", resp.Total, len(resp.Items))
	}
	if resp.Limit != 10 {
		t.Errorf("expected limit echoed back, got %d", resp.Limit)
	}
}
