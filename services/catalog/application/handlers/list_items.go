package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/errhttp"
	"github.com/sourcedhq/sourced/pkg/httpx"
	appsvcs "github.com/sourcedhq/sourced/services/catalog/application/services"
	"github.com/sourcedhq/sourced/services/catalog/domain/repositories"
)

// ListItemsResponse is returned by GET /catalogs/{catalogID}/items.
type ListItemsResponse struct {
	Items  []ItemResponse `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// ListItemsHandler handles GET /catalogs/{catalogID}/items requests.
type ListItemsHandler struct {
	svc *appsvcs.Services
}

// NewListItemsHandler returns a ListItemsHandler backed by the given services.
func NewListItemsHandler(svc *appsvcs.Services) *ListItemsHandler {
	return &ListItemsHandler{svc: svc}
}

// Execute returns a page of a catalog's items, oldest first.
func (h *ListItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	catalogID, err := uuid.Parse(chi.URLParam(r, "catalogID"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid catalog id")
		return
	}

	opts := repositories.QueryOpts{
		Limit:  queryInt(r, "limit", 50),
		Offset: queryInt(r, "offset", 0),
	}

	items, total, err := h.svc.Ingestion.ListItems(r.Context(), catalogID, opts)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	resp := ListItemsResponse{
		Items:  make([]ItemResponse, 0, len(items)),
		Total:  total,
		Limit:  opts.Limit,
		Offset: opts.Offset,
	}
	for _, item := range items {
		resp.Items = append(resp.Items, toItemResponse(item))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func queryInt(r *http.Request, key string, fallback int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}
