package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/auth"
	"github.com/sourcedhq/sourced/pkg/errhttp"
	"github.com/sourcedhq/sourced/pkg/httpx"
	pkgvalidator "github.com/sourcedhq/sourced/pkg/validator"
	appsvcs "github.com/sourcedhq/sourced/services/catalog/application/services"
)

// DeleteItemHandler handles DELETE /items/{itemID} requests.
type DeleteItemHandler struct {
	svc *appsvcs.Services
}

// NewDeleteItemHandler returns a DeleteItemHandler backed by the given services.
func NewDeleteItemHandler(svc *appsvcs.Services) *DeleteItemHandler {
	return &DeleteItemHandler{svc: svc}
}

// Execute deletes one item owned by the caller.
func (h *DeleteItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	itemID, err := uuid.Parse(chi.URLParam(r, "itemID"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid item id")
		return
	}

	if err := h.svc.Ingestion.DeleteItem(r.Context(), userID, itemID); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BulkDeleteItemsRequest is the request body for POST /items/delete.
type BulkDeleteItemsRequest struct {
	ItemIDs []uuid.UUID `json:"item_ids" validate:"required,min=1,max=100"`
}

// BulkDeleteItemsResponse reports how many items were removed.
type BulkDeleteItemsResponse struct {
	Deleted int `json:"deleted"`
}

// BulkDeleteItemsHandler handles POST /items/delete requests.
type BulkDeleteItemsHandler struct {
	svc *appsvcs.Services
}

// NewBulkDeleteItemsHandler returns a BulkDeleteItemsHandler backed by the given services.
func NewBulkDeleteItemsHandler(svc *appsvcs.Services) *BulkDeleteItemsHandler {
	return &BulkDeleteItemsHandler{svc: svc}
}

// Execute deletes a batch of items, all owned by the caller.
func (h *BulkDeleteItemsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	req, ok := pkgvalidator.ValidateRequest[BulkDeleteItemsRequest](w, r)
	if !ok {
		return
	}

	deleted, err := h.svc.Ingestion.DeleteItems(r.Context(), userID, req.ItemIDs)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, BulkDeleteItemsResponse{Deleted: deleted})
}
