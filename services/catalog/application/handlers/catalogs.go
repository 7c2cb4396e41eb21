package handlers

import (
	"encoding/base64"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/sourcedhq/sourced/pkg/auth"
	"github.com/sourcedhq/sourced/pkg/errhttp"
	"github.com/sourcedhq/sourced/pkg/httpx"
	pkgvalidator "github.com/sourcedhq/sourced/pkg/validator"
	appsvcs "github.com/sourcedhq/sourced/services/catalog/application/services"
)

// CreateCatalogRequest is the request body for POST /catalogs.
// The cover image follows the same rules as item images: exactly one of
// image_url or image_data.
type CreateCatalogRequest struct {
	Title            string `json:"title" validate:"required,min=1,max=255"`
	Visibility       string `json:"visibility" validate:"required,oneof=public private"`
	ImageURL         string `json:"image_url" validate:"omitempty,url"`
	ImageData        string `json:"image_data"`
	ImageContentType string `json:"image_content_type"`
}

// PostCatalogHandler handles POST /catalogs requests.
type PostCatalogHandler struct {
	svc *appsvcs.Services
}

// NewPostCatalogHandler returns a PostCatalogHandler backed by the given services.
func NewPostCatalogHandler(svc *appsvcs.Services) *PostCatalogHandler {
	return &PostCatalogHandler{svc: svc}
}

// Execute creates a catalog owned by the caller.
func (h *PostCatalogHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	req, ok := pkgvalidator.ValidateRequest[CreateCatalogRequest](w, r)
	if !ok {
		return
	}

	var imageData []byte
	if req.ImageData != "" {
		imageData, err = base64.StdEncoding.DecodeString(req.ImageData)
		if err != nil {
			httpx.JSONError(w, http.StatusBadRequest, "image_data is not valid base64")
			return
		}
	}

	catalog, err := h.svc.Catalog.CreateCatalog(r.Context(), appsvcs.CreateCatalogCommand{
		UserID:     userID,
		Title:      req.Title,
		Visibility: req.Visibility,
		Image: appsvcs.ImageSource{
			RemoteURL:   req.ImageURL,
			Data:        imageData,
			ContentType: req.ImageContentType,
		},
	})
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	httpx.JSON(w, http.StatusCreated, toCatalogResponse(catalog))
}

// GetCatalogHandler handles GET /catalogs/{catalogID} requests.
type GetCatalogHandler struct {
	svc *appsvcs.Services
}

// NewGetCatalogHandler returns a GetCatalogHandler backed by the given services.
func NewGetCatalogHandler(svc *appsvcs.Services) *GetCatalogHandler {
	return &GetCatalogHandler{svc: svc}
}

// Execute returns one catalog. Private catalogs are visible to their owner only.
func (h *GetCatalogHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	catalogID, err := uuid.Parse(chi.URLParam(r, "catalogID"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid catalog id")
		return
	}

	catalog, err := h.svc.Catalog.GetCatalog(r.Context(), userID, catalogID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toCatalogResponse(catalog))
}

// ListCatalogsResponse is returned by GET /catalogs.
type ListCatalogsResponse struct {
	Catalogs []CatalogResponse `json:"catalogs"`
}

// ListCatalogsHandler handles GET /catalogs requests.
type ListCatalogsHandler struct {
	svc *appsvcs.Services
}

// NewListCatalogsHandler returns a ListCatalogsHandler backed by the given services.
func NewListCatalogsHandler(svc *appsvcs.Services) *ListCatalogsHandler {
	return &ListCatalogsHandler{svc: svc}
}

// Execute returns all catalogs owned by the caller, newest first.
func (h *ListCatalogsHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	catalogs, err := h.svc.Catalog.ListCatalogs(r.Context(), userID)
	if err != nil {
		errhttp.WriteError(w, err)
		return
	}

	resp := ListCatalogsResponse{Catalogs: make([]CatalogResponse, 0, len(catalogs))}
	for _, c := range catalogs {
		resp.Catalogs = append(resp.Catalogs, toCatalogResponse(c))
	}
	httpx.JSON(w, http.StatusOK, resp)
}

// DeleteCatalogHandler handles DELETE /catalogs/{catalogID} requests.
type DeleteCatalogHandler struct {
	svc *appsvcs.Services
}

// NewDeleteCatalogHandler returns a DeleteCatalogHandler backed by the given services.
func NewDeleteCatalogHandler(svc *appsvcs.Services) *DeleteCatalogHandler {
	return &DeleteCatalogHandler{svc: svc}
}

// Execute deletes a catalog owned by the caller; its items cascade away.
func (h *DeleteCatalogHandler) Execute(w http.ResponseWriter, r *http.Request) {
	userID, err := auth.UserIDFromCtx(r.Context())
	if err != nil {
		httpx.JSON(w, http.StatusUnauthorized, ErrorResponse{Error: "authentication required"})
		return
	}

	catalogID, err := uuid.Parse(chi.URLParam(r, "catalogID"))
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "invalid catalog id")
		return
	}

	if err := h.svc.Catalog.DeleteCatalog(r.Context(), userID, catalogID); err != nil {
		errhttp.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
