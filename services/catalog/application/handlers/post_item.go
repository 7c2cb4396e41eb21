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

// maxRequestBody caps the JSON request body. Sized for a 5 MiB image as
// base64 (~6.7 MiB) plus the rest of the payload.
const maxRequestBody = 8 << 20

// SubmitItemRequest is the request body for POST /catalogs/{catalogID}/items.
// Exactly one of image_url or image_data must be provided.
type SubmitItemRequest struct {
	Title            string `json:"title" validate:"required,min=1,max=255"`
	ProductURL       string `json:"product_url" validate:"required,url"`
	Seller           string `json:"seller" validate:"omitempty,max=255"`
	Price            string `json:"price" validate:"omitempty,max=64"`
	ImageURL         string `json:"image_url" validate:"omitempty,url"`
	ImageData        string `json:"image_data"`         // base64-encoded upload
	ImageContentType string `json:"image_content_type"` // required with image_data
}

// PostItemHandler handles POST /catalogs/{catalogID}/items requests.
type PostItemHandler struct {
	svc *appsvcs.Services
}

// NewPostItemHandler returns a PostItemHandler backed by the given services.
func NewPostItemHandler(svc *appsvcs.Services) *PostItemHandler {
	return &PostItemHandler{svc: svc}
}

// Execute submits an item to a catalog. Responds 201 with the persisted item;
// a resubmission of the same product URL responds 200 with the existing item.
func (h *PostItemHandler) Execute(w http.ResponseWriter, r *http.Request) {
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

	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	req, ok := pkgvalidator.ValidateRequest[SubmitItemRequest](w, r)
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

	item, err := h.svc.Ingestion.SubmitItem(r.Context(), appsvcs.SubmitItemCommand{
		CatalogID:  catalogID,
		UserID:     userID,
		Title:      req.Title,
		ProductURL: req.ProductURL,
		Seller:     req.Seller,
		Price:      req.Price,
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

	httpx.JSON(w, http.StatusCreated, toItemResponse(item))
}
