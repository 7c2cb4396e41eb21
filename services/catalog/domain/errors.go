package domain

import "errors"

// Sentinel errors for the catalog domain. Use errors.Is() to check these.
var (
	// ErrValidation indicates the submission itself is malformed (empty title,
	// unparseable product URL, banned language). Nothing downstream runs.
	ErrValidation = errors.New("invalid submission")

	// ErrInvalidImage indicates uploaded image bytes violate type or size
	// constraints. Detected before any network call.
	ErrInvalidImage = errors.New("invalid image")

	// ErrImageFetchFailed indicates a remote image URL could not be fetched.
	ErrImageFetchFailed = errors.New("image fetch failed")

	// ErrContentRejected indicates the safety gate refused the image.
	ErrContentRejected = errors.New("content rejected")

	// ErrStorageUnavailable indicates the item store could not complete a write.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrDuplicateItem indicates an item with the same (catalog, product URL)
	// pair already exists. The coordinator resolves this to the existing item
	// rather than surfacing it.
	ErrDuplicateItem = errors.New("duplicate item")

	// ErrItemNotFound indicates the requested item does not exist.
	ErrItemNotFound = errors.New("item not found")

	// ErrCatalogNotFound indicates the target catalog does not exist.
	ErrCatalogNotFound = errors.New("catalog not found")

	// ErrNotCatalogOwner indicates the caller does not own the target catalog.
	ErrNotCatalogOwner = errors.New("not the catalog owner")
)
