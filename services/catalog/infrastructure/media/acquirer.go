// Package media turns a caller-supplied image — raw bytes or a remote URL —
// into a durably hosted URL under owned storage. Remote images are fetched
// and re-uploaded; the third-party URL is never what gets persisted.
package media

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	domain "github.com/sourcedhq/sourced/services/catalog/domain"
)

// allowedImageTypes maps accepted content types to storage key extensions.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// Browser-ish UA: several image hosts refuse requests with a default Go agent.
const fetchUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// ObjectStore is the slice of objstore.ObjectStore the acquirer needs.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

// Acquirer produces owned image URLs from either input mode.
type Acquirer struct {
	store      ObjectStore
	httpClient *http.Client
	maxBytes   int64
}

// NewAcquirer creates an Acquirer. maxBytes caps accepted image sizes
// (values <= 0 default to 5 MiB); fetchTimeout bounds remote URL downloads.
func NewAcquirer(store ObjectStore, maxBytes int64, fetchTimeout time.Duration) *Acquirer {
	if maxBytes <= 0 {
		maxBytes = 5 << 20
	}
	if fetchTimeout <= 0 {
		fetchTimeout = 15 * time.Second
	}
	return &Acquirer{
		store:      store,
		httpClient: &http.Client{Timeout: fetchTimeout},
		maxBytes:   maxBytes,
	}
}

// FromBytes validates and uploads caller-supplied image bytes, returning the
// public URL. Type and size are checked before any network call.
func (a *Acquirer) FromBytes(ctx context.Context, userID uuid.UUID, data []byte, contentType string) (string, error) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: unparseable content type %q", domain.ErrInvalidImage, contentType)
	}
	ext, ok := allowedImageTypes[mediaType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidImage, mediaType)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", domain.ErrInvalidImage)
	}
	if int64(len(data)) > a.maxBytes {
		return "", fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidImage, a.maxBytes)
	}

	publicURL, err := a.store.Put(ctx, storageKey(userID, ext), data, mediaType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
	}
	return publicURL, nil
}

// FromURL fetches the image at remoteURL and uploads the bytes exactly as
// FromBytes does. The returned URL always points at owned storage.
func (a *Acquirer) FromURL(ctx context.Context, userID uuid.UUID, remoteURL string) (string, error) {
	u, err := url.Parse(remoteURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: image URL must be absolute http(s)", domain.ErrInvalidImage)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remoteURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrImageFetchFailed, err)
	}
	req.Header.Set("User-Agent", fetchUserAgent)

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrImageFetchFailed, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("%w: HTTP %d from image host", domain.ErrImageFetchFailed, resp.StatusCode)
	}

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: URL does not point to an image (%s)", domain.ErrInvalidImage, contentType)
	}

	// Read one byte past the cap so oversized bodies are detected without
	// buffering them whole.
	data, err := io.ReadAll(io.LimitReader(resp.Body, a.maxBytes+1))
	if err != nil {
		return "", fmt.Errorf("%w: reading image body: %w", domain.ErrImageFetchFailed, err)
	}
	if int64(len(data)) > a.maxBytes {
		return "", fmt.Errorf("%w: image exceeds %d bytes", domain.ErrInvalidImage, a.maxBytes)
	}

	return a.FromBytes(ctx, userID, data, contentType)
}

// storageKey builds a collision-resistant object key: caller identity plus a
// coarse timestamp plus a random suffix.
func storageKey(userID uuid.UUID, ext string) string {
	suffix := make([]byte, 4)
	_, _ = rand.Read(suffix)
	return fmt.Sprintf("items/%s/%d-%s%s", userID, time.Now().Unix()/60, hex.EncodeToString(suffix), ext)
}
