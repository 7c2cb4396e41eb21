// Package moderation gates item images before they are persisted.
//
// Policy, applied uniformly to every image type: an explicit "flagged"
// verdict from the moderation endpoint is authoritative and rejects the
// submission; an infrastructure failure (timeout, connection error, non-2xx,
// malformed body) is logged and the image is allowed through, so a moderation
// outage never blocks legitimate submissions.
package moderation

import (
	"context"
	"errors"
	"time"

	"github.com/sourcedhq/sourced/pkg/logger"
	"github.com/sourcedhq/sourced/pkg/openai"
)

// ErrImageRejected is returned when the moderation endpoint flags the image.
var ErrImageRejected = errors.New("image violates content guidelines")

// ImageModerator is satisfied by *openai.Client.
type ImageModerator interface {
	ModerateImage(ctx context.Context, model, url string) (*openai.ModerationResult, error)
}

// Gate performs a single bounded moderation call per image.
type Gate struct {
	moderator ImageModerator // *openai.Client in production
	model     string
	timeout   time.Duration
	log       logger.Logger
}

// NewGate creates a Gate. timeout bounds each classification call; values
// <= 0 default to 10s.
func NewGate(moderator ImageModerator, model string, timeout time.Duration, log logger.Logger) *Gate {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Gate{moderator: moderator, model: model, timeout: timeout, log: log}
}

// Check classifies the image at imageURL. It returns ErrImageRejected only on
// a definitive unsafe verdict. Exactly one call is made; there are no retries.
func (g *Gate) Check(ctx context.Context, imageURL string) error {
	callCtx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	verdict, err := g.moderator.ModerateImage(callCtx, g.model, imageURL)
	if err != nil {
		// Fail open: an unclassifiable image is not an unsafe image.
		g.log.WarnContext(ctx, "moderation unavailable, allowing image",
			"image_url", imageURL, "error", err)
		return nil
	}

	if verdict.Flagged {
		g.log.InfoContext(ctx, "moderation rejected image",
			"image_url", imageURL, "categories", flaggedCategories(verdict.Categories))
		return ErrImageRejected
	}

	return nil
}

func flaggedCategories(categories map[string]bool) []string {
	out := make([]string, 0, len(categories))
	for name, flagged := range categories {
		if flagged {
			out = append(out, name)
		}
	}
	return out
}
