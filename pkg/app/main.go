package app

import (
	"github.com/gorilla/sessions"

	"github.com/sourcedhq/sourced/pkg/cache"
	"github.com/sourcedhq/sourced/pkg/config"
	"github.com/sourcedhq/sourced/pkg/database"
	"github.com/sourcedhq/sourced/pkg/events"
	"github.com/sourcedhq/sourced/pkg/logger"
	"github.com/sourcedhq/sourced/pkg/objstore"
	"github.com/sourcedhq/sourced/pkg/openai"
)

// Application holds shared infrastructure dependencies for all services.
// Pass to all service route registrations during server initialization.
//
// Logging: app.Logger is backed by a trace-aware handler — use slog's context methods
// and trace_id, span_id, and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "processing item", "item_id", id)
//	app.Logger.ErrorContext(ctx, "failed to save", "error", err)
//
// Use app.Logger.Info/Error (no context) only for startup and shutdown messages.
type Application struct {
	Config       *config.Config
	Db           *database.Database
	Logger       logger.Logger
	EventBus     *events.EventBus
	Redis        *cache.RedisClient
	ObjectStore  *objstore.ObjectStore
	OpenAI       *openai.Client
	SessionStore sessions.Store // Redis-backed session store; nil in worker process
}
