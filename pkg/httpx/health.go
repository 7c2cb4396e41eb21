package httpx

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"
)

// HealthChecker is satisfied by any infrastructure dependency that exposes
// a Ping method (pgxpool.Pool, RedisClient, EventBus all qualify).
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthChecks holds the set of dependencies to probe in the health endpoint.
// ObjectStore is optional; when nil it is skipped (the worker process has no
// object storage dependency).
type HealthChecks struct {
	Database    HealthChecker
	Redis       HealthChecker
	EventBus    HealthChecker
	ObjectStore HealthChecker
}

type healthResponse struct {
	Status      string `json:"status"`
	Database    string `json:"database"`
	Redis       string `json:"redis"`
	EventBus    string `json:"event_bus"`
	ObjectStore string `json:"object_store,omitempty"`
}

// HealthHandler returns an http.HandlerFunc that probes all registered
// HealthCheckers concurrently and reports degraded status if any of them fail.
// The whole probe is bounded by a 2s deadline.
func HealthHandler(checks HealthChecks) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		resp := healthResponse{
			Status:   "ok",
			Database: "ok",
			Redis:    "ok",
			EventBus: "ok",
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(probe(gctx, checks.Database, &resp.Database))
		g.Go(probe(gctx, checks.Redis, &resp.Redis))
		g.Go(probe(gctx, checks.EventBus, &resp.EventBus))
		if checks.ObjectStore != nil {
			resp.ObjectStore = "ok"
			g.Go(probe(gctx, checks.ObjectStore, &resp.ObjectStore))
		}
		_ = g.Wait() // probes record their own outcome and never return errors

		status := http.StatusOK
		if resp.Database != "ok" || resp.Redis != "ok" || resp.EventBus != "ok" ||
			(checks.ObjectStore != nil && resp.ObjectStore != "ok") {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
		}
		JSON(w, status, resp)
	}
}

func probe(ctx context.Context, checker HealthChecker, outcome *string) func() error {
	return func() error {
		if err := checker.Ping(ctx); err != nil {
			*outcome = "unreachable"
		}
		return nil
	}
}
