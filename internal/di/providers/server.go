package providers

import (
	"context"
	"errors"
	"net/http"

	"github.com/samber/do/v2"

	"github.com/listenupapp/readtrack/internal/api"
	"github.com/listenupapp/readtrack/internal/auth"
	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/ratelimit"
	"github.com/listenupapp/readtrack/internal/service"
)

// BeaconLimiterHandle wraps the per-IP beacon limiter with Shutdownable.
type BeaconLimiterHandle struct {
	*ratelimit.KeyedRateLimiter
}

// Shutdown implements do.Shutdownable.
func (h *BeaconLimiterHandle) Shutdown() error {
	h.Stop()
	return nil
}

// ProvideBeaconLimiter provides the rate limiter for the beacon route.
func ProvideBeaconLimiter(i do.Injector) (*BeaconLimiterHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	return &BeaconLimiterHandle{
		KeyedRateLimiter: ratelimit.New(cfg.RateLimit.BeaconRPS, cfg.RateLimit.BeaconBurst),
	}, nil
}

// HTTPServerHandle wraps http.Server with Shutdownable.
type HTTPServerHandle struct {
	*http.Server
}

// Shutdown implements do.Shutdownable.
func (h *HTTPServerHandle) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return h.Server.Shutdown(ctx)
}

// ProvideHTTPServer provides the HTTP server.
func ProvideHTTPServer(i do.Injector) (*HTTPServerHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	limiter := do.MustInvoke[*BeaconLimiterHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	services := &api.Services{
		ReadingSessions: do.MustInvoke[*service.ReadingSessionService](i),
	}

	handler := api.NewServer(storeHandle.Store, services, tokens, sseHandle.Manager, limiter.KeyedRateLimiter,
		api.Options{CORSOrigins: cfg.Server.CORSOrigins}, log.Logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start in background
	go func() {
		log.Info("HTTP server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()

	return &HTTPServerHandle{Server: srv}, nil
}
