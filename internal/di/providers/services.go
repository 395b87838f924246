package providers

import (
	"github.com/samber/do/v2"

	"github.com/listenupapp/readtrack/internal/config"
	"github.com/listenupapp/readtrack/internal/logger"
	"github.com/listenupapp/readtrack/internal/service"
)

// ProvideReadingSessionService provides the reading session service.
func ProvideReadingSessionService(i do.Injector) (*service.ReadingSessionService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	sseHandle := do.MustInvoke[*SSEManagerHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewReadingSessionService(storeHandle.Store, sseHandle.Manager, service.ReadingSessionConfig{
		MinDuration: cfg.Sessions.MinDuration,
	}, log.Logger), nil
}
