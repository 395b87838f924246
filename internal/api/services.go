package api

import "github.com/listenupapp/readtrack/internal/service"

// Services groups the business services the API delegates to.
type Services struct {
	ReadingSessions *service.ReadingSessionService
}
