package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/listenupapp/readtrack/internal/domain"
	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/service"
)

// maxBeaconBytes matches the payload ceiling browsers enforce for sendBeacon.
const maxBeaconBytes = 64 << 10

// handleBeacon accepts a session record sent while a client was tearing down.
// The body is JSON sent as text/plain, credentials arrive in the query string, and
// the sender never reads the response, so success is an empty 204.
func (s *Server) handleBeacon(w http.ResponseWriter, r *http.Request) {
	userID := userFromRequest(r)
	if userID == "" {
		writeError(w, domainerrors.Unauthorized("missing or invalid token"))
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBeaconBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeAPIError(w, &APIError{
				status:  http.StatusRequestEntityTooLarge,
				Code:    string(domainerrors.CodeValidation),
				Message: "beacon payload too large",
			})
			return
		}
		writeError(w, domainerrors.Validation("could not read beacon body"))
		return
	}

	var req service.RecordSessionRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, domainerrors.Validation("beacon body is not a session record"))
		return
	}

	deviceID := r.URL.Query().Get("device_id")
	if _, err := s.services.ReadingSessions.RecordSession(r.Context(), userID, deviceID, req, domain.DeliveryBeacon); err != nil {
		s.logger.Warn("beacon rejected",
			"user_id", userID,
			"book_id", req.BookID,
			"error", err,
		)
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
