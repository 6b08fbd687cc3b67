package daemon

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/thefrederiksen/cc-browser/pkg/models"
)

// envelope is the uniform response shape: {success, ...fields} or
// {success:false, error}.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, payload envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Debug().Err(err).Msg("Response write failed")
	}
}

// ok writes a success envelope with any extra fields merged in.
func ok(w http.ResponseWriter, fields envelope) {
	payload := envelope{"success": true}
	for k, v := range fields {
		payload[k] = v
	}
	writeJSON(w, http.StatusOK, payload)
}

// fail writes an error envelope with the status implied by the error kind.
func fail(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), envelope{"success": false, "error": err.Error()})
}

// failBad writes a 400 for plain validation errors.
func failBad(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, envelope{"success": false, "error": err.Error()})
}

// statusFor maps semantic errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case models.NotFound(err):
		return http.StatusNotFound
	case models.BadRequest(err):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrTimeout),
		errors.Is(err, models.ErrMultipleMatches),
		errors.Is(err, models.ErrDetachedElement):
		return http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrPortInUse),
		errors.Is(err, models.ErrLaunchFailed):
		return http.StatusConflict
	case errors.Is(err, models.ErrVisionBackend),
		errors.Is(err, models.ErrUnsupportedCaptcha):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// decode parses a JSON request body into dst. Empty bodies decode as the
// zero value so GET-style verbs can share the helper.
func (d *Daemon) decode(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, d.cfg.BodyLimitBytes)
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("read request body: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
