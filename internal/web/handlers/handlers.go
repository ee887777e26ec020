package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/restbase/restbase/internal/database"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	store        *database.Store
	isProduction bool
}

// New creates a new Handlers instance
func New(store *database.Store, isProduction bool) *Handlers {
	return &Handlers{
		store:        store,
		isProduction: isProduction,
	}
}

// respond writes a success envelope with the given payload fields.
func (h *Handlers) respond(w http.ResponseWriter, status int, payload map[string]any) {
	body := map[string]any{"status": "success"}
	for k, v := range payload {
		body[k] = v
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// jsonError writes an error envelope with a fixed message.
func (h *Handlers) jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"status":  "error",
		"message": message,
	})
}

// storeError maps a table-access failure to an HTTP response. Backend
// detail is attached only outside production mode.
func (h *Handlers) storeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "query execution failed"

	var execErr *database.ExecutionError
	switch {
	case errors.Is(err, database.ErrBadRequest):
		status = http.StatusBadRequest
		message = err.Error()
	case errors.Is(err, database.ErrNoSuchTable):
		status = http.StatusNotFound
		message = "table not found"
	case errors.Is(err, database.ErrNotFound):
		status = http.StatusNotFound
		message = "row not found"
	case errors.Is(err, database.ErrQueryTimeout):
		status = http.StatusRequestTimeout
		message = "query timed out"
	case errors.Is(err, database.ErrConflict):
		status = http.StatusConflict
		message = "a row with this value already exists"
	case errors.Is(err, database.ErrConnection):
		message = "cannot open database"
	case errors.As(err, &execErr):
		log.Error().Err(err).Msg("Query execution failed")
	default:
		log.Error().Err(err).Msg("Unexpected database error")
	}

	body := map[string]any{
		"status":  "error",
		"message": message,
	}
	if !h.isProduction {
		body["detail"] = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// decodeBody parses a JSON object request body.
func decodeBody(r *http.Request) (map[string]any, error) {
	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

// decodeInto parses a JSON request body into a typed struct.
func decodeInto(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// NotFound is the handler for unmatched routes.
func (h *Handlers) NotFound(w http.ResponseWriter, r *http.Request) {
	h.jsonError(w, "endpoint not found", http.StatusNotFound)
}
