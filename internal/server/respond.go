package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/practicelog/internal/shared"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Success bool   `json:"success"`
	Kind    string `json:"kind"`
	Error   string `json:"error"`
}

// writeJSON writes v as the JSON response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respond writes a success body: fields plus "success": true.
func respond(w http.ResponseWriter, fields map[string]any) {
	body := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		body[k] = v
	}
	body["success"] = true
	writeJSON(w, http.StatusOK, body)
}

// respondError renders err with the status of its [shared.Kind]. Backend errors are logged
// with their cause; the caller only sees the generic message.
func respondError(w http.ResponseWriter, r *http.Request, logger *log.Logger, err error) {
	appErr := shared.AsError(err)
	if appErr.Kind == shared.KindBackend && logger != nil {
		logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", appErr.Err)
	}

	writeJSON(w, appErr.Kind.Status(), errorResponse{
		Success: false,
		Kind:    appErr.Kind.String(),
		Error:   appErr.Message,
	})
}

// decodeJSON reads the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return shared.ClientError("Request body too large")
		case errors.Is(err, io.EOF):
			return shared.ClientError("Request body is required")
		default:
			return shared.ClientError("Invalid request body")
		}
	}
	return nil
}
