// Package respond writes the JSON response shapes shared by all handlers.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
)

// JSON writes v as a JSON body with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// Error writes the structured error body clients rely on: a machine-readable
// code string and a human message, never a stack trace.
func Error(w http.ResponseWriter, status int, code, message string) {
	JSON(w, status, map[string]string{
		"status":  "error",
		"code":    code,
		"message": message,
	})
}

// Message writes a success envelope with a human message.
func Message(w http.ResponseWriter, message string) {
	JSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// ErrBadBody is returned by Decode for unreadable or malformed JSON bodies.
var ErrBadBody = errors.New("malformed request body")

// Decode reads the request body (capped at 1 MiB) into dst.
func Decode(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return ErrBadBody
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return ErrBadBody
	}
	return nil
}
