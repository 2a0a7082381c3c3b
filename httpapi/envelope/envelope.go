// Package envelope defines the single JSON response shape every corekv
// HTTP surface uses: {success, data?, error?, message?}. Handlers in
// httpapi/cacheserver and httpapi/storeserver write through this package
// instead of calling json.NewEncoder directly, so the shape can't drift
// between endpoints.
package envelope

import (
	"encoding/json"
	"net/http"
)

// Envelope is the wire format of every corekv HTTP response.
type Envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// Write sends a successful envelope carrying data at the given status.
func Write(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Envelope{Success: true, Data: data})
}

// Fail sends a failed envelope with an error kind and a human message.
func Fail(w http.ResponseWriter, status int, errKind, message string) {
	writeJSON(w, status, Envelope{Success: false, Error: errKind, Message: message})
}

func writeJSON(w http.ResponseWriter, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
