package middleware

import (
	"encoding/json"
	"net/http"
)

// writeJSONError is the middleware-local error writer; handlers have their
// own envelope types, middleware rejections stay a flat {"error": ...}.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
