// Package middleware holds the HTTP middleware shared by the API routes.
package middleware

import (
	"encoding/json"
	"net/http"
)

type contextKey string

// errorBody is the JSON error envelope written by middleware. It matches
// the shape the handlers use so clients see one format everywhere.
type errorBody struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// respondJSON writes a JSON error response. Middleware sits in front of
// an API-only surface, so there is no content negotiation.
func respondJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorBody{Message: message})
}
