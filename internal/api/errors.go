// SPDX-License-Identifier: MIT

package api

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON error envelope for every non-2xx response.
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeInvalidRequest writes a 400 for missing or malformed fields.
func writeInvalidRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg})
}

// writeUnprocessable writes a 422 for sources that defeated every
// resolution attempt or lack a required duration.
func writeUnprocessable(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: msg})
}

// writeNotFound writes a 404 for unknown or expired download handles.
func writeNotFound(w http.ResponseWriter) {
	writeJSON(w, http.StatusNotFound, errorBody{Error: "File not found"})
}

// writeServerError writes a 500 with optional detail.
func writeServerError(w http.ResponseWriter, msg, details string) {
	writeJSON(w, http.StatusInternalServerError, errorBody{Error: msg, Details: details})
}
