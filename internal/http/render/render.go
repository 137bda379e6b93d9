// Package render writes JSON responses for the HTTP handlers.
package render

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, ErrorBody{Error: message})
}

func FieldError(w http.ResponseWriter, message string, fields []string) {
	JSON(w, http.StatusBadRequest, ErrorBody{Error: message, Fields: fields})
}

// Message writes {"message": msg, key: payload}, or just the message when key is empty.
func Message(w http.ResponseWriter, status int, msg, key string, payload any) {
	body := map[string]any{"message": msg}
	if key != "" {
		body[key] = payload
	}
	JSON(w, status, body)
}

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	return dec.Decode(dst)
}
