// Package httpx provides JSON response utilities shared by all HTTP handlers.
package httpx

import (
	"encoding/json"
	"net/http"
)

// Msg is the envelope for plain message responses.
type Msg struct {
	Msg string `json:"msg"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Message sends a {"msg": ...} response with the given status code.
func Message(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, Msg{Msg: msg})
}

// DecodeJSON decodes the JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
