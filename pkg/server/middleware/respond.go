package middleware

import (
	"encoding/json"
	"net/http"
)

// ErrorResponse is the body of every API error.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// encodeFailure is written when a response body cannot be marshalled.
var encodeFailure = []byte(`{"success":false,"error":"Internal server error","message":"response could not be encoded"}` + "\n")

// WriteError writes an ErrorResponse with the given status.
func WriteError(w http.ResponseWriter, status int, errMsg, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Error: errMsg, Message: message})
}

// WriteJSON writes v as the JSON body with the given status. The body is
// marshalled before the header is sent; a value that cannot be marshalled
// is answered with 500 instead.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	body, err := json.Marshal(v)
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailure)
		return err
	}
	w.WriteHeader(status)
	_, err = w.Write(append(body, '\n'))
	return err
}
