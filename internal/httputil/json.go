package httputil

import (
	"net/http"

	gojson "github.com/goccy/go-json"
)

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	data, err := gojson.Marshal(v)
	if err != nil {
		WriteError(w, http.StatusInternalServerError, "encoding response failed")
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err = w.Write(append(data, '\n'))
	return err
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	data, _ := gojson.Marshal(map[string]string{"error": msg})
	w.Write(append(data, '\n'))
}
