package httputil

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// MaxRequestBody caps JSON request bodies. Notes carry attachment metadata
// only, never file contents.
const MaxRequestBody = 1 << 20

// ParseJSON decodes JSON from the request body into the given destination.
// Unknown fields are rejected so client typos surface as 400s.
func ParseJSON(w http.ResponseWriter, r *http.Request, dest interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBody)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(dest); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}

	return nil
}
