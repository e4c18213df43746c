package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/shiroonigami23-ui/supplier-reliability-tracker/internal/tracker"
)

func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteError maps tracker errors onto status codes. Anything that is not a
// validation or not-found error is reported as 500 without its details.
func WriteError(w http.ResponseWriter, err error) {
	switch {
	case tracker.IsValidation(err):
		WriteJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case tracker.IsNotFound(err):
		WriteJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	default:
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func DecodeJSON(r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dst)
}
