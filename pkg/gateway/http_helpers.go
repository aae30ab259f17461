package gateway

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/DeBrosOfficial/filevault/pkg/errors"
)

// writeJSON writes JSON with status code
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps err to its status and adds the user-facing description for
// action under details.display.
func writeError(w http.ResponseWriter, r *http.Request, action errors.Action, err error) {
	httpErr := errors.ToHTTPError(err, middleware.GetReqID(r.Context()))
	if httpErr.Details == nil {
		httpErr.Details = make(map[string]string)
	}
	httpErr.Details["display"] = errors.Describe(action, err)
	writeJSON(w, httpErr.Status, httpErr)
}

// decodeJSON decodes the body into v, rejecting unknown fields.
func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewValidationError("body", "invalid JSON body: "+err.Error(), nil)
	}
	return nil
}
