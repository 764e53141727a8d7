package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/campusbook/classwork/internal/apperr"
	"github.com/campusbook/classwork/internal/observability"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

func (a *API) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		if err := json.NewEncoder(w).Encode(v); err != nil {
			a.Log.Warnw("encode response", "err", err)
		}
	}
}

type errBody struct {
	Error string `json:"error"`
	Kind  string `json:"kind,omitempty"`
}

// respondErr maps error kinds onto statuses; unknown errors become an
// opaque 500 so internals never leak into the body.
func (a *API) respondErr(w http.ResponseWriter, err error) {
	kind := apperr.KindOf(err)
	var status int
	switch kind {
	case apperr.NotFound:
		status = http.StatusNotFound
	case apperr.Forbidden:
		status = http.StatusForbidden
	case apperr.InvalidState, apperr.Conflict:
		status = http.StatusConflict
	case apperr.OutOfRange, apperr.EmptyInput:
		status = http.StatusUnprocessableEntity
	default:
		a.Log.Errorw("internal error", "err", err)
		observability.CaptureErr(err)
		a.respondJSON(w, http.StatusInternalServerError, errBody{Error: "internal error"})
		return
	}
	a.respondJSON(w, status, errBody{Error: err.Error(), Kind: kind.String()})
}

// decode binds and validates the JSON body.
func (a *API) decode(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperr.E(apperr.EmptyInput, "invalid request body: %v", err)
	}
	if err := validate.Struct(dst); err != nil {
		return apperr.E(apperr.EmptyInput, "validation failed: %v", err)
	}
	return nil
}
