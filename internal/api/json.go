package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"maps"
	"net/http"
	"slices"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/menuboard/internal/apperr"
)

const maxBodyBytes = 10 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode failed", slog.String("error", err.Error()))
	}
}

type errResponse struct {
	Error string `json:"error" validate:"required"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

// decodeJSON reads a JSON body into v and runs its Validate method, if any.
// An empty body decodes as an empty object.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return errBadJSON
	}
	if vv, ok := v.(validation.Validatable); ok {
		if err := vv.Validate(); err != nil {
			return validationError(err)
		}
	}
	return nil
}

var errBadJSON = errors.New("invalid JSON body")

// validationError reports the first failing field as "<field> is required".
func validationError(err error) error {
	var errs validation.Errors
	if errors.As(err, &errs) && len(errs) > 0 {
		return &apperr.ValidationError{Field: slices.Sorted(maps.Keys(errs))[0]}
	}
	return err
}

// writeError maps err onto the status taxonomy: validation 400, auth 401,
// missing resources 404, failed preconditions 409, everything else 500 with the message passed through.
func writeError(w http.ResponseWriter, op string, err error) {
	var (
		verr *apperr.ValidationError
		uerr *apperr.UpstreamError
		berr *apperr.BackendError
	)
	switch {
	case errors.Is(err, errBadJSON):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, errorBody(verr.Error()))
	case errors.Is(err, apperr.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.Is(err, apperr.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("not found"))
	case errors.Is(err, apperr.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody("resource changed since it was read"))
	case errors.Is(err, apperr.ErrMissingConfig), errors.As(err, &uerr), errors.As(err, &berr):
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
	default:
		slog.Error(op+" failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
