package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rufm/ledger/internal/models"
	"github.com/rufm/ledger/internal/repository"
	"github.com/rufm/ledger/internal/services"
)

const maxBodyBytes = 1_048_576 // 1 MB

var errTrailingData = errors.New("request body must only contain a single JSON object")

// decodeJSON reads exactly one JSON object with no unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}

func sendDecodeError(w http.ResponseWriter, err error) {
	if errors.Is(err, errTrailingData) {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}
	services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
}

func accountIDParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid account id")
	}
	return id, nil
}

// asOfParam reads the optional as_of=YYYY-MM-DD query parameter.
func asOfParam(r *http.Request) (*time.Time, error) {
	raw := r.URL.Query().Get("as_of")
	if raw == "" {
		return nil, nil
	}
	date, err := models.ParseDate(raw)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

// sendServiceError maps engine and store errors onto HTTP statuses.
func sendServiceError(w http.ResponseWriter, err error) {
	switch {
	case services.IsValidationError(err):
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
	case errors.Is(err, models.ErrUnknownAccountType):
		services.SendErrorResponse(w, err.Error(), http.StatusBadRequest, nil)
	case repository.IsNotFound(err):
		services.SendErrorResponse(w, err.Error(), http.StatusNotFound, nil)
	case repository.IsUniqueViolation(err):
		services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	case errors.Is(err, services.ErrRequestInProgress):
		services.SendErrorResponse(w, err.Error(), http.StatusConflict, nil)
	case repository.IsReferentialIntegrity(err),
		errors.Is(err, services.ErrSameAccount),
		errors.Is(err, services.ErrInvalidAmount):
		services.SendErrorResponse(w, err.Error(), http.StatusUnprocessableEntity, nil)
	default:
		services.SendErrorResponse(w, "Internal server error", http.StatusInternalServerError, nil)
	}
}
