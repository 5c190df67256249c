package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/ndewijer/Investment-Backtest-Backend/internal/api/response"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/apperrors"
	"github.com/ndewijer/Investment-Backtest-Backend/internal/validation"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// parseJSON decodes the request body into T. Unknown fields and trailing
// data are rejected.
func parseJSON[T any](r *http.Request) (T, error) {
	var v T
	if r.Body == nil {
		return v, errors.New("request body is empty")
	}

	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, errors.New("request body is empty")
		}
		return v, err
	}
	if dec.More() {
		return v, fmt.Errorf("request body must contain a single JSON object")
	}
	return v, nil
}

// respondBacktestError maps a failed run onto its HTTP status.
func respondBacktestError(w http.ResponseWriter, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		response.RespondError(w, http.StatusBadRequest, "validation failed", verr.Fields)
	case errors.Is(err, apperrors.ErrInvalidConfiguration):
		response.RespondError(w, http.StatusBadRequest, apperrors.ErrInvalidConfiguration.Error(), err.Error())
	case errors.Is(err, apperrors.ErrStaleRun):
		response.RespondError(w, http.StatusConflict, apperrors.ErrStaleRun.Error(), err.Error())
	case errors.Is(err, apperrors.ErrInsufficientData):
		response.RespondError(w, http.StatusUnprocessableEntity, apperrors.ErrInsufficientData.Error(), err.Error())
	case errors.Is(err, apperrors.ErrDataUnavailable):
		response.RespondError(w, http.StatusBadGateway, apperrors.ErrDataUnavailable.Error(), err.Error())
	case errors.Is(err, apperrors.ErrRunNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrRunNotFound.Error(), err.Error())
	case errors.Is(err, apperrors.ErrSessionNotFound):
		response.RespondError(w, http.StatusNotFound, apperrors.ErrSessionNotFound.Error(), err.Error())
	default:
		response.RespondError(w, http.StatusInternalServerError, apperrors.ErrFailedToRunBacktest.Error(), err.Error())
	}
}
