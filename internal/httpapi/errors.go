package httpapi

import (
	"errors"
	"net/http"

	"printquote/backend/internal/catalog"
	"printquote/backend/internal/constraint"
	"printquote/backend/internal/pricing"
	"printquote/backend/internal/service"
	"printquote/backend/internal/simulation"
	"printquote/backend/internal/store"
)

type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status >= 500 {
		msg = "internal server error"
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// writeServiceError maps errors returned by the service to a status and a
// body carrying the error code and its context.
func (a *API) writeServiceError(w http.ResponseWriter, err error) {
	var (
		pricingErr    *pricing.Error
		constraintErr *constraint.Error
		selectionErr  *service.SelectionError
		publishErr    *simulation.PublishError
		tooLarge      *simulation.TooLarge
	)

	switch {
	case errors.As(err, &pricingErr):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: pricingErr.Message, Code: string(pricingErr.Code), Details: pricingErr.Context})
	case errors.As(err, &constraintErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: constraintErr.Message, Code: constraintErr.Code, Details: constraintErr.Context})
	case errors.As(err, &selectionErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: selectionErr.Error(), Code: "INVALID_SELECTION", Details: selectionErr.Errors})
	case errors.As(err, &publishErr):
		writeJSON(w, http.StatusConflict, errorBody{Error: publishErr.Error(), Code: publishErr.Code(), Details: publishErr.Completeness})
	case errors.As(err, &tooLarge):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: tooLarge.Error(), Code: "SIMULATION_TOO_LARGE", Details: tooLarge})
	case errors.Is(err, catalog.ErrMissingSelection), errors.Is(err, store.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, err)
	default:
		a.logger.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, err)
	}
}
