package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"printquote/backend/internal/domain"
	"printquote/backend/internal/service"
)

func (a *API) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !a.loginLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many login attempts"))
		return
	}

	var req domain.LoginRequest
	if !a.decodeAndValidate(w, r, &req) {
		return
	}

	resp, err := a.auth.Login(r.Context(), req)
	if err != nil {
		if errors.Is(err, errInvalidCredentials) || errors.Is(err, errInactiveAccount) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleCSRFToken returns a stateless token for the current hour bucket.
// Authenticated clients send it in X-CSRF-Token on every POST.
func (a *API) handleCSRFToken(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"csrf_token": a.generateCSRFToken(),
	})
}

func (a *API) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := service.ActorFromContext(r.Context())

	var req domain.ChangePasswordRequest
	if !a.decodeAndValidate(w, r, &req) {
		return
	}
	if err := a.auth.ChangePassword(r.Context(), actor.Username, req); err != nil {
		if errors.Is(err, errInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, err)
			return
		}
		a.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) handleProducts(w http.ResponseWriter, r *http.Request) {
	products, err := a.service.ListProducts(r.Context())
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"products": products})
}

// handleOptions resolves the product's options. GET resolves the defaults;
// POST carries the current selections.
func (a *API) handleOptions(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req domain.ResolveOptionsRequest
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if fields := a.validate.Struct(&req); len(fields) > 0 {
			writeJSON(w, http.StatusBadRequest, errorBody{Error: "validation failed", Code: "VALIDATION_FAILED", Details: fields})
			return
		}
	}

	res, err := a.service.ResolveOptions(r.Context(), productID, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"options": res, "valid": res.Valid()})
}

func (a *API) handleCreateQuote(w http.ResponseWriter, r *http.Request) {
	if !a.quoteLimiter.Allow(clientKey(r)) {
		writeError(w, http.StatusTooManyRequests, errors.New("too many quote requests"))
		return
	}

	var req domain.QuoteRequest
	if !a.decodeAndValidate(w, r, &req) {
		return
	}

	q, err := a.service.IssueQuote(r.Context(), req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"quote": q})
}

func (a *API) handleGetQuote(w http.ResponseWriter, r *http.Request) {
	quoteID := strings.TrimSpace(r.PathValue("id"))
	if quoteID == "" {
		writeError(w, http.StatusBadRequest, errors.New("quote id required"))
		return
	}

	view, err := a.service.GetQuote(r.Context(), quoteID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"quote": view})
}

func (a *API) handleCompleteness(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	res, err := a.service.Completeness(r.Context(), productID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"completeness": res})
}

func (a *API) handlePublish(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	resp, err := a.service.Publish(r.Context(), productID)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (a *API) handleStartSimulation(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var req domain.SimulationRequest
	if r.ContentLength != 0 {
		if !a.decodeAndValidate(w, r, &req) {
			return
		}
	}

	run, err := a.service.StartSimulation(r.Context(), productID, req)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"simulation": run})
}

func (a *API) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	run, err := a.service.GetSimulation(r.Context(), strings.TrimSpace(r.PathValue("id")))
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"simulation": run})
}

func (a *API) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	limit := parsePositiveLimit(query.Get("limit"), 100, 500)

	logs, err := a.service.ListAuditLogs(r.Context(), strings.TrimSpace(query.Get("entity_type")), strings.TrimSpace(query.Get("entity_id")), limit)
	if err != nil {
		a.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"logs": logs})
}
