// Package httphandler is the HTTP driving adapter that serves the local
// JSON API over the controller's account view.
package httphandler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/farepanel/farepanel/internal/application"
	"github.com/farepanel/farepanel/internal/domain/model"
	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

// Controller is the slice of the account controller the adapter drives.
type Controller interface {
	State() application.FetchState
	UpdateCredential(ctx context.Context, cred model.Credential) error
	ClearCredential(ctx context.Context) error
}

// Refresher triggers an immediate refresh bypassing the interval.
type Refresher interface {
	RefreshNow(ctx context.Context) error
}

// Handler serves the local JSON API.
type Handler struct {
	controller Controller
	refresher  Refresher
	provider   *application.ClientProvider
	logger     *slog.Logger
}

// NewHandler creates a Handler with all required dependencies.
func NewHandler(controller Controller, refresher Refresher, provider *application.ClientProvider, logger *slog.Logger) *Handler {
	return &Handler{
		controller: controller,
		refresher:  refresher,
		provider:   provider,
		logger:     logger,
	}
}

// NewServeMux creates an http.Handler with all routes registered and wrapped
// with logging and recovery middleware.
func NewServeMux(h *Handler, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/v1/state", h.GetState)
	mux.HandleFunc("GET /api/v1/account", h.GetAccount)
	mux.HandleFunc("PUT /api/v1/account", h.UpdateAccount)
	mux.HandleFunc("GET /api/v1/history", h.GetHistory)
	mux.HandleFunc("POST /api/v1/refresh", h.TriggerRefresh)
	mux.HandleFunc("PUT /api/v1/credentials", h.PutCredentials)
	mux.HandleFunc("DELETE /api/v1/credentials", h.DeleteCredentials)
	mux.HandleFunc("GET /api/v1/connectivity", h.Connectivity)
	mux.HandleFunc("GET /api/v1/health", h.Health)

	// Recovery innermost so panics are caught before logging.
	wrapped := recoveryMiddleware(logger, mux)
	wrapped = loggingMiddleware(logger, wrapped)

	return wrapped
}

// GetState returns the full controller view.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toStateResponse(h.controller.State()))
}

// GetAccount returns the last-known-good account snapshot.
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	state := h.controller.State()
	if state.Account == nil {
		writeError(w, http.StatusNotFound, "no account data yet")
		return
	}
	writeJSON(w, http.StatusOK, toSnapshotResponse(*state.Account))
}

// UpdateAccount forwards changed account details to the fare API and
// returns the server's updated snapshot.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	var req AccountUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	client := h.provider.Get()
	if client == nil {
		writeError(w, http.StatusConflict, application.ErrNoCredential.Error())
		return
	}

	snapshot, err := client.UpdateAccount(r.Context(), model.AccountUpdate{
		Email: req.Email,
		Phone: req.Phone,
	})
	if err != nil {
		h.logger.Error("account update failed", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	writeJSON(w, http.StatusOK, toSnapshotResponse(snapshot))
}

// GetHistory returns the transaction history feed in server order.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	state := h.controller.State()

	resp := make([]HistoryEntryResponse, 0, len(state.History))
	for _, entry := range state.History {
		resp = append(resp, toHistoryEntryResponse(entry))
	}

	writeJSON(w, http.StatusOK, resp)
}

// TriggerRefresh runs a refresh bypassing the interval and returns the
// resulting view.
func (h *Handler) TriggerRefresh(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.RefreshNow(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, toStateResponse(h.controller.State()))
}

// PutCredentials validates a fresh credential against the auth endpoint,
// persists it, and hot-swaps the client.
func (h *Handler) PutCredentials(w http.ResponseWriter, r *http.Request) {
	var req CredentialRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cred := model.Credential{CardNumber: req.CardNumber, Password: req.Password}
	if err := h.controller.UpdateCredential(r.Context(), cred); err != nil {
		h.logger.Error("credential update failed", "error", err)
		writeError(w, statusForError(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// DeleteCredentials signs out and clears the stored credential.
func (h *Handler) DeleteCredentials(w http.ResponseWriter, r *http.Request) {
	if err := h.controller.ClearCredential(r.Context()); err != nil {
		h.logger.Error("credential delete failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Connectivity probes the fare API's ping endpoint.
func (h *Handler) Connectivity(w http.ResponseWriter, r *http.Request) {
	client := h.provider.Get()
	if client == nil {
		writeError(w, http.StatusConflict, application.ErrNoCredential.Error())
		return
	}

	if err := client.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusOK, ConnectivityResponse{Reachable: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, ConnectivityResponse{Reachable: true})
}

// Health reports daemon liveness.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "ok",
		Time:   time.Now().UTC().Format(time.RFC3339),
	})
}

// statusForError maps fare API errors onto local API status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, driven.ErrAuthInputInvalid):
		return http.StatusBadRequest
	case errors.Is(err, driven.ErrAuthenticationFailed):
		return http.StatusUnauthorized
	case errors.Is(err, application.ErrNoCredential):
		return http.StatusConflict
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		// ServerError, TransportError, DecodeError: upstream trouble.
		return http.StatusBadGateway
	}
}
