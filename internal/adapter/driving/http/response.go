package httphandler

import (
	"encoding/json"
	"net/http"

	"github.com/farepanel/farepanel/internal/application"
	"github.com/farepanel/farepanel/internal/domain/model"
)

// writeJSON marshals v to JSON and writes it to the response with the given
// status code. If marshaling fails, a 500 error is written instead.
func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

// writeError writes a JSON error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// errorResponse is the standard error response body.
type errorResponse struct {
	Error string `json:"error"`
}

// StateResponse is the JSON representation of the controller's view.
type StateResponse struct {
	Account      *SnapshotResponse      `json:"account"`
	History      []HistoryEntryResponse `json:"history"`
	LastError    string                 `json:"last_error,omitempty"`
	IsLoading    bool                   `json:"is_loading"`
	IsRefreshing bool                   `json:"is_refreshing"`
}

// SnapshotResponse is the JSON representation of an account snapshot.
type SnapshotResponse struct {
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	CardNumber   string `json:"card_number"`
	BalanceCents int64  `json:"balance_cents"`
	CardStatus   string `json:"card_status"`
}

// HistoryEntryResponse is the JSON representation of a single transaction.
type HistoryEntryResponse struct {
	Date               string `json:"date"`
	Type               string `json:"type"`
	BalanceChangeCents int64  `json:"balance_change_cents"`
}

// CredentialRequest is the JSON body for the credential update endpoint.
type CredentialRequest struct {
	CardNumber string `json:"card_number"`
	Password   string `json:"password"`
}

// AccountUpdateRequest is the JSON body for the account update endpoint.
type AccountUpdateRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// ConnectivityResponse is the JSON representation of the ping probe result.
type ConnectivityResponse struct {
	Reachable bool   `json:"reachable"`
	Error     string `json:"error,omitempty"`
}

// HealthResponse is the JSON representation of the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
	Time   string `json:"time"`
}

// toStateResponse converts the controller state to its JSON representation.
func toStateResponse(state application.FetchState) StateResponse {
	resp := StateResponse{
		History:      make([]HistoryEntryResponse, 0, len(state.History)),
		LastError:    state.LastError,
		IsLoading:    state.IsLoading,
		IsRefreshing: state.IsRefreshing,
	}

	if state.Account != nil {
		snap := toSnapshotResponse(*state.Account)
		resp.Account = &snap
	}
	for _, entry := range state.History {
		resp.History = append(resp.History, toHistoryEntryResponse(entry))
	}

	return resp
}

// toSnapshotResponse converts a domain snapshot to its JSON representation.
func toSnapshotResponse(snapshot model.AccountSnapshot) SnapshotResponse {
	return SnapshotResponse{
		FirstName:    snapshot.Account.FirstName,
		LastName:     snapshot.Account.LastName,
		Email:        snapshot.Account.Email,
		Phone:        snapshot.Account.Phone,
		CardNumber:   snapshot.Card.Number,
		BalanceCents: snapshot.Card.BalanceCents,
		CardStatus:   snapshot.Card.Status,
	}
}

// toHistoryEntryResponse converts a domain history entry to its JSON representation.
func toHistoryEntryResponse(entry model.HistoryEntry) HistoryEntryResponse {
	return HistoryEntryResponse{
		Date:               entry.Date,
		Type:               entry.Type,
		BalanceChangeCents: entry.BalanceChangeCents,
	}
}
