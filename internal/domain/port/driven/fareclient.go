// Package driven defines the driven ports: interfaces the application
// core depends on, implemented by adapters.
package driven

import (
	"context"

	"github.com/farepanel/farepanel/internal/domain/model"
)

// FareClient defines the driven port for the remote fare account API.
// A client is scoped to a single credential; swapping credentials means
// swapping the client instance.
type FareClient interface {
	// Authenticate probes the auth endpoint. A nil return means the
	// credential was accepted; a rejected credential surfaces as
	// ErrAuthenticationFailed from the adapter.
	Authenticate(ctx context.Context) error

	// FetchAccount retrieves the account and card details.
	FetchAccount(ctx context.Context) (model.AccountSnapshot, error)

	// UpdateAccount submits changed account details and returns the
	// server's updated snapshot.
	UpdateAccount(ctx context.Context, update model.AccountUpdate) (model.AccountSnapshot, error)

	// FetchHistory retrieves the transaction history feed in server order.
	FetchHistory(ctx context.Context) ([]model.HistoryEntry, error)

	// Ping checks reachability of the API. Any response with a status
	// below 500 counts as reachable.
	Ping(ctx context.Context) error
}
