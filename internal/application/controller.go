package application

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/farepanel/farepanel/internal/domain/model"
	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

// FetchState is the presentation-facing view of the fare account.
// LastError is only ever set while Account is absent: once a snapshot has
// been shown, later failures never blank the screen.
type FetchState struct {
	Account      *model.AccountSnapshot
	History      []model.HistoryEntry
	LastError    string
	IsLoading    bool
	IsRefreshing bool
}

// ClientFactory builds a credential-scoped fare client. The composition
// root supplies one closing over the configured base URL.
type ClientFactory func(cred model.Credential) (driven.FareClient, error)

// AccountController owns the last-known-good account view and decides
// whether a fetch failure may disturb it. All state mutation happens under
// one mutex, and only on completion of a fetch: the most recently
// completed invocation wins.
type AccountController struct {
	mu        sync.Mutex
	fetcher   Fetcher
	provider  *ClientProvider
	store     driven.CredentialStore // may be nil when persistence is disabled
	newClient ClientFactory
	state     FetchState
}

// NewAccountController creates a controller. store may be nil to run
// without credential persistence.
func NewAccountController(fetcher Fetcher, provider *ClientProvider, store driven.CredentialStore, newClient ClientFactory) *AccountController {
	return &AccountController{
		fetcher:   fetcher,
		provider:  provider,
		store:     store,
		newClient: newClient,
	}
}

// Load performs the initial fetch: sets IsLoading, clears LastError, and
// populates the view on success.
func (c *AccountController) Load(ctx context.Context) {
	c.run(ctx, false)
}

// Refresh re-fetches behind an already-populated view: sets IsRefreshing
// and never replaces shown data with an error.
func (c *AccountController) Refresh(ctx context.Context) {
	c.run(ctx, true)
}

func (c *AccountController) run(ctx context.Context, refreshing bool) {
	c.mu.Lock()
	if !c.provider.HasClient() {
		// Local configuration error; the transport is never touched.
		if c.state.Account == nil {
			c.state.LastError = ErrNoCredential.Error()
		}
		c.mu.Unlock()
		return
	}
	if refreshing {
		c.state.IsRefreshing = true
	} else {
		c.state.IsLoading = true
		c.state.LastError = ""
	}
	c.mu.Unlock()

	// Cleared on every exit path: success, suppressed failure, cancellation.
	defer func() {
		c.mu.Lock()
		c.state.IsLoading = false
		c.state.IsRefreshing = false
		c.mu.Unlock()
	}()

	snapshot, history, err := c.fetcher.FetchAccountAndHistory(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case err == nil:
		// Both halves come from the same orchestrator call and are
		// replaced together; partial updates across calls never mix.
		c.state.Account = &snapshot
		c.state.History = history
		c.state.LastError = ""
	case errors.Is(err, context.Canceled) && !driven.IsTransportCancelled(err):
		// Benign caller-driven cancellation: no error, no state change.
		// A transport-level cancellation that survived the single retry
		// is a real failure and falls through to the branches below.
	case c.state.Account == nil:
		c.state.LastError = err.Error()
		slog.Warn("account load failed", "error", err)
	default:
		// Stale-data-preserving policy: a transient failure behind a
		// populated view is absorbed without a trace in the state.
		slog.Warn("account refresh failed, keeping last-known-good view", "error", err)
	}
}

// State returns a copy of the current view.
func (c *AccountController) State() FetchState {
	c.mu.Lock()
	defer c.mu.Unlock()

	state := c.state
	if c.state.Account != nil {
		snapshot := *c.state.Account
		state.Account = &snapshot
	}
	state.History = cloneHistory(c.state.History)
	return state
}

// UpdateCredential validates the credential, probes it against the auth
// endpoint, persists it, and hot-swaps the client. The previous client
// stays active if any step fails.
func (c *AccountController) UpdateCredential(ctx context.Context, cred model.Credential) error {
	if !cred.IsValid() {
		return driven.ErrAuthInputInvalid
	}

	client, err := c.newClient(cred)
	if err != nil {
		return err
	}
	if err := c.Authenticate(ctx, client); err != nil {
		return err
	}

	if c.store != nil {
		if err := c.store.Save(ctx, cred); err != nil {
			if !errors.Is(err, driven.ErrEncryptionKeyNotSet) {
				return err
			}
			slog.Warn("credential not persisted, encryption key missing")
		}
	}

	c.provider.Replace(client)
	return nil
}

// Authenticate runs the auth probe with a retry wrap, so a transient
// session cancellation during sign-in does not bounce the user.
func (c *AccountController) Authenticate(ctx context.Context, client driven.FareClient) error {
	_, err := WithRetry(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, client.Authenticate(ctx)
	})
	return err
}

// ClearCredential signs out: deletes the stored credential, drops the
// client, and resets the view.
func (c *AccountController) ClearCredential(ctx context.Context) error {
	if c.store != nil {
		if err := c.store.Delete(ctx); err != nil {
			return err
		}
	}
	c.provider.Replace(nil)

	c.mu.Lock()
	c.state = FetchState{}
	c.mu.Unlock()
	return nil
}

func cloneHistory(entries []model.HistoryEntry) []model.HistoryEntry {
	if len(entries) == 0 {
		return nil
	}
	dup := make([]model.HistoryEntry, len(entries))
	copy(dup, entries)
	return dup
}
