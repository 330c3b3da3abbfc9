// Package application contains use-case orchestration: the retry wrapper,
// the dual-fetch orchestrator, the presentation-state controller, and the
// background refresh loop.
package application

import (
	"context"
	"errors"

	"github.com/farepanel/farepanel/internal/domain/model"
)

// ErrNoCredential is the local configuration error reported when an
// operation needs a signed-in client and none is configured. It never
// reaches the transport.
var ErrNoCredential = errors.New("no credential configured")

// Fetcher is the orchestrator seam the controller depends on.
type Fetcher interface {
	FetchAccountAndHistory(ctx context.Context) (model.AccountSnapshot, []model.HistoryEntry, error)
}

// FetchService runs the account and history fetches as a single
// all-or-nothing unit.
type FetchService struct {
	provider *ClientProvider
}

// Compile-time interface satisfaction check.
var _ Fetcher = (*FetchService)(nil)

// NewFetchService creates a FetchService reading its client from provider.
func NewFetchService(provider *ClientProvider) *FetchService {
	return &FetchService{provider: provider}
}

// FetchAccountAndHistory launches the account fetch and the history fetch
// concurrently, each retry-wrapped and each detached from the caller's
// cancellation scope: tearing down the scope that started the call (a
// pull-to-refresh gesture, a navigation event) must not cancel a fetch a
// different caller is still awaiting. The join awaits both completions;
// caller cancellation abandons the await while the legs run to their
// natural end into buffered channels. If either leg fails, the call fails
// with that error once the other leg has also completed, and the
// sibling's successful result is discarded.
func (s *FetchService) FetchAccountAndHistory(ctx context.Context) (model.AccountSnapshot, []model.HistoryEntry, error) {
	client := s.provider.Get()
	if client == nil {
		return model.AccountSnapshot{}, nil, ErrNoCredential
	}

	detached := context.WithoutCancel(ctx)

	type accountResult struct {
		snapshot model.AccountSnapshot
		err      error
	}
	type historyResult struct {
		entries []model.HistoryEntry
		err     error
	}

	accountCh := make(chan accountResult, 1)
	historyCh := make(chan historyResult, 1)

	go func() {
		snapshot, err := WithRetry(detached, client.FetchAccount)
		accountCh <- accountResult{snapshot: snapshot, err: err}
	}()
	go func() {
		entries, err := WithRetry(detached, client.FetchHistory)
		historyCh <- historyResult{entries: entries, err: err}
	}()

	var (
		account     accountResult
		history     historyResult
		accountDone bool
		historyDone bool
	)
	for !accountDone || !historyDone {
		select {
		case account = <-accountCh:
			accountDone = true
		case history = <-historyCh:
			historyDone = true
		case <-ctx.Done():
			return model.AccountSnapshot{}, nil, ctx.Err()
		}
	}

	if account.err != nil {
		return model.AccountSnapshot{}, nil, account.err
	}
	if history.err != nil {
		return model.AccountSnapshot{}, nil, history.err
	}

	return account.snapshot, history.entries, nil
}
