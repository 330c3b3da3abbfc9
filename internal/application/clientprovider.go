package application

import (
	"sync"

	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

// ClientProvider holds the current credential-scoped fare client behind a
// mutex so a credential update can swap it at runtime without restarting
// the daemon. A nil client means no usable credential is configured.
type ClientProvider struct {
	mu     sync.RWMutex
	client driven.FareClient
}

// NewClientProvider creates a provider with the given initial client.
// client may be nil when no credential is available at startup.
func NewClientProvider(client driven.FareClient) *ClientProvider {
	return &ClientProvider{client: client}
}

// Get returns the current client. Callers must check for nil when the
// provider may have been created without a credential.
func (p *ClientProvider) Get() driven.FareClient {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client
}

// Replace swaps the current client. The next caller of Get receives the
// new value. Passing nil signs the daemon out.
func (p *ClientProvider) Replace(client driven.FareClient) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.client = client
}

// HasClient returns true if a non-nil client is currently held.
func (p *ClientProvider) HasClient() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.client != nil
}
