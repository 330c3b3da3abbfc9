// Package fareapi implements the FareClient port against the transit fare
// account REST API: Basic-Auth request signing, a redirect-preserving
// transport, and envelope decoding.
package fareapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/farepanel/farepanel/internal/domain/model"
	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

// defaultBaseURL is the production base path of the fare account API.
const defaultBaseURL = "https://account.transitfare.example/api/v2/"

// Compile-time interface satisfaction check.
var _ driven.FareClient = (*Client)(nil)

// Client is a credential-scoped client for the fare account API. One
// instance per credential; swapping credentials means building a new
// Client. The underlying http.Client is stateless per call and safe for
// unlimited concurrent requests.
type Client struct {
	cred model.Credential
	base *url.URL
	http *http.Client
}

// NewClient creates a Client for the given credential. baseURL overrides
// the production base path when non-empty. Fails with
// driven.ErrAuthInputInvalid when the credential is empty after trimming.
func NewClient(cred model.Credential, baseURL string) (*Client, error) {
	return NewClientWithHTTPClient(cred, baseURL, newHTTPClient())
}

// NewClientWithHTTPClient creates a Client with a caller-supplied
// http.Client. This constructor is intended for testing, allowing
// injection of an httptest server's client.
func NewClientWithHTTPClient(cred model.Credential, baseURL string, httpClient *http.Client) (*Client, error) {
	if !cred.IsValid() {
		return nil, driven.ErrAuthInputInvalid
	}

	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}

	return &Client{
		cred: cred,
		base: base,
		http: httpClient,
	}, nil
}

// Authenticate probes the auth endpoint with the client's credential.
func (c *Client) Authenticate(ctx context.Context) error {
	status, body, err := c.execute(ctx, RequestDescriptor{Method: http.MethodPost, Path: "auth"})
	if err != nil {
		return err
	}
	return decodeAuthProbe(status, body)
}

// FetchAccount retrieves the account and card details.
func (c *Client) FetchAccount(ctx context.Context) (model.AccountSnapshot, error) {
	status, body, err := c.execute(ctx, RequestDescriptor{Method: http.MethodGet, Path: "account"})
	if err != nil {
		return model.AccountSnapshot{}, err
	}
	return decodeEnvelope[model.AccountSnapshot](status, body)
}

// UpdateAccount submits changed account details and returns the server's
// updated snapshot.
func (c *Client) UpdateAccount(ctx context.Context, update model.AccountUpdate) (model.AccountSnapshot, error) {
	payload, err := json.Marshal(struct {
		Account model.AccountUpdate `json:"account"`
	}{Account: update})
	if err != nil {
		return model.AccountSnapshot{}, fmt.Errorf("marshaling account update: %w", err)
	}

	status, body, err := c.execute(ctx, RequestDescriptor{Method: http.MethodPut, Path: "account", Body: payload})
	if err != nil {
		return model.AccountSnapshot{}, err
	}
	return decodeEnvelope[model.AccountSnapshot](status, body)
}

// FetchHistory retrieves the transaction history feed. Entries keep the
// server's order.
func (c *Client) FetchHistory(ctx context.Context) ([]model.HistoryEntry, error) {
	status, body, err := c.execute(ctx, RequestDescriptor{Method: http.MethodGet, Path: "history"})
	if err != nil {
		return nil, err
	}
	return decodeEnvelope[[]model.HistoryEntry](status, body)
}

// Ping checks reachability of the API. Any response with a status below
// 500 counts as reachable; the body is ignored.
func (c *Client) Ping(ctx context.Context) error {
	status, _, err := c.execute(ctx, RequestDescriptor{Method: http.MethodGet, Path: "ping"})
	if err != nil {
		return err
	}
	if status >= http.StatusInternalServerError {
		return &driven.ServerError{Status: status}
	}
	return nil
}

// execute signs and performs one request, returning the raw status code
// and body for the decoder. Transport failures are classified onto the
// TransportError taxonomy.
func (c *Client) execute(ctx context.Context, desc RequestDescriptor) (int, []byte, error) {
	req, err := Sign(ctx, c.cred, c.base, desc)
	if err != nil {
		return 0, nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, classifyTransportError(err)
	}

	slog.Debug("fare api call",
		"method", desc.Method,
		"path", desc.Path,
		"status", resp.StatusCode,
		"bytes", len(body),
	)

	return resp.StatusCode, body, nil
}
