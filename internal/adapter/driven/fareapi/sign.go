package fareapi

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/farepanel/farepanel/internal/domain/model"
	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

// userAgent is the fixed client identity attached to every request.
const userAgent = "farepanel/1.0"

// RequestDescriptor describes a single API call before signing: the
// resource slug relative to the base URL, the HTTP method, and an
// optional JSON body.
type RequestDescriptor struct {
	Path   string
	Method string
	Body   []byte
}

// Sign builds an authenticated *http.Request from a credential and a
// request descriptor. It fails with driven.ErrAuthInputInvalid when either
// credential field is empty after trimming; no request is issued in that
// case. Sign has no side effects beyond allocating the request.
//
// The resource slug is preserved exactly apart from stripping a single
// leading slash: the server answers 405 on mismatched trailing slashes,
// so no separator is ever appended.
func Sign(ctx context.Context, cred model.Credential, base *url.URL, desc RequestDescriptor) (*http.Request, error) {
	if !cred.IsValid() {
		return nil, driven.ErrAuthInputInvalid
	}

	slug := strings.TrimPrefix(desc.Path, "/")
	target := base.JoinPath(slug)

	var body io.Reader
	if len(desc.Body) > 0 {
		body = bytes.NewReader(desc.Body)
	}

	req, err := http.NewRequestWithContext(ctx, desc.Method, target.String(), body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Basic "+cred.BasicToken())
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")
	// Balance is read-write server state; conditional requests and
	// response reuse must never serve a stale value.
	req.Header.Set("Cache-Control", "no-cache, no-store")
	req.Header.Set("Pragma", "no-cache")
	if len(desc.Body) > 0 {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}
