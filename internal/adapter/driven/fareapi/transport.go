package fareapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

const (
	connectTimeout = 10 * time.Second
	requestTimeout = 30 * time.Second
	maxRedirects   = 10
)

// newHTTPClient builds the client used for all fare API requests:
// a finite connect timeout on the dialer, a finite total-request timeout
// on the client, no caching layer, and a redirect hook that keeps
// redirected requests signed.
func newHTTPClient() *http.Client {
	return &http.Client{
		Timeout: requestTimeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			DialContext:         (&net.Dialer{Timeout: connectTimeout}).DialContext,
			TLSHandshakeTimeout: connectTimeout,
		},
		CheckRedirect: preserveSignedHeaders,
	}
}

// preserveSignedHeaders re-attaches the original request's Authorization
// and User-Agent headers before a redirect is followed. net/http strips
// Authorization when a redirect crosses hosts, and the fare API redirects
// as part of its normal workflow, so a redirected request without both
// headers is a defect.
func preserveSignedHeaders(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("stopped after %d redirects", maxRedirects)
	}

	origin := via[0]
	for _, name := range []string{"Authorization", "User-Agent"} {
		if v := origin.Header.Get(name); v != "" {
			req.Header.Set(name, v)
		}
	}
	return nil
}

// classifyTransportError maps an http.Client failure onto the transport
// error taxonomy: cancelled, timeout, or connection failure.
func classifyTransportError(err error) *driven.TransportError {
	switch {
	case errors.Is(err, context.Canceled):
		return &driven.TransportError{Kind: driven.TransportCancelled, Err: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &driven.TransportError{Kind: driven.TransportTimeout, Err: err}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return &driven.TransportError{Kind: driven.TransportTimeout, Err: err}
	}

	return &driven.TransportError{Kind: driven.TransportConnectionFailed, Err: err}
}
