package fareapi

import (
	"encoding/json"
	"net/http"

	"github.com/farepanel/farepanel/internal/domain/port/driven"
)

// envelope is the {success, data, errors} wrapper used by every endpoint
// except the auth probe.
type envelope[T any] struct {
	Success bool            `json:"success"`
	Data    *T              `json:"data"`
	Errors  []envelopeError `json:"errors"`
}

type envelopeError struct {
	Message string `json:"message"`
}

// decodeEnvelope interprets a non-probe response. Rules, in order:
// 401 fails with ErrAuthenticationFailed regardless of body; any other
// non-2xx fails with ServerError(status); an envelope with success=false
// fails with ServerError carrying errors[0].message; success=true without
// data fails with ErrInvalidResponse; otherwise the data is returned.
func decodeEnvelope[T any](status int, body []byte) (T, error) {
	var zero T

	if status == http.StatusUnauthorized {
		return zero, driven.ErrAuthenticationFailed
	}
	if status < 200 || status > 299 {
		return zero, &driven.ServerError{Status: status}
	}

	var env envelope[T]
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, &driven.DecodeError{Err: err}
	}

	if !env.Success {
		var msg string
		if len(env.Errors) > 0 {
			msg = env.Errors[0].Message
		}
		return zero, &driven.ServerError{Status: status, Message: msg}
	}
	if env.Data == nil {
		return zero, driven.ErrInvalidResponse
	}

	return *env.Data, nil
}

// decodeAuthProbe interprets the auth endpoint's degenerate envelope,
// which carries data=null even on success. The branch is keyed on the
// destination endpoint, never on payload shape: anything other than a
// top-level success=true is an authentication failure.
func decodeAuthProbe(status int, body []byte) error {
	if status == http.StatusUnauthorized {
		return driven.ErrAuthenticationFailed
	}
	if status < 200 || status > 299 {
		return &driven.ServerError{Status: status}
	}

	var probe struct {
		Success *bool `json:"success"`
	}
	if err := json.Unmarshal(body, &probe); err != nil {
		return &driven.DecodeError{Err: err}
	}
	if probe.Success == nil || !*probe.Success {
		return driven.ErrAuthenticationFailed
	}

	return nil
}
