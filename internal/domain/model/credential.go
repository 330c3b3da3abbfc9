package model

import (
	"encoding/base64"
	"strings"
)

// Credential holds the card number and password used to authenticate
// against the fare account API. Both fields must be non-empty after
// trimming for the credential to be usable; an invalid credential must
// never reach the transport.
type Credential struct {
	CardNumber string
	Password   string
}

// IsValid reports whether both fields are non-empty after trimming whitespace.
func (c Credential) IsValid() bool {
	return strings.TrimSpace(c.CardNumber) != "" && strings.TrimSpace(c.Password) != ""
}

// BasicToken returns the Basic-Auth token derived from the credential:
// base64(cardNumber:password). The token is derived on demand and never
// stored independently.
func (c Credential) BasicToken() string {
	return base64.StdEncoding.EncodeToString([]byte(c.CardNumber + ":" + c.Password))
}
