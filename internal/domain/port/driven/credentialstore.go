package driven

import (
	"context"
	"errors"

	"github.com/farepanel/farepanel/internal/domain/model"
)

// ErrEncryptionKeyNotSet is returned by CredentialStore operations when
// FAREPANEL_SECRET_KEY has not been configured.
var ErrEncryptionKeyNotSet = errors.New("encryption key not configured: set FAREPANEL_SECRET_KEY")

// CredentialStore defines the driven port for persisting the fare account
// credential. The adapter layer is responsible for encrypting the
// password at rest; this interface operates on plaintext values at the
// domain boundary.
type CredentialStore interface {
	// Current retrieves the stored credential. Returns (nil, nil) when no
	// credential has been saved.
	Current(ctx context.Context) (*model.Credential, error)

	// Save stores or replaces the credential.
	Save(ctx context.Context, cred model.Credential) error

	// Delete removes the stored credential. Deleting an absent credential
	// is not an error.
	Delete(ctx context.Context) error
}
