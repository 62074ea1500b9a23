package auth

import (
	"os"
	"time"
)

const (
	// TokenEnvVar holds a bearer token supplied through the environment
	TokenEnvVar = "CHATBACKUP_GRAPH_TOKEN"

	// EnvironmentName is the name the environment token is listed under
	EnvironmentName = "environment"
)

// EnvironmentStore is a read-only CredentialStore over TokenEnvVar
type EnvironmentStore struct{}

// NewEnvironmentStore creates a new environment-based credential store
func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(cred *Credential) error {
	return ErrStoreUnavailable
}

// Retrieve returns the environment token. Only the empty name and
// EnvironmentName resolve to it.
func (e *EnvironmentStore) Retrieve(name string) (*Credential, error) {
	if name != "" && name != EnvironmentName {
		return nil, ErrCredentialsNotFound
	}

	token := os.Getenv(TokenEnvVar)
	if token == "" {
		return nil, ErrCredentialsNotFound
	}

	return &Credential{
		Name:         EnvironmentName,
		Token:        token,
		LastModified: time.Now(),
	}, nil
}

// List returns the environment token when it is set
func (e *EnvironmentStore) List() ([]*Credential, error) {
	cred, err := e.Retrieve("")
	if err != nil {
		return []*Credential{}, nil
	}
	return []*Credential{cred}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(name string) error {
	return ErrStoreUnavailable
}

// Exists reports whether the environment token is set
func (e *EnvironmentStore) Exists(name string) bool {
	_, err := e.Retrieve(name)
	return err == nil
}
