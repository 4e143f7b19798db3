package secrets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"
)

const (
	// Service groups this app's secrets in the OS keychain.
	Service = "rhwatch"

	passwordAccountPrefix = "rhwatch:login:"
)

// Credentials is the login pair for the job-board account.
type Credentials struct {
	Username string
	Password string
}

// Resolve returns login credentials, preferring the OS keychain over the
// config-supplied fallback. The keychain entry is keyed by username, so the
// config must at least name the account.
func Resolve(username, fallbackPassword string) (Credentials, error) {
	if strings.TrimSpace(username) == "" {
		return Credentials{}, errors.New("login username is not configured")
	}

	if pw, err := keyring.Get(Service, passwordAccount(username)); err == nil && strings.TrimSpace(pw) != "" {
		return Credentials{Username: username, Password: pw}, nil
	}

	if strings.TrimSpace(fallbackPassword) != "" {
		return Credentials{Username: username, Password: fallbackPassword}, nil
	}
	return Credentials{}, fmt.Errorf("no password for %s (set one with the creds command or in config)", username)
}

// SetPassword stores the password for the given account in the OS keychain.
func SetPassword(username, password string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is empty")
	}
	if strings.TrimSpace(password) == "" {
		return errors.New("password is empty")
	}
	return keyring.Set(Service, passwordAccount(username), password)
}

// DeletePassword removes the stored password for the given account.
func DeletePassword(username string) error {
	if strings.TrimSpace(username) == "" {
		return errors.New("username is empty")
	}
	return keyring.Delete(Service, passwordAccount(username))
}

func passwordAccount(username string) string {
	return passwordAccountPrefix + username
}
