// Package auth builds the Authorization header sent to the daemon.
package auth

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/lydakis/monitctl/internal/config"
	"github.com/zalando/go-keyring"
)

// KeyringService is the OS keyring service name passwords are stored under.
const KeyringService = "monitctl"

var keyringGetFn = keyring.Get

// Header returns a ready-to-send "Authorization: Basic ..." header line
// (without CRLF) for the first usable credential, or "" when there is none.
//
// A keyring-backed credential whose entry is missing is skipped; any other
// keyring failure is returned.
func Header(creds []config.Credential) (string, error) {
	for _, cred := range creds {
		user := strings.TrimSpace(cred.Username)
		if user == "" {
			continue
		}

		password := cred.Password
		if cred.Keyring {
			secret, err := keyringGetFn(KeyringService, user)
			if err != nil {
				if errors.Is(err, keyring.ErrNotFound) {
					continue
				}
				return "", fmt.Errorf("reading keyring password for %s: %w", user, err)
			}
			password = secret
		}

		return Basic(user, password), nil
	}
	return "", nil
}

// Basic formats a basic-auth header line for user and password.
func Basic(user, password string) string {
	token := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
	return "Authorization: Basic " + token
}
