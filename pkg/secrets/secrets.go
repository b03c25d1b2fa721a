// Package secrets resolves switch passwords from a YAML secrets file.
//
// The secrets file maps controller names and usernames to passwords:
//
//	dli:
//	  <controller-name>:
//	    <user>: <password>
//
// and defaults to ~/.secrets.yaml.
package secrets

import (
	"errors"
	"fmt"
	"os"

	homedir "github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultSecretsFile is the secrets file used when no password is given.
const DefaultSecretsFile = "~/.secrets.yaml"

// ErrCredentialNotFound is returned when an explicitly given secrets file
// has no entry for the requested controller and user.
var ErrCredentialNotFound = errors.New("cannot find password file or user data")

type secretsFile struct {
	DLI map[string]map[string]any `yaml:"dli"`
}

// Resolve returns the plaintext password for a controller. The password
// argument is either the literal password or a path to a YAML secrets file
// holding it under dli.<name>.<user>; an empty password defaults to
// DefaultSecretsFile.
//
// When no file exists at the (home-expanded) path, the argument is used
// verbatim as the password. When a file exists but has no matching entry,
// an explicitly given path fails with ErrCredentialNotFound while the
// default path falls back to the literal string. The asymmetry is kept for
// compatibility with existing deployments.
func Resolve(name, user, password string) (string, error) {
	usedDefault := false
	if password == "" {
		password = DefaultSecretsFile
		usedDefault = true
	}

	path, err := homedir.Expand(password)
	if err != nil {
		return "", fmt.Errorf("failed to expand secrets path: %w", err)
	}

	fi, err := os.Stat(path)
	if err != nil || fi.IsDir() {
		// Not a file; the argument is the password itself.
		return password, nil
	}

	secret, found, err := lookupSecret(path, name, user)
	if err != nil {
		return "", err
	}
	if found {
		return secret, nil
	}
	if !usedDefault {
		return "", ErrCredentialNotFound
	}
	return password, nil
}

// lookupSecret reads the secrets file and returns the dli.<name>.<user>
// entry, reporting whether one was present.
func lookupSecret(path, name, user string) (string, bool, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", false, fmt.Errorf("failed to read secrets file %s: %w", path, err)
	}

	var data secretsFile
	if err := yaml.Unmarshal(b, &data); err != nil {
		return "", false, fmt.Errorf("failed to parse secrets file %s: %w", path, err)
	}

	value, ok := data.DLI[name][user]
	if !ok || value == nil {
		return "", false, nil
	}
	// YAML scalars are not necessarily strings; a numeric password is
	// still a valid password.
	return fmt.Sprint(value), true, nil
}
