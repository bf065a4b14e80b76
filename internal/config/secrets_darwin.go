//go:build darwin

package config

import (
	"fmt"
	"os/exec"
	"strings"
)

// keychainStore reads and writes generic passwords through the `security` CLI.
type keychainStore struct{}

func newSecretStore() SecretStore {
	return keychainStore{}
}

func (keychainStore) Get(service, account string) (string, error) {
	out, err := exec.Command("security", "find-generic-password", "-s", service, "-a", account, "-w").Output()
	if err != nil {
		return "", fmt.Errorf("reading keychain item %s/%s: %w", service, account, err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Set creates the item or updates it in place (-U).
func (keychainStore) Set(service, account, value string) error {
	out, err := exec.Command("security", "add-generic-password", "-U", "-s", service, "-a", account, "-w", value).CombinedOutput()
	if err != nil {
		return fmt.Errorf("writing keychain item: %w, output: %s", err, out)
	}
	return nil
}
