//go:build !darwin

package config

import "fmt"

func secretsPath() string {
	return userPath("XDG_DATA_HOME", ".local/share", "secrets.json")
}

// secretsFile stands in for Keychain off macOS: a 0600 JSON file mapping
// service -> account -> secret.
type secretsFile struct {
	path string
}

func newSecretStore() SecretStore {
	return secretsFile{path: secretsPath()}
}

func (f secretsFile) load() (map[string]map[string]string, error) {
	var secrets map[string]map[string]string
	found, err := readJSONFile(f.path, &secrets)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("no secrets file at %s", f.path)
	}
	return secrets, nil
}

func (f secretsFile) Get(service, account string) (string, error) {
	secrets, err := f.load()
	if err != nil {
		return "", err
	}
	val, ok := secrets[service][account]
	if !ok {
		return "", fmt.Errorf("no secret for %s/%s", service, account)
	}
	return val, nil
}

func (f secretsFile) Set(service, account, value string) error {
	secrets, err := f.load()
	if err != nil || secrets == nil {
		secrets = make(map[string]map[string]string)
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = value
	return writeJSONFile(f.path, secrets)
}
