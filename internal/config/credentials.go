package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"swissdox-cli/internal/util"
)

const (
	APIKeyEnvName    = "SWISSDOX_API_KEY"
	APISecretEnvName = "SWISSDOX_API_SECRET"

	apiKeyHeader    = "X-API-Key"
	apiSecretHeader = "X-API-Secret"
)

var ErrCredentialsNotConfigured = errors.New("swissdox_credentials_not_configured")

// Credentials carries the API key pair. Header satisfies client.Credentials.
type Credentials struct {
	Key    string
	Secret string
}

func (c Credentials) Header() http.Header {
	h := http.Header{}
	h.Set(apiKeyHeader, c.Key)
	h.Set(apiSecretHeader, c.Secret)
	return h
}

// LoadCredentials reads the key pair from the process environment, falling back to the
// app .env file.
func LoadCredentials() (Credentials, error) {
	c := Credentials{
		Key:    strings.TrimSpace(os.Getenv(APIKeyEnvName)),
		Secret: strings.TrimSpace(os.Getenv(APISecretEnvName)),
	}
	if c.Key != "" && c.Secret != "" {
		return c, nil
	}
	p, err := util.DefaultEnvPath()
	if err != nil {
		return Credentials{}, err
	}
	env, err := godotenv.Read(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Credentials{}, ErrCredentialsNotConfigured
		}
		return Credentials{}, fmt.Errorf("read .env: %w", err)
	}
	if c.Key == "" {
		c.Key = strings.TrimSpace(env[APIKeyEnvName])
	}
	if c.Secret == "" {
		c.Secret = strings.TrimSpace(env[APISecretEnvName])
	}
	if c.Key == "" || c.Secret == "" {
		return Credentials{}, ErrCredentialsNotConfigured
	}
	return c, nil
}

// SaveCredentials writes the key pair into the app .env file, keeping other entries.
func SaveCredentials(c Credentials) error {
	if strings.TrimSpace(c.Key) == "" || strings.TrimSpace(c.Secret) == "" {
		return fmt.Errorf("api key and secret must not be empty")
	}
	p, err := util.DefaultEnvPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	env, err := godotenv.Read(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("read .env: %w", err)
		}
		env = map[string]string{}
	}
	env[APIKeyEnvName] = strings.TrimSpace(c.Key)
	env[APISecretEnvName] = strings.TrimSpace(c.Secret)
	if err := godotenv.Write(env, p); err != nil {
		return fmt.Errorf("write .env: %w", err)
	}
	return os.Chmod(p, 0o600)
}
