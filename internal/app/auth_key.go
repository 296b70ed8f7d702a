package app

import (
	"errors"
	"fmt"

	"swissdox-cli/internal/config"
)

func loadCredentialsForRun() (config.Credentials, error) {
	creds, err := config.LoadCredentials()
	if err != nil {
		if errors.Is(err, config.ErrCredentialsNotConfigured) {
			return config.Credentials{}, fmt.Errorf("API credentials are not configured, run\nswissdox-cli set key <API_KEY> <API_SECRET>\nor export %s and %s", config.APIKeyEnvName, config.APISecretEnvName)
		}
		return config.Credentials{}, err
	}
	return creds, nil
}
