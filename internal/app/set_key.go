package app

import (
	"context"

	"swissdox-cli/internal/config"
)

func RunSetKey(_ context.Context, key, secret string) error {
	return config.SaveCredentials(config.Credentials{Key: key, Secret: secret})
}
