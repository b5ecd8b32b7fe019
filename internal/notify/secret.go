package notify

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	keyringService = "tracklet"
	keyringUser    = "webhook-secret"
)

var ErrNoSecret = errors.New("no webhook secret stored")

// WebhookSecret reads the webhook secret from the OS keyring.
func WebhookSecret() (string, error) {
	s, err := keyring.Get(keyringService, keyringUser)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", ErrNoSecret
	}
	if err != nil {
		return "", fmt.Errorf("read webhook secret: %w", err)
	}
	return s, nil
}

func SetWebhookSecret(secret string) error {
	if secret == "" {
		return errors.New("webhook secret cannot be empty")
	}
	if err := keyring.Set(keyringService, keyringUser, secret); err != nil {
		return fmt.Errorf("store webhook secret: %w", err)
	}
	return nil
}

func DeleteWebhookSecret() error {
	err := keyring.Delete(keyringService, keyringUser)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("delete webhook secret: %w", err)
	}
	return nil
}
