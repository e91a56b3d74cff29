package application

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"homectl/internal/domain"
)

// ValidateEndpoint accepts absolute http(s) URLs with a host, e.g. http://192.168.1.100.
func ValidateEndpoint(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: please enter a valid endpoint", domain.ErrValidation)
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", fmt.Errorf("%w: please enter a valid URL (e.g., http://192.168.1.100), got %q", domain.ErrValidation, raw)
	}
	return raw, nil
}

// ConfigureEndpoint validates and persists the hub base URL.
func (c *Client) ConfigureEndpoint(ctx context.Context, raw string) (string, error) {
	endpoint, err := ValidateEndpoint(raw)
	if err != nil {
		return "", err
	}

	if err := c.endpoints.Configure(ctx, endpoint); err != nil {
		return "", fmt.Errorf("saving endpoint: %w", err)
	}

	c.logger.Info("hub endpoint configured", "endpoint", endpoint)
	if err := c.notifier.Notify(ctx, LevelSuccess, "API endpoint set to "+endpoint); err != nil {
		c.logger.Error("notifying endpoint change", "error", err)
	}
	return endpoint, nil
}

func (c *Client) Endpoint(ctx context.Context) string {
	return c.endpoints.Current(ctx)
}
