package client

import (
	"fmt"

	"github.com/bodrovis/chimpex/utils"
)

const (
	EnvAPIKey  = "MAILCHIMP_API_KEY"
	EnvBaseURL = "MAILCHIMP_BASE_URL"
)

// NewClientFromEnv reads the key (and optional base URL) from the environment,
// loading a .env file first when one is found. opts are applied after the env.
func NewClientFromEnv(opts ...Option) (*Client, error) {
	_ = utils.LoadDotEnv() // no .env is fine

	key, err := utils.RequireEnv(EnvAPIKey)
	if err != nil {
		return nil, fmt.Errorf("client from env: %w", err)
	}
	if base := utils.GetEnv(EnvBaseURL, ""); base != "" {
		opts = append([]Option{WithBaseURL(base)}, opts...)
	}
	return NewClient(key, opts...)
}
