// Package config carries shared CLI configuration through the cobra
// command context.
package config

import (
	"context"

	"github.com/wallacemaster800-spec/acameria-academy/cmd/academyctl/internal/client"
)

type contextKey string

const configKey contextKey = "academyctl-config"

// GlobalConfig holds shared configuration for all academyctl commands.
// The root command injects it into the context in PersistentPreRun.
type GlobalConfig struct {
	ServerURL string
	Provider  *client.Provider
}

// InjectConfig adds config to the cobra command context.
func InjectConfig(ctx context.Context, cfg *GlobalConfig) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

// FromContext retrieves config from the cobra command context.
func FromContext(ctx context.Context) (*GlobalConfig, bool) {
	cfg, ok := ctx.Value(configKey).(*GlobalConfig)
	return cfg, ok
}

// MustFromContext retrieves config from context or panics. Only for use
// in RunE functions below the root command.
func MustFromContext(ctx context.Context) *GlobalConfig {
	cfg, ok := FromContext(ctx)
	if !ok {
		panic("academyctl: config not found in context - this is a bug in academyctl")
	}
	return cfg
}
