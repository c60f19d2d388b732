// Package logging builds the process logger and scrubs credentials from
// anything that gets logged.
package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// NewLogger builds the root zap logger. Production environments get JSON
// output at info level; anything else gets the development console
// encoder with debug enabled.
func NewLogger(env string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}
