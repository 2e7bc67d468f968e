package logging

import (
	"go.uber.org/zap"
)

// NewLogger creates a new structured logger
func NewLogger(serviceName string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.InitialFields = map[string]interface{}{
		"service": serviceName,
	}

	return cfg.Build()
}

// WithGSRN returns a logger with the metering point identifier attached
func WithGSRN(logger *zap.Logger, gsrn string) *zap.Logger {
	return logger.With(zap.String("gsrn", gsrn))
}
