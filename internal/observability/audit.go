package observability

import (
	"go.uber.org/zap"
)

// NewAuditLogger writes JSON lines to path. An empty path yields a no-op logger.
func NewAuditLogger(path string) (*zap.Logger, error) {
	if path == "" {
		return zap.NewNop(), nil
	}
	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.Sampling = nil
	cfg.DisableCaller = true
	cfg.DisableStacktrace = true
	return cfg.Build()
}
