// Package logging builds the zap loggers used by discovery and the CLI.
package logging

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"meshplan/internal/domain"
)

// New creates a logger for the given level and format ("console" or "json").
// Logs go to stderr so command output on stdout stays machine readable.
func New(level, format string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var config zap.Config
	switch format {
	case "json":
		config = zap.NewProductionConfig()
	case "console", "":
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.DisableStacktrace = true
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	config.Level = zap.NewAtomicLevelAt(lvl)
	config.OutputPaths = []string{"stderr"}
	config.ErrorOutputPaths = []string{"stderr"}

	logger, err := config.Build(zap.AddCaller())
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// ErrorFields returns structured fields describing err. Planning errors
// carry their kind and the node IDs involved.
func ErrorFields(err error) []zap.Field {
	if err == nil {
		return nil
	}

	fields := []zap.Field{zap.Error(err)}
	var planErr *domain.Error
	if errors.As(err, &planErr) {
		fields = append(fields, zap.String("error_kind", string(planErr.Kind)))
		if len(planErr.NodeIDs) > 0 {
			fields = append(fields, zap.Strings("nodes", planErr.NodeIDs))
		}
	}
	return fields
}

// WarningFields returns structured fields for a planning warning
func WarningFields(w domain.Warning) []zap.Field {
	fields := []zap.Field{
		zap.String("kind", string(w.Kind)),
		zap.String("node", w.NodeID),
	}
	if w.Role != "" {
		fields = append(fields, zap.String("role", string(w.Role)))
	}
	if w.ExpectedUpstream != "" {
		fields = append(fields, zap.String("expected_upstream", string(w.ExpectedUpstream)))
	}
	if w.Detail != "" {
		fields = append(fields, zap.String("detail", w.Detail))
	}
	return fields
}
