package observability

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/complaint-service/internal/config"
)

// NewLogger creates a structured zap.Logger configured via env settings.
func NewLogger(cfg config.LoggerConfig, service string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if err := level.Set(strings.ToLower(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.Config{
		Level:       zap.NewAtomicLevelAt(level),
		Development: false,
		Encoding:    "json",
		EncoderConfig: zapcore.EncoderConfig{
			MessageKey: "message",
			LevelKey:   "level",
			TimeKey:    "ts",
			EncodeLevel: func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
				enc.AppendString(l.String())
			},
			EncodeTime: zapcore.ISO8601TimeEncoder,
		},
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	if service != "" {
		logger = logger.With(zap.String("service", service))
	}
	return logger, nil
}

// Field keys shared by the intake and consumer sides so one ticket can be
// followed across both services.
const (
	CorrelationIDKey = "correlation_id"
	TicketIDKey      = "ticket_id"
)

// WithCorrelation scopes logger to a single message. An empty id is logged as "unknown".
func WithCorrelation(logger *zap.Logger, correlationID string) *zap.Logger {
	if correlationID == "" {
		correlationID = "unknown"
	}
	return logger.With(zap.String(CorrelationIDKey, correlationID))
}

// WithTicket adds the ticket id to a message-scoped logger.
func WithTicket(logger *zap.Logger, ticketID string) *zap.Logger {
	return logger.With(zap.String(TicketIDKey, ticketID))
}
