package observability

import "go.uber.org/zap"

// ZapLogSink implements LogSink over a *zap.Logger.
type ZapLogSink struct {
	logger *zap.Logger
}

// NewZapLogSink wraps an existing *zap.Logger.
func NewZapLogSink(logger *zap.Logger) *ZapLogSink {
	return &ZapLogSink{logger: logger}
}

func (z *ZapLogSink) Log(record LogRecord) {
	fields := make([]zap.Field, 0, len(record.Fields)+2)
	fields = append(fields, zap.String("operation", record.Operation))
	if record.CorrelationID != "" {
		fields = append(fields, zap.String("correlation_id", record.CorrelationID))
	}
	for k, v := range record.Fields {
		fields = append(fields, zap.Any(k, v))
	}

	switch record.Level {
	case "debug":
		z.logger.Debug(record.Operation, fields...)
	case "warn":
		z.logger.Warn(record.Operation, fields...)
	case "error":
		z.logger.Error(record.Operation, fields...)
	default:
		z.logger.Info(record.Operation, fields...)
	}
}
