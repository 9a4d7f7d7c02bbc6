package monitoring

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/turtacn/genguard/internal/config"
	"github.com/turtacn/genguard/pkg/constants"
	"github.com/turtacn/genguard/pkg/logger"
)

type zapLogger struct {
	base  *zap.Logger
	level zap.AtomicLevel
}

// NewZapLogger builds the production logger. The level can be changed later
// through SetLevel, which is what the config watcher does.
func NewZapLogger(cfg *config.LogConfig) (logger.Logger, error) {
	level := zap.NewAtomicLevel()
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level.SetLevel(zapcore.InfoLevel)
	}
	return newZapLogger(cfg.Format, zapcore.AddSync(os.Stdout), level), nil
}

func newZapLogger(format string, out zapcore.WriteSyncer, level zap.AtomicLevel) *zapLogger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	if format == "console" {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, out, level)
	return &zapLogger{
		base:  zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1), zap.AddStacktrace(zapcore.ErrorLevel)),
		level: level,
	}
}

func (l *zapLogger) Debug(ctx context.Context, msg string, fields ...logger.Field) {
	l.base.Debug(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Info(ctx context.Context, msg string, fields ...logger.Field) {
	l.base.Info(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Warn(ctx context.Context, msg string, fields ...logger.Field) {
	l.base.Warn(msg, convertFields(ctx, fields)...)
}

func (l *zapLogger) Error(ctx context.Context, msg string, err error, fields ...logger.Field) {
	l.base.Error(msg, append(convertFields(ctx, fields), zap.Error(err))...)
}

func (l *zapLogger) Fatal(ctx context.Context, msg string, err error, fields ...logger.Field) {
	l.base.Fatal(msg, append(convertFields(ctx, fields), zap.Error(err))...)
}

func (l *zapLogger) WithFields(fields ...logger.Field) logger.Logger {
	return &zapLogger{base: l.base.With(convertFields(context.Background(), fields)...), level: l.level}
}

func (l *zapLogger) WithComponent(component string) logger.Logger {
	return &zapLogger{base: l.base.With(zap.String("component", component)), level: l.level}
}

func (l *zapLogger) SetLevel(level string) error {
	return l.level.UnmarshalText([]byte(level))
}

// Sync flushes buffered entries. Callers hold a logger.Logger, so main
// type-asserts for this.
func (l *zapLogger) Sync() error {
	return l.base.Sync()
}

func convertFields(ctx context.Context, fields []logger.Field) []zap.Field {
	zapFields := make([]zap.Field, 0, len(fields)+2)
	if ctx != nil {
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			zapFields = append(zapFields, zap.String("trace_id", sc.TraceID().String()))
		}
		if requestID, ok := ctx.Value(constants.ContextKeyRequestID).(string); ok && requestID != "" {
			zapFields = append(zapFields, zap.String("request_id", requestID))
		}
	}
	for _, f := range fields {
		zapFields = append(zapFields, zap.Any(f.Key, f.Value))
	}
	return zapFields
}
