// Package logging builds the process-wide slog handler: a zap core behind
// zapslog, wrapped so OpenTelemetry trace ids are attached to every record.
package logging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/exp/zapslog"
	"go.uber.org/zap/zapcore"
	"k8s.io/klog/v2"
)

const (
	// EncodingJSON writes one JSON object per record
	EncodingJSON = "json"

	// EncodingConsole writes human readable records
	EncodingConsole = "console"
)

type options struct {
	level       slog.Level
	encoding    string
	outputPaths []string
}

// Option configures the handler
type Option func(*options)

// WithLevel sets the minimum level
func WithLevel(level slog.Level) Option {
	return func(o *options) {
		o.level = level
	}
}

// WithEncoding selects json or console output
func WithEncoding(encoding string) Option {
	return func(o *options) {
		if encoding != "" {
			o.encoding = encoding
		}
	}
}

// WithOutputPaths overrides the output sinks. Defaults to stderr so stdout
// stays clean for commands printing data.
func WithOutputPaths(paths ...string) Option {
	return func(o *options) {
		if len(paths) > 0 {
			o.outputPaths = paths
		}
	}
}

// NewHandler creates the slog handler backed by zap
func NewHandler(opts ...Option) (slog.Handler, error) {
	o := &options{
		level:       slog.LevelInfo,
		encoding:    EncodingJSON,
		outputPaths: []string{"stderr"},
	}
	for _, opt := range opts {
		opt(o)
	}

	zc := zap.Config{
		Level:             zap.NewAtomicLevelAt(zapLevel(o.level)),
		Encoding:          o.encoding,
		DisableStacktrace: true,
		EncoderConfig:     zap.NewProductionEncoderConfig(),
		OutputPaths:       o.outputPaths,
		ErrorOutputPaths:  []string{"stderr"},
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if o.encoding == EncodingConsole {
		zc.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build zap logger: %w", err)
	}
	return NewCoreHandler(logger.Core()), nil
}

// NewCoreHandler wraps a zap core into a trace-aware slog handler
func NewCoreHandler(core zapcore.Core) slog.Handler {
	return &traceHandler{Handler: zapslog.NewHandler(core, zapslog.WithCaller(true))}
}

// Setup installs the handler as the slog default and routes client-go's klog
// output through it
func Setup(handler slog.Handler) *slog.Logger {
	logger := slog.New(handler)
	slog.SetDefault(logger)
	klog.SetLogger(logr.FromSlogHandler(handler))
	return logger
}

// LevelFromEnv reads THV_BUCKET_SYNC_LOG_LEVEL, falling back to LOG_LEVEL.
// Defaults to slog.LevelInfo if neither is set or if the value is invalid.
func LevelFromEnv(envPrefix string) slog.Level {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	level, ok := ParseLevel(levelStr)
	if !ok {
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
	}
	return level
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info
// and report false.
func ParseLevel(value string) (slog.Level, bool) {
	switch strings.ToLower(value) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}

// traceHandler wraps an slog.Handler to automatically inject OpenTelemetry
// trace_id and span_id into every log record, enabling log-trace correlation.
type traceHandler struct {
	slog.Handler
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name)}
}
