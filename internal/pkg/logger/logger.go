package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var log zerolog.Logger

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnixMs
	log = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init configures the global logger with the service name. Console output is
// used outside production so local logs stay readable.
func Init(serviceName, environment string) {
	var out = os.Stdout
	base := zerolog.New(out)
	if environment != "production" {
		base = zerolog.New(zerolog.ConsoleWriter{Out: out})
	}
	log = base.With().Timestamp().Str("service", serviceName).Logger()
}

// Ctx returns a logger enriched with the trace id of the active span, so log
// lines can be joined with Jaeger traces.
func Ctx(ctx context.Context) *zerolog.Logger {
	span := trace.SpanFromContext(ctx)
	if sc := span.SpanContext(); sc.HasTraceID() {
		l := log.With().Str("trace_id", sc.TraceID().String()).Logger()
		return &l
	}
	return &log
}

// L returns the bare global logger for call sites without a context.
func L() *zerolog.Logger {
	return &log
}
