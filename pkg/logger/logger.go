package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Setup configures the global zerolog logger.
func Setup(isLocalDev bool) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	if isLocalDev {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	// log.Ctx on a bare context falls back to the global logger instead of a disabled one.
	zerolog.DefaultContextLogger = &log.Logger
}

// EnrichContextWithLogger adds a zerolog logger to the context with trace
// information and any extra string fields given as key/value pairs.
func EnrichContextWithLogger(ctx context.Context, fields ...string) context.Context {
	lc := log.Ctx(ctx).With()

	sCtx := trace.SpanFromContext(ctx).SpanContext()
	if sCtx.HasTraceID() {
		lc = lc.Str("trace_id", sCtx.TraceID().String()).
			Str("span_id", sCtx.SpanID().String())
	}

	for i := 0; i+1 < len(fields); i += 2 {
		lc = lc.Str(fields[i], fields[i+1])
	}

	l := lc.Logger()
	return l.WithContext(ctx)
}
