package kafka

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Interceptor wraps one delivery attempt. It may derive a new ctx for next
// or return an error without calling it, which counts as a failed attempt.
type Interceptor func(ctx context.Context, km kafka.Message, next func(context.Context) error) error

// chain nests interceptors so the first one registered runs outermost.
func chain(ics []Interceptor, km kafka.Message, final func(context.Context) error) func(context.Context) error {
	h := final
	for i := len(ics) - 1; i >= 0; i-- {
		ic, inner := ics[i], h
		h = func(ctx context.Context) error { return ic(ctx, km, inner) }
	}
	return h
}

type ctxKey string

// CtxTraceID holds the correlation id taken from the trace_id header.
const CtxTraceID ctxKey = "kafka_trace_id"

// Trace copies the trace_id header into the handler context.
func Trace(ctx context.Context, km kafka.Message, next func(context.Context) error) error {
	if id := ExtractTraceID(km); id != "" {
		ctx = context.WithValue(ctx, CtxTraceID, id)
	}
	return next(ctx)
}

// TraceID returns the id set by Trace, if any.
func TraceID(ctx context.Context) string {
	s, _ := ctx.Value(CtxTraceID).(string)
	return s
}

func ExtractTraceID(msg kafka.Message) string {
	for _, h := range msg.Headers {
		if h.Key == "trace_id" && len(h.Value) > 0 {
			return string(h.Value)
		}
	}
	return ""
}
