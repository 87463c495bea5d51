package otel

import (
	"net/http"

	"go.opentelemetry.io/otel/attribute"
)

// Middleware wraps an http.Handler with a span per request and tags it with
// the call/agent/request IDs carried on well-known headers. It is meant for
// the ambient ops surface (/healthz, /metrics, /debug), not the carrier
// transports, which manage their own spans per message.
func Middleware(serviceName string) func(http.Handler) http.Handler {
	tracer := Tracer(serviceName)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracer.Start(r.Context(), r.Method+" "+r.URL.Path)
			defer span.End()

			if span.IsRecording() {
				if callID := r.Header.Get("x-call-id"); callID != "" {
					span.SetAttributes(attribute.String(AttrCallID, callID))
				}
				if agentID := r.Header.Get("x-agent-id"); agentID != "" {
					span.SetAttributes(attribute.String(AttrAgentID, agentID))
				}
				if requestID := r.Header.Get("x-request-id"); requestID != "" {
					span.SetAttributes(attribute.String(AttrRequestID, requestID))
				}
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
