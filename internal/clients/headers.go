package clients

import "net/http"

// HeaderAllowlist is the set of inbound header names that may be forwarded to
// downstream services.
type HeaderAllowlist []string

// DefaultHeaderAllowlist holds the tracing, session and auth headers the
// reviews service propagates to the ratings service.
var DefaultHeaderAllowlist = HeaderAllowlist{
	// Request id, used by the mesh for access logs and trace sampling
	"x-request-id",

	// Lightstep
	"x-ot-span-context",

	// Datadog
	"x-datadog-trace-id",
	"x-datadog-parent-id",
	"x-datadog-sampling-priority",

	// W3C trace context
	"traceparent",
	"tracestate",

	// Cloud trace context
	"x-cloud-trace-context",

	// gRPC binary trace context
	"grpc-trace-bin",

	// B3 (Zipkin)
	"x-b3-traceid",
	"x-b3-spanid",
	"x-b3-parentspanid",
	"x-b3-sampled",
	"x-b3-flags",

	// SkyWalking
	"sw8",

	// Application specific
	"end-user",
	"user-agent",

	// Session and auth
	"cookie",
	"authorization",
	"jwt",
}

// Contains reports whether name is in the allowlist. Header names compare
// case-insensitively, as they do on the wire.
func (a HeaderAllowlist) Contains(name string) bool {
	canonical := http.CanonicalHeaderKey(name)
	for _, allowed := range a {
		if http.CanonicalHeaderKey(allowed) == canonical {
			return true
		}
	}
	return false
}

// ForwardHeaders returns the subset of inbound that may be sent downstream.
// Only allowlisted headers that are present on the inbound request are
// copied, values unchanged. Missing headers are skipped.
func ForwardHeaders(allowlist HeaderAllowlist, inbound http.Header) http.Header {
	out := make(http.Header)
	for _, name := range allowlist {
		values := inbound.Values(name)
		if len(values) == 0 {
			continue
		}
		key := http.CanonicalHeaderKey(name)
		out[key] = append([]string(nil), values...)
	}
	return out
}
