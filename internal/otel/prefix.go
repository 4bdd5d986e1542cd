package otel

// Metric prefixes for each service
const (
	PrefixSessions  = "sessions"
	PrefixTransport = "sessions_http"
)
