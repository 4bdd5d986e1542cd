package transport

import (
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/rtc-room-client/internal/otel"
)

var (
	rateLimited   metric.Int64Counter
	authFailures  metric.Int64Counter
	eventStreams  metric.Int64UpDownCounter
	webhookReject metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("sessions.transport", intotel.PrefixTransport)

	f.Int64Counter(&rateLimited, "rate_limited",
		metric.WithDescription("Requests rejected by the per client rate limit"))

	f.Int64Counter(&authFailures, "auth.failures",
		metric.WithDescription("Requests with a missing, invalid or foreign access key"))

	f.Int64UpDownCounter(&eventStreams, "event_streams.active",
		metric.WithDescription("Open session event streams"))

	f.Int64Counter(&webhookReject, "webhook.rejected",
		metric.WithDescription("Webhook requests that failed verification"))
}
