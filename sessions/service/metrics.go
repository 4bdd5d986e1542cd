package service

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	intotel "github.com/imtaco/rtc-room-client/internal/otel"
)

var tracer = otel.Tracer("sessions.service")

var (
	// session lifecycle
	sessionsCreated metric.Int64Counter
	sessionsClosed  metric.Int64Counter
	sessionsExpired metric.Int64Counter
	joins           metric.Int64Counter
	joinsRejected   metric.Int64Counter
	disconnects     metric.Int64Counter

	// provider tokens
	tokensMinted    metric.Int64Counter
	tokensFailed    metric.Int64Counter
	tokensRefreshed metric.Int64Counter
	mintDuration    metric.Float64Histogram

	// provider room service
	presenceLookups metric.Int64Counter
	presenceFailed  metric.Int64Counter
	webhookEvents   metric.Int64Counter
)

func init() {
	f := intotel.NewFactory("sessions.service", intotel.PrefixSessions)

	f.Int64Counter(&sessionsCreated, "created",
		metric.WithDescription("Total sessions created"))

	f.Int64Counter(&sessionsClosed, "closed",
		metric.WithDescription("Total sessions closed by the client"))

	f.Int64Counter(&sessionsExpired, "expired",
		metric.WithDescription("Sessions removed after inactivity"))

	f.Int64Counter(&joins, "joins",
		metric.WithDescription("Successful joins"))

	f.Int64Counter(&joinsRejected, "joins.rejected",
		metric.WithDescription("Joins rejected, by reason"))

	f.Int64Counter(&disconnects, "disconnects",
		metric.WithDescription("Disconnects, by reason"))

	f.Int64Counter(&tokensMinted, "tokens.minted",
		metric.WithDescription("Provider tokens minted"))

	f.Int64Counter(&tokensFailed, "tokens.failed",
		metric.WithDescription("Token generations that failed after retries"))

	f.Int64Counter(&tokensRefreshed, "tokens.refreshed",
		metric.WithDescription("Tokens regenerated before expiry"))

	f.Float64Histogram(&mintDuration, "tokens.mint.duration",
		metric.WithDescription("Token generation duration including retries"),
		metric.WithUnit("ms"))

	f.Int64Counter(&presenceLookups, "presence.lookups",
		metric.WithDescription("Participant lookups sent to the provider"))

	f.Int64Counter(&presenceFailed, "presence.failed",
		metric.WithDescription("Failed participant lookups"))

	f.Int64Counter(&webhookEvents, "webhook.events",
		metric.WithDescription("Provider webhook events, by event"))
}
