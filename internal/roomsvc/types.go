package roomsvc

import (
	"context"
	"net/http"

	"github.com/livekit/protocol/livekit"
)

//go:generate mockgen -source=types.go -destination=mocks/mocks.go -package=mocks

// RoomService is the subset of the provider room API the client needs.
type RoomService interface {
	// ListParticipants returns an empty list when the room does not exist yet.
	ListParticipants(ctx context.Context, room string) ([]*livekit.ParticipantInfo, error)
	RemoveParticipant(ctx context.Context, room, identity string) error
}

// Prober checks that the provider server answers HTTP.
type Prober interface {
	Probe(ctx context.Context) error
}

// WebhookReceiver authenticates and decodes provider webhook requests.
type WebhookReceiver interface {
	Receive(r *http.Request) (*livekit.WebhookEvent, error)
}
