package roomsvc

import (
	"net/http"

	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

type webhookReceiverImpl struct {
	keys auth.KeyProvider
}

// NewWebhookReceiver verifies webhook signatures with the provider key pair.
func NewWebhookReceiver(apiKey, apiSecret string) WebhookReceiver {
	return &webhookReceiverImpl{
		keys: auth.NewSimpleKeyProvider(apiKey, apiSecret),
	}
}

func (w *webhookReceiverImpl) Receive(r *http.Request) (*livekit.WebhookEvent, error) {
	event, err := webhook.ReceiveWebhookEvent(r, w.keys)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidWebhook, err, "receive webhook")
	}
	return event, nil
}
