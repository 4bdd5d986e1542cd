package roomsvc

import (
	"context"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

type proberImpl struct {
	client  *resty.Client
	baseURL string
}

// NewProber probes the provider server over plain HTTP, websocket schemes
// are mapped to their HTTP equivalents.
func NewProber(serverURL string, timeout time.Duration) Prober {
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &proberImpl{
		client:  resty.New().SetTimeout(timeout),
		baseURL: HTTPURL(serverURL),
	}
}

// HTTPURL maps ws:// and wss:// to http:// and https://.
func HTTPURL(serverURL string) string {
	u := strings.TrimRight(serverURL, "/")
	switch {
	case strings.HasPrefix(u, "ws://"):
		return "http://" + strings.TrimPrefix(u, "ws://")
	case strings.HasPrefix(u, "wss://"):
		return "https://" + strings.TrimPrefix(u, "wss://")
	}
	return u
}

func (p *proberImpl) Probe(ctx context.Context) error {
	resp, err := p.client.R().
		SetContext(ctx).
		Get(p.baseURL + "/")
	if err != nil {
		return errors.Wrap(ErrProviderUnavailable, err, "probe request failed")
	}
	if resp.StatusCode() >= 500 {
		return errors.Newf(ErrProviderUnavailable, "probe status %d", resp.StatusCode())
	}
	return nil
}
