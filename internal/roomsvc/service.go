package roomsvc

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/livekit/protocol/livekit"
	lksdk "github.com/livekit/server-sdk-go/v2"
	"github.com/twitchtv/twirp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/imtaco/rtc-room-client/internal/errors"
	"github.com/imtaco/rtc-room-client/internal/log"
	intotel "github.com/imtaco/rtc-room-client/internal/otel"
)

const defaultRequestTimeout = 5 * time.Second

var tracer = otel.Tracer("roomsvc")

type roomServiceImpl struct {
	client  *lksdk.RoomServiceClient
	timeout time.Duration
	logger  *log.Logger
}

// NewRoomService creates a RoomService backed by the provider server SDK.
func NewRoomService(cfg *Config, logger *log.Logger) RoomService {
	if logger == nil {
		panic("logger is required")
	}
	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = defaultRequestTimeout
	}
	return &roomServiceImpl{
		client:  lksdk.NewRoomServiceClient(cfg.URL, cfg.APIKey, cfg.APISecret),
		timeout: timeout,
		logger:  logger,
	}
}

func (s *roomServiceImpl) ListParticipants(ctx context.Context, room string) (_ []*livekit.ParticipantInfo, err error) {
	ctx, span := intotel.StartSpan(ctx, tracer, "roomsvc.list_participants", attribute.String("room", room))
	defer func() { intotel.EndSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.client.ListParticipants(ctx, &livekit.ListParticipantsRequest{Room: room})
	if err != nil {
		if isNotFound(err) {
			return []*livekit.ParticipantInfo{}, nil
		}
		return nil, errors.Wrapf(ErrProviderRequest, err, "list participants of %s", room)
	}
	return res.GetParticipants(), nil
}

func (s *roomServiceImpl) RemoveParticipant(ctx context.Context, room, identity string) (err error) {
	ctx, span := intotel.StartSpan(ctx, tracer, "roomsvc.remove_participant",
		attribute.String("room", room),
		attribute.String("identity", identity))
	defer func() { intotel.EndSpan(span, err) }()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err = s.client.RemoveParticipant(ctx, &livekit.RoomParticipantIdentity{
		Room:     room,
		Identity: identity,
	})
	if err != nil {
		if isNotFound(err) {
			s.logger.Debug("participant already gone",
				log.String("room", room),
				log.String("identity", identity))
			return nil
		}
		return errors.Wrapf(ErrProviderRequest, err, "remove %s from %s", identity, room)
	}
	return nil
}

func isNotFound(err error) bool {
	var terr twirp.Error
	if stderrors.As(err, &terr) {
		return terr.Code() == twirp.NotFound
	}
	return false
}
