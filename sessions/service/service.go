package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/jonboulle/clockwork"
	"github.com/livekit/protocol/livekit"
	"github.com/samber/lo"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/sync/singleflight"

	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/internal/cryptoutil"
	"github.com/imtaco/rtc-room-client/internal/errors"
	"github.com/imtaco/rtc-room-client/internal/log"
	intotel "github.com/imtaco/rtc-room-client/internal/otel"
	"github.com/imtaco/rtc-room-client/internal/retry"
	"github.com/imtaco/rtc-room-client/internal/roomsvc"
	"github.com/imtaco/rtc-room-client/internal/scheduler"
	isync "github.com/imtaco/rtc-room-client/internal/sync"
	"github.com/imtaco/rtc-room-client/internal/token"
	"github.com/imtaco/rtc-room-client/internal/validation"
	"github.com/imtaco/rtc-room-client/sessions"
)

const (
	presenceCacheSize = 256
	refreshKeyPrefix  = "refresh:"
	expireKeyPrefix   = "expire:"
)

// errNoChange makes update skip the write.
var errNoChange = errors.PureNew("no change")

type Option func(*serviceImpl)

func WithClock(clock clockwork.Clock) Option {
	return func(s *serviceImpl) {
		s.clock = clock
	}
}

type serviceImpl struct {
	cfg       *sessions.Config
	serverURL string
	store     sessions.Store
	minter    token.Minter
	rooms     roomsvc.RoomService
	retry     retry.Retry
	clock     clockwork.Clock
	scheduler *scheduler.KeyedScheduler

	locks         *isync.Map[string, *sync.Mutex]
	genGroup      singleflight.Group
	presenceGroup singleflight.Group
	presenceCache *expirable.LRU[string, []*livekit.ParticipantInfo]
	speakers      *speakerTracker
	hub           *hub

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	logger *log.Logger
}

func NewSessionService(
	cfg *sessions.Config,
	serverURL string,
	store sessions.Store,
	minter token.Minter,
	rooms roomsvc.RoomService,
	rty retry.Retry,
	logger *log.Logger,
	opts ...Option,
) (sessions.SessionService, error) {
	return newService(cfg, serverURL, store, minter, rooms, rty, logger, opts...)
}

func newService(
	cfg *sessions.Config,
	serverURL string,
	store sessions.Store,
	minter token.Minter,
	rooms roomsvc.RoomService,
	rty retry.Retry,
	logger *log.Logger,
	opts ...Option,
) (*serviceImpl, error) {
	if logger == nil {
		panic("logger is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &serviceImpl{
		cfg:       cfg,
		serverURL: serverURL,
		store:     store,
		minter:    minter,
		rooms:     rooms,
		retry:     rty,
		clock:     clockwork.NewRealClock(),
		locks:     isync.NewMap[string, *sync.Mutex](),
		speakers:  newSpeakerTracker(cfg.SpeakerTTL),
		hub:       newHub(cfg.EventBuffer, logger.Module("Hub")),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	if cfg.PresenceCacheTTL > 0 {
		s.presenceCache = expirable.NewLRU[string, []*livekit.ParticipantInfo](
			presenceCacheSize, nil, cfg.PresenceCacheTTL)
	}
	s.scheduler = scheduler.NewKeyedSchedulerWithClock(logger.Module("Scheduler"), s.clock)
	return s, nil
}

// Start reloads timers for stored sessions and runs the timer loop.
func (s *serviceImpl) Start(ctx context.Context) error {
	list, err := s.store.List(ctx)
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.timerLoop()
	}()

	for _, sess := range list {
		s.scheduleExpiry(sess)
		if sess.State == constants.SessionStateReady {
			s.scheduleRefresh(sess)
		}
	}
	s.logger.Info("Session service started", log.Int("sessions", len(list)))
	return nil
}

func (s *serviceImpl) Stop() {
	s.cancel()
	s.scheduler.Shutdown()
	s.wg.Wait()
	s.hub.closeAll()
}

func (s *serviceImpl) lock(id string) func() {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	mu.Lock()
	return mu.Unlock
}

// update runs fn on the stored session under the session lock, persists the
// result and notifies subscribers.
func (s *serviceImpl) update(
	ctx context.Context,
	id string,
	fn func(sess *sessions.Session) error,
) (*sessions.Session, error) {
	unlock := s.lock(id)
	defer unlock()

	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := fn(sess); err != nil {
		if errors.Is(err, errNoChange) {
			return sess, nil
		}
		return sess, err
	}

	sess.UpdatedAt = s.clock.Now()
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	s.publish(sess)
	s.scheduleExpiry(sess)
	return sess, nil
}

func (s *serviceImpl) publish(sess *sessions.Session) {
	s.hub.publish(sess.ID, sessions.Event{
		Type:    sessions.EventSessionUpdated,
		Session: sess.Clone(),
		TS:      sess.UpdatedAt,
	})
}

func shortID() string {
	id, err := cryptoutil.RandomHex(4)
	if err != nil {
		// fall back to uuid entropy
		return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	}
	return id
}

func (s *serviceImpl) Create(ctx context.Context, opts sessions.CreateOptions) (*sessions.Session, error) {
	room := opts.Room
	switch {
	case room != "":
		if !validation.IsRoomName(room) {
			return nil, errors.Newf(sessions.ErrInvalidRequest, "invalid room name %q", room)
		}
	case s.cfg.FixedRoom != "":
		room = s.cfg.FixedRoom
	default:
		room = fmt.Sprintf("%s-%s", s.cfg.RoomPrefix, shortID())
	}

	identity := fmt.Sprintf("%s-%s", s.cfg.IdentityPrefix, shortID())
	name := opts.Name
	if name == "" {
		name = identity
	}

	now := s.clock.Now()
	sess := &sessions.Session{
		ID:        uuid.NewString(),
		RoomName:  room,
		Identity:  identity,
		Name:      name,
		State:     constants.SessionStateIdle,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(ctx, sess); err != nil {
		return nil, err
	}
	s.scheduleExpiry(sess)
	sessionsCreated.Add(ctx, 1)

	s.logger.Info("Session created",
		log.String("sessionId", sess.ID),
		log.String("room", room),
		log.String("identity", identity))

	// a token is wanted as soon as room and identity are known
	s.generateAsync(sess.ID)
	return sess, nil
}

func (s *serviceImpl) Get(ctx context.Context, id string) (*sessions.Session, error) {
	return s.store.Get(ctx, id)
}

// GenerateToken coalesces concurrent calls for the same session. The work runs
// on the service context so one caller giving up does not fail the others.
func (s *serviceImpl) GenerateToken(ctx context.Context, id string) (*sessions.Session, error) {
	ch := s.genGroup.DoChan(id, func() (any, error) {
		return s.generate(s.ctx, id)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*sessions.Session).Clone(), nil //nolint:forcetypeassert
	}
}

func (s *serviceImpl) generate(ctx context.Context, id string) (sess *sessions.Session, err error) {
	ctx, span := intotel.StartSpan(ctx, tracer, "sessions.generate_token",
		attribute.String("session.id", id))
	defer func() { intotel.EndSpan(span, err) }()

	start := s.clock.Now()
	sess, err = s.update(ctx, id, func(sess *sessions.Session) error {
		if sess.State == constants.SessionStateConnected {
			return errors.Newf(sessions.ErrInvalidState, "session is %s", sess.State)
		}
		sess.State = constants.SessionStateGenerating
		sess.ClearToken()
		sess.LastError = ""
		sess.Attempts = 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.scheduler.Cancel(refreshKeyPrefix + id)

	req := token.MintRequest{
		Identity:       sess.Identity,
		Name:           sess.Name,
		Room:           sess.RoomName,
		ValidFor:       s.cfg.TokenTTL,
		CanPublish:     s.cfg.CanPublish,
		CanSubscribe:   s.cfg.CanSubscribe,
		CanPublishData: s.cfg.CanPublishData,
	}
	attempts := 0
	var cred *token.Credential
	mintErr := s.retry.Do(ctx, func() error {
		attempts++
		c, err := s.minter.Mint(req)
		if err != nil {
			if errors.Is(err, token.ErrInvalidRequest) || errors.Is(err, token.ErrMissingCredentials) {
				return retry.Permanent(err)
			}
			return err
		}
		cred = c
		return nil
	})
	mintDuration.Record(ctx, float64(s.clock.Since(start).Milliseconds()))
	span.SetAttributes(attribute.Int("attempts", attempts))

	sess, err = s.update(ctx, id, func(sess *sessions.Session) error {
		if sess.State != constants.SessionStateGenerating {
			return errors.Newf(sessions.ErrInvalidState, "session left generating, now %s", sess.State)
		}
		sess.Attempts = attempts
		if mintErr != nil {
			sess.State = constants.SessionStateFailed
			sess.LastError = mintErr.Error()
			return nil
		}
		sess.State = constants.SessionStateReady
		sess.Token = cred.Token
		sess.TokenExpiresAt = cred.ExpiresAt
		sess.TokenUsed = false
		return nil
	})
	if err != nil {
		return nil, err
	}

	if mintErr != nil {
		tokensFailed.Add(ctx, 1)
		s.logger.Warn("Token generation failed",
			log.String("sessionId", id),
			log.Int("attempts", attempts),
			log.Error(mintErr))
		return nil, errors.Wrapf(sessions.ErrTokenFailed, mintErr, "after %d attempts", attempts)
	}

	tokensMinted.Add(ctx, 1)
	s.scheduleRefresh(sess)
	s.logger.Debug("Token ready",
		log.String("sessionId", id),
		log.Time("expiresAt", sess.TokenExpiresAt))
	return sess, nil
}

func (s *serviceImpl) generateAsync(id string) {
	if s.ctx.Err() != nil {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if _, err := s.GenerateToken(s.ctx, id); err != nil {
			s.logger.Debug("Background token generation ended with error",
				log.String("sessionId", id),
				log.Error(err))
		}
	}()
}

func (s *serviceImpl) Join(ctx context.Context, id string) (*sessions.JoinInfo, error) {
	cur, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if cur.State == constants.SessionStateGenerating {
		// wait for the token that is on its way
		if _, err := s.GenerateToken(ctx, id); err != nil {
			return nil, err
		}
	}

	var info *sessions.JoinInfo
	stale := false
	_, err = s.update(ctx, id, func(sess *sessions.Session) error {
		if sess.State != constants.SessionStateReady {
			return errors.Newf(sessions.ErrInvalidState, "cannot join while %s", sess.State)
		}
		if !sess.HasFreshToken(s.clock.Now(), s.cfg.TokenMinRemaining) {
			stale = true
			return errors.Newf(sessions.ErrTokenStale, "token expires at %s", sess.TokenExpiresAt)
		}
		sess.TokenUsed = true
		sess.State = constants.SessionStateConnected
		sess.DisconnectReason = ""
		info = &sessions.JoinInfo{
			ServerURL: s.serverURL,
			Token:     sess.Token,
			Room:      sess.RoomName,
			Identity:  sess.Identity,
		}
		return nil
	})
	if err != nil {
		reason := string(errors.CodeOf(err))
		joinsRejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		if stale {
			s.generateAsync(id)
		}
		return nil, err
	}

	s.scheduler.Cancel(refreshKeyPrefix + id)
	s.invalidatePresence(info.Room)
	joins.Add(ctx, 1)
	s.logger.Info("Session joined",
		log.String("sessionId", id),
		log.String("room", info.Room),
		log.String("identity", info.Identity))
	return info, nil
}

// Disconnect moves a connected session through disconnected back to idle and
// starts generating the next token. Sessions that are not connected are left as is.
func (s *serviceImpl) Disconnect(ctx context.Context, id, reason string) (*sessions.Session, error) {
	disconnected := false
	sess, err := s.update(ctx, id, func(sess *sessions.Session) error {
		if sess.State != constants.SessionStateConnected {
			return errNoChange
		}
		sess.State = constants.SessionStateDisconnected
		sess.DisconnectReason = reason
		disconnected = true
		return nil
	})
	if err != nil || !disconnected {
		return sess, err
	}

	disconnects.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
	s.invalidatePresence(sess.RoomName)
	s.releaseSpeakers(ctx, sess.RoomName)
	s.logger.Info("Session disconnected",
		log.String("sessionId", id),
		log.String("reason", reason))

	sess, err = s.reset(ctx, id)
	if err != nil {
		return nil, err
	}
	s.generateAsync(id)
	return sess, nil
}

// releaseSpeakers drops the room's speaker report once none of its sessions
// is connected. Other sessions in the room keep seeing it until then.
func (s *serviceImpl) releaseSpeakers(ctx context.Context, room string) {
	list, err := s.store.ListByRoom(ctx, room)
	if err != nil {
		s.logger.Warn("Failed to list room sessions", log.String("room", room), log.Error(err))
		return
	}
	if !lo.SomeBy(list, func(sess *sessions.Session) bool {
		return sess.State == constants.SessionStateConnected
	}) {
		s.speakers.forget(room)
	}
}

func (s *serviceImpl) reset(ctx context.Context, id string) (*sessions.Session, error) {
	return s.update(ctx, id, func(sess *sessions.Session) error {
		if sess.State != constants.SessionStateDisconnected {
			return errNoChange
		}
		sess.State = constants.SessionStateIdle
		sess.ClearToken()
		sess.Attempts = 0
		sess.LastError = ""
		return nil
	})
}

// Close removes the session, the participant is kicked from the room best effort.
func (s *serviceImpl) Close(ctx context.Context, id string) error {
	unlock := s.lock(id)
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		unlock()
		if errors.Is(err, sessions.ErrSessionNotFound) {
			s.locks.Delete(id)
		}
		return err
	}
	if sess.State == constants.SessionStateConnected {
		if err := s.rooms.RemoveParticipant(ctx, sess.RoomName, sess.Identity); err != nil {
			s.logger.Warn("Failed to remove participant",
				log.String("sessionId", id),
				log.Error(err))
		}
	}
	err = s.store.Delete(ctx, id)
	unlock()
	if err != nil {
		return err
	}

	s.forget(sess)
	sessionsClosed.Add(ctx, 1)
	s.logger.Info("Session closed", log.String("sessionId", id))
	return nil
}

func (s *serviceImpl) forget(sess *sessions.Session) {
	s.scheduler.Cancel(refreshKeyPrefix + sess.ID)
	s.scheduler.Cancel(expireKeyPrefix + sess.ID)
	s.invalidatePresence(sess.RoomName)
	s.hub.publish(sess.ID, sessions.Event{
		Type: sessions.EventSessionClosed,
		TS:   s.clock.Now(),
	})
	s.hub.closeSession(sess.ID)
	s.locks.Delete(sess.ID)
}

func (s *serviceImpl) Subscribe(id string) (<-chan sessions.Event, func()) {
	return s.hub.subscribe(id)
}
