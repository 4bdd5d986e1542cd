package sessions

import (
	"context"
	"time"

	"github.com/livekit/protocol/livekit"

	"github.com/imtaco/rtc-room-client/internal/constants"
)

//go:generate mockgen -source=types.go -destination=mocks/mocks.go -package=mocks

// SessionService owns the lifecycle of browser sessions:
// connect -> generate token -> join -> disconnect -> reset.
type SessionService interface {
	Start(ctx context.Context) error
	Stop()

	Create(ctx context.Context, opts CreateOptions) (*Session, error)
	Get(ctx context.Context, id string) (*Session, error)
	GenerateToken(ctx context.Context, id string) (*Session, error)
	Join(ctx context.Context, id string) (*JoinInfo, error)
	Disconnect(ctx context.Context, id, reason string) (*Session, error)
	Close(ctx context.Context, id string) error

	Presence(ctx context.Context, id string) (*Presence, error)
	ReportSpeakers(ctx context.Context, id string, identities []string) error
	HandleWebhook(ctx context.Context, event *livekit.WebhookEvent) error
	Subscribe(id string) (<-chan Event, func())
}

// Store persists sessions. Get returns ErrSessionNotFound for unknown ids.
type Store interface {
	Put(ctx context.Context, s *Session) error
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context) ([]*Session, error)
	ListByRoom(ctx context.Context, room string) ([]*Session, error)
}

type Session struct {
	ID       string                 `json:"id"`
	RoomName string                 `json:"roomName"`
	Identity string                 `json:"identity"`
	Name     string                 `json:"name"`
	State    constants.SessionState `json:"state"`

	Token          string    `json:"token,omitempty"`
	TokenExpiresAt time.Time `json:"tokenExpiresAt"`
	TokenUsed      bool      `json:"tokenUsed"`

	LastError        string `json:"lastError,omitempty"`
	Attempts         int    `json:"attempts"`
	DisconnectReason string `json:"disconnectReason,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasFreshToken reports whether the session holds a token that may be used
// for a join at now: never used, and valid for more than minRemaining.
func (s *Session) HasFreshToken(now time.Time, minRemaining time.Duration) bool {
	if s == nil || s.Token == "" || s.TokenUsed {
		return false
	}
	return s.TokenExpiresAt.Sub(now) > minRemaining
}

func (s *Session) ClearToken() {
	s.Token = ""
	s.TokenExpiresAt = time.Time{}
	s.TokenUsed = false
}

func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	return &c
}

// ConnectionState is the room connection state the UI shows for the session.
func (s *Session) ConnectionState() constants.ConnectionState {
	switch s.State {
	case constants.SessionStateConnected:
		return constants.ConnectionStateConnected
	case constants.SessionStateGenerating, constants.SessionStateReady:
		return constants.ConnectionStateConnecting
	default:
		return constants.ConnectionStateDisconnected
	}
}

type CreateOptions struct {
	// display name, defaults to the generated identity
	Name string
	// explicit room, otherwise generated or the configured fixed room
	Room string
}

// JoinInfo is everything the browser SDK needs to connect.
type JoinInfo struct {
	ServerURL string `json:"serverUrl"`
	Token     string `json:"token"`
	Room      string `json:"room"`
	Identity  string `json:"identity"`
}

type Participant struct {
	SID               string    `json:"sid"`
	Identity          string    `json:"identity"`
	Name              string    `json:"name"`
	DisplayName       string    `json:"displayName"`
	IsLocal           bool      `json:"isLocal"`
	IsSpeaking        bool      `json:"isSpeaking"`
	MicrophoneEnabled bool      `json:"microphoneEnabled"`
	JoinedAt          time.Time `json:"joinedAt"`
}

type Presence struct {
	SessionID       string                    `json:"sessionId"`
	Room            string                    `json:"room"`
	ConnectionState constants.ConnectionState `json:"connectionState"`
	Participants    []Participant             `json:"participants"`
	Count           int                       `json:"count"`
	// connected but nobody else (the agent) is in the room yet
	WaitingForAgent bool `json:"waitingForAgent"`
}

type EventType string

const (
	EventSessionUpdated  EventType = "session_updated"
	EventPresenceChanged EventType = "presence_changed"
	EventSessionClosed   EventType = "session_closed"
)

type Event struct {
	Type    EventType `json:"type"`
	Session *Session  `json:"session,omitempty"`
	TS      time.Time `json:"ts"`
}
