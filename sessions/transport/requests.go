package transport

import (
	"time"

	"github.com/imtaco/rtc-room-client/internal/constants"
	"github.com/imtaco/rtc-room-client/internal/utils"
	"github.com/imtaco/rtc-room-client/sessions"
)

// SessionURI is shared by every session scoped route.
type SessionURI struct {
	// SessionID: must be valid UUID v4 format
	SessionID string `uri:"sessionId" binding:"required,sessionid"`
}

type CreateSessionBody struct {
	// Name: display name, defaults to the generated identity
	Name string `json:"name,omitempty" binding:"omitempty,displayname"`
	// Room: 3-64 characters (letters, numbers, hyphens, underscores)
	Room string `json:"room,omitempty" binding:"omitempty,roomname"`
}

type ReportSpeakersBody struct {
	Identities []string `json:"identities" binding:"max=64,dive,identity"`
}

// SessionResponse is a session as shown to the browser, the token itself is
// only handed out by join.
type SessionResponse struct {
	ID               string                    `json:"id"`
	RoomName         string                    `json:"roomName"`
	Identity         string                    `json:"identity"`
	Name             string                    `json:"name"`
	State            constants.SessionState    `json:"state"`
	ConnectionState  constants.ConnectionState `json:"connectionState"`
	HasToken         bool                      `json:"hasToken"`
	TokenExpiresAt   *time.Time                `json:"tokenExpiresAt,omitempty"`
	LastError        string                    `json:"lastError,omitempty"`
	Attempts         int                       `json:"attempts"`
	DisconnectReason string                    `json:"disconnectReason,omitempty"`
	CreatedAt        time.Time                 `json:"createdAt"`
	UpdatedAt        time.Time                 `json:"updatedAt"`
}

func newSessionResponse(s *sessions.Session) *SessionResponse {
	if s == nil {
		return nil
	}
	return &SessionResponse{
		ID:               s.ID,
		RoomName:         s.RoomName,
		Identity:         s.Identity,
		Name:             s.Name,
		State:            s.State,
		ConnectionState:  s.ConnectionState(),
		HasToken:         s.Token != "",
		LastError:        s.LastError,
		Attempts:         s.Attempts,
		DisconnectReason: s.DisconnectReason,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
		TokenExpiresAt:   utils.PtrIfSet(s.TokenExpiresAt),
	}
}

type EventMessage struct {
	Type    sessions.EventType `json:"type"`
	Session *SessionResponse   `json:"session,omitempty"`
	TS      time.Time          `json:"ts"`
}

func newEventMessage(ev sessions.Event) *EventMessage {
	return &EventMessage{
		Type:    ev.Type,
		Session: newSessionResponse(ev.Session),
		TS:      ev.TS,
	}
}
