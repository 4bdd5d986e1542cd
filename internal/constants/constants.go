package constants

type SessionState string
type ConnectionState string
type WebhookEvent string

const (
	// no token yet, or reset after a disconnect
	SessionStateIdle SessionState = "idle"
	// token minting in progress
	SessionStateGenerating SessionState = "generating"
	// holds a fresh token that has not been used for a join
	SessionStateReady SessionState = "ready"
	// token handed out for a join, participant is in the room
	SessionStateConnected SessionState = "connected"
	// transient, reset to idle right after
	SessionStateDisconnected SessionState = "disconnected"
	// minting failed after retries, waits for an explicit retry
	SessionStateFailed SessionState = "failed"
)

// Values follow the provider client SDK naming.
const (
	ConnectionStateDisconnected ConnectionState = "disconnected"
	ConnectionStateConnecting   ConnectionState = "connecting"
	ConnectionStateConnected    ConnectionState = "connected"
)

const (
	WebhookRoomStarted       WebhookEvent = "room_started"
	WebhookRoomFinished      WebhookEvent = "room_finished"
	WebhookParticipantJoined WebhookEvent = "participant_joined"
	WebhookParticipantLeft   WebhookEvent = "participant_left"
	WebhookTrackPublished    WebhookEvent = "track_published"
	WebhookTrackUnpublished  WebhookEvent = "track_unpublished"
)

const (
	DisconnectReasonClient      = "client"
	DisconnectReasonLeft        = "participant_left"
	DisconnectReasonRoomClosed  = "room_finished"
	DisconnectReasonSessionGone = "session_closed"
)

const (
	StoreDriverMemory = "memory"
	StoreDriverRedis  = "redis"
)
