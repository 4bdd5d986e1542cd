package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	DefaultTTL = 6 * time.Hour
)

//go:generate mockgen -source=types.go -destination=mocks/mocks.go -package=mocks

// Minter mints room-access credentials for the conferencing provider.
type Minter interface {
	Mint(req MintRequest) (*Credential, error)
	MintAdmin(room string, validFor time.Duration) (string, error)
}

// Verifier decodes and checks provider credentials minted with the same key pair.
type Verifier interface {
	Verify(raw string) (*Claims, error)
}

type MintRequest struct {
	Identity string
	// display name, defaults to Identity
	Name     string
	Room     string
	ValidFor time.Duration
	Metadata string

	CanPublish     bool
	CanSubscribe   bool
	CanPublishData bool
}

// Credential is a signed token plus what the caller needs to track its freshness.
type Credential struct {
	Token     string    `json:"token"`
	Identity  string    `json:"identity"`
	Room      string    `json:"room"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VideoClaims mirrors the "video" grant of a provider token.
type VideoClaims struct {
	Room           string `json:"room,omitempty"`
	RoomJoin       bool   `json:"roomJoin,omitempty"`
	RoomAdmin      bool   `json:"roomAdmin,omitempty"`
	RoomList       bool   `json:"roomList,omitempty"`
	RoomCreate     bool   `json:"roomCreate,omitempty"`
	CanPublish     *bool  `json:"canPublish,omitempty"`
	CanSubscribe   *bool  `json:"canSubscribe,omitempty"`
	CanPublishData *bool  `json:"canPublishData,omitempty"`
}

type Claims struct {
	Name     string       `json:"name,omitempty"`
	Metadata string       `json:"metadata,omitempty"`
	Video    *VideoClaims `json:"video,omitempty"`
	jwt.RegisteredClaims
}

// Identity is the participant identity the token was minted for.
func (c *Claims) Identity() string {
	return c.Subject
}
