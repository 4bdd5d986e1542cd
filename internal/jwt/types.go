package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

//go:generate mockgen -source=types.go -destination=mocks/mocks.go -package=mocks

// Auth signs and verifies the access keys handed to the browser when a
// session is created. A key authorizes calls on exactly one session.
type Auth interface {
	Sign(sessionID, identity string) (string, error)
	Verify(tokenString string) (*Payload, error)
}

// Payload represents the JWT token payload
type Payload struct {
	SessionID string `json:"sid"`
	Identity  string `json:"identity"`
	jwt.RegisteredClaims
}
