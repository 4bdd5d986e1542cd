package jwt

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

const (
	issuer = "rtc-room-client"
)

type Option func(*jwtAuthImpl)

// WithClock overrides the clock used for iat/exp and validation.
func WithClock(clock clockwork.Clock) Option {
	return func(j *jwtAuthImpl) {
		j.clock = clock
	}
}

// WithSigningMethod selects the HMAC algorithm. Supported: HS256, HS384, HS512
func WithSigningMethod(method jwt.SigningMethod) Option {
	return func(j *jwtAuthImpl) {
		j.signingMethod = method
	}
}

// NewAuth creates a new JWT authenticator, HS256 unless overridden.
// Keys expire after ttl, zero means no expiry.
func NewAuth(secret string, ttl time.Duration, opts ...Option) Auth {
	j := &jwtAuthImpl{
		secret:        []byte(secret),
		ttl:           ttl,
		signingMethod: jwt.SigningMethodHS256,
		clock:         clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(j)
	}
	j.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{j.signingMethod.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithTimeFunc(j.clock.Now),
	)
	return j
}

type jwtAuthImpl struct {
	secret        []byte
	ttl           time.Duration
	signingMethod jwt.SigningMethod
	clock         clockwork.Clock
	parser        *jwt.Parser
}

// Sign creates an access key for the given session and identity
func (j *jwtAuthImpl) Sign(sessionID, identity string) (string, error) {
	if sessionID == "" || identity == "" {
		return "", errors.New(ErrInvalidRequest, "sessionID and identity are required")
	}

	now := j.clock.Now()
	claims := &Payload{
		SessionID: sessionID,
		Identity:  identity,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:   issuer,
			Subject:  identity,
			IssuedAt: jwt.NewNumericDate(now),
		},
	}
	if j.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(j.ttl))
	}

	token := jwt.NewWithClaims(j.signingMethod, claims)
	return token.SignedString(j.secret)
}

// Verify verifies an access key with strict algorithm validation
func (j *jwtAuthImpl) Verify(tokenString string) (*Payload, error) {
	if tokenString == "" {
		return nil, ErrNoToken
	}

	token, err := j.parser.ParseWithClaims(tokenString, &Payload{}, func(_ *jwt.Token) (any, error) {
		return j.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err, "failed to parse access key")
	}

	if claims, ok := token.Claims.(*Payload); ok && token.Valid {
		if claims.SessionID == "" || claims.Identity == "" {
			return nil, errors.New(ErrInvalidToken, "missing required fields in token")
		}
		return claims, nil
	}

	return nil, ErrInvalidToken
}
