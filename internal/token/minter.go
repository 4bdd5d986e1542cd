package token

import (
	"time"

	"github.com/livekit/protocol/auth"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

type MinterOption func(*minterImpl)

// WithDefaultTTL sets the validity used when a request leaves ValidFor zero.
func WithDefaultTTL(ttl time.Duration) MinterOption {
	return func(m *minterImpl) {
		if ttl > 0 {
			m.defaultTTL = ttl
		}
	}
}

// NewMinter creates a minter signing with the provider api key/secret pair.
// Signing is done by the provider's auth library, the result is decoded
// once so the reported expiry is the one written into the token.
func NewMinter(apiKey, apiSecret string, opts ...MinterOption) Minter {
	m := &minterImpl{
		apiKey:     apiKey,
		apiSecret:  apiSecret,
		defaultTTL: DefaultTTL,
		verifier:   NewVerifier(apiKey, apiSecret),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

type minterImpl struct {
	apiKey     string
	apiSecret  string
	defaultTTL time.Duration
	verifier   Verifier
}

func (m *minterImpl) checkKeys() error {
	if m.apiKey == "" || m.apiSecret == "" {
		return ErrMissingCredentials
	}
	return nil
}

func (m *minterImpl) Mint(req MintRequest) (*Credential, error) {
	if err := m.checkKeys(); err != nil {
		return nil, err
	}
	if req.Identity == "" || req.Room == "" {
		return nil, errors.New(ErrInvalidRequest, "identity and room are required")
	}

	name := req.Name
	if name == "" {
		name = req.Identity
	}
	validFor := req.ValidFor
	if validFor <= 0 {
		validFor = m.defaultTTL
	}

	grant := &auth.VideoGrant{
		RoomJoin: true,
		Room:     req.Room,
	}
	grant.SetCanPublish(req.CanPublish)
	grant.SetCanSubscribe(req.CanSubscribe)
	grant.SetCanPublishData(req.CanPublishData)

	at := auth.NewAccessToken(m.apiKey, m.apiSecret).
		SetIdentity(req.Identity).
		SetName(name).
		SetValidFor(validFor).
		SetVideoGrant(grant)
	if req.Metadata != "" {
		at.SetMetadata(req.Metadata)
	}

	raw, err := at.ToJWT()
	if err != nil {
		return nil, errors.Wrap(ErrSignFailed, err, "failed to sign access token")
	}

	claims, err := m.verifier.Verify(raw)
	if err != nil {
		return nil, errors.Wrap(ErrSignFailed, err, "minted token does not verify")
	}

	return &Credential{
		Token:     raw,
		Identity:  req.Identity,
		Room:      req.Room,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// MintAdmin mints a token allowed to administer (list, remove participants) the room,
// for operator tools. The room service client signs its own grants.
// An empty room grants admin over every room.
func (m *minterImpl) MintAdmin(room string, validFor time.Duration) (string, error) {
	if err := m.checkKeys(); err != nil {
		return "", err
	}
	if validFor <= 0 {
		validFor = m.defaultTTL
	}

	grant := &auth.VideoGrant{
		RoomAdmin: true,
		RoomList:  true,
		Room:      room,
	}
	raw, err := auth.NewAccessToken(m.apiKey, m.apiSecret).
		SetValidFor(validFor).
		SetVideoGrant(grant).
		ToJWT()
	if err != nil {
		return "", errors.Wrap(ErrSignFailed, err, "failed to sign admin token")
	}
	return raw, nil
}
