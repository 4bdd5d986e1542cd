package token

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/imtaco/rtc-room-client/internal/errors"
)

// NewVerifier verifies provider tokens: HS256 only, issuer must be the api key.
func NewVerifier(apiKey, apiSecret string) Verifier {
	return &verifierImpl{
		secret: []byte(apiSecret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(apiKey),
			jwt.WithExpirationRequired(),
		),
	}
}

type verifierImpl struct {
	secret []byte
	parser *jwt.Parser
}

func (v *verifierImpl) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrNoToken
	}

	tok, err := v.parser.ParseWithClaims(raw, &Claims{}, func(_ *jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, errors.Wrap(ErrInvalidToken, err, "failed to parse token")
	}

	claims, ok := tok.Claims.(*Claims)
	if !ok || !tok.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Video == nil {
		return nil, errors.New(ErrInvalidToken, "token carries no video grant")
	}
	// join tokens must name both the participant and the room
	if claims.Video.RoomJoin && (claims.Subject == "" || claims.Video.Room == "") {
		return nil, errors.New(ErrInvalidToken, "missing required fields in token")
	}
	return claims, nil
}
