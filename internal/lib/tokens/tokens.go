package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	opaqueTokenBytes = 30
	resetPurpose     = "password_reset"
)

// NewOpaqueToken returns a random bearer credential. Opaque tokens carry no
// structure; they are matched byte-for-byte against the session store.
func NewOpaqueToken() (string, error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tokens.NewOpaqueToken: %w", err)
	}

	return base64.StdEncoding.EncodeToString(buf), nil
}

// Issuer signs and parses password-reset tokens. The token is self-contained:
// user id, email and expiry are all in the signed payload, nothing is stored.
type Issuer struct {
	secret []byte
	ttl    time.Duration
}

func NewIssuer(secret string, ttl time.Duration) *Issuer {
	return &Issuer{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

type ResetClaims struct {
	UserID    string
	Email     string
	ExpiresAt time.Time
}

func (c ResetClaims) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

func (i *Issuer) SignReset(userID, email string) (string, error) {
	claims := jwt.MapClaims{
		"sub":     userID,
		"email":   email,
		"purpose": resetPurpose,
		"exp":     time.Now().Add(i.ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(i.secret)
}

// ParseReset checks the signature and shape of a reset token. It deliberately
// does not reject expired tokens: the reset flow compares ExpiresAt against
// its own clock so the expiry failure is reported distinctly from tampering.
func (i *Issuer) ParseReset(tokenStr string) (ResetClaims, error) {
	const op = "tokens.ParseReset"

	claims := jwt.MapClaims{}

	parsed, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("%s: unexpected signing method", op)
		}
		return i.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return ResetClaims{}, fmt.Errorf("%s: failed to parse token: %w", op, err)
	}

	if !parsed.Valid {
		return ResetClaims{}, fmt.Errorf("%s: invalid token", op)
	}

	if purpose, ok := claims["purpose"].(string); !ok || purpose != resetPurpose {
		return ResetClaims{}, fmt.Errorf("%s: invalid token purpose", op)
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return ResetClaims{}, fmt.Errorf("%s: missing sub claim", op)
	}

	email, ok := claims["email"].(string)
	if !ok {
		return ResetClaims{}, fmt.Errorf("%s: missing email claim", op)
	}

	expFloat, ok := claims["exp"].(float64)
	if !ok {
		return ResetClaims{}, fmt.Errorf("%s: missing exp claim", op)
	}

	return ResetClaims{
		UserID:    sub,
		Email:     email,
		ExpiresAt: time.Unix(int64(expFloat), 0),
	}, nil
}
