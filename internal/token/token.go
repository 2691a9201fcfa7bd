// Package token encodes the signed access-link claims that stand in for
// accounts: every booking mail carries a link whose token names the
// caller's role, email and booking (or approver party). Tokens never
// expire; possession of the link is the credential.
package token

import (
	"errors"

	"github.com/gorilla/securecookie"
)

const tokenName = "access"

const (
	RoleRequester = "requester"
	RoleApprover  = "approver"
)

var ErrInvalid = errors.New("invalid token")

type Claims struct {
	Role      string `json:"role"`
	Email     string `json:"email"`
	BookingID string `json:"booking_id,omitempty"`
	Party     string `json:"party,omitempty"`
	IssuedAt  int64  `json:"iat"`
}

type Codec struct {
	sc *securecookie.SecureCookie
}

// New builds a codec from a 32-byte HMAC key and an optional 16/24/32
// byte encryption key (nil for signed-but-readable tokens).
func New(hashKey, blockKey []byte) *Codec {
	sc := securecookie.New(hashKey, blockKey)
	sc.SetSerializer(securecookie.JSONEncoder{})
	sc.MaxAge(0) // links never expire
	return &Codec{sc: sc}
}

func (c *Codec) Encode(claims Claims) (string, error) {
	return c.sc.Encode(tokenName, claims)
}

func (c *Codec) Decode(raw string) (Claims, error) {
	var claims Claims
	if err := c.sc.Decode(tokenName, raw, &claims); err != nil {
		return Claims{}, ErrInvalid
	}
	if claims.Role != RoleRequester && claims.Role != RoleApprover {
		return Claims{}, ErrInvalid
	}
	return claims, nil
}
