package auth

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/bappa-ai/gateway/internal/api"
)

// TrustLevel records which decoding path produced a Principal.
type TrustLevel int

const (
	// TrustVerified principals come from a signature-checked JWT.
	TrustVerified TrustLevel = iota
	// TrustFallback principals come from the unsigned base64 token format
	// kept for compatibility with the client-side token generator. They are
	// not cryptographically verified; surfaces that need real identity must
	// reject them.
	TrustFallback
)

func (t TrustLevel) String() string {
	if t == TrustVerified {
		return "verified"
	}
	return "fallback"
}

// Principal is the identity derived from a bearer credential. It lives for
// one request and is never persisted.
type Principal struct {
	UserID    string
	IssuedAt  time.Time
	ExpiresAt time.Time
	Trust     TrustLevel
}

// uuidPattern matches UUID versions 1-5, any case. Same check the sign-in
// frontend applies before it ever issues a token.
var uuidPattern = regexp.MustCompile(`(?i)^[0-9a-f]{8}-[0-9a-f]{4}-[1-5][0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

type tokenClaims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// fallbackToken is the unsigned JSON structure older clients base64-encode
// in place of a signed JWT. Exp and Iat are unix seconds.
type fallbackToken struct {
	UserID string `json:"userId"`
	Exp    int64  `json:"exp"`
	Iat    int64  `json:"iat"`
}

// errNotJWT marks credentials that failed cryptographic verification for a
// reason other than expiry, making them eligible for the fallback decoder.
var errNotJWT = errors.New("credential is not a verifiable jwt")

// Codec authenticates bearer credentials into Principals.
type Codec struct {
	secret []byte
	expiry time.Duration
	now    func() time.Time
}

func NewCodec(secret string, expiry time.Duration) *Codec {
	return &Codec{secret: []byte(secret), expiry: expiry, now: time.Now}
}

// Authenticate parses and verifies an Authorization header value. Every
// failure maps to one of the api auth errors; malformed input never produces
// a server fault.
func (c *Codec) Authenticate(rawHeader string) (*Principal, error) {
	if rawHeader == "" || !strings.HasPrefix(rawHeader, "Bearer ") {
		return nil, api.ErrMissingAuthHeader
	}
	credential := strings.TrimSpace(strings.TrimPrefix(rawHeader, "Bearer "))
	if credential == "" {
		return nil, api.ErrMissingToken
	}

	p, err := c.verifyJWT(credential)
	if err == nil {
		return p, nil
	}
	// An expired or malformed-payload signed token is terminal; the fallback
	// decoder is only for credentials that are not our JWTs at all.
	if !errors.Is(err, errNotJWT) {
		return nil, err
	}

	p, err = c.decodeFallback(credential)
	if err != nil {
		var appErr *api.AppError
		if errors.As(err, &appErr) {
			return nil, appErr
		}
		// Both decode paths failed: one terminal outcome.
		return nil, api.ErrInvalidFormat
	}
	return p, nil
}

func (c *Codec) verifyJWT(credential string) (*Principal, error) {
	claims := &tokenClaims{}
	parsed, err := jwt.ParseWithClaims(credential, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	}, jwt.WithTimeFunc(c.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, api.ErrTokenExpired
		}
		return nil, errNotJWT
	}
	if !parsed.Valid {
		return nil, errNotJWT
	}
	if !uuidPattern.MatchString(claims.UserID) {
		return nil, api.ErrInvalidPayload
	}

	p := &Principal{UserID: strings.ToLower(claims.UserID), Trust: TrustVerified}
	if claims.IssuedAt != nil {
		p.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		p.ExpiresAt = claims.ExpiresAt.Time
	}
	return p, nil
}

func (c *Codec) decodeFallback(credential string) (*Principal, error) {
	raw, err := base64.StdEncoding.DecodeString(credential)
	if err != nil {
		// Some clients strip padding.
		raw, err = base64.RawStdEncoding.DecodeString(credential)
		if err != nil {
			return nil, err
		}
	}

	var ft fallbackToken
	if err := json.Unmarshal(raw, &ft); err != nil {
		return nil, err
	}
	if ft.Exp != 0 && !c.now().Before(time.Unix(ft.Exp, 0)) {
		return nil, api.ErrTokenExpired
	}
	if !uuidPattern.MatchString(ft.UserID) {
		return nil, api.ErrInvalidPayload
	}

	return &Principal{
		UserID:    strings.ToLower(ft.UserID),
		IssuedAt:  time.Unix(ft.Iat, 0),
		ExpiresAt: time.Unix(ft.Exp, 0),
		Trust:     TrustFallback,
	}, nil
}

// Issue mints a signed token for userID using the codec's expiry. Used by
// the mktoken tool and by tests.
func (c *Codec) Issue(userID string) (string, error) {
	now := c.now()
	claims := tokenClaims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.expiry)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}
