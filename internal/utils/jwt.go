package utils // package utils provides the password hashing and token signing primitives

import (
    "errors"
    "time"

    "github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for any token that fails parsing, signature
// or expiry checks.  Callers must not distinguish further.
var ErrInvalidToken = errors.New("invalid token")

// AccessToken represents a signed JWT access token along with its expiry.
type AccessToken struct {
    Token string    `json:"token"`
    Exp   time.Time `json:"expires"`
}

// Claims is the JWT payload: the account id as subject plus its role.
type Claims struct {
    Role string `json:"role"`
    jwt.RegisteredClaims
}

// JWTSigner issues and verifies HS256 access tokens.
type JWTSigner struct {
    secret []byte
    ttl    time.Duration
    now    func() time.Time
}

// NewJWTSigner builds a signer for the given secret and token lifetime.
func NewJWTSigner(secret string, ttl time.Duration) *JWTSigner {
    return &JWTSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue builds and signs an HS256 JWT whose subject is the account id.  It
// includes sub, role, exp and iat.
func (s *JWTSigner) Issue(accountID, role string) (AccessToken, error) {
    now := s.now().UTC()
    exp := now.Add(s.ttl)
    claims := Claims{
        Role: role,
        RegisteredClaims: jwt.RegisteredClaims{
            Subject:   accountID,
            ExpiresAt: jwt.NewNumericDate(exp),
            IssuedAt:  jwt.NewNumericDate(now),
        },
    }
    t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
    signed, err := t.SignedString(s.secret)
    if err != nil {
        return AccessToken{}, err
    }
    return AccessToken{Token: signed, Exp: exp}, nil
}

// Verify parses a raw token and returns its claims.  Tokens signed with a
// non-HMAC method, with a bad signature, expired, or without a subject
// yield ErrInvalidToken.
func (s *JWTSigner) Verify(raw string) (Claims, error) {
    var claims Claims
    tok, err := jwt.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
        if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
            return nil, ErrInvalidToken
        }
        return s.secret, nil
    }, jwt.WithExpirationRequired(), jwt.WithTimeFunc(s.now))
    if err != nil || !tok.Valid || claims.Subject == "" {
        return Claims{}, ErrInvalidToken
    }
    return claims, nil
}
