package utils

import "golang.org/x/crypto/bcrypt"

// BcryptHasher hashes passwords with a fixed bcrypt cost.
type BcryptHasher struct {
	Cost int
}

// NewBcryptHasher returns a hasher; costs outside bcrypt's range fall back
// to bcrypt.DefaultCost.
func NewBcryptHasher(cost int) BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return BcryptHasher{Cost: cost}
}

// Hash returns bcrypt hash using the configured cost.
func (h BcryptHasher) Hash(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), h.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify safely compares bcrypt hash and plain password.
func (h BcryptHasher) Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
