package utils

import "golang.org/x/crypto/bcrypt"

// MaxPasswordBytes is the longest secret bcrypt will hash without truncation.
const MaxPasswordBytes = 72

// HashPassword hashes plain for storage in users.password_hash.  A cost
// outside bcrypt's accepted range falls back to bcrypt.DefaultCost so a
// misconfigured BCRYPT_COST never blocks registration.
func HashPassword(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// VerifyPassword reports whether plain matches the stored hash.  An empty
// hash never matches.
func VerifyPassword(hash, plain string) bool {
	if hash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
