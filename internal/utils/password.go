package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword bcrypt-hashes plain.  A cost outside bcrypt's accepted range
// falls back to bcrypt.DefaultCost so a misconfigured BCRYPT_COST never
// blocks signups.
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

// VerifyPassword reports whether plain matches the stored hash.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
