package utils

import "golang.org/x/crypto/bcrypt"

// HashPassword derives the bcrypt hash stored in the users table. Cost
// comes from configuration so tests can run at bcrypt.MinCost while
// production uses a slower setting.
func HashPassword(plain string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyPassword reports whether plain matches the stored hash. The
// boolean deliberately hides whether the hash was malformed or the
// password wrong; the login flow answers a uniform 401 either way.
func VerifyPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}
