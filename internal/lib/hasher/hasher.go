// Package hasher is the only place passwords are hashed or compared,
// so plaintext never travels further than the call site.
package hasher

import "golang.org/x/crypto/bcrypt"

// Cost is fixed; bumping it only affects newly stored hashes.
const cost = 10

func Hash(password string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(password), cost)
}

func Verify(password string, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
