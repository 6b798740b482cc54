package auth

import "golang.org/x/crypto/bcrypt"

// BcryptCost is the work factor for password hashing.
const BcryptCost = 10

// PasswordHasher is the one-way salted hashing boundary used by the engine.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) bool
}

// BcryptHasher implements PasswordHasher with bcrypt. Each Hash call salts
// independently, so equal inputs yield different digests.
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher returns a hasher at BcryptCost.
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: BcryptCost}
}

func (h *BcryptHasher) Hash(plaintext string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
	if err != nil {
		return "", err
	}
	return string(digest), nil
}

// Verify never returns an error: any mismatch, including an empty or
// malformed digest, is simply false.
func (h *BcryptHasher) Verify(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
