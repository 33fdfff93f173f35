package hash

import (
	"github.com/alexedwards/argon2id"
)

var argonParams = &argon2id.Params{
	Memory:      64 * 1024, // 64 MiB
	Iterations:  2,
	Parallelism: 4,
	SaltLength:  16,
	KeyLength:   32,
}

// Argon2Hasher hashes passwords with argon2id, mixing in a server-side
// pepper before hashing.
type Argon2Hasher struct {
	pepper string
}

func NewArgon2Hasher(pepper string) *Argon2Hasher {
	return &Argon2Hasher{pepper: pepper}
}

func (h *Argon2Hasher) Hash(password string) (string, error) {
	return argon2id.CreateHash(password+h.pepper, argonParams)
}

func (h *Argon2Hasher) Verify(password, encodedHash string) bool {
	ok, err := argon2id.ComparePasswordAndHash(password+h.pepper, encodedHash)
	if err != nil {
		// malformed hash string, not a caller-visible failure
		return false
	}
	return ok
}
