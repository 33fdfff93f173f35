package hash

// Hasher is the one-way credential transform. Verify reports false for a
// mismatch or a malformed hash string; it never errors on attacker-controlled
// input.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encodedHash string) bool
}
