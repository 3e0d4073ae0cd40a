package service

// PinHasher defines the interface for hashing and verifying the operator PIN
// that gates the admin notification panel.
type PinHasher interface {
	// Hash generates a salted hash from a plaintext PIN.
	Hash(pin string) (string, error)

	// Check compares a plaintext PIN with a stored hash.
	Check(pin, hash string) bool
}
