package hash

// Hash turns a plaintext secret into its storable form and checks a
// plaintext candidate against a stored value.
type Hash interface {
	// Hash returns the storable representation of str.
	Hash(str string) ([]byte, error)
	// Verify reports whether str matches the stored hashed value.
	Verify(hashed, str string) bool
}
