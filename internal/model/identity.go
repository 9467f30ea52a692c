package model

// Identity is a deduplicated contact record. Key is the normalized form of
// the address (see internal/identity); the same address always maps to the
// same key.
type Identity struct {
	Key   string `json:"key"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}
