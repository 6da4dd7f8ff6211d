package model

// Identity is a signed-in user as reported by the identity provider.
type Identity struct {
	UID     string `json:"uid"`
	Email   string `json:"email"`
	Name    string `json:"name"`
	Picture string `json:"picture,omitempty"`
}
