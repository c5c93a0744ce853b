package entity

import "errors"

var ErrAuthRequired = errors.New("authentication required: no private key available")

// Credential carries the caller's signing key through a single request.
// The key never appears in logs or formatted output.
type Credential struct {
	UserID     string
	privateKey string
}

func NewCredential(userID, privateKey string) Credential {
	return Credential{UserID: userID, privateKey: privateKey}
}

func (c Credential) PrivateKey() (string, error) {
	if c.privateKey == "" {
		return "", ErrAuthRequired
	}
	return c.privateKey, nil
}

func (c Credential) HasKey() bool {
	return c.privateKey != ""
}

func (c Credential) String() string {
	return "credential(" + c.UserID + ")"
}

func (c Credential) GoString() string {
	return c.String()
}
