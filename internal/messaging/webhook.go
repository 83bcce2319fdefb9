package messaging

import (
	"crypto/subtle"
	"errors"
)

var ErrForbidden = errors.New("webhook verification failed")

const modeSubscribe = "subscribe"

// Verifier answers the platform's subscription handshake.
type Verifier struct {
	secret string
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// Verify returns challenge when mode is "subscribe" and token matches the
// configured secret. An empty secret never verifies.
func (v *Verifier) Verify(mode, token, challenge string) (string, error) {
	if v.secret == "" || mode != modeSubscribe {
		return "", ErrForbidden
	}
	if subtle.ConstantTimeCompare([]byte(token), []byte(v.secret)) != 1 {
		return "", ErrForbidden
	}
	return challenge, nil
}
