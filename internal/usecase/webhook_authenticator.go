package usecase

import (
	"crypto/sha256"
	"crypto/subtle"
	"strings"
)

// WebhookAuthenticator checks the shared bearer secret sent by the PIX provider.
//
// With no secret configured every request is rejected.
type WebhookAuthenticator struct {
	secretDigest [sha256.Size]byte
	configured   bool
}

func NewWebhookAuthenticator(secret string) *WebhookAuthenticator {
	secret = strings.TrimSpace(secret)
	return &WebhookAuthenticator{
		secretDigest: sha256.Sum256([]byte(secret)),
		configured:   secret != "",
	}
}

// Authenticate validates an Authorization header value of the form "Bearer <secret>".
// Both sides are hashed first so the comparison does not leak the secret length.
func (a *WebhookAuthenticator) Authenticate(authorization string) bool {
	if a == nil || !a.configured {
		return false
	}
	scheme, token, ok := strings.Cut(strings.TrimSpace(authorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	got := sha256.Sum256([]byte(token))
	return subtle.ConstantTimeCompare(got[:], a.secretDigest[:]) == 1
}
