// Package auth is the storefront's placeholder login gate. It recognizes a
// single configured credential pair and answers yes or no. It is explicitly
// not a security component: there are no accounts, tokens, or roles.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
)

// Gate answers whether a username/password pair is recognized.
type Gate interface {
	Authenticate(username, password string) bool
}

var _ Gate = (*StaticGate)(nil)

// StaticGate recognizes exactly one credential pair, fixed at construction.
// Comparison runs over SHA-256 digests in constant time so the gate at
// least does not leak which half of the pair was wrong.
type StaticGate struct {
	userDigest [sha256.Size]byte
	passDigest [sha256.Size]byte
}

// NewStaticGate creates a gate for the given credential pair.
func NewStaticGate(username, password string) *StaticGate {
	return &StaticGate{
		userDigest: sha256.Sum256([]byte(username)),
		passDigest: sha256.Sum256([]byte(password)),
	}
}

// Authenticate reports whether both halves of the pair match.
func (g *StaticGate) Authenticate(username, password string) bool {
	u := sha256.Sum256([]byte(username))
	p := sha256.Sum256([]byte(password))

	userOK := subtle.ConstantTimeCompare(u[:], g.userDigest[:])
	passOK := subtle.ConstantTimeCompare(p[:], g.passDigest[:])
	return userOK&passOK == 1
}
