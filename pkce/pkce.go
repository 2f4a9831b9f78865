// Package pkce generates RFC 7636 code verifiers, S256 code challenges and state tokens.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/jrsteele09/go-pkce-client/oauthmodel"
)

const (
	// MinVerifierLength and MaxVerifierLength bound a code verifier (RFC 7636 section 4.1).
	MinVerifierLength = 43
	MaxVerifierLength = 128

	// 96 bytes encode to exactly 128 base64url characters.
	verifierEntropyBytes = 96
	// 24 bytes = 192 bits, encoded to 32 characters.
	stateEntropyBytes = 24
)

var (
	ErrEmptyVerifier   = errors.New("code verifier cannot be empty")
	ErrInvalidVerifier = errors.New("invalid code verifier")
)

// Pair is a verifier with its derived challenge.
type Pair struct {
	Verifier  string
	Challenge string
	Method    oauthmodel.CodeMethodType
}

// NewPair generates a fresh verifier and its S256 challenge.
func NewPair() (*Pair, error) {
	verifier, err := GenerateVerifier()
	if err != nil {
		return nil, err
	}
	challenge, err := DeriveChallenge(verifier)
	if err != nil {
		return nil, err
	}
	return &Pair{
		Verifier:  verifier,
		Challenge: challenge,
		Method:    oauthmodel.CodeMethodTypeS256,
	}, nil
}

// GenerateVerifier returns a 128 character verifier from the base64url alphabet,
// which is a subset of the RFC 7636 unreserved set.
func GenerateVerifier() (string, error) {
	return randomString(verifierEntropyBytes)
}

// DeriveChallenge computes BASE64URL-NOPAD(SHA256(ASCII(verifier))).
func DeriveChallenge(verifier string) (string, error) {
	if verifier == "" {
		return "", ErrEmptyVerifier
	}
	hash := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(hash[:]), nil
}

// ValidVerifier checks length and character set of a verifier received from elsewhere.
func ValidVerifier(verifier string) error {
	if verifier == "" {
		return ErrEmptyVerifier
	}
	if len(verifier) < MinVerifierLength || len(verifier) > MaxVerifierLength {
		return fmt.Errorf("%w: length must be between %d and %d, got %d", ErrInvalidVerifier, MinVerifierLength, MaxVerifierLength, len(verifier))
	}
	for i := 0; i < len(verifier); i++ {
		if !isUnreserved(verifier[i]) {
			return fmt.Errorf("%w: character at position %d is not unreserved", ErrInvalidVerifier, i)
		}
	}
	return nil
}

// GenerateState returns an unguessable URL-safe state token.
func GenerateState() (string, error) {
	return randomString(stateEntropyBytes)
}

func randomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// unreserved = ALPHA / DIGIT / "-" / "." / "_" / "~"
func isUnreserved(c byte) bool {
	switch {
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z', c >= '0' && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}
