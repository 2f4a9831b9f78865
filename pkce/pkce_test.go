package pkce_test

import (
	"strings"
	"testing"

	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/jrsteele09/go-pkce-client/pkce"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	// RFC 7636 appendix B
	rfcVerifier  = "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	rfcChallenge = "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"
)

func TestGenerateVerifier(t *testing.T) {
	for i := 0; i < 100; i++ {
		verifier, err := pkce.GenerateVerifier()
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(verifier), pkce.MinVerifierLength)
		require.LessOrEqual(t, len(verifier), pkce.MaxVerifierLength)
		require.Regexp(t, "^[A-Za-z0-9._~-]+$", verifier)
		require.NoError(t, pkce.ValidVerifier(verifier))
	}
}

func TestDeriveChallenge(t *testing.T) {
	t.Run("rfc vector", func(t *testing.T) {
		challenge, err := pkce.DeriveChallenge(rfcVerifier)
		require.NoError(t, err)
		require.Equal(t, rfcChallenge, challenge)
	})

	t.Run("deterministic", func(t *testing.T) {
		verifier, err := pkce.GenerateVerifier()
		require.NoError(t, err)

		first, err := pkce.DeriveChallenge(verifier)
		require.NoError(t, err)
		second, err := pkce.DeriveChallenge(verifier)
		require.NoError(t, err)
		require.Equal(t, first, second)
		require.Len(t, first, 43)
		require.NotContains(t, first, "=")
	})

	t.Run("empty verifier", func(t *testing.T) {
		challenge, err := pkce.DeriveChallenge("")
		require.ErrorIs(t, err, pkce.ErrEmptyVerifier)
		require.Empty(t, challenge)
	})
}

func TestValidVerifier(t *testing.T) {
	tests := []struct {
		name     string
		verifier string
		wantErr  error
	}{
		{"rfc vector", rfcVerifier, nil},
		{"all unreserved", strings.Repeat("aZ9-._~", 7), nil},
		{"max length", strings.Repeat("a", 128), nil},
		{"empty", "", pkce.ErrEmptyVerifier},
		{"too short", strings.Repeat("a", 42), pkce.ErrInvalidVerifier},
		{"too long", strings.Repeat("a", 129), pkce.ErrInvalidVerifier},
		{"reserved character", strings.Repeat("a", 42) + "+", pkce.ErrInvalidVerifier},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pkce.ValidVerifier(tt.verifier)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewPair(t *testing.T) {
	pair, err := pkce.NewPair()
	require.NoError(t, err)
	require.Equal(t, oauthmodel.CodeMethodTypeS256, pair.Method)

	challenge, err := pkce.DeriveChallenge(pair.Verifier)
	require.NoError(t, err)
	require.Equal(t, challenge, pair.Challenge)
	require.NotEqual(t, pair.Verifier, pair.Challenge)
}

func TestGenerateState(t *testing.T) {
	const n = 10000
	seen := make(map[string]struct{}, n)
	for i := 0; i < n; i++ {
		state, err := pkce.GenerateState()
		require.NoError(t, err)
		require.Len(t, state, 32)
		require.Regexp(t, "^[A-Za-z0-9_-]+$", state)
		_, dup := seen[state]
		require.False(t, dup, "state collision after %d values", i)
		seen[state] = struct{}{}
	}
}
