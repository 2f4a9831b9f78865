package token_test

import (
	"testing"
	"time"

	"github.com/jrsteele09/go-pkce-client/oauthmodel"
	"github.com/jrsteele09/go-pkce-client/token"
	"github.com/stretchr/testify/require"
)

func TestIsExpiringSoon(t *testing.T) {
	ts := &oauthmodel.TokenSet{AccessToken: "t1", ExpiresIn: 3600, IssuedAt: fixedNow}
	thirtySecondsLeft := fixedNow.Add(3600*time.Second - 30*time.Second)

	tests := []struct {
		name string
		ts   *oauthmodel.TokenSet
		now  time.Time
		skew time.Duration
		want bool
	}{
		{name: "within a 60s skew", ts: ts, now: thirtySecondsLeft, skew: 60 * time.Second, want: true},
		{name: "outside a 10s skew", ts: ts, now: thirtySecondsLeft, skew: 10 * time.Second, want: false},
		{name: "exactly at the skew", ts: ts, now: thirtySecondsLeft, skew: 30 * time.Second, want: true},
		{name: "fresh token", ts: ts, now: fixedNow, skew: 60 * time.Second, want: false},
		{name: "already expired", ts: ts, now: fixedNow.Add(2 * time.Hour), skew: 0, want: true},
		{name: "unknown lifetime", ts: &oauthmodel.TokenSet{AccessToken: "t1", IssuedAt: fixedNow}, now: fixedNow.Add(48 * time.Hour), skew: time.Minute, want: false},
		{name: "nil token set", ts: nil, now: fixedNow, skew: time.Minute, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, token.IsExpiringSoon(tt.ts, tt.now, tt.skew))
		})
	}
}

func TestParseRotationPolicy(t *testing.T) {
	for input, want := range map[string]token.RotationPolicy{
		"":       token.RetainOnAbsent,
		"retain": token.RetainOnAbsent,
		"drop":   token.DropOnAbsent,
	} {
		got, err := token.ParseRotationPolicy(input)
		require.NoError(t, err, input)
		require.Equal(t, want, got, input)
	}

	_, err := token.ParseRotationPolicy("sometimes")
	require.Error(t, err)
}

func TestRotationPolicy_Apply(t *testing.T) {
	previous := &oauthmodel.TokenSet{AccessToken: "t1", RefreshToken: "r0", Scope: "accounts:read", IssuedAt: fixedNow}

	t.Run("retain keeps previous refresh token", func(t *testing.T) {
		merged := token.RetainOnAbsent.Apply(previous, &oauthmodel.TokenSet{AccessToken: "t2"})
		require.Equal(t, "t2", merged.AccessToken)
		require.Equal(t, "r0", merged.RefreshToken)
		require.Equal(t, "accounts:read", merged.Scope)
	})

	t.Run("drop forgets previous refresh token", func(t *testing.T) {
		merged := token.DropOnAbsent.Apply(previous, &oauthmodel.TokenSet{AccessToken: "t2"})
		require.Empty(t, merged.RefreshToken)
	})

	t.Run("rotated token always wins", func(t *testing.T) {
		for _, policy := range []token.RotationPolicy{token.RetainOnAbsent, token.DropOnAbsent} {
			merged := policy.Apply(previous, &oauthmodel.TokenSet{AccessToken: "t2", RefreshToken: "r1", Scope: "accounts:read profiles:read"})
			require.Equal(t, "r1", merged.RefreshToken, policy.String())
			require.Equal(t, "accounts:read profiles:read", merged.Scope, policy.String())
		}
	})

	t.Run("arguments are not modified", func(t *testing.T) {
		refreshed := &oauthmodel.TokenSet{AccessToken: "t2"}
		_ = token.RetainOnAbsent.Apply(previous, refreshed)
		require.Empty(t, refreshed.RefreshToken)
		require.Equal(t, "r0", previous.RefreshToken)
	})
}
