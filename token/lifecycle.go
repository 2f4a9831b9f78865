package token

import (
	"fmt"
	"time"

	"github.com/jrsteele09/go-pkce-client/internal/config"
	"github.com/jrsteele09/go-pkce-client/oauthmodel"
)

// DefaultExpirySkew is used when no skew is configured.
const DefaultExpirySkew = 60 * time.Second

// IsExpiringSoon reports whether the access token expires within skew of now.
// A token whose lifetime is unknown (ExpiresIn == 0) never reports expiring.
func IsExpiringSoon(ts *oauthmodel.TokenSet, now time.Time, skew time.Duration) bool {
	expiresAt, ok := ts.ExpiresAt()
	if !ok {
		return false
	}
	return expiresAt.Sub(now) <= skew
}

// RotationPolicy decides what a refresh response without a refresh_token means.
type RotationPolicy int

const (
	// RetainOnAbsent keeps the previous refresh token: the provider does not rotate.
	RetainOnAbsent RotationPolicy = iota
	// DropOnAbsent forgets the previous refresh token: the provider rotates strictly and
	// the presented token has been spent.
	DropOnAbsent
)

func (p RotationPolicy) String() string {
	switch p {
	case RetainOnAbsent:
		return config.RefreshRotationRetain
	case DropOnAbsent:
		return config.RefreshRotationDrop
	}
	return fmt.Sprintf("RotationPolicy(%d)", int(p))
}

// ParseRotationPolicy maps the REFRESH_ROTATION setting to a policy. Empty means retain.
func ParseRotationPolicy(s string) (RotationPolicy, error) {
	switch s {
	case "", config.RefreshRotationRetain:
		return RetainOnAbsent, nil
	case config.RefreshRotationDrop:
		return DropOnAbsent, nil
	}
	return RetainOnAbsent, fmt.Errorf("unknown refresh rotation policy %q", s)
}

// Apply merges a refresh response into the previous token set.
// The returned set is a new value; neither argument is modified.
func (p RotationPolicy) Apply(previous, refreshed *oauthmodel.TokenSet) *oauthmodel.TokenSet {
	merged := refreshed.Clone()
	if merged == nil {
		return nil
	}
	if merged.RefreshToken == "" && p == RetainOnAbsent && previous != nil {
		merged.RefreshToken = previous.RefreshToken
	}
	if merged.Scope == "" && previous != nil {
		// RFC 6749 section 5.1: scope omitted means identical to the scope requested
		merged.Scope = previous.Scope
	}
	return merged
}
