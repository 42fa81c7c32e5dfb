package domain

import (
	"crypto/rand"
	"fmt"
	"time"
)

// Badge is the issued credential for exactly one approved request.
type Badge struct {
	ID             string
	OwnerID        string
	BadgeRequestID string
	BadgeNumber    string
	IssuedAt       time.Time
	ExpiresAt      *time.Time
	ArtifactPath   *string
}

// Expired reports whether the badge is past its expiry date at now.
// Badges without an expiry never expire.
func (b *Badge) Expired(now time.Time) bool {
	return b.ExpiresAt != nil && DateOf(now).After(*b.ExpiresAt)
}

const badgeSuffixLength = 6

// GenerateBadgeNumber returns a number in the format BDG-YYYYMMDD-XXXXXX,
// where the suffix is drawn uniformly from the base32 alphabet (A-Z, 2-7).
// Uniqueness is enforced by the store, not here.
func GenerateBadgeNumber(now time.Time) string {
	return fmt.Sprintf("BDG-%s-%s", now.UTC().Format("20060102"), rand.Text()[:badgeSuffixLength])
}
