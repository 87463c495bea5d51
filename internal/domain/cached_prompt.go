package domain

import (
	"regexp"
	"time"
)

// cacheHandlePattern is the wire format every cache handle must match before
// it is used in a setup message (spec §3, §4.3).
var cacheHandlePattern = regexp.MustCompile(`^cachedContents/[A-Za-z0-9_-]+$`)

// ValidCacheHandle reports whether handle matches the model endpoint's
// expected cache handle format.
func ValidCacheHandle(handle string) bool {
	return cacheHandlePattern.MatchString(handle)
}

// CachedPrompt is the per-agent remote cached-prompt handle maintained by
// the Context Cache Manager. Invariant: one live handle per agent
// in-process; RefreshTTL resets ExpectedExpiry without changing Handle.
type CachedPrompt struct {
	AgentID        string
	Handle         string
	CreatedAt      time.Time
	ExpectedExpiry time.Time
	CharacterCount int
	DocumentCount  int
}

// Expired reports whether the handle's TTL has lapsed as of now.
func (c *CachedPrompt) Expired(now time.Time) bool {
	return !c.ExpectedExpiry.After(now)
}
