// Package expiry holds the pure time arithmetic behind pass validity and
// store retention.
package expiry

import "time"

// DefaultTTL is the validity window applied when a caller supplies none.
const DefaultTTL = 24 * time.Hour

// DefaultWindow returns [now, now+ttl]. A non-positive ttl falls back to
// DefaultTTL.
func DefaultWindow(now time.Time, ttl time.Duration) (validFrom, validTo time.Time) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return now, now.Add(ttl)
}

// IsExpired reports whether now is strictly after validTo.
func IsExpired(now, validTo time.Time) bool {
	return now.After(validTo)
}

// IsStale reports whether more than retention has elapsed since ref.
func IsStale(now, ref time.Time, retention time.Duration) bool {
	return now.Sub(ref) > retention
}
