package domain

import "fmt"

// ProviderType names the external calendar personal events are mirrored to.
type ProviderType string

const (
	// ProviderNone keeps personal events in the local store only.
	ProviderNone ProviderType = "none"
	// ProviderGoogle is Google Calendar (OAuth2 + Calendar API v3).
	ProviderGoogle ProviderType = "google"
	// ProviderCalDAV is any CalDAV server (Apple, Fastmail, Nextcloud).
	ProviderCalDAV ProviderType = "caldav"
)

// String returns the string representation of the provider type.
func (p ProviderType) String() string {
	return string(p)
}

// IsValid returns true if the provider type is recognized.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderNone, ProviderGoogle, ProviderCalDAV:
		return true
	default:
		return false
	}
}

// RequiresOAuth returns true if the provider uses OAuth2 for authentication.
func (p ProviderType) RequiresOAuth() bool {
	return p == ProviderGoogle
}

// ParseProviderType parses a configured provider name. Empty means none.
func ParseProviderType(s string) (ProviderType, error) {
	if s == "" {
		return ProviderNone, nil
	}
	p := ProviderType(s)
	if !p.IsValid() {
		return "", fmt.Errorf("unknown calendar provider %q", s)
	}
	return p, nil
}
