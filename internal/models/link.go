package models

import "time"

// Provider identifies one of the supported OAuth providers
type Provider string

const (
	ProviderSpotify Provider = "spotify"
	ProviderGitHub  Provider = "github"
)

// ParseProvider validates a provider name taken from a URL segment
func ParseProvider(s string) (Provider, bool) {
	switch Provider(s) {
	case ProviderSpotify, ProviderGitHub:
		return Provider(s), true
	}
	return "", false
}

func (p Provider) String() string {
	return string(p)
}

// ProviderLink represents the link between an application user and one
// provider account, including the current credential set. Tokens are never
// serialized to JSON.
type ProviderLink struct {
	UserID            string     `json:"user_id" gorm:"column:user_id;primaryKey"`
	Provider          Provider   `json:"provider" gorm:"primaryKey"`
	ProviderAccountID string     `json:"provider_account_id" gorm:"not null"`
	AccessToken       string     `json:"-" gorm:"not null"`
	RefreshToken      string     `json:"-"`
	ExpiresAt         *time.Time `json:"expires_at,omitempty"`
	Scope             string     `json:"scope,omitempty"`
	UpdatedAt         time.Time  `json:"updated_at" gorm:"not null"`
}

// TableName specifies the table name for ProviderLink
func (ProviderLink) TableName() string {
	return "provider_links"
}

// Refreshable reports whether the link carries refresh capability. Links
// written from providers with non-expiring tokens record neither a refresh
// token nor an expiry and are served as stored.
func (l *ProviderLink) Refreshable() bool {
	return l.RefreshToken != "" && l.ExpiresAt != nil
}
