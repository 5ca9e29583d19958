package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// IngestionCredential maps an opaque API key to a provider identity and
// its owning tenant. Lifecycle (creation, rotation, revocation) is
// managed elsewhere; ingestion only ever reads these.
type IngestionCredential struct {
	gorm.Model
	TenantID uint   `gorm:"not null;index" json:"tenant_id"`
	Provider string `gorm:"not null" json:"provider"`

	Key      string     `gorm:"uniqueIndex;not null" json:"key"`
	IsActive bool       `gorm:"default:true" json:"is_active"`
	LastUsed *time.Time `json:"last_used"`

	// Comma-separated list of allowed source IPs. Empty means any IP.
	AllowedIPs string `json:"allowed_ips"`

	Tenant Tenant `json:"-"`
}

// IPAllowed reports whether the given source IP may use this credential.
// An empty allowlist admits any IP. An unresolvable IP ("unknown") can
// never match a configured entry, so allowlisted keys fail closed
// behind proxies that strip forwarding headers.
func (c *IngestionCredential) IPAllowed(sourceIP string) bool {
	allowlist := strings.TrimSpace(c.AllowedIPs)
	if allowlist == "" {
		return true
	}
	for _, entry := range strings.Split(allowlist, ",") {
		if strings.TrimSpace(entry) == sourceIP {
			return true
		}
	}
	return false
}
