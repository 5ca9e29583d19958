package store

import (
	"errors"
	"time"

	"leadcore/models"
)

// ErrNotFound is returned by lookups that matched nothing.
var ErrNotFound = errors.New("record not found")

// CredentialStore resolves ingestion API keys.
type CredentialStore interface {
	FindByAPIKey(key string) (*models.IngestionCredential, error)
	TouchLastUsed(credentialID uint, at time.Time) error
}

// LeadStore is the persistence collaborator for leads. The ingestion
// core only ever talks to storage through this interface.
type LeadStore interface {
	FindByID(id uint) (*models.Lead, error)
	// FindByEmail returns the lead matching (tenant, email), preferring
	// the most recently created on duplicates.
	FindByEmail(tenantID uint, email string) (*models.Lead, error)
	FindByPhone(tenantID uint, phone string) (*models.Lead, error)
	// FindLatestByEmail matches across tenants, most recent first. Used
	// by behavioral event intake where only an email is known.
	FindLatestByEmail(email string) (*models.Lead, error)
	Create(lead *models.Lead) error
	Update(lead *models.Lead) error
	SaveScore(leadID uint, score int) error
}

// BranchStore resolves external branch identifiers to internal tenants.
type BranchStore interface {
	// ResolveBranch returns the tenant mapped to (tenantID, externalBranchID),
	// or ErrNotFound when no mapping is configured.
	ResolveBranch(tenantID uint, externalBranchID int) (uint, error)
}

// JourneyStore persists the append-only behavioral event log and the
// marketing touchpoint journey.
type JourneyStore interface {
	AppendEvent(event *models.BehavioralEvent) error
	ListEvents(leadID uint) ([]models.BehavioralEvent, error)
	AppendTouchpoint(tp *models.Touchpoint) error
	// ListTouchpoints returns the lead's touchpoints ordered ascending
	// by occurrence time.
	ListTouchpoints(leadID uint) ([]models.Touchpoint, error)
	// ActiveLeadIDs returns ids of leads with behavioral activity since
	// the given time, for background score refresh.
	ActiveLeadIDs(since time.Time) ([]uint, error)
}
