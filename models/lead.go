package models

import (
	"time"

	"gorm.io/gorm"
)

// Lead pipeline stages
const (
	StatusProspect     = "PROSPECT"
	StatusProspection  = "PROSPECTION"
	StatusAttempted    = "ATTEMPTED"
	StatusQualified    = "QUALIFIED"
	StatusRdvFixe      = "RDV_FIXE"
	StatusArchived     = "ARCHIVED"
	StatusDisqualified = "DISQUALIFIED"
)

// SalesStageNew marks a lead the CRM has not claimed yet. A lead whose
// sales stage is empty or NOUVEAU is routed to prospection on ingest.
const SalesStageNew = "NOUVEAU"

// Lead represents a prospective customer captured via intake
type Lead struct {
	gorm.Model
	TenantID uint `gorm:"not null;index" json:"tenant_id"`
	BranchID int  `gorm:"index" json:"branch_id"` // external branch identifier, 0 when absent

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `gorm:"index" json:"email"`
	Phone     string `gorm:"index" json:"phone"`

	Address    string `json:"address"`
	PostalCode string `json:"postal_code"`
	City       string `json:"city"`

	Status     string `gorm:"not null;default:PROSPECTION" json:"status"`
	SalesStage string `json:"sales_stage"` // empty/NOUVEAU = not yet claimed by CRM

	Score        int    `gorm:"default:0" json:"score"` // always clamped to [0,100]
	Source       string `json:"source"`
	CallAttempts int    `gorm:"default:0" json:"call_attempts"`

	ExamCenterID int        `json:"exam_center_id"`
	ConsentAt    *time.Time `json:"consent_at"`
	RespondedAt  *time.Time `json:"responded_at"`

	// Relations
	Events      []BehavioralEvent `gorm:"foreignKey:LeadID" json:"events,omitempty"`
	Touchpoints []Touchpoint      `gorm:"foreignKey:LeadID" json:"touchpoints,omitempty"`
}

// Tenant is the owning organization (agency) a lead is routed into.
type Tenant struct {
	gorm.Model
	Name     string `gorm:"not null" json:"name"`
	IsActive bool   `gorm:"default:true" json:"is_active"`
}

// BranchMapping resolves a provider's external branch identifier to an
// internal tenant. Mappings are scoped to the tenant that owns the
// ingestion credential; routing falls back to that tenant when no
// mapping exists.
type BranchMapping struct {
	gorm.Model
	TenantID         uint `gorm:"not null;index:idx_branch_mappings_lookup" json:"tenant_id"`
	ExternalBranchID int  `gorm:"not null;index:idx_branch_mappings_lookup" json:"external_branch_id"`
	TargetTenantID   uint `gorm:"not null" json:"target_tenant_id"`
}
