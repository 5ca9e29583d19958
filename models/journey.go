package models

import (
	"time"

	"gorm.io/gorm"
)

// Behavioral event types. Anything else is treated as unrecognized by
// the scoring engine and contributes zero weight.
const (
	EventPageView        = "PAGE_VIEW"
	EventFormInteraction = "FORM_INTERACTION"
	EventEmailOpen       = "EMAIL_OPEN"
	EventEmailClick      = "EMAIL_CLICK"
	EventPricingView     = "PRICING_VIEW"
	EventDownload        = "DOWNLOAD"
)

// Touchpoint types
const (
	TouchAdClick         = "AD_CLICK"
	TouchPageView        = "PAGE_VIEW"
	TouchChatInteraction = "CHAT_INTERACTION"
	TouchLeadGeneration  = "LEAD_GENERATION"
)

// BehavioralEvent is an append-only engagement signal tied to a lead.
// Events are never mutated or deleted.
type BehavioralEvent struct {
	gorm.Model
	LeadID uint `gorm:"not null;index" json:"lead_id"`

	EventType  string    `gorm:"not null" json:"event_type"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`
	Metadata   string    `gorm:"type:text" json:"metadata"` // JSON details if needed

	Lead Lead `json:"-"`
}

// Touchpoint is an append-only marketing-journey entry tied to a lead,
// totally ordered by OccurredAt. Attribution is meaningless without
// this order.
type Touchpoint struct {
	gorm.Model
	LeadID uint `gorm:"not null;index" json:"lead_id"`

	TouchType  string    `gorm:"not null" json:"touch_type"`
	Source     string    `gorm:"not null" json:"source"`
	Medium     string    `json:"medium"`
	Campaign   string    `json:"campaign"`
	OccurredAt time.Time `gorm:"not null;index" json:"occurred_at"`

	Lead Lead `json:"-"`
}
