package campaign

import (
	"time"

	"gorm.io/datatypes"
)

type PaymentModel string
type Status string

const (
	PaymentModelCPM   PaymentModel = "cpm"
	PaymentModelFixed PaymentModel = "fixed"

	StatusDraft     Status = "draft"
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCompleted Status = "completed"
)

// Campaign is a brand-owned sponsored-content campaign. For CPM campaigns
// cpm_rate is the payout per 1000 tracked views and max_views caps the
// billable view count.
type Campaign struct {
	ID           string         `gorm:"column:id;primaryKey"`
	BrandID      string         `gorm:"column:brand_id;index;not null"`
	Code         string         `gorm:"column:code;uniqueIndex"`
	Slug         string         `gorm:"column:slug;index"`
	Name         string         `gorm:"column:name;type:varchar(255);not null"`
	Description  string         `gorm:"column:description;type:text"`
	PaymentModel PaymentModel   `gorm:"column:payment_model;type:varchar(20);not null;default:'cpm'"`
	CPMRate      float64        `gorm:"column:cpm_rate"`
	MaxViews     int64          `gorm:"column:max_views"`
	FixedFee     float64        `gorm:"column:fixed_fee"`
	Budget       float64        `gorm:"column:budget"`
	Platforms    datatypes.JSON `gorm:"column:platforms;type:jsonb"`
	Status       Status         `gorm:"column:status;type:varchar(20);not null;default:'draft'"`
	StartAt      *time.Time     `gorm:"column:start_at"`
	EndAt        *time.Time     `gorm:"column:end_at"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Campaign) TableName() string {
	return "campaigns"
}

// IsActive checks if the campaign is currently running based on status and
// time range.
func (c *Campaign) IsActive(now time.Time) bool {
	if c.Status != StatusActive {
		return false
	}
	if c.StartAt != nil && now.Before(*c.StartAt) {
		return false
	}
	if c.EndAt != nil && now.After(*c.EndAt) {
		return false
	}
	return true
}

// validStatusTransitions gates lifecycle moves; anything absent is rejected.
var validStatusTransitions = map[Status][]Status{
	StatusDraft:  {StatusActive},
	StatusActive: {StatusPaused, StatusCompleted},
	StatusPaused: {StatusActive, StatusCompleted},
}

func canTransition(from, to Status) bool {
	for _, allowed := range validStatusTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
