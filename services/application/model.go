package application

import (
	"time"

	"gorm.io/datatypes"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Application is an influencer's request to join a campaign. One application
// per (campaign, influencer); the unique index enforces it under concurrency.
type Application struct {
	ID           string         `gorm:"column:id;primaryKey"`
	Code         string         `gorm:"column:code;uniqueIndex"`
	CampaignID   string         `gorm:"column:campaign_id;uniqueIndex:idx_application_campaign_influencer;not null"`
	InfluencerID string         `gorm:"column:influencer_id;uniqueIndex:idx_application_campaign_influencer;not null"`
	Status       Status         `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	Pitch        string         `gorm:"column:pitch;type:text"`
	ContentURL   string         `gorm:"column:content_url"`
	Platform     string         `gorm:"column:platform;type:varchar(20)"`
	ReviewNote   string         `gorm:"column:review_note;type:text"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	ReviewedAt   *time.Time     `gorm:"column:reviewed_at"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Application) TableName() string {
	return "campaign_applications"
}
