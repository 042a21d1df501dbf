package transaction

import (
	"time"

	"gorm.io/datatypes"
)

type Type string
type Status string

const (
	TypeEarning Type = "earning"

	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusFailed     Status = "failed"
)

// Transaction is a money movement owed to an influencer. Earning rows are
// created by payout approval and picked up by the payment rails downstream.
type Transaction struct {
	ID           string         `gorm:"column:id;primaryKey"`
	Code         string         `gorm:"column:code;uniqueIndex"`
	Type         Type           `gorm:"column:type;type:varchar(20);not null"`
	Status       Status         `gorm:"column:status;type:varchar(20);not null;default:'pending'"`
	InfluencerID string         `gorm:"column:influencer_id;index;not null"`
	CampaignID   string         `gorm:"column:campaign_id;index"`
	TrackingID   string         `gorm:"column:tracking_id;index"`
	Amount       float64        `gorm:"column:amount;not null"`
	CurrencyCode string         `gorm:"column:currency_code;default:'USD'"`
	Description  string         `gorm:"column:description;type:text"`
	Metadata     datatypes.JSON `gorm:"column:metadata;type:jsonb"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

func (Transaction) TableName() string {
	return "transactions"
}
