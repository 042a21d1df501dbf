package tracking

import "time"

type PayoutStatus string

const (
	PayoutStatusPending  PayoutStatus = "pending"
	PayoutStatusApproved PayoutStatus = "approved"
)

// ViewTracking is the ledger row for one campaign/influencer pair. The
// composite unique index is the natural key: concurrent first inserts for the
// same pair collide in the storage engine instead of duplicating rows.
// views_tracked and payout_calculated are derived on every update and never
// settable by callers.
type ViewTracking struct {
	ID               string       `gorm:"column:id;primaryKey"`
	CampaignID       string       `gorm:"column:campaign_id;uniqueIndex:idx_tracking_campaign_influencer;not null"`
	InfluencerID     string       `gorm:"column:influencer_id;uniqueIndex:idx_tracking_campaign_influencer;not null"`
	SubmissionID     string       `gorm:"column:submission_id;index"`
	InstagramViews   int64        `gorm:"column:instagram_views;not null;default:0"`
	TikTokViews      int64        `gorm:"column:tiktok_views;not null;default:0"`
	ViewsTracked     int64        `gorm:"column:views_tracked;not null;default:0"`
	PayoutCalculated float64      `gorm:"column:payout_calculated;not null;default:0"`
	PayoutStatus     PayoutStatus `gorm:"column:payout_status;type:varchar(20);not null;default:'pending'"`
	LastCheckedAt    time.Time    `gorm:"column:last_checked_at"`
	CreatedAt        time.Time    `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time    `gorm:"column:updated_at;autoUpdateTime"`
}

func (ViewTracking) TableName() string {
	return "campaign_view_tracking"
}
