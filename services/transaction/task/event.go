package task

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeEarningRecorded = "transaction:earning.recorded"

// EarningRecordedPayload is handed to the payout worker once an earning
// transaction exists. The worker decides which payment rail picks it up.
type EarningRecordedPayload struct {
	TransactionID string    `json:"transaction_id"`
	InfluencerID  string    `json:"influencer_id"`
	CampaignID    string    `json:"campaign_id"`
	Amount        float64   `json:"amount"`
	AmountMinor   int64     `json:"amount_minor"`
	Currency      string    `json:"currency"`
	Description   string    `json:"description"`
	CreatedAt     time.Time `json:"created_at"`
}

func NewEarningRecordedTask(p EarningRecordedPayload) (*asynq.Task, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeEarningRecorded, payload,
		asynq.Queue("critical")), nil
}
