package tracking

import (
	"context"
	"fmt"
	"time"

	"creatorlink-platform/pkg/db/option"
	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/middleware"
	"creatorlink-platform/pkg/money"
	"creatorlink-platform/pkg/repository"
	"creatorlink-platform/services/campaign"
	"creatorlink-platform/services/transaction"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	viewUpdates = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "view_tracking_updates_total",
		Help: "Total number of accepted view count updates.",
	})
	payoutApprovals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "view_tracking_payout_approvals_total",
		Help: "Total number of payouts approved.",
	})
)

func init() {
	prometheus.MustRegister(viewUpdates, payoutApprovals)
}

// ========================================================
// Service Definition
// ========================================================

// CampaignDirectory is the slice of the campaign service tracking needs:
// resolving a campaign to validate its payment model and pricing terms.
type CampaignDirectory interface {
	Get(ctx context.Context, campaignID string) (*campaign.Campaign, error)
}

// EarningRecorder writes earning transactions. Record must run inside the
// caller's open unit of work; NotifyRecorded runs after it commits.
type EarningRecorder interface {
	Record(ctx context.Context, tx *gorm.DB, in transaction.RecordInput) (*transaction.Transaction, error)
	NotifyRecorded(txn *transaction.Transaction)
}

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	campaigns CampaignDirectory
	earnings  EarningRecorder

	tracking repository.Repository[ViewTracking]
}

type ServiceParams struct {
	fx.In

	DB        *gorm.DB
	Node      *snowflake.Node
	Campaigns CampaignDirectory
	Earnings  EarningRecorder
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:        p.DB,
		node:      p.Node,
		campaigns: p.Campaigns,
		earnings:  p.Earnings,
		tracking:  repository.ProvideStore[ViewTracking](p.DB),
	}
}

// ========================================================
// Inputs
// ========================================================

// UpdateViewsInput carries per-platform absolute counts. A nil field retains
// the stored value, so platform checkers can report independently without
// clobbering each other.
type UpdateViewsInput struct {
	CampaignID     string
	InfluencerID   string
	SubmissionID   *string
	InstagramViews *int64
	TikTokViews    *int64
}

type ListInput struct {
	CampaignID   string
	InfluencerID string
	PayoutStatus PayoutStatus
	Pagination   pagination.Pagination
}

// ========================================================

// UpdateViews upserts the tracking row for (campaign, influencer) and
// recomputes the derived totals. The row is locked for the duration of the
// recompute so concurrent checker reports serialize instead of losing
// updates.
func (s *Service) UpdateViews(ctx context.Context, in UpdateViewsInput) (*ViewTracking, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}
	if actor.Role == middleware.RoleInfluencer {
		in.InfluencerID = actor.ID
	}
	if in.CampaignID == "" || in.InfluencerID == "" {
		return nil, errutil.ValidationFailed("campaign_id and influencer_id are required", nil)
	}
	if in.InstagramViews != nil && *in.InstagramViews < 0 {
		return nil, errutil.ValidationFailed("instagram_views must not be negative", nil)
	}
	if in.TikTokViews != nil && *in.TikTokViews < 0 {
		return nil, errutil.ValidationFailed("tiktok_views must not be negative", nil)
	}

	c, err := s.campaigns.Get(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if c.PaymentModel != campaign.PaymentModelCPM {
		return nil, errutil.UnprocessableEntity("campaign is not billed per view", nil)
	}

	var row *ViewTracking
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.tracking.WithTrx(tx)

		existing, err := store.FindOne(ctx,
			&ViewTracking{CampaignID: in.CampaignID, InfluencerID: in.InfluencerID},
			option.WithLockingUpdate(),
		)
		if err != nil {
			return err
		}

		if existing == nil {
			existing = &ViewTracking{
				ID:           s.node.Generate().String(),
				CampaignID:   in.CampaignID,
				InfluencerID: in.InfluencerID,
				PayoutStatus: PayoutStatusPending,
			}
		}

		if in.SubmissionID != nil {
			existing.SubmissionID = *in.SubmissionID
		}
		if in.InstagramViews != nil {
			existing.InstagramViews = *in.InstagramViews
		}
		if in.TikTokViews != nil {
			existing.TikTokViews = *in.TikTokViews
		}
		existing.ViewsTracked = existing.InstagramViews + existing.TikTokViews
		existing.PayoutCalculated = CalculateCPMPayout(existing.ViewsTracked, c.MaxViews, c.CPMRate)
		existing.LastCheckedAt = time.Now()
		row = existing

		if existing.CreatedAt.IsZero() {
			return store.Create(ctx, existing)
		}

		return store.Update(ctx, existing.ID, map[string]any{
			"submission_id":     existing.SubmissionID,
			"instagram_views":   existing.InstagramViews,
			"tiktok_views":      existing.TikTokViews,
			"views_tracked":     existing.ViewsTracked,
			"payout_calculated": existing.PayoutCalculated,
			"last_checked_at":   existing.LastCheckedAt,
			"updated_at":        time.Now(),
		})
	})
	if err != nil {
		zap.L().Error("failed to upsert view tracking", append(traceFields(ctx), zap.Error(err))...)
		return nil, err
	}

	viewUpdates.Inc()

	// re-read outside the lock so the caller sees the committed row
	fresh, err := s.tracking.FindOne(ctx,
		&ViewTracking{CampaignID: in.CampaignID, InfluencerID: in.InfluencerID})
	if err != nil || fresh == nil {
		return row, nil
	}
	return fresh, nil
}

// ========================================================

// ApprovePayout moves a pending payout to approved and records the earning
// transaction in the same unit of work. Approval is one-shot: a second call
// conflicts, so the earning can never be recorded twice.
func (s *Service) ApprovePayout(ctx context.Context, trackingID string) (*ViewTracking, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}

	row, err := s.tracking.FindOne(ctx, &ViewTracking{ID: trackingID})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errutil.NotFound("view tracking record not found", nil)
	}

	c, err := s.campaigns.Get(ctx, row.CampaignID)
	if err != nil {
		return nil, err
	}
	if actor.Role != middleware.RoleAdmin && c.BrandID != actor.ID {
		return nil, errutil.Forbidden("caller is not the campaign owner", nil)
	}

	var txn *transaction.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		store := s.tracking.WithTrx(tx)

		locked, err := store.FindOne(ctx, &ViewTracking{ID: trackingID}, option.WithLockingUpdate())
		if err != nil {
			return err
		}
		if locked == nil {
			return errutil.NotFound("view tracking record not found", nil)
		}
		if locked.PayoutStatus == PayoutStatusApproved {
			return errutil.Conflict("payout already approved", nil)
		}

		if err := store.Update(ctx, locked.ID, map[string]any{
			"payout_status": PayoutStatusApproved,
			"updated_at":    time.Now(),
		}); err != nil {
			return err
		}

		txn, err = s.earnings.Record(ctx, tx, transaction.RecordInput{
			InfluencerID: locked.InfluencerID,
			CampaignID:   locked.CampaignID,
			TrackingID:   locked.ID,
			Amount:       locked.PayoutCalculated,
			Description: fmt.Sprintf("CPM earning of %s for %d tracked views on campaign %s",
				money.Format(locked.PayoutCalculated, "USD"), locked.ViewsTracked, c.Code),
		})
		row = locked
		return err
	})
	if err != nil {
		return nil, err
	}

	row.PayoutStatus = PayoutStatusApproved
	payoutApprovals.Inc()
	s.earnings.NotifyRecorded(txn)

	zap.L().Info("payout approved",
		append(traceFields(ctx),
			zap.String("tracking_id", row.ID),
			zap.String("transaction_id", txn.ID),
			zap.Float64("amount", txn.Amount),
		)...)

	return row, nil
}

// ========================================================

// PreviewPayout prices a hypothetical view count against a campaign's terms
// without touching stored state.
func (s *Service) PreviewPayout(ctx context.Context, campaignID string, views int64) (float64, error) {
	if _, ok := middleware.ActorFrom(ctx); !ok {
		return 0, errutil.Unauthorized("caller not authenticated", nil)
	}

	c, err := s.campaigns.Get(ctx, campaignID)
	if err != nil {
		return 0, err
	}
	if c.PaymentModel != campaign.PaymentModelCPM {
		return 0, errutil.UnprocessableEntity("campaign is not billed per view", nil)
	}

	return CalculateCPMPayout(views, c.MaxViews, c.CPMRate), nil
}

// ========================================================

func (s *Service) Get(ctx context.Context, trackingID string) (*ViewTracking, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}

	row, err := s.tracking.FindOne(ctx, &ViewTracking{ID: trackingID})
	if err != nil {
		zap.L().Error("failed to query view tracking", zap.Error(err))
		return nil, err
	}
	if row == nil {
		return nil, errutil.NotFound("view tracking record not found", nil)
	}
	if actor.Role == middleware.RoleInfluencer && row.InfluencerID != actor.ID {
		return nil, errutil.Forbidden("caller does not own this record", nil)
	}

	return row, nil
}

func (s *Service) List(ctx context.Context, in ListInput) ([]*ViewTracking, *pagination.PageInfo, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, nil, errutil.Unauthorized("caller not authenticated", nil)
	}
	if actor.Role == middleware.RoleInfluencer {
		in.InfluencerID = actor.ID
	}

	limit := in.Pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&ViewTracking{})
	if in.CampaignID != "" {
		q = q.Where("campaign_id = ?", in.CampaignID)
	}
	if in.InfluencerID != "" {
		q = q.Where("influencer_id = ?", in.InfluencerID)
	}
	if in.PayoutStatus != "" {
		q = q.Where("payout_status = ?", in.PayoutStatus)
	}
	if in.Pagination.Cursor != "" {
		cursor, err := pagination.DecodeCursor(in.Pagination.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		q = q.Where("id < ?", cursor.ID)
	}

	var rows []*ViewTracking
	if err := q.Order("id DESC").Limit(limit + 1).Find(&rows).Error; err != nil {
		return nil, nil, err
	}

	rows, pageInfo := pagination.BuildCursorPageInfo(rows, limit, func(r *ViewTracking) string {
		encoded, _ := pagination.EncodeCursor(pagination.Cursor{ID: r.ID})
		return encoded
	})

	return rows, pageInfo, nil
}

// ========================================================

func traceFields(ctx context.Context) []zap.Field {
	sc := trace.SpanFromContext(ctx).SpanContext()
	return []zap.Field{
		zap.String("trace_id", sc.TraceID().String()),
		zap.String("span_id", sc.SpanID().String()),
	}
}
