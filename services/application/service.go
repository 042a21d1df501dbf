package application

import (
	"context"
	"time"

	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/middleware"
	"creatorlink-platform/pkg/repository"
	"creatorlink-platform/pkg/sequence"
	"creatorlink-platform/services/campaign"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ========================================================
// Service Definition
// ========================================================

// CampaignDirectory resolves campaigns for application checks.
type CampaignDirectory interface {
	Get(ctx context.Context, campaignID string) (*campaign.Campaign, error)
}

type Service struct {
	db        *gorm.DB
	node      *snowflake.Node
	seq       sequence.Generator
	campaigns CampaignDirectory

	applications repository.Repository[Application]
}

type ServiceParams struct {
	fx.In

	DB        *gorm.DB
	Node      *snowflake.Node
	Seq       sequence.Generator
	Campaigns CampaignDirectory
}

func NewService(p ServiceParams) *Service {
	return &Service{
		db:           p.DB,
		node:         p.Node,
		seq:          p.Seq,
		campaigns:    p.Campaigns,
		applications: repository.ProvideStore[Application](p.DB),
	}
}

// ========================================================
// Inputs
// ========================================================

type ApplyInput struct {
	CampaignID string
	Pitch      string
	ContentURL string
	Platform   string
}

type ReviewInput struct {
	Approve    bool
	ReviewNote string
}

type ListInput struct {
	CampaignID   string
	InfluencerID string
	Status       Status
	Pagination   pagination.Pagination
}

// ========================================================

// Apply files the calling influencer's application for a campaign. Only
// active campaigns accept applications, and each influencer gets one shot
// per campaign.
func (s *Service) Apply(ctx context.Context, in ApplyInput) (*Application, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}
	if actor.Role != middleware.RoleInfluencer {
		return nil, errutil.Forbidden("only influencers can apply to campaigns", nil)
	}
	if in.CampaignID == "" {
		return nil, errutil.ValidationFailed("campaign_id is required", nil)
	}

	c, err := s.campaigns.Get(ctx, in.CampaignID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive(time.Now()) {
		return nil, errutil.UnprocessableEntity("campaign is not accepting applications", nil)
	}

	existing, err := s.applications.FindOne(ctx,
		&Application{CampaignID: in.CampaignID, InfluencerID: actor.ID})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errutil.Conflict("application already exists for this campaign", nil)
	}

	code, err := s.seq.NextApplicationCode(ctx, c.Code)
	if err != nil {
		zap.L().Error("failed to generate application code", zap.Error(err))
		return nil, err
	}

	app := &Application{
		ID:           s.node.Generate().String(),
		Code:         code,
		CampaignID:   in.CampaignID,
		InfluencerID: actor.ID,
		Status:       StatusPending,
		Pitch:        in.Pitch,
		ContentURL:   in.ContentURL,
		Platform:     in.Platform,
	}
	if err := s.applications.Create(ctx, app); err != nil {
		zap.L().Error("failed to create application", zap.Error(err))
		return nil, err
	}

	return app, nil
}

// ========================================================

// Review settles a pending application. Only the campaign's brand (or an
// admin) may review, and a settled application stays settled.
func (s *Service) Review(ctx context.Context, applicationID string, in ReviewInput) (*Application, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}

	app, err := s.applications.FindOne(ctx, &Application{ID: applicationID})
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, errutil.NotFound("application not found", nil)
	}

	c, err := s.campaigns.Get(ctx, app.CampaignID)
	if err != nil {
		return nil, err
	}
	if actor.Role != middleware.RoleAdmin && c.BrandID != actor.ID {
		return nil, errutil.Forbidden("caller is not the campaign owner", nil)
	}
	if app.Status != StatusPending {
		return nil, errutil.Conflict("application already reviewed", nil)
	}

	to := StatusRejected
	if in.Approve {
		to = StatusApproved
	}

	now := time.Now()
	res := s.db.WithContext(ctx).
		Model(&Application{}).
		Where("id = ? AND status = ?", app.ID, StatusPending).
		Updates(map[string]any{
			"status":      to,
			"review_note": in.ReviewNote,
			"reviewed_at": now,
			"updated_at":  now,
		})
	if res.Error != nil {
		zap.L().Error("failed to review application", zap.Error(res.Error))
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, errutil.Conflict("application already reviewed", nil)
	}

	app.Status = to
	app.ReviewNote = in.ReviewNote
	app.ReviewedAt = &now

	return app, nil
}

// ========================================================

func (s *Service) Get(ctx context.Context, applicationID string) (*Application, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}

	app, err := s.applications.FindOne(ctx, &Application{ID: applicationID})
	if err != nil {
		zap.L().Error("failed to query application", zap.Error(err))
		return nil, err
	}
	if app == nil {
		return nil, errutil.NotFound("application not found", nil)
	}
	if actor.Role == middleware.RoleInfluencer && app.InfluencerID != actor.ID {
		return nil, errutil.Forbidden("caller does not own this application", nil)
	}

	return app, nil
}

func (s *Service) List(ctx context.Context, in ListInput) ([]*Application, *pagination.PageInfo, error) {
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

	q := s.db.WithContext(ctx).Model(&Application{})
	if in.CampaignID != "" {
		q = q.Where("campaign_id = ?", in.CampaignID)
	}
	if in.InfluencerID != "" {
		q = q.Where("influencer_id = ?", in.InfluencerID)
	}
	if in.Status != "" {
		q = q.Where("status = ?", in.Status)
	}
	if in.Pagination.Cursor != "" {
		cursor, err := pagination.DecodeCursor(in.Pagination.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		q = q.Where("id < ?", cursor.ID)
	}

	var apps []*Application
	if err := q.Order("id DESC").Limit(limit + 1).Find(&apps).Error; err != nil {
		return nil, nil, err
	}

	apps, pageInfo := pagination.BuildCursorPageInfo(apps, limit, func(a *Application) string {
		encoded, _ := pagination.EncodeCursor(pagination.Cursor{ID: a.ID})
		return encoded
	})

	return apps, pageInfo, nil
}
