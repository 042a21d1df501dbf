package campaign

import (
	"context"
	"encoding/json"
	"time"

	"creatorlink-platform/pkg/config"
	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/middleware"
	"creatorlink-platform/pkg/repository"
	"creatorlink-platform/pkg/sequence"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ========================================================
// Service Definition
// ========================================================

type Service struct {
	db    *gorm.DB
	node  *snowflake.Node
	seq   sequence.Generator
	cache *Cache

	campaigns repository.Repository[Campaign]
}

type ServiceParams struct {
	fx.In

	DB     *gorm.DB
	Node   *snowflake.Node
	Seq    sequence.Generator
	Config *config.Config `optional:"true"`
}

func NewService(p ServiceParams) *Service {
	ttl := 30 * time.Second
	if p.Config != nil {
		ttl = p.Config.Campaign.CacheTTL
	}

	return &Service{
		db:        p.DB,
		node:      p.Node,
		seq:       p.Seq,
		cache:     NewCache(ttl),
		campaigns: repository.ProvideStore[Campaign](p.DB),
	}
}

// ========================================================
// Inputs
// ========================================================

type CreateInput struct {
	Name         string
	Description  string
	PaymentModel PaymentModel
	CPMRate      float64
	MaxViews     int64
	FixedFee     float64
	Budget       float64
	Platforms    []string
	StartAt      *time.Time
	EndAt        *time.Time
	Metadata     map[string]interface{}
}

// UpdateInput declares update-or-retain per field: nil retains the stored
// value, a set pointer overwrites it.
type UpdateInput struct {
	Name        *string
	Description *string
	CPMRate     *float64
	MaxViews    *int64
	Budget      *float64
	StartAt     *time.Time
	EndAt       *time.Time
	Metadata    map[string]interface{}
}

type ListInput struct {
	BrandID    string
	OnlyActive bool
	Pagination pagination.Pagination
}

// ========================================================
// Operations
// ========================================================

func (s *Service) Create(ctx context.Context, in CreateInput) (*Campaign, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}

	if in.Name == "" {
		return nil, errutil.ValidationFailed("campaign name is required", nil)
	}

	switch in.PaymentModel {
	case PaymentModelCPM:
		if in.CPMRate <= 0 {
			return nil, errutil.ValidationFailed("cpm_rate must be positive for cpm campaigns", nil)
		}
		if in.MaxViews <= 0 {
			return nil, errutil.ValidationFailed("max_views must be positive for cpm campaigns", nil)
		}
	case PaymentModelFixed:
		if in.FixedFee <= 0 {
			return nil, errutil.ValidationFailed("fixed_fee must be positive for fixed campaigns", nil)
		}
	default:
		return nil, errutil.ValidationFailed("unknown payment model", nil)
	}

	code, err := s.seq.NextCampaignCode(ctx, actor.ID)
	if err != nil {
		zap.L().Error("failed to generate campaign code", zap.Error(err))
		return nil, err
	}

	c := Campaign{
		ID:           s.node.Generate().String(),
		BrandID:      actor.ID,
		Code:         code,
		Slug:         slug.Make(in.Name),
		Name:         in.Name,
		Description:  in.Description,
		PaymentModel: in.PaymentModel,
		CPMRate:      in.CPMRate,
		MaxViews:     in.MaxViews,
		FixedFee:     in.FixedFee,
		Budget:       in.Budget,
		Status:       StatusDraft,
		StartAt:      in.StartAt,
		EndAt:        in.EndAt,
	}

	if len(in.Platforms) > 0 {
		jsonData, _ := json.Marshal(in.Platforms)
		c.Platforms = datatypes.JSON(jsonData)
	}
	if in.Metadata != nil {
		jsonData, _ := json.Marshal(in.Metadata)
		c.Metadata = datatypes.JSON(jsonData)
	}

	if err := s.campaigns.Create(ctx, &c); err != nil {
		zap.L().Error("failed to create campaign", zap.Error(err))
		return nil, err
	}

	return &c, nil
}

// ========================================================

// Get resolves a campaign through the in-memory cache. The tracking service
// calls this on every view update, so cache misses collapse via singleflight.
func (s *Service) Get(ctx context.Context, campaignID string) (*Campaign, error) {
	c, err := s.cache.Resolve(campaignID, func() (*Campaign, error) {
		return s.campaigns.FindOne(ctx, &Campaign{ID: campaignID})
	})
	if err != nil {
		zap.L().Error("failed to query campaign", zap.Error(err))
		return nil, err
	}
	if c == nil {
		return nil, errutil.NotFound("campaign not found", nil)
	}
	return c, nil
}

// ========================================================

func (s *Service) List(ctx context.Context, in ListInput) ([]*Campaign, *pagination.PageInfo, error) {
	limit := in.Pagination.Limit
	if limit <= 0 {
		limit = 20
	}

	q := s.db.WithContext(ctx).Model(&Campaign{})
	if in.BrandID != "" {
		q = q.Where("brand_id = ?", in.BrandID)
	}
	if in.OnlyActive {
		q = q.Where("status = ?", StatusActive)
	}
	if in.Pagination.Cursor != "" {
		cursor, err := pagination.DecodeCursor(in.Pagination.Cursor)
		if err != nil {
			return nil, nil, errutil.BadRequest("invalid cursor", err)
		}
		q = q.Where("id < ?", cursor.ID)
	}

	var campaigns []*Campaign
	if err := q.Order("id DESC").Limit(limit + 1).Find(&campaigns).Error; err != nil {
		return nil, nil, err
	}

	campaigns, pageInfo := pagination.BuildCursorPageInfo(campaigns, limit, func(c *Campaign) string {
		encoded, _ := pagination.EncodeCursor(pagination.Cursor{ID: c.ID})
		return encoded
	})

	return campaigns, pageInfo, nil
}

// ========================================================

func (s *Service) Update(ctx context.Context, campaignID string, in UpdateInput) (*Campaign, error) {
	c, err := s.ownedCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	// only supplied fields go into the update map, so an explicit "" or 0
	// overwrites while an absent field retains the stored value
	changes := map[string]any{}

	if in.Name != nil {
		c.Name = *in.Name
		c.Slug = slug.Make(*in.Name)
		changes["name"] = c.Name
		changes["slug"] = c.Slug
	}
	if in.Description != nil {
		c.Description = *in.Description
		changes["description"] = c.Description
	}
	if in.CPMRate != nil {
		if *in.CPMRate <= 0 && c.PaymentModel == PaymentModelCPM {
			return nil, errutil.ValidationFailed("cpm_rate must be positive", nil)
		}
		c.CPMRate = *in.CPMRate
		changes["cpm_rate"] = c.CPMRate
	}
	if in.MaxViews != nil {
		if *in.MaxViews <= 0 && c.PaymentModel == PaymentModelCPM {
			return nil, errutil.ValidationFailed("max_views must be positive", nil)
		}
		c.MaxViews = *in.MaxViews
		changes["max_views"] = c.MaxViews
	}
	if in.Budget != nil {
		c.Budget = *in.Budget
		changes["budget"] = c.Budget
	}
	if in.StartAt != nil {
		c.StartAt = in.StartAt
		changes["start_at"] = in.StartAt
	}
	if in.EndAt != nil {
		c.EndAt = in.EndAt
		changes["end_at"] = in.EndAt
	}
	if in.Metadata != nil {
		jsonData, _ := json.Marshal(in.Metadata)
		c.Metadata = datatypes.JSON(jsonData)
		changes["metadata"] = c.Metadata
	}

	if len(changes) == 0 {
		return c, nil
	}
	changes["updated_at"] = time.Now()

	if err := s.campaigns.Update(ctx, c.ID, changes); err != nil {
		zap.L().Error("failed to update campaign", zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(c.ID)

	return c, nil
}

// ========================================================

func (s *Service) SetStatus(ctx context.Context, campaignID string, to Status) (*Campaign, error) {
	c, err := s.ownedCampaign(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if !canTransition(c.Status, to) {
		return nil, errutil.Conflict("invalid campaign status transition", nil)
	}

	c.Status = to
	if err := s.campaigns.Update(ctx, c.ID, map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}); err != nil {
		zap.L().Error("failed to update campaign status", zap.Error(err))
		return nil, err
	}

	s.cache.Invalidate(c.ID)

	return c, nil
}

// ========================================================

// ownedCampaign loads a campaign directly (cache bypassed, mutations need
// fresh state) and verifies the caller owns it.
func (s *Service) ownedCampaign(ctx context.Context, campaignID string) (*Campaign, error) {
	actor, ok := middleware.ActorFrom(ctx)
	if !ok {
		return nil, errutil.Unauthorized("caller not authenticated", nil)
	}

	c, err := s.campaigns.FindOne(ctx, &Campaign{ID: campaignID})
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, errutil.NotFound("campaign not found", nil)
	}
	if c.BrandID != actor.ID {
		return nil, errutil.Forbidden("caller is not the campaign owner", nil)
	}

	return c, nil
}
