package tracking_test

import (
	"context"
	"testing"

	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/middleware"
	"creatorlink-platform/services/campaign"
	"creatorlink-platform/services/testutil"
	"creatorlink-platform/services/tracking"
	"creatorlink-platform/services/transaction"

	"github.com/bwmarrin/snowflake"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeDirectory struct {
	campaigns map[string]*campaign.Campaign
}

func (f *fakeDirectory) Get(_ context.Context, campaignID string) (*campaign.Campaign, error) {
	c, ok := f.campaigns[campaignID]
	if !ok {
		return nil, errutil.NotFound("campaign not found", nil)
	}
	return c, nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
}

func (f *fakeEnqueuer) Enqueue(task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{ID: "test", Queue: "default"}, nil
}

type fixture struct {
	db       *gorm.DB
	svc      *tracking.Service
	enqueuer *fakeEnqueuer
}

func newFixture(t *testing.T, campaigns ...*campaign.Campaign) *fixture {
	t.Helper()

	db := testutil.NewTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	dir := &fakeDirectory{campaigns: map[string]*campaign.Campaign{}}
	for _, c := range campaigns {
		dir.campaigns[c.ID] = c
	}

	enq := &fakeEnqueuer{}
	earnings := transaction.NewService(transaction.Params{DB: db, Node: node, Enqueuer: enq})

	svc := tracking.NewService(tracking.ServiceParams{
		DB:        db,
		Node:      node,
		Campaigns: dir,
		Earnings:  earnings,
	})

	return &fixture{db: db, svc: svc, enqueuer: enq}
}

func cpmCampaign() *campaign.Campaign {
	return &campaign.Campaign{
		ID:           "cmp-1",
		BrandID:      "brand-1",
		Code:         "CMP-250101-001AB",
		Name:         "Spring Launch",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      10,
		MaxViews:     100000,
		Status:       campaign.StatusActive,
	}
}

func influencerCtx(id string) context.Context {
	return middleware.WithActor(context.Background(), middleware.Actor{ID: id, Role: middleware.RoleInfluencer})
}

func brandCtx(id string) context.Context {
	return middleware.WithActor(context.Background(), middleware.Actor{ID: id, Role: middleware.RoleBrand})
}

func ptr[T any](v T) *T { return &v }

func TestUpdateViewsCreatesRow(t *testing.T) {
	f := newFixture(t, cpmCampaign())

	row, err := f.svc.UpdateViews(influencerCtx("inf-1"), tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InstagramViews: ptr[int64](12000),
		TikTokViews:    ptr[int64](8000),
	})
	require.NoError(t, err)
	require.Equal(t, "inf-1", row.InfluencerID)
	require.Equal(t, int64(20000), row.ViewsTracked)
	require.Equal(t, 200.00, row.PayoutCalculated)
	require.Equal(t, tracking.PayoutStatusPending, row.PayoutStatus)
	require.False(t, row.LastCheckedAt.IsZero())
}

func TestUpdateViewsUpsertsSameRow(t *testing.T) {
	f := newFixture(t, cpmCampaign())
	ctx := influencerCtx("inf-1")

	first, err := f.svc.UpdateViews(ctx, tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InstagramViews: ptr[int64](1000),
	})
	require.NoError(t, err)

	second, err := f.svc.UpdateViews(ctx, tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InstagramViews: ptr[int64](5000),
	})
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, int64(5000), second.ViewsTracked)

	var count int64
	require.NoError(t, f.db.Model(&tracking.ViewTracking{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestUpdateViewsRetainsUnsetPlatforms(t *testing.T) {
	f := newFixture(t, cpmCampaign())
	ctx := influencerCtx("inf-1")

	_, err := f.svc.UpdateViews(ctx, tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InstagramViews: ptr[int64](3000),
	})
	require.NoError(t, err)

	row, err := f.svc.UpdateViews(ctx, tracking.UpdateViewsInput{
		CampaignID:  "cmp-1",
		TikTokViews: ptr[int64](2000),
	})
	require.NoError(t, err)
	require.Equal(t, int64(3000), row.InstagramViews)
	require.Equal(t, int64(2000), row.TikTokViews)
	require.Equal(t, int64(5000), row.ViewsTracked)
}

func TestUpdateViewsCapsPayout(t *testing.T) {
	f := newFixture(t, cpmCampaign())

	row, err := f.svc.UpdateViews(influencerCtx("inf-1"), tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InstagramViews: ptr[int64](60000),
		TikTokViews:    ptr[int64](50000),
	})
	require.NoError(t, err)
	require.Equal(t, int64(110000), row.ViewsTracked)
	require.Equal(t, 1000.00, row.PayoutCalculated)
}

func TestUpdateViewsRejectsNonCPMCampaign(t *testing.T) {
	fixed := cpmCampaign()
	fixed.ID = "cmp-fixed"
	fixed.PaymentModel = campaign.PaymentModelFixed
	f := newFixture(t, fixed)

	_, err := f.svc.UpdateViews(influencerCtx("inf-1"), tracking.UpdateViewsInput{
		CampaignID:     "cmp-fixed",
		InstagramViews: ptr[int64](1000),
	})

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusUnprocessableEntity, base.Status())

	var count int64
	require.NoError(t, f.db.Model(&tracking.ViewTracking{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestUpdateViewsRequiresActor(t *testing.T) {
	f := newFixture(t, cpmCampaign())

	_, err := f.svc.UpdateViews(context.Background(), tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InfluencerID:   "inf-1",
		InstagramViews: ptr[int64](1000),
	})

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusUnauthorized, base.Status())
}

func TestApprovePayoutRecordsEarning(t *testing.T) {
	f := newFixture(t, cpmCampaign())

	row, err := f.svc.UpdateViews(influencerCtx("inf-1"), tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InstagramViews: ptr[int64](50000),
	})
	require.NoError(t, err)

	approved, err := f.svc.ApprovePayout(brandCtx("brand-1"), row.ID)
	require.NoError(t, err)
	require.Equal(t, tracking.PayoutStatusApproved, approved.PayoutStatus)

	var txns []*transaction.Transaction
	require.NoError(t, f.db.Find(&txns).Error)
	require.Len(t, txns, 1)
	require.Equal(t, transaction.TypeEarning, txns[0].Type)
	require.Equal(t, transaction.StatusPending, txns[0].Status)
	require.Equal(t, "inf-1", txns[0].InfluencerID)
	require.Equal(t, row.ID, txns[0].TrackingID)
	require.Equal(t, 500.00, txns[0].Amount)

	require.Len(t, f.enqueuer.tasks, 1)
}

func TestApprovePayoutNonOwnerForbidden(t *testing.T) {
	f := newFixture(t, cpmCampaign())

	row, err := f.svc.UpdateViews(influencerCtx("inf-1"), tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InstagramViews: ptr[int64](1000),
	})
	require.NoError(t, err)

	_, err = f.svc.ApprovePayout(brandCtx("brand-2"), row.ID)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusForbidden, base.Status())

	fresh, err := f.svc.Get(influencerCtx("inf-1"), row.ID)
	require.NoError(t, err)
	require.Equal(t, tracking.PayoutStatusPending, fresh.PayoutStatus)

	var count int64
	require.NoError(t, f.db.Model(&transaction.Transaction{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestApprovePayoutTwiceConflicts(t *testing.T) {
	f := newFixture(t, cpmCampaign())

	row, err := f.svc.UpdateViews(influencerCtx("inf-1"), tracking.UpdateViewsInput{
		CampaignID:     "cmp-1",
		InstagramViews: ptr[int64](1000),
	})
	require.NoError(t, err)

	_, err = f.svc.ApprovePayout(brandCtx("brand-1"), row.ID)
	require.NoError(t, err)

	_, err = f.svc.ApprovePayout(brandCtx("brand-1"), row.ID)

	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, errutil.StatusConflict, base.Status())

	var count int64
	require.NoError(t, f.db.Model(&transaction.Transaction{}).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestPreviewPayout(t *testing.T) {
	f := newFixture(t, cpmCampaign())

	payout, err := f.svc.PreviewPayout(influencerCtx("inf-1"), "cmp-1", 20000)
	require.NoError(t, err)
	require.Equal(t, 200.00, payout)

	payout, err = f.svc.PreviewPayout(influencerCtx("inf-1"), "cmp-1", 500000)
	require.NoError(t, err)
	require.Equal(t, 1000.00, payout)
}
