package campaign_test

import (
	"context"
	"fmt"
	"testing"

	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/middleware"
	"creatorlink-platform/services/campaign"
	"creatorlink-platform/services/testutil"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

type fakeSeq struct {
	n int
}

func (f *fakeSeq) NextCampaignCode(context.Context, string) (string, error) {
	f.n++
	return fmt.Sprintf("CMP-%03d", f.n), nil
}

func (f *fakeSeq) NextTransactionCode(context.Context, string) (string, error) {
	f.n++
	return fmt.Sprintf("TXN-%03d", f.n), nil
}

func (f *fakeSeq) NextApplicationCode(context.Context, string) (string, error) {
	f.n++
	return fmt.Sprintf("APL-%03d", f.n), nil
}

func newService(t *testing.T) *campaign.Service {
	t.Helper()

	db := testutil.NewTestDB(t)
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return campaign.NewService(campaign.ServiceParams{
		DB:   db,
		Node: node,
		Seq:  &fakeSeq{},
	})
}

func brandCtx(id string) context.Context {
	return middleware.WithActor(context.Background(), middleware.Actor{ID: id, Role: middleware.RoleBrand})
}

func requireStatus(t *testing.T, err error, want errutil.CoreStatus) {
	t.Helper()
	var base errutil.BaseError
	require.ErrorAs(t, err, &base)
	require.Equal(t, want, base.Status())
}

func TestCreateCPMCampaign(t *testing.T) {
	svc := newService(t)

	c, err := svc.Create(brandCtx("brand-1"), campaign.CreateInput{
		Name:         "Summer Glow Up",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      12.5,
		MaxViews:     100000,
		Budget:       5000,
		Platforms:    []string{"instagram", "tiktok"},
	})
	require.NoError(t, err)
	require.Equal(t, "brand-1", c.BrandID)
	require.Equal(t, "CMP-001", c.Code)
	require.Equal(t, "summer-glow-up", c.Slug)
	require.Equal(t, campaign.StatusDraft, c.Status)
}

func TestCreateValidatesPaymentTerms(t *testing.T) {
	svc := newService(t)
	ctx := brandCtx("brand-1")

	_, err := svc.Create(ctx, campaign.CreateInput{
		Name:         "No Rate",
		PaymentModel: campaign.PaymentModelCPM,
		MaxViews:     1000,
	})
	requireStatus(t, err, errutil.StatusValidationFailed)

	_, err = svc.Create(ctx, campaign.CreateInput{
		Name:         "No Cap",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      10,
	})
	requireStatus(t, err, errutil.StatusValidationFailed)

	_, err = svc.Create(ctx, campaign.CreateInput{
		Name:         "No Fee",
		PaymentModel: campaign.PaymentModelFixed,
	})
	requireStatus(t, err, errutil.StatusValidationFailed)

	_, err = svc.Create(ctx, campaign.CreateInput{
		Name:         "Mystery",
		PaymentModel: campaign.PaymentModel("barter"),
	})
	requireStatus(t, err, errutil.StatusValidationFailed)
}

func TestCreateRequiresActor(t *testing.T) {
	svc := newService(t)

	_, err := svc.Create(context.Background(), campaign.CreateInput{
		Name:         "Nobody Home",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      10,
		MaxViews:     1000,
	})
	requireStatus(t, err, errutil.StatusUnauthorized)
}

func TestGetCachesCampaign(t *testing.T) {
	svc := newService(t)
	ctx := brandCtx("brand-1")

	created, err := svc.Create(ctx, campaign.CreateInput{
		Name:         "Cached",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      10,
		MaxViews:     1000,
	})
	require.NoError(t, err)

	first, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	second, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Same(t, first, second)
}

func TestGetNotFound(t *testing.T) {
	svc := newService(t)

	_, err := svc.Get(brandCtx("brand-1"), "missing")
	requireStatus(t, err, errutil.StatusNotFound)
}

func TestUpdateRetainsUnsetFields(t *testing.T) {
	svc := newService(t)
	ctx := brandCtx("brand-1")

	created, err := svc.Create(ctx, campaign.CreateInput{
		Name:         "Original",
		Description:  "keep me",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      10,
		MaxViews:     1000,
	})
	require.NoError(t, err)

	rate := 15.0
	updated, err := svc.Update(ctx, created.ID, campaign.UpdateInput{CPMRate: &rate})
	require.NoError(t, err)
	require.Equal(t, 15.0, updated.CPMRate)
	require.Equal(t, "keep me", updated.Description)
	require.Equal(t, int64(1000), updated.MaxViews)
}

func TestUpdatePersistsZeroValueOverwrites(t *testing.T) {
	svc := newService(t)
	ctx := brandCtx("brand-1")

	created, err := svc.Create(ctx, campaign.CreateInput{
		Name:         "Zeroed",
		Description:  "original text",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      10,
		MaxViews:     1000,
		Budget:       500,
	})
	require.NoError(t, err)

	empty := ""
	zero := 0.0
	updated, err := svc.Update(ctx, created.ID, campaign.UpdateInput{
		Description: &empty,
		Budget:      &zero,
	})
	require.NoError(t, err)
	require.Equal(t, "", updated.Description)
	require.Equal(t, 0.0, updated.Budget)

	// stored state must match the returned object
	stored, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "", stored.Description)
	require.Equal(t, 0.0, stored.Budget)
	require.Equal(t, int64(1000), stored.MaxViews)
}

func TestUpdateNonOwnerForbidden(t *testing.T) {
	svc := newService(t)

	created, err := svc.Create(brandCtx("brand-1"), campaign.CreateInput{
		Name:         "Mine",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      10,
		MaxViews:     1000,
	})
	require.NoError(t, err)

	name := "Yours Now"
	_, err = svc.Update(brandCtx("brand-2"), created.ID, campaign.UpdateInput{Name: &name})
	requireStatus(t, err, errutil.StatusForbidden)
}

func TestStatusTransitions(t *testing.T) {
	svc := newService(t)
	ctx := brandCtx("brand-1")

	created, err := svc.Create(ctx, campaign.CreateInput{
		Name:         "Lifecycle",
		PaymentModel: campaign.PaymentModelCPM,
		CPMRate:      10,
		MaxViews:     1000,
	})
	require.NoError(t, err)

	// draft cannot complete directly
	_, err = svc.SetStatus(ctx, created.ID, campaign.StatusCompleted)
	requireStatus(t, err, errutil.StatusConflict)

	activated, err := svc.SetStatus(ctx, created.ID, campaign.StatusActive)
	require.NoError(t, err)
	require.Equal(t, campaign.StatusActive, activated.Status)

	paused, err := svc.SetStatus(ctx, created.ID, campaign.StatusPaused)
	require.NoError(t, err)
	require.Equal(t, campaign.StatusPaused, paused.Status)

	completed, err := svc.SetStatus(ctx, created.ID, campaign.StatusCompleted)
	require.NoError(t, err)
	require.Equal(t, campaign.StatusCompleted, completed.Status)

	_, err = svc.SetStatus(ctx, created.ID, campaign.StatusActive)
	requireStatus(t, err, errutil.StatusConflict)
}

func TestListPaginates(t *testing.T) {
	svc := newService(t)
	ctx := brandCtx("brand-1")

	for i := 0; i < 5; i++ {
		_, err := svc.Create(ctx, campaign.CreateInput{
			Name:         fmt.Sprintf("Campaign %d", i),
			PaymentModel: campaign.PaymentModelCPM,
			CPMRate:      10,
			MaxViews:     1000,
		})
		require.NoError(t, err)
	}

	page1, info, err := svc.List(ctx, campaign.ListInput{
		BrandID:    "brand-1",
		Pagination: pagination.Pagination{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, page1, 2)
	require.True(t, info.HasMore)
	require.NotEmpty(t, info.NextCursor)

	page2, _, err := svc.List(ctx, campaign.ListInput{
		BrandID:    "brand-1",
		Pagination: pagination.Pagination{Cursor: info.NextCursor, Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, page2, 2)
	require.NotEqual(t, page1[0].ID, page2[0].ID)
}
