package tracking

import (
	"strconv"

	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/httpapi"

	"github.com/gin-gonic/gin"
)

type updateViewsRequest struct {
	CampaignID     string  `json:"campaign_id" binding:"required"`
	InfluencerID   string  `json:"influencer_id"`
	SubmissionID   *string `json:"submission_id"`
	InstagramViews *int64  `json:"instagram_views"`
	TikTokViews    *int64  `json:"tiktok_views"`
}

type previewResponse struct {
	CampaignID string  `json:"campaign_id"`
	Views      int64   `json:"views"`
	Payout     float64 `json:"payout"`
	Currency   string  `json:"currency"`
}

type listResponse struct {
	Tracking []*ViewTracking      `json:"tracking"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.POST("/view-tracking", h.updateViews)
	v1.GET("/view-tracking", h.list)
	v1.GET("/view-tracking/:id", h.get)
	v1.POST("/view-tracking/:id/approve", h.approve)
	v1.GET("/payout-preview", h.preview)
}

func (h *Handler) updateViews(c *gin.Context) {
	var req updateViewsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.BadRequest("invalid request body", err))
		return
	}

	row, err := h.svc.UpdateViews(c.Request.Context(), UpdateViewsInput{
		CampaignID:     req.CampaignID,
		InfluencerID:   req.InfluencerID,
		SubmissionID:   req.SubmissionID,
		InstagramViews: req.InstagramViews,
		TikTokViews:    req.TikTokViews,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OK(c, row)
}

func (h *Handler) approve(c *gin.Context) {
	row, err := h.svc.ApprovePayout(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, row)
}

func (h *Handler) get(c *gin.Context) {
	row, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, row)
}

func (h *Handler) list(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httpapi.Fail(c, errutil.BadRequest("invalid pagination", err))
		return
	}

	rows, pageInfo, err := h.svc.List(c.Request.Context(), ListInput{
		CampaignID:   c.Query("campaign_id"),
		InfluencerID: c.Query("influencer_id"),
		PayoutStatus: PayoutStatus(c.Query("payout_status")),
		Pagination:   page,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OK(c, listResponse{Tracking: rows, PageInfo: pageInfo})
}

func (h *Handler) preview(c *gin.Context) {
	campaignID := c.Query("campaign_id")
	if campaignID == "" {
		httpapi.Fail(c, errutil.BadRequest("campaign_id is required", nil))
		return
	}
	views, err := strconv.ParseInt(c.DefaultQuery("views", "0"), 10, 64)
	if err != nil || views < 0 {
		httpapi.Fail(c, errutil.BadRequest("views must be a non-negative integer", err))
		return
	}

	payout, err := h.svc.PreviewPayout(c.Request.Context(), campaignID, views)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OK(c, previewResponse{
		CampaignID: campaignID,
		Views:      views,
		Payout:     payout,
		Currency:   "USD",
	})
}
