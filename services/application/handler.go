package application

import (
	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/httpapi"

	"github.com/gin-gonic/gin"
)

type applyRequest struct {
	CampaignID string `json:"campaign_id" binding:"required"`
	Pitch      string `json:"pitch"`
	ContentURL string `json:"content_url"`
	Platform   string `json:"platform"`
}

type reviewRequest struct {
	ReviewNote string `json:"review_note"`
}

type listResponse struct {
	Applications []*Application       `json:"applications"`
	PageInfo     *pagination.PageInfo `json:"page_info"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.POST("/applications", h.apply)
	v1.GET("/applications", h.list)
	v1.GET("/applications/:id", h.get)
	v1.POST("/applications/:id/approve", h.approve)
	v1.POST("/applications/:id/reject", h.reject)
}

func (h *Handler) apply(c *gin.Context) {
	var req applyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.BadRequest("invalid request body", err))
		return
	}

	app, err := h.svc.Apply(c.Request.Context(), ApplyInput{
		CampaignID: req.CampaignID,
		Pitch:      req.Pitch,
		ContentURL: req.ContentURL,
		Platform:   req.Platform,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.Created(c, app)
}

func (h *Handler) approve(c *gin.Context) {
	h.review(c, true)
}

func (h *Handler) reject(c *gin.Context) {
	h.review(c, false)
}

func (h *Handler) review(c *gin.Context, approve bool) {
	var req reviewRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			httpapi.Fail(c, errutil.BadRequest("invalid request body", err))
			return
		}
	}

	app, err := h.svc.Review(c.Request.Context(), c.Param("id"), ReviewInput{
		Approve:    approve,
		ReviewNote: req.ReviewNote,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OK(c, app)
}

func (h *Handler) get(c *gin.Context) {
	app, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, app)
}

func (h *Handler) list(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httpapi.Fail(c, errutil.BadRequest("invalid pagination", err))
		return
	}

	apps, pageInfo, err := h.svc.List(c.Request.Context(), ListInput{
		CampaignID:   c.Query("campaign_id"),
		InfluencerID: c.Query("influencer_id"),
		Status:       Status(c.Query("status")),
		Pagination:   page,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OK(c, listResponse{Applications: apps, PageInfo: pageInfo})
}
