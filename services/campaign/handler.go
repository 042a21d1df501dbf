package campaign

import (
	"time"

	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/httpapi"

	"github.com/gin-gonic/gin"
)

type createRequest struct {
	Name         string                 `json:"name" binding:"required"`
	Description  string                 `json:"description"`
	PaymentModel string                 `json:"payment_model" binding:"required"`
	CPMRate      float64                `json:"cpm_rate"`
	MaxViews     int64                  `json:"max_views"`
	FixedFee     float64                `json:"fixed_fee"`
	Budget       float64                `json:"budget"`
	Platforms    []string               `json:"platforms"`
	StartAt      *time.Time             `json:"start_at"`
	EndAt        *time.Time             `json:"end_at"`
	Metadata     map[string]interface{} `json:"metadata"`
}

type updateRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	CPMRate     *float64               `json:"cpm_rate"`
	MaxViews    *int64                 `json:"max_views"`
	Budget      *float64               `json:"budget"`
	StartAt     *time.Time             `json:"start_at"`
	EndAt       *time.Time             `json:"end_at"`
	Metadata    map[string]interface{} `json:"metadata"`
}

type listResponse struct {
	Campaigns []*Campaign          `json:"campaigns"`
	PageInfo  *pagination.PageInfo `json:"page_info"`
}

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) Register(r *gin.Engine) {
	v1 := r.Group("/v1")
	v1.POST("/campaigns", h.create)
	v1.GET("/campaigns", h.list)
	v1.GET("/campaigns/:id", h.get)
	v1.PATCH("/campaigns/:id", h.update)
	v1.POST("/campaigns/:id/activate", h.activate)
	v1.POST("/campaigns/:id/pause", h.pause)
}

func (h *Handler) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.BadRequest("invalid request body", err))
		return
	}

	created, err := h.svc.Create(c.Request.Context(), CreateInput{
		Name:         req.Name,
		Description:  req.Description,
		PaymentModel: PaymentModel(req.PaymentModel),
		CPMRate:      req.CPMRate,
		MaxViews:     req.MaxViews,
		FixedFee:     req.FixedFee,
		Budget:       req.Budget,
		Platforms:    req.Platforms,
		StartAt:      req.StartAt,
		EndAt:        req.EndAt,
		Metadata:     req.Metadata,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.Created(c, created)
}

func (h *Handler) get(c *gin.Context) {
	found, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, found)
}

func (h *Handler) list(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httpapi.Fail(c, errutil.BadRequest("invalid pagination", err))
		return
	}

	campaigns, pageInfo, err := h.svc.List(c.Request.Context(), ListInput{
		BrandID:    c.Query("brand_id"),
		OnlyActive: c.Query("only_active") == "true",
		Pagination: page,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OK(c, listResponse{Campaigns: campaigns, PageInfo: pageInfo})
}

func (h *Handler) update(c *gin.Context) {
	var req updateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpapi.Fail(c, errutil.BadRequest("invalid request body", err))
		return
	}

	updated, err := h.svc.Update(c.Request.Context(), c.Param("id"), UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		CPMRate:     req.CPMRate,
		MaxViews:    req.MaxViews,
		Budget:      req.Budget,
		StartAt:     req.StartAt,
		EndAt:       req.EndAt,
		Metadata:    req.Metadata,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OK(c, updated)
}

func (h *Handler) activate(c *gin.Context) {
	h.setStatus(c, StatusActive)
}

func (h *Handler) pause(c *gin.Context) {
	h.setStatus(c, StatusPaused)
}

func (h *Handler) setStatus(c *gin.Context, to Status) {
	updated, err := h.svc.SetStatus(c.Request.Context(), c.Param("id"), to)
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, updated)
}
