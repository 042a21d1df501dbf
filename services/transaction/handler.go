package transaction

import (
	"creatorlink-platform/pkg/db/pagination"
	"creatorlink-platform/pkg/errutil"
	"creatorlink-platform/pkg/httpapi"

	"github.com/gin-gonic/gin"
)

type listResponse struct {
	Transactions []*Transaction       `json:"transactions"`
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
	v1.GET("/transactions", h.list)
	v1.GET("/transactions/:id", h.get)
}

func (h *Handler) get(c *gin.Context) {
	txn, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		httpapi.Fail(c, err)
		return
	}
	httpapi.OK(c, txn)
}

func (h *Handler) list(c *gin.Context) {
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		httpapi.Fail(c, errutil.BadRequest("invalid pagination", err))
		return
	}

	transactions, pageInfo, err := h.svc.List(c.Request.Context(), ListInput{
		InfluencerID: c.Query("influencer_id"),
		Status:       Status(c.Query("status")),
		Pagination:   page,
	})
	if err != nil {
		httpapi.Fail(c, err)
		return
	}

	httpapi.OK(c, listResponse{Transactions: transactions, PageInfo: pageInfo})
}
