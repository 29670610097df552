package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/sales"
	"retailops/internal/infrastructure/http/v1/dto"
)

// SaleService is what SalesHandler needs from the sales domain.
type SaleService interface {
	Record(ctx context.Context, in sales.RecordInput) (*sales.RecordResult, error)
	GetByID(ctx context.Context, saleID id.ID) (*sales.Sale, error)
	List(ctx context.Context, filter sales.ListFilter) (domain.ListResult[*sales.Sale], error)
}

// SalesHandler handles /sales.
type SalesHandler struct {
	BaseHandler
	service SaleService
}

// NewSalesHandler creates a sales handler.
func NewSalesHandler(service SaleService) *SalesHandler {
	return &SalesHandler{service: service}
}

// Create records a sale.
// POST /sales
func (h *SalesHandler) Create(c *gin.Context) {
	var req dto.CreateSaleRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	res, err := h.service.Record(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromRecordSaleResult(res))
}

// Get returns one sale.
// GET /sales/:id
func (h *SalesHandler) Get(c *gin.Context) {
	saleID, ok := h.PathID(c)
	if !ok {
		return
	}
	sale, err := h.service.GetByID(c.Request.Context(), saleID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromSale(sale))
}

// List returns sales newest first.
// GET /sales
func (h *SalesHandler) List(c *gin.Context) {
	var q dto.SaleListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	res, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.MapList(res, dto.FromSale))
}
