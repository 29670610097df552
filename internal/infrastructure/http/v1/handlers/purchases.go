package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/purchases"
	"retailops/internal/infrastructure/http/v1/dto"
)

// PurchaseService is what PurchasesHandler needs from the purchases domain.
type PurchaseService interface {
	Record(ctx context.Context, in purchases.RecordInput) (*purchases.RecordResult, error)
	GetByID(ctx context.Context, purchaseID id.ID) (*purchases.PurchaseOrder, error)
	List(ctx context.Context, filter purchases.ListFilter) (domain.ListResult[*purchases.PurchaseOrder], error)
}

// PurchasesHandler handles /purchases.
type PurchasesHandler struct {
	BaseHandler
	service PurchaseService
}

// NewPurchasesHandler creates a purchases handler.
func NewPurchasesHandler(service PurchaseService) *PurchasesHandler {
	return &PurchasesHandler{service: service}
}

// Create records a received purchase order.
// POST /purchases
func (h *PurchasesHandler) Create(c *gin.Context) {
	var req dto.CreatePurchaseRequest
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
	h.Created(c, dto.FromRecordPurchaseResult(res))
}

// Get returns one purchase order.
// GET /purchases/:id
func (h *PurchasesHandler) Get(c *gin.Context) {
	purchaseID, ok := h.PathID(c)
	if !ok {
		return
	}
	po, err := h.service.GetByID(c.Request.Context(), purchaseID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromPurchase(po))
}

// List returns purchase orders newest first.
// GET /purchases
func (h *PurchasesHandler) List(c *gin.Context) {
	var q dto.PurchaseListQuery
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
	h.OK(c, dto.MapList(res, dto.FromPurchase))
}
