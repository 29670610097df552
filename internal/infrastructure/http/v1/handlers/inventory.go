package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/entity"
	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/inventory"
	"retailops/internal/infrastructure/http/v1/dto"
)

// InventoryService is what InventoryHandler needs from the inventory domain.
type InventoryService interface {
	StockLevel(ctx context.Context, productID id.ID, asOf *time.Time) (entity.StockLevel, error)
	ListMovements(ctx context.Context, productID id.ID, filter inventory.MovementFilter) (domain.ListResult[entity.InventoryMovement], error)
	RecordMovement(ctx context.Context, in inventory.RecordMovementInput) (*inventory.RecordMovementResult, error)
}

// InventoryHandler handles /inventory.
type InventoryHandler struct {
	BaseHandler
	service InventoryService
}

// NewInventoryHandler creates an inventory handler.
func NewInventoryHandler(service InventoryService) *InventoryHandler {
	return &InventoryHandler{service: service}
}

// Stock returns the quantity on hand of a product.
// GET /inventory/products/:id/stock?asOf=
func (h *InventoryHandler) Stock(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}
	var q dto.StockQuery
	if !h.BindQuery(c, &q) {
		return
	}
	level, err := h.service.StockLevel(c.Request.Context(), productID, q.AsOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromStockLevel(level))
}

// ListMovements returns the ledger of a product, newest first.
// GET /inventory/products/:id/movements
func (h *InventoryHandler) ListMovements(c *gin.Context) {
	productID, ok := h.PathID(c)
	if !ok {
		return
	}
	var q dto.MovementListQuery
	if !h.BindQuery(c, &q) {
		return
	}
	filter, err := q.ToFilter()
	if err != nil {
		h.HandleError(c, err)
		return
	}
	res, err := h.service.ListMovements(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.MapList(res, dto.FromMovement))
}

// RecordMovement appends a manual adjustment.
// POST /inventory/products/:id/movements
func (h *InventoryHandler) RecordMovement(c *gin.Context) {
	var req dto.RecordMovementRequest
	if !h.BindJSON(c, &req) {
		return
	}
	in, err := req.ToInput(c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	res, err := h.service.RecordMovement(c.Request.Context(), in)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, dto.FromRecordMovementResult(res))
}
