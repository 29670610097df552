package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"retailops/internal/core/id"
	"retailops/internal/domain"
	"retailops/internal/domain/returns"
	"retailops/internal/infrastructure/http/v1/dto"
)

// ReturnService is what ReturnsHandler needs from the returns domain.
type ReturnService interface {
	Record(ctx context.Context, in returns.RecordInput) (*returns.RecordResult, error)
	GetByID(ctx context.Context, returnID id.ID) (*returns.Return, error)
	List(ctx context.Context, filter returns.ListFilter) (domain.ListResult[*returns.Return], error)
}

// ReturnsHandler handles /returns.
type ReturnsHandler struct {
	BaseHandler
	service ReturnService
}

// NewReturnsHandler creates a returns handler.
func NewReturnsHandler(service ReturnService) *ReturnsHandler {
	return &ReturnsHandler{service: service}
}

// Create records a return against a sale.
// POST /returns
func (h *ReturnsHandler) Create(c *gin.Context) {
	var req dto.CreateReturnRequest
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
	h.Created(c, dto.FromRecordReturnResult(res))
}

// Get returns one return.
// GET /returns/:id
func (h *ReturnsHandler) Get(c *gin.Context) {
	returnID, ok := h.PathID(c)
	if !ok {
		return
	}
	ret, err := h.service.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.OK(c, dto.FromReturn(ret))
}

// List returns returns newest first.
// GET /returns
func (h *ReturnsHandler) List(c *gin.Context) {
	var q dto.ReturnListQuery
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
	h.OK(c, dto.MapList(res, dto.FromReturn))
}
