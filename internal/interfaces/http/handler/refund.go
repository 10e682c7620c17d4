package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/finledger/backend/internal/application/ledger"
	"github.com/finledger/backend/internal/domain/ledger"
)

// RefundHandler handles refund record API endpoints
type RefundHandler struct {
	BaseHandler
	refundService *ledgerapp.RefundService
}

// NewRefundHandler creates a new RefundHandler
func NewRefundHandler(refundService *ledgerapp.RefundService) *RefundHandler {
	return &RefundHandler{
		refundService: refundService,
	}
}

// CreateRefundRequest represents a request to create a standalone refund
//
//	@Description	Request body for creating a refund
type CreateRefundRequest struct {
	OrderID    string  `json:"order_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Type       string  `json:"type" binding:"required" example:"OVERPAYMENT"`
	Method     string  `json:"method" binding:"required" example:"BANK_TRANSFER"`
	Amount     float64 `json:"amount" binding:"required,gt=0" example:"250.00"`
	RefundDate string  `json:"refund_date" example:"2026-02-20T00:00:00Z"`
	Reason     string  `json:"reason" binding:"required,min=1,max=500" example:"customer overpaid"`
	Remark     string  `json:"remark" example:"refund to original account"`
}

// CompleteRefundRequest represents a request to complete a processing refund
//
//	@Description	Request body for completing a refund
type CompleteRefundRequest struct {
	ProcessedAmount float64 `json:"processed_amount" binding:"required,gt=0" example:"250.00"`
}

// RejectRefundRequest represents a request to reject a refund
//
//	@Description	Request body for rejecting a refund
type RejectRefundRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"no matching bank transfer"`
}

// RefundListFilter binds the list query parameters
type RefundListFilter struct {
	Search        string  `form:"search"`
	OrderID       *string `form:"order_id" binding:"omitempty,uuid"`
	ReturnOrderID *string `form:"return_order_id" binding:"omitempty,uuid"`
	PartyID       *string `form:"party_id" binding:"omitempty,uuid"`
	Status        *string `form:"status"`
	FromDate      *string `form:"from_date"`
	ToDate        *string `form:"to_date"`
	OrderBy       string  `form:"order_by"`
	OrderDir      string  `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page          int     `form:"page" binding:"omitempty,min=1"`
	PageSize      int     `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// Create godoc
//
//	@ID				createRefund
//	@Summary		Create a refund
//	@Description	Create a standalone refund against an order. Fails when the refund would exceed the refundable amount.
//	@Tags			refunds
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string				true	"Acting user ID"	format(uuid)
//	@Param			request		body		CreateRefundRequest	true	"Refund details"
//	@Success		201			{object}	APIResponse[ledgerapp.RefundRecordDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/ledger/refunds [post]
func (h *RefundHandler) Create(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	var req CreateRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	refundDate := time.Now()
	if req.RefundDate != "" {
		refundDate, err = time.Parse(time.RFC3339, req.RefundDate)
		if err != nil {
			h.BadRequest(c, "Invalid refund date, expected RFC 3339")
			return
		}
	}

	record, err := h.refundService.CreateRefund(c.Request.Context(), ledgerapp.CreateRefundRequest{
		OrderID:    orderID,
		Type:       ledger.RefundType(req.Type),
		Method:     ledger.PaymentMethod(req.Method),
		Amount:     decimal.NewFromFloat(req.Amount),
		RefundDate: refundDate,
		Reason:     req.Reason,
		Remark:     req.Remark,
		CreatedBy:  actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}

// StartProcessing godoc
//
//	@ID				startProcessingRefund
//	@Summary		Start processing a refund
//	@Tags			refunds
//	@Produce		json
//	@Param			X-Actor-ID	header		string	true	"Acting user ID"	format(uuid)
//	@Param			id			path		string	true	"Refund ID"			format(uuid)
//	@Success		200			{object}	APIResponse[ledgerapp.RefundRecordDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/ledger/refunds/{id}/process [post]
func (h *RefundHandler) StartProcessing(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	record, err := h.refundService.StartProcessing(c.Request.Context(), refundID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Complete godoc
//
//	@ID				completeRefund
//	@Summary		Complete a refund
//	@Description	Complete a processing refund with the amount actually paid out
//	@Tags			refunds
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string					true	"Acting user ID"	format(uuid)
//	@Param			id			path		string					true	"Refund ID"			format(uuid)
//	@Param			request		body		CompleteRefundRequest	true	"Processed amount"
//	@Success		200			{object}	APIResponse[ledgerapp.RefundRecordDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/ledger/refunds/{id}/complete [post]
func (h *RefundHandler) Complete(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	var req CompleteRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.refundService.CompleteRefund(c.Request.Context(), refundID, actor, decimal.NewFromFloat(req.ProcessedAmount))
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Reject godoc
//
//	@ID				rejectRefund
//	@Summary		Reject a refund
//	@Tags			refunds
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string				true	"Acting user ID"	format(uuid)
//	@Param			id			path		string				true	"Refund ID"			format(uuid)
//	@Param			request		body		RejectRefundRequest	true	"Rejection reason"
//	@Success		200			{object}	APIResponse[ledgerapp.RefundRecordDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/ledger/refunds/{id}/reject [post]
func (h *RefundHandler) Reject(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	var req RejectRefundRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.refundService.RejectRefund(c.Request.Context(), refundID, actor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// GetByID godoc
//
//	@ID				getRefundById
//	@Summary		Get refund by ID
//	@Tags			refunds
//	@Produce		json
//	@Param			id	path		string	true	"Refund ID"	format(uuid)
//	@Success		200	{object}	APIResponse[ledgerapp.RefundRecordDTO]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/ledger/refunds/{id} [get]
func (h *RefundHandler) GetByID(c *gin.Context) {
	refundID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid refund ID format")
		return
	}

	record, err := h.refundService.GetRefund(c.Request.Context(), refundID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// List godoc
//
//	@ID				listRefunds
//	@Summary		List refunds
//	@Description	Retrieve a paginated list of refund records with optional filtering
//	@Tags			refunds
//	@Produce		json
//	@Param			search			query		string	false	"Search term (refund number, order number)"
//	@Param			order_id		query		string	false	"Order ID"			format(uuid)
//	@Param			return_order_id	query		string	false	"Return Order ID"	format(uuid)
//	@Param			party_id		query		string	false	"Party ID"			format(uuid)
//	@Param			status			query		string	false	"Refund status"		Enums(PENDING, PROCESSING, COMPLETED, REJECTED)
//	@Param			from_date		query		string	false	"Start of refund date range (ISO 8601)"
//	@Param			to_date			query		string	false	"End of refund date range (ISO 8601)"
//	@Param			page			query		int		false	"Page number"	default(1)
//	@Param			page_size		query		int		false	"Page size"		default(20)	maximum(200)
//	@Param			order_by		query		string	false	"Order by field"	default(refund_date)
//	@Param			order_dir		query		string	false	"Order direction"	Enums(asc, desc)
//	@Success		200				{object}	APIResponse[[]ledgerapp.RefundRecordDTO]
//	@Failure		400				{object}	ErrorResponse
//	@Router			/ledger/refunds [get]
func (h *RefundHandler) List(c *gin.Context) {
	var q RefundListFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := h.toDomainFilter(q)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.refundService.ListRefunds(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, filter.Page, filter.PageSize)
}

func (h *RefundHandler) toDomainFilter(q RefundListFilter) (ledger.RefundRecordFilter, error) {
	filter := ledger.RefundRecordFilter{
		Search:   q.Search,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	if q.OrderID != nil {
		id, err := uuid.Parse(*q.OrderID)
		if err != nil {
			return filter, err
		}
		filter.OrderID = &id
	}
	if q.ReturnOrderID != nil {
		id, err := uuid.Parse(*q.ReturnOrderID)
		if err != nil {
			return filter, err
		}
		filter.ReturnOrderID = &id
	}
	if q.PartyID != nil {
		id, err := uuid.Parse(*q.PartyID)
		if err != nil {
			return filter, err
		}
		filter.PartyID = &id
	}
	if q.Status != nil {
		status := ledger.RefundStatus(*q.Status)
		filter.Status = &status
	}

	var err error
	if filter.FromDate, err = parseTimePtr(q.FromDate); err != nil {
		return filter, err
	}
	if filter.ToDate, err = parseTimePtr(q.ToDate); err != nil {
		return filter, err
	}
	return filter, nil
}
