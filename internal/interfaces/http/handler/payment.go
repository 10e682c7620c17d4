package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	ledgerapp "github.com/finledger/backend/internal/application/ledger"
	"github.com/finledger/backend/internal/domain/ledger"
)

// PaymentHandler handles payment record API endpoints
type PaymentHandler struct {
	BaseHandler
	paymentService *ledgerapp.PaymentService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(paymentService *ledgerapp.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
	}
}

// RecordPaymentRequest represents a request to record a payment against an order
//
//	@Description	Request body for recording a payment
type RecordPaymentRequest struct {
	OrderID       string  `json:"order_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	PartyID       string  `json:"party_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440001"`
	Method        string  `json:"method" binding:"required" example:"BANK_TRANSFER"`
	Amount        float64 `json:"amount" binding:"required,gt=0" example:"1500.00"`
	PaymentDate   string  `json:"payment_date" example:"2026-02-14T00:00:00Z"`
	BankReference string  `json:"bank_reference" example:"TRX-88123"`
	Remark        string  `json:"remark" example:"wire received"`
	Pending       bool    `json:"pending" example:"false"`
}

// VoidPaymentRequest represents a request to void a confirmed payment
//
//	@Description	Request body for voiding a payment
type VoidPaymentRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"duplicate entry"`
}

// PaymentListFilter binds the list query parameters
type PaymentListFilter struct {
	Search   string  `form:"search"`
	OrderID  *string `form:"order_id" binding:"omitempty,uuid"`
	PartyID  *string `form:"party_id" binding:"omitempty,uuid"`
	Status   *string `form:"status"`
	Method   *string `form:"method"`
	FromDate *string `form:"from_date"`
	ToDate   *string `form:"to_date"`
	OrderBy  string  `form:"order_by"`
	OrderDir string  `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page     int     `form:"page" binding:"omitempty,min=1"`
	PageSize int     `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// Record godoc
//
//	@ID				recordPayment
//	@Summary		Record a payment
//	@Description	Record a confirmed payment against an order. Fails when the payment would exceed the order total.
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string					true	"Acting user ID"	format(uuid)
//	@Param			request		body		RecordPaymentRequest	true	"Payment details"
//	@Success		201			{object}	APIResponse[ledgerapp.PaymentRecordDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/ledger/payments [post]
func (h *PaymentHandler) Record(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}
	partyID, err := uuid.Parse(req.PartyID)
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	paymentDate := time.Now()
	if req.PaymentDate != "" {
		paymentDate, err = time.Parse(time.RFC3339, req.PaymentDate)
		if err != nil {
			h.BadRequest(c, "Invalid payment date, expected RFC 3339")
			return
		}
	}

	record, err := h.paymentService.RecordPayment(c.Request.Context(), ledgerapp.RecordPaymentRequest{
		OrderID:       orderID,
		PartyID:       partyID,
		Method:        ledger.PaymentMethod(req.Method),
		Amount:        decimal.NewFromFloat(req.Amount),
		PaymentDate:   paymentDate,
		BankReference: req.BankReference,
		Remark:        req.Remark,
		Pending:       req.Pending,
		RecordedBy:    actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, record)
}

// Confirm godoc
//
//	@ID				confirmPayment
//	@Summary		Confirm a pending payment
//	@Description	Confirm a pending payment so it counts toward the order's paid total. Re-checks the overpayment limit.
//	@Tags			payments
//	@Produce		json
//	@Param			X-Actor-ID	header		string	true	"Acting user ID"	format(uuid)
//	@Param			id			path		string	true	"Payment ID"		format(uuid)
//	@Success		200			{object}	APIResponse[ledgerapp.PaymentRecordDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/ledger/payments/{id}/confirm [post]
func (h *PaymentHandler) Confirm(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	record, err := h.paymentService.ConfirmPayment(c.Request.Context(), paymentID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// Void godoc
//
//	@ID				voidPayment
//	@Summary		Void a payment
//	@Description	Void a confirmed payment, releasing its amount back to the order's outstanding balance
//	@Tags			payments
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string				true	"Acting user ID"	format(uuid)
//	@Param			id			path		string				true	"Payment ID"		format(uuid)
//	@Param			request		body		VoidPaymentRequest	true	"Void reason"
//	@Success		200			{object}	APIResponse[ledgerapp.PaymentRecordDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/ledger/payments/{id}/void [post]
func (h *PaymentHandler) Void(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	var req VoidPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	record, err := h.paymentService.VoidPayment(c.Request.Context(), paymentID, actor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// GetByID godoc
//
//	@ID				getPaymentById
//	@Summary		Get payment by ID
//	@Tags			payments
//	@Produce		json
//	@Param			id	path		string	true	"Payment ID"	format(uuid)
//	@Success		200	{object}	APIResponse[ledgerapp.PaymentRecordDTO]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/ledger/payments/{id} [get]
func (h *PaymentHandler) GetByID(c *gin.Context) {
	paymentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid payment ID format")
		return
	}

	record, err := h.paymentService.GetPayment(c.Request.Context(), paymentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, record)
}

// List godoc
//
//	@ID				listPayments
//	@Summary		List payments
//	@Description	Retrieve a paginated list of payment records with optional filtering
//	@Tags			payments
//	@Produce		json
//	@Param			search		query		string	false	"Search term (payment number, order number, bank reference)"
//	@Param			order_id	query		string	false	"Order ID"	format(uuid)
//	@Param			party_id	query		string	false	"Party ID"	format(uuid)
//	@Param			status		query		string	false	"Payment status"	Enums(CONFIRMED, VOIDED)
//	@Param			method		query		string	false	"Payment method"
//	@Param			from_date	query		string	false	"Start of payment date range (ISO 8601)"
//	@Param			to_date		query		string	false	"End of payment date range (ISO 8601)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(200)
//	@Param			order_by	query		string	false	"Order by field"	default(payment_date)
//	@Param			order_dir	query		string	false	"Order direction"	Enums(asc, desc)
//	@Success		200			{object}	APIResponse[[]ledgerapp.PaymentRecordDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/ledger/payments [get]
func (h *PaymentHandler) List(c *gin.Context) {
	var q PaymentListFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := h.toDomainFilter(q)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.paymentService.ListPayments(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, filter.Page, filter.PageSize)
}

// GetByOrder godoc
//
//	@ID				getPaymentsByOrder
//	@Summary		List payments of an order
//	@Description	Retrieve all payment records of an order, oldest first
//	@Tags			payments
//	@Produce		json
//	@Param			id	path		string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[[]ledgerapp.PaymentRecordDTO]
//	@Failure		400	{object}	ErrorResponse
//	@Router			/ledger/orders/{id}/payments [get]
func (h *PaymentHandler) GetByOrder(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	records, err := h.paymentService.GetPaymentsByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, records)
}

func (h *PaymentHandler) toDomainFilter(q PaymentListFilter) (ledger.PaymentRecordFilter, error) {
	filter := ledger.PaymentRecordFilter{
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
	if q.PartyID != nil {
		id, err := uuid.Parse(*q.PartyID)
		if err != nil {
			return filter, err
		}
		filter.PartyID = &id
	}
	if q.Status != nil {
		status := ledger.PaymentRecordStatus(*q.Status)
		filter.Status = &status
	}
	if q.Method != nil {
		method := ledger.PaymentMethod(*q.Method)
		filter.Method = &method
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

// parseTimePtr parses an optional RFC 3339 query parameter
func parseTimePtr(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
