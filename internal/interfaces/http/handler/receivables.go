package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	receivablesapp "github.com/finledger/backend/internal/application/receivables"
	"github.com/finledger/backend/internal/domain/ledger"
)

// ReceivablesHandler handles receivables query API endpoints
type ReceivablesHandler struct {
	BaseHandler
	receivablesService *receivablesapp.Service
}

// NewReceivablesHandler creates a new ReceivablesHandler
func NewReceivablesHandler(receivablesService *receivablesapp.Service) *ReceivablesHandler {
	return &ReceivablesHandler{
		receivablesService: receivablesService,
	}
}

// ReceivablesListFilter binds the list query parameters
type ReceivablesListFilter struct {
	Search        string  `form:"search"`
	PartyID       *string `form:"party_id" binding:"omitempty,uuid"`
	PaymentStatus *string `form:"payment_status"`
	FromDate      *string `form:"from_date"`
	ToDate        *string `form:"to_date"`
	AsOf          *string `form:"as_of"`
	SortBy        string  `form:"sort_by"`
	SortDir       string  `form:"sort_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page          int     `form:"page" binding:"omitempty,min=1"`
	PageSize      int     `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// AgingFilter binds the aging query parameters
type AgingFilter struct {
	PartyID *string `form:"party_id" binding:"omitempty,uuid"`
	AsOf    *string `form:"as_of"`
}

// List godoc
//
//	@ID				listReceivables
//	@Summary		List receivables
//	@Description	Retrieve a paginated list of orders with their derived payment fields (paid amount, outstanding, payment status, overdue days) plus a whole-set summary
//	@Tags			receivables
//	@Produce		json
//	@Param			search			query		string	false	"Search term (order number)"
//	@Param			party_id		query		string	false	"Party ID"	format(uuid)
//	@Param			payment_status	query		string	false	"Derived payment status"	Enums(UNPAID, PARTIAL, PAID, OVERPAID)
//	@Param			from_date		query		string	false	"Start of order date range (ISO 8601)"
//	@Param			to_date			query		string	false	"End of order date range (ISO 8601)"
//	@Param			as_of			query		string	false	"Anchor for overdue computation (ISO 8601), defaults to now"
//	@Param			sort_by			query		string	false	"Sort field (stored or derived)"	default(ordered_at)
//	@Param			sort_dir		query		string	false	"Sort direction"					Enums(asc, desc)
//	@Param			page			query		int		false	"Page number"	default(1)
//	@Param			page_size		query		int		false	"Page size"		default(20)	maximum(200)
//	@Success		200				{object}	APIResponse[receivablesapp.ListResult]
//	@Failure		400				{object}	ErrorResponse
//	@Router			/receivables [get]
func (h *ReceivablesHandler) List(c *gin.Context) {
	req, ok := h.bindListRequest(c)
	if !ok {
		return
	}

	result, err := h.receivablesService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result, result.Total, req.Page, req.PageSize)
}

// Summary godoc
//
//	@ID				receivablesSummary
//	@Summary		Receivables summary
//	@Description	Compute the summary statistics (total receivable, total overdue, per-status counts) over every order matching the filter
//	@Tags			receivables
//	@Produce		json
//	@Param			search			query		string	false	"Search term (order number)"
//	@Param			party_id		query		string	false	"Party ID"	format(uuid)
//	@Param			payment_status	query		string	false	"Derived payment status"	Enums(UNPAID, PARTIAL, PAID, OVERPAID)
//	@Param			from_date		query		string	false	"Start of order date range (ISO 8601)"
//	@Param			to_date			query		string	false	"End of order date range (ISO 8601)"
//	@Param			as_of			query		string	false	"Anchor for overdue computation (ISO 8601), defaults to now"
//	@Success		200				{object}	APIResponse[receivablesapp.Summary]
//	@Failure		400				{object}	ErrorResponse
//	@Router			/receivables/summary [get]
func (h *ReceivablesHandler) Summary(c *gin.Context) {
	req, ok := h.bindListRequest(c)
	if !ok {
		return
	}

	summary, err := h.receivablesService.Summary(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, summary)
}

// bindListRequest binds and validates the shared receivables query
// parameters, writing the error response itself on failure.
func (h *ReceivablesHandler) bindListRequest(c *gin.Context) (receivablesapp.ListRequest, bool) {
	var q ReceivablesListFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return receivablesapp.ListRequest{}, false
	}

	req := receivablesapp.ListRequest{
		Search:   q.Search,
		SortBy:   q.SortBy,
		SortDir:  q.SortDir,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if req.Page <= 0 {
		req.Page = 1
	}
	if req.PageSize <= 0 {
		req.PageSize = 20
	}

	if q.PartyID != nil {
		id, err := uuid.Parse(*q.PartyID)
		if err != nil {
			h.BadRequest(c, "Invalid party ID format")
			return receivablesapp.ListRequest{}, false
		}
		req.PartyID = &id
	}
	if q.PaymentStatus != nil {
		status := ledger.PaymentStatus(*q.PaymentStatus)
		if !status.IsValid() {
			h.BadRequest(c, "Invalid payment status")
			return receivablesapp.ListRequest{}, false
		}
		req.PaymentStatus = &status
	}

	var err error
	if req.FromDate, err = parseTimePtr(q.FromDate); err != nil {
		h.BadRequest(c, "Invalid from date, expected RFC 3339")
		return receivablesapp.ListRequest{}, false
	}
	if req.ToDate, err = parseTimePtr(q.ToDate); err != nil {
		h.BadRequest(c, "Invalid to date, expected RFC 3339")
		return receivablesapp.ListRequest{}, false
	}
	if q.AsOf != nil && *q.AsOf != "" {
		asOf, err := time.Parse(time.RFC3339, *q.AsOf)
		if err != nil {
			h.BadRequest(c, "Invalid as_of, expected RFC 3339")
			return receivablesapp.ListRequest{}, false
		}
		req.AsOf = asOf
	}

	return req, true
}

// Aging godoc
//
//	@ID				receivablesAging
//	@Summary		Receivables aging report
//	@Description	Bucket the outstanding receivables by days overdue (current, 1-30, 31-60, 61-90, 90+)
//	@Tags			receivables
//	@Produce		json
//	@Param			party_id	query		string	false	"Party ID"	format(uuid)
//	@Param			as_of		query		string	false	"Anchor for overdue computation (ISO 8601), defaults to now"
//	@Success		200			{object}	APIResponse[[]receivablesapp.AgingBucket]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/receivables/aging [get]
func (h *ReceivablesHandler) Aging(c *gin.Context) {
	var q AgingFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	var partyID *uuid.UUID
	if q.PartyID != nil {
		id, err := uuid.Parse(*q.PartyID)
		if err != nil {
			h.BadRequest(c, "Invalid party ID format")
			return
		}
		partyID = &id
	}

	asOf := time.Now()
	if q.AsOf != nil && *q.AsOf != "" {
		var err error
		asOf, err = time.Parse(time.RFC3339, *q.AsOf)
		if err != nil {
			h.BadRequest(c, "Invalid as_of, expected RFC 3339")
			return
		}
	}

	buckets, err := h.receivablesService.AgingBuckets(c.Request.Context(), partyID, asOf)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, buckets)
}
