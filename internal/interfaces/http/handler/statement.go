package handler

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	statementapp "github.com/finledger/backend/internal/application/statement"
)

// StatementHandler handles reconciliation statement API endpoints
type StatementHandler struct {
	BaseHandler
	statementService *statementapp.Service
}

// NewStatementHandler creates a new StatementHandler
func NewStatementHandler(statementService *statementapp.Service) *StatementHandler {
	return &StatementHandler{
		statementService: statementService,
	}
}

// StatementQuery binds the statement query parameters
type StatementQuery struct {
	From string  `form:"from" binding:"required"`
	To   string  `form:"to" binding:"required"`
	AsOf *string `form:"as_of"`
}

// Generate godoc
//
//	@ID				generateStatement
//	@Summary		Generate a reconciliation statement
//	@Description	Produce a chronological running-balance statement of one party's orders, payments, returns and refunds over a date range, ending with aging buckets of the remaining receivables
//	@Tags			statements
//	@Produce		json
//	@Param			party_id	path		string	true	"Party ID"	format(uuid)
//	@Param			from		query		string	true	"Start of range (ISO 8601)"
//	@Param			to			query		string	true	"End of range (ISO 8601)"
//	@Param			as_of		query		string	false	"Anchor for the aging computation (ISO 8601), defaults to the range end"
//	@Success		200			{object}	APIResponse[statementapp.Statement]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/statements/{party_id} [get]
func (h *StatementHandler) Generate(c *gin.Context) {
	partyID, err := uuid.Parse(c.Param("party_id"))
	if err != nil {
		h.BadRequest(c, "Invalid party ID format")
		return
	}

	var q StatementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	from, err := time.Parse(time.RFC3339, q.From)
	if err != nil {
		h.BadRequest(c, "Invalid from date, expected RFC 3339")
		return
	}
	to, err := time.Parse(time.RFC3339, q.To)
	if err != nil {
		h.BadRequest(c, "Invalid to date, expected RFC 3339")
		return
	}

	req := statementapp.GenerateRequest{
		PartyID: partyID,
		From:    from,
		To:      to,
	}
	if q.AsOf != nil && *q.AsOf != "" {
		asOf, err := time.Parse(time.RFC3339, *q.AsOf)
		if err != nil {
			h.BadRequest(c, "Invalid as_of, expected RFC 3339")
			return
		}
		req.AsOf = asOf
	}

	stmt, err := h.statementService.Generate(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, stmt)
}
