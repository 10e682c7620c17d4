package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	returnsapp "github.com/finledger/backend/internal/application/returns"
	"github.com/finledger/backend/internal/domain/ledger"
	"github.com/finledger/backend/internal/domain/returns"
)

// ReturnOrderHandler handles return order API endpoints
type ReturnOrderHandler struct {
	BaseHandler
	returnService *returnsapp.ReturnOrderService
}

// NewReturnOrderHandler creates a new ReturnOrderHandler
func NewReturnOrderHandler(returnService *returnsapp.ReturnOrderService) *ReturnOrderHandler {
	return &ReturnOrderHandler{
		returnService: returnService,
	}
}

// CreateReturnOrderRequest represents a request to create a new return order
//
//	@Description	Request body for creating a return order
type CreateReturnOrderRequest struct {
	OrderID     string `json:"order_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440000"`
	Type        string `json:"type" binding:"required" example:"RETURN_AND_REFUND"`
	ProcessType string `json:"process_type" binding:"required" example:"AFTER_RECEIPT"`
	Reason      string `json:"reason" binding:"required,min=1,max=500" example:"damaged in transit"`
	Remark      string `json:"remark" example:"photos attached to ticket"`
}

// AddReturnItemRequest represents a request to add a line to a draft return
//
//	@Description	Request body for adding a return item
type AddReturnItemRequest struct {
	OrderLineID    string `json:"order_line_id" binding:"required,uuid" example:"550e8400-e29b-41d4-a716-446655440002"`
	ReturnQuantity int    `json:"return_quantity" binding:"required,gt=0" example:"2"`
	Condition      string `json:"condition" binding:"required" example:"DAMAGED"`
}

// UpdateReturnItemRequest represents a request to change a return item quantity
//
//	@Description	Request body for updating a return item
type UpdateReturnItemRequest struct {
	ReturnQuantity int `json:"return_quantity" binding:"required,gt=0" example:"1"`
}

// ApproveReturnRequest represents an approval decision for a submitted return
//
//	@Description	Request body for approving or rejecting a return
type ApproveReturnRequest struct {
	Approved     bool    `json:"approved" example:"true"`
	RefundAmount float64 `json:"refund_amount" binding:"omitempty,gt=0" example:"199.90"`
	RefundMethod string  `json:"refund_method" example:"BANK_TRANSFER"`
	Remark       string  `json:"remark" example:"approved, partial refund for shipping"`
}

// CompleteReturnRequest represents a request to complete a processing return
//
//	@Description	Request body for completing a return
type CompleteReturnRequest struct {
	RefundAmount *float64 `json:"refund_amount" binding:"omitempty,gt=0" example:"149.90"`
}

// CancelReturnRequest represents a request to cancel a return
//
//	@Description	Request body for cancelling a return
type CancelReturnRequest struct {
	Reason string `json:"reason" binding:"required,min=1,max=500" example:"customer withdrew the request"`
}

// ReturnOrderListFilter binds the list query parameters
type ReturnOrderListFilter struct {
	Search   string  `form:"search"`
	OrderID  *string `form:"order_id" binding:"omitempty,uuid"`
	PartyID  *string `form:"party_id" binding:"omitempty,uuid"`
	Status   *string `form:"status"`
	Type     *string `form:"type"`
	FromDate *string `form:"from_date"`
	ToDate   *string `form:"to_date"`
	OrderBy  string  `form:"order_by"`
	OrderDir string  `form:"order_dir" binding:"omitempty,oneof=asc desc ASC DESC"`
	Page     int     `form:"page" binding:"omitempty,min=1"`
	PageSize int     `form:"page_size" binding:"omitempty,min=1,max=200"`
}

// Create godoc
//
//	@ID				createReturnOrder
//	@Summary		Create a return order
//	@Description	Create a draft return order against an existing order
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string						true	"Acting user ID"	format(uuid)
//	@Param			request		body		CreateReturnOrderRequest	true	"Return order details"
//	@Success		201			{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/returns [post]
func (h *ReturnOrderHandler) Create(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	var req CreateReturnOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderID, err := uuid.Parse(req.OrderID)
	if err != nil {
		h.BadRequest(c, "Invalid order ID format")
		return
	}

	ro, err := h.returnService.CreateReturnOrder(c.Request.Context(), returnsapp.CreateReturnOrderRequest{
		OrderID:     orderID,
		Type:        returns.ReturnType(req.Type),
		ProcessType: returns.ProcessType(req.ProcessType),
		Reason:      req.Reason,
		Remark:      req.Remark,
		CreatedBy:   actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, ro)
}

// GetByID godoc
//
//	@ID				getReturnOrderById
//	@Summary		Get return order by ID
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Router			/returns/{id} [get]
func (h *ReturnOrderHandler) GetByID(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}

	ro, err := h.returnService.GetReturnOrder(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// List godoc
//
//	@ID				listReturnOrders
//	@Summary		List return orders
//	@Description	Retrieve a paginated list of return orders with optional filtering
//	@Tags			returns
//	@Produce		json
//	@Param			search		query		string	false	"Search term (return number, order number)"
//	@Param			order_id	query		string	false	"Order ID"	format(uuid)
//	@Param			party_id	query		string	false	"Party ID"	format(uuid)
//	@Param			status		query		string	false	"Return status"	Enums(DRAFT, SUBMITTED, APPROVED, REJECTED, PROCESSING, COMPLETED, CANCELLED)
//	@Param			type		query		string	false	"Return type"	Enums(RETURN_AND_REFUND, REFUND_ONLY, EXCHANGE)
//	@Param			from_date	query		string	false	"Start of creation date range (ISO 8601)"
//	@Param			to_date		query		string	false	"End of creation date range (ISO 8601)"
//	@Param			page		query		int		false	"Page number"	default(1)
//	@Param			page_size	query		int		false	"Page size"		default(20)	maximum(200)
//	@Param			order_by	query		string	false	"Order by field"	default(created_at)
//	@Param			order_dir	query		string	false	"Order direction"	Enums(asc, desc)
//	@Success		200			{object}	APIResponse[[]returnsapp.ReturnOrderDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Router			/returns [get]
func (h *ReturnOrderHandler) List(c *gin.Context) {
	var q ReturnOrderListFilter
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	filter, err := h.toDomainFilter(q)
	if err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.returnService.ListReturnOrders(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, result.Items, result.Total, filter.Page, filter.PageSize)
}

// AddItem godoc
//
//	@ID				addReturnOrderItem
//	@Summary		Add an item to a draft return
//	@Description	Add an order line to a draft return order. The cumulative returned quantity per line may not exceed the ordered quantity.
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Return Order ID"	format(uuid)
//	@Param			request	body		AddReturnItemRequest	true	"Item details"
//	@Success		200		{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/returns/{id}/items [post]
func (h *ReturnOrderHandler) AddItem(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}

	var req AddReturnItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	orderLineID, err := uuid.Parse(req.OrderLineID)
	if err != nil {
		h.BadRequest(c, "Invalid order line ID format")
		return
	}

	ro, err := h.returnService.AddItem(c.Request.Context(), returnsapp.AddItemRequest{
		ReturnOrderID:  returnID,
		OrderLineID:    orderLineID,
		ReturnQuantity: req.ReturnQuantity,
		Condition:      returns.ItemCondition(req.Condition),
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// UpdateItem godoc
//
//	@ID				updateReturnOrderItem
//	@Summary		Change a return item quantity
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string					true	"Return Order ID"	format(uuid)
//	@Param			item_id	path		string					true	"Item ID"			format(uuid)
//	@Param			request	body		UpdateReturnItemRequest	true	"New quantity"
//	@Success		200		{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		422		{object}	ErrorResponse
//	@Router			/returns/{id}/items/{item_id} [put]
func (h *ReturnOrderHandler) UpdateItem(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	var req UpdateReturnItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ro, err := h.returnService.UpdateItemQuantity(c.Request.Context(), returnID, itemID, req.ReturnQuantity)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// RemoveItem godoc
//
//	@ID				removeReturnOrderItem
//	@Summary		Remove an item from a draft return
//	@Tags			returns
//	@Produce		json
//	@Param			id		path		string	true	"Return Order ID"	format(uuid)
//	@Param			item_id	path		string	true	"Item ID"			format(uuid)
//	@Success		200		{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400		{object}	ErrorResponse
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse
//	@Router			/returns/{id}/items/{item_id} [delete]
func (h *ReturnOrderHandler) RemoveItem(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}
	itemID, err := uuid.Parse(c.Param("item_id"))
	if err != nil {
		h.BadRequest(c, "Invalid item ID format")
		return
	}

	ro, err := h.returnService.RemoveItem(c.Request.Context(), returnID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// Submit godoc
//
//	@ID				submitReturnOrder
//	@Summary		Submit a return for approval
//	@Tags			returns
//	@Produce		json
//	@Param			id	path		string	true	"Return Order ID"	format(uuid)
//	@Success		200	{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Failure		422	{object}	ErrorResponse
//	@Router			/returns/{id}/submit [post]
func (h *ReturnOrderHandler) Submit(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}

	ro, err := h.returnService.Submit(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// Approve godoc
//
//	@ID				approveReturnOrder
//	@Summary		Approve or reject a submitted return
//	@Description	Approve a submitted return with the refund amount and method, or reject it. Approval creates a pending refund for refundable return types.
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string					true	"Acting user ID"	format(uuid)
//	@Param			id			path		string					true	"Return Order ID"	format(uuid)
//	@Param			request		body		ApproveReturnRequest	true	"Approval decision"
//	@Success		200			{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/returns/{id}/approve [post]
func (h *ReturnOrderHandler) Approve(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}

	var req ApproveReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ro, err := h.returnService.Approve(c.Request.Context(), returnsapp.ApproveRequest{
		ReturnOrderID: returnID,
		Approved:      req.Approved,
		RefundAmount:  decimal.NewFromFloat(req.RefundAmount),
		RefundMethod:  ledger.PaymentMethod(req.RefundMethod),
		Remark:        req.Remark,
		Actor:         actor,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// StartProcessing godoc
//
//	@ID				startProcessingReturnOrder
//	@Summary		Start processing an approved return
//	@Tags			returns
//	@Produce		json
//	@Param			X-Actor-ID	header		string	true	"Acting user ID"	format(uuid)
//	@Param			id			path		string	true	"Return Order ID"	format(uuid)
//	@Success		200			{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/returns/{id}/process [post]
func (h *ReturnOrderHandler) StartProcessing(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}

	ro, err := h.returnService.StartProcessing(c.Request.Context(), returnID, actor)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// Complete godoc
//
//	@ID				completeReturnOrder
//	@Summary		Complete a processing return
//	@Description	Complete a processing return, optionally overriding the approved refund amount
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string					true	"Acting user ID"	format(uuid)
//	@Param			id			path		string					true	"Return Order ID"	format(uuid)
//	@Param			request		body		CompleteReturnRequest	false	"Completion details"
//	@Success		200			{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Failure		422			{object}	ErrorResponse
//	@Router			/returns/{id}/complete [post]
func (h *ReturnOrderHandler) Complete(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}

	var req CompleteReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	appReq := returnsapp.CompleteRequest{
		ReturnOrderID: returnID,
		Actor:         actor,
	}
	if req.RefundAmount != nil {
		amount := decimal.NewFromFloat(*req.RefundAmount)
		appReq.RefundAmount = &amount
	}

	ro, err := h.returnService.Complete(c.Request.Context(), appReq)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// Cancel godoc
//
//	@ID				cancelReturnOrder
//	@Summary		Cancel a return
//	@Description	Cancel a return that has not completed. Open refunds created by the approval are rejected.
//	@Tags			returns
//	@Accept			json
//	@Produce		json
//	@Param			X-Actor-ID	header		string				true	"Acting user ID"	format(uuid)
//	@Param			id			path		string				true	"Return Order ID"	format(uuid)
//	@Param			request		body		CancelReturnRequest	true	"Cancellation reason"
//	@Success		200			{object}	APIResponse[returnsapp.ReturnOrderDTO]
//	@Failure		400			{object}	ErrorResponse
//	@Failure		404			{object}	ErrorResponse
//	@Failure		409			{object}	ErrorResponse
//	@Router			/returns/{id}/cancel [post]
func (h *ReturnOrderHandler) Cancel(c *gin.Context) {
	actor, err := getActorID(c)
	if err != nil {
		h.BadRequest(c, "Invalid actor ID")
		return
	}

	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}

	var req CancelReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ro, err := h.returnService.Cancel(c.Request.Context(), returnID, actor, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, ro)
}

// Delete godoc
//
//	@ID				deleteReturnOrder
//	@Summary		Delete a draft return
//	@Tags			returns
//	@Produce		json
//	@Param			id	path	string	true	"Return Order ID"	format(uuid)
//	@Success		204
//	@Failure		400	{object}	ErrorResponse
//	@Failure		404	{object}	ErrorResponse
//	@Failure		409	{object}	ErrorResponse
//	@Router			/returns/{id} [delete]
func (h *ReturnOrderHandler) Delete(c *gin.Context) {
	returnID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		h.BadRequest(c, "Invalid return order ID format")
		return
	}

	if err := h.returnService.Delete(c.Request.Context(), returnID); err != nil {
		h.HandleError(c, err)
		return
	}

	h.NoContent(c)
}

func (h *ReturnOrderHandler) toDomainFilter(q ReturnOrderListFilter) (returns.ReturnOrderFilter, error) {
	filter := returns.ReturnOrderFilter{
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
		status := returns.ReturnStatus(*q.Status)
		filter.Status = &status
	}
	if q.Type != nil {
		returnType := returns.ReturnType(*q.Type)
		filter.Type = &returnType
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
