package handler

import (
	"github.com/gin-gonic/gin"

	paymentapp "github.com/cashflow/backend/internal/application/payment"
)

// PaymentHandler exposes the payment event lifecycle
type PaymentHandler struct {
	BaseHandler
	linker *paymentapp.LinkerService
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(linker *paymentapp.LinkerService) *PaymentHandler {
	return &PaymentHandler{linker: linker}
}

// Create handles POST /payments
func (h *PaymentHandler) Create(c *gin.Context) {
	var req paymentapp.CreateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.linker.CreateEvent(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /payments/:id
func (h *PaymentHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.linker.GetEvent(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /payments with party and state filters
func (h *PaymentHandler) List(c *gin.Context) {
	var filter paymentapp.EventListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.linker.ListEvents(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit handles POST /payments/:id/submit
func (h *PaymentHandler) Submit(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.linker.Submit(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel handles POST /payments/:id/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.linker.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// OverdueNotice handles GET /customers/:id/overdue-notice
func (h *PaymentHandler) OverdueNotice(c *gin.Context) {
	customerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.linker.OverdueNotice(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
