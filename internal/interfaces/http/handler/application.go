package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	installmentapp "github.com/cashflow/backend/internal/application/installment"
)

// ApplicationHandler exposes the installment application lifecycle
type ApplicationHandler struct {
	BaseHandler
	service *installmentapp.ContractService
}

// NewApplicationHandler creates a new ApplicationHandler
func NewApplicationHandler(service *installmentapp.ContractService) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// Create handles POST /applications
func (h *ApplicationHandler) Create(c *gin.Context) {
	var req installmentapp.CreateApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.service.CreateApplication(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Get handles GET /applications/:id
func (h *ApplicationHandler) Get(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.GetApplication(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// List handles GET /applications?customer_id=
func (h *ApplicationHandler) List(c *gin.Context) {
	customerID, err := uuid.Parse(c.Query("customer_id"))
	if err != nil {
		h.BadRequest(c, "customer_id parameter is required")
		return
	}

	resp, err := h.service.ListApplications(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Validate handles POST /applications/:id/validate
func (h *ApplicationHandler) Validate(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.ValidateApplication(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Submit handles POST /applications/:id/submit
func (h *ApplicationHandler) Submit(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.SubmitApplication(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel handles POST /applications/:id/cancel
func (h *ApplicationHandler) Cancel(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.service.CancelApplication(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
