package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	partnerapp "github.com/cashflow/backend/internal/application/partner"
)

// PartnerHandler exposes customer and supplier queries plus the debt and
// classification maintenance operations.
type PartnerHandler struct {
	BaseHandler
	query *partnerapp.PartnerQueryService
	debt  *partnerapp.DebtService
}

// NewPartnerHandler creates a new PartnerHandler
func NewPartnerHandler(query *partnerapp.PartnerQueryService, debt *partnerapp.DebtService) *PartnerHandler {
	return &PartnerHandler{query: query, debt: debt}
}

// ListCustomers handles GET /customers
func (h *PartnerHandler) ListCustomers(c *gin.Context) {
	resp, err := h.query.ListCustomers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetCustomer handles GET /customers/:id
func (h *PartnerHandler) GetCustomer(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetCustomer(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ClassificationHistory handles GET /customers/:id/classification-history
func (h *PartnerHandler) ClassificationHistory(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetClassificationHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecomputeCustomerDebt handles POST /customers/:id/recompute-debt
func (h *PartnerHandler) RecomputeCustomerDebt(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.debt.RecomputeCustomerDebt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReclassifyCustomer handles POST /customers/:id/reclassify
func (h *PartnerHandler) ReclassifyCustomer(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.debt.ReclassifyCustomer(c.Request.Context(), id, time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SweepClassifications handles POST /customers/sweep-classifications
func (h *PartnerHandler) SweepClassifications(c *gin.Context) {
	resp, err := h.debt.SweepClassifications(c.Request.Context(), time.Now())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListSuppliers handles GET /suppliers
func (h *PartnerHandler) ListSuppliers(c *gin.Context) {
	resp, err := h.query.ListSuppliers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetSupplier handles GET /suppliers/:id
func (h *PartnerHandler) GetSupplier(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetSupplier(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SupplierContracts handles GET /suppliers/:id/contracts
func (h *PartnerHandler) SupplierContracts(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetSupplierContracts(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SupplierPayments handles GET /suppliers/:id/payments
func (h *PartnerHandler) SupplierPayments(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetSupplierPaymentHistory(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SupplierDebtSummary handles GET /suppliers/:id/debt-summary
func (h *PartnerHandler) SupplierDebtSummary(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetSupplierDebtSummary(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// RecomputeSupplierDebt handles POST /suppliers/:id/recompute-debt
func (h *PartnerHandler) RecomputeSupplierDebt(c *gin.Context) {
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.debt.RecomputeSupplierDebt(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
