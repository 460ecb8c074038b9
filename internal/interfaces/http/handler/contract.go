package handler

import (
	"github.com/gin-gonic/gin"

	installmentapp "github.com/cashflow/backend/internal/application/installment"
)

// ContractHandler exposes contract search, analysis and notes
type ContractHandler struct {
	BaseHandler
	query *installmentapp.ContractQueryService
}

// NewContractHandler creates a new ContractHandler
func NewContractHandler(query *installmentapp.ContractQueryService) *ContractHandler {
	return &ContractHandler{query: query}
}

// Search handles GET /contracts/search?term=
func (h *ContractHandler) Search(c *gin.Context) {
	resp, err := h.query.SearchContracts(c.Request.Context(), c.Query("term"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Analysis handles GET /contracts/analysis?term=
// The term matches a contract number or a product serial number.
func (h *ContractHandler) Analysis(c *gin.Context) {
	resp, err := h.query.GetInstallmentAnalysis(c.Request.Context(), c.Query("term"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CustomerContracts handles GET /customers/:id/contracts
func (h *ContractHandler) CustomerContracts(c *gin.Context) {
	customerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetCustomerContracts(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CustomerSchedule handles GET /customers/:id/schedule
func (h *ContractHandler) CustomerSchedule(c *gin.Context) {
	customerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetPaymentScheduleWithHistory(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SaveNote handles POST /contracts/notes
func (h *ContractHandler) SaveNote(c *gin.Context) {
	var req installmentapp.SaveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.query.SaveNote(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Notes handles GET /contracts/:id/notes
func (h *ContractHandler) Notes(c *gin.Context) {
	contractID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.query.GetContractNotes(c.Request.Context(), contractID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
