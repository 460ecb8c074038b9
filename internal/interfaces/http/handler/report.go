package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	reportapp "github.com/cashflow/backend/internal/application/report"
	"github.com/cashflow/backend/internal/domain/ledger"
)

// ReportHandler exposes the operational row reports
type ReportHandler struct {
	BaseHandler
	reports *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reports *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

// window parses the from/to query window, defaulting to the current month
func (h *ReportHandler) window(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	defaultFrom := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	from, ok := parseDateQuery(c, "from", defaultFrom)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	to, ok := parseDateQuery(c, "to", now)
	if !ok {
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// Aging handles GET /reports/aging
func (h *ReportHandler) Aging(c *gin.Context) {
	resp, err := h.reports.Aging(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MonthlyExpected handles GET /reports/monthly-expected?year=&month=
func (h *ReportHandler) MonthlyExpected(c *gin.Context) {
	now := time.Now()
	year := now.Year()
	month := int(now.Month())
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "Invalid year parameter")
			return
		}
		year = parsed
	}
	if raw := c.Query("month"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 12 {
			h.BadRequest(c, "Invalid month parameter")
			return
		}
		month = parsed
	}

	resp, err := h.reports.MonthlyExpected(c.Request.Context(), year, time.Month(month))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Overdue handles GET /reports/overdue
func (h *ReportHandler) Overdue(c *gin.Context) {
	resp, err := h.reports.Overdue(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CustomerSverka handles GET /reports/customers/:id/sverka?from=&to=
func (h *ReportHandler) CustomerSverka(c *gin.Context) {
	customerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	resp, err := h.reports.CustomerSverka(c.Request.Context(), customerID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SupplierDebtAnalysis handles GET /reports/suppliers/:id/debt-analysis?from=&to=
func (h *ReportHandler) SupplierDebtAnalysis(c *gin.Context) {
	supplierID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	resp, err := h.reports.SupplierDebtAnalysis(c.Request.Context(), supplierID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CategorySummary handles GET /reports/category-summary?from=&to=
func (h *ReportHandler) CategorySummary(c *gin.Context) {
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	resp, err := h.reports.CategorySummary(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DailyCashFlow handles GET /reports/daily-cash-flow?from=&to=
func (h *ReportHandler) DailyCashFlow(c *gin.Context) {
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	resp, err := h.reports.DailyCashFlow(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Counterparty handles GET /reports/counterparty?kind=&party_id=&from=&to=
func (h *ReportHandler) Counterparty(c *gin.Context) {
	kind := ledger.PartyKind(strings.ToUpper(c.Query("kind")))
	partyID, err := uuid.Parse(c.Query("party_id"))
	if err != nil {
		h.BadRequest(c, "party_id parameter is required")
		return
	}
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	resp, err := h.reports.CounterpartyReport(c.Request.Context(), kind, partyID, from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Outstanding handles GET /reports/outstanding
func (h *ReportHandler) Outstanding(c *gin.Context) {
	resp, err := h.reports.OutstandingInstallments(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// SalesMargin handles GET /reports/sales-margin?from=&to=
func (h *ReportHandler) SalesMargin(c *gin.Context) {
	from, to, ok := h.window(c)
	if !ok {
		return
	}

	resp, err := h.reports.SalesMargin(c.Request.Context(), from, to)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CashRegisters handles GET /reports/cash-registers
func (h *ReportHandler) CashRegisters(c *gin.Context) {
	resp, err := h.reports.CashRegisterBalances(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CustomerPaymentHistory handles GET /reports/customers/:id/payment-history
func (h *ReportHandler) CustomerPaymentHistory(c *gin.Context) {
	customerID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	resp, err := h.reports.CustomerPaymentHistory(c.Request.Context(), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
