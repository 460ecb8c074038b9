package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	reportapp "github.com/cashflow/backend/internal/application/report"
)

// DashboardHandler exposes the cached dashboard snapshots and the balance
// sheet view.
type DashboardHandler struct {
	BaseHandler
	dashboard    *reportapp.DashboardService
	balanceSheet *reportapp.BalanceSheetService
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(dashboard *reportapp.DashboardService, balanceSheet *reportapp.BalanceSheetService) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, balanceSheet: balanceSheet}
}

func forceRefresh(c *gin.Context) bool {
	v, _ := strconv.ParseBool(c.Query("force_refresh"))
	return v
}

// Get handles GET /dashboard?year=&force_refresh=
func (h *DashboardHandler) Get(c *gin.Context) {
	year := 0
	if raw := c.Query("year"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			h.BadRequest(c, "Invalid year parameter")
			return
		}
		year = parsed
	}

	resp, err := h.dashboard.GetDashboardData(c.Request.Context(), year, forceRefresh(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Intelligence handles GET /dashboard/intelligence?force_refresh=
func (h *DashboardHandler) Intelligence(c *gin.Context) {
	resp, err := h.dashboard.GetIntelligence(c.Request.Context(), forceRefresh(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Periodic handles GET /dashboard/periodic?from=&to=&force_refresh=
func (h *DashboardHandler) Periodic(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, ok := parseDateQuery(c, "from", time.Time{})
		if !ok {
			return
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, ok := parseDateQuery(c, "to", time.Time{})
		if !ok {
			return
		}
		to = &t
	}

	resp, err := h.dashboard.GetPeriodic(c.Request.Context(), from, to, forceRefresh(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// BalanceSheet handles GET /dashboard/balance-sheet?period_type=&from=&to=
func (h *DashboardHandler) BalanceSheet(c *gin.Context) {
	ptype := reportapp.PeriodType(strings.ToUpper(c.DefaultQuery("period_type", string(reportapp.PeriodMonthly))))

	now := time.Now()
	defaultFrom := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	from, ok := parseDateQuery(c, "from", defaultFrom)
	if !ok {
		return
	}
	to, ok := parseDateQuery(c, "to", now)
	if !ok {
		return
	}

	resp, err := h.balanceSheet.Compute(c.Request.Context(), from, to, ptype)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
