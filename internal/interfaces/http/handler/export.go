package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	reportapp "github.com/cashflow/backend/internal/application/report"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/infrastructure/sheets"
)

// ExportHandler pushes report tables into the configured Google Spreadsheet
type ExportHandler struct {
	BaseHandler
	reports  *reportapp.ReportService
	exporter *sheets.Exporter
}

// NewExportHandler creates a new ExportHandler. A nil exporter means the
// sheets integration is disabled; export requests then fail cleanly.
func NewExportHandler(reports *reportapp.ReportService, exporter *sheets.Exporter) *ExportHandler {
	return &ExportHandler{reports: reports, exporter: exporter}
}

// Export handles POST /exports/:report
func (h *ExportHandler) Export(c *gin.Context) {
	if h.exporter == nil {
		h.HandleError(c, shared.NewDomainError("SHEETS_DISABLED", "Google Sheets export is not configured"))
		return
	}

	ctx := c.Request.Context()
	report := c.Param("report")

	var (
		sheetName string
		headers   []string
		rows      [][]any
		err       error
	)
	switch report {
	case "aging":
		sheetName, headers, rows, err = h.agingRows(c)
	case "outstanding":
		sheetName, headers, rows, err = h.outstandingRows(c)
	case "cash-registers":
		sheetName, headers, rows, err = h.registerRows(c)
	case "sales-margin":
		sheetName, headers, rows, err = h.salesMarginRows(c)
	default:
		h.BadRequest(c, "Unknown report: "+report)
		return
	}
	if err != nil {
		h.HandleError(c, err)
		return
	}

	if err := h.exporter.Export(ctx, sheetName, headers, rows); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"sheet": sheetName, "rows": len(rows)})
}

func (h *ExportHandler) agingRows(c *gin.Context) (string, []string, [][]any, error) {
	resp, err := h.reports.Aging(c.Request.Context())
	if err != nil {
		return "", nil, nil, err
	}
	headers := []string{"Bucket", "Customer", "Phone", "Class", "Contract", "Next Due", "Amount", "Days Overdue"}
	var rows [][]any
	for bucket, bucketRows := range resp.Buckets {
		for _, r := range bucketRows {
			rows = append(rows, []any{
				bucket, r.CustomerName, r.Phone, r.Classification, r.ContractNumber,
				r.NextDueDate.Format("2006-01-02"), r.NextDueAmount.String(), r.DaysOverdue,
			})
		}
	}
	return "Aging", headers, rows, nil
}

func (h *ExportHandler) outstandingRows(c *gin.Context) (string, []string, [][]any, error) {
	resp, err := h.reports.OutstandingInstallments(c.Request.Context())
	if err != nil {
		return "", nil, nil, err
	}
	headers := []string{"Contract", "Grand Total", "Paid", "Outstanding", "Next Due", "Days Overdue"}
	rows := make([][]any, 0, len(resp))
	for _, r := range resp {
		nextDue := ""
		if r.NextPaymentDate != nil {
			nextDue = r.NextPaymentDate.Format("2006-01-02")
		}
		rows = append(rows, []any{
			r.ContractNumber, r.GrandTotal.String(), r.AdvancePaid.String(),
			r.Outstanding.String(), nextDue, r.DaysOverdue,
		})
	}
	return "Outstanding", headers, rows, nil
}

func (h *ExportHandler) registerRows(c *gin.Context) (string, []string, [][]any, error) {
	resp, err := h.reports.CashRegisterBalances(c.Request.Context())
	if err != nil {
		return "", nil, nil, err
	}
	headers := []string{"Code", "Account", "Balance"}
	rows := make([][]any, 0, len(resp))
	for _, r := range resp {
		rows = append(rows, []any{r.AccountCode, r.AccountName, r.Balance.String()})
	}
	return "Cash Registers", headers, rows, nil
}

func (h *ExportHandler) salesMarginRows(c *gin.Context) (string, []string, [][]any, error) {
	now := time.Now()
	from := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	to := now
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return "", nil, nil, shared.NewDomainError("BAD_REQUEST", "Invalid from parameter, expected YYYY-MM-DD")
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			return "", nil, nil, shared.NewDomainError("BAD_REQUEST", "Invalid to parameter, expected YYYY-MM-DD")
		}
		to = parsed
	}

	resp, err := h.reports.SalesMargin(c.Request.Context(), from, to)
	if err != nil {
		return "", nil, nil, err
	}
	headers := []string{"Application", "Date", "Contract Amount", "Cost", "Downpayment", "Interest", "Margin"}
	rows := make([][]any, 0, len(resp))
	for _, r := range resp {
		rows = append(rows, []any{
			r.ApplicationNumber, r.TransactionDate.Format("2006-01-02"),
			r.ContractAmount.String(), r.Cost.String(), r.Downpayment.String(),
			r.Interest.String(), r.Margin.String(),
		})
	}
	return "Sales Margin", headers, rows, nil
}
