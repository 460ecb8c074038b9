package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/ledger"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// Aging bucket names, ordered from worst to latest
const (
	BucketOverdue15Plus = "overdue_15_plus"
	BucketOverdue1To14  = "overdue_1_14"
	BucketDueToday      = "due_today"
	BucketDueWithin7    = "due_within_7"
	BucketLater         = "later"
)

// ReportService generates the row-level operational reports: aging,
// projections, running-balance ledgers, category and cash flow summaries.
// All reports read submitted documents only.
type ReportService struct {
	customerRepo partner.CustomerRepository
	supplierRepo partner.SupplierRepository
	appRepo      installment.ApplicationRepository
	contractRepo installment.ContractRepository
	eventRepo    payment.EventRepository
	categoryRepo payment.CategoryRepository
	accountRepo  payment.AccountRepository
	ledgerRepo   ledger.Repository
	logger       *zap.Logger
}

// NewReportService creates a new ReportService
func NewReportService(
	customerRepo partner.CustomerRepository,
	supplierRepo partner.SupplierRepository,
	appRepo installment.ApplicationRepository,
	contractRepo installment.ContractRepository,
	eventRepo payment.EventRepository,
	categoryRepo payment.CategoryRepository,
	accountRepo payment.AccountRepository,
	ledgerRepo ledger.Repository,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		appRepo:      appRepo,
		contractRepo: contractRepo,
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		logger:       logger,
	}
}

// ===================== Aging =====================

// AgingRowResponse is one contract's next unpaid installment
type AgingRowResponse struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Phone          string          `json:"phone,omitempty"`
	Classification string          `json:"classification"`
	ContractNumber string          `json:"contract_number"`
	NextDueDate    time.Time       `json:"next_due_date"`
	NextDueAmount  decimal.Decimal `json:"next_due_amount"`
	DaysOverdue    int             `json:"days_overdue"`
	Bucket         string          `json:"bucket"`
}

// AgingResponse partitions open contracts into collection buckets
type AgingResponse struct {
	Buckets map[string][]AgingRowResponse `json:"buckets"`
	Total   int                           `json:"total"`
}

// Aging walks every open contract's next unpaid row and partitions customers
// into collection buckets by how far that row is from today.
func (s *ReportService) Aging(ctx context.Context) (*AgingResponse, error) {
	contracts, err := s.contractRepo.FindOpen(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	customerByID := make(map[uuid.UUID]*partner.Customer, len(customers))
	for i := range customers {
		customerByID[customers[i].ID] = &customers[i]
	}

	today := time.Now()
	resp := &AgingResponse{Buckets: map[string][]AgingRowResponse{
		BucketOverdue15Plus: {},
		BucketOverdue1To14:  {},
		BucketDueToday:      {},
		BucketDueWithin7:    {},
		BucketLater:         {},
	}}

	for i := range contracts {
		c := &contracts[i]
		if c.NextPaymentDate == nil {
			continue
		}

		row := AgingRowResponse{
			CustomerID:     c.CustomerID,
			ContractNumber: c.Number,
			NextDueDate:    *c.NextPaymentDate,
			NextDueAmount:  c.NextPaymentAmount.Amount(),
			DaysOverdue:    daysBetween(*c.NextPaymentDate, today),
		}
		if customer, ok := customerByID[c.CustomerID]; ok {
			row.CustomerName = customer.Name
			row.Phone = customer.Phone
			row.Classification = customer.Classification.String()
		}
		row.Bucket = agingBucket(*c.NextPaymentDate, today)
		resp.Buckets[row.Bucket] = append(resp.Buckets[row.Bucket], row)
		resp.Total++
	}

	for bucket := range resp.Buckets {
		rows := resp.Buckets[bucket]
		sort.Slice(rows, func(i, j int) bool { return rows[i].NextDueDate.Before(rows[j].NextDueDate) })
		resp.Buckets[bucket] = rows
	}
	return resp, nil
}

func agingBucket(due, today time.Time) string {
	days := daysBetween(due, today)
	switch {
	case days > 14:
		return BucketOverdue15Plus
	case days >= 1:
		return BucketOverdue1To14
	case days == 0:
		return BucketDueToday
	case days >= -7:
		return BucketDueWithin7
	default:
		return BucketLater
	}
}

// daysBetween returns whole days from due to today; positive when overdue
func daysBetween(due, today time.Time) int {
	d := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(d).Hours() / 24)
}

// ===================== Schedule projections =====================

// ProjectionRowResponse is one schedule row in a projection report
type ProjectionRowResponse struct {
	ContractNumber string          `json:"contract_number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	DueDate        time.Time       `json:"due_date"`
	PaymentAmount  decimal.Decimal `json:"payment_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	DaysOverdue    int             `json:"days_overdue"`
}

// ProjectionResponse carries projection rows with their expected total
type ProjectionResponse struct {
	Rows  []ProjectionRowResponse `json:"rows"`
	Total decimal.Decimal         `json:"total"`
}

// MonthlyExpected projects the schedule rows due within one calendar month
func (s *ReportService) MonthlyExpected(ctx context.Context, year int, month time.Month) (*ProjectionResponse, error) {
	contracts, err := s.contractRepo.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	resp := &ProjectionResponse{Total: decimal.Zero}
	now := time.Now()
	for i := range contracts {
		c := &contracts[i]
		for j := range c.Schedule {
			row := &c.Schedule[j]
			if row.DueDate.Year() != year || row.DueDate.Month() != month {
				continue
			}
			resp.Rows = append(resp.Rows, projectionRow(c, row, now))
			resp.Total = resp.Total.Add(row.Outstanding().Amount())
		}
	}
	sortProjection(resp.Rows)
	return resp, nil
}

// Overdue projects every unsettled schedule row past due today
func (s *ReportService) Overdue(ctx context.Context) (*ProjectionResponse, error) {
	contracts, err := s.contractRepo.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	resp := &ProjectionResponse{Total: decimal.Zero}
	now := time.Now()
	for i := range contracts {
		c := &contracts[i]
		for _, row := range c.OverdueRows(now) {
			r := row
			resp.Rows = append(resp.Rows, projectionRow(c, &r, now))
			resp.Total = resp.Total.Add(row.Outstanding().Amount())
		}
	}
	sortProjection(resp.Rows)
	return resp, nil
}

func projectionRow(c *installment.Contract, row *installment.ScheduleRow, asOf time.Time) ProjectionRowResponse {
	return ProjectionRowResponse{
		ContractNumber: c.Number,
		CustomerID:     c.CustomerID,
		DueDate:        row.DueDate,
		PaymentAmount:  row.PaymentAmount.Amount(),
		PaidAmount:     row.PaidAmount.Amount(),
		Outstanding:    row.Outstanding().Amount(),
		DaysOverdue:    row.DaysOverdue(asOf),
	}
}

func sortProjection(rows []ProjectionRowResponse) {
	sort.Slice(rows, func(i, j int) bool { return rows[i].DueDate.Before(rows[j].DueDate) })
}

// ===================== Customer sverka =====================

// SverkaRowResponse is one running-balance row of a sverka ledger
type SverkaRowResponse struct {
	Date      time.Time       `json:"date"`
	VoucherNo string          `json:"voucher_no"`
	Narration string          `json:"narration,omitempty"`
	Debit     decimal.Decimal `json:"debit"`
	Credit    decimal.Decimal `json:"credit"`
	Balance   decimal.Decimal `json:"balance"`
}

// SverkaResponse is a counterparty running-balance ledger over a window
type SverkaResponse struct {
	Opening     decimal.Decimal     `json:"opening"`
	Rows        []SverkaRowResponse `json:"rows"`
	TotalDebit  decimal.Decimal     `json:"total_debit"`
	TotalCredit decimal.Decimal     `json:"total_credit"`
	Closing     decimal.Decimal     `json:"closing"`
}

// CustomerSverka builds the customer's running-balance ledger: applications
// debit, receives credit, opening balance folded from everything before the
// window start.
func (s *ReportService) CustomerSverka(ctx context.Context, customerID uuid.UUID, from, to time.Time) (*SverkaResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, customerID); err != nil {
		return nil, err
	}
	applications, err := s.appRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindSubmittedByParty(ctx, payment.PartyTypeCustomer, customerID)
	if err != nil {
		return nil, err
	}

	opening := valueobject.Zero()
	var rows []SverkaRowResponse

	for i := range applications {
		ia := &applications[i]
		if !ia.State.IsSubmitted() {
			continue
		}
		switch {
		case ia.TransactionDate.Before(from):
			opening = opening.Add(ia.GrandTotalWithInterest())
		case !ia.TransactionDate.After(to):
			rows = append(rows, SverkaRowResponse{
				Date:      ia.TransactionDate,
				VoucherNo: ia.Number,
				Narration: "Installment sale",
				Debit:     ia.GrandTotalWithInterest().Amount(),
				Credit:    decimal.Zero,
			})
		}
	}

	for i := range events {
		e := &events[i]
		if e.Direction != payment.DirectionReceive {
			continue
		}
		switch {
		case e.PostingDate.Before(from):
			opening = opening.Sub(e.Amount)
		case !e.PostingDate.After(to):
			rows = append(rows, SverkaRowResponse{
				Date:      e.PostingDate,
				VoucherNo: e.Number,
				Narration: e.Remarks,
				Debit:     decimal.Zero,
				Credit:    e.Amount.Amount(),
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	resp := &SverkaResponse{Opening: opening.Amount()}
	balance := opening.Amount()
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for i := range rows {
		balance = balance.Add(rows[i].Debit).Sub(rows[i].Credit)
		rows[i].Balance = balance
		totalDebit = totalDebit.Add(rows[i].Debit)
		totalCredit = totalCredit.Add(rows[i].Credit)
	}
	resp.Rows = rows
	resp.TotalDebit = totalDebit
	resp.TotalCredit = totalCredit
	resp.Closing = balance
	return resp, nil
}

// SupplierDebtAnalysis builds the supplier's running ledger: application
// items credit the debt, outgoing payments debit it, with the pre-window
// balance folded into the opening figure.
func (s *ReportService) SupplierDebtAnalysis(ctx context.Context, supplierID uuid.UUID, from, to time.Time) (*SverkaResponse, error) {
	if _, err := s.supplierRepo.FindByID(ctx, supplierID); err != nil {
		return nil, err
	}
	applications, err := s.appRepo.FindSubmitted(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindSubmittedByParty(ctx, payment.PartyTypeSupplier, supplierID)
	if err != nil {
		return nil, err
	}

	opening := valueobject.Zero()
	var rows []SverkaRowResponse

	for i := range applications {
		ia := &applications[i]
		amount, ok := ia.SupplierAmounts()[supplierID]
		if !ok {
			continue
		}
		switch {
		case ia.TransactionDate.Before(from):
			opening = opening.Add(amount)
		case !ia.TransactionDate.After(to):
			rows = append(rows, SverkaRowResponse{
				Date:      ia.TransactionDate,
				VoucherNo: ia.Number,
				Narration: "Procurement",
				Debit:     decimal.Zero,
				Credit:    amount.Amount(),
			})
		}
	}

	for i := range events {
		e := &events[i]
		if e.Direction != payment.DirectionPay {
			continue
		}
		switch {
		case e.PostingDate.Before(from):
			opening = opening.Sub(e.Amount)
		case !e.PostingDate.After(to):
			rows = append(rows, SverkaRowResponse{
				Date:      e.PostingDate,
				VoucherNo: e.Number,
				Narration: e.Remarks,
				Debit:     e.Amount.Amount(),
				Credit:    decimal.Zero,
			})
		}
	}

	sort.SliceStable(rows, func(i, j int) bool { return rows[i].Date.Before(rows[j].Date) })

	resp := &SverkaResponse{Opening: opening.Amount()}
	balance := opening.Amount()
	totalDebit, totalCredit := decimal.Zero, decimal.Zero
	for i := range rows {
		// outstanding grows with credits, shrinks with debits
		balance = balance.Add(rows[i].Credit).Sub(rows[i].Debit)
		rows[i].Balance = balance
		totalDebit = totalDebit.Add(rows[i].Debit)
		totalCredit = totalCredit.Add(rows[i].Credit)
	}
	resp.Rows = rows
	resp.TotalDebit = totalDebit
	resp.TotalCredit = totalCredit
	resp.Closing = balance
	return resp, nil
}

// ===================== Category summary =====================

// CategorySummaryRowResponse aggregates one counterparty category
type CategorySummaryRowResponse struct {
	CategoryName string          `json:"category_name"`
	Type         string          `json:"type"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
	Average      decimal.Decimal `json:"average"`
	SharePct     decimal.Decimal `json:"share_pct"`
}

// CategorySummaryResponse splits category totals by income and expense
type CategorySummaryResponse struct {
	Income  []CategorySummaryRowResponse `json:"income"`
	Expense []CategorySummaryRowResponse `json:"expense"`
}

// CategorySummary sums submitted events per counterparty category over a
// window, with each category's share of its side's total.
func (s *ReportService) CategorySummary(ctx context.Context, from, to time.Time) (*CategorySummaryResponse, error) {
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindSubmittedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	type fold struct {
		total valueobject.Money
		count int
	}
	folds := make(map[uuid.UUID]*fold)
	for i := range events {
		f, ok := folds[events[i].CategoryID]
		if !ok {
			f = &fold{total: valueobject.Zero()}
			folds[events[i].CategoryID] = f
		}
		f.total = f.total.Add(events[i].Amount)
		f.count++
	}

	incomeTotal, expenseTotal := valueobject.Zero(), valueobject.Zero()
	for i := range categories {
		f, ok := folds[categories[i].ID]
		if !ok {
			continue
		}
		if categories[i].IsExpense() {
			expenseTotal = expenseTotal.Add(f.total)
		} else {
			incomeTotal = incomeTotal.Add(f.total)
		}
	}

	resp := &CategorySummaryResponse{}
	hundred := decimal.NewFromInt(100)
	for i := range categories {
		f, ok := folds[categories[i].ID]
		if !ok {
			continue
		}
		row := CategorySummaryRowResponse{
			CategoryName: categories[i].Name,
			Type:         string(categories[i].Type),
			Total:        f.total.Amount(),
			Count:        f.count,
			Average:      f.total.Amount().Div(decimal.NewFromInt(int64(f.count))).Round(2),
		}
		sideTotal := incomeTotal
		if categories[i].IsExpense() {
			sideTotal = expenseTotal
		}
		if sideTotal.IsPositive() {
			row.SharePct = f.total.Amount().Div(sideTotal.Amount()).Mul(hundred).Round(2)
		}
		if categories[i].IsExpense() {
			resp.Expense = append(resp.Expense, row)
		} else {
			resp.Income = append(resp.Income, row)
		}
	}

	byTotal := func(rows []CategorySummaryRowResponse) {
		sort.Slice(rows, func(i, j int) bool { return rows[i].Total.GreaterThan(rows[j].Total) })
	}
	byTotal(resp.Income)
	byTotal(resp.Expense)
	return resp, nil
}

// ===================== Daily cash flow =====================

// CashFlowRowResponse is one account-day of cash movement
type CashFlowRowResponse struct {
	Date        time.Time       `json:"date"`
	AccountName string          `json:"account_name"`
	CashIn      decimal.Decimal `json:"cash_in"`
	CashOut     decimal.Decimal `json:"cash_out"`
	Net         decimal.Decimal `json:"net"`
}

// DailyCashFlow sums receives and pays per day per account over a window
func (s *ReportService) DailyCashFlow(ctx context.Context, from, to time.Time) ([]CashFlowRowResponse, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindSubmittedBetween(ctx, from, to)
	if err != nil {
		return nil, err
	}

	accountName := make(map[uuid.UUID]string, len(accounts))
	for i := range accounts {
		accountName[accounts[i].ID] = accounts[i].Name
	}

	type dayKey struct {
		day     string
		account uuid.UUID
	}
	type fold struct {
		date    time.Time
		in, out valueobject.Money
	}
	folds := make(map[dayKey]*fold)
	for i := range events {
		e := &events[i]
		day := e.PostingDate.Format("2006-01-02")
		key := dayKey{day: day, account: e.AccountID}
		f, ok := folds[key]
		if !ok {
			d, _ := time.Parse("2006-01-02", day)
			f = &fold{date: d, in: valueobject.Zero(), out: valueobject.Zero()}
			folds[key] = f
		}
		if e.Direction == payment.DirectionReceive {
			f.in = f.in.Add(e.Amount)
		} else {
			f.out = f.out.Add(e.Amount)
		}
	}

	out := make([]CashFlowRowResponse, 0, len(folds))
	for key, f := range folds {
		out = append(out, CashFlowRowResponse{
			Date:        f.date,
			AccountName: accountName[key.account],
			CashIn:      f.in.Amount(),
			CashOut:     f.out.Amount(),
			Net:         f.in.Sub(f.out).Amount(),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].AccountName < out[j].AccountName
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out, nil
}

// ===================== Counterparty ledger report =====================

// CounterpartyRowResponse is one ledger entry with the running balance
type CounterpartyRowResponse struct {
	Date        time.Time       `json:"date"`
	VoucherType string          `json:"voucher_type"`
	VoucherNo   string          `json:"voucher_no"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
	Balance     decimal.Decimal `json:"balance"`
}

// CounterpartyReportResponse is the ledger view of one party over a window.
// Customers are debit-normal, suppliers credit-normal.
type CounterpartyReportResponse struct {
	OpeningDebit  decimal.Decimal           `json:"opening_debit"`
	OpeningCredit decimal.Decimal           `json:"opening_credit"`
	Rows          []CounterpartyRowResponse `json:"rows"`
	ClosingDebit  decimal.Decimal           `json:"closing_debit"`
	ClosingCredit decimal.Decimal           `json:"closing_credit"`
	Balance       decimal.Decimal           `json:"balance"`
}

// CounterpartyReport reads the companion ledger for one party. The core only
// reads this table here; posting belongs to the write paths.
func (s *ReportService) CounterpartyReport(ctx context.Context, kind ledger.PartyKind, partyID uuid.UUID, from, to time.Time) (*CounterpartyReportResponse, error) {
	if kind != ledger.PartyKindCustomer && kind != ledger.PartyKindSupplier {
		return nil, shared.NewDomainError("INVALID_PARTY_KIND", "Party kind must be customer or supplier")
	}

	openingDebit, openingCredit, err := s.ledgerRepo.OpeningBalances(ctx, kind, partyID, from)
	if err != nil {
		return nil, err
	}
	entries, err := s.ledgerRepo.FindByParty(ctx, kind, partyID, from, to)
	if err != nil {
		return nil, err
	}

	resp := &CounterpartyReportResponse{
		OpeningDebit:  openingDebit.Amount(),
		OpeningCredit: openingCredit.Amount(),
	}

	totalDebit := openingDebit
	totalCredit := openingCredit
	balance := signedBalance(kind, totalDebit, totalCredit)
	for i := range entries {
		totalDebit = totalDebit.Add(entries[i].Debit)
		totalCredit = totalCredit.Add(entries[i].Credit)
		balance = signedBalance(kind, totalDebit, totalCredit)
		resp.Rows = append(resp.Rows, CounterpartyRowResponse{
			Date:        entries[i].PostingDate,
			VoucherType: entries[i].VoucherType,
			VoucherNo:   entries[i].VoucherNo,
			Debit:       entries[i].Debit.Amount(),
			Credit:      entries[i].Credit.Amount(),
			Balance:     balance.Amount(),
		})
	}

	resp.ClosingDebit = totalDebit.Amount()
	resp.ClosingCredit = totalCredit.Amount()
	resp.Balance = balance.Amount()
	return resp, nil
}

func signedBalance(kind ledger.PartyKind, debit, credit valueobject.Money) valueobject.Money {
	if kind == ledger.PartyKindCustomer {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// ===================== Outstanding and sales =====================

// OutstandingRowResponse is one open contract's remaining position
type OutstandingRowResponse struct {
	ContractNumber    string          `json:"contract_number"`
	CustomerID        uuid.UUID       `json:"customer_id"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	AdvancePaid       decimal.Decimal `json:"advance_paid"`
	Outstanding       decimal.Decimal `json:"outstanding"`
	NextPaymentDate   *time.Time      `json:"next_payment_date,omitempty"`
	NextPaymentAmount decimal.Decimal `json:"next_payment_amount"`
	DaysOverdue       int             `json:"days_overdue"`
}

// OutstandingInstallments lists every open contract's remaining balance with
// its next due pointer and worst overdue age.
func (s *ReportService) OutstandingInstallments(ctx context.Context) ([]OutstandingRowResponse, error) {
	contracts, err := s.contractRepo.FindOpen(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]OutstandingRowResponse, 0, len(contracts))
	for i := range contracts {
		c := &contracts[i]
		out = append(out, OutstandingRowResponse{
			ContractNumber:    c.Number,
			CustomerID:        c.CustomerID,
			GrandTotal:        c.GrandTotalWithInterest.Amount(),
			AdvancePaid:       c.AdvancePaid.Amount(),
			Outstanding:       c.Outstanding().Amount(),
			NextPaymentDate:   c.NextPaymentDate,
			NextPaymentAmount: c.NextPaymentAmount.Amount(),
			DaysOverdue:       c.MaxDaysOverdue(now),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DaysOverdue > out[j].DaysOverdue })
	return out, nil
}

// SalesMarginRowResponse is one application's sales figures
type SalesMarginRowResponse struct {
	ApplicationNumber string          `json:"application_number"`
	TransactionDate   time.Time       `json:"transaction_date"`
	ContractAmount    decimal.Decimal `json:"contract_amount"`
	Cost              decimal.Decimal `json:"cost"`
	Downpayment       decimal.Decimal `json:"downpayment"`
	Interest          decimal.Decimal `json:"interest"`
	Margin            decimal.Decimal `json:"margin"`
}

// SalesMargin reports per-application sales figures over a window: the grand
// total billed, the product cost, the scheduled remainder after the
// downpayment and the financed principal.
func (s *ReportService) SalesMargin(ctx context.Context, from, to time.Time) ([]SalesMarginRowResponse, error) {
	applications, err := s.appRepo.FindSubmitted(ctx)
	if err != nil {
		return nil, err
	}

	var out []SalesMarginRowResponse
	for i := range applications {
		ia := &applications[i]
		if ia.TransactionDate.Before(from) || ia.TransactionDate.After(to) {
			continue
		}
		out = append(out, SalesMarginRowResponse{
			ApplicationNumber: ia.Number,
			TransactionDate:   ia.TransactionDate,
			ContractAmount:    ia.GrandTotalWithInterest().Amount(),
			Cost:              ia.TotalAmount.Amount(),
			Downpayment:       ia.DownpaymentAmount.Amount(),
			Interest:          ia.GrandTotalWithInterest().Sub(ia.DownpaymentAmount).Amount(),
			Margin:            ia.TotalAmount.Sub(ia.DownpaymentAmount).Amount(),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TransactionDate.Before(out[j].TransactionDate) })
	return out, nil
}

// ===================== Straight queries =====================

// RegisterBalanceResponse is one cash account's current balance
type RegisterBalanceResponse struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Balance     decimal.Decimal `json:"balance"`
}

// CashRegisterBalances returns every account's balance as of now
func (s *ReportService) CashRegisterBalances(ctx context.Context) ([]RegisterBalanceResponse, error) {
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	out := make([]RegisterBalanceResponse, 0, len(accounts))
	for i := range accounts {
		balance, err := s.eventRepo.AccountBalanceAsOf(ctx, accounts[i].ID, now)
		if err != nil {
			return nil, err
		}
		out = append(out, RegisterBalanceResponse{
			AccountID:   accounts[i].ID,
			AccountCode: accounts[i].Code,
			AccountName: accounts[i].Name,
			Balance:     balance.Amount(),
		})
	}
	return out, nil
}

// PaymentHistoryRowResponse is one customer receipt with its running total
type PaymentHistoryRowResponse struct {
	Number       string          `json:"number"`
	PostingDate  time.Time       `json:"posting_date"`
	Amount       decimal.Decimal `json:"amount"`
	ContractID   *uuid.UUID      `json:"contract_id,omitempty"`
	PaymentMonth string          `json:"payment_month,omitempty"`
	RunningTotal decimal.Decimal `json:"running_total"`
}

// CustomerPaymentHistory lists a customer's submitted receives in posting
// order with a running total.
func (s *ReportService) CustomerPaymentHistory(ctx context.Context, customerID uuid.UUID) ([]PaymentHistoryRowResponse, error) {
	events, err := s.eventRepo.FindSubmittedByParty(ctx, payment.PartyTypeCustomer, customerID)
	if err != nil {
		return nil, err
	}

	running := valueobject.Zero()
	var out []PaymentHistoryRowResponse
	for i := range events {
		e := &events[i]
		if e.Direction != payment.DirectionReceive {
			continue
		}
		running = running.Add(e.Amount)
		out = append(out, PaymentHistoryRowResponse{
			Number:       e.Number,
			PostingDate:  e.PostingDate,
			Amount:       e.Amount.Amount(),
			ContractID:   e.ContractID,
			PaymentMonth: e.PaymentMonth,
			RunningTotal: running.Amount(),
		})
	}
	return out, nil
}
