package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// PeriodType is the balance sheet column granularity
type PeriodType string

const (
	PeriodDaily     PeriodType = "DAILY"
	PeriodMonthly   PeriodType = "MONTHLY"
	PeriodQuarterly PeriodType = "QUARTERLY"
	PeriodYearly    PeriodType = "YEARLY"
)

// IsValid checks if the period type is valid
func (p PeriodType) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodMonthly, PeriodQuarterly, PeriodYearly:
		return true
	}
	return false
}

// period is one balance sheet column: [Start, End] inclusive
type period struct {
	Label string
	Start time.Time
	End   time.Time
}

// BalanceSheetNode is one row of the hierarchical sheet. Values carry one
// figure per period column; children sum into the parent column-wise.
type BalanceSheetNode struct {
	Label    string              `json:"label"`
	Values   []decimal.Decimal   `json:"values"`
	Children []*BalanceSheetNode `json:"children,omitempty"`
}

// BalanceSheetResponse is the period tree over one window
type BalanceSheetResponse struct {
	PeriodType PeriodType        `json:"period_type"`
	Periods    []string          `json:"periods"`
	Assets     *BalanceSheetNode `json:"assets"`
	Creditor   *BalanceSheetNode `json:"creditor"`
	Balance    []decimal.Decimal `json:"balance"`
}

// BalanceSheetService computes the operational balance sheet from events and
// applications, not from general-ledger postings. Net profit uses the same
// definition as the intelligence view: interest minus expenses.
type BalanceSheetService struct {
	customerRepo partner.CustomerRepository
	supplierRepo partner.SupplierRepository
	appRepo      installment.ApplicationRepository
	eventRepo    payment.EventRepository
	categoryRepo payment.CategoryRepository
	accountRepo  payment.AccountRepository
	logger       *zap.Logger
}

// NewBalanceSheetService creates a new BalanceSheetService
func NewBalanceSheetService(
	customerRepo partner.CustomerRepository,
	supplierRepo partner.SupplierRepository,
	appRepo installment.ApplicationRepository,
	eventRepo payment.EventRepository,
	categoryRepo payment.CategoryRepository,
	accountRepo payment.AccountRepository,
	logger *zap.Logger,
) *BalanceSheetService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BalanceSheetService{
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		appRepo:      appRepo,
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		accountRepo:  accountRepo,
		logger:       logger,
	}
}

// buildPeriods slices [from, to] into consecutive columns of the given type
func buildPeriods(from, to time.Time, ptype PeriodType) []period {
	var out []period
	cursor := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	for !cursor.After(end) {
		var next time.Time
		var label string
		switch ptype {
		case PeriodDaily:
			next = cursor.AddDate(0, 0, 1)
			label = cursor.Format("2006-01-02")
		case PeriodMonthly:
			next = time.Date(cursor.Year(), cursor.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 1, 0)
			label = fmt.Sprintf("%s %d", cursor.Month().String()[:3], cursor.Year())
		case PeriodQuarterly:
			q := (int(cursor.Month())-1)/3 + 1
			next = time.Date(cursor.Year(), time.Month((q-1)*3+1), 1, 0, 0, 0, 0, time.UTC).AddDate(0, 3, 0)
			label = fmt.Sprintf("Q%d %d", q, cursor.Year())
		default:
			next = time.Date(cursor.Year(), 1, 1, 0, 0, 0, 0, time.UTC).AddDate(1, 0, 0)
			label = fmt.Sprintf("%d", cursor.Year())
		}

		last := next.AddDate(0, 0, -1)
		if last.After(end) {
			last = end
		}
		out = append(out, period{Label: label, Start: cursor, End: last})
		cursor = next
	}
	return out
}

func (p *period) contains(t time.Time) bool {
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return !day.Before(p.Start) && !day.After(p.End)
}

// series is one leaf row being accumulated, one cell per period
type series struct {
	values []valueobject.Money
}

func newSeries(n int) *series {
	values := make([]valueobject.Money, n)
	for i := range values {
		values[i] = valueobject.Zero()
	}
	return &series{values: values}
}

func (s *series) add(idx int, amount valueobject.Money) {
	if idx >= 0 {
		s.values[idx] = s.values[idx].Add(amount)
	}
}

func (s *series) sub(idx int, amount valueobject.Money) {
	if idx >= 0 {
		s.values[idx] = s.values[idx].Sub(amount)
	}
}

func (s *series) node(label string) *BalanceSheetNode {
	values := make([]decimal.Decimal, len(s.values))
	for i := range s.values {
		values[i] = s.values[i].Amount()
	}
	return &BalanceSheetNode{Label: label, Values: values}
}

// sumChildren writes the column-wise sum of children onto the parent
func sumChildren(parent *BalanceSheetNode, n int) {
	values := make([]decimal.Decimal, n)
	for _, child := range parent.Children {
		for i := range child.Values {
			values[i] = values[i].Add(child.Values[i])
		}
	}
	parent.Values = values
}

// Compute builds the balance sheet tree over [from, to]
func (s *BalanceSheetService) Compute(ctx context.Context, from, to time.Time, ptype PeriodType) (*BalanceSheetResponse, error) {
	if !ptype.IsValid() {
		return nil, shared.NewDomainError("INVALID_PERIOD", "Period type must be daily, monthly, quarterly or yearly")
	}
	if to.Before(from) {
		return nil, shared.NewDomainError("INVALID_WINDOW", "Window end precedes its start")
	}

	periods := buildPeriods(from, to, ptype)
	n := len(periods)
	periodOf := func(t time.Time) int {
		for i := range periods {
			if periods[i].contains(t) {
				return i
			}
		}
		return -1
	}

	events, err := s.eventRepo.FindSubmittedBetween(ctx, periods[0].Start, periods[n-1].End.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}
	applications, err := s.appRepo.FindSubmitted(ctx)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	accounts, err := s.accountRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	suppliers, err := s.supplierRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	expenseCategory := make(map[uuid.UUID]bool, len(categories))
	for i := range categories {
		expenseCategory[categories[i].ID] = categories[i].IsExpense()
	}
	customerGroup := make(map[uuid.UUID]string, len(customers))
	for i := range customers {
		customerGroup[customers[i].ID] = groupLabel(customers[i].Group)
	}
	supplierGroup := make(map[uuid.UUID]string, len(suppliers))
	for i := range suppliers {
		supplierGroup[suppliers[i].ID] = groupLabel(suppliers[i].Group)
	}

	// leaf accumulators
	cashByAccount := make(map[uuid.UUID]*series, len(accounts))
	accountLabel := make(map[uuid.UUID]string, len(accounts))
	for i := range accounts {
		cashByAccount[accounts[i].ID] = newSeries(n)
		accountLabel[accounts[i].ID] = accounts[i].Name
	}
	debitorCustomers := map[string]*series{}
	supplierAdvances := map[string]*series{}
	customerPrepayments := map[string]*series{}
	supplierDebts := map[string]*series{}
	shareCapital := newSeries(n)
	netProfit := newSeries(n)

	grouped := func(m map[string]*series, group string) *series {
		sr, ok := m[group]
		if !ok {
			sr = newSeries(n)
			m[group] = sr
		}
		return sr
	}

	for i := range events {
		e := &events[i]
		idx := periodOf(e.PostingDate)
		if idx < 0 {
			continue
		}

		if sr, ok := cashByAccount[e.AccountID]; ok {
			if e.Direction == payment.DirectionReceive {
				sr.add(idx, e.Amount)
			} else {
				sr.sub(idx, e.Amount)
			}
		}

		switch e.PartyType {
		case payment.PartyTypeCustomer:
			group := customerGroup[e.PartyID]
			if e.Direction == payment.DirectionReceive {
				grouped(customerPrepayments, group).add(idx, e.Amount)
			} else {
				grouped(debitorCustomers, group).sub(idx, e.Amount)
			}
		case payment.PartyTypeSupplier:
			group := supplierGroup[e.PartyID]
			if e.Direction == payment.DirectionPay {
				grouped(supplierAdvances, group).add(idx, e.Amount)
			} else {
				grouped(supplierDebts, group).add(idx, e.Amount)
			}
		case payment.PartyTypeShareholder:
			if e.Direction == payment.DirectionReceive {
				shareCapital.add(idx, e.Amount)
			} else {
				shareCapital.sub(idx, e.Amount)
			}
		}

		if expenseCategory[e.CategoryID] {
			if e.Direction == payment.DirectionPay {
				netProfit.sub(idx, e.Amount)
			} else {
				netProfit.add(idx, e.Amount)
			}
		}
	}

	for i := range applications {
		ia := &applications[i]
		idx := periodOf(ia.TransactionDate)
		if idx < 0 {
			continue
		}

		grouped(debitorCustomers, customerGroup[ia.CustomerID]).add(idx, ia.GrandTotalWithInterest())
		netProfit.add(idx, ia.TotalInterest())

		for supplierID, amount := range ia.SupplierAmounts() {
			grouped(supplierDebts, supplierGroup[supplierID]).add(idx, amount)
		}
	}

	// assemble the tree
	cashParent := &BalanceSheetNode{Label: "Cash Accounts"}
	for i := range accounts {
		cashParent.Children = append(cashParent.Children,
			cashByAccount[accounts[i].ID].node(accountLabel[accounts[i].ID]))
	}
	sumChildren(cashParent, n)

	assets := &BalanceSheetNode{
		Label: "Assets",
		Children: []*BalanceSheetNode{
			cashParent,
			groupedParent("Debitor - Customers", debitorCustomers, n),
			groupedParent("Debitor - Supplier Advances", supplierAdvances, n),
		},
	}
	sumChildren(assets, n)

	creditor := &BalanceSheetNode{
		Label: "Total Creditor",
		Children: []*BalanceSheetNode{
			groupedParent("Creditor - Customer Prepayments", customerPrepayments, n),
			groupedParent("Creditor - Supplier Debts", supplierDebts, n),
			shareCapital.node("Share Capital"),
			netProfit.node("Net Profit"),
		},
	}
	sumChildren(creditor, n)

	balance := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		balance[i] = assets.Values[i].Sub(creditor.Values[i])
	}

	labels := make([]string, n)
	for i := range periods {
		labels[i] = periods[i].Label
	}

	return &BalanceSheetResponse{
		PeriodType: ptype,
		Periods:    labels,
		Assets:     assets,
		Creditor:   creditor,
		Balance:    balance,
	}, nil
}

func groupLabel(group string) string {
	if group == "" {
		return "Ungrouped"
	}
	return group
}

// groupedParent builds a parent node with one child per group, sorted by label
func groupedParent(label string, m map[string]*series, n int) *BalanceSheetNode {
	parent := &BalanceSheetNode{Label: label}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		parent.Children = append(parent.Children, m[k].node(k))
	}
	sumChildren(parent, n)
	return parent
}
