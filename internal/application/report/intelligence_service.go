package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// TierUnclassified is the explicit bucket for customers without a valid risk
// class. They are surfaced, never silently folded into tier A.
const TierUnclassified = "UNCLASSIFIED"

// IntelligenceService computes the dashboard KPIs, the ROI figure and the
// tiered receivable tables. Everything operates on submitted documents only.
type IntelligenceService struct {
	customerRepo partner.CustomerRepository
	appRepo      installment.ApplicationRepository
	contractRepo installment.ContractRepository
	eventRepo    payment.EventRepository
	categoryRepo payment.CategoryRepository
	logger       *zap.Logger
}

// NewIntelligenceService creates a new IntelligenceService
func NewIntelligenceService(
	customerRepo partner.CustomerRepository,
	appRepo installment.ApplicationRepository,
	contractRepo installment.ContractRepository,
	eventRepo payment.EventRepository,
	categoryRepo payment.CategoryRepository,
	logger *zap.Logger,
) *IntelligenceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IntelligenceService{
		customerRepo: customerRepo,
		appRepo:      appRepo,
		contractRepo: contractRepo,
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// KPIResponse carries the whole-book key figures
type KPIResponse struct {
	InvestedCapital  decimal.Decimal `json:"invested_capital"`
	TotalInterest    decimal.Decimal `json:"total_interest"`
	TotalContracts   int             `json:"total_contracts"`
	ActiveContracts  int             `json:"active_contracts"`
	ClosedContracts  int             `json:"closed_contracts"`
	TotalExpenses    decimal.Decimal `json:"total_expenses"`
	NetProfit        decimal.Decimal `json:"net_profit"`
	TotalDebt        decimal.Decimal `json:"total_debt"`
	DebtA            decimal.Decimal `json:"debt_a"`
	DebtB            decimal.Decimal `json:"debt_b"`
	DebtC            decimal.Decimal `json:"debt_c"`
	DebtUnclassified decimal.Decimal `json:"debt_unclassified"`
}

// TierRowResponse is one customer row in a tier table
type TierRowResponse struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	CustomerName   string          `json:"customer_name"`
	Classification string          `json:"classification"`
	TotalBilled    decimal.Decimal `json:"total_billed"`
	NetPaid        decimal.Decimal `json:"net_paid"`
	TotalDebt      decimal.Decimal `json:"total_debt"`
	ContractCount  int             `json:"contract_count"`
}

// IntelligenceResponse is the full intelligence snapshot
type IntelligenceResponse struct {
	KPIs          KPIResponse                  `json:"kpis"`
	ROIPercentage decimal.Decimal              `json:"roi_percentage"`
	Tiers         map[string][]TierRowResponse `json:"tiers"`
}

// customerFold is the per-customer aggregation the tier tables and the tier
// debt KPIs are both derived from, so their totals cannot drift apart.
type customerFold struct {
	billed        valueobject.Money
	netPaid       valueobject.Money
	contractCount int
}

// Compute builds the intelligence snapshot from source tables
func (s *IntelligenceService) Compute(ctx context.Context) (*IntelligenceResponse, error) {
	applications, err := s.appRepo.FindSubmitted(ctx)
	if err != nil {
		return nil, err
	}
	contracts, err := s.contractRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindSubmittedBetween(ctx, time.Time{}, time.Now())
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	customers, err := s.customerRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	expenseCategory := make(map[uuid.UUID]bool, len(categories))
	for i := range categories {
		expenseCategory[categories[i].ID] = categories[i].IsExpense()
	}

	kpis := KPIResponse{}
	invested := valueobject.Zero()
	interest := valueobject.Zero()
	expenses := valueobject.Zero()

	kpis.TotalContracts = len(applications)
	for i := range applications {
		interest = interest.Add(applications[i].TotalInterest())
	}

	for i := range contracts {
		switch contracts[i].Status {
		case installment.ContractStatusActive:
			kpis.ActiveContracts++
		case installment.ContractStatusCompleted:
			kpis.ClosedContracts++
		}
	}

	folds := make(map[uuid.UUID]*customerFold)
	fold := func(id uuid.UUID) *customerFold {
		f, ok := folds[id]
		if !ok {
			f = &customerFold{billed: valueobject.Zero(), netPaid: valueobject.Zero()}
			folds[id] = f
		}
		return f
	}
	for i := range applications {
		f := fold(applications[i].CustomerID)
		f.billed = f.billed.Add(applications[i].GrandTotalWithInterest())
		f.contractCount++
	}

	for i := range events {
		e := &events[i]

		if e.PartyType == payment.PartyTypeShareholder {
			if e.Direction == payment.DirectionReceive {
				invested = invested.Add(e.Amount)
			} else {
				invested = invested.Sub(e.Amount)
			}
		}

		// Expense detection is by category type alone; pays count positive,
		// receives are refunds and count negative.
		if expenseCategory[e.CategoryID] {
			if e.Direction == payment.DirectionPay {
				expenses = expenses.Add(e.Amount)
			} else {
				expenses = expenses.Sub(e.Amount)
			}
		}

		if e.PartyType == payment.PartyTypeCustomer && e.ContractID != nil {
			f := fold(e.PartyID)
			if e.Direction == payment.DirectionReceive {
				f.netPaid = f.netPaid.Add(e.Amount)
			} else {
				f.netPaid = f.netPaid.Sub(e.Amount)
			}
		}
	}

	kpis.InvestedCapital = invested.Amount()
	kpis.TotalInterest = interest.Amount()
	kpis.TotalExpenses = expenses.Amount()
	kpis.NetProfit = interest.Sub(expenses).Amount()

	customerByID := make(map[uuid.UUID]*partner.Customer, len(customers))
	for i := range customers {
		customerByID[customers[i].ID] = &customers[i]
	}

	totalDebt := valueobject.Zero()
	tiers := map[string][]TierRowResponse{
		string(partner.ClassificationA): {},
		string(partner.ClassificationB): {},
		string(partner.ClassificationC): {},
		TierUnclassified:                {},
	}
	tierDebt := map[string]valueobject.Money{
		string(partner.ClassificationA): valueobject.Zero(),
		string(partner.ClassificationB): valueobject.Zero(),
		string(partner.ClassificationC): valueobject.Zero(),
		TierUnclassified:                valueobject.Zero(),
	}

	for customerID, f := range folds {
		totalDebt = totalDebt.Add(f.billed).Sub(f.netPaid)

		debt := f.billed.Sub(f.netPaid)
		if !debt.IsPositive() {
			continue
		}

		bucket := TierUnclassified
		name := ""
		if c, ok := customerByID[customerID]; ok {
			name = c.Name
			if c.Classification.IsValid() {
				bucket = string(c.Classification)
			}
		}
		tiers[bucket] = append(tiers[bucket], TierRowResponse{
			CustomerID:     customerID,
			CustomerName:   name,
			Classification: bucket,
			TotalBilled:    f.billed.Amount(),
			NetPaid:        f.netPaid.Amount(),
			TotalDebt:      debt.Amount(),
			ContractCount:  f.contractCount,
		})
		tierDebt[bucket] = tierDebt[bucket].Add(debt)
	}

	for bucket := range tiers {
		rows := tiers[bucket]
		sort.Slice(rows, func(i, j int) bool {
			return rows[i].TotalDebt.GreaterThan(rows[j].TotalDebt)
		})
		tiers[bucket] = rows
	}

	kpis.TotalDebt = totalDebt.Amount()
	kpis.DebtA = tierDebt[string(partner.ClassificationA)].Amount()
	kpis.DebtB = tierDebt[string(partner.ClassificationB)].Amount()
	kpis.DebtC = tierDebt[string(partner.ClassificationC)].Amount()
	kpis.DebtUnclassified = tierDebt[TierUnclassified].Amount()

	roi := decimal.Zero
	if !invested.IsZero() {
		roi = interest.Sub(expenses).Amount().Div(invested.Amount()).Mul(decimal.NewFromInt(100)).Round(2)
	}

	return &IntelligenceResponse{
		KPIs:          kpis,
		ROIPercentage: roi,
		Tiers:         tiers,
	}, nil
}
