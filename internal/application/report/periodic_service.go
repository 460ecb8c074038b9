package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// monthKey identifies one calendar month bucket
type monthKey struct {
	Year  int
	Month time.Month
}

func keyOf(t time.Time) monthKey {
	return monthKey{Year: t.Year(), Month: t.Month()}
}

func (k monthKey) label() string {
	return fmt.Sprintf("%s %d", k.Month.String()[:3], k.Year)
}

func (k monthKey) before(other monthKey) bool {
	if k.Year != other.Year {
		return k.Year < other.Year
	}
	return k.Month < other.Month
}

// MonthlyPointResponse is one month of a periodic series
type MonthlyPointResponse struct {
	Year   int             `json:"year"`
	Month  int             `json:"month"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

// MonthlyCountResponse is one month of the contract-count series
type MonthlyCountResponse struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// MonthlyPctResponse is one month of the margin series
type MonthlyPctResponse struct {
	Year  int             `json:"year"`
	Month int             `json:"month"`
	Label string          `json:"label"`
	Pct   decimal.Decimal `json:"pct"`
}

// PeriodicResponse carries the five monthly series over one window
type PeriodicResponse struct {
	MonthlyInvestment []MonthlyPointResponse `json:"monthly_investment"`
	MonthlyNetProfit  []MonthlyPointResponse `json:"monthly_net_profit"`
	ContractCount     []MonthlyCountResponse `json:"contract_count"`
	MonthlySales      []MonthlyPointResponse `json:"monthly_sales"`
	MonthlyMarginPct  []MonthlyPctResponse   `json:"monthly_margin_pct"`
	DateRange         DateRangeResponse      `json:"date_range"`
}

// DateRangeResponse reports the window a periodic snapshot covers
type DateRangeResponse struct {
	FromDate string `json:"from_date"`
	ToDate   string `json:"to_date"`
}

// PeriodicService computes the monthly time series grouped by application
// transaction date. The default window is the trailing 12 calendar months.
type PeriodicService struct {
	appRepo installment.ApplicationRepository
	logger  *zap.Logger
}

// NewPeriodicService creates a new PeriodicService
func NewPeriodicService(appRepo installment.ApplicationRepository, logger *zap.Logger) *PeriodicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodicService{appRepo: appRepo, logger: logger}
}

// DefaultWindow returns the trailing 12 calendar months ending today
func DefaultWindow(now time.Time) (time.Time, time.Time) {
	to := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).
		AddDate(0, 1, 0).Add(-24 * time.Hour)
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).AddDate(0, -11, 0)
	return from, to
}

// monthFold accumulates one month's application figures
type monthFold struct {
	investment valueobject.Money
	netProfit  valueobject.Money
	sales      valueobject.Money
	interest   valueobject.Money
	count      int
}

// Compute builds all five series over [from, to]
func (s *PeriodicService) Compute(ctx context.Context, from, to time.Time) (*PeriodicResponse, error) {
	applications, err := s.appRepo.FindSubmitted(ctx)
	if err != nil {
		return nil, err
	}

	folds := make(map[monthKey]*monthFold)
	for i := range applications {
		ia := &applications[i]
		if ia.TransactionDate.Before(from) || ia.TransactionDate.After(to) {
			continue
		}
		key := keyOf(ia.TransactionDate)
		f, ok := folds[key]
		if !ok {
			f = &monthFold{
				investment: valueobject.Zero(),
				netProfit:  valueobject.Zero(),
				sales:      valueobject.Zero(),
				interest:   valueobject.Zero(),
			}
			folds[key] = f
		}

		grand := ia.GrandTotalWithInterest()
		f.investment = f.investment.Add(ia.TotalAmount.Sub(ia.DownpaymentAmount))
		f.netProfit = f.netProfit.Add(grand.Sub(ia.TotalAmount))
		f.sales = f.sales.Add(grand.Sub(ia.DownpaymentAmount))
		f.interest = f.interest.Add(ia.TotalInterest())
		f.count++
	}

	keys := make([]monthKey, 0, len(folds))
	for k := range folds {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })

	resp := &PeriodicResponse{
		MonthlyInvestment: make([]MonthlyPointResponse, 0, len(keys)),
		MonthlyNetProfit:  make([]MonthlyPointResponse, 0, len(keys)),
		ContractCount:     make([]MonthlyCountResponse, 0, len(keys)),
		MonthlySales:      make([]MonthlyPointResponse, 0, len(keys)),
		MonthlyMarginPct:  make([]MonthlyPctResponse, 0, len(keys)),
		DateRange: DateRangeResponse{
			FromDate: from.Format("2006-01-02"),
			ToDate:   to.Format("2006-01-02"),
		},
	}

	for _, k := range keys {
		f := folds[k]
		resp.MonthlyInvestment = append(resp.MonthlyInvestment, MonthlyPointResponse{
			Year: k.Year, Month: int(k.Month), Label: k.label(), Amount: f.investment.Amount(),
		})
		resp.MonthlyNetProfit = append(resp.MonthlyNetProfit, MonthlyPointResponse{
			Year: k.Year, Month: int(k.Month), Label: k.label(), Amount: f.netProfit.Amount(),
		})
		resp.ContractCount = append(resp.ContractCount, MonthlyCountResponse{
			Year: k.Year, Month: int(k.Month), Label: k.label(), Count: f.count,
		})
		resp.MonthlySales = append(resp.MonthlySales, MonthlyPointResponse{
			Year: k.Year, Month: int(k.Month), Label: k.label(), Amount: f.sales.Amount(),
		})

		pct := decimal.Zero
		if f.sales.IsPositive() {
			pct = f.interest.Amount().Div(f.sales.Amount()).Mul(decimal.NewFromInt(100)).Round(2)
		}
		resp.MonthlyMarginPct = append(resp.MonthlyMarginPct, MonthlyPctResponse{
			Year: k.Year, Month: int(k.Month), Label: k.label(), Pct: pct,
		})
	}

	return resp, nil
}
