package report

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// EfficiencyPointResponse is one due-month of the collection series
type EfficiencyPointResponse struct {
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Label         string          `json:"label"`
	Expected      decimal.Decimal `json:"expected"`
	Actual        decimal.Decimal `json:"actual"`
	EfficiencyPct decimal.Decimal `json:"efficiency_pct"`
}

// EfficiencyService computes collection efficiency per month of due date.
// Payments are not tagged to individual installments, so each contract's
// receipts are folded into one balance and walked against its schedule FIFO;
// every consumed unit is attributed to its row's due month. This is the only
// interpretation consistent with the per-row paid amounts.
type EfficiencyService struct {
	contractRepo installment.ContractRepository
	eventRepo    payment.EventRepository
	logger       *zap.Logger
}

// NewEfficiencyService creates a new EfficiencyService
func NewEfficiencyService(
	contractRepo installment.ContractRepository,
	eventRepo payment.EventRepository,
	logger *zap.Logger,
) *EfficiencyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EfficiencyService{contractRepo: contractRepo, eventRepo: eventRepo, logger: logger}
}

type efficiencyFold struct {
	expected valueobject.Money
	actual   valueobject.Money
}

// Compute builds the efficiency series over due months within [from, to]
func (s *EfficiencyService) Compute(ctx context.Context, from, to time.Time) ([]EfficiencyPointResponse, error) {
	contracts, err := s.contractRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	events, err := s.eventRepo.FindSubmittedBetween(ctx, time.Time{}, time.Now())
	if err != nil {
		return nil, err
	}

	balances := make(map[uuid.UUID]valueobject.Money)
	for i := range events {
		e := &events[i]
		if e.Direction != payment.DirectionReceive || e.PartyType != payment.PartyTypeCustomer || e.ContractID == nil {
			continue
		}
		balances[*e.ContractID] = balances[*e.ContractID].Add(e.Amount)
	}

	folds := make(map[monthKey]*efficiencyFold)
	bucket := func(k monthKey) *efficiencyFold {
		f, ok := folds[k]
		if !ok {
			f = &efficiencyFold{expected: valueobject.Zero(), actual: valueobject.Zero()}
			folds[k] = f
		}
		return f
	}

	for i := range contracts {
		c := &contracts[i]
		if c.Status == installment.ContractStatusCancelled {
			continue
		}

		rows := make([]installment.ScheduleRow, len(c.Schedule))
		copy(rows, c.Schedule)
		sort.SliceStable(rows, func(a, b int) bool {
			if rows[a].DueDate.Equal(rows[b].DueDate) {
				return rows[a].Idx < rows[b].Idx
			}
			return rows[a].DueDate.Before(rows[b].DueDate)
		})

		balance := balances[c.ID]
		for j := range rows {
			row := &rows[j]
			applied := balance.Min(row.PaymentAmount).ClampFloor(valueobject.Zero())
			balance = balance.Sub(applied)

			f := bucket(keyOf(row.DueDate))
			f.expected = f.expected.Add(row.PaymentAmount)
			f.actual = f.actual.Add(applied)
		}
	}

	keys := make([]monthKey, 0, len(folds))
	for k := range folds {
		windowStart := keyOf(from)
		windowEnd := keyOf(to)
		if k.before(windowStart) || windowEnd.before(k) {
			continue
		}
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].before(keys[j]) })

	out := make([]EfficiencyPointResponse, 0, len(keys))
	for _, k := range keys {
		f := folds[k]
		pct := decimal.Zero
		switch {
		case f.expected.IsPositive():
			pct = f.actual.Amount().Div(f.expected.Amount()).Mul(decimal.NewFromInt(100)).Round(2)
		case f.actual.IsPositive():
			pct = decimal.NewFromInt(100)
		}
		out = append(out, EfficiencyPointResponse{
			Year:          k.Year,
			Month:         int(k.Month),
			Label:         k.label(),
			Expected:      f.expected.Amount(),
			Actual:        f.actual.Amount(),
			EfficiencyPct: pct,
		})
	}
	return out, nil
}
