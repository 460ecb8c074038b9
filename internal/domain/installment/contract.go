package installment

import (
	"sort"
	"time"

	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ContractStatus represents the status of an installment contract
type ContractStatus string

const (
	ContractStatusActive    ContractStatus = "ACTIVE"
	ContractStatusCompleted ContractStatus = "COMPLETED"
	ContractStatusCancelled ContractStatus = "CANCELLED"
)

// IsValid checks if the status is a valid ContractStatus
func (s ContractStatus) IsValid() bool {
	switch s {
	case ContractStatusActive, ContractStatusCompleted, ContractStatusCancelled:
		return true
	}
	return false
}

// IsOpen returns true when payments may still be linked to the contract
func (s ContractStatus) IsOpen() bool {
	return s == ContractStatusActive
}

// Contract is the authoritative receivable document: mirrored items, the
// payment schedule, and the running paid totals maintained by reconciliation.
type Contract struct {
	shared.BaseAggregateRoot
	Number                 string
	ApplicationID          uuid.UUID
	CustomerID             uuid.UUID
	TransactionDate        time.Time
	ContractType           string
	Items                  []LineItem
	Schedule               []ScheduleRow
	DownpaymentAmount      valueobject.Money
	TotalInterest          valueobject.Money
	GrandTotalWithInterest valueobject.Money
	AdvancePaid            valueobject.Money
	UnallocatedAmount      valueobject.Money
	NextPaymentDate        *time.Time
	NextPaymentAmount      valueobject.Money
	Status                 ContractStatus
}

// ApplyResult reports what one payment application did to the schedule
type ApplyResult struct {
	// FirstRowIdx is the index of the first schedule row the payment touched,
	// -1 when every row was already settled.
	FirstRowIdx int
	// FirstRowDescription is the touched row's description ("Month 3", ...)
	FirstRowDescription string
	// Applied is the portion consumed by schedule rows
	Applied valueobject.Money
	// Surplus is the portion left after every row was filled; it is recorded
	// as unallocated rather than overfilling the last row.
	Surplus valueobject.Money
}

// NewContractFromApplication materializes a contract from a submitted
// application: items are mirrored (serial numbers preserved), a synthetic
// interest line is appended when interest is positive, and the built schedule
// is stamped with invoice portions.
func NewContractFromApplication(number string, ia *InstallmentApplication, lines []ScheduleLine) (*Contract, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Contract number cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.ErrEmptySchedule
	}

	grand := ia.GrandTotalWithInterest()
	interest := ia.TotalInterest()

	items := make([]LineItem, 0, len(ia.Items)+1)
	for i := range ia.Items {
		items = append(items, ia.Items[i].Clone())
	}
	if interest.IsPositive() {
		items = append(items, *NewInterestLineItem(interest))
	}

	schedule := make([]ScheduleRow, 0, len(lines))
	scheduleSum := valueobject.Zero()
	hundred := decimal.NewFromInt(100)
	for i, line := range lines {
		portion := decimal.Zero
		if !grand.IsZero() {
			portion = line.PaymentAmount.Amount().Div(grand.Amount()).Mul(hundred).Round(4)
		}
		schedule = append(schedule, ScheduleRow{
			Idx:            i,
			DueDate:        line.DueDate,
			PaymentAmount:  line.PaymentAmount,
			PaidAmount:     valueobject.Zero(),
			InvoicePortion: portion,
			Description:    line.Description,
		})
		scheduleSum = scheduleSum.Add(line.PaymentAmount)
	}
	if !scheduleSum.EqualWithin(grand) {
		return nil, shared.NewDomainError("SCHEDULE_MISMATCH", "Schedule total does not match the contract grand total")
	}

	c := &Contract{
		BaseAggregateRoot:      shared.NewBaseAggregateRoot(),
		Number:                 number,
		ApplicationID:          ia.ID,
		CustomerID:             ia.CustomerID,
		TransactionDate:        ia.TransactionDate,
		ContractType:           "Installment",
		Items:                  items,
		Schedule:               schedule,
		DownpaymentAmount:      ia.DownpaymentAmount,
		TotalInterest:          interest,
		GrandTotalWithInterest: grand,
		AdvancePaid:            valueobject.Zero(),
		UnallocatedAmount:      valueobject.Zero(),
		Status:                 ContractStatusActive,
	}
	c.RefreshNextDue()

	c.AddDomainEvent(NewContractCreatedEvent(c))

	return c, nil
}

// orderedRows returns schedule row pointers sorted by due date then index
func (c *Contract) orderedRows() []*ScheduleRow {
	rows := make([]*ScheduleRow, len(c.Schedule))
	for i := range c.Schedule {
		rows[i] = &c.Schedule[i]
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].DueDate.Equal(rows[j].DueDate) {
			return rows[i].Idx < rows[j].Idx
		}
		return rows[i].DueDate.Before(rows[j].DueDate)
	})
	return rows
}

// ApplyPayment consumes schedule rows FIFO by due date: each row receives
// min(remaining, outstanding). The surplus beyond the last row is recorded as
// unallocated instead of overfilling the row, keeping every row's paid amount
// within its payment amount.
func (c *Contract) ApplyPayment(amount valueobject.Money) (*ApplyResult, error) {
	if !amount.IsPositive() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}
	if c.Status == ContractStatusCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cannot apply a payment to a cancelled contract")
	}

	result := &ApplyResult{FirstRowIdx: -1}
	remaining := amount

	for _, row := range c.orderedRows() {
		if !remaining.IsPositive() {
			break
		}
		applied := remaining.Min(row.Outstanding())
		if !applied.IsPositive() {
			continue
		}
		row.PaidAmount = row.PaidAmount.Add(applied)
		remaining = remaining.Sub(applied)
		result.Applied = result.Applied.Add(applied)
		if result.FirstRowIdx < 0 {
			result.FirstRowIdx = row.Idx
			result.FirstRowDescription = row.Description
		}
	}

	if remaining.IsPositive() {
		result.Surplus = remaining
		c.UnallocatedAmount = c.UnallocatedAmount.Add(remaining)
	}

	c.RefreshNextDue()
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return result, nil
}

// ReversePayment undoes a payment application in reverse FIFO order:
// unallocated surplus is drained first, then rows are emptied from the latest
// due date backwards, each clamped at zero.
func (c *Contract) ReversePayment(amount valueobject.Money) error {
	if !amount.IsPositive() {
		return shared.NewDomainError("INVALID_AMOUNT", "Payment amount must be positive")
	}

	remaining := amount

	if c.UnallocatedAmount.IsPositive() {
		drained := remaining.Min(c.UnallocatedAmount)
		c.UnallocatedAmount = c.UnallocatedAmount.Sub(drained)
		remaining = remaining.Sub(drained)
	}

	rows := c.orderedRows()
	for i := len(rows) - 1; i >= 0 && remaining.IsPositive(); i-- {
		row := rows[i]
		reversed := remaining.Min(row.PaidAmount)
		if !reversed.IsPositive() {
			continue
		}
		row.PaidAmount = row.PaidAmount.Sub(reversed).ClampFloor(valueobject.Zero())
		remaining = remaining.Sub(reversed)
	}

	c.RefreshNextDue()
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetAdvancePaid writes the recomputed advance total. The caller derives it
// from the sum of submitted payments so that concurrent submits converge.
func (c *Contract) SetAdvancePaid(advance valueobject.Money) {
	c.AdvancePaid = advance.ClampFloor(valueobject.Zero())
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// RefreshNextDue recomputes the next-due pointer and the completion status
// from the schedule: the earliest unsettled row gives the next payment date
// and amount; when none remains the contract is completed.
func (c *Contract) RefreshNextDue() {
	if c.Status == ContractStatusCancelled {
		return
	}

	for _, row := range c.orderedRows() {
		if row.IsSettled() {
			continue
		}
		due := row.DueDate
		c.NextPaymentDate = &due
		c.NextPaymentAmount = row.Outstanding()
		c.Status = ContractStatusActive
		return
	}

	c.NextPaymentDate = nil
	c.NextPaymentAmount = valueobject.Zero()
	c.Status = ContractStatusCompleted
}

// ScheduledPaidTotal returns the sum of paid amounts across schedule rows
func (c *Contract) ScheduledPaidTotal() valueobject.Money {
	total := valueobject.Zero()
	for i := range c.Schedule {
		total = total.Add(c.Schedule[i].PaidAmount)
	}
	return total
}

// Outstanding returns grand total minus advance paid, never below zero
func (c *Contract) Outstanding() valueobject.Money {
	return c.GrandTotalWithInterest.Sub(c.AdvancePaid).ClampFloor(valueobject.Zero())
}

// IsSettled returns true when grand total minus advance paid is within epsilon
func (c *Contract) IsSettled() bool {
	return c.GrandTotalWithInterest.Sub(c.AdvancePaid).LessThanOrEqual(valueobject.NewMoney(valueobject.Epsilon))
}

// MaxDaysOverdue returns the worst overdue age across unsettled rows
func (c *Contract) MaxDaysOverdue(asOf time.Time) int {
	worst := 0
	for i := range c.Schedule {
		if d := c.Schedule[i].DaysOverdue(asOf); d > worst {
			worst = d
		}
	}
	return worst
}

// OverdueRows returns unsettled rows past due as of the given date,
// ordered by due date ascending.
func (c *Contract) OverdueRows(asOf time.Time) []ScheduleRow {
	var out []ScheduleRow
	for _, row := range c.orderedRows() {
		if row.IsOverdue(asOf) {
			out = append(out, *row)
		}
	}
	return out
}

// Cancel marks the contract cancelled; the caller cascades to dependent
// payment events with explicit compensating actions.
func (c *Contract) Cancel() error {
	if c.Status == ContractStatusCancelled {
		return shared.NewDomainError("INVALID_STATE", "Contract is already cancelled")
	}
	c.Status = ContractStatusCancelled
	c.NextPaymentDate = nil
	c.NextPaymentAmount = valueobject.Zero()
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
	c.AddDomainEvent(NewContractCancelledEvent(c))
	return nil
}

// ProductCost returns the item total excluding the synthetic interest line
func (c *Contract) ProductCost() valueobject.Money {
	total := valueobject.Zero()
	for i := range c.Items {
		if c.Items[i].IsInterest {
			continue
		}
		total = total.Add(c.Items[i].Amount)
	}
	return total
}
