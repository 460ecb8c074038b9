package installment

import (
	"fmt"
	"time"

	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
)

// ScheduleLine is one emitted installment bucket before it is written onto a
// contract: the due date and the amount expected on that date.
type ScheduleLine struct {
	DueDate       time.Time
	PaymentAmount valueobject.Money
	Description   string
}

// BuildSchedule emits the ordered payment schedule for a contract.
//
// When a downpayment is present the first row is (startDate, downpayment).
// Monthly rows are anchored to paymentDay with month-end clamping: a payment
// day of 31 lands on Feb 28/29, Apr 30 and so on. Anchoring to a fixed
// calendar day keeps collection windows predictable across months of unequal
// length.
//
// The function is pure and deterministic: same inputs, same rows.
func BuildSchedule(startDate time.Time, paymentDay, months int, downpayment, monthlyPayment valueobject.Money) ([]ScheduleLine, error) {
	if paymentDay < 1 || paymentDay > 31 {
		return nil, shared.NewDomainError("INVALID_PAYMENT_DAY", "Monthly payment day must be between 1 and 31")
	}
	if months < 1 {
		return nil, shared.NewDomainError("INVALID_MONTHS", "Installment months must be at least 1")
	}
	if !monthlyPayment.IsPositive() {
		return nil, shared.NewDomainError("INVALID_MONTHLY_PAYMENT", "Monthly payment must be positive")
	}
	if downpayment.IsNegative() {
		return nil, shared.NewDomainError("INVALID_DOWNPAYMENT", "Downpayment cannot be negative")
	}

	lines := make([]ScheduleLine, 0, months+1)

	if downpayment.IsPositive() {
		lines = append(lines, ScheduleLine{
			DueDate:       dateOnly(startDate),
			PaymentAmount: downpayment,
			Description:   "Downpayment",
		})
	}

	for i := 1; i <= months; i++ {
		due := monthlyDueDate(startDate, paymentDay, i)
		lines = append(lines, ScheduleLine{
			DueDate:       due,
			PaymentAmount: monthlyPayment,
			Description:   fmt.Sprintf("Month %d", i),
		})
	}

	return lines, nil
}

// monthlyDueDate returns the due date of the i-th monthly installment:
// the payment day within (startDate's month + offset), clamped to the last
// day of that month.
func monthlyDueDate(startDate time.Time, paymentDay, offset int) time.Time {
	year := startDate.Year()
	month := int(startDate.Month()) + offset
	year += (month - 1) / 12
	month = (month-1)%12 + 1

	day := paymentDay
	if last := lastDayOfMonth(year, time.Month(month)); day > last {
		day = last
	}

	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, startDate.Location())
}

// lastDayOfMonth returns the number of days in the given month
func lastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// dateOnly truncates a timestamp to its calendar date
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ScheduleRow is one installment bucket materialized on a contract, carrying
// the running paid amount maintained by payment reconciliation.
type ScheduleRow struct {
	Idx            int
	DueDate        time.Time
	PaymentAmount  valueobject.Money
	PaidAmount     valueobject.Money
	InvoicePortion decimal.Decimal
	Description    string
}

// Outstanding returns the unpaid remainder of the row, never below zero
func (r *ScheduleRow) Outstanding() valueobject.Money {
	return r.PaymentAmount.Sub(r.PaidAmount).ClampFloor(valueobject.Zero())
}

// IsSettled returns true when the row is fully paid
func (r *ScheduleRow) IsSettled() bool {
	return r.PaidAmount.GreaterThanOrEqual(r.PaymentAmount)
}

// IsOverdue returns true when the row is unpaid past its due date
func (r *ScheduleRow) IsOverdue(asOf time.Time) bool {
	return !r.IsSettled() && r.DueDate.Before(dateOnly(asOf))
}

// DaysOverdue returns whole days past due, 0 when not overdue
func (r *ScheduleRow) DaysOverdue(asOf time.Time) int {
	if !r.IsOverdue(asOf) {
		return 0
	}
	return int(dateOnly(asOf).Sub(r.DueDate).Hours() / 24)
}
