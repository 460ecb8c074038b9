package installment

import (
	"time"

	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationState represents the lifecycle state of an installment application
type ApplicationState string

const (
	ApplicationStateDraft           ApplicationState = "DRAFT"
	ApplicationStateApproved        ApplicationState = "APPROVED"
	ApplicationStateContractCreated ApplicationState = "CONTRACT_CREATED"
	ApplicationStateCancelled       ApplicationState = "CANCELLED"
)

// IsValid checks if the state is a valid ApplicationState
func (s ApplicationState) IsValid() bool {
	switch s {
	case ApplicationStateDraft, ApplicationStateApproved,
		ApplicationStateContractCreated, ApplicationStateCancelled:
		return true
	}
	return false
}

// IsSubmitted returns true when the application counts into aggregates
func (s ApplicationState) IsSubmitted() bool {
	return s == ApplicationStateApproved || s == ApplicationStateContractCreated
}

// InstallmentApplication is a customer's proposed credit purchase.
// On submit it materializes into exactly one live Contract (or none again,
// if that contract is later cancelled).
type InstallmentApplication struct {
	shared.BaseAggregateRoot
	Number            string
	CustomerID        uuid.UUID
	TransactionDate   time.Time
	StartDate         time.Time
	MonthlyPaymentDay int
	Items             []LineItem
	TotalAmount       valueobject.Money
	DownpaymentAmount valueobject.Money
	FinanceAmount     valueobject.Money
	InstallmentMonths int
	MonthlyPayment    valueobject.Money
	State             ApplicationState
	ContractID        *uuid.UUID
	AmendedFromID     *uuid.UUID
}

// NewInstallmentApplication creates a draft application.
// Derived totals are recomputed from items on creation.
func NewInstallmentApplication(
	number string,
	customerID uuid.UUID,
	transactionDate, startDate time.Time,
	monthlyPaymentDay int,
	items []LineItem,
	downpayment, monthlyPayment valueobject.Money,
	months int,
) (*InstallmentApplication, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Application number cannot be empty")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if len(items) == 0 {
		return nil, shared.NewDomainError("NO_ITEMS", "Application must carry at least one item")
	}

	ia := &InstallmentApplication{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CustomerID:        customerID,
		TransactionDate:   dateOnly(transactionDate),
		StartDate:         dateOnly(startDate),
		MonthlyPaymentDay: monthlyPaymentDay,
		Items:             items,
		DownpaymentAmount: downpayment,
		InstallmentMonths: months,
		MonthlyPayment:    monthlyPayment,
		State:             ApplicationStateDraft,
	}
	ia.recalculateTotals()

	if err := ia.Validate(); err != nil {
		return nil, err
	}

	ia.AddDomainEvent(NewApplicationCreatedEvent(ia))

	return ia, nil
}

// recalculateTotals refreshes TotalAmount and FinanceAmount from items
func (ia *InstallmentApplication) recalculateTotals() {
	total := valueobject.Zero()
	for i := range ia.Items {
		total = total.Add(ia.Items[i].Amount)
	}
	ia.TotalAmount = total
	ia.FinanceAmount = total.Sub(ia.DownpaymentAmount)
}

// Validate enforces the application rules:
// positive total, downpayment in [0, total), months >= 1, positive monthly
// payment, non-negative interest.
func (ia *InstallmentApplication) Validate() error {
	if !ia.TotalAmount.IsPositive() {
		return shared.NewDomainError("INVALID_TOTAL", "Total amount must be positive")
	}
	if ia.DownpaymentAmount.IsNegative() {
		return shared.NewDomainError("INVALID_DOWNPAYMENT", "Downpayment cannot be negative")
	}
	if ia.DownpaymentAmount.GreaterThanOrEqual(ia.TotalAmount) {
		return shared.NewDomainError("INVALID_DOWNPAYMENT", "Downpayment must be less than the total amount")
	}
	if ia.InstallmentMonths < 1 {
		return shared.NewDomainError("INVALID_MONTHS", "Installment months must be at least 1")
	}
	if !ia.MonthlyPayment.IsPositive() {
		return shared.NewDomainError("INVALID_MONTHLY_PAYMENT", "Monthly payment must be positive")
	}
	if ia.MonthlyPaymentDay < 1 || ia.MonthlyPaymentDay > 31 {
		return shared.NewDomainError("INVALID_PAYMENT_DAY", "Monthly payment day must be between 1 and 31")
	}
	if ia.TotalInterest().IsNegative() {
		return shared.NewDomainError("NEGATIVE_INTEREST", "Monthly payments do not cover the financed amount")
	}
	return nil
}

// TotalInterest returns monthly_payment * months - finance_amount
func (ia *InstallmentApplication) TotalInterest() valueobject.Money {
	return ia.MonthlyPayment.MulInt(int64(ia.InstallmentMonths)).Sub(ia.FinanceAmount)
}

// GrandTotalWithInterest returns downpayment + monthly_payment * months.
// This is the authoritative figure for all outstanding math.
func (ia *InstallmentApplication) GrandTotalWithInterest() valueobject.Money {
	return ia.DownpaymentAmount.Add(ia.MonthlyPayment.MulInt(int64(ia.InstallmentMonths)))
}

// ProfitPercentage returns interest as a share of the scheduled monthly total
func (ia *InstallmentApplication) ProfitPercentage() decimal.Decimal {
	scheduled := ia.MonthlyPayment.MulInt(int64(ia.InstallmentMonths))
	if scheduled.IsZero() {
		return decimal.Zero
	}
	return ia.TotalInterest().Amount().Div(scheduled.Amount()).Mul(decimal.NewFromInt(100)).Round(2)
}

// FinanceProfitPercentage returns interest as a share of the financed amount
func (ia *InstallmentApplication) FinanceProfitPercentage() decimal.Decimal {
	if ia.FinanceAmount.IsZero() {
		return decimal.Zero
	}
	return ia.TotalInterest().Amount().Div(ia.FinanceAmount.Amount()).Mul(decimal.NewFromInt(100)).Round(2)
}

// Approve moves a draft application to approved
func (ia *InstallmentApplication) Approve() error {
	if ia.State != ApplicationStateDraft {
		return shared.NewDomainError("INVALID_STATE", "Only draft applications can be approved")
	}
	if err := ia.Validate(); err != nil {
		return err
	}
	ia.State = ApplicationStateApproved
	ia.UpdatedAt = time.Now()
	ia.IncrementVersion()
	return nil
}

// LinkContract records the contract materialized from this application
func (ia *InstallmentApplication) LinkContract(contractID uuid.UUID) error {
	if ia.ContractID != nil {
		return shared.NewDomainError("CONTRACT_EXISTS", "Application already has a live contract")
	}
	ia.ContractID = &contractID
	ia.State = ApplicationStateContractCreated
	ia.UpdatedAt = time.Now()
	ia.IncrementVersion()
	ia.AddDomainEvent(NewApplicationSubmittedEvent(ia))
	return nil
}

// UnlinkContract clears the contract reference after the contract was cancelled
func (ia *InstallmentApplication) UnlinkContract() {
	if ia.ContractID == nil {
		return
	}
	ia.ContractID = nil
	if ia.State == ApplicationStateContractCreated {
		ia.State = ApplicationStateApproved
	}
	ia.UpdatedAt = time.Now()
	ia.IncrementVersion()
}

// Cancel moves the application to cancelled
func (ia *InstallmentApplication) Cancel() error {
	if ia.State == ApplicationStateCancelled {
		return shared.NewDomainError("INVALID_STATE", "Application is already cancelled")
	}
	ia.State = ApplicationStateCancelled
	ia.ContractID = nil
	ia.UpdatedAt = time.Now()
	ia.IncrementVersion()
	ia.AddDomainEvent(NewApplicationCancelledEvent(ia))
	return nil
}

// SupplierAmounts returns the per-supplier sum of item amounts,
// excluding interest lines and items without a supplier.
func (ia *InstallmentApplication) SupplierAmounts() map[uuid.UUID]valueobject.Money {
	out := make(map[uuid.UUID]valueobject.Money)
	for i := range ia.Items {
		item := &ia.Items[i]
		if item.IsInterest || item.SupplierID == nil {
			continue
		}
		out[*item.SupplierID] = out[*item.SupplierID].Add(item.Amount)
	}
	return out
}
