package installment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	partnerapp "github.com/cashflow/backend/internal/application/partner"
	paymentapp "github.com/cashflow/backend/internal/application/payment"
	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/ledger"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// VoucherTypeApplication tags the ledger pair written on application submit
const VoucherTypeApplication = "Installment Application"

// ContractService is the contract engine: it validates installment
// applications and, on submit, materializes the contract with its schedule,
// the downpayment draft payment, the supplier debt accrual and the companion
// ledger pair. Cancel runs the compensating cascade.
type ContractService struct {
	appRepo      installment.ApplicationRepository
	contractRepo installment.ContractRepository
	customerRepo partner.CustomerRepository
	supplierRepo partner.SupplierRepository
	eventRepo    payment.EventRepository
	categoryRepo payment.CategoryRepository
	accountRepo  payment.AccountRepository
	ledgerRepo   ledger.Repository
	linker       *paymentapp.LinkerService
	debtSvc      *partnerapp.DebtService
	invalidator  paymentapp.DashboardInvalidator
	accountCode  string
	logger       *zap.Logger
}

// ContractServiceOption is a functional option for configuring ContractService
type ContractServiceOption func(*ContractService)

// WithDefaultAccountCode sets the cash account the downpayment draft is
// created against. Passed at construction, never read from global settings.
func WithDefaultAccountCode(code string) ContractServiceOption {
	return func(s *ContractService) {
		s.accountCode = code
	}
}

// WithDashboardInvalidator wires the dashboard cache invalidation hook
func WithDashboardInvalidator(inv paymentapp.DashboardInvalidator) ContractServiceOption {
	return func(s *ContractService) {
		s.invalidator = inv
	}
}

// NewContractService creates a new ContractService
func NewContractService(
	appRepo installment.ApplicationRepository,
	contractRepo installment.ContractRepository,
	customerRepo partner.CustomerRepository,
	supplierRepo partner.SupplierRepository,
	eventRepo payment.EventRepository,
	categoryRepo payment.CategoryRepository,
	accountRepo payment.AccountRepository,
	ledgerRepo ledger.Repository,
	linker *paymentapp.LinkerService,
	debtSvc *partnerapp.DebtService,
	logger *zap.Logger,
	opts ...ContractServiceOption,
) *ContractService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &ContractService{
		appRepo:      appRepo,
		contractRepo: contractRepo,
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		accountRepo:  accountRepo,
		ledgerRepo:   ledgerRepo,
		linker:       linker,
		debtSvc:      debtSvc,
		accountCode:  "MAIN",
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests and responses =====================

// LineItemRequest is one product line on a new application
type LineItemRequest struct {
	ItemCode   string          `json:"item_code"`
	ItemName   string          `json:"item_name" binding:"required"`
	Qty        decimal.Decimal `json:"qty" binding:"required"`
	Rate       decimal.Decimal `json:"rate" binding:"required"`
	SerialNo   string          `json:"serial_no"`
	SupplierID *uuid.UUID      `json:"supplier_id"`
	Notes      string          `json:"notes"`
}

// CreateApplicationRequest carries the fields of a new installment application
type CreateApplicationRequest struct {
	CustomerID        uuid.UUID         `json:"customer_id" binding:"required"`
	TransactionDate   time.Time         `json:"transaction_date" binding:"required"`
	StartDate         time.Time         `json:"start_date" binding:"required"`
	MonthlyPaymentDay int               `json:"monthly_payment_day" binding:"required,min=1,max=31"`
	Items             []LineItemRequest `json:"items" binding:"required,min=1,dive"`
	DownpaymentAmount decimal.Decimal   `json:"downpayment_amount"`
	MonthlyPayment    decimal.Decimal   `json:"monthly_payment" binding:"required,dpositive"`
	InstallmentMonths int               `json:"installment_months" binding:"required,min=1"`
	AmendedFromID     *uuid.UUID        `json:"amended_from_id"`
}

// LineItemResponse represents a product line in API responses
type LineItemResponse struct {
	ItemCode   string          `json:"item_code,omitempty"`
	ItemName   string          `json:"item_name"`
	Qty        decimal.Decimal `json:"qty"`
	Rate       decimal.Decimal `json:"rate"`
	Amount     decimal.Decimal `json:"amount"`
	SerialNo   string          `json:"serial_no,omitempty"`
	SupplierID *uuid.UUID      `json:"supplier_id,omitempty"`
	IsInterest bool            `json:"is_interest,omitempty"`
}

// ApplicationResponse represents an installment application in API responses
type ApplicationResponse struct {
	ID                      uuid.UUID          `json:"id"`
	Number                  string             `json:"number"`
	CustomerID              uuid.UUID          `json:"customer_id"`
	TransactionDate         time.Time          `json:"transaction_date"`
	StartDate               time.Time          `json:"start_date"`
	MonthlyPaymentDay       int                `json:"monthly_payment_day"`
	Items                   []LineItemResponse `json:"items"`
	TotalAmount             decimal.Decimal    `json:"total_amount"`
	DownpaymentAmount       decimal.Decimal    `json:"downpayment_amount"`
	FinanceAmount           decimal.Decimal    `json:"finance_amount"`
	InstallmentMonths       int                `json:"installment_months"`
	MonthlyPayment          decimal.Decimal    `json:"monthly_payment"`
	TotalInterest           decimal.Decimal    `json:"total_interest"`
	GrandTotalWithInterest  decimal.Decimal    `json:"grand_total_with_interest"`
	ProfitPercentage        decimal.Decimal    `json:"profit_percentage"`
	FinanceProfitPercentage decimal.Decimal    `json:"finance_profit_percentage"`
	State                   string             `json:"state"`
	ContractID              *uuid.UUID         `json:"contract_id,omitempty"`
	CreatedAt               time.Time          `json:"created_at"`
	UpdatedAt               time.Time          `json:"updated_at"`
}

// ScheduleRowResponse represents one schedule row in API responses
type ScheduleRowResponse struct {
	Idx            int             `json:"idx"`
	DueDate        time.Time       `json:"due_date"`
	PaymentAmount  decimal.Decimal `json:"payment_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	InvoicePortion decimal.Decimal `json:"invoice_portion"`
	Description    string          `json:"description,omitempty"`
}

// ContractResponse represents a contract in API responses
type ContractResponse struct {
	ID                     uuid.UUID             `json:"id"`
	Number                 string                `json:"number"`
	ApplicationID          uuid.UUID             `json:"application_id"`
	CustomerID             uuid.UUID             `json:"customer_id"`
	TransactionDate        time.Time             `json:"transaction_date"`
	ContractType           string                `json:"contract_type"`
	Items                  []LineItemResponse    `json:"items,omitempty"`
	Schedule               []ScheduleRowResponse `json:"schedule,omitempty"`
	DownpaymentAmount      decimal.Decimal       `json:"downpayment_amount"`
	TotalInterest          decimal.Decimal       `json:"total_interest"`
	GrandTotalWithInterest decimal.Decimal       `json:"grand_total_with_interest"`
	AdvancePaid            decimal.Decimal       `json:"advance_paid"`
	UnallocatedAmount      decimal.Decimal       `json:"unallocated_amount"`
	Outstanding            decimal.Decimal       `json:"outstanding"`
	NextPaymentDate        *time.Time            `json:"next_payment_date,omitempty"`
	NextPaymentAmount      decimal.Decimal       `json:"next_payment_amount"`
	Status                 string                `json:"status"`
	CreatedAt              time.Time             `json:"created_at"`
	UpdatedAt              time.Time             `json:"updated_at"`
}

// SubmitApplicationResponse reports the outcome of one application submit
type SubmitApplicationResponse struct {
	Application       ApplicationResponse `json:"application"`
	Contract          *ContractResponse   `json:"contract,omitempty"`
	DownpaymentNumber string              `json:"downpayment_number,omitempty"`
}

func toLineItemResponses(items []installment.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(items))
	for i := range items {
		out[i] = LineItemResponse{
			ItemCode:   items[i].ItemCode,
			ItemName:   items[i].ItemName,
			Qty:        items[i].Qty,
			Rate:       items[i].Rate.Amount(),
			Amount:     items[i].Amount.Amount(),
			SerialNo:   items[i].SerialNo,
			SupplierID: items[i].SupplierID,
			IsInterest: items[i].IsInterest,
		}
	}
	return out
}

func toApplicationResponse(ia *installment.InstallmentApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:                      ia.ID,
		Number:                  ia.Number,
		CustomerID:              ia.CustomerID,
		TransactionDate:         ia.TransactionDate,
		StartDate:               ia.StartDate,
		MonthlyPaymentDay:       ia.MonthlyPaymentDay,
		Items:                   toLineItemResponses(ia.Items),
		TotalAmount:             ia.TotalAmount.Amount(),
		DownpaymentAmount:       ia.DownpaymentAmount.Amount(),
		FinanceAmount:           ia.FinanceAmount.Amount(),
		InstallmentMonths:       ia.InstallmentMonths,
		MonthlyPayment:          ia.MonthlyPayment.Amount(),
		TotalInterest:           ia.TotalInterest().Amount(),
		GrandTotalWithInterest:  ia.GrandTotalWithInterest().Amount(),
		ProfitPercentage:        ia.ProfitPercentage(),
		FinanceProfitPercentage: ia.FinanceProfitPercentage(),
		State:                   string(ia.State),
		ContractID:              ia.ContractID,
		CreatedAt:               ia.CreatedAt,
		UpdatedAt:               ia.UpdatedAt,
	}
}

func toContractResponse(c *installment.Contract, withChildren bool) ContractResponse {
	resp := ContractResponse{
		ID:                     c.ID,
		Number:                 c.Number,
		ApplicationID:          c.ApplicationID,
		CustomerID:             c.CustomerID,
		TransactionDate:        c.TransactionDate,
		ContractType:           c.ContractType,
		DownpaymentAmount:      c.DownpaymentAmount.Amount(),
		TotalInterest:          c.TotalInterest.Amount(),
		GrandTotalWithInterest: c.GrandTotalWithInterest.Amount(),
		AdvancePaid:            c.AdvancePaid.Amount(),
		UnallocatedAmount:      c.UnallocatedAmount.Amount(),
		Outstanding:            c.Outstanding().Amount(),
		NextPaymentDate:        c.NextPaymentDate,
		NextPaymentAmount:      c.NextPaymentAmount.Amount(),
		Status:                 string(c.Status),
		CreatedAt:              c.CreatedAt,
		UpdatedAt:              c.UpdatedAt,
	}
	if withChildren {
		resp.Items = toLineItemResponses(c.Items)
		resp.Schedule = make([]ScheduleRowResponse, len(c.Schedule))
		for i := range c.Schedule {
			row := &c.Schedule[i]
			resp.Schedule[i] = ScheduleRowResponse{
				Idx:            row.Idx,
				DueDate:        row.DueDate,
				PaymentAmount:  row.PaymentAmount.Amount(),
				PaidAmount:     row.PaidAmount.Amount(),
				Outstanding:    row.Outstanding().Amount(),
				InvoicePortion: row.InvoicePortion,
				Description:    row.Description,
			}
		}
	}
	return resp
}

// ===================== Application lifecycle =====================

// CreateApplication creates a draft installment application
func (s *ContractService) CreateApplication(ctx context.Context, req CreateApplicationRequest) (*ApplicationResponse, error) {
	if _, err := s.customerRepo.FindByID(ctx, req.CustomerID); err != nil {
		return nil, err
	}

	items := make([]installment.LineItem, 0, len(req.Items))
	for _, it := range req.Items {
		item, err := installment.NewLineItem(
			it.ItemCode, it.ItemName, it.Qty,
			valueobject.NewMoney(it.Rate), it.SerialNo, it.SupplierID,
		)
		if err != nil {
			return nil, err
		}
		item.Notes = it.Notes
		items = append(items, *item)
	}

	number, err := s.appRepo.NextNumber(ctx, req.TransactionDate.Year())
	if err != nil {
		return nil, err
	}

	ia, err := installment.NewInstallmentApplication(
		number,
		req.CustomerID,
		req.TransactionDate,
		req.StartDate,
		req.MonthlyPaymentDay,
		items,
		valueobject.NewMoney(req.DownpaymentAmount),
		valueobject.NewMoney(req.MonthlyPayment),
		req.InstallmentMonths,
	)
	if err != nil {
		return nil, err
	}
	ia.AmendedFromID = req.AmendedFromID

	if err := s.appRepo.Save(ctx, ia); err != nil {
		return nil, err
	}

	resp := toApplicationResponse(ia)
	return &resp, nil
}

// GetApplication returns one application
func (s *ContractService) GetApplication(ctx context.Context, id uuid.UUID) (*ApplicationResponse, error) {
	ia, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toApplicationResponse(ia)
	return &resp, nil
}

// ListApplications returns a customer's applications, newest first
func (s *ContractService) ListApplications(ctx context.Context, customerID uuid.UUID) ([]ApplicationResponse, error) {
	applications, err := s.appRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]ApplicationResponse, len(applications))
	for i := range applications {
		out[i] = toApplicationResponse(&applications[i])
	}
	return out, nil
}

// ValidateApplication re-runs the save-time rules on an application and
// clears a contract link that points at a cancelled contract.
func (s *ContractService) ValidateApplication(ctx context.Context, id uuid.UUID) (*ApplicationResponse, error) {
	ia, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ia.ContractID != nil {
		contract, err := s.contractRepo.FindByID(ctx, *ia.ContractID)
		if err != nil {
			return nil, err
		}
		if contract.Status == installment.ContractStatusCancelled {
			ia.UnlinkContract()
			if err := s.appRepo.Save(ctx, ia); err != nil {
				return nil, err
			}
		}
	}

	if err := ia.Validate(); err != nil {
		return nil, err
	}
	// Rows must be constructible before submit; same inputs produce the
	// schedule again at materialization time.
	if _, err := installment.BuildSchedule(
		ia.StartDate, ia.MonthlyPaymentDay, ia.InstallmentMonths,
		ia.DownpaymentAmount, ia.MonthlyPayment,
	); err != nil {
		return nil, err
	}

	resp := toApplicationResponse(ia)
	return &resp, nil
}

// SubmitApplication submits an application: an amended predecessor's live
// contract is cancelled first, then the contract is materialized with its
// schedule, the supplier debt accrual and ledger pair are written, and the
// downpayment draft payment is created when a downpayment is present.
func (s *ContractService) SubmitApplication(ctx context.Context, id uuid.UUID) (*SubmitApplicationResponse, error) {
	ia, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if ia.State == installment.ApplicationStateCancelled {
		return nil, shared.NewDomainError("INVALID_STATE", "Cancelled applications cannot be submitted")
	}
	if ia.State == installment.ApplicationStateDraft {
		if err := ia.Approve(); err != nil {
			return nil, err
		}
	}

	isAmendment := false
	if ia.AmendedFromID != nil {
		if err := s.cancelPredecessor(ctx, *ia.AmendedFromID); err != nil {
			return nil, err
		}
		isAmendment = true
	}

	var contract *installment.Contract
	created := ia.ContractID == nil
	if created {
		contract, err = s.materializeContract(ctx, ia)
		if err != nil {
			return nil, err
		}
	} else {
		contract, err = s.contractRepo.FindByID(ctx, *ia.ContractID)
		if err != nil {
			return nil, err
		}
	}

	if err := s.appRepo.Save(ctx, ia); err != nil {
		return nil, err
	}

	if created {
		if err := s.writeLedgerPair(ctx, ia); err != nil {
			return nil, err
		}
		s.recomputeSuppliers(ctx, ia)
	}

	resp := &SubmitApplicationResponse{Application: toApplicationResponse(ia)}
	contractResp := toContractResponse(contract, true)
	resp.Contract = &contractResp

	if created && ia.DownpaymentAmount.IsPositive() && !isAmendment {
		number, err := s.createDownpaymentDraft(ctx, ia, contract)
		if err != nil {
			return nil, err
		}
		resp.DownpaymentNumber = number
	}

	if _, err := s.debtSvc.RecomputeCustomerDebt(ctx, ia.CustomerID); err != nil {
		s.logger.Error("customer debt recompute failed",
			zap.String("customer_id", ia.CustomerID.String()), zap.Error(err))
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	s.logger.Info("installment application submitted",
		zap.String("number", ia.Number),
		zap.String("contract", contract.Number),
		zap.String("grand_total", contract.GrandTotalWithInterest.String()))

	return resp, nil
}

// cancelPredecessor tears down the live contract of the application this one
// amends, so the book never carries two contracts for the same sale.
func (s *ContractService) cancelPredecessor(ctx context.Context, predecessorID uuid.UUID) error {
	prev, err := s.appRepo.FindByID(ctx, predecessorID)
	if err != nil {
		return err
	}
	if prev.ContractID == nil {
		return nil
	}
	if err := s.cancelContract(ctx, *prev.ContractID); err != nil {
		return err
	}
	prev.UnlinkContract()
	return s.appRepo.Save(ctx, prev)
}

// materializeContract builds the schedule, reserves a contract number and
// persists the new contract, linking it back onto the application.
func (s *ContractService) materializeContract(ctx context.Context, ia *installment.InstallmentApplication) (*installment.Contract, error) {
	lines, err := installment.BuildSchedule(
		ia.StartDate, ia.MonthlyPaymentDay, ia.InstallmentMonths,
		ia.DownpaymentAmount, ia.MonthlyPayment,
	)
	if err != nil {
		return nil, err
	}

	number, err := s.contractRepo.NextNumber(ctx, ia.TransactionDate.Year())
	if err != nil {
		return nil, err
	}

	contract, err := installment.NewContractFromApplication(number, ia, lines)
	if err != nil {
		return nil, err
	}
	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return nil, err
	}
	if err := ia.LinkContract(contract.ID); err != nil {
		return nil, err
	}
	return contract, nil
}

// writeLedgerPair records the audit pair for an application submit: one
// customer debit over the grand total and one supplier credit per supplier
// share. The core only ever reads these back through the counterparty report.
func (s *ContractService) writeLedgerPair(ctx context.Context, ia *installment.InstallmentApplication) error {
	debit, err := ledger.NewEntry(
		ia.TransactionDate,
		ledger.PartyKindCustomer,
		ia.CustomerID,
		ia.GrandTotalWithInterest(),
		valueobject.Zero(),
		VoucherTypeApplication,
		ia.Number,
		"Installment sale",
	)
	if err != nil {
		return err
	}
	if err := s.ledgerRepo.Save(ctx, debit); err != nil {
		return err
	}

	for supplierID, amount := range ia.SupplierAmounts() {
		credit, err := ledger.NewEntry(
			ia.TransactionDate,
			ledger.PartyKindSupplier,
			supplierID,
			valueobject.Zero(),
			amount,
			VoucherTypeApplication,
			ia.Number,
			"Procurement for installment sale",
		)
		if err != nil {
			return err
		}
		if err := s.ledgerRepo.Save(ctx, credit); err != nil {
			return err
		}
	}
	return nil
}

// recomputeSuppliers refreshes derived balances for every supplier on the
// application. Failures are logged; the daily sweep converges stragglers.
func (s *ContractService) recomputeSuppliers(ctx context.Context, ia *installment.InstallmentApplication) {
	for supplierID := range ia.SupplierAmounts() {
		if _, err := s.debtSvc.RecomputeSupplierDebt(ctx, supplierID); err != nil {
			s.logger.Error("supplier debt recompute failed",
				zap.String("supplier_id", supplierID.String()), zap.Error(err))
		}
	}
}

// createDownpaymentDraft creates the draft receive for the downpayment.
// Submitted later, it flows through the payment linker like any receipt.
func (s *ContractService) createDownpaymentDraft(ctx context.Context, ia *installment.InstallmentApplication, contract *installment.Contract) (string, error) {
	category, err := s.categoryRepo.FindByName(ctx, payment.CategoryNameDownpayment)
	if err != nil {
		return "", shared.NewDomainError("MISSING_CATEGORY", "Downpayment income category is not configured")
	}
	account, err := s.accountRepo.FindByCode(ctx, s.accountCode)
	if err != nil {
		return "", shared.NewDomainError("MISSING_ACCOUNT", "Default cash account is not configured")
	}

	number, err := s.eventRepo.NextNumber(ctx, payment.DirectionReceive, ia.TransactionDate.Year())
	if err != nil {
		return "", err
	}

	e, err := payment.NewPaymentEvent(
		number,
		payment.DirectionReceive,
		payment.PartyTypeCustomer,
		ia.CustomerID,
		ia.TransactionDate,
		ia.DownpaymentAmount,
		"Cash",
		account.ID,
		category.ID,
	)
	if err != nil {
		return "", err
	}
	if err := e.LinkContract(contract.ID); err != nil {
		return "", err
	}
	e.Remarks = fmt.Sprintf("Downpayment for contract %s", contract.Number)

	if err := s.eventRepo.Save(ctx, e); err != nil {
		return "", err
	}
	return number, nil
}

// CancelApplication cancels an application and cascades: the live contract is
// cancelled, its submitted payments reversed, the ledger pair marked
// reversed, supplier and customer balances recomputed.
func (s *ContractService) CancelApplication(ctx context.Context, id uuid.UUID) (*ApplicationResponse, error) {
	ia, err := s.appRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	wasSubmitted := ia.State.IsSubmitted()

	if ia.ContractID != nil {
		if err := s.cancelContract(ctx, *ia.ContractID); err != nil {
			return nil, err
		}
	}

	if err := ia.Cancel(); err != nil {
		return nil, err
	}
	if err := s.appRepo.Save(ctx, ia); err != nil {
		return nil, err
	}

	if wasSubmitted {
		if err := s.ledgerRepo.MarkReversedByVoucher(ctx, VoucherTypeApplication, ia.Number); err != nil {
			s.logger.Error("failed to reverse ledger pair",
				zap.String("voucher_no", ia.Number), zap.Error(err))
		}
		s.recomputeSuppliers(ctx, ia)
	}

	if _, err := s.debtSvc.RecomputeCustomerDebt(ctx, ia.CustomerID); err != nil {
		s.logger.Error("customer debt recompute failed",
			zap.String("customer_id", ia.CustomerID.String()), zap.Error(err))
	}
	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}

	s.logger.Info("installment application cancelled", zap.String("number", ia.Number))

	resp := toApplicationResponse(ia)
	return &resp, nil
}

// cancelContract cancels a contract after cancelling each of its submitted
// payment events. Each cancellation is an explicit compensating action
// through the linker, reversing the schedule rows it once filled.
func (s *ContractService) cancelContract(ctx context.Context, contractID uuid.UUID) error {
	contract, err := s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		return err
	}
	if contract.Status == installment.ContractStatusCancelled {
		return nil
	}

	events, err := s.eventRepo.FindSubmittedByContract(ctx, contractID)
	if err != nil {
		return err
	}
	for i := range events {
		if _, err := s.linker.Cancel(ctx, events[i].ID); err != nil {
			return fmt.Errorf("failed to cancel dependent payment %s: %w", events[i].Number, err)
		}
	}

	// reload: payment reversal rewrote the schedule rows
	contract, err = s.contractRepo.FindByID(ctx, contractID)
	if err != nil {
		return err
	}
	if err := contract.Cancel(); err != nil {
		return err
	}
	return s.contractRepo.Save(ctx, contract)
}
