package partner

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// PartnerQueryService serves the customer and supplier read paths the
// reporting UI needs: lists, per-supplier ledgers and the classification
// audit trail.
type PartnerQueryService struct {
	customerRepo partner.CustomerRepository
	supplierRepo partner.SupplierRepository
	appRepo      installment.ApplicationRepository
	eventRepo    payment.EventRepository
	logger       *zap.Logger
}

// NewPartnerQueryService creates a new PartnerQueryService
func NewPartnerQueryService(
	customerRepo partner.CustomerRepository,
	supplierRepo partner.SupplierRepository,
	appRepo installment.ApplicationRepository,
	eventRepo payment.EventRepository,
	logger *zap.Logger,
) *PartnerQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PartnerQueryService{
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		appRepo:      appRepo,
		eventRepo:    eventRepo,
		logger:       logger,
	}
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID             uuid.UUID       `json:"id"`
	Code           string          `json:"code"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone,omitempty"`
	Classification string          `json:"classification"`
	TotalDebt      decimal.Decimal `json:"total_debt"`
	Group          string          `json:"group,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// SupplierResponse represents a supplier in API responses
type SupplierResponse struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"code"`
	Name          string          `json:"name"`
	Group         string          `json:"group,omitempty"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
	CreatedAt     time.Time       `json:"created_at"`
}

// AuditEntryResponse is one classification transition
type AuditEntryResponse struct {
	ID          uuid.UUID `json:"id"`
	CustomerID  uuid.UUID `json:"customer_id"`
	Comment     string    `json:"comment"`
	DaysOverdue int       `json:"days_overdue"`
	CreatedAt   time.Time `json:"created_at"`
}

// SupplierContractRowResponse is one application share for a supplier
type SupplierContractRowResponse struct {
	ApplicationNumber string          `json:"application_number"`
	TransactionDate   time.Time       `json:"transaction_date"`
	Amount            decimal.Decimal `json:"amount"`
}

// SupplierPaymentRowResponse is one payment to or from a supplier
type SupplierPaymentRowResponse struct {
	Number      string          `json:"number"`
	Direction   string          `json:"direction"`
	PostingDate time.Time       `json:"posting_date"`
	Amount      decimal.Decimal `json:"amount"`
	Remarks     string          `json:"remarks,omitempty"`
}

// SupplierDebtSummaryResponse aggregates a supplier's standing
type SupplierDebtSummaryResponse struct {
	Supplier      SupplierResponse `json:"supplier"`
	ContractCount int              `json:"contract_count"`
	Accrued       decimal.Decimal  `json:"accrued"`
	Paid          decimal.Decimal  `json:"paid"`
	Remaining     decimal.Decimal  `json:"remaining"`
}

func toCustomerResponse(c *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:             c.ID,
		Code:           c.Code,
		Name:           c.Name,
		Phone:          c.Phone,
		Classification: c.Classification.String(),
		TotalDebt:      c.TotalDebt.Amount(),
		Group:          c.Group,
		CreatedAt:      c.CreatedAt,
	}
}

func toSupplierResponse(s *partner.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		Code:          s.Code,
		Name:          s.Name,
		Group:         s.Group,
		TotalDebt:     s.TotalDebt.Amount(),
		PaidAmount:    s.PaidAmount.Amount(),
		RemainingDebt: s.RemainingDebt().Amount(),
		CreatedAt:     s.CreatedAt,
	}
}

// GetCustomer returns one customer
func (s *PartnerQueryService) GetCustomer(ctx context.Context, id uuid.UUID) (*CustomerResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toCustomerResponse(customer)
	return &resp, nil
}

// ListCustomers returns all customers
func (s *PartnerQueryService) ListCustomers(ctx context.Context) ([]CustomerResponse, error) {
	customers, err := s.customerRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CustomerResponse, len(customers))
	for i := range customers {
		out[i] = toCustomerResponse(&customers[i])
	}
	return out, nil
}

// GetClassificationHistory returns a customer's classification audit trail,
// newest first.
func (s *PartnerQueryService) GetClassificationHistory(ctx context.Context, customerID uuid.UUID) ([]AuditEntryResponse, error) {
	entries, err := s.customerRepo.FindAuditEntries(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]AuditEntryResponse, len(entries))
	for i := range entries {
		out[i] = AuditEntryResponse{
			ID:          entries[i].ID,
			CustomerID:  entries[i].CustomerID,
			Comment:     entries[i].Comment,
			DaysOverdue: entries[i].DaysOverdue,
			CreatedAt:   entries[i].CreatedAt,
		}
	}
	return out, nil
}

// GetSupplier returns one supplier
func (s *PartnerQueryService) GetSupplier(ctx context.Context, id uuid.UUID) (*SupplierResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toSupplierResponse(supplier)
	return &resp, nil
}

// ListSuppliers returns all suppliers
func (s *PartnerQueryService) ListSuppliers(ctx context.Context) ([]SupplierResponse, error) {
	suppliers, err := s.supplierRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]SupplierResponse, len(suppliers))
	for i := range suppliers {
		out[i] = toSupplierResponse(&suppliers[i])
	}
	return out, nil
}

// GetSupplierContracts returns the supplier's shares of submitted
// applications, newest first.
func (s *PartnerQueryService) GetSupplierContracts(ctx context.Context, supplierID uuid.UUID) ([]SupplierContractRowResponse, error) {
	applications, err := s.appRepo.FindSubmitted(ctx)
	if err != nil {
		return nil, err
	}

	var out []SupplierContractRowResponse
	for i := range applications {
		for sid, amount := range applications[i].SupplierAmounts() {
			if sid == supplierID {
				out = append(out, SupplierContractRowResponse{
					ApplicationNumber: applications[i].Number,
					TransactionDate:   applications[i].TransactionDate,
					Amount:            amount.Amount(),
				})
			}
		}
	}
	return out, nil
}

// GetSupplierPaymentHistory returns the supplier's payment events, newest first
func (s *PartnerQueryService) GetSupplierPaymentHistory(ctx context.Context, supplierID uuid.UUID) ([]SupplierPaymentRowResponse, error) {
	events, err := s.eventRepo.FindByParty(ctx, payment.PartyTypeSupplier, supplierID)
	if err != nil {
		return nil, err
	}
	out := make([]SupplierPaymentRowResponse, 0, len(events))
	for i := range events {
		if !events[i].IsSubmitted() {
			continue
		}
		out = append(out, SupplierPaymentRowResponse{
			Number:      events[i].Number,
			Direction:   string(events[i].Direction),
			PostingDate: events[i].PostingDate,
			Amount:      events[i].Amount.Amount(),
			Remarks:     events[i].Remarks,
		})
	}
	return out, nil
}

// GetSupplierDebtSummary aggregates accrual, payments and the remaining
// balance for one supplier.
func (s *PartnerQueryService) GetSupplierDebtSummary(ctx context.Context, supplierID uuid.UUID) (*SupplierDebtSummaryResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	contracts, err := s.GetSupplierContracts(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	accrued := valueobject.Zero()
	for i := range contracts {
		accrued = accrued.Add(valueobject.NewMoney(contracts[i].Amount))
	}

	return &SupplierDebtSummaryResponse{
		Supplier:      toSupplierResponse(supplier),
		ContractCount: len(contracts),
		Accrued:       accrued.Amount(),
		Paid:          supplier.PaidAmount.Amount(),
		Remaining:     supplier.RemainingDebt().Amount(),
	}, nil
}
