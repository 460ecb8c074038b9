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

// DebtService maintains the derived balances on customers and suppliers and
// the customer A/B/C classification. Balances are always recomputed from the
// source documents, never incrementally patched, so submit and cancel paths
// converge on the same totals.
type DebtService struct {
	customerRepo partner.CustomerRepository
	supplierRepo partner.SupplierRepository
	appRepo      installment.ApplicationRepository
	contractRepo installment.ContractRepository
	eventRepo    payment.EventRepository
	logger       *zap.Logger
}

// NewDebtService creates a new DebtService
func NewDebtService(
	customerRepo partner.CustomerRepository,
	supplierRepo partner.SupplierRepository,
	appRepo installment.ApplicationRepository,
	contractRepo installment.ContractRepository,
	eventRepo payment.EventRepository,
	logger *zap.Logger,
) *DebtService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DebtService{
		customerRepo: customerRepo,
		supplierRepo: supplierRepo,
		appRepo:      appRepo,
		contractRepo: contractRepo,
		eventRepo:    eventRepo,
		logger:       logger,
	}
}

// CustomerDebtResponse reports a customer's recomputed balance
type CustomerDebtResponse struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	TotalDebt      decimal.Decimal `json:"total_debt"`
	Classification string          `json:"classification"`
}

// SupplierDebtResponse reports a supplier's recomputed balances
type SupplierDebtResponse struct {
	SupplierID    uuid.UUID       `json:"supplier_id"`
	TotalDebt     decimal.Decimal `json:"total_debt"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	RemainingDebt decimal.Decimal `json:"remaining_debt"`
}

// SweepResponse reports the outcome of a full classification sweep
type SweepResponse struct {
	Customers    int `json:"customers"`
	Reclassified int `json:"reclassified"`
	Failed       int `json:"failed"`
}

// RecomputeCustomerDebt recomputes the customer's total debt from submitted
// documents:
//
//	total_debt = sum of submitted application grand totals
//	           + sum of submitted customer pays
//	           - sum of submitted customer receives
func (s *DebtService) RecomputeCustomerDebt(ctx context.Context, customerID uuid.UUID) (*CustomerDebtResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	applications, err := s.appRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	debt := valueobject.Zero()
	for i := range applications {
		if applications[i].State.IsSubmitted() {
			debt = debt.Add(applications[i].GrandTotalWithInterest())
		}
	}

	events, err := s.eventRepo.FindSubmittedByParty(ctx, payment.PartyTypeCustomer, customerID)
	if err != nil {
		return nil, err
	}
	for i := range events {
		if events[i].Direction == payment.DirectionPay {
			debt = debt.Add(events[i].Amount)
		} else {
			debt = debt.Sub(events[i].Amount)
		}
	}

	customer.SetTotalDebt(debt)
	if err := s.customerRepo.Save(ctx, customer); err != nil {
		return nil, err
	}

	return &CustomerDebtResponse{
		CustomerID:     customer.ID,
		TotalDebt:      customer.TotalDebt.Amount(),
		Classification: customer.Classification.String(),
	}, nil
}

// ReclassifyCustomer derives the customer's risk class from the worst overdue
// age across open contract schedule rows and records an audit entry when the
// class changes. The write is silent: no validation hook, no permission check.
func (s *DebtService) ReclassifyCustomer(ctx context.Context, customerID uuid.UUID, asOf time.Time) (*CustomerDebtResponse, error) {
	customer, err := s.customerRepo.FindByID(ctx, customerID)
	if err != nil {
		return nil, err
	}

	worst, err := s.maxDaysOverdue(ctx, customerID, asOf)
	if err != nil {
		return nil, err
	}

	class := partner.ClassificationForOverdue(worst)
	entry, err := customer.Reclassify(class, worst)
	if err != nil {
		return nil, err
	}
	if entry != nil {
		if err := s.customerRepo.Save(ctx, customer); err != nil {
			return nil, err
		}
		if err := s.customerRepo.SaveAuditEntry(ctx, entry); err != nil {
			return nil, err
		}
		s.logger.Info("customer reclassified",
			zap.String("customer_id", customerID.String()),
			zap.String("comment", entry.Comment),
			zap.Int("days_overdue", worst))
	}

	return &CustomerDebtResponse{
		CustomerID:     customer.ID,
		TotalDebt:      customer.TotalDebt.Amount(),
		Classification: customer.Classification.String(),
	}, nil
}

// maxDaysOverdue returns the worst overdue age across the customer's open
// contracts. Contract schedule rows are the canonical aging source.
func (s *DebtService) maxDaysOverdue(ctx context.Context, customerID uuid.UUID, asOf time.Time) (int, error) {
	contracts, err := s.contractRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return 0, err
	}
	worst := 0
	for i := range contracts {
		if !contracts[i].Status.IsOpen() {
			continue
		}
		if d := contracts[i].MaxDaysOverdue(asOf); d > worst {
			worst = d
		}
	}
	return worst, nil
}

// RecomputeSupplierDebt recomputes a supplier's balances from source:
// debt accrues from submitted application items assigned to the supplier plus
// submitted refunds received from the supplier; paid accrues from submitted
// outgoing payments.
func (s *DebtService) RecomputeSupplierDebt(ctx context.Context, supplierID uuid.UUID) (*SupplierDebtResponse, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}

	applications, err := s.appRepo.FindSubmitted(ctx)
	if err != nil {
		return nil, err
	}

	debt := valueobject.Zero()
	for i := range applications {
		for sid, amount := range applications[i].SupplierAmounts() {
			if sid == supplierID {
				debt = debt.Add(amount)
			}
		}
	}

	events, err := s.eventRepo.FindSubmittedByParty(ctx, payment.PartyTypeSupplier, supplierID)
	if err != nil {
		return nil, err
	}
	paid := valueobject.Zero()
	for i := range events {
		if events[i].Direction == payment.DirectionPay {
			paid = paid.Add(events[i].Amount)
		} else {
			debt = debt.Add(events[i].Amount)
		}
	}

	supplier.SetBalances(debt, paid)
	if err := s.supplierRepo.Save(ctx, supplier); err != nil {
		return nil, err
	}

	return &SupplierDebtResponse{
		SupplierID:    supplier.ID,
		TotalDebt:     supplier.TotalDebt.Amount(),
		PaidAmount:    supplier.PaidAmount.Amount(),
		RemainingDebt: supplier.RemainingDebt().Amount(),
	}, nil
}

// SweepClassifications recomputes debt and classification for every customer.
// Runs as the daily scheduled job; per-customer failures are logged and the
// sweep continues.
func (s *DebtService) SweepClassifications(ctx context.Context, asOf time.Time) (*SweepResponse, error) {
	customers, err := s.customerRepo.FindAll(ctx)
	if err != nil {
		return nil, err
	}

	resp := &SweepResponse{Customers: len(customers)}
	for i := range customers {
		before := customers[i].Classification

		if _, err := s.RecomputeCustomerDebt(ctx, customers[i].ID); err != nil {
			resp.Failed++
			s.logger.Error("debt recompute failed during sweep",
				zap.String("customer_id", customers[i].ID.String()),
				zap.Error(err))
			continue
		}
		after, err := s.ReclassifyCustomer(ctx, customers[i].ID, asOf)
		if err != nil {
			resp.Failed++
			s.logger.Error("reclassification failed during sweep",
				zap.String("customer_id", customers[i].ID.String()),
				zap.Error(err))
			continue
		}
		if after.Classification != before.String() {
			resp.Reclassified++
		}
	}

	s.logger.Info("classification sweep finished",
		zap.Int("customers", resp.Customers),
		zap.Int("reclassified", resp.Reclassified),
		zap.Int("failed", resp.Failed))

	return resp, nil
}
