package payment

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	partnerapp "github.com/cashflow/backend/internal/application/partner"
	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// ContractLocker serializes payment reconciliation per contract. The returned
// release function must be called exactly once.
type ContractLocker interface {
	Acquire(ctx context.Context, key string) (func(), error)
}

// DashboardInvalidator clears the dashboard snapshot cache after a write.
// Satisfied by the report layer's dashboard service.
type DashboardInvalidator interface {
	Invalidate(ctx context.Context)
}

// LinkerService links payment events to contracts and keeps the schedule
// consistent: FIFO consumption on submit, the reverse walk on cancel, the
// advance recompute in between. Supplier and shareholder movements take the
// simpler paths with the balance guard on outgoing cash.
type LinkerService struct {
	eventRepo    payment.EventRepository
	categoryRepo payment.CategoryRepository
	accountRepo  payment.AccountRepository
	contractRepo installment.ContractRepository
	customerRepo partner.CustomerRepository
	debtSvc      *partnerapp.DebtService
	idempotency  shared.IdempotencyStore
	idemCfg      shared.IdempotencyConfig
	locker       ContractLocker
	invalidator  DashboardInvalidator
	logger       *zap.Logger
}

// LinkerServiceOption is a functional option for configuring LinkerService
type LinkerServiceOption func(*LinkerService)

// WithIdempotencyConfig overrides the idempotency marker settings
func WithIdempotencyConfig(cfg shared.IdempotencyConfig) LinkerServiceOption {
	return func(s *LinkerService) {
		s.idemCfg = cfg
	}
}

// WithDashboardInvalidator wires the dashboard cache invalidation hook
func WithDashboardInvalidator(inv DashboardInvalidator) LinkerServiceOption {
	return func(s *LinkerService) {
		s.invalidator = inv
	}
}

// NewLinkerService creates a new LinkerService
func NewLinkerService(
	eventRepo payment.EventRepository,
	categoryRepo payment.CategoryRepository,
	accountRepo payment.AccountRepository,
	contractRepo installment.ContractRepository,
	customerRepo partner.CustomerRepository,
	debtSvc *partnerapp.DebtService,
	idempotency shared.IdempotencyStore,
	locker ContractLocker,
	logger *zap.Logger,
	opts ...LinkerServiceOption,
) *LinkerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &LinkerService{
		eventRepo:    eventRepo,
		categoryRepo: categoryRepo,
		accountRepo:  accountRepo,
		contractRepo: contractRepo,
		customerRepo: customerRepo,
		debtSvc:      debtSvc,
		idempotency:  idempotency,
		idemCfg:      shared.DefaultIdempotencyConfig(),
		locker:       locker,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ===================== Requests and responses =====================

// CreateEventRequest carries the fields of a new draft payment event
type CreateEventRequest struct {
	Direction     string          `json:"direction" binding:"required,oneof=RECEIVE PAY"`
	PartyType     string          `json:"party_type" binding:"required,oneof=CUSTOMER SUPPLIER SHAREHOLDER"`
	PartyID       uuid.UUID       `json:"party_id" binding:"required"`
	PostingDate   time.Time       `json:"posting_date" binding:"required"`
	Amount        decimal.Decimal `json:"amount" binding:"required,dpositive"`
	ModeOfPayment string          `json:"mode_of_payment"`
	AccountID     uuid.UUID       `json:"account_id" binding:"required"`
	CategoryID    uuid.UUID       `json:"category_id" binding:"required"`
	ContractID    *uuid.UUID      `json:"contract_id"`
	Remarks       string          `json:"remarks"`
}

// EventResponse represents a payment event in API responses
type EventResponse struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	Direction      string          `json:"direction"`
	PartyType      string          `json:"party_type"`
	PartyID        uuid.UUID       `json:"party_id"`
	PostingDate    time.Time       `json:"posting_date"`
	Amount         decimal.Decimal `json:"amount"`
	ModeOfPayment  string          `json:"mode_of_payment,omitempty"`
	AccountID      uuid.UUID       `json:"account_id"`
	CategoryID     uuid.UUID       `json:"category_id"`
	ContractID     *uuid.UUID      `json:"contract_id,omitempty"`
	ScheduleRowIdx *int            `json:"schedule_row_idx,omitempty"`
	PaymentMonth   string          `json:"payment_month,omitempty"`
	Remarks        string          `json:"remarks,omitempty"`
	State          string          `json:"state"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// SubmitResponse reports the reconciliation outcome of one submit
type SubmitResponse struct {
	Event             EventResponse   `json:"event"`
	Applied           decimal.Decimal `json:"applied"`
	Surplus           decimal.Decimal `json:"surplus"`
	ContractStatus    string          `json:"contract_status,omitempty"`
	NextPaymentDate   *time.Time      `json:"next_payment_date,omitempty"`
	NextPaymentAmount decimal.Decimal `json:"next_payment_amount"`
}

// OverdueRowResponse is one overdue schedule row in the advisory notice
type OverdueRowResponse struct {
	ContractNumber string          `json:"contract_number"`
	DueDate        time.Time       `json:"due_date"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	DaysOverdue    int             `json:"days_overdue"`
}

// OverdueNoticeResponse is the informational overdue summary shown before a
// customer receive is saved. Advisory only, never blocking.
type OverdueNoticeResponse struct {
	Rows    []OverdueRowResponse `json:"rows"`
	Message string               `json:"message,omitempty"`
}

// EventListFilter defines filtering options for payment event queries
type EventListFilter struct {
	PartyType string     `form:"party_type"`
	PartyID   *uuid.UUID `form:"party_id"`
	State     string     `form:"state"`
}

func toEventResponse(e *payment.PaymentEvent) EventResponse {
	return EventResponse{
		ID:             e.ID,
		Number:         e.Number,
		Direction:      string(e.Direction),
		PartyType:      string(e.PartyType),
		PartyID:        e.PartyID,
		PostingDate:    e.PostingDate,
		Amount:         e.Amount.Amount(),
		ModeOfPayment:  e.ModeOfPayment,
		AccountID:      e.AccountID,
		CategoryID:     e.CategoryID,
		ContractID:     e.ContractID,
		ScheduleRowIdx: e.ScheduleRowIdx,
		PaymentMonth:   e.PaymentMonth,
		Remarks:        e.Remarks,
		State:          string(e.State),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// ===================== Draft lifecycle =====================

// CreateEvent creates a draft payment event in the direction's naming series.
// Customer receives without a contract reference are auto-linked to the
// customer's latest open contract.
func (s *LinkerService) CreateEvent(ctx context.Context, req CreateEventRequest) (*EventResponse, error) {
	direction := payment.Direction(req.Direction)
	number, err := s.eventRepo.NextNumber(ctx, direction, req.PostingDate.Year())
	if err != nil {
		return nil, err
	}

	e, err := payment.NewPaymentEvent(
		number,
		direction,
		payment.PartyType(req.PartyType),
		req.PartyID,
		req.PostingDate,
		valueobject.NewMoney(req.Amount),
		req.ModeOfPayment,
		req.AccountID,
		req.CategoryID,
	)
	if err != nil {
		return nil, err
	}
	e.Remarks = req.Remarks
	if req.ContractID != nil {
		if err := e.LinkContract(*req.ContractID); err != nil {
			return nil, err
		}
	}

	if err := s.Validate(ctx, e); err != nil {
		return nil, err
	}

	if err := s.eventRepo.Save(ctx, e); err != nil {
		return nil, err
	}

	resp := toEventResponse(e)
	return &resp, nil
}

// GetEvent returns one payment event
func (s *LinkerService) GetEvent(ctx context.Context, id uuid.UUID) (*EventResponse, error) {
	e, err := s.eventRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := toEventResponse(e)
	return &resp, nil
}

// ListEvents returns a party's payment events, newest first
func (s *LinkerService) ListEvents(ctx context.Context, filter EventListFilter) ([]EventResponse, error) {
	if filter.PartyID == nil || filter.PartyType == "" {
		return nil, shared.NewDomainError("INVALID_FILTER", "Party type and party are required")
	}
	events, err := s.eventRepo.FindByParty(ctx, payment.PartyType(filter.PartyType), *filter.PartyID)
	if err != nil {
		return nil, err
	}
	out := make([]EventResponse, 0, len(events))
	for i := range events {
		if filter.State != "" && string(events[i].State) != filter.State {
			continue
		}
		out = append(out, toEventResponse(&events[i]))
	}
	return out, nil
}

// Validate enforces the linking policy and auto-fills missing references on a
// draft event: income categories only on receives, expense categories only on
// pays, the contract's customer must be the paying party, and a customer
// receive without a contract picks the customer's latest open contract.
func (s *LinkerService) Validate(ctx context.Context, e *payment.PaymentEvent) error {
	category, err := s.categoryRepo.FindByID(ctx, e.CategoryID)
	if err != nil {
		return err
	}
	if !category.Type.AllowsDirection(e.Direction) {
		return shared.ErrCategoryMismatch
	}

	if _, err := s.accountRepo.FindByID(ctx, e.AccountID); err != nil {
		return err
	}

	if e.Direction != payment.DirectionReceive || e.PartyType != payment.PartyTypeCustomer {
		return nil
	}

	if e.ContractID == nil {
		contract, err := s.contractRepo.FindLatestOpenByCustomer(ctx, e.PartyID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return shared.NewDomainError("NO_OPEN_CONTRACT", "Customer has no open contract to link the payment to")
			}
			return err
		}
		if err := e.LinkContract(contract.ID); err != nil {
			return err
		}
		s.fillScheduleRow(e, contract)
		return nil
	}

	contract, err := s.contractRepo.FindByID(ctx, *e.ContractID)
	if err != nil {
		return err
	}
	if contract.CustomerID != e.PartyID {
		return shared.NewDomainError("CUSTOMER_MISMATCH", "Contract belongs to a different customer")
	}
	s.fillScheduleRow(e, contract)
	return nil
}

// fillScheduleRow stamps the first unsettled row onto a draft event.
// Informational until submit reconciles for real.
func (s *LinkerService) fillScheduleRow(e *payment.PaymentEvent, c *installment.Contract) {
	if e.ScheduleRowIdx != nil {
		return
	}
	for i := range c.Schedule {
		if !c.Schedule[i].IsSettled() {
			e.SetScheduleRow(c.Schedule[i].Idx, c.Schedule[i].Description)
			return
		}
	}
}

// OverdueNotice lists the customer's worst overdue schedule rows across
// contracts signed within the last year, at most five.
func (s *LinkerService) OverdueNotice(ctx context.Context, customerID uuid.UUID) (*OverdueNoticeResponse, error) {
	contracts, err := s.contractRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	cutoff := now.AddDate(-1, 0, 0)
	var rows []OverdueRowResponse
	for i := range contracts {
		c := &contracts[i]
		if !c.Status.IsOpen() || c.TransactionDate.Before(cutoff) {
			continue
		}
		for _, row := range c.OverdueRows(now) {
			rows = append(rows, OverdueRowResponse{
				ContractNumber: c.Number,
				DueDate:        row.DueDate,
				Outstanding:    row.Outstanding().Amount(),
				DaysOverdue:    row.DaysOverdue(now),
			})
		}
	}

	sort.Slice(rows, func(i, j int) bool { return rows[i].DueDate.Before(rows[j].DueDate) })
	if len(rows) > 5 {
		rows = rows[:5]
	}

	resp := &OverdueNoticeResponse{Rows: rows}
	if len(rows) > 0 {
		resp.Message = fmt.Sprintf("Customer has %d overdue installment(s); oldest due %s",
			len(rows), rows[0].DueDate.Format("2006-01-02"))
	}
	return resp, nil
}

// ===================== Submit =====================

// Submit moves a draft event to submitted and runs the side effects for its
// party type: customer receives reconcile against the contract schedule under
// a per-contract lock, outgoing cash passes the balance guard first, and
// derived partner balances are recomputed afterwards.
func (s *LinkerService) Submit(ctx context.Context, eventID uuid.UUID) (*SubmitResponse, error) {
	e, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := s.Validate(ctx, e); err != nil {
		return nil, err
	}

	if e.Direction == payment.DirectionPay {
		balance, err := s.eventRepo.AccountBalanceAsOf(ctx, e.AccountID, e.PostingDate)
		if err != nil {
			return nil, err
		}
		if balance.LessThan(e.Amount) {
			return nil, shared.ErrInsufficientBalance
		}
	}

	if err := e.Submit(); err != nil {
		return nil, err
	}

	resp := &SubmitResponse{NextPaymentAmount: decimal.Zero}

	if e.Direction == payment.DirectionReceive && e.PartyType == payment.PartyTypeCustomer && e.ContractID != nil {
		if err := s.reconcileSubmit(ctx, e, resp); err != nil {
			return nil, err
		}
	}

	if err := s.eventRepo.Save(ctx, e); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, e)

	s.logger.Info("payment event submitted",
		zap.String("number", e.Number),
		zap.String("direction", string(e.Direction)),
		zap.String("party_type", string(e.PartyType)),
		zap.String("amount", e.Amount.String()))

	resp.Event = toEventResponse(e)
	return resp, nil
}

// reconcileSubmit applies one submitted customer receive to its contract:
// recompute the advance from already-submitted events, FIFO-consume schedule
// rows, refresh the next-due pointer. Serialized per contract; the
// idempotency marker suppresses a second application of the same event.
func (s *LinkerService) reconcileSubmit(ctx context.Context, e *payment.PaymentEvent, resp *SubmitResponse) error {
	release, err := s.locker.Acquire(ctx, e.ContractID.String())
	if err != nil {
		return err
	}
	defer release()

	if s.idemCfg.Enabled {
		fresh, err := s.idempotency.MarkProcessed(ctx, e.ID.String(), s.idemCfg.TTL)
		if err != nil {
			return err
		}
		if !fresh {
			s.logger.Warn("payment already applied, skipping reconciliation",
				zap.String("event_id", e.ID.String()))
			return nil
		}
	}

	contract, err := s.contractRepo.FindByID(ctx, *e.ContractID)
	if err != nil {
		return err
	}

	prior, err := s.eventRepo.SumSubmittedByContract(ctx, contract.ID, e.ID)
	if err != nil {
		return err
	}
	// Clamp at the grand total: a surplus stays in UnallocatedAmount and must
	// not inflate the advance past the sum of schedule paid amounts.
	contract.SetAdvancePaid(prior.Add(e.Amount).Min(contract.GrandTotalWithInterest))

	result, err := contract.ApplyPayment(e.Amount)
	if err != nil {
		return err
	}
	if result.FirstRowIdx >= 0 {
		e.SetScheduleRow(result.FirstRowIdx, result.FirstRowDescription)
	}
	if result.Surplus.IsPositive() {
		s.logger.Warn("payment exceeds the remaining schedule, surplus left unallocated",
			zap.String("event_id", e.ID.String()),
			zap.String("contract", contract.Number),
			zap.String("surplus", result.Surplus.String()))
	}

	if err := s.contractRepo.Save(ctx, contract); err != nil {
		return err
	}

	resp.Applied = result.Applied.Amount()
	resp.Surplus = result.Surplus.Amount()
	resp.ContractStatus = string(contract.Status)
	resp.NextPaymentDate = contract.NextPaymentDate
	resp.NextPaymentAmount = contract.NextPaymentAmount.Amount()
	return nil
}

// ===================== Cancel =====================

// Cancel moves a submitted event to cancelled and compensates its side
// effects: customer receives are reversed off the contract schedule in
// reverse FIFO order, derived balances recomputed, the idempotency marker
// cleared so a fresh event may be applied later.
func (s *LinkerService) Cancel(ctx context.Context, eventID uuid.UUID) (*SubmitResponse, error) {
	e, err := s.eventRepo.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if err := e.Cancel(); err != nil {
		return nil, err
	}

	resp := &SubmitResponse{NextPaymentAmount: decimal.Zero}

	if e.Direction == payment.DirectionReceive && e.PartyType == payment.PartyTypeCustomer && e.ContractID != nil {
		if err := s.reconcileCancel(ctx, e, resp); err != nil {
			return nil, err
		}
	}

	if err := s.eventRepo.Save(ctx, e); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, e)

	s.logger.Info("payment event cancelled",
		zap.String("number", e.Number),
		zap.String("direction", string(e.Direction)),
		zap.String("party_type", string(e.PartyType)))

	resp.Event = toEventResponse(e)
	return resp, nil
}

// reconcileCancel reverses one cancelled customer receive off its contract
func (s *LinkerService) reconcileCancel(ctx context.Context, e *payment.PaymentEvent, resp *SubmitResponse) error {
	release, err := s.locker.Acquire(ctx, e.ContractID.String())
	if err != nil {
		return err
	}
	defer release()

	contract, err := s.contractRepo.FindByID(ctx, *e.ContractID)
	if err != nil {
		return err
	}

	if contract.Status != installment.ContractStatusCancelled {
		if err := contract.ReversePayment(e.Amount); err != nil {
			return err
		}
		remaining, err := s.eventRepo.SumSubmittedByContract(ctx, contract.ID, e.ID)
		if err != nil {
			return err
		}
		contract.SetAdvancePaid(remaining.Min(contract.GrandTotalWithInterest))
		if err := s.contractRepo.Save(ctx, contract); err != nil {
			return err
		}
	}

	if s.idemCfg.Enabled {
		if err := s.idempotency.Unmark(ctx, e.ID.String()); err != nil {
			s.logger.Error("failed to clear idempotency marker",
				zap.String("event_id", e.ID.String()), zap.Error(err))
		}
	}

	resp.ContractStatus = string(contract.Status)
	resp.NextPaymentDate = contract.NextPaymentDate
	resp.NextPaymentAmount = contract.NextPaymentAmount.Amount()
	return nil
}

// afterWrite recomputes derived balances for the event's party and clears the
// dashboard cache. Failures here are logged, not surfaced; the totals are
// recomputed again on the next relevant event and by the daily sweep.
func (s *LinkerService) afterWrite(ctx context.Context, e *payment.PaymentEvent) {
	switch e.PartyType {
	case payment.PartyTypeCustomer:
		if _, err := s.debtSvc.RecomputeCustomerDebt(ctx, e.PartyID); err != nil {
			s.logger.Error("customer debt recompute failed",
				zap.String("customer_id", e.PartyID.String()), zap.Error(err))
		}
		if _, err := s.debtSvc.ReclassifyCustomer(ctx, e.PartyID, time.Now()); err != nil {
			s.logger.Error("customer reclassification failed",
				zap.String("customer_id", e.PartyID.String()), zap.Error(err))
		}
	case payment.PartyTypeSupplier:
		if _, err := s.debtSvc.RecomputeSupplierDebt(ctx, e.PartyID); err != nil {
			s.logger.Error("supplier debt recompute failed",
				zap.String("supplier_id", e.PartyID.String()), zap.Error(err))
		}
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx)
	}
}
