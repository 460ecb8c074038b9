package installment

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/shared"
)

// ContractQueryService serves the contract read paths: search, per-contract
// installment analysis, customer contract lists, the annotated payment
// schedule and contract notes.
type ContractQueryService struct {
	contractRepo installment.ContractRepository
	customerRepo partner.CustomerRepository
	noteRepo     installment.NoteRepository
	logger       *zap.Logger
}

// NewContractQueryService creates a new ContractQueryService
func NewContractQueryService(
	contractRepo installment.ContractRepository,
	customerRepo partner.CustomerRepository,
	noteRepo installment.NoteRepository,
	logger *zap.Logger,
) *ContractQueryService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContractQueryService{
		contractRepo: contractRepo,
		customerRepo: customerRepo,
		noteRepo:     noteRepo,
		logger:       logger,
	}
}

// ContractSummaryResponse is a compact contract row for search results
type ContractSummaryResponse struct {
	ID                     uuid.UUID       `json:"id"`
	Number                 string          `json:"number"`
	CustomerID             uuid.UUID       `json:"customer_id"`
	CustomerName           string          `json:"customer_name,omitempty"`
	TransactionDate        time.Time       `json:"transaction_date"`
	GrandTotalWithInterest decimal.Decimal `json:"grand_total_with_interest"`
	AdvancePaid            decimal.Decimal `json:"advance_paid"`
	Outstanding            decimal.Decimal `json:"outstanding"`
	NextPaymentDate        *time.Time      `json:"next_payment_date,omitempty"`
	NextPaymentAmount      decimal.Decimal `json:"next_payment_amount"`
	Status                 string          `json:"status"`
}

// InstallmentAnalysisResponse is the per-contract schedule breakdown
type InstallmentAnalysisResponse struct {
	Contract ContractResponse        `json:"contract"`
	Schedule []ScheduleRowResponse   `json:"schedule"`
	Summary  AnalysisSummaryResponse `json:"summary"`
}

// AnalysisSummaryResponse aggregates a contract's schedule state
type AnalysisSummaryResponse struct {
	TotalRows     int             `json:"total_rows"`
	SettledRows   int             `json:"settled_rows"`
	OverdueRows   int             `json:"overdue_rows"`
	TotalExpected decimal.Decimal `json:"total_expected"`
	TotalPaid     decimal.Decimal `json:"total_paid"`
	Outstanding   decimal.Decimal `json:"outstanding"`
	MaxDaysOver   int             `json:"max_days_overdue"`
}

// ScheduleHistoryRowResponse is one schedule row annotated with its payment
// standing for the customer-facing history view.
type ScheduleHistoryRowResponse struct {
	ContractNumber string          `json:"contract_number"`
	Idx            int             `json:"idx"`
	DueDate        time.Time       `json:"due_date"`
	PaymentAmount  decimal.Decimal `json:"payment_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	Outstanding    decimal.Decimal `json:"outstanding"`
	DaysOverdue    int             `json:"days_overdue"`
	Standing       string          `json:"standing"`
}

// NoteResponse represents a contract note in API responses
type NoteResponse struct {
	ID         uuid.UUID `json:"id"`
	ContractID uuid.UUID `json:"contract_id"`
	Category   string    `json:"category,omitempty"`
	Author     string    `json:"author,omitempty"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"created_at"`
}

// SaveNoteRequest carries a new contract note
type SaveNoteRequest struct {
	ContractID uuid.UUID `json:"contract_id" binding:"required"`
	Category   string    `json:"category"`
	Author     string    `json:"author"`
	Body       string    `json:"body" binding:"required"`
}

// SearchContracts finds contracts by number, customer name or serial number.
// The term must be at least two characters.
func (s *ContractQueryService) SearchContracts(ctx context.Context, term string) ([]ContractSummaryResponse, error) {
	term = strings.TrimSpace(term)
	if len(term) < 2 {
		return nil, shared.NewDomainError("TERM_TOO_SHORT", "Search term must be at least 2 characters")
	}

	contracts, err := s.contractRepo.Search(ctx, term)
	if err != nil {
		return nil, err
	}

	out := make([]ContractSummaryResponse, 0, len(contracts))
	for i := range contracts {
		out = append(out, s.toSummary(ctx, &contracts[i]))
	}
	return out, nil
}

func (s *ContractQueryService) toSummary(ctx context.Context, c *installment.Contract) ContractSummaryResponse {
	summary := ContractSummaryResponse{
		ID:                     c.ID,
		Number:                 c.Number,
		CustomerID:             c.CustomerID,
		TransactionDate:        c.TransactionDate,
		GrandTotalWithInterest: c.GrandTotalWithInterest.Amount(),
		AdvancePaid:            c.AdvancePaid.Amount(),
		Outstanding:            c.Outstanding().Amount(),
		NextPaymentDate:        c.NextPaymentDate,
		NextPaymentAmount:      c.NextPaymentAmount.Amount(),
		Status:                 string(c.Status),
	}
	if customer, err := s.customerRepo.FindByID(ctx, c.CustomerID); err == nil {
		summary.CustomerName = customer.Name
	}
	return summary
}

// GetInstallmentAnalysis resolves a contract by number or serial number and
// returns its full schedule with an aggregate summary. The term must be at
// least three characters.
func (s *ContractQueryService) GetInstallmentAnalysis(ctx context.Context, term string) (*InstallmentAnalysisResponse, error) {
	term = strings.TrimSpace(term)
	if len(term) < 3 {
		return nil, shared.NewDomainError("TERM_TOO_SHORT", "Search term must be at least 3 characters")
	}

	contract, err := s.contractRepo.FindByNumber(ctx, term)
	if err != nil {
		matches, serr := s.contractRepo.SearchBySerialNo(ctx, term)
		if serr != nil {
			return nil, serr
		}
		if len(matches) == 0 {
			return nil, shared.ErrNotFound
		}
		contract = &matches[0]
	}

	now := time.Now()
	resp := &InstallmentAnalysisResponse{Contract: toContractResponse(contract, true)}
	resp.Schedule = resp.Contract.Schedule

	summary := AnalysisSummaryResponse{
		TotalRows:   len(contract.Schedule),
		TotalPaid:   contract.ScheduledPaidTotal().Amount(),
		Outstanding: contract.Outstanding().Amount(),
		MaxDaysOver: contract.MaxDaysOverdue(now),
	}
	expected := decimal.Zero
	for i := range contract.Schedule {
		row := &contract.Schedule[i]
		expected = expected.Add(row.PaymentAmount.Amount())
		if row.IsSettled() {
			summary.SettledRows++
		}
		if row.IsOverdue(now) {
			summary.OverdueRows++
		}
	}
	summary.TotalExpected = expected
	resp.Summary = summary

	return resp, nil
}

// GetCustomerContracts returns a customer's contracts, newest first
func (s *ContractQueryService) GetCustomerContracts(ctx context.Context, customerID uuid.UUID) ([]ContractSummaryResponse, error) {
	contracts, err := s.contractRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}
	out := make([]ContractSummaryResponse, 0, len(contracts))
	for i := range contracts {
		out = append(out, s.toSummary(ctx, &contracts[i]))
	}
	return out, nil
}

// GetPaymentScheduleWithHistory returns every schedule row across the
// customer's contracts annotated with its standing: settled rows are on time,
// partially paid overdue rows are late, unpaid overdue rows are overdue and
// unpaid future rows are upcoming.
func (s *ContractQueryService) GetPaymentScheduleWithHistory(ctx context.Context, customerID uuid.UUID) ([]ScheduleHistoryRowResponse, error) {
	contracts, err := s.contractRepo.FindByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	var out []ScheduleHistoryRowResponse
	for i := range contracts {
		c := &contracts[i]
		if c.Status == installment.ContractStatusCancelled {
			continue
		}
		for j := range c.Schedule {
			row := &c.Schedule[j]
			out = append(out, ScheduleHistoryRowResponse{
				ContractNumber: c.Number,
				Idx:            row.Idx,
				DueDate:        row.DueDate,
				PaymentAmount:  row.PaymentAmount.Amount(),
				PaidAmount:     row.PaidAmount.Amount(),
				Outstanding:    row.Outstanding().Amount(),
				DaysOverdue:    row.DaysOverdue(now),
				Standing:       rowStanding(row, now),
			})
		}
	}
	return out, nil
}

func rowStanding(row *installment.ScheduleRow, asOf time.Time) string {
	switch {
	case row.IsSettled():
		return "On Time"
	case row.IsOverdue(asOf) && row.PaidAmount.IsPositive():
		return "Late"
	case row.IsOverdue(asOf):
		return "Overdue"
	default:
		return "Upcoming"
	}
}

// SaveNote appends a note to a contract
func (s *ContractQueryService) SaveNote(ctx context.Context, req SaveNoteRequest) (*NoteResponse, error) {
	if _, err := s.contractRepo.FindByID(ctx, req.ContractID); err != nil {
		return nil, err
	}

	note, err := installment.NewNote(req.ContractID, req.Category, req.Author, req.Body)
	if err != nil {
		return nil, err
	}
	if err := s.noteRepo.Save(ctx, note); err != nil {
		return nil, err
	}

	return &NoteResponse{
		ID:         note.ID,
		ContractID: note.ContractID,
		Category:   note.Category,
		Author:     note.Author,
		Body:       note.Body,
		CreatedAt:  note.CreatedAt,
	}, nil
}

// GetContractNotes returns a contract's notes in creation order
func (s *ContractQueryService) GetContractNotes(ctx context.Context, contractID uuid.UUID) ([]NoteResponse, error) {
	notes, err := s.noteRepo.FindByContract(ctx, contractID)
	if err != nil {
		return nil, err
	}
	out := make([]NoteResponse, len(notes))
	for i := range notes {
		out[i] = NoteResponse{
			ID:         notes[i].ID,
			ContractID: notes[i].ContractID,
			Category:   notes[i].Category,
			Author:     notes[i].Author,
			Body:       notes[i].Body,
			CreatedAt:  notes[i].CreatedAt,
		}
	}
	return out, nil
}
