package report

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// =============================================================================
// Mock Repositories
// =============================================================================

// MockCustomerRepository is a mock implementation of partner.CustomerRepository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context) ([]partner.Customer, error) {
	args := m.Called(ctx)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByClassification(ctx context.Context, class partner.Classification) ([]partner.Customer, error) {
	args := m.Called(ctx, class)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveAuditEntry(ctx context.Context, entry *partner.AuditEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockCustomerRepository) FindAuditEntries(ctx context.Context, customerID uuid.UUID) ([]partner.AuditEntry, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]partner.AuditEntry), args.Error(1)
}

var _ partner.CustomerRepository = (*MockCustomerRepository)(nil)

// MockApplicationRepository is a mock implementation of installment.ApplicationRepository
type MockApplicationRepository struct {
	mock.Mock
}

func (m *MockApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.InstallmentApplication, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentApplication), args.Error(1)
}

func (m *MockApplicationRepository) FindByNumber(ctx context.Context, number string) (*installment.InstallmentApplication, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentApplication), args.Error(1)
}

func (m *MockApplicationRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]installment.InstallmentApplication, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]installment.InstallmentApplication), args.Error(1)
}

func (m *MockApplicationRepository) FindSubmitted(ctx context.Context) ([]installment.InstallmentApplication, error) {
	args := m.Called(ctx)
	return args.Get(0).([]installment.InstallmentApplication), args.Error(1)
}

func (m *MockApplicationRepository) Save(ctx context.Context, ia *installment.InstallmentApplication) error {
	args := m.Called(ctx, ia)
	return args.Error(0)
}

func (m *MockApplicationRepository) NextNumber(ctx context.Context, year int) (string, error) {
	args := m.Called(ctx, year)
	return args.String(0), args.Error(1)
}

var _ installment.ApplicationRepository = (*MockApplicationRepository)(nil)

// MockContractRepository is a mock implementation of installment.ContractRepository
type MockContractRepository struct {
	mock.Mock
}

func (m *MockContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.Contract, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByNumber(ctx context.Context, number string) (*installment.Contract, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.Contract), args.Error(1)
}

func (m *MockContractRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]installment.Contract, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]installment.Contract), args.Error(1)
}

func (m *MockContractRepository) FindLatestOpenByCustomer(ctx context.Context, customerID uuid.UUID) (*installment.Contract, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.Contract), args.Error(1)
}

func (m *MockContractRepository) FindOpen(ctx context.Context) ([]installment.Contract, error) {
	args := m.Called(ctx)
	return args.Get(0).([]installment.Contract), args.Error(1)
}

func (m *MockContractRepository) FindAll(ctx context.Context) ([]installment.Contract, error) {
	args := m.Called(ctx)
	return args.Get(0).([]installment.Contract), args.Error(1)
}

func (m *MockContractRepository) Search(ctx context.Context, term string) ([]installment.Contract, error) {
	args := m.Called(ctx, term)
	return args.Get(0).([]installment.Contract), args.Error(1)
}

func (m *MockContractRepository) SearchBySerialNo(ctx context.Context, serialNo string) ([]installment.Contract, error) {
	args := m.Called(ctx, serialNo)
	return args.Get(0).([]installment.Contract), args.Error(1)
}

func (m *MockContractRepository) Save(ctx context.Context, c *installment.Contract) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContractRepository) NextNumber(ctx context.Context, year int) (string, error) {
	args := m.Called(ctx, year)
	return args.String(0), args.Error(1)
}

var _ installment.ContractRepository = (*MockContractRepository)(nil)

// MockEventRepository is a mock implementation of payment.EventRepository
type MockEventRepository struct {
	mock.Mock
}

func (m *MockEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PaymentEvent, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentEvent), args.Error(1)
}

func (m *MockEventRepository) FindByNumber(ctx context.Context, number string) (*payment.PaymentEvent, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.PaymentEvent), args.Error(1)
}

func (m *MockEventRepository) FindSubmittedByContract(ctx context.Context, contractID uuid.UUID) ([]payment.PaymentEvent, error) {
	args := m.Called(ctx, contractID)
	return args.Get(0).([]payment.PaymentEvent), args.Error(1)
}

func (m *MockEventRepository) SumSubmittedByContract(ctx context.Context, contractID, excludeID uuid.UUID) (valueobject.Money, error) {
	args := m.Called(ctx, contractID, excludeID)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

func (m *MockEventRepository) FindByParty(ctx context.Context, partyType payment.PartyType, partyID uuid.UUID) ([]payment.PaymentEvent, error) {
	args := m.Called(ctx, partyType, partyID)
	return args.Get(0).([]payment.PaymentEvent), args.Error(1)
}

func (m *MockEventRepository) FindSubmittedByParty(ctx context.Context, partyType payment.PartyType, partyID uuid.UUID) ([]payment.PaymentEvent, error) {
	args := m.Called(ctx, partyType, partyID)
	return args.Get(0).([]payment.PaymentEvent), args.Error(1)
}

func (m *MockEventRepository) FindSubmittedBetween(ctx context.Context, from, to time.Time) ([]payment.PaymentEvent, error) {
	args := m.Called(ctx, from, to)
	return args.Get(0).([]payment.PaymentEvent), args.Error(1)
}

func (m *MockEventRepository) AccountBalanceAsOf(ctx context.Context, accountID uuid.UUID, asOf time.Time) (valueobject.Money, error) {
	args := m.Called(ctx, accountID, asOf)
	return args.Get(0).(valueobject.Money), args.Error(1)
}

func (m *MockEventRepository) Save(ctx context.Context, e *payment.PaymentEvent) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockEventRepository) NextNumber(ctx context.Context, direction payment.Direction, year int) (string, error) {
	args := m.Called(ctx, direction, year)
	return args.String(0), args.Error(1)
}

var _ payment.EventRepository = (*MockEventRepository)(nil)

// MockCategoryRepository is a mock implementation of payment.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.CounterpartyCategory, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CounterpartyCategory), args.Error(1)
}

func (m *MockCategoryRepository) FindByName(ctx context.Context, name string) (*payment.CounterpartyCategory, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CounterpartyCategory), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]payment.CounterpartyCategory, error) {
	args := m.Called(ctx)
	return args.Get(0).([]payment.CounterpartyCategory), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, c *payment.CounterpartyCategory) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

var _ payment.CategoryRepository = (*MockCategoryRepository)(nil)

// =============================================================================
// Test Helper Functions
// =============================================================================

func testDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// approvedApplication builds a submitted application over a single item.
func approvedApplication(customerID uuid.UUID, txDate time.Time, total, down, monthly int64, months int) *installment.InstallmentApplication {
	item, _ := installment.NewLineItem(
		"", "Television", decimal.NewFromInt(1),
		valueobject.NewMoneyFromInt(total), "", nil)
	ia, _ := installment.NewInstallmentApplication(
		"APP-2025-00001", customerID, txDate, txDate, 15,
		[]installment.LineItem{*item},
		valueobject.NewMoneyFromInt(down), valueobject.NewMoneyFromInt(monthly), months)
	_ = ia.Approve()
	return ia
}

func contractFor(ia *installment.InstallmentApplication, number string) *installment.Contract {
	lines, _ := installment.BuildSchedule(
		ia.StartDate, ia.MonthlyPaymentDay, ia.InstallmentMonths,
		ia.DownpaymentAmount, ia.MonthlyPayment)
	c, _ := installment.NewContractFromApplication(number, ia, lines)
	return c
}

// submittedEvent builds a submitted payment event, optionally contract-linked.
func submittedEvent(direction payment.Direction, partyType payment.PartyType, partyID uuid.UUID, amount int64, categoryID uuid.UUID, contractID *uuid.UUID) payment.PaymentEvent {
	e, _ := payment.NewPaymentEvent(
		payment.FormatNumber(direction, 2025, int(amount)%1000),
		direction, partyType, partyID,
		testDate(2025, time.February, 1),
		valueobject.NewMoneyFromInt(amount), "Cash", uuid.New(), categoryID)
	if contractID != nil {
		_ = e.LinkContract(*contractID)
	}
	_ = e.Submit()
	return *e
}

// =============================================================================
// IntelligenceService Tests
// =============================================================================

func TestIntelligenceService_Compute(t *testing.T) {
	customers := new(MockCustomerRepository)
	apps := new(MockApplicationRepository)
	contracts := new(MockContractRepository)
	events := new(MockEventRepository)
	categories := new(MockCategoryRepository)
	svc := NewIntelligenceService(customers, apps, contracts, events, categories, zap.NewNop())
	ctx := context.Background()

	custA, _ := partner.NewCustomer("CUST-001", "Aziz Karimov", "")
	custC, _ := partner.NewCustomer("CUST-002", "Bekzod Rahimov", "")
	_, _ = custC.Reclassify(partner.ClassificationC, 45)

	// 1 200 item, 200 down, 10 x 110: grand 1 300, interest 100
	appA := approvedApplication(custA.ID, testDate(2025, time.January, 10), 1200, 200, 110, 10)
	// 600 item, 100 down, 5 x 110: grand 650, interest 50
	appC := approvedApplication(custC.ID, testDate(2025, time.February, 5), 600, 100, 110, 5)
	contractA := contractFor(appA, "CTR-2025-00001")

	overhead, _ := payment.NewCounterpartyCategory(payment.CategoryNameOverhead, payment.CategoryTypeExpense, "Administrative")
	capital, _ := payment.NewCounterpartyCategory(payment.CategoryNameCapital, payment.CategoryTypeIncome, "")
	installmentCat, _ := payment.NewCounterpartyCategory(payment.CategoryNameInstallment, payment.CategoryTypeIncome, "")

	shareholderID := uuid.New()
	supplierID := uuid.New()
	eventList := []payment.PaymentEvent{
		submittedEvent(payment.DirectionReceive, payment.PartyTypeCustomer, custA.ID, 310, installmentCat.ID, &contractA.ID),
		submittedEvent(payment.DirectionReceive, payment.PartyTypeShareholder, shareholderID, 5000, capital.ID, nil),
		submittedEvent(payment.DirectionPay, payment.PartyTypeShareholder, shareholderID, 1000, capital.ID, nil),
		submittedEvent(payment.DirectionPay, payment.PartyTypeSupplier, supplierID, 100, overhead.ID, nil),
		submittedEvent(payment.DirectionReceive, payment.PartyTypeSupplier, supplierID, 50, overhead.ID, nil),
	}

	apps.On("FindSubmitted", mock.Anything).Return([]installment.InstallmentApplication{*appA, *appC}, nil)
	contracts.On("FindAll", mock.Anything).Return([]installment.Contract{*contractA}, nil)
	events.On("FindSubmittedBetween", mock.Anything, mock.Anything, mock.Anything).Return(eventList, nil)
	categories.On("FindAll", mock.Anything).Return([]payment.CounterpartyCategory{*overhead, *capital, *installmentCat}, nil)
	customers.On("FindAll", mock.Anything).Return([]partner.Customer{*custA, *custC}, nil)

	resp, err := svc.Compute(ctx)

	assert.NoError(t, err)
	assert.NotNil(t, resp)

	assert.Equal(t, 2, resp.KPIs.TotalContracts)
	assert.Equal(t, 1, resp.KPIs.ActiveContracts)
	assert.Equal(t, 0, resp.KPIs.ClosedContracts)
	assert.True(t, resp.KPIs.InvestedCapital.Equal(decimal.NewFromInt(4000)))
	assert.True(t, resp.KPIs.TotalInterest.Equal(decimal.NewFromInt(150)))
	// 100 overhead pay minus the 50 refund
	assert.True(t, resp.KPIs.TotalExpenses.Equal(decimal.NewFromInt(50)))
	assert.True(t, resp.KPIs.NetProfit.Equal(decimal.NewFromInt(100)))
	// 100 / 4000 * 100
	assert.True(t, resp.ROIPercentage.Equal(decimal.NewFromFloat(2.5)))

	assert.True(t, resp.KPIs.TotalDebt.Equal(decimal.NewFromInt(1640)))
	assert.True(t, resp.KPIs.DebtA.Equal(decimal.NewFromInt(990)))
	assert.True(t, resp.KPIs.DebtB.Equal(decimal.Zero))
	assert.True(t, resp.KPIs.DebtC.Equal(decimal.NewFromInt(650)))
	assert.True(t, resp.KPIs.DebtUnclassified.Equal(decimal.Zero))

	if assert.Len(t, resp.Tiers["A"], 1) {
		row := resp.Tiers["A"][0]
		assert.Equal(t, custA.ID, row.CustomerID)
		assert.Equal(t, "Aziz Karimov", row.CustomerName)
		assert.True(t, row.TotalBilled.Equal(decimal.NewFromInt(1300)))
		assert.True(t, row.NetPaid.Equal(decimal.NewFromInt(310)))
		assert.True(t, row.TotalDebt.Equal(decimal.NewFromInt(990)))
		assert.Equal(t, 1, row.ContractCount)
	}
	assert.Len(t, resp.Tiers["C"], 1)
	assert.Empty(t, resp.Tiers["B"])
	assert.Empty(t, resp.Tiers[TierUnclassified])

	// The tier debts are folds of the same rows the tables show, so the
	// buckets must add back up to the headline figure.
	tierSum := resp.KPIs.DebtA.Add(resp.KPIs.DebtB).Add(resp.KPIs.DebtC).Add(resp.KPIs.DebtUnclassified)
	assert.True(t, tierSum.Equal(resp.KPIs.TotalDebt))
}

func TestIntelligenceService_Compute_UnknownCustomerGoesUnclassified(t *testing.T) {
	customers := new(MockCustomerRepository)
	apps := new(MockApplicationRepository)
	contracts := new(MockContractRepository)
	events := new(MockEventRepository)
	categories := new(MockCategoryRepository)
	svc := NewIntelligenceService(customers, apps, contracts, events, categories, zap.NewNop())
	ctx := context.Background()

	custPaid, _ := partner.NewCustomer("CUST-001", "Aziz Karimov", "")
	unknownID := uuid.New()

	appUnknown := approvedApplication(unknownID, testDate(2025, time.January, 10), 600, 100, 110, 5)
	appPaid := approvedApplication(custPaid.ID, testDate(2025, time.January, 12), 600, 100, 110, 5)
	contractPaid := contractFor(appPaid, "CTR-2025-00002")
	installmentCat, _ := payment.NewCounterpartyCategory(payment.CategoryNameInstallment, payment.CategoryTypeIncome, "")

	apps.On("FindSubmitted", mock.Anything).Return([]installment.InstallmentApplication{*appUnknown, *appPaid}, nil)
	contracts.On("FindAll", mock.Anything).Return([]installment.Contract{*contractPaid}, nil)
	events.On("FindSubmittedBetween", mock.Anything, mock.Anything, mock.Anything).Return([]payment.PaymentEvent{
		// settles appPaid in full
		submittedEvent(payment.DirectionReceive, payment.PartyTypeCustomer, custPaid.ID, 650, installmentCat.ID, &contractPaid.ID),
	}, nil)
	categories.On("FindAll", mock.Anything).Return([]payment.CounterpartyCategory{*installmentCat}, nil)
	customers.On("FindAll", mock.Anything).Return([]partner.Customer{*custPaid}, nil)

	resp, err := svc.Compute(ctx)

	assert.NoError(t, err)
	if assert.Len(t, resp.Tiers[TierUnclassified], 1) {
		row := resp.Tiers[TierUnclassified][0]
		assert.Equal(t, unknownID, row.CustomerID)
		assert.Equal(t, TierUnclassified, row.Classification)
		assert.True(t, row.TotalDebt.Equal(decimal.NewFromInt(650)))
	}
	// Fully settled customers carry no receivable row.
	assert.Empty(t, resp.Tiers["A"])
	assert.True(t, resp.KPIs.TotalDebt.Equal(decimal.NewFromInt(650)))
	assert.True(t, resp.KPIs.DebtUnclassified.Equal(decimal.NewFromInt(650)))
}
