package payment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"

	partnerapp "github.com/cashflow/backend/internal/application/partner"
	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/cashflow/backend/internal/infrastructure/cache"
)

// =============================================================================
// Mock Repositories
// =============================================================================

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

// MockAccountRepository is a mock implementation of payment.AccountRepository
type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.CashAccount, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CashAccount), args.Error(1)
}

func (m *MockAccountRepository) FindByCode(ctx context.Context, code string) (*payment.CashAccount, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.CashAccount), args.Error(1)
}

func (m *MockAccountRepository) FindAll(ctx context.Context) ([]payment.CashAccount, error) {
	args := m.Called(ctx)
	return args.Get(0).([]payment.CashAccount), args.Error(1)
}

func (m *MockAccountRepository) Save(ctx context.Context, a *payment.CashAccount) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

var _ payment.AccountRepository = (*MockAccountRepository)(nil)

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

// MockSupplierRepository is a mock implementation of partner.SupplierRepository
type MockSupplierRepository struct {
	mock.Mock
}

func (m *MockSupplierRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Supplier, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindByCode(ctx context.Context, code string) (*partner.Supplier, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) FindAll(ctx context.Context) ([]partner.Supplier, error) {
	args := m.Called(ctx)
	return args.Get(0).([]partner.Supplier), args.Error(1)
}

func (m *MockSupplierRepository) Save(ctx context.Context, supplier *partner.Supplier) error {
	args := m.Called(ctx, supplier)
	return args.Error(0)
}

var _ partner.SupplierRepository = (*MockSupplierRepository)(nil)

// stubLocker hands out no-op releases and counts acquisitions
type stubLocker struct {
	acquired int
}

func (l *stubLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.acquired++
	return func() {}, nil
}

// recordingInvalidator counts dashboard cache invalidations
type recordingInvalidator struct {
	calls int
}

func (r *recordingInvalidator) Invalidate(ctx context.Context) {
	r.calls++
}

// =============================================================================
// Test Helper Functions
// =============================================================================

type linkerFixture struct {
	events      *MockEventRepository
	categories  *MockCategoryRepository
	accounts    *MockAccountRepository
	contracts   *MockContractRepository
	customers   *MockCustomerRepository
	suppliers   *MockSupplierRepository
	apps        *MockApplicationRepository
	locker      *stubLocker
	invalidator *recordingInvalidator
	idem        *cache.InMemoryIdempotencyStore
	svc         *LinkerService
}

func newLinkerFixture(t *testing.T) *linkerFixture {
	f := &linkerFixture{
		events:      new(MockEventRepository),
		categories:  new(MockCategoryRepository),
		accounts:    new(MockAccountRepository),
		contracts:   new(MockContractRepository),
		customers:   new(MockCustomerRepository),
		suppliers:   new(MockSupplierRepository),
		apps:        new(MockApplicationRepository),
		locker:      &stubLocker{},
		invalidator: &recordingInvalidator{},
		idem:        cache.NewInMemoryIdempotencyStore(),
	}
	t.Cleanup(func() { _ = f.idem.Close() })

	debtSvc := partnerapp.NewDebtService(
		f.customers, f.suppliers, f.apps, f.contracts, f.events, zap.NewNop())

	f.svc = NewLinkerService(
		f.events, f.categories, f.accounts, f.contracts, f.customers,
		debtSvc, f.idem, f.locker, zap.NewNop(),
		WithDashboardInvalidator(f.invalidator))
	return f
}

// expectCustomerAfterWrite wires the happy-path mocks for the post-write
// debt recompute and reclassification of a customer with no documents.
func (f *linkerFixture) expectCustomerAfterWrite(customer *partner.Customer) {
	f.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.apps.On("FindByCustomer", mock.Anything, customer.ID).Return([]installment.InstallmentApplication{}, nil)
	f.events.On("FindSubmittedByParty", mock.Anything, payment.PartyTypeCustomer, customer.ID).Return([]payment.PaymentEvent{}, nil)
	f.contracts.On("FindByCustomer", mock.Anything, customer.ID).Return([]installment.Contract{}, nil)
	f.customers.On("Save", mock.Anything, customer).Return(nil)
}

func testDate(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func createTestCustomer() *partner.Customer {
	customer, _ := partner.NewCustomer("CUST-001", "Aziz Karimov", "+998901234567")
	return customer
}

// createTestContract builds a contract over a 1 200 purchase: 200 down,
// 10 months of 110, grand total 1 300 with 100 interest.
func createTestContract(customerID uuid.UUID) *installment.Contract {
	item, _ := installment.NewLineItem(
		"PHONE-01", "Smartphone", decimal.NewFromInt(1),
		valueobject.NewMoneyFromInt(1200), "SN-1001", nil)
	ia, _ := installment.NewInstallmentApplication(
		"APP-2025-00001", customerID,
		testDate(2025, time.January, 10), testDate(2025, time.January, 10),
		15, []installment.LineItem{*item},
		valueobject.NewMoneyFromInt(200), valueobject.NewMoneyFromInt(110), 10)
	lines, _ := installment.BuildSchedule(
		ia.StartDate, ia.MonthlyPaymentDay, ia.InstallmentMonths,
		ia.DownpaymentAmount, ia.MonthlyPayment)
	contract, _ := installment.NewContractFromApplication("CTR-2025-00001", ia, lines)
	return contract
}

func createIncomeCategory() *payment.CounterpartyCategory {
	category, _ := payment.NewCounterpartyCategory(payment.CategoryNameInstallment, payment.CategoryTypeIncome, "")
	return category
}

func createExpenseCategory() *payment.CounterpartyCategory {
	category, _ := payment.NewCounterpartyCategory(payment.CategoryNameProcurement, payment.CategoryTypeExpense, "Procurement")
	return category
}

func createTestAccount() *payment.CashAccount {
	account, _ := payment.NewCashAccount("CASH-01", "Main Till")
	return account
}

func createDraftReceive(contract *installment.Contract, amount int64, accountID, categoryID uuid.UUID) *payment.PaymentEvent {
	e, _ := payment.NewPaymentEvent(
		"CIN-2025-00007", payment.DirectionReceive, payment.PartyTypeCustomer,
		contract.CustomerID, testDate(2025, time.February, 1),
		valueobject.NewMoneyFromInt(amount), "Cash", accountID, categoryID)
	_ = e.LinkContract(contract.ID)
	return e
}

// =============================================================================
// CreateEvent Tests
// =============================================================================

func TestLinkerService_CreateEvent_AutoLinksLatestOpenContract(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	contract := createTestContract(customer.ID)
	category := createIncomeCategory()
	account := createTestAccount()

	f.events.On("NextNumber", mock.Anything, payment.DirectionReceive, 2025).Return("CIN-2025-00001", nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.contracts.On("FindLatestOpenByCustomer", mock.Anything, customer.ID).Return(contract, nil)
	f.events.On("Save", mock.Anything, mock.AnythingOfType("*payment.PaymentEvent")).Return(nil)

	resp, err := f.svc.CreateEvent(ctx, CreateEventRequest{
		Direction:     "RECEIVE",
		PartyType:     "CUSTOMER",
		PartyID:       customer.ID,
		PostingDate:   testDate(2025, time.February, 1),
		Amount:        decimal.NewFromInt(110),
		ModeOfPayment: "Cash",
		AccountID:     account.ID,
		CategoryID:    category.ID,
	})

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, "CIN-2025-00001", resp.Number)
	assert.Equal(t, "DRAFT", resp.State)
	if assert.NotNil(t, resp.ContractID) {
		assert.Equal(t, contract.ID, *resp.ContractID)
	}
	// The first unsettled row is the downpayment; it is stamped informationally.
	if assert.NotNil(t, resp.ScheduleRowIdx) {
		assert.Equal(t, 0, *resp.ScheduleRowIdx)
	}
	assert.Equal(t, "Downpayment", resp.PaymentMonth)
	f.events.AssertExpectations(t)
	f.contracts.AssertExpectations(t)
}

func TestLinkerService_CreateEvent_RejectsCategoryDirectionMismatch(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	category := createExpenseCategory()
	account := createTestAccount()

	f.events.On("NextNumber", mock.Anything, payment.DirectionReceive, 2025).Return("CIN-2025-00002", nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)

	resp, err := f.svc.CreateEvent(ctx, CreateEventRequest{
		Direction:   "RECEIVE",
		PartyType:   "CUSTOMER",
		PartyID:     customer.ID,
		PostingDate: testDate(2025, time.February, 1),
		Amount:      decimal.NewFromInt(50),
		AccountID:   account.ID,
		CategoryID:  category.ID,
	})

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, shared.ErrCategoryMismatch)
	f.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLinkerService_CreateEvent_RejectsForeignContract(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	owner := createTestCustomer()
	other := createTestCustomer()
	contract := createTestContract(owner.ID)
	category := createIncomeCategory()
	account := createTestAccount()

	f.events.On("NextNumber", mock.Anything, payment.DirectionReceive, 2025).Return("CIN-2025-00003", nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)

	resp, err := f.svc.CreateEvent(ctx, CreateEventRequest{
		Direction:   "RECEIVE",
		PartyType:   "CUSTOMER",
		PartyID:     other.ID,
		PostingDate: testDate(2025, time.February, 1),
		Amount:      decimal.NewFromInt(110),
		AccountID:   account.ID,
		CategoryID:  category.ID,
		ContractID:  &contract.ID,
	})

	assert.Nil(t, resp)
	var derr *shared.DomainError
	assert.ErrorAs(t, err, &derr)
	assert.Equal(t, "CUSTOMER_MISMATCH", derr.Code)
}

func TestLinkerService_CreateEvent_NoOpenContract(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	category := createIncomeCategory()
	account := createTestAccount()

	f.events.On("NextNumber", mock.Anything, payment.DirectionReceive, 2025).Return("CIN-2025-00004", nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.contracts.On("FindLatestOpenByCustomer", mock.Anything, customer.ID).Return(nil, shared.ErrNotFound)

	resp, err := f.svc.CreateEvent(ctx, CreateEventRequest{
		Direction:   "RECEIVE",
		PartyType:   "CUSTOMER",
		PartyID:     customer.ID,
		PostingDate: testDate(2025, time.February, 1),
		Amount:      decimal.NewFromInt(110),
		AccountID:   account.ID,
		CategoryID:  category.ID,
	})

	assert.Nil(t, resp)
	var derr *shared.DomainError
	assert.ErrorAs(t, err, &derr)
	assert.Equal(t, "NO_OPEN_CONTRACT", derr.Code)
}

// =============================================================================
// Submit Tests
// =============================================================================

func TestLinkerService_Submit_ReconcilesScheduleFIFO(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	contract := createTestContract(customer.ID)
	category := createIncomeCategory()
	account := createTestAccount()
	// 310 settles the 200 downpayment and the first 110 installment exactly.
	e := createDraftReceive(contract, 310, account.ID, category.ID)

	f.events.On("FindByID", mock.Anything, e.ID).Return(e, nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
	f.events.On("SumSubmittedByContract", mock.Anything, contract.ID, e.ID).Return(valueobject.Zero(), nil)
	f.contracts.On("Save", mock.Anything, contract).Return(nil)
	f.events.On("Save", mock.Anything, e).Return(nil)
	f.expectCustomerAfterWrite(customer)

	resp, err := f.svc.Submit(ctx, e.ID)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.True(t, resp.Applied.Equal(decimal.NewFromInt(310)), "applied = %s", resp.Applied)
	assert.True(t, resp.Surplus.IsZero())
	assert.Equal(t, payment.EventStateSubmitted, e.State)

	assert.True(t, contract.Schedule[0].IsSettled())
	assert.True(t, contract.Schedule[1].IsSettled())
	assert.True(t, contract.Schedule[2].PaidAmount.IsZero())
	assert.True(t, contract.AdvancePaid.Amount().Equal(decimal.NewFromInt(310)))

	// Next due moves past the two settled rows onto Month 2.
	if assert.NotNil(t, resp.NextPaymentDate) {
		assert.Equal(t, testDate(2025, time.March, 15), *resp.NextPaymentDate)
	}
	assert.True(t, resp.NextPaymentAmount.Equal(decimal.NewFromInt(110)))
	if assert.NotNil(t, e.ScheduleRowIdx) {
		assert.Equal(t, 0, *e.ScheduleRowIdx)
	}
	assert.Equal(t, 1, f.locker.acquired)
	assert.Equal(t, 1, f.invalidator.calls)
	f.events.AssertExpectations(t)
	f.contracts.AssertExpectations(t)
}

func TestLinkerService_Submit_SkipsAlreadyAppliedEvent(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	contract := createTestContract(customer.ID)
	category := createIncomeCategory()
	account := createTestAccount()
	e := createDraftReceive(contract, 310, account.ID, category.ID)

	// Marker left behind by an earlier application that crashed before saving.
	fresh, err := f.idem.MarkProcessed(ctx, e.ID.String(), time.Hour)
	assert.NoError(t, err)
	assert.True(t, fresh)

	f.events.On("FindByID", mock.Anything, e.ID).Return(e, nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
	f.events.On("Save", mock.Anything, e).Return(nil)
	f.expectCustomerAfterWrite(customer)

	resp, err := f.svc.Submit(ctx, e.ID)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, payment.EventStateSubmitted, e.State)
	// The schedule was not touched a second time.
	assert.True(t, resp.Applied.IsZero())
	assert.True(t, contract.Schedule[0].PaidAmount.IsZero())
	assert.True(t, contract.AdvancePaid.IsZero())
	f.events.AssertNotCalled(t, "SumSubmittedByContract", mock.Anything, mock.Anything, mock.Anything)
	f.contracts.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLinkerService_Submit_SurplusLeftUnallocated(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	contract := createTestContract(customer.ID)
	category := createIncomeCategory()
	account := createTestAccount()
	// 2 000 against a 1 300 grand total: 700 has nowhere to go.
	e := createDraftReceive(contract, 2000, account.ID, category.ID)

	f.events.On("FindByID", mock.Anything, e.ID).Return(e, nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
	f.events.On("SumSubmittedByContract", mock.Anything, contract.ID, e.ID).Return(valueobject.Zero(), nil)
	f.contracts.On("Save", mock.Anything, contract).Return(nil)
	f.events.On("Save", mock.Anything, e).Return(nil)
	f.expectCustomerAfterWrite(customer)

	resp, err := f.svc.Submit(ctx, e.ID)

	assert.NoError(t, err)
	assert.True(t, resp.Applied.Equal(decimal.NewFromInt(1300)))
	assert.True(t, resp.Surplus.Equal(decimal.NewFromInt(700)))
	assert.Equal(t, string(installment.ContractStatusCompleted), resp.ContractStatus)
	assert.Nil(t, resp.NextPaymentDate)
	assert.True(t, contract.UnallocatedAmount.Amount().Equal(decimal.NewFromInt(700)))

	// The surplus lives only in UnallocatedAmount: the advance stays clamped
	// at the grand total and keeps matching the schedule's paid amounts.
	assert.True(t, contract.AdvancePaid.Amount().Equal(decimal.NewFromInt(1300)),
		"advance = %s", contract.AdvancePaid)
	assert.True(t, contract.AdvancePaid.Amount().Equal(contract.ScheduledPaidTotal().Amount()))
}

func TestLinkerService_Submit_InsufficientBalance(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	supplier, _ := partner.NewSupplier("SUP-001", "Tashkent Electronics")
	category := createExpenseCategory()
	account := createTestAccount()
	e, _ := payment.NewPaymentEvent(
		"COUT-2025-00001", payment.DirectionPay, payment.PartyTypeSupplier,
		supplier.ID, testDate(2025, time.February, 1),
		valueobject.NewMoneyFromInt(100), "Cash", account.ID, category.ID)

	f.events.On("FindByID", mock.Anything, e.ID).Return(e, nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.events.On("AccountBalanceAsOf", mock.Anything, account.ID, e.PostingDate).
		Return(valueobject.NewMoneyFromFloat(99.99), nil)

	resp, err := f.svc.Submit(ctx, e.ID)

	assert.Nil(t, resp)
	assert.ErrorIs(t, err, shared.ErrInsufficientBalance)
	assert.Equal(t, payment.EventStateDraft, e.State)
	f.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestLinkerService_Submit_PaysOutWhenBalanceCovers(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	supplier, _ := partner.NewSupplier("SUP-001", "Tashkent Electronics")
	category := createExpenseCategory()
	account := createTestAccount()
	e, _ := payment.NewPaymentEvent(
		"COUT-2025-00002", payment.DirectionPay, payment.PartyTypeSupplier,
		supplier.ID, testDate(2025, time.February, 1),
		valueobject.NewMoneyFromInt(100), "Cash", account.ID, category.ID)

	f.events.On("FindByID", mock.Anything, e.ID).Return(e, nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	// A balance exactly equal to the amount passes the guard.
	f.events.On("AccountBalanceAsOf", mock.Anything, account.ID, e.PostingDate).
		Return(valueobject.NewMoneyFromInt(100), nil)
	f.events.On("Save", mock.Anything, e).Return(nil)
	f.suppliers.On("FindByID", mock.Anything, supplier.ID).Return(supplier, nil)
	f.apps.On("FindSubmitted", mock.Anything).Return([]installment.InstallmentApplication{}, nil)
	f.events.On("FindSubmittedByParty", mock.Anything, payment.PartyTypeSupplier, supplier.ID).
		Return([]payment.PaymentEvent{}, nil)
	f.suppliers.On("Save", mock.Anything, supplier).Return(nil)

	resp, err := f.svc.Submit(ctx, e.ID)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, payment.EventStateSubmitted, e.State)
	assert.True(t, resp.Applied.IsZero())
	assert.Equal(t, 1, f.invalidator.calls)
	f.suppliers.AssertExpectations(t)
}

// =============================================================================
// Cancel Tests
// =============================================================================

func TestLinkerService_SubmitThenCancel_RestoresSchedule(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	contract := createTestContract(customer.ID)
	category := createIncomeCategory()
	account := createTestAccount()
	e := createDraftReceive(contract, 310, account.ID, category.ID)

	f.events.On("FindByID", mock.Anything, e.ID).Return(e, nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
	f.events.On("SumSubmittedByContract", mock.Anything, contract.ID, e.ID).Return(valueobject.Zero(), nil)
	f.contracts.On("Save", mock.Anything, contract).Return(nil)
	f.events.On("Save", mock.Anything, e).Return(nil)
	f.expectCustomerAfterWrite(customer)

	_, err := f.svc.Submit(ctx, e.ID)
	assert.NoError(t, err)
	assert.False(t, contract.AdvancePaid.IsZero())

	resp, err := f.svc.Cancel(ctx, e.ID)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Equal(t, payment.EventStateCancelled, e.State)
	assert.True(t, contract.Schedule[0].PaidAmount.IsZero())
	assert.True(t, contract.Schedule[1].PaidAmount.IsZero())
	assert.True(t, contract.AdvancePaid.IsZero())

	// Next due rolls back to the downpayment row.
	if assert.NotNil(t, resp.NextPaymentDate) {
		assert.Equal(t, testDate(2025, time.January, 10), *resp.NextPaymentDate)
	}
	assert.True(t, resp.NextPaymentAmount.Equal(decimal.NewFromInt(200)))

	// The idempotency marker is cleared so a replacement event can apply.
	processed, err := f.idem.IsProcessed(ctx, e.ID.String())
	assert.NoError(t, err)
	assert.False(t, processed)
	assert.Equal(t, 2, f.invalidator.calls)
}

func TestLinkerService_Cancel_OverpaidContractKeepsAdvanceClamped(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	contract := createTestContract(customer.ID)
	category := createIncomeCategory()
	account := createTestAccount()
	// 2 000 settles the whole 1 300 schedule; the 310 on top is pure surplus.
	overpay := createDraftReceive(contract, 2000, account.ID, category.ID)
	extra := createDraftReceive(contract, 310, account.ID, category.ID)

	f.events.On("FindByID", mock.Anything, overpay.ID).Return(overpay, nil)
	f.events.On("FindByID", mock.Anything, extra.ID).Return(extra, nil)
	f.categories.On("FindByID", mock.Anything, category.ID).Return(category, nil)
	f.accounts.On("FindByID", mock.Anything, account.ID).Return(account, nil)
	f.contracts.On("FindByID", mock.Anything, contract.ID).Return(contract, nil)
	f.events.On("SumSubmittedByContract", mock.Anything, contract.ID, overpay.ID).
		Return(valueobject.Zero(), nil)
	f.events.On("SumSubmittedByContract", mock.Anything, contract.ID, extra.ID).
		Return(valueobject.NewMoneyFromInt(2000), nil)
	f.contracts.On("Save", mock.Anything, contract).Return(nil)
	f.events.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.expectCustomerAfterWrite(customer)

	_, err := f.svc.Submit(ctx, overpay.ID)
	assert.NoError(t, err)
	_, err = f.svc.Submit(ctx, extra.ID)
	assert.NoError(t, err)
	assert.True(t, contract.UnallocatedAmount.Amount().Equal(decimal.NewFromInt(1010)))

	resp, err := f.svc.Cancel(ctx, extra.ID)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	// The reversal drains the surplus only; the rows stay settled, and the
	// advance recomputed from the remaining 2 000 submitted stays clamped at
	// the schedule's paid total.
	assert.True(t, contract.UnallocatedAmount.Amount().Equal(decimal.NewFromInt(700)))
	assert.True(t, contract.AdvancePaid.Amount().Equal(decimal.NewFromInt(1300)),
		"advance = %s", contract.AdvancePaid)
	assert.True(t, contract.AdvancePaid.Amount().Equal(contract.ScheduledPaidTotal().Amount()))
	assert.Equal(t, string(installment.ContractStatusCompleted), resp.ContractStatus)
}

func TestLinkerService_Cancel_RejectsDraftEvent(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	contract := createTestContract(customer.ID)
	category := createIncomeCategory()
	account := createTestAccount()
	e := createDraftReceive(contract, 110, account.ID, category.ID)

	f.events.On("FindByID", mock.Anything, e.ID).Return(e, nil)

	resp, err := f.svc.Cancel(ctx, e.ID)

	assert.Nil(t, resp)
	var derr *shared.DomainError
	assert.ErrorAs(t, err, &derr)
	assert.Equal(t, "INVALID_STATE", derr.Code)
	f.events.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

// =============================================================================
// OverdueNotice Tests
// =============================================================================

func TestLinkerService_OverdueNotice_ListsWorstRowsFirst(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()
	contract := createTestContract(customer.ID)
	// Pin the contract inside the one-year lookback window.
	contract.TransactionDate = time.Now().AddDate(0, -6, 0)
	for i := range contract.Schedule {
		contract.Schedule[i].DueDate = time.Now().AddDate(0, 0, -(60 - i*10))
	}

	f.contracts.On("FindByCustomer", mock.Anything, customer.ID).
		Return([]installment.Contract{*contract}, nil)

	resp, err := f.svc.OverdueNotice(ctx, customer.ID)

	assert.NoError(t, err)
	assert.NotNil(t, resp)
	assert.Len(t, resp.Rows, 5, "notice is capped at five rows")
	assert.NotEmpty(t, resp.Message)
	for i := 1; i < len(resp.Rows); i++ {
		assert.False(t, resp.Rows[i].DueDate.Before(resp.Rows[i-1].DueDate))
	}
}

func TestLinkerService_OverdueNotice_EmptyWhenNothingOverdue(t *testing.T) {
	f := newLinkerFixture(t)
	ctx := context.Background()

	customer := createTestCustomer()

	f.contracts.On("FindByCustomer", mock.Anything, customer.ID).
		Return([]installment.Contract{}, nil)

	resp, err := f.svc.OverdueNotice(ctx, customer.ID)

	assert.NoError(t, err)
	assert.Empty(t, resp.Rows)
	assert.Empty(t, resp.Message)
}
