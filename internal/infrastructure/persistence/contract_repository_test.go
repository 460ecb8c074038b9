package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/cashflow/backend/internal/infrastructure/persistence/models"
)

// setupContractDB creates an in-memory SQLite database with the contract schema
func setupContractDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.ContractModel{},
		&models.ContractItemModel{},
		&models.ContractScheduleRowModel{},
	)
	require.NoError(t, err)

	return db
}

// buildContract materializes a contract over a 1 200 item with 200 down and
// 10 monthly payments of 110.
func buildContract(t *testing.T, customerID uuid.UUID, number, serialNo string, txDate time.Time) *installment.Contract {
	item, err := installment.NewLineItem(
		"TV-02", "Television", decimal.NewFromInt(1),
		valueobject.NewMoneyFromInt(1200), serialNo, nil)
	require.NoError(t, err)

	ia, err := installment.NewInstallmentApplication(
		"APP-"+number, customerID, txDate, txDate, 15,
		[]installment.LineItem{*item},
		valueobject.NewMoneyFromInt(200), valueobject.NewMoneyFromInt(110), 10)
	require.NoError(t, err)
	require.NoError(t, ia.Approve())

	lines, err := installment.BuildSchedule(
		ia.StartDate, ia.MonthlyPaymentDay, ia.InstallmentMonths,
		ia.DownpaymentAmount, ia.MonthlyPayment)
	require.NoError(t, err)

	contract, err := installment.NewContractFromApplication(number, ia, lines)
	require.NoError(t, err)
	return contract
}

func TestGormContractRepository_SaveAndFindByID(t *testing.T) {
	repo := NewGormContractRepository(setupContractDB(t))
	ctx := context.Background()

	contract := buildContract(t, uuid.New(), "CTR-2025-00001", "SN-2001",
		time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, contract))

	found, err := repo.FindByID(ctx, contract.ID)

	require.NoError(t, err)
	assert.Equal(t, "CTR-2025-00001", found.Number)
	assert.Equal(t, installment.ContractStatusActive, found.Status)
	assert.True(t, found.GrandTotalWithInterest.Amount().Equal(decimal.NewFromInt(1300)))
	// mirrored item plus the interest line
	require.Len(t, found.Items, 2)
	assert.True(t, found.Items[1].IsInterest)
	// downpayment row plus ten monthly rows, idx ascending
	require.Len(t, found.Schedule, 11)
	for i := range found.Schedule {
		assert.Equal(t, i, found.Schedule[i].Idx)
	}
	assert.True(t, found.Outstanding().Amount().Equal(decimal.NewFromInt(1300)))
}

func TestGormContractRepository_SaveReplacesChildRows(t *testing.T) {
	repo := NewGormContractRepository(setupContractDB(t))
	ctx := context.Background()

	contract := buildContract(t, uuid.New(), "CTR-2025-00001", "SN-2001",
		time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, contract))

	// reconcile a 310 receipt and persist the rewritten schedule
	_, err := contract.ApplyPayment(valueobject.NewMoneyFromInt(310))
	require.NoError(t, err)
	contract.SetAdvancePaid(valueobject.NewMoneyFromInt(310))
	require.NoError(t, repo.Save(ctx, contract))

	found, err := repo.FindByID(ctx, contract.ID)

	require.NoError(t, err)
	require.Len(t, found.Schedule, 11)
	assert.True(t, found.Schedule[0].PaidAmount.Amount().Equal(decimal.NewFromInt(200)))
	assert.True(t, found.Schedule[1].PaidAmount.Amount().Equal(decimal.NewFromInt(110)))
	assert.True(t, found.Schedule[2].PaidAmount.IsZero())
	assert.True(t, found.AdvancePaid.Amount().Equal(decimal.NewFromInt(310)))
	assert.True(t, found.Outstanding().Amount().Equal(decimal.NewFromInt(990)))
}

func TestGormContractRepository_FindByNumber(t *testing.T) {
	repo := NewGormContractRepository(setupContractDB(t))
	ctx := context.Background()

	contract := buildContract(t, uuid.New(), "CTR-2025-00001", "SN-2001",
		time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, contract))

	found, err := repo.FindByNumber(ctx, "CTR-2025-00001")
	require.NoError(t, err)
	assert.Equal(t, contract.ID, found.ID)

	_, err = repo.FindByNumber(ctx, "CTR-2025-99999")
	assert.Equal(t, shared.ErrNotFound, err)
}

func TestGormContractRepository_FindLatestOpenByCustomer(t *testing.T) {
	repo := NewGormContractRepository(setupContractDB(t))
	ctx := context.Background()
	customerID := uuid.New()

	older := buildContract(t, customerID, "CTR-2025-00001", "SN-2001",
		time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	newer := buildContract(t, customerID, "CTR-2025-00002", "SN-2002",
		time.Date(2025, time.March, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, older))
	require.NoError(t, repo.Save(ctx, newer))

	found, err := repo.FindLatestOpenByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, "CTR-2025-00002", found.Number)

	// cancelling the newest uncovers the older open contract
	require.NoError(t, newer.Cancel())
	require.NoError(t, repo.Save(ctx, newer))

	found, err = repo.FindLatestOpenByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, "CTR-2025-00001", found.Number)

	_, err = repo.FindLatestOpenByCustomer(ctx, uuid.New())
	assert.Equal(t, shared.ErrNotFound, err)
}

func TestGormContractRepository_SearchBySerialNo(t *testing.T) {
	repo := NewGormContractRepository(setupContractDB(t))
	ctx := context.Background()

	first := buildContract(t, uuid.New(), "CTR-2025-00001", "SN-2001",
		time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
	second := buildContract(t, uuid.New(), "CTR-2025-00002", "SN-2002",
		time.Date(2025, time.February, 10, 0, 0, 0, 0, time.UTC))
	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	found, err := repo.SearchBySerialNo(ctx, "SN-2002")

	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "CTR-2025-00002", found[0].Number)

	none, err := repo.SearchBySerialNo(ctx, "SN-9999")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// Search relies on ILIKE, so it is exercised against a mocked Postgres
// connection rather than the SQLite harness above.
func TestGormContractRepository_Search(t *testing.T) {
	mockDB, dbmock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	repo := NewGormContractRepository(gormDB)

	contractID := uuid.New()
	now := time.Now()

	contractRows := sqlmock.NewRows([]string{
		"id", "created_at", "updated_at", "version",
		"number", "application_id", "customer_id", "transaction_date",
		"contract_type", "downpayment_amount", "total_interest",
		"grand_total_with_interest", "advance_paid", "unallocated_amount",
		"next_payment_date", "next_payment_amount", "status",
	}).AddRow(
		contractID, now, now, 1,
		"CTR-2025-00001", uuid.New(), uuid.New(), now,
		"Installment", decimal.NewFromInt(200), decimal.NewFromInt(100),
		decimal.NewFromInt(1300), decimal.Zero, decimal.Zero,
		nil, decimal.NewFromInt(200), "ACTIVE")

	dbmock.ExpectQuery(`SELECT \* FROM "installment_contracts" WHERE number ILIKE \$1 OR customer_id IN \(SELECT id FROM customers WHERE name ILIKE \$2\) OR id IN \(SELECT contract_id FROM installment_contract_items WHERE serial_no ILIKE \$3\) ORDER BY transaction_date DESC`).
		WithArgs("%Karimov%", "%Karimov%", "%Karimov%").
		WillReturnRows(contractRows)
	dbmock.ExpectQuery(`SELECT \* FROM "installment_contract_items" WHERE "installment_contract_items"\."contract_id" = \$1`).
		WithArgs(contractID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "contract_id"}))
	dbmock.ExpectQuery(`SELECT \* FROM "installment_schedule_rows" WHERE "installment_schedule_rows"\."contract_id" = \$1 ORDER BY idx ASC`).
		WithArgs(contractID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "contract_id"}))

	found, err := repo.Search(context.Background(), "Karimov")

	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "CTR-2025-00001", found[0].Number)
	assert.True(t, found[0].GrandTotalWithInterest.Amount().Equal(decimal.NewFromInt(1300)))
	assert.NoError(t, dbmock.ExpectationsWereMet())
}
