package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
)

// newMockPaymentEventRepository creates a GormPaymentEventRepository with a mocked SQL connection
func newMockPaymentEventRepository(t *testing.T) (*GormPaymentEventRepository, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return NewGormPaymentEventRepository(gormDB), mock, mockDB
}

func paymentEventColumns() []string {
	return []string{
		"id", "created_at", "updated_at", "version",
		"number", "direction", "party_type", "party_id", "posting_date",
		"amount", "mode_of_payment", "account_id", "category_id",
		"contract_id", "schedule_row_idx", "payment_month", "remarks", "state",
	}
}

func TestGormPaymentEventRepository_FindByID(t *testing.T) {
	t.Run("finds existing event", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		eventID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(paymentEventColumns()).
			AddRow(eventID, now, now, 1,
				"CIN-2025-00042", "RECEIVE", "CUSTOMER", uuid.New(), now,
				decimal.NewFromInt(310), "Cash", uuid.New(), uuid.New(),
				nil, nil, "", "", "SUBMITTED")

		mock.ExpectQuery(`SELECT \* FROM "payment_events" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(eventID, 1).
			WillReturnRows(rows)

		event, err := repo.FindByID(context.Background(), eventID)

		assert.NoError(t, err)
		assert.NotNil(t, event)
		assert.Equal(t, eventID, event.ID)
		assert.Equal(t, "CIN-2025-00042", event.Number)
		assert.Equal(t, payment.DirectionReceive, event.Direction)
		assert.Equal(t, payment.EventStateSubmitted, event.State)
		assert.True(t, event.Amount.Amount().Equal(decimal.NewFromInt(310)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing event", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		eventID := uuid.New()

		mock.ExpectQuery(`SELECT \* FROM "payment_events" WHERE id = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(eventID, 1).
			WillReturnError(gorm.ErrRecordNotFound)

		event, err := repo.FindByID(context.Background(), eventID)

		assert.Error(t, err)
		assert.Nil(t, event)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentEventRepository_FindByNumber(t *testing.T) {
	t.Run("finds event by document number", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		eventID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(paymentEventColumns()).
			AddRow(eventID, now, now, 1,
				"COUT-2025-00007", "PAY", "SUPPLIER", uuid.New(), now,
				decimal.NewFromInt(500), "Bank", uuid.New(), uuid.New(),
				nil, nil, "", "", "DRAFT")

		mock.ExpectQuery(`SELECT \* FROM "payment_events" WHERE number = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("COUT-2025-00007", 1).
			WillReturnRows(rows)

		event, err := repo.FindByNumber(context.Background(), "COUT-2025-00007")

		assert.NoError(t, err)
		assert.NotNil(t, event)
		assert.Equal(t, payment.DirectionPay, event.Direction)
		assert.Equal(t, payment.PartyTypeSupplier, event.PartyType)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentEventRepository_FindSubmittedByContract(t *testing.T) {
	t.Run("lists submitted events posting date ascending", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		contractID := uuid.New()
		now := time.Now()

		rows := sqlmock.NewRows(paymentEventColumns()).
			AddRow(uuid.New(), now, now, 1,
				"CIN-2025-00001", "RECEIVE", "CUSTOMER", uuid.New(), now.AddDate(0, -1, 0),
				decimal.NewFromInt(200), "Cash", uuid.New(), uuid.New(),
				contractID, 0, "Downpayment", "", "SUBMITTED").
			AddRow(uuid.New(), now, now, 1,
				"CIN-2025-00002", "RECEIVE", "CUSTOMER", uuid.New(), now,
				decimal.NewFromInt(110), "Cash", uuid.New(), uuid.New(),
				contractID, 1, "Month 1", "", "SUBMITTED")

		mock.ExpectQuery(`SELECT \* FROM "payment_events" WHERE contract_id = \$1 AND state = \$2 ORDER BY posting_date ASC, created_at ASC`).
			WithArgs(contractID, "SUBMITTED").
			WillReturnRows(rows)

		events, err := repo.FindSubmittedByContract(context.Background(), contractID)

		assert.NoError(t, err)
		require.Len(t, events, 2)
		assert.Equal(t, "CIN-2025-00001", events[0].Number)
		assert.Equal(t, "Downpayment", events[0].PaymentMonth)
		assert.Equal(t, contractID, *events[1].ContractID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentEventRepository_SumSubmittedByContract(t *testing.T) {
	t.Run("sums submitted receives excluding the given event", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		contractID := uuid.New()
		excludeID := uuid.New()

		mock.ExpectQuery(`SELECT SUM\(amount\) FROM "payment_events" WHERE contract_id = \$1 AND state = \$2 AND direction = \$3 AND id <> \$4`).
			WithArgs(contractID, "SUBMITTED", "RECEIVE", excludeID).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("310.00"))

		sum, err := repo.SumSubmittedByContract(context.Background(), contractID, excludeID)

		assert.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(310)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero when no rows match", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		contractID := uuid.New()

		// SUM over an empty set is NULL
		mock.ExpectQuery(`SELECT SUM\(amount\) FROM "payment_events" WHERE contract_id = \$1 AND state = \$2 AND direction = \$3`).
			WithArgs(contractID, "SUBMITTED", "RECEIVE").
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

		sum, err := repo.SumSubmittedByContract(context.Background(), contractID, uuid.Nil)

		assert.NoError(t, err)
		assert.True(t, sum.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentEventRepository_AccountBalanceAsOf(t *testing.T) {
	t.Run("nets receives against pays", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()
		asOf := time.Date(2025, time.June, 30, 0, 0, 0, 0, time.UTC)

		mock.ExpectQuery(`SELECT SUM\(CASE WHEN direction = \$1 THEN amount ELSE -amount END\) FROM "payment_events" WHERE account_id = \$2 AND state = \$3 AND posting_date <= \$4`).
			WithArgs("RECEIVE", accountID, "SUBMITTED", asOf).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow("1250.50"))

		balance, err := repo.AccountBalanceAsOf(context.Background(), accountID, asOf)

		assert.NoError(t, err)
		assert.True(t, balance.Amount().Equal(decimal.NewFromFloat(1250.50)))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns zero for an untouched account", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		accountID := uuid.New()

		mock.ExpectQuery(`SELECT SUM\(CASE WHEN direction = \$1 THEN amount ELSE -amount END\) FROM "payment_events"`).
			WillReturnRows(sqlmock.NewRows([]string{"sum"}).AddRow(nil))

		balance, err := repo.AccountBalanceAsOf(context.Background(), accountID, time.Now())

		assert.NoError(t, err)
		assert.True(t, balance.IsZero())
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormPaymentEventRepository_Save(t *testing.T) {
	t.Run("upserts by primary key", func(t *testing.T) {
		repo, mock, mockDB := newMockPaymentEventRepository(t)
		defer mockDB.Close()

		e, err := payment.NewPaymentEvent(
			"CIN-2025-00042",
			payment.DirectionReceive,
			payment.PartyTypeCustomer,
			uuid.New(),
			time.Date(2025, time.February, 1, 0, 0, 0, 0, time.UTC),
			valueobject.NewMoneyFromInt(310),
			"Cash",
			uuid.New(),
			uuid.New(),
		)
		require.NoError(t, err)

		mock.ExpectExec(`INSERT INTO "payment_events" .* ON CONFLICT \("id"\) DO UPDATE SET`).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err = repo.Save(context.Background(), e)

		assert.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
