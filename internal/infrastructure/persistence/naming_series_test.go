package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockSeriesDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
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

	return gormDB, mock, mockDB
}

func TestNextSequence(t *testing.T) {
	t.Run("increments an existing series under lock", func(t *testing.T) {
		gormDB, mock, mockDB := newMockSeriesDB(t)
		defer mockDB.Close()
		repo := NewGormContractRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "naming_series" WHERE key = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs("CTR-2025", 1).
			WillReturnRows(sqlmock.NewRows([]string{"key", "current", "updated_at"}).
				AddRow("CTR-2025", 41, time.Now()))
		mock.ExpectExec(`UPDATE "naming_series" SET`).
			WithArgs(42, sqlmock.AnyArg(), "CTR-2025").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		number, err := repo.NextNumber(context.Background(), 2025)

		require.NoError(t, err)
		assert.Equal(t, "CTR-2025-00042", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("seeds a missing series and issues number one", func(t *testing.T) {
		gormDB, mock, mockDB := newMockSeriesDB(t)
		defer mockDB.Close()
		repo := NewGormContractRepository(gormDB)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT \* FROM "naming_series" WHERE key = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs("CTR-2026", 1).
			WillReturnRows(sqlmock.NewRows([]string{"key", "current", "updated_at"}))
		mock.ExpectExec(`INSERT INTO "naming_series"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(`SELECT \* FROM "naming_series" WHERE key = \$1 ORDER BY .* FOR UPDATE`).
			WithArgs("CTR-2026", 1).
			WillReturnRows(sqlmock.NewRows([]string{"key", "current", "updated_at"}).
				AddRow("CTR-2026", 0, time.Now()))
		mock.ExpectExec(`UPDATE "naming_series" SET`).
			WithArgs(1, sqlmock.AnyArg(), "CTR-2026").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		number, err := repo.NextNumber(context.Background(), 2026)

		require.NoError(t, err)
		assert.Equal(t, "CTR-2026-00001", number)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
