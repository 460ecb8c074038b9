package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/cashflow/backend/internal/domain/ledger"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/cashflow/backend/internal/infrastructure/persistence/models"
)

// GormLedgerRepository implements the ledger Repository using GORM
type GormLedgerRepository struct {
	db *gorm.DB
}

// NewGormLedgerRepository creates a new GormLedgerRepository
func NewGormLedgerRepository(db *gorm.DB) *GormLedgerRepository {
	return &GormLedgerRepository{db: db}
}

// Save appends an entry
func (r *GormLedgerRepository) Save(ctx context.Context, e *ledger.Entry) error {
	model := &models.LedgerEntryModel{}
	model.FromDomain(e)
	return r.db.WithContext(ctx).Create(model).Error
}

// MarkReversedByVoucher flags all entries of a voucher as reversed
func (r *GormLedgerRepository) MarkReversedByVoucher(ctx context.Context, voucherType, voucherNo string) error {
	return r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Where("voucher_type = ? AND voucher_no = ?", voucherType, voucherNo).
		Update("reversed", true).Error
}

// FindByParty returns a party's entries in a window, posting date ascending
func (r *GormLedgerRepository) FindByParty(ctx context.Context, kind ledger.PartyKind, partyID uuid.UUID, from, to time.Time) ([]ledger.Entry, error) {
	var entryModels []models.LedgerEntryModel
	if err := r.db.WithContext(ctx).
		Where("party_kind = ? AND party_id = ? AND reversed = ? AND posting_date >= ? AND posting_date <= ?",
			kind, partyID, false, from, to).
		Order("posting_date ASC, created_at ASC").
		Find(&entryModels).Error; err != nil {
		return nil, err
	}

	entries := make([]ledger.Entry, len(entryModels))
	for i := range entryModels {
		entries[i] = *entryModels[i].ToDomain()
	}
	return entries, nil
}

// OpeningBalances returns total debit and credit for a party before a date
func (r *GormLedgerRepository) OpeningBalances(ctx context.Context, kind ledger.PartyKind, partyID uuid.UUID, before time.Time) (valueobject.Money, valueobject.Money, error) {
	var totals struct {
		Debit  decimal.NullDecimal
		Credit decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Select("SUM(debit) AS debit, SUM(credit) AS credit").
		Where("party_kind = ? AND party_id = ? AND reversed = ? AND posting_date < ?",
			kind, partyID, false, before).
		Scan(&totals).Error; err != nil {
		return valueobject.Zero(), valueobject.Zero(), err
	}

	debit := valueobject.Zero()
	if totals.Debit.Valid {
		debit = valueobject.NewMoney(totals.Debit.Decimal)
	}
	credit := valueobject.Zero()
	if totals.Credit.Valid {
		credit = valueobject.NewMoney(totals.Credit.Decimal)
	}
	return debit, credit, nil
}

// Ensure GormLedgerRepository implements the interface
var _ ledger.Repository = (*GormLedgerRepository)(nil)
