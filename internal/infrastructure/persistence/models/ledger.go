package models

import (
	"time"

	"github.com/cashflow/backend/internal/domain/ledger"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// LedgerEntryModel is the persistence model for companion ledger entries.
// The table is append-only; reversal flips the Reversed flag.
type LedgerEntryModel struct {
	BaseModel
	PostingDate time.Time         `gorm:"not null;index"`
	PartyKind   ledger.PartyKind  `gorm:"type:varchar(15);not null;index:idx_ledger_party,priority:1"`
	PartyID     uuid.UUID         `gorm:"type:uuid;not null;index:idx_ledger_party,priority:2"`
	Debit       valueobject.Money `gorm:"type:decimal(18,2);not null"`
	Credit      valueobject.Money `gorm:"type:decimal(18,2);not null"`
	VoucherType string            `gorm:"type:varchar(50);not null;index:idx_ledger_voucher,priority:1"`
	VoucherNo   string            `gorm:"type:varchar(50);not null;index:idx_ledger_voucher,priority:2"`
	Remarks     string            `gorm:"type:text"`
	Reversed    bool              `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// ToDomain converts the persistence model to a domain ledger Entry.
func (m *LedgerEntryModel) ToDomain() *ledger.Entry {
	return &ledger.Entry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		PostingDate: m.PostingDate,
		PartyKind:   m.PartyKind,
		PartyID:     m.PartyID,
		Debit:       m.Debit,
		Credit:      m.Credit,
		VoucherType: m.VoucherType,
		VoucherNo:   m.VoucherNo,
		Remarks:     m.Remarks,
		Reversed:    m.Reversed,
	}
}

// FromDomain populates the persistence model from a domain ledger Entry.
func (m *LedgerEntryModel) FromDomain(e *ledger.Entry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.PostingDate = e.PostingDate
	m.PartyKind = e.PartyKind
	m.PartyID = e.PartyID
	m.Debit = e.Debit
	m.Credit = e.Credit
	m.VoucherType = e.VoucherType
	m.VoucherNo = e.VoucherNo
	m.Remarks = e.Remarks
	m.Reversed = e.Reversed
}
