package ledger

import (
	"context"
	"time"

	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PartyKind distinguishes the sign convention of a ledger party:
// customers are debit-normal, suppliers are credit-normal.
type PartyKind string

const (
	PartyKindCustomer PartyKind = "CUSTOMER"
	PartyKindSupplier PartyKind = "SUPPLIER"
)

// Entry is one row of the companion audit ledger. The core writes exactly one
// customer-debit / supplier-credit pair on application submit and reads the
// table only through the counterparty report; it does not own general-ledger
// posting.
type Entry struct {
	shared.BaseEntity
	PostingDate time.Time
	PartyKind   PartyKind
	PartyID     uuid.UUID
	Debit       valueobject.Money
	Credit      valueobject.Money
	VoucherType string
	VoucherNo   string
	Remarks     string
	Reversed    bool
}

// NewEntry creates a ledger entry
func NewEntry(postingDate time.Time, kind PartyKind, partyID uuid.UUID, debit, credit valueobject.Money, voucherType, voucherNo, remarks string) (*Entry, error) {
	if partyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_PARTY", "Ledger entry must reference a party")
	}
	if debit.IsNegative() || credit.IsNegative() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Ledger amounts cannot be negative")
	}
	if debit.IsZero() && credit.IsZero() {
		return nil, shared.NewDomainError("INVALID_AMOUNT", "Ledger entry must carry a debit or a credit")
	}

	return &Entry{
		BaseEntity:  shared.NewBaseEntity(),
		PostingDate: postingDate,
		PartyKind:   kind,
		PartyID:     partyID,
		Debit:       debit,
		Credit:      credit,
		VoucherType: voucherType,
		VoucherNo:   voucherNo,
		Remarks:     remarks,
	}, nil
}

// Repository defines the interface for ledger entry persistence.
// The ledger is append-only; reversal marks entries instead of deleting them.
type Repository interface {
	// Save appends an entry
	Save(ctx context.Context, e *Entry) error

	// MarkReversedByVoucher flags all entries of a voucher as reversed
	MarkReversedByVoucher(ctx context.Context, voucherType, voucherNo string) error

	// FindByParty returns a party's entries in a window, posting date ascending
	FindByParty(ctx context.Context, kind PartyKind, partyID uuid.UUID, from, to time.Time) ([]Entry, error)

	// OpeningBalances returns total debit and credit for a party before a date
	OpeningBalances(ctx context.Context, kind PartyKind, partyID uuid.UUID, before time.Time) (debit, credit valueobject.Money, err error)
}
