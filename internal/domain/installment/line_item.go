package installment

import (
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InterestItemName is the synthetic line appended to a contract when the
// application carries positive interest. It has no supplier and is excluded
// from cost and procurement reports.
const InterestItemName = "Interest"

// LineItem is one product line on an application or contract.
// Amount is always Qty * Rate; serial number carries the IMEI for phones.
type LineItem struct {
	ID         uuid.UUID
	ItemCode   string
	ItemName   string
	Qty        decimal.Decimal
	Rate       valueobject.Money
	Amount     valueobject.Money
	SerialNo   string
	SupplierID *uuid.UUID
	IsInterest bool
	Notes      string
}

// NewLineItem creates a product line item with a computed amount
func NewLineItem(itemCode, itemName string, qty decimal.Decimal, rate valueobject.Money, serialNo string, supplierID *uuid.UUID) (*LineItem, error) {
	if itemName == "" {
		return nil, shared.NewDomainError("INVALID_ITEM", "Item name cannot be empty")
	}
	if !qty.IsPositive() {
		return nil, shared.NewDomainError("INVALID_QTY", "Item quantity must be positive")
	}
	if rate.IsNegative() {
		return nil, shared.NewDomainError("INVALID_RATE", "Item rate cannot be negative")
	}

	return &LineItem{
		ID:         uuid.New(),
		ItemCode:   itemCode,
		ItemName:   itemName,
		Qty:        qty,
		Rate:       rate,
		Amount:     rate.Mul(qty),
		SerialNo:   serialNo,
		SupplierID: supplierID,
	}, nil
}

// NewInterestLineItem creates the synthetic interest line for a contract
func NewInterestLineItem(amount valueobject.Money) *LineItem {
	return &LineItem{
		ID:         uuid.New(),
		ItemCode:   "INTEREST",
		ItemName:   InterestItemName,
		Qty:        decimal.NewFromInt(1),
		Rate:       amount,
		Amount:     amount,
		IsInterest: true,
	}
}

// Clone returns a copy of the line item with a fresh identity,
// preserving serial number and notes.
func (li *LineItem) Clone() LineItem {
	c := *li
	c.ID = uuid.New()
	return c
}
