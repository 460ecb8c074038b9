package valueobject

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Currency is the single operating currency of the system.
// The back office is single-currency; every amount is denominated in UZS.
const Currency = "UZS"

// Epsilon is the tolerance used for settlement comparisons.
// Derived amounts are reconciled within one tiyin.
var Epsilon = decimal.NewFromFloat(0.01)

// Money is a value object representing a monetary amount in the operating
// currency. It is immutable - all operations return new Money instances.
type Money struct {
	amount decimal.Decimal
}

// NewMoney creates Money from a decimal amount
func NewMoney(amount decimal.Decimal) Money {
	return Money{amount: amount}
}

// NewMoneyFromFloat creates Money from a float64 value
func NewMoneyFromFloat(amount float64) Money {
	return Money{amount: decimal.NewFromFloat(amount)}
}

// NewMoneyFromInt creates Money from an int64 value
func NewMoneyFromInt(amount int64) Money {
	return Money{amount: decimal.NewFromInt(amount)}
}

// NewMoneyFromString creates Money from a string representation
func NewMoneyFromString(amount string) (Money, error) {
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount string: %w", err)
	}
	return Money{amount: d}, nil
}

// Zero returns a zero-value Money
func Zero() Money {
	return Money{amount: decimal.Zero}
}

// Amount returns the decimal amount
func (m Money) Amount() decimal.Decimal {
	return m.amount
}

// IsZero returns true if the amount is zero
func (m Money) IsZero() bool {
	return m.amount.IsZero()
}

// IsPositive returns true if the amount is positive
func (m Money) IsPositive() bool {
	return m.amount.IsPositive()
}

// IsNegative returns true if the amount is negative
func (m Money) IsNegative() bool {
	return m.amount.IsNegative()
}

// Add returns a new Money with the sum of both amounts
func (m Money) Add(other Money) Money {
	return Money{amount: m.amount.Add(other.amount)}
}

// Sub returns a new Money with the difference of both amounts
func (m Money) Sub(other Money) Money {
	return Money{amount: m.amount.Sub(other.amount)}
}

// Mul returns a new Money multiplied by a decimal factor
func (m Money) Mul(factor decimal.Decimal) Money {
	return Money{amount: m.amount.Mul(factor)}
}

// MulInt returns a new Money multiplied by an integer factor
func (m Money) MulInt(factor int64) Money {
	return Money{amount: m.amount.Mul(decimal.NewFromInt(factor))}
}

// Div returns a new Money divided by a decimal divisor
func (m Money) Div(divisor decimal.Decimal) Money {
	return Money{amount: m.amount.Div(divisor)}
}

// Neg returns the negated amount
func (m Money) Neg() Money {
	return Money{amount: m.amount.Neg()}
}

// Cmp compares two amounts: -1 if m < other, 0 if equal, 1 if m > other
func (m Money) Cmp(other Money) int {
	return m.amount.Cmp(other.amount)
}

// LessThan returns true if m < other
func (m Money) LessThan(other Money) bool {
	return m.amount.LessThan(other.amount)
}

// LessThanOrEqual returns true if m <= other
func (m Money) LessThanOrEqual(other Money) bool {
	return m.amount.LessThanOrEqual(other.amount)
}

// GreaterThan returns true if m > other
func (m Money) GreaterThan(other Money) bool {
	return m.amount.GreaterThan(other.amount)
}

// GreaterThanOrEqual returns true if m >= other
func (m Money) GreaterThanOrEqual(other Money) bool {
	return m.amount.GreaterThanOrEqual(other.amount)
}

// EqualWithin returns true if the two amounts differ by no more than Epsilon.
// Settlement checks tolerate rounding drift from legacy float data.
func (m Money) EqualWithin(other Money) bool {
	return m.amount.Sub(other.amount).Abs().LessThanOrEqual(Epsilon)
}

// Min returns the smaller of the two amounts
func (m Money) Min(other Money) Money {
	if m.amount.LessThan(other.amount) {
		return m
	}
	return other
}

// ClampFloor returns m, or floor when m is below floor
func (m Money) ClampFloor(floor Money) Money {
	if m.amount.LessThan(floor.amount) {
		return floor
	}
	return m
}

// Round rounds to the given number of decimal places
func (m Money) Round(places int32) Money {
	return Money{amount: m.amount.Round(places)}
}

// InexactFloat64 returns the amount as a float64 for presentation
func (m Money) InexactFloat64() float64 {
	return m.amount.InexactFloat64()
}

// String formats the amount with the currency code
func (m Money) String() string {
	return fmt.Sprintf("%s %s", m.amount.StringFixed(2), Currency)
}

// MarshalJSON implements json.Marshaler
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.amount)
}

// UnmarshalJSON implements json.Unmarshaler
func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := json.Unmarshal(data, &d); err != nil {
		return err
	}
	m.amount = d
	return nil
}

// Value implements driver.Valuer for database storage
func (m Money) Value() (driver.Value, error) {
	return m.amount.Value()
}

// Scan implements sql.Scanner for database retrieval
func (m *Money) Scan(value interface{}) error {
	var d decimal.Decimal
	if err := d.Scan(value); err != nil {
		return err
	}
	m.amount = d
	return nil
}
