package payment

import (
	"context"
	"time"

	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// EventRepository defines the interface for payment event persistence
type EventRepository interface {
	// FindByID finds a payment event by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*PaymentEvent, error)

	// FindByNumber finds a payment event by its document number
	FindByNumber(ctx context.Context, number string) (*PaymentEvent, error)

	// FindSubmittedByContract finds submitted events linked to a contract,
	// posting date ascending.
	FindSubmittedByContract(ctx context.Context, contractID uuid.UUID) ([]PaymentEvent, error)

	// SumSubmittedByContract sums submitted receive amounts linked to a
	// contract, excluding the given event ID. Pass uuid.Nil to exclude none.
	SumSubmittedByContract(ctx context.Context, contractID, excludeID uuid.UUID) (valueobject.Money, error)

	// FindByParty finds events for a party, newest first
	FindByParty(ctx context.Context, partyType PartyType, partyID uuid.UUID) ([]PaymentEvent, error)

	// FindSubmittedByParty finds submitted events for a party, posting date ascending
	FindSubmittedByParty(ctx context.Context, partyType PartyType, partyID uuid.UUID) ([]PaymentEvent, error)

	// FindSubmittedBetween finds submitted events posted within [from, to],
	// posting date ascending. The aggregation layer folds these in application
	// code rather than composing SQL.
	FindSubmittedBetween(ctx context.Context, from, to time.Time) ([]PaymentEvent, error)

	// AccountBalanceAsOf returns receives minus pays on the account over
	// submitted events posted up to and including the given date.
	AccountBalanceAsOf(ctx context.Context, accountID uuid.UUID, asOf time.Time) (valueobject.Money, error)

	// Save creates or updates a payment event
	Save(ctx context.Context, e *PaymentEvent) error

	// NextNumber reserves the next document number in the direction's series
	NextNumber(ctx context.Context, direction Direction, year int) (string, error)
}

// CategoryRepository defines the interface for counterparty category persistence
type CategoryRepository interface {
	// FindByID finds a category by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*CounterpartyCategory, error)

	// FindByName finds a category by its name
	FindByName(ctx context.Context, name string) (*CounterpartyCategory, error)

	// FindAll returns all categories
	FindAll(ctx context.Context) ([]CounterpartyCategory, error)

	// Save creates or updates a category
	Save(ctx context.Context, c *CounterpartyCategory) error
}

// AccountRepository defines the interface for cash account persistence
type AccountRepository interface {
	// FindByID finds an account by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*CashAccount, error)

	// FindByCode finds an account by its code
	FindByCode(ctx context.Context, code string) (*CashAccount, error)

	// FindAll returns all accounts
	FindAll(ctx context.Context) ([]CashAccount, error)

	// Save creates or updates an account
	Save(ctx context.Context, a *CashAccount) error
}
