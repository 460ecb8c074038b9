package installment

import (
	"context"

	"github.com/google/uuid"
)

// ApplicationRepository defines the interface for installment application persistence
type ApplicationRepository interface {
	// FindByID finds an application by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*InstallmentApplication, error)

	// FindByNumber finds an application by its document number
	FindByNumber(ctx context.Context, number string) (*InstallmentApplication, error)

	// FindByCustomer finds all applications for a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]InstallmentApplication, error)

	// FindSubmitted finds all submitted applications
	FindSubmitted(ctx context.Context) ([]InstallmentApplication, error)

	// Save creates or updates an application with its items
	Save(ctx context.Context, ia *InstallmentApplication) error

	// NextNumber reserves the next document number in the series
	NextNumber(ctx context.Context, year int) (string, error)
}

// ContractRepository defines the interface for contract persistence
type ContractRepository interface {
	// FindByID finds a contract by its ID, schedule rows included
	FindByID(ctx context.Context, id uuid.UUID) (*Contract, error)

	// FindByNumber finds a contract by its document number
	FindByNumber(ctx context.Context, number string) (*Contract, error)

	// FindByCustomer finds all contracts for a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Contract, error)

	// FindLatestOpenByCustomer finds the customer's most recent open contract
	// by transaction date; used to auto-fill missing contract references.
	FindLatestOpenByCustomer(ctx context.Context, customerID uuid.UUID) (*Contract, error)

	// FindOpen finds all open contracts
	FindOpen(ctx context.Context) ([]Contract, error)

	// FindAll returns every contract regardless of status
	FindAll(ctx context.Context) ([]Contract, error)

	// Search finds contracts whose number, customer name or item serial
	// number matches the term.
	Search(ctx context.Context, term string) ([]Contract, error)

	// SearchBySerialNo finds contracts carrying an item with the serial number
	SearchBySerialNo(ctx context.Context, serialNo string) ([]Contract, error)

	// Save creates or updates a contract with its items and schedule rows
	Save(ctx context.Context, c *Contract) error

	// NextNumber reserves the next document number in the series
	NextNumber(ctx context.Context, year int) (string, error)
}

// NoteRepository defines the interface for contract note persistence
type NoteRepository interface {
	// Save appends a note
	Save(ctx context.Context, note *Note) error

	// FindByContract returns a contract's notes ordered by creation time
	FindByContract(ctx context.Context, contractID uuid.UUID) ([]Note, error)
}
