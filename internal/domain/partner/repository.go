package partner

import (
	"context"

	"github.com/google/uuid"
)

// CustomerRepository defines the interface for customer persistence
type CustomerRepository interface {
	// FindByID finds a customer by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Customer, error)

	// FindByCode finds a customer by its code
	FindByCode(ctx context.Context, code string) (*Customer, error)

	// FindAll finds all customers
	FindAll(ctx context.Context) ([]Customer, error)

	// FindByClassification finds customers in a given risk class
	FindByClassification(ctx context.Context, class Classification) ([]Customer, error)

	// Save creates or updates a customer
	Save(ctx context.Context, customer *Customer) error

	// SaveAuditEntry records a classification transition
	SaveAuditEntry(ctx context.Context, entry *AuditEntry) error

	// FindAuditEntries returns classification history for a customer, newest first
	FindAuditEntries(ctx context.Context, customerID uuid.UUID) ([]AuditEntry, error)
}

// SupplierRepository defines the interface for supplier persistence
type SupplierRepository interface {
	// FindByID finds a supplier by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Supplier, error)

	// FindByCode finds a supplier by its code
	FindByCode(ctx context.Context, code string) (*Supplier, error)

	// FindAll finds all suppliers
	FindAll(ctx context.Context) ([]Supplier, error)

	// Save creates or updates a supplier
	Save(ctx context.Context, supplier *Supplier) error
}
