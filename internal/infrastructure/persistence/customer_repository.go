package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/infrastructure/persistence/models"
)

// GormCustomerRepository implements CustomerRepository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCode finds a customer by its code
func (r *GormCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	var model models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("code = ?", strings.ToUpper(code)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all customers ordered by name
func (r *GormCustomerRepository) FindAll(ctx context.Context) ([]partner.Customer, error) {
	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&customerModels).Error; err != nil {
		return nil, err
	}

	customers := make([]partner.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = *customerModels[i].ToDomain()
	}
	return customers, nil
}

// FindByClassification finds customers in a given risk class
func (r *GormCustomerRepository) FindByClassification(ctx context.Context, class partner.Classification) ([]partner.Customer, error) {
	var customerModels []models.CustomerModel
	if err := r.db.WithContext(ctx).
		Where("classification = ?", class).
		Order("name ASC").
		Find(&customerModels).Error; err != nil {
		return nil, err
	}

	customers := make([]partner.Customer, len(customerModels))
	for i := range customerModels {
		customers[i] = *customerModels[i].ToDomain()
	}
	return customers, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	model := &models.CustomerModel{}
	model.FromDomain(customer)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// SaveAuditEntry records a classification transition
func (r *GormCustomerRepository) SaveAuditEntry(ctx context.Context, entry *partner.AuditEntry) error {
	model := &models.CustomerAuditModel{}
	model.FromDomain(entry)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindAuditEntries returns classification history for a customer, newest first
func (r *GormCustomerRepository) FindAuditEntries(ctx context.Context, customerID uuid.UUID) ([]partner.AuditEntry, error) {
	var auditModels []models.CustomerAuditModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&auditModels).Error; err != nil {
		return nil, err
	}

	entries := make([]partner.AuditEntry, len(auditModels))
	for i := range auditModels {
		entries[i] = *auditModels[i].ToDomain()
	}
	return entries, nil
}

// Ensure GormCustomerRepository implements the interface
var _ partner.CustomerRepository = (*GormCustomerRepository)(nil)
