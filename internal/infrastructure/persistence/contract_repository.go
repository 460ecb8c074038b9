package persistence

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/infrastructure/persistence/models"
)

// contractSeriesPrefix is the naming-series prefix for installment contracts
const contractSeriesPrefix = "CTR"

// GormContractRepository implements ContractRepository using GORM
type GormContractRepository struct {
	db *gorm.DB
}

// NewGormContractRepository creates a new GormContractRepository
func NewGormContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// FindByID finds a contract by its ID, items and schedule rows included
func (r *GormContractRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.Contract, error) {
	var model models.ContractModel
	if err := r.preloaded(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a contract by its document number
func (r *GormContractRepository) FindByNumber(ctx context.Context, number string) (*installment.Contract, error) {
	var model models.ContractModel
	if err := r.preloaded(ctx).Where("number = ?", number).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds all contracts for a customer, newest first
func (r *GormContractRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]installment.Contract, error) {
	var contractModels []models.ContractModel
	if err := r.preloaded(ctx).
		Where("customer_id = ?", customerID).
		Order("transaction_date DESC, created_at DESC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(contractModels), nil
}

// FindLatestOpenByCustomer finds the customer's most recent open contract
func (r *GormContractRepository) FindLatestOpenByCustomer(ctx context.Context, customerID uuid.UUID) (*installment.Contract, error) {
	var model models.ContractModel
	if err := r.preloaded(ctx).
		Where("customer_id = ? AND status = ?", customerID, installment.ContractStatusActive).
		Order("transaction_date DESC, created_at DESC").
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindOpen finds all open contracts
func (r *GormContractRepository) FindOpen(ctx context.Context) ([]installment.Contract, error) {
	var contractModels []models.ContractModel
	if err := r.preloaded(ctx).
		Where("status = ?", installment.ContractStatusActive).
		Order("transaction_date ASC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(contractModels), nil
}

// FindAll returns every contract regardless of status
func (r *GormContractRepository) FindAll(ctx context.Context) ([]installment.Contract, error) {
	var contractModels []models.ContractModel
	if err := r.preloaded(ctx).
		Order("transaction_date ASC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(contractModels), nil
}

// Search finds contracts whose number, customer name or item serial number
// matches the term, case-insensitively.
func (r *GormContractRepository) Search(ctx context.Context, term string) ([]installment.Contract, error) {
	pattern := "%" + term + "%"
	var contractModels []models.ContractModel
	if err := r.preloaded(ctx).
		Where(
			"number ILIKE ? OR customer_id IN (SELECT id FROM customers WHERE name ILIKE ?) OR id IN (SELECT contract_id FROM installment_contract_items WHERE serial_no ILIKE ?)",
			pattern, pattern, pattern,
		).
		Order("transaction_date DESC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(contractModels), nil
}

// SearchBySerialNo finds contracts carrying an item with the serial number
func (r *GormContractRepository) SearchBySerialNo(ctx context.Context, serialNo string) ([]installment.Contract, error) {
	var contractModels []models.ContractModel
	if err := r.preloaded(ctx).
		Where("id IN (SELECT contract_id FROM installment_contract_items WHERE serial_no = ?)", serialNo).
		Order("transaction_date DESC").
		Find(&contractModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(contractModels), nil
}

// Save creates or updates a contract with its items and schedule rows.
// Child rows are replaced wholesale.
func (r *GormContractRepository) Save(ctx context.Context, c *installment.Contract) error {
	model := &models.ContractModel{}
	model.FromDomain(c)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("contract_id = ?", c.ID).
			Delete(&models.ContractItemModel{}).Error; err != nil {
			return err
		}
		if err := tx.
			Where("contract_id = ?", c.ID).
			Delete(&models.ContractScheduleRowModel{}).Error; err != nil {
			return err
		}
		return tx.
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				UpdateAll: true,
			}).
			Create(model).Error
	})
}

// NextNumber reserves the next document number in the series
func (r *GormContractRepository) NextNumber(ctx context.Context, year int) (string, error) {
	seq, err := nextSequence(ctx, r.db, seriesKey(contractSeriesPrefix, year))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%05d", contractSeriesPrefix, year, seq), nil
}

func (r *GormContractRepository) preloaded(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Items").
		Preload("Schedule", func(db *gorm.DB) *gorm.DB {
			return db.Order("idx ASC")
		})
}

func (r *GormContractRepository) toDomainSlice(contractModels []models.ContractModel) []installment.Contract {
	contracts := make([]installment.Contract, len(contractModels))
	for i := range contractModels {
		contracts[i] = *contractModels[i].ToDomain()
	}
	return contracts
}

// Ensure GormContractRepository implements the interface
var _ installment.ContractRepository = (*GormContractRepository)(nil)
