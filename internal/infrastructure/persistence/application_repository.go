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

// applicationSeriesPrefix is the naming-series prefix for installment applications
const applicationSeriesPrefix = "APP"

// GormApplicationRepository implements ApplicationRepository using GORM
type GormApplicationRepository struct {
	db *gorm.DB
}

// NewGormApplicationRepository creates a new GormApplicationRepository
func NewGormApplicationRepository(db *gorm.DB) *GormApplicationRepository {
	return &GormApplicationRepository{db: db}
}

// FindByID finds an application by its ID, items included
func (r *GormApplicationRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.InstallmentApplication, error) {
	var model models.ApplicationModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds an application by its document number
func (r *GormApplicationRepository) FindByNumber(ctx context.Context, number string) (*installment.InstallmentApplication, error) {
	var model models.ApplicationModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds all applications for a customer, newest first
func (r *GormApplicationRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]installment.InstallmentApplication, error) {
	var applicationModels []models.ApplicationModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("customer_id = ?", customerID).
		Order("transaction_date DESC, created_at DESC").
		Find(&applicationModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(applicationModels), nil
}

// FindSubmitted finds all submitted applications
func (r *GormApplicationRepository) FindSubmitted(ctx context.Context) ([]installment.InstallmentApplication, error) {
	var applicationModels []models.ApplicationModel
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("state IN ?", []installment.ApplicationState{
			installment.ApplicationStateApproved,
			installment.ApplicationStateContractCreated,
		}).
		Order("transaction_date DESC").
		Find(&applicationModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(applicationModels), nil
}

// Save creates or updates an application with its items.
// Items are replaced wholesale so removed lines disappear.
func (r *GormApplicationRepository) Save(ctx context.Context, ia *installment.InstallmentApplication) error {
	model := &models.ApplicationModel{}
	model.FromDomain(ia)

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("application_id = ?", ia.ID).
			Delete(&models.ApplicationItemModel{}).Error; err != nil {
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
func (r *GormApplicationRepository) NextNumber(ctx context.Context, year int) (string, error) {
	seq, err := nextSequence(ctx, r.db, seriesKey(applicationSeriesPrefix, year))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s-%d-%05d", applicationSeriesPrefix, year, seq), nil
}

func (r *GormApplicationRepository) toDomainSlice(applicationModels []models.ApplicationModel) []installment.InstallmentApplication {
	applications := make([]installment.InstallmentApplication, len(applicationModels))
	for i := range applicationModels {
		applications[i] = *applicationModels[i].ToDomain()
	}
	return applications
}

// Ensure GormApplicationRepository implements the interface
var _ installment.ApplicationRepository = (*GormApplicationRepository)(nil)
