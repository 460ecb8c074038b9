package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/infrastructure/persistence/models"
)

// GormCategoryRepository implements CategoryRepository using GORM
type GormCategoryRepository struct {
	db *gorm.DB
}

// NewGormCategoryRepository creates a new GormCategoryRepository
func NewGormCategoryRepository(db *gorm.DB) *GormCategoryRepository {
	return &GormCategoryRepository{db: db}
}

// FindByID finds a category by its ID
func (r *GormCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.CounterpartyCategory, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByName finds a category by its name
func (r *GormCategoryRepository) FindByName(ctx context.Context, name string) (*payment.CounterpartyCategory, error) {
	var model models.CategoryModel
	if err := r.db.WithContext(ctx).
		Where("name = ?", name).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll returns all categories ordered by name
func (r *GormCategoryRepository) FindAll(ctx context.Context) ([]payment.CounterpartyCategory, error) {
	var categoryModels []models.CategoryModel
	if err := r.db.WithContext(ctx).
		Order("name ASC").
		Find(&categoryModels).Error; err != nil {
		return nil, err
	}

	categories := make([]payment.CounterpartyCategory, len(categoryModels))
	for i := range categoryModels {
		categories[i] = *categoryModels[i].ToDomain()
	}
	return categories, nil
}

// Save creates or updates a category
func (r *GormCategoryRepository) Save(ctx context.Context, c *payment.CounterpartyCategory) error {
	model := &models.CategoryModel{}
	model.FromDomain(c)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// Ensure GormCategoryRepository implements the interface
var _ payment.CategoryRepository = (*GormCategoryRepository)(nil)
