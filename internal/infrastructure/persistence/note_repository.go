package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/infrastructure/persistence/models"
)

// GormNoteRepository implements NoteRepository using GORM
type GormNoteRepository struct {
	db *gorm.DB
}

// NewGormNoteRepository creates a new GormNoteRepository
func NewGormNoteRepository(db *gorm.DB) *GormNoteRepository {
	return &GormNoteRepository{db: db}
}

// Save appends a note
func (r *GormNoteRepository) Save(ctx context.Context, note *installment.Note) error {
	model := &models.NoteModel{}
	model.FromDomain(note)
	return r.db.WithContext(ctx).Create(model).Error
}

// FindByContract returns a contract's notes ordered by creation time
func (r *GormNoteRepository) FindByContract(ctx context.Context, contractID uuid.UUID) ([]installment.Note, error) {
	var noteModels []models.NoteModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ?", contractID).
		Order("created_at ASC").
		Find(&noteModels).Error; err != nil {
		return nil, err
	}

	notes := make([]installment.Note, len(noteModels))
	for i := range noteModels {
		notes[i] = *noteModels[i].ToDomain()
	}
	return notes, nil
}

// Ensure GormNoteRepository implements the interface
var _ installment.NoteRepository = (*GormNoteRepository)(nil)
