package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/cashflow/backend/internal/infrastructure/persistence/models"
)

// GormPaymentEventRepository implements EventRepository using GORM
type GormPaymentEventRepository struct {
	db *gorm.DB
}

// NewGormPaymentEventRepository creates a new GormPaymentEventRepository
func NewGormPaymentEventRepository(db *gorm.DB) *GormPaymentEventRepository {
	return &GormPaymentEventRepository{db: db}
}

// FindByID finds a payment event by its ID
func (r *GormPaymentEventRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.PaymentEvent, error) {
	var model models.PaymentEventModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByNumber finds a payment event by its document number
func (r *GormPaymentEventRepository) FindByNumber(ctx context.Context, number string) (*payment.PaymentEvent, error) {
	var model models.PaymentEventModel
	if err := r.db.WithContext(ctx).
		Where("number = ?", number).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindSubmittedByContract finds submitted events linked to a contract,
// posting date ascending.
func (r *GormPaymentEventRepository) FindSubmittedByContract(ctx context.Context, contractID uuid.UUID) ([]payment.PaymentEvent, error) {
	var eventModels []models.PaymentEventModel
	if err := r.db.WithContext(ctx).
		Where("contract_id = ? AND state = ?", contractID, payment.EventStateSubmitted).
		Order("posting_date ASC, created_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(eventModels), nil
}

// SumSubmittedByContract sums submitted receive amounts linked to a contract,
// excluding the given event ID.
func (r *GormPaymentEventRepository) SumSubmittedByContract(ctx context.Context, contractID, excludeID uuid.UUID) (valueobject.Money, error) {
	var sum decimal.NullDecimal
	query := r.db.WithContext(ctx).
		Model(&models.PaymentEventModel{}).
		Select("SUM(amount)").
		Where("contract_id = ? AND state = ? AND direction = ?",
			contractID, payment.EventStateSubmitted, payment.DirectionReceive)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Scan(&sum).Error; err != nil {
		return valueobject.Zero(), err
	}
	if !sum.Valid {
		return valueobject.Zero(), nil
	}
	return valueobject.NewMoney(sum.Decimal), nil
}

// FindByParty finds events for a party, newest first
func (r *GormPaymentEventRepository) FindByParty(ctx context.Context, partyType payment.PartyType, partyID uuid.UUID) ([]payment.PaymentEvent, error) {
	var eventModels []models.PaymentEventModel
	if err := r.db.WithContext(ctx).
		Where("party_type = ? AND party_id = ?", partyType, partyID).
		Order("posting_date DESC, created_at DESC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(eventModels), nil
}

// FindSubmittedByParty finds submitted events for a party, posting date ascending
func (r *GormPaymentEventRepository) FindSubmittedByParty(ctx context.Context, partyType payment.PartyType, partyID uuid.UUID) ([]payment.PaymentEvent, error) {
	var eventModels []models.PaymentEventModel
	if err := r.db.WithContext(ctx).
		Where("party_type = ? AND party_id = ? AND state = ?",
			partyType, partyID, payment.EventStateSubmitted).
		Order("posting_date ASC, created_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(eventModels), nil
}

// FindSubmittedBetween finds submitted events posted within [from, to],
// posting date ascending.
func (r *GormPaymentEventRepository) FindSubmittedBetween(ctx context.Context, from, to time.Time) ([]payment.PaymentEvent, error) {
	var eventModels []models.PaymentEventModel
	if err := r.db.WithContext(ctx).
		Where("state = ? AND posting_date >= ? AND posting_date <= ?",
			payment.EventStateSubmitted, from, to).
		Order("posting_date ASC, created_at ASC").
		Find(&eventModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(eventModels), nil
}

// AccountBalanceAsOf returns receives minus pays on the account over submitted
// events posted up to and including the given date.
func (r *GormPaymentEventRepository) AccountBalanceAsOf(ctx context.Context, accountID uuid.UUID, asOf time.Time) (valueobject.Money, error) {
	var balance decimal.NullDecimal
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentEventModel{}).
		Select("SUM(CASE WHEN direction = ? THEN amount ELSE -amount END)", payment.DirectionReceive).
		Where("account_id = ? AND state = ? AND posting_date <= ?",
			accountID, payment.EventStateSubmitted, asOf).
		Scan(&balance).Error; err != nil {
		return valueobject.Zero(), err
	}
	if !balance.Valid {
		return valueobject.Zero(), nil
	}
	return valueobject.NewMoney(balance.Decimal), nil
}

// Save creates or updates a payment event
func (r *GormPaymentEventRepository) Save(ctx context.Context, e *payment.PaymentEvent) error {
	model := &models.PaymentEventModel{}
	model.FromDomain(e)
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(model).Error
}

// NextNumber reserves the next document number in the direction's series
func (r *GormPaymentEventRepository) NextNumber(ctx context.Context, direction payment.Direction, year int) (string, error) {
	seq, err := nextSequence(ctx, r.db, seriesKey(direction.NumberPrefix(), year))
	if err != nil {
		return "", err
	}
	return payment.FormatNumber(direction, year, seq), nil
}

func (r *GormPaymentEventRepository) toDomainSlice(eventModels []models.PaymentEventModel) []payment.PaymentEvent {
	events := make([]payment.PaymentEvent, len(eventModels))
	for i := range eventModels {
		events[i] = *eventModels[i].ToDomain()
	}
	return events
}

// Ensure GormPaymentEventRepository implements the interface
var _ payment.EventRepository = (*GormPaymentEventRepository)(nil)
