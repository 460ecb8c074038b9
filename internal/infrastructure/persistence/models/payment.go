package models

import (
	"time"

	"github.com/cashflow/backend/internal/domain/payment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// PaymentEventModel is the persistence model for the PaymentEvent aggregate root.
type PaymentEventModel struct {
	AggregateModel
	Number         string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Direction      payment.Direction `gorm:"type:varchar(10);not null;index"`
	PartyType      payment.PartyType `gorm:"type:varchar(15);not null;index:idx_payment_party,priority:1"`
	PartyID        uuid.UUID         `gorm:"type:uuid;not null;index:idx_payment_party,priority:2"`
	PostingDate    time.Time         `gorm:"not null;index"`
	Amount         valueobject.Money `gorm:"type:decimal(18,2);not null"`
	ModeOfPayment  string            `gorm:"type:varchar(50)"`
	AccountID      uuid.UUID         `gorm:"type:uuid;not null;index"`
	CategoryID     uuid.UUID         `gorm:"type:uuid;not null;index"`
	ContractID     *uuid.UUID        `gorm:"type:uuid;index"`
	ScheduleRowIdx *int
	PaymentMonth   string             `gorm:"type:varchar(50)"`
	Remarks        string             `gorm:"type:text"`
	State          payment.EventState `gorm:"type:varchar(15);not null;default:'DRAFT';index"`
}

// TableName returns the table name for GORM
func (PaymentEventModel) TableName() string {
	return "payment_events"
}

// ToDomain converts the persistence model to a domain PaymentEvent.
func (m *PaymentEventModel) ToDomain() *payment.PaymentEvent {
	e := &payment.PaymentEvent{
		Number:         m.Number,
		Direction:      m.Direction,
		PartyType:      m.PartyType,
		PartyID:        m.PartyID,
		PostingDate:    m.PostingDate,
		Amount:         m.Amount,
		ModeOfPayment:  m.ModeOfPayment,
		AccountID:      m.AccountID,
		CategoryID:     m.CategoryID,
		ContractID:     m.ContractID,
		ScheduleRowIdx: m.ScheduleRowIdx,
		PaymentMonth:   m.PaymentMonth,
		Remarks:        m.Remarks,
		State:          m.State,
	}
	m.PopulateAggregateRoot(&e.BaseAggregateRoot)
	return e
}

// FromDomain populates the persistence model from a domain PaymentEvent.
func (m *PaymentEventModel) FromDomain(e *payment.PaymentEvent) {
	m.FromDomainAggregateRoot(e.BaseAggregateRoot)
	m.Number = e.Number
	m.Direction = e.Direction
	m.PartyType = e.PartyType
	m.PartyID = e.PartyID
	m.PostingDate = e.PostingDate
	m.Amount = e.Amount
	m.ModeOfPayment = e.ModeOfPayment
	m.AccountID = e.AccountID
	m.CategoryID = e.CategoryID
	m.ContractID = e.ContractID
	m.ScheduleRowIdx = e.ScheduleRowIdx
	m.PaymentMonth = e.PaymentMonth
	m.Remarks = e.Remarks
	m.State = e.State
}

// CategoryModel is the persistence model for counterparty categories.
type CategoryModel struct {
	BaseModel
	Name        string               `gorm:"type:varchar(100);not null;uniqueIndex"`
	Type        payment.CategoryType `gorm:"type:varchar(10);not null;index"`
	ExpenseKind string               `gorm:"type:varchar(50)"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "counterparty_categories"
}

// ToDomain converts the persistence model to a domain CounterpartyCategory.
func (m *CategoryModel) ToDomain() *payment.CounterpartyCategory {
	return &payment.CounterpartyCategory{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Name:        m.Name,
		Type:        m.Type,
		ExpenseKind: m.ExpenseKind,
	}
}

// FromDomain populates the persistence model from a domain CounterpartyCategory.
func (m *CategoryModel) FromDomain(c *payment.CounterpartyCategory) {
	m.FromDomainBaseEntity(c.BaseEntity)
	m.Name = c.Name
	m.Type = c.Type
	m.ExpenseKind = c.ExpenseKind
}

// CashAccountModel is the persistence model for cash accounts.
type CashAccountModel struct {
	BaseModel
	Code string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name string `gorm:"type:varchar(100);not null"`
}

// TableName returns the table name for GORM
func (CashAccountModel) TableName() string {
	return "cash_accounts"
}

// ToDomain converts the persistence model to a domain CashAccount.
func (m *CashAccountModel) ToDomain() *payment.CashAccount {
	return &payment.CashAccount{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Code: m.Code,
		Name: m.Name,
	}
}

// FromDomain populates the persistence model from a domain CashAccount.
func (m *CashAccountModel) FromDomain(a *payment.CashAccount) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Code = a.Code
	m.Name = a.Name
}
