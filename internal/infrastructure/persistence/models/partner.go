package models

import (
	"github.com/cashflow/backend/internal/domain/partner"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// CustomerModel is the persistence model for the Customer aggregate root.
type CustomerModel struct {
	AggregateModel
	Code           string                 `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name           string                 `gorm:"type:varchar(200);not null;index"`
	Phone          string                 `gorm:"type:varchar(30)"`
	Classification partner.Classification `gorm:"type:varchar(1);not null;default:'A';index"`
	TotalDebt      valueobject.Money      `gorm:"type:decimal(18,2);not null"`
	CustomerGroup  string                 `gorm:"type:varchar(100)"`
	Remarks        string                 `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer entity.
func (m *CustomerModel) ToDomain() *partner.Customer {
	c := &partner.Customer{
		Code:           m.Code,
		Name:           m.Name,
		Phone:          m.Phone,
		Classification: m.Classification,
		TotalDebt:      m.TotalDebt,
		Group:          m.CustomerGroup,
		Remarks:        m.Remarks,
	}
	m.PopulateAggregateRoot(&c.BaseAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Customer entity.
func (m *CustomerModel) FromDomain(c *partner.Customer) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Code = c.Code
	m.Name = c.Name
	m.Phone = c.Phone
	m.Classification = c.Classification
	m.TotalDebt = c.TotalDebt
	m.CustomerGroup = c.Group
	m.Remarks = c.Remarks
}

// CustomerAuditModel is the persistence model for classification audit entries.
type CustomerAuditModel struct {
	BaseModel
	CustomerID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Comment     string    `gorm:"type:varchar(200);not null"`
	DaysOverdue int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerAuditModel) TableName() string {
	return "customer_classification_audit"
}

// ToDomain converts the persistence model to a domain AuditEntry.
func (m *CustomerAuditModel) ToDomain() *partner.AuditEntry {
	return &partner.AuditEntry{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		CustomerID:  m.CustomerID,
		Comment:     m.Comment,
		DaysOverdue: m.DaysOverdue,
	}
}

// FromDomain populates the persistence model from a domain AuditEntry.
func (m *CustomerAuditModel) FromDomain(e *partner.AuditEntry) {
	m.FromDomainBaseEntity(e.BaseEntity)
	m.CustomerID = e.CustomerID
	m.Comment = e.Comment
	m.DaysOverdue = e.DaysOverdue
}

// SupplierModel is the persistence model for the Supplier aggregate root.
type SupplierModel struct {
	AggregateModel
	Code          string            `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name          string            `gorm:"type:varchar(200);not null;index"`
	SupplierGroup string            `gorm:"type:varchar(100)"`
	TotalDebt     valueobject.Money `gorm:"type:decimal(18,2);not null"`
	PaidAmount    valueobject.Money `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (SupplierModel) TableName() string {
	return "suppliers"
}

// ToDomain converts the persistence model to a domain Supplier entity.
func (m *SupplierModel) ToDomain() *partner.Supplier {
	s := &partner.Supplier{
		Code:       m.Code,
		Name:       m.Name,
		Group:      m.SupplierGroup,
		TotalDebt:  m.TotalDebt,
		PaidAmount: m.PaidAmount,
	}
	m.PopulateAggregateRoot(&s.BaseAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain Supplier entity.
func (m *SupplierModel) FromDomain(s *partner.Supplier) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.Code = s.Code
	m.Name = s.Name
	m.SupplierGroup = s.Group
	m.TotalDebt = s.TotalDebt
	m.PaidAmount = s.PaidAmount
}
