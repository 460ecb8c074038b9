package models

import (
	"time"

	"github.com/cashflow/backend/internal/domain/installment"
	"github.com/cashflow/backend/internal/domain/shared"
	"github.com/cashflow/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ApplicationModel is the persistence model for the InstallmentApplication
// aggregate root.
type ApplicationModel struct {
	AggregateModel
	Number            string                       `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID        uuid.UUID                    `gorm:"type:uuid;not null;index"`
	TransactionDate   time.Time                    `gorm:"not null;index"`
	StartDate         time.Time                    `gorm:"not null"`
	MonthlyPaymentDay int                          `gorm:"not null"`
	Items             []ApplicationItemModel       `gorm:"foreignKey:ApplicationID;references:ID;constraint:OnDelete:CASCADE"`
	TotalAmount       valueobject.Money            `gorm:"type:decimal(18,2);not null"`
	DownpaymentAmount valueobject.Money            `gorm:"type:decimal(18,2);not null"`
	FinanceAmount     valueobject.Money            `gorm:"type:decimal(18,2);not null"`
	InstallmentMonths int                          `gorm:"not null"`
	MonthlyPayment    valueobject.Money            `gorm:"type:decimal(18,2);not null"`
	State             installment.ApplicationState `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	ContractID        *uuid.UUID                   `gorm:"type:uuid;index"`
	AmendedFromID     *uuid.UUID                   `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (ApplicationModel) TableName() string {
	return "installment_applications"
}

// ToDomain converts the persistence model to a domain InstallmentApplication.
func (m *ApplicationModel) ToDomain() *installment.InstallmentApplication {
	items := make([]installment.LineItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}

	ia := &installment.InstallmentApplication{
		Number:            m.Number,
		CustomerID:        m.CustomerID,
		TransactionDate:   m.TransactionDate,
		StartDate:         m.StartDate,
		MonthlyPaymentDay: m.MonthlyPaymentDay,
		Items:             items,
		TotalAmount:       m.TotalAmount,
		DownpaymentAmount: m.DownpaymentAmount,
		FinanceAmount:     m.FinanceAmount,
		InstallmentMonths: m.InstallmentMonths,
		MonthlyPayment:    m.MonthlyPayment,
		State:             m.State,
		ContractID:        m.ContractID,
		AmendedFromID:     m.AmendedFromID,
	}
	m.PopulateAggregateRoot(&ia.BaseAggregateRoot)
	return ia
}

// FromDomain populates the persistence model from a domain InstallmentApplication.
func (m *ApplicationModel) FromDomain(ia *installment.InstallmentApplication) {
	m.FromDomainAggregateRoot(ia.BaseAggregateRoot)
	m.Number = ia.Number
	m.CustomerID = ia.CustomerID
	m.TransactionDate = ia.TransactionDate
	m.StartDate = ia.StartDate
	m.MonthlyPaymentDay = ia.MonthlyPaymentDay
	m.TotalAmount = ia.TotalAmount
	m.DownpaymentAmount = ia.DownpaymentAmount
	m.FinanceAmount = ia.FinanceAmount
	m.InstallmentMonths = ia.InstallmentMonths
	m.MonthlyPayment = ia.MonthlyPayment
	m.State = ia.State
	m.ContractID = ia.ContractID
	m.AmendedFromID = ia.AmendedFromID

	m.Items = make([]ApplicationItemModel, len(ia.Items))
	for i := range ia.Items {
		m.Items[i].FromDomain(&ia.Items[i], ia.ID)
	}
}

// ApplicationItemModel is the persistence model for application line items.
type ApplicationItemModel struct {
	ID            uuid.UUID         `gorm:"type:uuid;primary_key"`
	ApplicationID uuid.UUID         `gorm:"type:uuid;not null;index"`
	ItemCode      string            `gorm:"type:varchar(100)"`
	ItemName      string            `gorm:"type:varchar(200);not null"`
	Qty           decimal.Decimal   `gorm:"type:decimal(12,3);not null"`
	Rate          valueobject.Money `gorm:"type:decimal(18,2);not null"`
	Amount        valueobject.Money `gorm:"type:decimal(18,2);not null"`
	SerialNo      string            `gorm:"type:varchar(100);index"`
	SupplierID    *uuid.UUID        `gorm:"type:uuid;index"`
	IsInterest    bool              `gorm:"not null;default:false"`
	Notes         string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ApplicationItemModel) TableName() string {
	return "installment_application_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *ApplicationItemModel) ToDomain() installment.LineItem {
	return installment.LineItem{
		ID:         m.ID,
		ItemCode:   m.ItemCode,
		ItemName:   m.ItemName,
		Qty:        m.Qty,
		Rate:       m.Rate,
		Amount:     m.Amount,
		SerialNo:   m.SerialNo,
		SupplierID: m.SupplierID,
		IsInterest: m.IsInterest,
		Notes:      m.Notes,
	}
}

// FromDomain populates the persistence model from a domain LineItem.
func (m *ApplicationItemModel) FromDomain(li *installment.LineItem, applicationID uuid.UUID) {
	m.ID = li.ID
	m.ApplicationID = applicationID
	m.ItemCode = li.ItemCode
	m.ItemName = li.ItemName
	m.Qty = li.Qty
	m.Rate = li.Rate
	m.Amount = li.Amount
	m.SerialNo = li.SerialNo
	m.SupplierID = li.SupplierID
	m.IsInterest = li.IsInterest
	m.Notes = li.Notes
}

// ContractModel is the persistence model for the Contract aggregate root.
type ContractModel struct {
	AggregateModel
	Number                 string                     `gorm:"type:varchar(50);not null;uniqueIndex"`
	ApplicationID          uuid.UUID                  `gorm:"type:uuid;not null;index"`
	CustomerID             uuid.UUID                  `gorm:"type:uuid;not null;index"`
	TransactionDate        time.Time                  `gorm:"not null;index"`
	ContractType           string                     `gorm:"type:varchar(50);not null"`
	Items                  []ContractItemModel        `gorm:"foreignKey:ContractID;references:ID;constraint:OnDelete:CASCADE"`
	Schedule               []ContractScheduleRowModel `gorm:"foreignKey:ContractID;references:ID;constraint:OnDelete:CASCADE"`
	DownpaymentAmount      valueobject.Money          `gorm:"type:decimal(18,2);not null"`
	TotalInterest          valueobject.Money          `gorm:"type:decimal(18,2);not null"`
	GrandTotalWithInterest valueobject.Money          `gorm:"type:decimal(18,2);not null"`
	AdvancePaid            valueobject.Money          `gorm:"type:decimal(18,2);not null"`
	UnallocatedAmount      valueobject.Money          `gorm:"type:decimal(18,2);not null"`
	NextPaymentDate        *time.Time                 `gorm:"index"`
	NextPaymentAmount      valueobject.Money          `gorm:"type:decimal(18,2);not null"`
	Status                 installment.ContractStatus `gorm:"type:varchar(20);not null;default:'ACTIVE';index"`
}

// TableName returns the table name for GORM
func (ContractModel) TableName() string {
	return "installment_contracts"
}

// ToDomain converts the persistence model to a domain Contract.
func (m *ContractModel) ToDomain() *installment.Contract {
	items := make([]installment.LineItem, len(m.Items))
	for i := range m.Items {
		items[i] = m.Items[i].ToDomain()
	}
	schedule := make([]installment.ScheduleRow, len(m.Schedule))
	for i := range m.Schedule {
		schedule[i] = m.Schedule[i].ToDomain()
	}

	c := &installment.Contract{
		Number:                 m.Number,
		ApplicationID:          m.ApplicationID,
		CustomerID:             m.CustomerID,
		TransactionDate:        m.TransactionDate,
		ContractType:           m.ContractType,
		Items:                  items,
		Schedule:               schedule,
		DownpaymentAmount:      m.DownpaymentAmount,
		TotalInterest:          m.TotalInterest,
		GrandTotalWithInterest: m.GrandTotalWithInterest,
		AdvancePaid:            m.AdvancePaid,
		UnallocatedAmount:      m.UnallocatedAmount,
		NextPaymentDate:        m.NextPaymentDate,
		NextPaymentAmount:      m.NextPaymentAmount,
		Status:                 m.Status,
	}
	m.PopulateAggregateRoot(&c.BaseAggregateRoot)
	return c
}

// FromDomain populates the persistence model from a domain Contract.
func (m *ContractModel) FromDomain(c *installment.Contract) {
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	m.Number = c.Number
	m.ApplicationID = c.ApplicationID
	m.CustomerID = c.CustomerID
	m.TransactionDate = c.TransactionDate
	m.ContractType = c.ContractType
	m.DownpaymentAmount = c.DownpaymentAmount
	m.TotalInterest = c.TotalInterest
	m.GrandTotalWithInterest = c.GrandTotalWithInterest
	m.AdvancePaid = c.AdvancePaid
	m.UnallocatedAmount = c.UnallocatedAmount
	m.NextPaymentDate = c.NextPaymentDate
	m.NextPaymentAmount = c.NextPaymentAmount
	m.Status = c.Status

	m.Items = make([]ContractItemModel, len(c.Items))
	for i := range c.Items {
		m.Items[i].FromDomain(&c.Items[i], c.ID)
	}
	m.Schedule = make([]ContractScheduleRowModel, len(c.Schedule))
	for i := range c.Schedule {
		m.Schedule[i].FromDomain(&c.Schedule[i], c.ID)
	}
}

// ContractItemModel is the persistence model for contract line items.
type ContractItemModel struct {
	ID         uuid.UUID         `gorm:"type:uuid;primary_key"`
	ContractID uuid.UUID         `gorm:"type:uuid;not null;index"`
	ItemCode   string            `gorm:"type:varchar(100)"`
	ItemName   string            `gorm:"type:varchar(200);not null"`
	Qty        decimal.Decimal   `gorm:"type:decimal(12,3);not null"`
	Rate       valueobject.Money `gorm:"type:decimal(18,2);not null"`
	Amount     valueobject.Money `gorm:"type:decimal(18,2);not null"`
	SerialNo   string            `gorm:"type:varchar(100);index"`
	SupplierID *uuid.UUID        `gorm:"type:uuid;index"`
	IsInterest bool              `gorm:"not null;default:false"`
	Notes      string            `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ContractItemModel) TableName() string {
	return "installment_contract_items"
}

// ToDomain converts the persistence model to a domain LineItem.
func (m *ContractItemModel) ToDomain() installment.LineItem {
	return installment.LineItem{
		ID:         m.ID,
		ItemCode:   m.ItemCode,
		ItemName:   m.ItemName,
		Qty:        m.Qty,
		Rate:       m.Rate,
		Amount:     m.Amount,
		SerialNo:   m.SerialNo,
		SupplierID: m.SupplierID,
		IsInterest: m.IsInterest,
		Notes:      m.Notes,
	}
}

// FromDomain populates the persistence model from a domain LineItem.
func (m *ContractItemModel) FromDomain(li *installment.LineItem, contractID uuid.UUID) {
	m.ID = li.ID
	m.ContractID = contractID
	m.ItemCode = li.ItemCode
	m.ItemName = li.ItemName
	m.Qty = li.Qty
	m.Rate = li.Rate
	m.Amount = li.Amount
	m.SerialNo = li.SerialNo
	m.SupplierID = li.SupplierID
	m.IsInterest = li.IsInterest
	m.Notes = li.Notes
}

// ContractScheduleRowModel is the persistence model for schedule rows.
type ContractScheduleRowModel struct {
	ID             uuid.UUID         `gorm:"type:uuid;primary_key"`
	ContractID     uuid.UUID         `gorm:"type:uuid;not null;uniqueIndex:idx_contract_schedule_row,priority:1"`
	Idx            int               `gorm:"not null;uniqueIndex:idx_contract_schedule_row,priority:2"`
	DueDate        time.Time         `gorm:"not null;index"`
	PaymentAmount  valueobject.Money `gorm:"type:decimal(18,2);not null"`
	PaidAmount     valueobject.Money `gorm:"type:decimal(18,2);not null"`
	InvoicePortion decimal.Decimal   `gorm:"type:decimal(9,4);not null"`
	Description    string            `gorm:"type:varchar(50);not null"`
}

// TableName returns the table name for GORM
func (ContractScheduleRowModel) TableName() string {
	return "installment_schedule_rows"
}

// ToDomain converts the persistence model to a domain ScheduleRow.
func (m *ContractScheduleRowModel) ToDomain() installment.ScheduleRow {
	return installment.ScheduleRow{
		Idx:            m.Idx,
		DueDate:        m.DueDate,
		PaymentAmount:  m.PaymentAmount,
		PaidAmount:     m.PaidAmount,
		InvoicePortion: m.InvoicePortion,
		Description:    m.Description,
	}
}

// FromDomain populates the persistence model from a domain ScheduleRow.
func (m *ContractScheduleRowModel) FromDomain(r *installment.ScheduleRow, contractID uuid.UUID) {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	m.ContractID = contractID
	m.Idx = r.Idx
	m.DueDate = r.DueDate
	m.PaymentAmount = r.PaymentAmount
	m.PaidAmount = r.PaidAmount
	m.InvoicePortion = r.InvoicePortion
	m.Description = r.Description
}

// NoteModel is the persistence model for contract notes.
type NoteModel struct {
	BaseModel
	ContractID uuid.UUID `gorm:"type:uuid;not null;index"`
	Category   string    `gorm:"type:varchar(50)"`
	Author     string    `gorm:"type:varchar(100)"`
	Body       string    `gorm:"type:text;not null"`
}

// TableName returns the table name for GORM
func (NoteModel) TableName() string {
	return "contract_notes"
}

// ToDomain converts the persistence model to a domain Note.
func (m *NoteModel) ToDomain() *installment.Note {
	return &installment.Note{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ContractID: m.ContractID,
		Category:   m.Category,
		Author:     m.Author,
		Body:       m.Body,
	}
}

// FromDomain populates the persistence model from a domain Note.
func (m *NoteModel) FromDomain(n *installment.Note) {
	m.FromDomainBaseEntity(n.BaseEntity)
	m.ContractID = n.ContractID
	m.Category = n.Category
	m.Author = n.Author
	m.Body = n.Body
}
