package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	StatusPending PaymentStatus = "PENDING"
	StatusPartial PaymentStatus = "PARTIAL"
	StatusPaid    PaymentStatus = "PAID"
)

const (
	SaleTypeCash   = "cash"
	SaleTypeCredit = "credit"
)

// Sale is one sold item, cash or credit. CustomerID is nil for walk-in
// counter sales. TotalCost freezes the product's unit cost at sale time so
// later cost-price edits never change historical profit.
type Sale struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;index;not null" json:"userId"`

	CustomerID *uuid.UUID `gorm:"type:uuid;index" json:"customerId"`
	ProductID  *uuid.UUID `gorm:"type:uuid;index" json:"productId"`

	Description string `gorm:"not null" json:"description"`

	BaseAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"baseAmount"`
	Discount      decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"discount"`
	TotalAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`
	CardFeeRate   decimal.Decimal `gorm:"type:decimal(6,2);default:0" json:"cardFeeRate"`
	CardFeeAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"cardFeeAmount"`
	NetAmount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"netAmount"`
	TotalCost     decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"totalCost"`

	SaleDate    time.Time     `gorm:"not null" json:"date"`
	Type        string        `gorm:"type:varchar(10);not null" json:"type"`
	Status      PaymentStatus `gorm:"type:varchar(10);not null;default:'PENDING'" json:"status"`
	UpdateStock bool          `json:"updateStock"`

	Installments []Installment `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"installments"`
}

func (s *Sale) BeforeCreate(tx *gorm.DB) (err error) {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return
}

// IsWalkIn reports whether the sale is an anonymous counter sale.
func (s *Sale) IsWalkIn() bool {
	return s.CustomerID == nil
}

// Installment is one scheduled receivable of a sale. Created together with its
// sale, never independently. PaidAmount is either zero or the full amount; the
// payment API is a pay/unpay toggle, so the PARTIAL status exists in the type
// but is only ever derived at the sale level.
type Installment struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	SaleID uuid.UUID `gorm:"type:uuid;index;not null" json:"saleId"`

	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaidAmount decimal.Decimal `gorm:"type:decimal(12,2);default:0" json:"paidAmount"`
	DueDate    time.Time       `gorm:"not null" json:"dueDate"`
	Status     PaymentStatus   `gorm:"type:varchar(10);not null;default:'PENDING'" json:"status"`
}

func (i *Installment) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
