package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID     uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	UserID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_sku,priority:1" json:"userId"`

	SKU      string `gorm:"not null;uniqueIndex:idx_user_sku,priority:2" json:"sku"`
	Name     string `gorm:"not null" json:"name"`
	Category string `gorm:"default:'General'" json:"category"`

	CostPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"costPrice"`
	Price     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`

	Stock    int `gorm:"default:0" json:"stock"`
	MinStock int `gorm:"default:0" json:"minStock"`

	gorm.Model `json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// LowStock reports whether the product is at or below its restock threshold.
func (p *Product) LowStock() bool {
	return p.Stock <= p.MinStock
}
