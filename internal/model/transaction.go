package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase is a historical fact. OrderPrice is the total paid for Quantity, not a unit price.
type Purchase struct {
	BaseModel
	ProductID    uuid.UUID       `gorm:"type:uuid;not null;index:idx_purchases_scope" json:"product_id"`
	UserID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_purchases_scope" json:"user_id"`
	UnitID       uuid.UUID       `gorm:"type:uuid;not null" json:"unit_id"`
	Quantity     float64         `gorm:"not null" json:"quantity"`
	OrderPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"order_price"`
	PurchaseDate time.Time       `gorm:"not null;index" json:"purchase_date"`
	SupplierName string          `gorm:"type:varchar(255)" json:"supplier_name,omitempty"`
	MarketName   string          `gorm:"type:varchar(255)" json:"market_name,omitempty"`
}

func (p *Purchase) Scope() Scope {
	return NewScope(p.ProductID, p.UserID)
}

// Sale is a historical fact. RetailPrice is per recorded unit.
type Sale struct {
	BaseModel
	ProductID   uuid.UUID           `gorm:"type:uuid;not null;index:idx_sales_scope" json:"product_id"`
	UserID      uuid.UUID           `gorm:"type:uuid;not null;index:idx_sales_scope" json:"user_id"`
	UnitID      uuid.UUID           `gorm:"type:uuid;not null" json:"unit_id"`
	Quantity    float64             `gorm:"not null" json:"quantity"`
	RetailPrice decimal.Decimal     `gorm:"type:decimal(20,4);not null" json:"retail_price"`
	Discount    decimal.NullDecimal `gorm:"type:decimal(20,4)" json:"discount"`
	SaleDate    time.Time           `gorm:"not null;index" json:"sale_date"`
	TransID     *uuid.UUID          `gorm:"type:uuid;index" json:"trans_id,omitempty"` // Groups lines of one checkout
}

func (s *Sale) Scope() Scope {
	return NewScope(s.ProductID, s.UserID)
}
