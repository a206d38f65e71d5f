package service

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateInventoryRequest struct {
	ProductID    uuid.UUID `json:"product_id" validate:"uuid_required"`
	UnitID       uuid.UUID `json:"unit_id" validate:"uuid_required"`
	ShopName     string    `json:"shop_name" validate:"max=255"`
	InitialStock float64   `json:"initial_stock"`
	StockLimit   float64   `json:"stock_limit"`
}

type StockChangeRequest struct {
	Quantity float64   `json:"quantity"`
	UnitID   uuid.UUID `json:"unit_id" validate:"uuid_required"`
}

type PurchaseRequest struct {
	ProductID    uuid.UUID       `json:"product_id" validate:"uuid_required"`
	UnitID       uuid.UUID       `json:"unit_id" validate:"uuid_required"`
	Quantity     float64         `json:"quantity"`
	OrderPrice   decimal.Decimal `json:"order_price"` // total for Quantity
	PurchaseDate time.Time       `json:"purchase_date"`
	SupplierName string          `json:"supplier_name" validate:"max=255"`
	MarketName   string          `json:"market_name" validate:"max=255"`
}

type SaleRequest struct {
	ProductID   uuid.UUID           `json:"product_id" validate:"uuid_required"`
	UnitID      uuid.UUID           `json:"unit_id" validate:"uuid_required"`
	Quantity    float64             `json:"quantity"`
	RetailPrice decimal.Decimal     `json:"retail_price"` // per unit
	Discount    decimal.NullDecimal `json:"discount"`
	SaleDate    time.Time           `json:"sale_date"`
	TransID     *uuid.UUID          `json:"trans_id"`
}
