package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Inventory is the single stock balance of a product for a user, denominated in UnitID.
// Hard-deleted when stock tracking is removed so the scope can be tracked again.
type Inventory struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventories_scope" json:"product_id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_inventories_scope" json:"user_id"`
	UnitID       uuid.UUID `gorm:"type:uuid;not null" json:"unit_id"`
	ShopName     string    `gorm:"type:varchar(255)" json:"shop_name"`
	CurrentStock float64   `gorm:"not null;default:0" json:"current_stock"`
	StockLimit   float64   `gorm:"not null;default:0" json:"stock_limit"` // Reminder threshold, same unit
	Version      int64     `gorm:"not null;default:1" json:"version"`     // Optimistic concurrency
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	CreatedBy    string    `json:"created_by"`
	UpdatedBy    string    `json:"updated_by"`
}

func (i *Inventory) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Version == 0 {
		i.Version = 1
	}
	return
}

func (i *Inventory) Scope() Scope {
	return NewScope(i.ProductID, i.UserID)
}

func (i *Inventory) BelowLimit() bool {
	return i.CurrentStock < i.StockLimit
}
