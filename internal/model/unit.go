package model

import "github.com/google/uuid"

type UnitCategory string

const (
	UnitBuying  UnitCategory = "buying"
	UnitSelling UnitCategory = "selling"
)

// Unit is a product-specific measurement unit (e.g. "crate", "piece").
type Unit struct {
	BaseModel
	ProductID      uuid.UUID    `gorm:"type:uuid;not null;index:idx_units_scope" json:"product_id"`
	UserID         uuid.UUID    `gorm:"type:uuid;not null;index:idx_units_scope" json:"user_id"`
	UnitType       string       `gorm:"type:varchar(50);not null" json:"unit_type"`
	UnitCategory   UnitCategory `gorm:"type:varchar(10);not null" json:"unit_category"`
	OppositeUnitID *uuid.UUID   `gorm:"type:uuid" json:"opposite_unit_id,omitempty"` // Unit it was compared against at creation
	Prepackaged    bool         `gorm:"default:false" json:"prepackaged"`
}

func (u *Unit) Scope() Scope {
	return NewScope(u.ProductID, u.UserID)
}
