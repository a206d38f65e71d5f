package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ConversionEdge: 1 FromUnit = ConversionRate ToUnit.
// The pair is unordered; the reverse rate is always derived, never stored.
type ConversionEdge struct {
	ID             uuid.UUID `gorm:"type:uuid;primary_key;" json:"id"`
	ProductID      uuid.UUID `gorm:"type:uuid;not null;index:idx_edges_scope" json:"product_id"`
	UserID         uuid.UUID `gorm:"type:uuid;not null;index:idx_edges_scope" json:"user_id"`
	FromUnitID     uuid.UUID `gorm:"type:uuid;not null" json:"from_unit_id"`
	ToUnitID       uuid.UUID `gorm:"type:uuid;not null" json:"to_unit_id"`
	ConversionRate float64   `gorm:"not null" json:"conversion_rate"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (e *ConversionEdge) BeforeCreate(tx *gorm.DB) (err error) {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return
}

func (e *ConversionEdge) Scope() Scope {
	return NewScope(e.ProductID, e.UserID)
}

// Connects reports whether the edge joins a and b in either direction.
func (e *ConversionEdge) Connects(a, b uuid.UUID) bool {
	return (e.FromUnitID == a && e.ToUnitID == b) || (e.FromUnitID == b && e.ToUnitID == a)
}
