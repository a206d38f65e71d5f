package model

import (
	"time"

	"github.com/google/uuid"
)

type StockAction string

const (
	ActionInventoryCreated StockAction = "inventory_created"
	ActionInventoryDeleted StockAction = "inventory_deleted"
	ActionPurchaseApplied  StockAction = "purchase_applied"
	ActionSaleApplied      StockAction = "sale_applied"
	ActionRestocked        StockAction = "restocked"
	ActionReconciled       StockAction = "reconciled"
	ActionPurchaseEdited   StockAction = "purchase_edited"
	ActionPurchaseDeleted  StockAction = "purchase_deleted"
	ActionSaleEdited       StockAction = "sale_edited"
	ActionSaleDeleted      StockAction = "sale_deleted"
)

// StockEvent is emitted after a ledger mutation commits.
type StockEvent struct {
	Type       string      `json:"type"` // always "stock_update"
	Action     StockAction `json:"action"`
	ProductID  uuid.UUID   `json:"product_id"`
	UserID     uuid.UUID   `json:"user_id"`
	UnitID     uuid.UUID   `json:"unit_id"`
	OldStock   float64     `json:"old_stock"`
	NewStock   float64     `json:"new_stock"`
	BelowLimit bool        `json:"below_limit"`
	OccurredAt time.Time   `json:"occurred_at"`
}
