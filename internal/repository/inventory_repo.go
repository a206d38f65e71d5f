package repository

import (
	"context"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InventoryRepository interface {
	FindByScope(ctx context.Context, scope model.Scope) (*model.Inventory, error)
	// FindByScopeForUpdate takes a row lock where the dialect supports one.
	FindByScopeForUpdate(ctx context.Context, scope model.Scope) (*model.Inventory, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Inventory, error)
	Create(ctx context.Context, inv *model.Inventory) error
	// UpdateBalance writes newStock only if inv.Version is still current, then
	// advances inv in place. Returns ErrStaleRecord on a version mismatch.
	UpdateBalance(ctx context.Context, inv *model.Inventory, newStock float64, updatedBy string) error
	UpdateLimit(ctx context.Context, scope model.Scope, limit float64, updatedBy string) error
	Delete(ctx context.Context, scope model.Scope) error
}

type inventoryRepo struct {
	db *gorm.DB
}

func NewInventoryRepo(db *gorm.DB) InventoryRepository {
	return &inventoryRepo{db}
}

func (r *inventoryRepo) findByScope(ctx context.Context, scope model.Scope, lock bool) (*model.Inventory, error) {
	q := r.db.WithContext(ctx)
	// SQLite has no row locks; the version column still catches lost updates there.
	if lock && r.db.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var inv model.Inventory
	if err := q.First(&inv, "product_id = ? AND user_id = ?", scope.ProductID, scope.UserID).Error; err != nil {
		return nil, translate(err)
	}
	return &inv, nil
}

func (r *inventoryRepo) FindByScope(ctx context.Context, scope model.Scope) (*model.Inventory, error) {
	return r.findByScope(ctx, scope, false)
}

func (r *inventoryRepo) FindByScopeForUpdate(ctx context.Context, scope model.Scope) (*model.Inventory, error) {
	return r.findByScope(ctx, scope, true)
}

func (r *inventoryRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]model.Inventory, error) {
	var invs []model.Inventory
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at ASC").Find(&invs).Error
	return invs, translate(err)
}

func (r *inventoryRepo) Create(ctx context.Context, inv *model.Inventory) error {
	return translate(r.db.WithContext(ctx).Create(inv).Error)
}

func (r *inventoryRepo) UpdateBalance(ctx context.Context, inv *model.Inventory, newStock float64, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Inventory{}).
		Where("id = ? AND version = ?", inv.ID, inv.Version).
		Updates(map[string]interface{}{
			"current_stock": newStock,
			"version":       gorm.Expr("version + 1"),
			"updated_by":    updatedBy,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStaleRecord
	}
	inv.CurrentStock = newStock
	inv.Version++
	inv.UpdatedBy = updatedBy
	return nil
}

func (r *inventoryRepo) UpdateLimit(ctx context.Context, scope model.Scope, limit float64, updatedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Inventory{}).
		Where("product_id = ? AND user_id = ?", scope.ProductID, scope.UserID).
		Updates(map[string]interface{}{
			"stock_limit": limit,
			"updated_by":  updatedBy,
		})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *inventoryRepo) Delete(ctx context.Context, scope model.Scope) error {
	res := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", scope.ProductID, scope.UserID).
		Delete(&model.Inventory{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
