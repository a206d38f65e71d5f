package repository

import (
	"context"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PurchaseRepository interface {
	Create(ctx context.Context, p *model.Purchase) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Purchase, error)
	// ListByProduct returns purchases newest first.
	ListByProduct(ctx context.Context, scope model.Scope) ([]model.Purchase, error)
	Update(ctx context.Context, p *model.Purchase) error
	Delete(ctx context.Context, p *model.Purchase, deletedBy string) error
	// CountByUnit counts live purchases recorded in unitID.
	CountByUnit(ctx context.Context, scope model.Scope, unitID uuid.UUID) (int64, error)
}

type purchaseRepo struct {
	db *gorm.DB
}

func NewPurchaseRepo(db *gorm.DB) PurchaseRepository {
	return &purchaseRepo{db}
}

func (r *purchaseRepo) Create(ctx context.Context, p *model.Purchase) error {
	return translate(r.db.WithContext(ctx).Create(p).Error)
}

func (r *purchaseRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Purchase, error) {
	var p model.Purchase
	if err := r.db.WithContext(ctx).First(&p, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, translate(err)
	}
	return &p, nil
}

func (r *purchaseRepo) ListByProduct(ctx context.Context, scope model.Scope) ([]model.Purchase, error) {
	var purchases []model.Purchase
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", scope.ProductID, scope.UserID).
		Order("purchase_date DESC, created_at DESC").
		Find(&purchases).Error
	return purchases, translate(err)
}

func (r *purchaseRepo) Update(ctx context.Context, p *model.Purchase) error {
	return translate(r.db.WithContext(ctx).Save(p).Error)
}

func (r *purchaseRepo) Delete(ctx context.Context, p *model.Purchase, deletedBy string) error {
	p.DeletedBy = deletedBy
	if err := r.db.WithContext(ctx).Model(p).Update("deleted_by", deletedBy).Error; err != nil {
		return translate(err)
	}
	return translate(r.db.WithContext(ctx).Delete(p).Error)
}

func (r *purchaseRepo) CountByUnit(ctx context.Context, scope model.Scope, unitID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Purchase{}).
		Where("product_id = ? AND user_id = ? AND unit_id = ?", scope.ProductID, scope.UserID, unitID).
		Count(&n).Error
	return n, translate(err)
}
