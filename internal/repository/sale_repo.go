package repository

import (
	"context"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SaleRepository interface {
	Create(ctx context.Context, s *model.Sale) error
	FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Sale, error)
	// ListByProduct returns sales newest first.
	ListByProduct(ctx context.Context, scope model.Scope) ([]model.Sale, error)
	ListByTrans(ctx context.Context, userID, transID uuid.UUID) ([]model.Sale, error)
	Update(ctx context.Context, s *model.Sale) error
	Delete(ctx context.Context, s *model.Sale, deletedBy string) error
	CountByUnit(ctx context.Context, scope model.Scope, unitID uuid.UUID) (int64, error)
}

type saleRepo struct {
	db *gorm.DB
}

func NewSaleRepo(db *gorm.DB) SaleRepository {
	return &saleRepo{db}
}

func (r *saleRepo) Create(ctx context.Context, s *model.Sale) error {
	return translate(r.db.WithContext(ctx).Create(s).Error)
}

func (r *saleRepo) FindByID(ctx context.Context, userID, id uuid.UUID) (*model.Sale, error) {
	var s model.Sale
	if err := r.db.WithContext(ctx).First(&s, "id = ? AND user_id = ?", id, userID).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

func (r *saleRepo) ListByProduct(ctx context.Context, scope model.Scope) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", scope.ProductID, scope.UserID).
		Order("sale_date DESC, created_at DESC").
		Find(&sales).Error
	return sales, translate(err)
}

func (r *saleRepo) ListByTrans(ctx context.Context, userID, transID uuid.UUID) ([]model.Sale, error) {
	var sales []model.Sale
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND trans_id = ?", userID, transID).
		Order("created_at ASC").
		Find(&sales).Error
	return sales, translate(err)
}

func (r *saleRepo) Update(ctx context.Context, s *model.Sale) error {
	return translate(r.db.WithContext(ctx).Save(s).Error)
}

func (r *saleRepo) Delete(ctx context.Context, s *model.Sale, deletedBy string) error {
	s.DeletedBy = deletedBy
	if err := r.db.WithContext(ctx).Model(s).Update("deleted_by", deletedBy).Error; err != nil {
		return translate(err)
	}
	return translate(r.db.WithContext(ctx).Delete(s).Error)
}

func (r *saleRepo) CountByUnit(ctx context.Context, scope model.Scope, unitID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Sale{}).
		Where("product_id = ? AND user_id = ? AND unit_id = ?", scope.ProductID, scope.UserID, unitID).
		Count(&n).Error
	return n, translate(err)
}
