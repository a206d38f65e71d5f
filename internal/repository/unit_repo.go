package repository

import (
	"context"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UnitRepository interface {
	Create(ctx context.Context, unit *model.Unit) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error)
	ListByScope(ctx context.Context, scope model.Scope) ([]model.Unit, error)
	Delete(ctx context.Context, id uuid.UUID, deletedBy string) error
}

type unitRepo struct {
	db *gorm.DB
}

func NewUnitRepo(db *gorm.DB) UnitRepository {
	return &unitRepo{db}
}

func (r *unitRepo) Create(ctx context.Context, unit *model.Unit) error {
	return translate(r.db.WithContext(ctx).Create(unit).Error)
}

func (r *unitRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Unit, error) {
	var unit model.Unit
	if err := r.db.WithContext(ctx).First(&unit, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &unit, nil
}

func (r *unitRepo) ListByScope(ctx context.Context, scope model.Scope) ([]model.Unit, error) {
	var units []model.Unit
	err := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", scope.ProductID, scope.UserID).
		Order("created_at ASC").
		Find(&units).Error
	return units, translate(err)
}

func (r *unitRepo) Delete(ctx context.Context, id uuid.UUID, deletedBy string) error {
	res := r.db.WithContext(ctx).Model(&model.Unit{}).Where("id = ?", id).Update("deleted_by", deletedBy)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return translate(r.db.WithContext(ctx).Delete(&model.Unit{}, "id = ?", id).Error)
}
