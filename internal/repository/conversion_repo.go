package repository

import (
	"context"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ConversionEdgeRepository interface {
	// ListByScope returns edges in creation order; graph tie-breaking depends on it.
	ListByScope(ctx context.Context, scope model.Scope) ([]model.ConversionEdge, error)
	// FindPair finds the edge joining a and b in either direction.
	FindPair(ctx context.Context, scope model.Scope, a, b uuid.UUID) (*model.ConversionEdge, error)
	Save(ctx context.Context, edge *model.ConversionEdge) error
	DeletePair(ctx context.Context, scope model.Scope, a, b uuid.UUID) error
	DeleteByUnit(ctx context.Context, scope model.Scope, unitID uuid.UUID) error
}

type conversionEdgeRepo struct {
	db *gorm.DB
}

func NewConversionEdgeRepo(db *gorm.DB) ConversionEdgeRepository {
	return &conversionEdgeRepo{db}
}

func (r *conversionEdgeRepo) scoped(ctx context.Context, scope model.Scope) *gorm.DB {
	return r.db.WithContext(ctx).Model(&model.ConversionEdge{}).
		Where("product_id = ? AND user_id = ?", scope.ProductID, scope.UserID)
}

func (r *conversionEdgeRepo) ListByScope(ctx context.Context, scope model.Scope) ([]model.ConversionEdge, error) {
	var edges []model.ConversionEdge
	err := r.scoped(ctx, scope).Order("created_at ASC, id ASC").Find(&edges).Error
	return edges, translate(err)
}

func (r *conversionEdgeRepo) FindPair(ctx context.Context, scope model.Scope, a, b uuid.UUID) (*model.ConversionEdge, error) {
	var edge model.ConversionEdge
	err := r.scoped(ctx, scope).
		Where("(from_unit_id = ? AND to_unit_id = ?) OR (from_unit_id = ? AND to_unit_id = ?)", a, b, b, a).
		First(&edge).Error
	if err != nil {
		return nil, translate(err)
	}
	return &edge, nil
}

func (r *conversionEdgeRepo) Save(ctx context.Context, edge *model.ConversionEdge) error {
	if edge.ID == uuid.Nil {
		return translate(r.db.WithContext(ctx).Create(edge).Error)
	}
	return translate(r.db.WithContext(ctx).Save(edge).Error)
}

func (r *conversionEdgeRepo) DeletePair(ctx context.Context, scope model.Scope, a, b uuid.UUID) error {
	res := r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", scope.ProductID, scope.UserID).
		Where("(from_unit_id = ? AND to_unit_id = ?) OR (from_unit_id = ? AND to_unit_id = ?)", a, b, b, a).
		Delete(&model.ConversionEdge{})
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *conversionEdgeRepo) DeleteByUnit(ctx context.Context, scope model.Scope, unitID uuid.UUID) error {
	return translate(r.db.WithContext(ctx).
		Where("product_id = ? AND user_id = ?", scope.ProductID, scope.UserID).
		Where("from_unit_id = ? OR to_unit_id = ?", unitID, unitID).
		Delete(&model.ConversionEdge{}).Error)
}
