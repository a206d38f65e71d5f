package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go-stock-ledger/internal/cache"
	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/pkg/unitgraph"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var ErrUnitInUse = errors.New("unit is used by the inventory or by recorded purchases or sales")

// GraphProvider returns the conversion graph of a scope.
type GraphProvider interface {
	Graph(ctx context.Context, scope model.Scope) (*unitgraph.Graph, error)
}

// RateResolver answers "1 unit of from is how many units of to" within a scope.
type RateResolver interface {
	ResolveRate(ctx context.Context, scope model.Scope, from, to uuid.UUID) (float64, error)
}

type ConversionService interface {
	GraphProvider
	RateResolver
	Convert(ctx context.Context, scope model.Scope, quantity float64, from, to uuid.UUID) (float64, error)
	// ConvertUnits derives the scope from the source unit.
	ConvertUnits(ctx context.Context, userID uuid.UUID, quantity float64, from, to uuid.UUID) (float64, error)

	CreateUnit(ctx context.Context, userID uuid.UUID, req *CreateUnitRequest) (*model.Unit, error)
	ListUnits(ctx context.Context, scope model.Scope) ([]model.Unit, error)
	DeleteUnit(ctx context.Context, userID, unitID uuid.UUID) error

	SetConversion(ctx context.Context, userID uuid.UUID, req *SetConversionRequest) (*model.ConversionEdge, error)
	ListConversions(ctx context.Context, scope model.Scope) ([]model.ConversionEdge, error)
	RemoveConversion(ctx context.Context, scope model.Scope, a, b uuid.UUID) error
	Invalidate(ctx context.Context, scope model.Scope)
}

type CreateUnitRequest struct {
	ProductID    uuid.UUID          `json:"product_id" validate:"uuid_required"`
	UnitType     string             `json:"unit_type" validate:"required,max=50"`
	UnitCategory model.UnitCategory `json:"unit_category" validate:"required,oneof=buying selling"`
	Prepackaged  bool               `json:"prepackaged"`
	// When set, an edge "1 new unit = ConversionRate opposite units" is stored with the unit.
	OppositeUnitID *uuid.UUID `json:"opposite_unit_id"`
	ConversionRate *float64   `json:"conversion_rate" validate:"omitempty,gt=0,finite"`
}

type SetConversionRequest struct {
	ProductID      uuid.UUID `json:"product_id" validate:"uuid_required"`
	FromUnitID     uuid.UUID `json:"from_unit_id" validate:"uuid_required"`
	ToUnitID       uuid.UUID `json:"to_unit_id" validate:"uuid_required"`
	ConversionRate float64   `json:"conversion_rate" validate:"gt=0,finite"`
}

type conversionService struct {
	store  repository.Store
	cache  cache.GraphCache
	logger *zap.Logger
}

func NewConversionService(store repository.Store, graphCache cache.GraphCache, logger *zap.Logger) ConversionService {
	return &conversionService{store: store, cache: graphCache, logger: logger}
}

func (s *conversionService) Graph(ctx context.Context, scope model.Scope) (*unitgraph.Graph, error) {
	g, err := s.cache.Get(ctx, scope)
	if err == nil {
		return g, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Graph cache read failed, rebuilding", zap.String("scope", scope.Key()), zap.Error(err))
	}

	rows, err := s.store.Repositories().Edges.ListByScope(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("list conversion edges: %w", err)
	}
	edges := make([]unitgraph.Edge, 0, len(rows))
	for _, r := range rows {
		edges = append(edges, unitgraph.Edge{From: r.FromUnitID, To: r.ToUnitID, Rate: r.ConversionRate})
	}
	g, err = unitgraph.New(edges)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConversionRate, err)
	}

	if err := s.cache.Set(ctx, scope, g); err != nil {
		s.logger.Warn("Graph cache write failed", zap.String("scope", scope.Key()), zap.Error(err))
	}
	return g, nil
}

func (s *conversionService) ResolveRate(ctx context.Context, scope model.Scope, from, to uuid.UUID) (float64, error) {
	if from == to {
		return 1, nil
	}
	g, err := s.Graph(ctx, scope)
	if err != nil {
		return 0, err
	}
	return rateIn(g, scope, from, to)
}

func rateIn(g *unitgraph.Graph, scope model.Scope, from, to uuid.UUID) (float64, error) {
	rate, ok := g.Rate(from, to)
	if !ok {
		return 0, &NoConversionPathError{ProductID: scope.ProductID, UserID: scope.UserID, FromUnitID: from, ToUnitID: to}
	}
	return rate, nil
}

func (s *conversionService) Convert(ctx context.Context, scope model.Scope, quantity float64, from, to uuid.UUID) (float64, error) {
	if err := checkQuantity("quantity", quantity); err != nil {
		return 0, err
	}
	rate, err := s.ResolveRate(ctx, scope, from, to)
	if err != nil {
		return 0, err
	}
	return quantity * rate, nil
}

func (s *conversionService) ConvertUnits(ctx context.Context, userID uuid.UUID, quantity float64, from, to uuid.UUID) (float64, error) {
	src, err := s.ownedUnit(ctx, s.store.Repositories(), userID, from)
	if err != nil {
		return 0, err
	}
	if from != to {
		dst, err := s.ownedUnit(ctx, s.store.Repositories(), userID, to)
		if err != nil {
			return 0, err
		}
		if dst.ProductID != src.ProductID {
			return 0, ErrUnitNotInScope
		}
	}
	return s.Convert(ctx, src.Scope(), quantity, from, to)
}

// ownedUnit loads a unit and checks it belongs to userID.
func (s *conversionService) ownedUnit(ctx context.Context, repos repository.Repositories, userID, unitID uuid.UUID) (*model.Unit, error) {
	unit, err := repos.Units.FindByID(ctx, unitID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUnitNotInScope
	}
	if err != nil {
		return nil, err
	}
	if unit.UserID != userID {
		return nil, ErrUnitNotInScope
	}
	return unit, nil
}

func (s *conversionService) CreateUnit(ctx context.Context, userID uuid.UUID, req *CreateUnitRequest) (*model.Unit, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if (req.OppositeUnitID == nil) != (req.ConversionRate == nil) {
		return nil, fmt.Errorf("%w: opposite_unit_id and conversion_rate go together", ErrValidation)
	}

	unit := &model.Unit{
		ProductID:      req.ProductID,
		UserID:         userID,
		UnitType:       req.UnitType,
		UnitCategory:   req.UnitCategory,
		OppositeUnitID: req.OppositeUnitID,
		Prepackaged:    req.Prepackaged,
	}
	unit.CreatedBy = userID.String()
	unit.UpdatedBy = userID.String()

	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		if req.OppositeUnitID != nil {
			opposite, err := s.ownedUnit(ctx, repos, userID, *req.OppositeUnitID)
			if err != nil {
				return err
			}
			if opposite.ProductID != req.ProductID {
				return ErrUnitNotInScope
			}
		}
		if err := repos.Units.Create(ctx, unit); err != nil {
			return err
		}
		if req.OppositeUnitID == nil {
			return nil
		}
		return repos.Edges.Save(ctx, &model.ConversionEdge{
			ProductID:      req.ProductID,
			UserID:         userID,
			FromUnitID:     unit.ID,
			ToUnitID:       *req.OppositeUnitID,
			ConversionRate: *req.ConversionRate,
		})
	})
	if err != nil {
		return nil, err
	}

	if req.OppositeUnitID != nil {
		s.Invalidate(ctx, unit.Scope())
	}
	return unit, nil
}

func (s *conversionService) ListUnits(ctx context.Context, scope model.Scope) ([]model.Unit, error) {
	return s.store.Repositories().Units.ListByScope(ctx, scope)
}

func (s *conversionService) DeleteUnit(ctx context.Context, userID, unitID uuid.UUID) error {
	var scope model.Scope
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		unit, err := s.ownedUnit(ctx, repos, userID, unitID)
		if err != nil {
			return err
		}
		scope = unit.Scope()

		inv, err := repos.Inventories.FindByScope(ctx, scope)
		if err == nil && inv.UnitID == unitID {
			return ErrUnitInUse
		}
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		// Records keep their own unit; without it they could never be converted again.
		purchases, err := repos.Purchases.CountByUnit(ctx, scope, unitID)
		if err != nil {
			return err
		}
		sales, err := repos.Sales.CountByUnit(ctx, scope, unitID)
		if err != nil {
			return err
		}
		if purchases+sales > 0 {
			return ErrUnitInUse
		}

		if err := repos.Edges.DeleteByUnit(ctx, scope, unitID); err != nil {
			return err
		}
		return repos.Units.Delete(ctx, unitID, userID.String())
	})
	if err != nil {
		return err
	}
	s.Invalidate(ctx, scope)
	return nil
}

func (s *conversionService) SetConversion(ctx context.Context, userID uuid.UUID, req *SetConversionRequest) (*model.ConversionEdge, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if req.FromUnitID == req.ToUnitID {
		return nil, fmt.Errorf("%w: a unit cannot convert to itself", ErrValidation)
	}
	scope := model.NewScope(req.ProductID, userID)

	var edge *model.ConversionEdge
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		for _, id := range []uuid.UUID{req.FromUnitID, req.ToUnitID} {
			unit, err := s.ownedUnit(ctx, repos, userID, id)
			if err != nil {
				return err
			}
			if unit.ProductID != req.ProductID {
				return ErrUnitNotInScope
			}
		}

		existing, err := repos.Edges.FindPair(ctx, scope, req.FromUnitID, req.ToUnitID)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			edge = &model.ConversionEdge{ProductID: req.ProductID, UserID: userID}
		case err != nil:
			return err
		default:
			// A stored reverse edge is rewritten in the requested direction.
			edge = existing
		}
		edge.FromUnitID = req.FromUnitID
		edge.ToUnitID = req.ToUnitID
		edge.ConversionRate = req.ConversionRate
		return repos.Edges.Save(ctx, edge)
	})
	if err != nil {
		return nil, err
	}

	s.Invalidate(ctx, scope)
	return edge, nil
}

func (s *conversionService) ListConversions(ctx context.Context, scope model.Scope) ([]model.ConversionEdge, error) {
	return s.store.Repositories().Edges.ListByScope(ctx, scope)
}

func (s *conversionService) RemoveConversion(ctx context.Context, scope model.Scope, a, b uuid.UUID) error {
	if err := s.store.Repositories().Edges.DeletePair(ctx, scope, a, b); err != nil {
		return err
	}
	s.Invalidate(ctx, scope)
	return nil
}

func (s *conversionService) Invalidate(ctx context.Context, scope model.Scope) {
	if err := s.cache.Invalidate(ctx, scope); err != nil {
		s.logger.Warn("Graph cache invalidation failed", zap.String("scope", scope.Key()), zap.Error(err))
	}
}

// checkQuantity rejects negative and non-finite input.
func checkQuantity(field string, v float64) error {
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return &InvalidQuantityError{Field: field, Value: v}
	}
	return nil
}
