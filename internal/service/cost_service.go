package service

import (
	"context"
	"sort"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/pkg/unitgraph"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CostService interface {
	// WeightedUnitCost is the average acquisition cost per inventory unit of
	// the newest purchases that together cover the current stock.
	WeightedUnitCost(ctx context.Context, scope model.Scope) (float64, error)
}

type costService struct {
	store  repository.Store
	graphs GraphProvider
}

func NewCostService(store repository.Store, graphs GraphProvider) CostService {
	return &costService{store: store, graphs: graphs}
}

// converter expresses quantities of a scope in one target unit using a single graph snapshot.
type converter func(quantity float64, unitID uuid.UUID) (float64, error)

func newConverter(g *unitgraph.Graph, scope model.Scope, target uuid.UUID) converter {
	return func(quantity float64, unitID uuid.UUID) (float64, error) {
		if unitID == target {
			return quantity, nil
		}
		rate, err := rateIn(g, scope, unitID, target)
		if err != nil {
			return 0, err
		}
		return quantity * rate, nil
	}
}

func (s *costService) WeightedUnitCost(ctx context.Context, scope model.Scope) (float64, error) {
	repos := s.store.Repositories()
	inv, err := repos.Inventories.FindByScope(ctx, scope)
	if err != nil {
		return 0, inventoryErr(scope, err)
	}
	purchases, err := repos.Purchases.ListByProduct(ctx, scope)
	if err != nil {
		return 0, err
	}
	g, err := s.graphs.Graph(ctx, scope)
	if err != nil {
		return 0, err
	}
	return weightedUnitCost(inv.CurrentStock, purchases, newConverter(g, scope, inv.UnitID))
}

// weightedUnitCost walks purchases newest first and stops as soon as the
// converted quantity seen so far covers stock. Order prices are totals and are
// summed as-is; only quantities are converted.
func weightedUnitCost(stock float64, purchases []model.Purchase, toInventory converter) (float64, error) {
	ordered := make([]model.Purchase, len(purchases))
	copy(ordered, purchases)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].PurchaseDate.After(ordered[j].PurchaseDate)
	})

	var accQty float64
	accCost := decimal.Zero
	for _, p := range ordered {
		if accQty >= stock {
			break
		}
		q, err := toInventory(p.Quantity, p.UnitID)
		if err != nil {
			return 0, err
		}
		accQty += q
		accCost = accCost.Add(p.OrderPrice)
	}

	if accQty == 0 {
		return 0, nil
	}
	return accCost.InexactFloat64() / accQty, nil
}
