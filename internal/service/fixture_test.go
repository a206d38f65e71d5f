package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go-stock-ledger/internal/cache"
	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository/memory"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.StockEvent
}

func (r *recordingPublisher) Publish(_ context.Context, e model.StockEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return nil
}

func (r *recordingPublisher) actions() []model.StockAction {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.StockAction, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Action)
	}
	return out
}

type fixture struct {
	ctx       context.Context
	store     *memory.Store
	cache     *cache.MemoryGraphCache
	conv      ConversionService
	inv       *inventoryService
	published *recordingPublisher
	userID    uuid.UUID
	scope     model.Scope
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	graphCache := cache.NewMemoryGraphCache(time.Minute)
	conv := NewConversionService(store, graphCache, zap.NewNop())
	published := &recordingPublisher{}
	userID := uuid.New()
	return &fixture{
		ctx:       context.Background(),
		store:     store,
		cache:     graphCache,
		conv:      conv,
		inv:       newInventoryService(store, conv, published, zap.NewNop()),
		published: published,
		userID:    userID,
		scope:     model.NewScope(uuid.New(), userID),
	}
}

func (f *fixture) unit(t *testing.T, name string) uuid.UUID {
	t.Helper()
	u, err := f.conv.CreateUnit(f.ctx, f.userID, &CreateUnitRequest{
		ProductID:    f.scope.ProductID,
		UnitType:     name,
		UnitCategory: model.UnitBuying,
	})
	require.NoError(t, err)
	return u.ID
}

func (f *fixture) edge(t *testing.T, from, to uuid.UUID, rate float64) {
	t.Helper()
	_, err := f.conv.SetConversion(f.ctx, f.userID, &SetConversionRequest{
		ProductID:      f.scope.ProductID,
		FromUnitID:     from,
		ToUnitID:       to,
		ConversionRate: rate,
	})
	require.NoError(t, err)
}

// kgAndGrams creates kg and g units joined by 1 kg = 1000 g.
func (f *fixture) kgAndGrams(t *testing.T) (kg, g uuid.UUID) {
	kg, g = f.unit(t, "kg"), f.unit(t, "g")
	f.edge(t, kg, g, 1000)
	return kg, g
}

func (f *fixture) create(t *testing.T, unitID uuid.UUID, stock float64) *model.Inventory {
	t.Helper()
	inv, err := f.inv.CreateInventory(f.ctx, f.userID, &CreateInventoryRequest{
		ProductID:    f.scope.ProductID,
		UnitID:       unitID,
		InitialStock: stock,
	})
	require.NoError(t, err)
	return inv
}

func (f *fixture) balance(t *testing.T) float64 {
	t.Helper()
	inv, err := f.inv.GetInventory(f.ctx, f.scope)
	require.NoError(t, err)
	return inv.CurrentStock
}

func (f *fixture) unitIn(t *testing.T, scope model.Scope, name string) uuid.UUID {
	t.Helper()
	u, err := f.conv.CreateUnit(f.ctx, scope.UserID, &CreateUnitRequest{
		ProductID:    scope.ProductID,
		UnitType:     name,
		UnitCategory: model.UnitSelling,
	})
	require.NoError(t, err)
	return u.ID
}
