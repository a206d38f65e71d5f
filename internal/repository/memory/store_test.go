package memory

import (
	"context"
	"testing"
	"time"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_TransactionRestoresSnapshot(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	inv := &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New(), CurrentStock: 3}
	require.NoError(t, s.Repositories().Inventories.Create(ctx, inv))

	err := s.Transaction(ctx, func(repos repository.Repositories) error {
		cur, err := repos.Inventories.FindByScopeForUpdate(ctx, scope)
		require.NoError(t, err)
		require.NoError(t, repos.Inventories.UpdateBalance(ctx, cur, 100, "u"))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	got, err := s.Repositories().Inventories.FindByScope(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 3.0, got.CurrentStock)
	assert.Equal(t, int64(1), got.Version)
}

func TestStore_RollbackKeepsWritesMadeOutsideTransaction(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())
	require.NoError(t, s.Repositories().Inventories.Create(ctx, &model.Inventory{
		ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New(),
	}))

	inTx := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- s.Transaction(ctx, func(repos repository.Repositories) error {
			close(inTx)
			<-release
			return assert.AnError
		})
	}()
	<-inTx

	written := make(chan error, 1)
	go func() {
		written <- s.Repositories().Inventories.UpdateLimit(ctx, scope, 7, "u")
	}()

	select {
	case <-written:
		t.Fatal("write outside the transaction did not wait for it")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	assert.ErrorIs(t, <-txDone, assert.AnError)
	require.NoError(t, <-written)

	got, err := s.Repositories().Inventories.FindByScope(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 7.0, got.StockLimit)
}

func TestInventoryRepo_VersionAndDuplicate(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repositories()
	scope := model.NewScope(uuid.New(), uuid.New())

	inv := &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New()}
	require.NoError(t, repos.Inventories.Create(ctx, inv))
	assert.ErrorIs(t, repos.Inventories.Create(ctx, &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID}), repository.ErrDuplicate)

	stale := *inv
	require.NoError(t, repos.Inventories.UpdateBalance(ctx, inv, 4, "u"))
	assert.ErrorIs(t, repos.Inventories.UpdateBalance(ctx, &stale, 9, "u"), repository.ErrStaleRecord)
}

func TestEdgeRepo_SaveKeepsPosition(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repositories()
	scope := model.NewScope(uuid.New(), uuid.New())
	a, b, c := uuid.New(), uuid.New(), uuid.New()

	first := &model.ConversionEdge{ProductID: scope.ProductID, UserID: scope.UserID, FromUnitID: a, ToUnitID: b, ConversionRate: 2}
	require.NoError(t, repos.Edges.Save(ctx, first))
	require.NoError(t, repos.Edges.Save(ctx, &model.ConversionEdge{ProductID: scope.ProductID, UserID: scope.UserID, FromUnitID: b, ToUnitID: c, ConversionRate: 3}))

	first.ConversionRate = 5
	require.NoError(t, repos.Edges.Save(ctx, first))

	edges, err := repos.Edges.ListByScope(ctx, scope)
	require.NoError(t, err)
	require.Len(t, edges, 2)
	assert.Equal(t, 5.0, edges[0].ConversionRate)

	require.NoError(t, repos.Edges.DeleteByUnit(ctx, scope, b))
	edges, _ = repos.Edges.ListByScope(ctx, scope)
	assert.Empty(t, edges)
}

func TestPurchaseRepo_NewestFirstWithStableTies(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	repos := s.Repositories()
	scope := model.NewScope(uuid.New(), uuid.New())
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	for i, d := range []time.Time{day, day.AddDate(0, 0, 1), day} {
		require.NoError(t, repos.Purchases.Create(ctx, &model.Purchase{
			ProductID: scope.ProductID, UserID: scope.UserID, Quantity: float64(i), PurchaseDate: d,
		}))
	}

	list, err := repos.Purchases.ListByProduct(ctx, scope)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, []float64{1, 2, 0}, []float64{list[0].Quantity, list[1].Quantity, list[2].Quantity})
}
