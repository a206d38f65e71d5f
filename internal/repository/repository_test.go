package repository_test

import (
	"context"
	"testing"
	"time"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/pkg/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := database.OpenSQLite("file:"+uuid.NewString()+"?mode=memory&cache=shared", nil)
	require.NoError(t, err)
	require.NoError(t, repository.AutoMigrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func TestInventoryRepo_CreateDuplicate(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewInventoryRepo(db)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	first := &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New()}
	require.NoError(t, repo.Create(ctx, first))

	second := &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New()}
	assert.ErrorIs(t, repo.Create(ctx, second), repository.ErrDuplicate)
}

func TestInventoryRepo_UpdateBalanceChecksVersion(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewInventoryRepo(db)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	inv := &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New(), CurrentStock: 5}
	require.NoError(t, repo.Create(ctx, inv))

	stale, err := repo.FindByScopeForUpdate(ctx, scope)
	require.NoError(t, err)

	require.NoError(t, repo.UpdateBalance(ctx, inv, 8, "u1"))
	assert.Equal(t, int64(2), inv.Version)
	assert.Equal(t, 8.0, inv.CurrentStock)

	assert.ErrorIs(t, repo.UpdateBalance(ctx, stale, 1, "u2"), repository.ErrStaleRecord)

	got, err := repo.FindByScope(ctx, scope)
	require.NoError(t, err)
	assert.Equal(t, 8.0, got.CurrentStock)
}

func TestInventoryRepo_DeleteAllowsRecreate(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewInventoryRepo(db)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	require.NoError(t, repo.Create(ctx, &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New()}))
	require.NoError(t, repo.Delete(ctx, scope))
	assert.ErrorIs(t, repo.Delete(ctx, scope), repository.ErrNotFound)

	_, err := repo.FindByScope(ctx, scope)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	assert.NoError(t, repo.Create(ctx, &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New()}))
}

func TestConversionEdgeRepo_PairIsUnordered(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewConversionEdgeRepo(db)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())
	kg, g := uuid.New(), uuid.New()

	edge := &model.ConversionEdge{ProductID: scope.ProductID, UserID: scope.UserID, FromUnitID: kg, ToUnitID: g, ConversionRate: 1000}
	require.NoError(t, repo.Save(ctx, edge))

	found, err := repo.FindPair(ctx, scope, g, kg)
	require.NoError(t, err)
	assert.Equal(t, edge.ID, found.ID)

	// Other scopes never see it.
	_, err = repo.FindPair(ctx, model.NewScope(scope.ProductID, uuid.New()), kg, g)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, repo.DeletePair(ctx, scope, g, kg))
	edges, err := repo.ListByScope(ctx, scope)
	require.NoError(t, err)
	assert.Empty(t, edges)
}

func TestPurchaseRepo_ListNewestFirst(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewPurchaseRepo(db)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())
	unit := uuid.New()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	for i, day := range []int{1, 3, 2} {
		require.NoError(t, repo.Create(ctx, &model.Purchase{
			ProductID:    scope.ProductID,
			UserID:       scope.UserID,
			UnitID:       unit,
			Quantity:     float64(i + 1),
			OrderPrice:   decimal.NewFromInt(10),
			PurchaseDate: base.AddDate(0, 0, day),
		}))
	}

	purchases, err := repo.ListByProduct(ctx, scope)
	require.NoError(t, err)
	require.Len(t, purchases, 3)
	assert.Equal(t, 2.0, purchases[0].Quantity)
	assert.Equal(t, 3.0, purchases[1].Quantity)
	assert.Equal(t, 1.0, purchases[2].Quantity)
	assert.True(t, purchases[0].OrderPrice.Equal(decimal.NewFromInt(10)))
}

func TestGormStore_TransactionRollsBack(t *testing.T) {
	db := setupDB(t)
	store := repository.NewGormStore(db)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())

	err := store.Transaction(ctx, func(repos repository.Repositories) error {
		if err := repos.Inventories.Create(ctx, &model.Inventory{ProductID: scope.ProductID, UserID: scope.UserID, UnitID: uuid.New()}); err != nil {
			return err
		}
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	_, err = store.Repositories().Inventories.FindByScope(ctx, scope)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaleRepo_SoftDelete(t *testing.T) {
	db := setupDB(t)
	repo := repository.NewSaleRepo(db)
	ctx := context.Background()
	scope := model.NewScope(uuid.New(), uuid.New())
	trans := uuid.New()

	sale := &model.Sale{
		ProductID:   scope.ProductID,
		UserID:      scope.UserID,
		UnitID:      uuid.New(),
		Quantity:    2,
		RetailPrice: decimal.RequireFromString("1.25"),
		SaleDate:    time.Now(),
		TransID:     &trans,
	}
	require.NoError(t, repo.Create(ctx, sale))

	byTrans, err := repo.ListByTrans(ctx, scope.UserID, trans)
	require.NoError(t, err)
	assert.Len(t, byTrans, 1)

	n, err := repo.CountByUnit(ctx, scope, sale.UnitID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.Delete(ctx, sale, "u1"))
	n, err = repo.CountByUnit(ctx, scope, sale.UnitID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "soft-deleted sales no longer pin the unit")
	_, err = repo.FindByID(ctx, scope.UserID, sale.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	var raw model.Sale
	require.NoError(t, db.Unscoped().First(&raw, "id = ?", sale.ID).Error)
	assert.Equal(t, "u1", raw.DeletedBy)
}
