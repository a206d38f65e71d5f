package service

import (
	"testing"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveRate_IdentityNeedsNoEdges(t *testing.T) {
	f := newFixture(t)
	u := uuid.New()

	rate, err := f.conv.ResolveRate(f.ctx, f.scope, u, u)
	require.NoError(t, err)
	assert.Equal(t, 1.0, rate)

	q, err := f.conv.Convert(f.ctx, f.scope, 42, u, u)
	require.NoError(t, err)
	assert.Equal(t, 42.0, q)
}

func TestResolveRate_TransitiveAndNoPath(t *testing.T) {
	f := newFixture(t)
	crate, box, piece, loose := f.unit(t, "crate"), f.unit(t, "box"), f.unit(t, "piece"), f.unit(t, "loose")
	f.edge(t, crate, box, 4)
	f.edge(t, box, piece, 12)

	rate, err := f.conv.ResolveRate(f.ctx, f.scope, crate, piece)
	require.NoError(t, err)
	assert.InDelta(t, 48, rate, 1e-9)

	_, err = f.conv.ResolveRate(f.ctx, f.scope, crate, loose)
	var noPath *NoConversionPathError
	require.ErrorAs(t, err, &noPath)
	assert.Equal(t, crate, noPath.FromUnitID)
	assert.Equal(t, loose, noPath.ToUnitID)
}

func TestSetConversion_RewritesReverseEdgeAndInvalidates(t *testing.T) {
	f := newFixture(t)
	kg, g := f.kgAndGrams(t)

	rate, err := f.conv.ResolveRate(f.ctx, f.scope, kg, g)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, rate)
	_, err = f.cache.Get(f.ctx, f.scope)
	require.NoError(t, err, "graph should be cached after a lookup")

	// Stored as kg->g; setting g->kg must replace it, not add a second edge.
	f.edge(t, g, kg, 0.002)

	edges, err := f.conv.ListConversions(f.ctx, f.scope)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	assert.Equal(t, g, edges[0].FromUnitID)

	rate, err = f.conv.ResolveRate(f.ctx, f.scope, kg, g)
	require.NoError(t, err)
	assert.InDelta(t, 500, rate, 1e-9)
}

func TestSetConversion_Validation(t *testing.T) {
	f := newFixture(t)
	kg := f.unit(t, "kg")
	other := newFixture(t).unit(t, "foreign")

	_, err := f.conv.SetConversion(f.ctx, f.userID, &SetConversionRequest{ProductID: f.scope.ProductID, FromUnitID: kg, ToUnitID: kg, ConversionRate: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.conv.SetConversion(f.ctx, f.userID, &SetConversionRequest{ProductID: f.scope.ProductID, FromUnitID: kg, ToUnitID: other, ConversionRate: 2})
	assert.ErrorIs(t, err, ErrUnitNotInScope)

	g := f.unit(t, "g")
	_, err = f.conv.SetConversion(f.ctx, f.userID, &SetConversionRequest{ProductID: f.scope.ProductID, FromUnitID: kg, ToUnitID: g, ConversionRate: 0})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateUnit_WithOppositeStoresEdge(t *testing.T) {
	f := newFixture(t)
	piece := f.unit(t, "piece")
	rate := 24.0

	crate, err := f.conv.CreateUnit(f.ctx, f.userID, &CreateUnitRequest{
		ProductID:      f.scope.ProductID,
		UnitType:       "crate",
		UnitCategory:   model.UnitSelling,
		OppositeUnitID: &piece,
		ConversionRate: &rate,
	})
	require.NoError(t, err)

	q, err := f.conv.Convert(f.ctx, f.scope, 2, crate.ID, piece)
	require.NoError(t, err)
	assert.Equal(t, 48.0, q)

	_, err = f.conv.CreateUnit(f.ctx, f.userID, &CreateUnitRequest{
		ProductID: f.scope.ProductID, UnitType: "pallet", UnitCategory: model.UnitBuying, OppositeUnitID: &piece,
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = f.conv.CreateUnit(f.ctx, f.userID, &CreateUnitRequest{
		ProductID: f.scope.ProductID, UnitType: "pallet", UnitCategory: "bulk",
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestConvertUnits_DerivesScopeFromUnits(t *testing.T) {
	f := newFixture(t)
	kg, g := f.kgAndGrams(t)

	q, err := f.conv.ConvertUnits(f.ctx, f.userID, 1.5, kg, g)
	require.NoError(t, err)
	assert.InDelta(t, 1500, q, 1e-9)

	_, err = f.conv.ConvertUnits(f.ctx, uuid.New(), 1, kg, g)
	assert.ErrorIs(t, err, ErrUnitNotInScope)

	_, err = f.conv.ConvertUnits(f.ctx, f.userID, -1, kg, g)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDeleteUnit(t *testing.T) {
	f := newFixture(t)
	kg, g := f.kgAndGrams(t)
	f.create(t, kg, 1)

	assert.ErrorIs(t, f.conv.DeleteUnit(f.ctx, f.userID, kg), ErrUnitInUse)

	require.NoError(t, f.conv.DeleteUnit(f.ctx, f.userID, g))
	edges, err := f.conv.ListConversions(f.ctx, f.scope)
	require.NoError(t, err)
	assert.Empty(t, edges)

	units, err := f.conv.ListUnits(f.ctx, f.scope)
	require.NoError(t, err)
	require.Len(t, units, 1)
	assert.Equal(t, kg, units[0].ID)
}

func TestDeleteUnit_RefusedWhileRecordsUseIt(t *testing.T) {
	f := newFixture(t)
	kg, g := f.kgAndGrams(t)
	f.create(t, kg, 1)

	purchase, _, err := f.inv.RecordPurchase(f.ctx, f.userID, &PurchaseRequest{
		ProductID: f.scope.ProductID, UnitID: g, Quantity: 500, OrderPrice: decimal.NewFromInt(6),
	})
	require.NoError(t, err)
	sale, _, err := f.inv.RecordSale(f.ctx, f.userID, &SaleRequest{
		ProductID: f.scope.ProductID, UnitID: g, Quantity: 200, RetailPrice: decimal.NewFromInt(1),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.conv.DeleteUnit(f.ctx, f.userID, g), ErrUnitInUse)

	// the unit and its edge survive, so history still converts
	cost, err := NewCostService(f.store, f.conv).WeightedUnitCost(f.ctx, f.scope)
	require.NoError(t, err)
	assert.InDelta(t, 12, cost, 1e-9)

	_, err = f.inv.DeletePurchase(f.ctx, f.userID, purchase.ID)
	require.NoError(t, err)
	assert.ErrorIs(t, f.conv.DeleteUnit(f.ctx, f.userID, g), ErrUnitInUse)

	_, err = f.inv.DeleteSale(f.ctx, f.userID, sale.ID)
	require.NoError(t, err)
	require.NoError(t, f.conv.DeleteUnit(f.ctx, f.userID, g))
	assert.InDelta(t, 1, f.balance(t), 1e-9)
}

func TestRemoveConversion(t *testing.T) {
	f := newFixture(t)
	kg, g := f.kgAndGrams(t)
	_, err := f.conv.ResolveRate(f.ctx, f.scope, kg, g)
	require.NoError(t, err)

	require.NoError(t, f.conv.RemoveConversion(f.ctx, f.scope, g, kg))

	_, err = f.conv.ResolveRate(f.ctx, f.scope, kg, g)
	assert.ErrorIs(t, err, ErrNoConversionPath)
}
