package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go-stock-ledger/internal/events"
	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/pkg/unitgraph"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InventoryService interface {
	CreateInventory(ctx context.Context, userID uuid.UUID, req *CreateInventoryRequest) (*model.Inventory, error)
	GetInventory(ctx context.Context, scope model.Scope) (*model.Inventory, error)
	ListInventories(ctx context.Context, userID uuid.UUID) ([]model.Inventory, error)
	ProductsBelowLimit(ctx context.Context, userID uuid.UUID) ([]model.Inventory, error)
	UpdateStockLimit(ctx context.Context, scope model.Scope, limit float64) (*model.Inventory, error)
	DeleteInventory(ctx context.Context, scope model.Scope) error

	ApplyPurchase(ctx context.Context, scope model.Scope, quantity float64, unitID uuid.UUID) (*model.Inventory, error)
	ApplySale(ctx context.Context, scope model.Scope, quantity float64, unitID uuid.UUID) (*model.Inventory, error)
	// Restock is ApplyPurchase that creates the inventory in unitID when missing.
	Restock(ctx context.Context, scope model.Scope, quantity float64, unitID uuid.UUID) (*model.Inventory, error)
	// Reconcile overwrites the balance with an absolute count.
	Reconcile(ctx context.Context, scope model.Scope, actual float64, unitID uuid.UUID) (*model.Inventory, error)

	RecordPurchase(ctx context.Context, userID uuid.UUID, req *PurchaseRequest) (*model.Purchase, *model.Inventory, error)
	UpdatePurchase(ctx context.Context, userID, id uuid.UUID, req *PurchaseRequest) (*model.Purchase, *model.Inventory, error)
	DeletePurchase(ctx context.Context, userID, id uuid.UUID) (*model.Inventory, error)
	ListPurchases(ctx context.Context, scope model.Scope) ([]model.Purchase, error)

	RecordSale(ctx context.Context, userID uuid.UUID, req *SaleRequest) (*model.Sale, *model.Inventory, error)
	UpdateSale(ctx context.Context, userID, id uuid.UUID, req *SaleRequest) (*model.Sale, *model.Inventory, error)
	DeleteSale(ctx context.Context, userID, id uuid.UUID) (*model.Inventory, error)
	ListSales(ctx context.Context, scope model.Scope) ([]model.Sale, error)
	ListSalesByTrans(ctx context.Context, userID, transID uuid.UUID) ([]model.Sale, error)
}

type rateFunc func(g *unitgraph.Graph, scope model.Scope, from, to uuid.UUID) (float64, error)

type inventoryService struct {
	store     repository.Store
	graphs    GraphProvider
	publisher events.Publisher
	logger    *zap.Logger
	locks     *scopeLocks
	now       func() time.Time
	rate      rateFunc
}

func NewInventoryService(store repository.Store, graphs GraphProvider, publisher events.Publisher, logger *zap.Logger) InventoryService {
	return newInventoryService(store, graphs, publisher, logger)
}

func newInventoryService(store repository.Store, graphs GraphProvider, publisher events.Publisher, logger *zap.Logger) *inventoryService {
	if publisher == nil {
		publisher = events.NewNopPublisher()
	}
	return &inventoryService{
		store:     store,
		graphs:    graphs,
		publisher: publisher,
		logger:    logger,
		locks:     newScopeLocks(),
		now:       time.Now,
		rate:      rateIn,
	}
}

// ledger is the working balance of one inventory inside a transaction.
type ledger struct {
	scope   model.Scope
	inv     *model.Inventory
	start   float64
	balance float64
	graph   *unitgraph.Graph
	rate    rateFunc
	logger  *zap.Logger
}

func tolerance(v float64) float64 {
	return 1e-9 * math.Max(1, math.Abs(v))
}

// toInventoryUnits converts with the record's own unit on every call.
func (l *ledger) toInventoryUnits(quantity float64, unitID uuid.UUID) (float64, error) {
	if unitID == l.inv.UnitID {
		return quantity, nil
	}
	rate, err := l.rate(l.graph, l.scope, unitID, l.inv.UnitID)
	if err != nil {
		return 0, err
	}
	return quantity * rate, nil
}

func (l *ledger) credit(quantity float64, unitID uuid.UUID) error {
	q, err := l.toInventoryUnits(quantity, unitID)
	if err != nil {
		return err
	}
	l.balance += q
	return nil
}

// debit removes stock and refuses to go below zero. A request exceeding the
// balance by no more than tolerance(balance), i.e. 1e-9*max(1,|balance|), is
// float noise from a round trip through the graph: it is accepted and the
// balance clamps to 0. Anything larger is InsufficientStockError.
func (l *ledger) debit(quantity float64, unitID uuid.UUID) error {
	q, err := l.toInventoryUnits(quantity, unitID)
	if err != nil {
		return err
	}
	if q > l.balance+tolerance(l.balance) {
		return &InsufficientStockError{Available: l.balance, Requested: q}
	}
	l.balance = math.Max(0, l.balance-q)
	return nil
}

// withdraw removes stock without a check; settle validates the final balance.
func (l *ledger) withdraw(quantity float64, unitID uuid.UUID) error {
	q, err := l.toInventoryUnits(quantity, unitID)
	if err != nil {
		return err
	}
	l.balance -= q
	return nil
}

func (l *ledger) overwrite(actual float64, unitID uuid.UUID) error {
	q, err := l.toInventoryUnits(actual, unitID)
	if err != nil {
		return err
	}
	if q < 0 || math.IsNaN(q) {
		l.logger.Error("reconcile produced negative balance",
			zap.String("product_id", l.scope.ProductID.String()),
			zap.String("user_id", l.scope.UserID.String()),
			zap.String("from_unit_id", unitID.String()),
			zap.String("to_unit_id", l.inv.UnitID.String()),
			zap.Float64("actual", actual),
			zap.Float64("converted", q),
		)
		return &ConversionInvariantError{FromUnitID: unitID, ToUnitID: l.inv.UnitID, Result: q}
	}
	l.balance = q
	return nil
}

func (l *ledger) settle() error {
	if l.balance < 0 {
		if l.balance < -tolerance(l.start) {
			return &InsufficientStockError{Available: l.start, Requested: l.start - l.balance}
		}
		l.balance = 0
	}
	return nil
}

type ledgerOp struct {
	action         model.StockAction
	autoCreateUnit uuid.UUID // restock only
}

// withLedger runs fn against the scope's inventory as one critical section:
// in-process scope lock, store transaction, then a version-checked write.
func (s *inventoryService) withLedger(ctx context.Context, scope model.Scope, op ledgerOp, fn func(repos repository.Repositories, l *ledger) error) (*model.Inventory, error) {
	unlock := s.locks.Lock(scope.Key())
	defer unlock()

	g, err := s.graphs.Graph(ctx, scope)
	if err != nil {
		return nil, err
	}

	actor := scope.UserID.String()
	var (
		result   *model.Inventory
		oldStock float64
	)
	err = s.store.Transaction(ctx, func(repos repository.Repositories) error {
		inv, err := repos.Inventories.FindByScopeForUpdate(ctx, scope)
		switch {
		case errors.Is(err, repository.ErrNotFound) && op.autoCreateUnit != uuid.Nil:
			if err := checkUnit(ctx, repos, scope, op.autoCreateUnit); err != nil {
				return err
			}
			inv = &model.Inventory{
				ProductID: scope.ProductID,
				UserID:    scope.UserID,
				UnitID:    op.autoCreateUnit,
				CreatedBy: actor,
				UpdatedBy: actor,
			}
			if err := repos.Inventories.Create(ctx, inv); err != nil {
				return inventoryErr(scope, err)
			}
		case err != nil:
			return inventoryErr(scope, err)
		}

		oldStock = inv.CurrentStock
		l := &ledger{
			scope:   scope,
			inv:     inv,
			start:   inv.CurrentStock,
			balance: inv.CurrentStock,
			graph:   g,
			rate:    s.rate,
			logger:  s.logger,
		}
		if err := fn(repos, l); err != nil {
			return err
		}
		if err := l.settle(); err != nil {
			return err
		}
		if err := repos.Inventories.UpdateBalance(ctx, inv, l.balance, actor); err != nil {
			return fmt.Errorf("update inventory %s: %w", scope.ProductID, err)
		}
		result = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, op.action, result, oldStock)
	return result, nil
}

func (s *inventoryService) publish(ctx context.Context, action model.StockAction, inv *model.Inventory, oldStock float64) {
	event := model.StockEvent{
		Type:       "stock_update",
		Action:     action,
		ProductID:  inv.ProductID,
		UserID:     inv.UserID,
		UnitID:     inv.UnitID,
		OldStock:   oldStock,
		NewStock:   inv.CurrentStock,
		BelowLimit: inv.BelowLimit(),
		OccurredAt: s.now(),
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("Failed to publish stock event",
			zap.String("action", string(action)),
			zap.String("product_id", inv.ProductID.String()),
			zap.Error(err),
		)
	}
}

func inventoryErr(scope model.Scope, err error) error {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return &InventoryNotFoundError{ProductID: scope.ProductID, UserID: scope.UserID}
	case errors.Is(err, repository.ErrDuplicate):
		return &DuplicateInventoryError{ProductID: scope.ProductID, UserID: scope.UserID}
	}
	return err
}

func checkUnit(ctx context.Context, repos repository.Repositories, scope model.Scope, unitID uuid.UUID) error {
	unit, err := repos.Units.FindByID(ctx, unitID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrUnitNotInScope
	}
	if err != nil {
		return err
	}
	if unit.Scope() != scope {
		return ErrUnitNotInScope
	}
	return nil
}

func (s *inventoryService) CreateInventory(ctx context.Context, userID uuid.UUID, req *CreateInventoryRequest) (*model.Inventory, error) {
	if err := validate(req); err != nil {
		return nil, err
	}
	if err := checkQuantity("initial_stock", req.InitialStock); err != nil {
		return nil, err
	}
	if err := checkQuantity("stock_limit", req.StockLimit); err != nil {
		return nil, err
	}

	scope := model.NewScope(req.ProductID, userID)
	unlock := s.locks.Lock(scope.Key())
	defer unlock()

	inv := &model.Inventory{
		ProductID:    req.ProductID,
		UserID:       userID,
		UnitID:       req.UnitID,
		ShopName:     req.ShopName,
		CurrentStock: req.InitialStock,
		StockLimit:   req.StockLimit,
		CreatedBy:    userID.String(),
		UpdatedBy:    userID.String(),
	}
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		if err := checkUnit(ctx, repos, scope, req.UnitID); err != nil {
			return err
		}
		return inventoryErr(scope, repos.Inventories.Create(ctx, inv))
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, model.ActionInventoryCreated, inv, 0)
	return inv, nil
}

func (s *inventoryService) GetInventory(ctx context.Context, scope model.Scope) (*model.Inventory, error) {
	inv, err := s.store.Repositories().Inventories.FindByScope(ctx, scope)
	if err != nil {
		return nil, inventoryErr(scope, err)
	}
	return inv, nil
}

func (s *inventoryService) ListInventories(ctx context.Context, userID uuid.UUID) ([]model.Inventory, error) {
	return s.store.Repositories().Inventories.ListByUser(ctx, userID)
}

func (s *inventoryService) ProductsBelowLimit(ctx context.Context, userID uuid.UUID) ([]model.Inventory, error) {
	invs, err := s.ListInventories(ctx, userID)
	if err != nil {
		return nil, err
	}
	below := make([]model.Inventory, 0)
	for i := range invs {
		if invs[i].BelowLimit() {
			below = append(below, invs[i])
		}
	}
	return below, nil
}

func (s *inventoryService) UpdateStockLimit(ctx context.Context, scope model.Scope, limit float64) (*model.Inventory, error) {
	if err := checkQuantity("stock_limit", limit); err != nil {
		return nil, err
	}
	if err := s.store.Repositories().Inventories.UpdateLimit(ctx, scope, limit, scope.UserID.String()); err != nil {
		return nil, inventoryErr(scope, err)
	}
	return s.GetInventory(ctx, scope)
}

func (s *inventoryService) DeleteInventory(ctx context.Context, scope model.Scope) error {
	unlock := s.locks.Lock(scope.Key())
	defer unlock()

	var removed *model.Inventory
	err := s.store.Transaction(ctx, func(repos repository.Repositories) error {
		inv, err := repos.Inventories.FindByScopeForUpdate(ctx, scope)
		if err != nil {
			return inventoryErr(scope, err)
		}
		removed = inv
		return inventoryErr(scope, repos.Inventories.Delete(ctx, scope))
	})
	if err != nil {
		return err
	}

	oldStock := removed.CurrentStock
	removed.CurrentStock = 0
	s.publish(ctx, model.ActionInventoryDeleted, removed, oldStock)
	return nil
}

func (s *inventoryService) ApplyPurchase(ctx context.Context, scope model.Scope, quantity float64, unitID uuid.UUID) (*model.Inventory, error) {
	if err := checkQuantity("quantity", quantity); err != nil {
		return nil, err
	}
	return s.withLedger(ctx, scope, ledgerOp{action: model.ActionPurchaseApplied}, func(_ repository.Repositories, l *ledger) error {
		return l.credit(quantity, unitID)
	})
}

func (s *inventoryService) ApplySale(ctx context.Context, scope model.Scope, quantity float64, unitID uuid.UUID) (*model.Inventory, error) {
	if err := checkQuantity("quantity", quantity); err != nil {
		return nil, err
	}
	return s.withLedger(ctx, scope, ledgerOp{action: model.ActionSaleApplied}, func(_ repository.Repositories, l *ledger) error {
		return l.debit(quantity, unitID)
	})
}

func (s *inventoryService) Restock(ctx context.Context, scope model.Scope, quantity float64, unitID uuid.UUID) (*model.Inventory, error) {
	if err := checkQuantity("quantity", quantity); err != nil {
		return nil, err
	}
	op := ledgerOp{action: model.ActionRestocked, autoCreateUnit: unitID}
	return s.withLedger(ctx, scope, op, func(_ repository.Repositories, l *ledger) error {
		return l.credit(quantity, unitID)
	})
}

func (s *inventoryService) Reconcile(ctx context.Context, scope model.Scope, actual float64, unitID uuid.UUID) (*model.Inventory, error) {
	if err := checkQuantity("actual_quantity", actual); err != nil {
		return nil, err
	}
	return s.withLedger(ctx, scope, ledgerOp{action: model.ActionReconciled}, func(_ repository.Repositories, l *ledger) error {
		return l.overwrite(actual, unitID)
	})
}

func checkPurchase(req *PurchaseRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	if err := checkQuantity("quantity", req.Quantity); err != nil {
		return err
	}
	if req.OrderPrice.IsNegative() {
		return &InvalidQuantityError{Field: "order_price", Value: req.OrderPrice.InexactFloat64()}
	}
	return nil
}

func (s *inventoryService) fillPurchase(p *model.Purchase, req *PurchaseRequest) {
	p.UnitID = req.UnitID
	p.Quantity = req.Quantity
	p.OrderPrice = req.OrderPrice
	p.PurchaseDate = req.PurchaseDate
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = s.now()
	}
	p.SupplierName = req.SupplierName
	p.MarketName = req.MarketName
}

func (s *inventoryService) RecordPurchase(ctx context.Context, userID uuid.UUID, req *PurchaseRequest) (*model.Purchase, *model.Inventory, error) {
	if err := checkPurchase(req); err != nil {
		return nil, nil, err
	}
	scope := model.NewScope(req.ProductID, userID)
	purchase := &model.Purchase{ProductID: req.ProductID, UserID: userID}
	purchase.CreatedBy = userID.String()
	purchase.UpdatedBy = userID.String()
	s.fillPurchase(purchase, req)

	inv, err := s.withLedger(ctx, scope, ledgerOp{action: model.ActionPurchaseApplied}, func(repos repository.Repositories, l *ledger) error {
		if err := checkUnit(ctx, repos, scope, req.UnitID); err != nil {
			return err
		}
		if err := l.credit(purchase.Quantity, purchase.UnitID); err != nil {
			return err
		}
		return repos.Purchases.Create(ctx, purchase)
	})
	if err != nil {
		return nil, nil, err
	}
	return purchase, inv, nil
}

func (s *inventoryService) findPurchase(ctx context.Context, repos repository.Repositories, userID, id uuid.UUID) (*model.Purchase, error) {
	p, err := repos.Purchases.FindByID(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPurchaseNotFound
	}
	return p, err
}

func (s *inventoryService) UpdatePurchase(ctx context.Context, userID, id uuid.UUID, req *PurchaseRequest) (*model.Purchase, *model.Inventory, error) {
	if err := checkPurchase(req); err != nil {
		return nil, nil, err
	}
	existing, err := s.findPurchase(ctx, s.store.Repositories(), userID, id)
	if err != nil {
		return nil, nil, err
	}
	if existing.ProductID != req.ProductID {
		return nil, nil, fmt.Errorf("%w: a purchase cannot move to another product", ErrValidation)
	}
	scope := existing.Scope()

	var updated *model.Purchase
	inv, err := s.withLedger(ctx, scope, ledgerOp{action: model.ActionPurchaseEdited}, func(repos repository.Repositories, l *ledger) error {
		old, err := s.findPurchase(ctx, repos, userID, id)
		if err != nil {
			return err
		}
		if err := checkUnit(ctx, repos, scope, req.UnitID); err != nil {
			return err
		}
		// reverse(old) then apply(new)
		if err := l.withdraw(old.Quantity, old.UnitID); err != nil {
			return err
		}
		next := *old
		s.fillPurchase(&next, req)
		next.UpdatedBy = userID.String()
		if err := l.credit(next.Quantity, next.UnitID); err != nil {
			return err
		}
		updated = &next
		return repos.Purchases.Update(ctx, updated)
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, inv, nil
}

func (s *inventoryService) DeletePurchase(ctx context.Context, userID, id uuid.UUID) (*model.Inventory, error) {
	existing, err := s.findPurchase(ctx, s.store.Repositories(), userID, id)
	if err != nil {
		return nil, err
	}
	return s.withLedger(ctx, existing.Scope(), ledgerOp{action: model.ActionPurchaseDeleted}, func(repos repository.Repositories, l *ledger) error {
		old, err := s.findPurchase(ctx, repos, userID, id)
		if err != nil {
			return err
		}
		if err := l.withdraw(old.Quantity, old.UnitID); err != nil {
			return err
		}
		return repos.Purchases.Delete(ctx, old, userID.String())
	})
}

func (s *inventoryService) ListPurchases(ctx context.Context, scope model.Scope) ([]model.Purchase, error) {
	return s.store.Repositories().Purchases.ListByProduct(ctx, scope)
}

func checkSale(req *SaleRequest) error {
	if err := validate(req); err != nil {
		return err
	}
	if err := checkQuantity("quantity", req.Quantity); err != nil {
		return err
	}
	if req.RetailPrice.IsNegative() {
		return &InvalidQuantityError{Field: "retail_price", Value: req.RetailPrice.InexactFloat64()}
	}
	if req.Discount.Valid && req.Discount.Decimal.IsNegative() {
		return &InvalidQuantityError{Field: "discount", Value: req.Discount.Decimal.InexactFloat64()}
	}
	return nil
}

func (s *inventoryService) fillSale(sale *model.Sale, req *SaleRequest) {
	sale.UnitID = req.UnitID
	sale.Quantity = req.Quantity
	sale.RetailPrice = req.RetailPrice
	sale.Discount = req.Discount
	sale.SaleDate = req.SaleDate
	if sale.SaleDate.IsZero() {
		sale.SaleDate = s.now()
	}
	sale.TransID = req.TransID
}

func (s *inventoryService) RecordSale(ctx context.Context, userID uuid.UUID, req *SaleRequest) (*model.Sale, *model.Inventory, error) {
	if err := checkSale(req); err != nil {
		return nil, nil, err
	}
	scope := model.NewScope(req.ProductID, userID)
	sale := &model.Sale{ProductID: req.ProductID, UserID: userID}
	sale.CreatedBy = userID.String()
	sale.UpdatedBy = userID.String()
	s.fillSale(sale, req)

	inv, err := s.withLedger(ctx, scope, ledgerOp{action: model.ActionSaleApplied}, func(repos repository.Repositories, l *ledger) error {
		if err := checkUnit(ctx, repos, scope, req.UnitID); err != nil {
			return err
		}
		if err := l.debit(sale.Quantity, sale.UnitID); err != nil {
			return err
		}
		return repos.Sales.Create(ctx, sale)
	})
	if err != nil {
		return nil, nil, err
	}
	return sale, inv, nil
}

func (s *inventoryService) findSale(ctx context.Context, repos repository.Repositories, userID, id uuid.UUID) (*model.Sale, error) {
	sale, err := repos.Sales.FindByID(ctx, userID, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSaleNotFound
	}
	return sale, err
}

func (s *inventoryService) UpdateSale(ctx context.Context, userID, id uuid.UUID, req *SaleRequest) (*model.Sale, *model.Inventory, error) {
	if err := checkSale(req); err != nil {
		return nil, nil, err
	}
	existing, err := s.findSale(ctx, s.store.Repositories(), userID, id)
	if err != nil {
		return nil, nil, err
	}
	if existing.ProductID != req.ProductID {
		return nil, nil, fmt.Errorf("%w: a sale cannot move to another product", ErrValidation)
	}
	scope := existing.Scope()

	var updated *model.Sale
	inv, err := s.withLedger(ctx, scope, ledgerOp{action: model.ActionSaleEdited}, func(repos repository.Repositories, l *ledger) error {
		old, err := s.findSale(ctx, repos, userID, id)
		if err != nil {
			return err
		}
		if err := checkUnit(ctx, repos, scope, req.UnitID); err != nil {
			return err
		}
		// reverse(old) then apply(new)
		if err := l.credit(old.Quantity, old.UnitID); err != nil {
			return err
		}
		next := *old
		s.fillSale(&next, req)
		next.UpdatedBy = userID.String()
		if err := l.debit(next.Quantity, next.UnitID); err != nil {
			return err
		}
		updated = &next
		return repos.Sales.Update(ctx, updated)
	})
	if err != nil {
		return nil, nil, err
	}
	return updated, inv, nil
}

func (s *inventoryService) DeleteSale(ctx context.Context, userID, id uuid.UUID) (*model.Inventory, error) {
	existing, err := s.findSale(ctx, s.store.Repositories(), userID, id)
	if err != nil {
		return nil, err
	}
	return s.withLedger(ctx, existing.Scope(), ledgerOp{action: model.ActionSaleDeleted}, func(repos repository.Repositories, l *ledger) error {
		old, err := s.findSale(ctx, repos, userID, id)
		if err != nil {
			return err
		}
		if err := l.credit(old.Quantity, old.UnitID); err != nil {
			return err
		}
		return repos.Sales.Delete(ctx, old, userID.String())
	})
}

func (s *inventoryService) ListSales(ctx context.Context, scope model.Scope) ([]model.Sale, error) {
	return s.store.Repositories().Sales.ListByProduct(ctx, scope)
}

func (s *inventoryService) ListSalesByTrans(ctx context.Context, userID, transID uuid.UUID) ([]model.Sale, error) {
	return s.store.Repositories().Sales.ListByTrans(ctx, userID, transID)
}
