// Package memory is a process-local implementation of repository.Store.
// Transactions are serialized and rolled back by restoring a snapshot.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"

	"github.com/google/uuid"
)

type state struct {
	units       []model.Unit
	edges       []model.ConversionEdge
	inventories []model.Inventory
	purchases   []model.Purchase
	sales       []model.Sale
}

func (s state) clone() state {
	return state{
		units:       append([]model.Unit(nil), s.units...),
		edges:       append([]model.ConversionEdge(nil), s.edges...),
		inventories: append([]model.Inventory(nil), s.inventories...),
		purchases:   append([]model.Purchase(nil), s.purchases...),
		sales:       append([]model.Sale(nil), s.sales...),
	}
}

type Store struct {
	txMu sync.Mutex // one transaction at a time
	mu   sync.RWMutex
	data state
	now  func() time.Time
}

func NewStore() *Store {
	return &Store{now: time.Now}
}

// Repositories returns repositories outside any transaction. Their writes wait
// for a running transaction so its rollback cannot erase them.
func (s *Store) Repositories() repository.Repositories {
	return s.repositories(false)
}

func (s *Store) repositories(inTx bool) repository.Repositories {
	return repository.Repositories{
		Units:       &unitRepo{s, inTx},
		Edges:       &edgeRepo{s, inTx},
		Inventories: &inventoryRepo{s, inTx},
		Purchases:   &purchaseRepo{s, inTx},
		Sales:       &saleRepo{s, inTx},
	}
}

func (s *Store) Transaction(ctx context.Context, fn func(repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(s.repositories(true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

// lockWrite locks for a single write. Writes from outside a transaction also
// take txMu, so they land either before the snapshot or after the commit.
func (s *Store) lockWrite(inTx bool) func() {
	if !inTx {
		s.txMu.Lock()
	}
	s.mu.Lock()
	return func() {
		s.mu.Unlock()
		if !inTx {
			s.txMu.Unlock()
		}
	}
}

// ---- units ----

type unitRepo struct {
	s    *Store
	inTx bool
}

func (r *unitRepo) Create(_ context.Context, unit *model.Unit) error {
	defer r.s.lockWrite(r.inTx)()
	if unit.ID == uuid.Nil {
		unit.ID = uuid.New()
	}
	for _, u := range r.s.data.units {
		if u.ID == unit.ID {
			return repository.ErrDuplicate
		}
	}
	now := r.s.now()
	unit.CreatedAt, unit.UpdatedAt = now, now
	r.s.data.units = append(r.s.data.units, *unit)
	return nil
}

func (r *unitRepo) FindByID(_ context.Context, id uuid.UUID) (*model.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, u := range r.s.data.units {
		if u.ID == id {
			out := u
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *unitRepo) ListByScope(_ context.Context, scope model.Scope) ([]model.Unit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Unit
	for _, u := range r.s.data.units {
		if u.Scope() == scope {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *unitRepo) Delete(_ context.Context, id uuid.UUID, _ string) error {
	defer r.s.lockWrite(r.inTx)()
	for i, u := range r.s.data.units {
		if u.ID == id {
			r.s.data.units = append(r.s.data.units[:i:i], r.s.data.units[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ---- conversion edges ----

type edgeRepo struct {
	s    *Store
	inTx bool
}

func (r *edgeRepo) ListByScope(_ context.Context, scope model.Scope) ([]model.ConversionEdge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.ConversionEdge
	for _, e := range r.s.data.edges {
		if e.Scope() == scope {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *edgeRepo) FindPair(_ context.Context, scope model.Scope, a, b uuid.UUID) (*model.ConversionEdge, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, e := range r.s.data.edges {
		if e.Scope() == scope && e.Connects(a, b) {
			out := e
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *edgeRepo) Save(_ context.Context, edge *model.ConversionEdge) error {
	defer r.s.lockWrite(r.inTx)()
	now := r.s.now()
	if edge.ID != uuid.Nil {
		for i, e := range r.s.data.edges {
			if e.ID == edge.ID {
				edge.CreatedAt = e.CreatedAt
				edge.UpdatedAt = now
				r.s.data.edges[i] = *edge
				return nil
			}
		}
	} else {
		edge.ID = uuid.New()
	}
	edge.CreatedAt, edge.UpdatedAt = now, now
	r.s.data.edges = append(r.s.data.edges, *edge)
	return nil
}

func (r *edgeRepo) DeletePair(_ context.Context, scope model.Scope, a, b uuid.UUID) error {
	defer r.s.lockWrite(r.inTx)()
	kept := r.s.data.edges[:0:0]
	for _, e := range r.s.data.edges {
		if e.Scope() == scope && e.Connects(a, b) {
			continue
		}
		kept = append(kept, e)
	}
	if len(kept) == len(r.s.data.edges) {
		return repository.ErrNotFound
	}
	r.s.data.edges = kept
	return nil
}

func (r *edgeRepo) DeleteByUnit(_ context.Context, scope model.Scope, unitID uuid.UUID) error {
	defer r.s.lockWrite(r.inTx)()
	kept := r.s.data.edges[:0:0]
	for _, e := range r.s.data.edges {
		if e.Scope() == scope && (e.FromUnitID == unitID || e.ToUnitID == unitID) {
			continue
		}
		kept = append(kept, e)
	}
	r.s.data.edges = kept
	return nil
}

// ---- inventories ----

type inventoryRepo struct {
	s    *Store
	inTx bool
}

func (r *inventoryRepo) indexOf(scope model.Scope) int {
	for i, inv := range r.s.data.inventories {
		if inv.Scope() == scope {
			return i
		}
	}
	return -1
}

func (r *inventoryRepo) FindByScope(_ context.Context, scope model.Scope) (*model.Inventory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	i := r.indexOf(scope)
	if i < 0 {
		return nil, repository.ErrNotFound
	}
	out := r.s.data.inventories[i]
	return &out, nil
}

func (r *inventoryRepo) FindByScopeForUpdate(ctx context.Context, scope model.Scope) (*model.Inventory, error) {
	return r.FindByScope(ctx, scope)
}

func (r *inventoryRepo) ListByUser(_ context.Context, userID uuid.UUID) ([]model.Inventory, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Inventory
	for _, inv := range r.s.data.inventories {
		if inv.UserID == userID {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (r *inventoryRepo) Create(_ context.Context, inv *model.Inventory) error {
	defer r.s.lockWrite(r.inTx)()
	if r.indexOf(inv.Scope()) >= 0 {
		return repository.ErrDuplicate
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	if inv.Version == 0 {
		inv.Version = 1
	}
	now := r.s.now()
	inv.CreatedAt, inv.UpdatedAt = now, now
	r.s.data.inventories = append(r.s.data.inventories, *inv)
	return nil
}

func (r *inventoryRepo) UpdateBalance(_ context.Context, inv *model.Inventory, newStock float64, updatedBy string) error {
	defer r.s.lockWrite(r.inTx)()
	for i, cur := range r.s.data.inventories {
		if cur.ID != inv.ID {
			continue
		}
		if cur.Version != inv.Version {
			return repository.ErrStaleRecord
		}
		cur.CurrentStock = newStock
		cur.Version++
		cur.UpdatedBy = updatedBy
		cur.UpdatedAt = r.s.now()
		r.s.data.inventories[i] = cur
		*inv = cur
		return nil
	}
	return repository.ErrStaleRecord
}

func (r *inventoryRepo) UpdateLimit(_ context.Context, scope model.Scope, limit float64, updatedBy string) error {
	defer r.s.lockWrite(r.inTx)()
	i := r.indexOf(scope)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.s.data.inventories[i].StockLimit = limit
	r.s.data.inventories[i].UpdatedBy = updatedBy
	r.s.data.inventories[i].UpdatedAt = r.s.now()
	return nil
}

func (r *inventoryRepo) Delete(_ context.Context, scope model.Scope) error {
	defer r.s.lockWrite(r.inTx)()
	i := r.indexOf(scope)
	if i < 0 {
		return repository.ErrNotFound
	}
	r.s.data.inventories = append(r.s.data.inventories[:i:i], r.s.data.inventories[i+1:]...)
	return nil
}

// ---- purchases ----

type purchaseRepo struct {
	s    *Store
	inTx bool
}

func (r *purchaseRepo) Create(_ context.Context, p *model.Purchase) error {
	defer r.s.lockWrite(r.inTx)()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := r.s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.data.purchases = append(r.s.data.purchases, *p)
	return nil
}

func (r *purchaseRepo) FindByID(_ context.Context, userID, id uuid.UUID) (*model.Purchase, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.data.purchases {
		if p.ID == id && p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *purchaseRepo) ListByProduct(_ context.Context, scope model.Scope) ([]model.Purchase, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Purchase
	// Walk backwards so the stable sort keeps later inserts first on equal dates.
	for i := len(r.s.data.purchases) - 1; i >= 0; i-- {
		if p := r.s.data.purchases[i]; p.Scope() == scope {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].PurchaseDate.After(out[j].PurchaseDate) })
	return out, nil
}

func (r *purchaseRepo) Update(_ context.Context, p *model.Purchase) error {
	defer r.s.lockWrite(r.inTx)()
	for i, cur := range r.s.data.purchases {
		if cur.ID == p.ID {
			p.UpdatedAt = r.s.now()
			r.s.data.purchases[i] = *p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *purchaseRepo) Delete(_ context.Context, p *model.Purchase, _ string) error {
	defer r.s.lockWrite(r.inTx)()
	for i, cur := range r.s.data.purchases {
		if cur.ID == p.ID {
			r.s.data.purchases = append(r.s.data.purchases[:i:i], r.s.data.purchases[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

// ---- sales ----

type saleRepo struct {
	s    *Store
	inTx bool
}

func (r *saleRepo) Create(_ context.Context, sale *model.Sale) error {
	defer r.s.lockWrite(r.inTx)()
	if sale.ID == uuid.Nil {
		sale.ID = uuid.New()
	}
	now := r.s.now()
	sale.CreatedAt, sale.UpdatedAt = now, now
	r.s.data.sales = append(r.s.data.sales, *sale)
	return nil
}

func (r *saleRepo) FindByID(_ context.Context, userID, id uuid.UUID) (*model.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, sale := range r.s.data.sales {
		if sale.ID == id && sale.UserID == userID {
			out := sale
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *saleRepo) ListByProduct(_ context.Context, scope model.Scope) ([]model.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Sale
	for i := len(r.s.data.sales) - 1; i >= 0; i-- {
		if sale := r.s.data.sales[i]; sale.Scope() == scope {
			out = append(out, sale)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].SaleDate.After(out[j].SaleDate) })
	return out, nil
}

func (r *saleRepo) ListByTrans(_ context.Context, userID, transID uuid.UUID) ([]model.Sale, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var out []model.Sale
	for _, sale := range r.s.data.sales {
		if sale.UserID == userID && sale.TransID != nil && *sale.TransID == transID {
			out = append(out, sale)
		}
	}
	return out, nil
}

func (r *saleRepo) Update(_ context.Context, sale *model.Sale) error {
	defer r.s.lockWrite(r.inTx)()
	for i, cur := range r.s.data.sales {
		if cur.ID == sale.ID {
			sale.UpdatedAt = r.s.now()
			r.s.data.sales[i] = *sale
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *saleRepo) Delete(_ context.Context, sale *model.Sale, _ string) error {
	defer r.s.lockWrite(r.inTx)()
	for i, cur := range r.s.data.sales {
		if cur.ID == sale.ID {
			r.s.data.sales = append(r.s.data.sales[:i:i], r.s.data.sales[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *purchaseRepo) CountByUnit(_ context.Context, scope model.Scope, unitID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, p := range r.s.data.purchases {
		if p.Scope() == scope && p.UnitID == unitID {
			n++
		}
	}
	return n, nil
}

func (r *saleRepo) CountByUnit(_ context.Context, scope model.Scope, unitID uuid.UUID) (int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	var n int64
	for _, sale := range r.s.data.sales {
		if sale.Scope() == scope && sale.UnitID == unitID {
			n++
		}
	}
	return n, nil
}
