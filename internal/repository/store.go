package repository

import (
	"context"

	"go-stock-ledger/internal/model"

	"gorm.io/gorm"
)

// Repositories groups every repository bound to the same connection or transaction.
type Repositories struct {
	Units       UnitRepository
	Edges       ConversionEdgeRepository
	Inventories InventoryRepository
	Purchases   PurchaseRepository
	Sales       SaleRepository
}

// Store hands out repositories and runs fn atomically: either every write made
// through the Repositories passed to fn persists, or none does.
type Store interface {
	Repositories() Repositories
	Transaction(ctx context.Context, fn func(Repositories) error) error
}

type gormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) Store {
	return &gormStore{db: db}
}

func newRepositories(db *gorm.DB) Repositories {
	return Repositories{
		Units:       NewUnitRepo(db),
		Edges:       NewConversionEdgeRepo(db),
		Inventories: NewInventoryRepo(db),
		Purchases:   NewPurchaseRepo(db),
		Sales:       NewSaleRepo(db),
	}
}

func (s *gormStore) Repositories() Repositories {
	return newRepositories(s.db)
}

func (s *gormStore) Transaction(ctx context.Context, fn func(Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(newRepositories(tx))
	})
}

// AutoMigrate creates or updates the ledger tables.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Unit{},
		&model.ConversionEdge{},
		&model.Inventory{},
		&model.Purchase{},
		&model.Sale{},
	)
}
