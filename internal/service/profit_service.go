package service

import (
	"context"
	"time"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type ProfitConfig struct {
	WeekStart   time.Weekday
	Location    *time.Location
	Now         func() time.Time
	Concurrency int // products computed in parallel by Report
}

type WeeklyProfit struct {
	CurrentWeek  float64 `json:"profit_for_current_week"`
	PreviousWeek float64 `json:"profit_for_previous_week"`
}

type Quantities struct {
	Purchased float64 `json:"purchased"`
	Sold      float64 `json:"sold"`
}

// ProductProfit is one product's line in a report. Cost and profit are nil
// when the product has no purchases to price it by; totals are always set.
type ProductProfit struct {
	ProductID        uuid.UUID     `json:"product_id"`
	UnitID           uuid.UUID     `json:"unit_id"`
	CurrentStock     float64       `json:"current_stock"`
	WeightedUnitCost *float64      `json:"weighted_unit_cost,omitempty"`
	Profit           *WeeklyProfit `json:"profit,omitempty"`
	Totals           Quantities    `json:"totals"`
}

type ProductFailure struct {
	ProductID uuid.UUID `json:"product_id"`
	Error     string    `json:"error"`
	err       error
}

func (f ProductFailure) Unwrap() error { return f.err }

type ProfitReport struct {
	Profits  []ProductProfit  `json:"profits"`
	Failures []ProductFailure `json:"failures"`
}

type ProfitService interface {
	WeeklyProfit(ctx context.Context, scope model.Scope) (*WeeklyProfit, error)
	TotalQuantities(ctx context.Context, scope model.Scope) (*Quantities, error)
	// Report covers every inventory of the user. A product that fails is listed
	// in Failures and the rest are still computed.
	Report(ctx context.Context, userID uuid.UUID) (*ProfitReport, error)
	// ProfitInUnit re-expresses a profit per inventory unit as a profit per unitID.
	ProfitInUnit(ctx context.Context, scope model.Scope, profit float64, unitID uuid.UUID) (float64, error)
}

type profitService struct {
	store  repository.Store
	graphs GraphProvider
	cfg    ProfitConfig
	logger *zap.Logger
}

func NewProfitService(store repository.Store, graphs GraphProvider, cfg ProfitConfig, logger *zap.Logger) ProfitService {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	return &profitService{store: store, graphs: graphs, cfg: cfg, logger: logger}
}

type weekRange struct {
	start, end time.Time // [start, end)
}

func (w weekRange) contains(t time.Time) bool {
	return !t.Before(w.start) && t.Before(w.end)
}

// weeks returns the calendar week holding now and the one before it.
func weeks(now time.Time, weekStart time.Weekday, loc *time.Location) (current, previous weekRange) {
	local := now.In(loc)
	offset := (int(local.Weekday()) - int(weekStart) + 7) % 7
	start := time.Date(local.Year(), local.Month(), local.Day()-offset, 0, 0, 0, 0, loc)
	current = weekRange{start: start, end: start.AddDate(0, 0, 7)}
	previous = weekRange{start: start.AddDate(0, 0, -7), end: start}
	return current, previous
}

// productData is everything one product's figures are derived from.
type productData struct {
	inv       *model.Inventory
	purchases []model.Purchase
	sales     []model.Sale
	convert   converter
}

func (s *profitService) load(ctx context.Context, scope model.Scope, withPurchases, withSales bool) (*productData, error) {
	repos := s.store.Repositories()
	inv, err := repos.Inventories.FindByScope(ctx, scope)
	if err != nil {
		return nil, inventoryErr(scope, err)
	}
	g, err := s.graphs.Graph(ctx, scope)
	if err != nil {
		return nil, err
	}
	d := &productData{inv: inv, convert: newConverter(g, scope, inv.UnitID)}
	if withPurchases {
		if d.purchases, err = repos.Purchases.ListByProduct(ctx, scope); err != nil {
			return nil, err
		}
	}
	if withSales {
		if d.sales, err = repos.Sales.ListByProduct(ctx, scope); err != nil {
			return nil, err
		}
	}
	return d, nil
}

// weekProfit: average sale price per inventory unit minus cost, or 0 when
// nothing was sold in the week. Revenue uses the recorded quantity and price;
// discounts are not applied.
func weekProfit(sales []model.Sale, week weekRange, cost float64, convert converter) (float64, error) {
	var qty float64
	revenue := decimal.Zero
	for _, sale := range sales {
		if !week.contains(sale.SaleDate) {
			continue
		}
		q, err := convert(sale.Quantity, sale.UnitID)
		if err != nil {
			return 0, err
		}
		qty += q
		revenue = revenue.Add(sale.RetailPrice.Mul(decimal.NewFromFloat(sale.Quantity)))
	}
	if qty <= 0 {
		return 0, nil
	}
	return revenue.InexactFloat64()/qty - cost, nil
}

func (s *profitService) weekly(d *productData) (*WeeklyProfit, float64, error) {
	cost, err := weightedUnitCost(d.inv.CurrentStock, d.purchases, d.convert)
	if err != nil {
		return nil, 0, err
	}
	current, previous := weeks(s.cfg.Now(), s.cfg.WeekStart, s.cfg.Location)

	out := &WeeklyProfit{}
	if out.CurrentWeek, err = weekProfit(d.sales, current, cost, d.convert); err != nil {
		return nil, 0, err
	}
	if out.PreviousWeek, err = weekProfit(d.sales, previous, cost, d.convert); err != nil {
		return nil, 0, err
	}
	return out, cost, nil
}

func totals(d *productData) (*Quantities, error) {
	out := &Quantities{}
	for _, p := range d.purchases {
		q, err := d.convert(p.Quantity, p.UnitID)
		if err != nil {
			return nil, err
		}
		out.Purchased += q
	}
	for _, sale := range d.sales {
		q, err := d.convert(sale.Quantity, sale.UnitID)
		if err != nil {
			return nil, err
		}
		out.Sold += q
	}
	return out, nil
}

func (s *profitService) WeeklyProfit(ctx context.Context, scope model.Scope) (*WeeklyProfit, error) {
	d, err := s.load(ctx, scope, true, true)
	if err != nil {
		return nil, err
	}
	out, _, err := s.weekly(d)
	return out, err
}

func (s *profitService) TotalQuantities(ctx context.Context, scope model.Scope) (*Quantities, error) {
	d, err := s.load(ctx, scope, true, true)
	if err != nil {
		return nil, err
	}
	return totals(d)
}

func (s *profitService) productProfit(ctx context.Context, scope model.Scope) (*ProductProfit, error) {
	d, err := s.load(ctx, scope, true, true)
	if err != nil {
		return nil, err
	}
	t, err := totals(d)
	if err != nil {
		return nil, err
	}
	out := &ProductProfit{
		ProductID:    scope.ProductID,
		UnitID:       d.inv.UnitID,
		CurrentStock: d.inv.CurrentStock,
		Totals:       *t,
	}
	if len(d.purchases) == 0 {
		return out, nil
	}

	weekly, cost, err := s.weekly(d)
	if err != nil {
		return nil, err
	}
	out.WeightedUnitCost = &cost
	out.Profit = weekly
	return out, nil
}

func (s *profitService) Report(ctx context.Context, userID uuid.UUID) (*ProfitReport, error) {
	invs, err := s.store.Repositories().Inventories.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	profits := make([]*ProductProfit, len(invs))
	failures := make([]error, len(invs))

	var g errgroup.Group
	g.SetLimit(s.cfg.Concurrency)
	for i := range invs {
		i := i
		scope := invs[i].Scope()
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				failures[i] = err
				return nil
			}
			profits[i], failures[i] = s.productProfit(ctx, scope)
			return nil
		})
	}
	_ = g.Wait()

	report := &ProfitReport{Profits: []ProductProfit{}, Failures: []ProductFailure{}}
	for i := range invs {
		if failures[i] != nil {
			s.logger.Warn("Profit computation failed",
				zap.String("product_id", invs[i].ProductID.String()),
				zap.Error(failures[i]),
			)
			report.Failures = append(report.Failures, ProductFailure{
				ProductID: invs[i].ProductID,
				Error:     failures[i].Error(),
				err:       failures[i],
			})
			continue
		}
		report.Profits = append(report.Profits, *profits[i])
	}
	return report, nil
}

func (s *profitService) ProfitInUnit(ctx context.Context, scope model.Scope, profit float64, unitID uuid.UUID) (float64, error) {
	inv, err := s.store.Repositories().Inventories.FindByScope(ctx, scope)
	if err != nil {
		return 0, inventoryErr(scope, err)
	}
	if unitID == inv.UnitID {
		return profit, nil
	}
	g, err := s.graphs.Graph(ctx, scope)
	if err != nil {
		return 0, err
	}
	rate, err := rateIn(g, scope, inv.UnitID, unitID)
	if err != nil {
		return 0, err
	}
	return profit / rate, nil
}
