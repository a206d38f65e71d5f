package handler

import "github.com/gofiber/fiber/v2"

// RegisterRoutes mounts the ledger API on r, which must already require auth.
func RegisterRoutes(r fiber.Router, units *UnitHandler, inv *InventoryHandler, reports *ReportHandler) {
	r.Post("/convert", units.Convert)

	// Units & conversions
	r.Get("/products/:productId/units", units.GetUnits)
	r.Post("/products/:productId/units", units.CreateUnit)
	r.Delete("/units/:id", units.DeleteUnit)
	r.Get("/products/:productId/conversions", units.GetConversions)
	r.Put("/products/:productId/conversions", units.SetConversion)
	r.Delete("/products/:productId/conversions/:fromId/:toId", units.RemoveConversion)

	// Inventories
	r.Get("/inventories", inv.GetInventories)
	r.Get("/inventories/below-limit", inv.GetBelowLimit)
	r.Post("/inventories", inv.CreateInventory)
	r.Get("/inventories/:productId", inv.GetInventory)
	r.Delete("/inventories/:productId", inv.DeleteInventory)
	r.Put("/inventories/:productId/limit", inv.UpdateStockLimit)
	r.Post("/inventories/:productId/restock", inv.Restock)
	r.Post("/inventories/:productId/reconcile", inv.Reconcile)
	r.Get("/inventories/:productId/purchases", inv.GetPurchases)
	r.Get("/inventories/:productId/sales", inv.GetSales)

	// Purchases & sales
	r.Post("/purchases", inv.CreatePurchase)
	r.Put("/purchases/:id", inv.UpdatePurchase)
	r.Delete("/purchases/:id", inv.DeletePurchase)
	r.Get("/sales", inv.GetSalesByTrans)
	r.Post("/sales", inv.CreateSale)
	r.Put("/sales/:id", inv.UpdateSale)
	r.Delete("/sales/:id", inv.DeleteSale)

	// Reports
	r.Get("/reports/profits", reports.GetProfits)
	r.Get("/reports/products/:productId/cost", reports.GetCost)
	r.Get("/reports/products/:productId/profit", reports.GetProfit)
	r.Get("/reports/products/:productId/totals", reports.GetTotals)
	r.Get("/reports/products/:productId/profit-in-unit", reports.GetProfitInUnit)
}
