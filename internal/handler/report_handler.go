package handler

import (
	"go-stock-ledger/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ReportHandler struct {
	costs   service.CostService
	profits service.ProfitService
}

func NewReportHandler(costs service.CostService, profits service.ProfitService) *ReportHandler {
	return &ReportHandler{costs: costs, profits: profits}
}

// GetProfits returns weekly profit and totals for every product of the user
// GET /api/v1/reports/profits
func (h *ReportHandler) GetProfits(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	report, err := h.profits.Report(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(report)
}

func (h *ReportHandler) GetCost(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	cost, err := h.costs.WeightedUnitCost(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"weighted_unit_cost": cost})
}

func (h *ReportHandler) GetProfit(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	profit, err := h.profits.WeeklyProfit(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(profit)
}

func (h *ReportHandler) GetTotals(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	totals, err := h.profits.TotalQuantities(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(totals)
}

// GetProfitInUnit re-expresses a per-unit profit in another unit.
// Query params: unit_id (required), profit (default: current week profit)
func (h *ReportHandler) GetProfitInUnit(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	unitID, err := uuid.Parse(c.Query("unit_id"))
	if err != nil {
		return badRequest(c, "Invalid unit_id")
	}
	profit, given, err := parseFloatQuery(c, "profit")
	if err != nil {
		return badRequest(c, "Invalid profit")
	}
	if !given {
		weekly, err := h.profits.WeeklyProfit(c.UserContext(), scope)
		if err != nil {
			return writeError(c, err)
		}
		profit = weekly.CurrentWeek
	}

	converted, err := h.profits.ProfitInUnit(c.UserContext(), scope, profit, unitID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"unit_id": unitID, "profit": converted})
}
