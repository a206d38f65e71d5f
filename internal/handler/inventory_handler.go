package handler

import (
	"go-stock-ledger/internal/service"
	"go-stock-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

func (h *InventoryHandler) CreateInventory(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.CreateInventoryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}

	inv, err := h.service.CreateInventory(c.UserContext(), userID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Inventory created", "data": inv})
}

func (h *InventoryHandler) GetInventories(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	invs, err := h.service.ListInventories(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(invs)
}

// GetBelowLimit lists products whose stock fell under their reminder threshold
func (h *InventoryHandler) GetBelowLimit(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	invs, err := h.service.ProductsBelowLimit(c.UserContext(), userID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(invs)
}

func (h *InventoryHandler) GetInventory(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	inv, err := h.service.GetInventory(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(inv)
}

func (h *InventoryHandler) DeleteInventory(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	if err := h.service.DeleteInventory(c.UserContext(), scope); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Inventory deleted"})
}

func (h *InventoryHandler) UpdateStockLimit(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var req struct {
		StockLimit float64 `json:"stock_limit"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	inv, err := h.service.UpdateStockLimit(c.UserContext(), scope, req.StockLimit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock limit updated", "data": inv})
}

func (h *InventoryHandler) stockChange(c *fiber.Ctx) (*service.StockChangeRequest, error) {
	var req service.StockChangeRequest
	if err := c.BodyParser(&req); err != nil {
		return nil, badRequest(c, "Invalid JSON")
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return nil, validationFailed(c, errs)
	}
	return &req, nil
}

func (h *InventoryHandler) Restock(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	req, respErr := h.stockChange(c)
	if req == nil {
		return respErr
	}
	inv, err := h.service.Restock(c.UserContext(), scope, req.Quantity, req.UnitID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock replenished", "data": inv})
}

func (h *InventoryHandler) Reconcile(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	req, respErr := h.stockChange(c)
	if req == nil {
		return respErr
	}
	inv, err := h.service.Reconcile(c.UserContext(), scope, req.Quantity, req.UnitID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Stock reconciled", "data": inv})
}

// ---- purchases ----

func (h *InventoryHandler) GetPurchases(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	purchases, err := h.service.ListPurchases(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(purchases)
}

func (h *InventoryHandler) CreatePurchase(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	purchase, inv, err := h.service.RecordPurchase(c.UserContext(), userID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Purchase recorded", "data": purchase, "inventory": inv})
}

func (h *InventoryHandler) UpdatePurchase(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid purchase ID")
	}
	var req service.PurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	purchase, inv, err := h.service.UpdatePurchase(c.UserContext(), userID, id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase updated", "data": purchase, "inventory": inv})
}

func (h *InventoryHandler) DeletePurchase(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid purchase ID")
	}
	inv, err := h.service.DeletePurchase(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Purchase deleted", "inventory": inv})
}

// ---- sales ----

func (h *InventoryHandler) GetSales(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	sales, err := h.service.ListSales(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales)
}

// GetSalesByTrans returns every line of one checkout
func (h *InventoryHandler) GetSalesByTrans(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	transID, err := uuid.Parse(c.Query("trans_id"))
	if err != nil {
		return badRequest(c, "Invalid trans_id")
	}
	sales, err := h.service.ListSalesByTrans(c.UserContext(), userID, transID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(sales)
}

func (h *InventoryHandler) CreateSale(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	sale, inv, err := h.service.RecordSale(c.UserContext(), userID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Sale recorded", "data": sale, "inventory": inv})
}

func (h *InventoryHandler) UpdateSale(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid sale ID")
	}
	var req service.SaleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	sale, inv, err := h.service.UpdateSale(c.UserContext(), userID, id, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale updated", "data": sale, "inventory": inv})
}

func (h *InventoryHandler) DeleteSale(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid sale ID")
	}
	inv, err := h.service.DeleteSale(c.UserContext(), userID, id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Sale deleted", "inventory": inv})
}
