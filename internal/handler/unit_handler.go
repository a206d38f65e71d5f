package handler

import (
	"go-stock-ledger/internal/service"
	"go-stock-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type UnitHandler struct {
	service service.ConversionService
}

func NewUnitHandler(s service.ConversionService) *UnitHandler {
	return &UnitHandler{service: s}
}

type ConvertRequest struct {
	Quantity   float64   `json:"quantity" validate:"finite"`
	FromUnitID uuid.UUID `json:"from_unit_id" validate:"uuid_required"`
	ToUnitID   uuid.UUID `json:"to_unit_id" validate:"uuid_required"`
}

// Convert handles quantity conversion between two units of the same product
// POST /api/v1/convert
func (h *UnitHandler) Convert(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	var req ConvertRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	if errs := validator.ValidateStruct(&req); len(errs) > 0 {
		return validationFailed(c, errs)
	}

	result, err := h.service.ConvertUnits(c.UserContext(), userID, req.Quantity, req.FromUnitID, req.ToUnitID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"quantity":     result,
		"from_unit_id": req.FromUnitID,
		"to_unit_id":   req.ToUnitID,
	})
}

func (h *UnitHandler) GetUnits(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	units, err := h.service.ListUnits(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(units)
}

func (h *UnitHandler) CreateUnit(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var req service.CreateUnitRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req.ProductID = scope.ProductID

	unit, err := h.service.CreateUnit(c.UserContext(), scope.UserID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Unit created", "data": unit})
}

// DeleteUnit removes a unit together with its conversion edges
// DELETE /api/v1/units/:id
func (h *UnitHandler) DeleteUnit(c *fiber.Ctx) error {
	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(c)
	}
	id, err := parseUUIDParam(c, "id")
	if err != nil {
		return badRequest(c, "Invalid unit ID")
	}
	if err := h.service.DeleteUnit(c.UserContext(), userID, id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Unit deleted"})
}

func (h *UnitHandler) GetConversions(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	edges, err := h.service.ListConversions(c.UserContext(), scope)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(edges)
}

func (h *UnitHandler) SetConversion(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	var req service.SetConversionRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid JSON")
	}
	req.ProductID = scope.ProductID

	edge, err := h.service.SetConversion(c.UserContext(), scope.UserID, &req)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Conversion saved", "data": edge})
}

func (h *UnitHandler) RemoveConversion(c *fiber.Ctx) error {
	scope, err := productScope(c)
	if err != nil {
		return badRequest(c, "Invalid product ID")
	}
	from, err := parseUUIDParam(c, "fromId")
	if err != nil {
		return badRequest(c, "Invalid unit ID")
	}
	to, err := parseUUIDParam(c, "toId")
	if err != nil {
		return badRequest(c, "Invalid unit ID")
	}
	if err := h.service.RemoveConversion(c.UserContext(), scope, from, to); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Conversion removed"})
}

