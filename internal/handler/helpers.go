package handler

import (
	"errors"
	"strconv"

	"go-stock-ledger/internal/model"
	"go-stock-ledger/internal/repository"
	"go-stock-ledger/internal/service"
	"go-stock-ledger/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

var errUnauthenticated = errors.New("missing user in context")

// getUserID reads the user id set by RequireAuth
func getUserID(c *fiber.Ctx) (uuid.UUID, error) {
	raw, ok := c.Locals("user_id").(string)
	if !ok {
		return uuid.Nil, errUnauthenticated
	}
	return uuid.Parse(raw)
}

// Helper untuk parse UUID dari path param
func parseUUIDParam(c *fiber.Ctx, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Params(name))
}

// productScope builds the scope from :productId and the caller.
func productScope(c *fiber.Ctx) (model.Scope, error) {
	userID, err := getUserID(c)
	if err != nil {
		return model.Scope{}, err
	}
	productID, err := parseUUIDParam(c, "productId")
	if err != nil {
		return model.Scope{}, err
	}
	return model.NewScope(productID, userID), nil
}

func parseFloatQuery(c *fiber.Ctx, name string) (float64, bool, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	return v, true, err
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid or expired token"})
}

func validationFailed(c *fiber.Ctx, errs []*validator.ErrorResponse) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Validation failed", "fields": errs})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInventoryNotFound),
		errors.Is(err, service.ErrPurchaseNotFound),
		errors.Is(err, service.ErrSaleNotFound),
		errors.Is(err, repository.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, service.ErrDuplicateInventory),
		errors.Is(err, service.ErrUnitInUse),
		errors.Is(err, repository.ErrDuplicate),
		errors.Is(err, repository.ErrStaleRecord):
		return fiber.StatusConflict
	case errors.Is(err, service.ErrNoConversionPath),
		errors.Is(err, service.ErrInsufficientStock):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidQuantity),
		errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrUnitNotInScope),
		errors.Is(err, service.ErrInvalidConversionRate):
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}

// writeError maps engine errors to a status; internal failures never leak their message.
func writeError(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		return c.Status(status).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	body := fiber.Map{"error": err.Error()}
	var insufficient *service.InsufficientStockError
	if errors.As(err, &insufficient) {
		body["available"] = insufficient.Available
		body["requested"] = insufficient.Requested
	}
	return c.Status(status).JSON(body)
}
