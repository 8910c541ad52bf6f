package handler

import (
	"time"

	"github.com/awokou/ecommerce-microservices/internal/domain"
	"github.com/awokou/ecommerce-microservices/internal/service"
	"github.com/awokou/ecommerce-microservices/pkg/mylogger"
	"github.com/awokou/ecommerce-microservices/pkg/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type CartHandler struct {
	service  service.CartService
	validate *validator.Validate
	logger   *zap.Logger
}

func NewCartHandler(service service.CartService, logger *zap.Logger) *CartHandler {
	return &CartHandler{
		service:  service,
		validate: validator.New(),
		logger:   logger,
	}
}

type AddItemInput struct {
	Code     string `json:"code" validate:"required"`
	Quantity int32  `json:"quantity" validate:"required,gte=1"`
}

type UpdateQuantityInput struct {
	Quantity int32 `json:"quantity" validate:"required,gte=1"`
}

type CartItemResponse struct {
	ID          string          `json:"id"`
	ProductCode string          `json:"product_code"`
	Name        string          `json:"name"`
	ImageUrl    string          `json:"image_url,omitempty"`
	Quantity    int32           `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	LineTotal   decimal.Decimal `json:"line_total"`
	Available   bool            `json:"available"`
}

type CartResponse struct {
	ID         string             `json:"id"`
	UserID     string             `json:"user_id,omitempty"`
	Items      []CartItemResponse `json:"items"`
	Subtotal   decimal.Decimal    `json:"subtotal"`
	Total      decimal.Decimal    `json:"total"`
	TotalItems int32              `json:"total_items"`
	CreatedAt  time.Time          `json:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at"`
	ExpiresAt  time.Time          `json:"expires_at"`
}

func mapToResponse(cart *domain.Cart) CartResponse {
	items := make([]CartItemResponse, 0, len(cart.Items))
	for i := range cart.Items {
		item := &cart.Items[i]
		items = append(items, CartItemResponse{
			ID:          item.ID,
			ProductCode: item.ProductCode,
			Name:        item.Name,
			ImageUrl:    item.ImageUrl,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			LineTotal:   item.LineTotal(),
			Available:   item.Available,
		})
	}

	return CartResponse{
		ID:         cart.ID,
		UserID:     cart.UserID,
		Items:      items,
		Subtotal:   cart.Subtotal,
		Total:      cart.Total,
		TotalItems: cart.TotalItems(),
		CreatedAt:  cart.CreatedAt,
		UpdatedAt:  cart.UpdatedAt,
		ExpiresAt:  cart.ExpiresAt,
	}
}

func (h *CartHandler) CreateCart(c *fiber.Ctx) error {
	ctx := c.UserContext()
	userID := c.Query("user_id")

	mylogger.Info(
		ctx,
		h.logger,
		"create cart request",
		zap.String("user_id", userID),
	)

	cart, err := h.service.CreateCart(ctx, userID)
	if err != nil {
		mylogger.Warn(ctx, h.logger, "create cart failed", zap.Error(err))
		return errorBody(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(mapToResponse(cart))
}

func (h *CartHandler) GetCart(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cartID := c.Params("cartId")

	cart, err := h.service.GetCart(ctx, cartID)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"get cart failed",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)

		return errorBody(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(mapToResponse(cart))
}

func (h *CartHandler) AddItem(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cartID := c.Params("cartId")

	input := new(AddItemInput)
	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "body parsing failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return validationBody(c, utils.FormatValidationError(err))
	}

	mylogger.Info(
		ctx,
		h.logger,
		"add item request",
		zap.String("cart_id", cartID),
		zap.String("product_code", input.Code),
		zap.Int32("quantity", input.Quantity),
	)

	cart, err := h.service.AddItem(ctx, cartID, input.Code, input.Quantity)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"add item failed",
			zap.String("cart_id", cartID),
			zap.String("product_code", input.Code),
			zap.Error(err),
		)

		return errorBody(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(mapToResponse(cart))
}

func (h *CartHandler) UpdateItemQuantity(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cartID := c.Params("cartId")
	productCode := c.Params("code")

	input := new(UpdateQuantityInput)
	if err := c.BodyParser(input); err != nil {
		mylogger.Warn(ctx, h.logger, "body parsing failed", zap.Error(err))

		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := h.validate.Struct(input); err != nil {
		return validationBody(c, utils.FormatValidationError(err))
	}

	mylogger.Info(
		ctx,
		h.logger,
		"update item quantity request",
		zap.String("cart_id", cartID),
		zap.String("product_code", productCode),
		zap.Int32("quantity", input.Quantity),
	)

	cart, err := h.service.UpdateItemQuantity(ctx, cartID, productCode, input.Quantity)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"update item quantity failed",
			zap.String("cart_id", cartID),
			zap.String("product_code", productCode),
			zap.Error(err),
		)

		return errorBody(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(mapToResponse(cart))
}

func (h *CartHandler) RemoveItem(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cartID := c.Params("cartId")
	productCode := c.Params("code")

	mylogger.Info(
		ctx,
		h.logger,
		"remove item request",
		zap.String("cart_id", cartID),
		zap.String("product_code", productCode),
	)

	cart, err := h.service.RemoveItem(ctx, cartID, productCode)
	if err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"remove item failed",
			zap.String("cart_id", cartID),
			zap.String("product_code", productCode),
			zap.Error(err),
		)

		return errorBody(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(mapToResponse(cart))
}

func (h *CartHandler) ClearCart(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cartID := c.Params("cartId")

	mylogger.Info(ctx, h.logger, "clear cart request", zap.String("cart_id", cartID))

	if err := h.service.ClearCart(ctx, cartID); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"clear cart failed",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)

		return errorBody(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *CartHandler) DeleteCart(c *fiber.Ctx) error {
	ctx := c.UserContext()
	cartID := c.Params("cartId")

	mylogger.Info(ctx, h.logger, "delete cart request", zap.String("cart_id", cartID))

	if err := h.service.DeleteCart(ctx, cartID); err != nil {
		mylogger.Warn(
			ctx,
			h.logger,
			"delete cart failed",
			zap.String("cart_id", cartID),
			zap.Error(err),
		)

		return errorBody(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}
