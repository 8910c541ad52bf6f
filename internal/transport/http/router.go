package http

import (
	"github.com/awokou/ecommerce-microservices/internal/transport/http/handler"
	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(app *fiber.App, cart *handler.CartHandler) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("Cart Service is alive!")
	})

	api := app.Group("/api/v1/cart")

	api.Post("", cart.CreateCart)
	api.Get("/:cartId", cart.GetCart)
	api.Post("/:cartId/items", cart.AddItem)
	api.Put("/:cartId/items/:code", cart.UpdateItemQuantity)
	api.Delete("/:cartId/items/:code", cart.RemoveItem)
	api.Delete("/:cartId/items", cart.ClearCart)
	api.Delete("/:cartId", cart.DeleteCart)
}
