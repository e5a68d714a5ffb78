package handlers

import (
	"eshop/internal/middleware"
	"eshop/internal/models"
	"eshop/internal/services"

	"github.com/gofiber/fiber/v2"
)

// ProductHandler handles HTTP requests for the catalog.
type ProductHandler struct {
	productService *services.ProductService
	authRequired   fiber.Handler
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(productService *services.ProductService, authRequired fiber.Handler) *ProductHandler {
	return &ProductHandler{
		productService: productService,
		authRequired:   authRequired,
	}
}

// RegisterRoutes registers the product, review and admin listing routes.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	adminOnly := middleware.RoleRequired(models.RoleAdmin)

	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Get("/:id", h.HandleGetProduct)
	productRoutes.Post("/", h.authRequired, adminOnly, h.HandleCreateProduct)
	productRoutes.Put("/:id", h.authRequired, adminOnly, h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.authRequired, adminOnly, h.HandleDeleteProduct)
	productRoutes.Post("/:id/reviews", h.authRequired, h.HandleAddReview)

	router.Get("/admin/products", h.authRequired, adminOnly, h.HandleAdminListProducts)
}

// HandleListProducts returns one page of the catalog.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	var params services.ProductListParams
	if err := c.QueryParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}

	page, err := h.productService.ListProducts(c.UserContext(), params)
	if err != nil {
		return err
	}
	return c.JSON(pageEnvelope(page))
}

// HandleAdminListProducts is the administrator catalog listing.
func (h *ProductHandler) HandleAdminListProducts(c *fiber.Ctx) error {
	var params services.ProductListParams
	if err := c.QueryParser(&params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query parameters")
	}

	page, err := h.productService.AdminListProducts(c.UserContext(), middleware.IdentityFrom(c), params)
	if err != nil {
		return err
	}
	return c.JSON(pageEnvelope(page))
}

// HandleGetProduct returns a product with its reviews.
func (h *ProductHandler) HandleGetProduct(c *fiber.Ctx) error {
	product, err := h.productService.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Data: product})
}

// HandleCreateProduct adds a product.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody
	}

	product, err := h.productService.CreateProduct(c.UserContext(), middleware.IdentityFrom(c), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: product})
}

// HandleUpdateProduct applies a partial update.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	var patch services.ProductPatch
	if err := c.BodyParser(&patch); err != nil {
		return errInvalidBody
	}

	product, err := h.productService.UpdateProduct(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), patch)
	if err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Data: product})
}

// HandleDeleteProduct removes a product.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	if err := h.productService.DeleteProduct(c.UserContext(), middleware.IdentityFrom(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(Envelope{Success: true, Data: fiber.Map{}})
}

// HandleAddReview posts a review and returns the updated product.
func (h *ProductHandler) HandleAddReview(c *fiber.Ctx) error {
	var in services.ReviewInput
	if err := c.BodyParser(&in); err != nil {
		return errInvalidBody
	}

	product, err := h.productService.AddReview(c.UserContext(), middleware.IdentityFrom(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(Envelope{Success: true, Data: product})
}
