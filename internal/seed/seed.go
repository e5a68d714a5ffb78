// Package seed loads the sample accounts and catalog.
package seed

import (
	"context"
	"fmt"

	"eshop/internal/models"
	"eshop/internal/repositories"
	"eshop/internal/services"

	"github.com/sirupsen/logrus"
)

// Accounts created by Run.
var (
	Admin = services.RegisterInput{
		Name:     "Admin User",
		Email:    "admin@nintendo.com",
		Password: "admin123",
	}
	Customer = services.RegisterInput{
		Name:     "John Doe",
		Email:    "user@nintendo.com",
		Password: "user123",
		Phone:    "+1 555 0100",
		Address: models.Address{
			Street:  "123 Main St",
			City:    "Redmond",
			State:   "WA",
			ZipCode: "98052",
			Country: "USA",
		},
	}
)

func price(v float64) *float64 { return &v }
func stock(v int) *int         { return &v }

// Catalog is the sample product list.
var Catalog = []services.ProductInput{
	{
		Name:           "Nintendo Switch OLED Model",
		Description:    "Nintendo Switch with a vibrant 7-inch OLED screen, a wide adjustable stand and 64 GB of internal storage.",
		Price:          price(349.99),
		Category:       string(models.CategoryConsoles),
		Images:         []string{"https://images.example.com/switch-oled.jpg"},
		Stock:          stock(25),
		Featured:       true,
		Tags:           []string{"console", "oled"},
		Specifications: models.Specifications{
			{Key: "Screen", Value: "7-inch OLED"},
			{Key: "Storage", Value: "64 GB"},
			{Key: "Battery", Value: "4.5 - 9 hours"},
		},
	},
	{
		Name:          "The Legend of Zelda: Breath of the Wild",
		Description:   "Step into a world of discovery, exploration and adventure in this open-air Zelda adventure.",
		Price:         price(59.99),
		OriginalPrice: price(69.99),
		Category:      string(models.CategoryGames),
		Images:        []string{"https://images.example.com/zelda-botw.jpg"},
		Stock:         stock(50),
		Featured:      true,
		OnSale:        true,
		Tags:          []string{"adventure", "open-world"},
	},
	{
		Name:          "Super Mario Odyssey",
		Description:   "Explore incredible places far from the Mushroom Kingdom as Mario and his new ally Cappy.",
		Price:         price(49.99),
		OriginalPrice: price(59.99),
		Category:      string(models.CategoryGames),
		Images:        []string{"https://images.example.com/mario-odyssey.jpg"},
		Stock:         stock(35),
		OnSale:        true,
		Tags:          []string{"platformer"},
	},
	{
		Name:        "Nintendo Switch Pro Controller",
		Description: "Take your game sessions up a notch with the Pro Controller, featuring motion controls and HD rumble.",
		Price:       price(69.99),
		Category:    string(models.CategoryControllers),
		Images:      []string{"https://images.example.com/pro-controller.jpg"},
		Stock:       stock(40),
		Tags:        []string{"controller"},
	},
	{
		Name:        "Animal Crossing: New Horizons",
		Description: "Escape to a deserted island and create your own paradise as you explore, create and customize.",
		Price:       price(54.99),
		Category:    string(models.CategoryGames),
		Images:      []string{"https://images.example.com/animal-crossing.jpg"},
		Stock:       stock(30),
		Tags:        []string{"simulation"},
	},
	{
		Name:        "Mario Kart 8 Deluxe",
		Description: "Hit the road with the definitive version of Mario Kart 8 and play anytime, anywhere.",
		Price:       price(59.99),
		Category:    string(models.CategoryGames),
		Images:      []string{"https://images.example.com/mario-kart-8.jpg"},
		Stock:       stock(45),
		Featured:    true,
		Tags:        []string{"racing", "multiplayer"},
	},
	{
		Name:        "Nintendo Switch Carrying Case",
		Description: "Protect your Nintendo Switch on the go with this durable carrying case with room for 10 games.",
		Price:       price(19.99),
		Category:    string(models.CategoryCases),
		Images:      []string{"https://images.example.com/carrying-case.jpg"},
		Stock:       stock(60),
		Tags:        []string{"case"},
	},
	{
		Name:        "SanDisk 128GB microSDXC Card",
		Description: "Officially licensed memory card for Nintendo Switch with transfer speeds up to 100 MB/s.",
		Price:       price(24.99),
		Category:    string(models.CategoryStorage),
		Brand:       "SanDisk",
		Images:      []string{"https://images.example.com/sandisk-128gb.jpg"},
		Stock:       stock(75),
		Tags:        []string{"storage"},
	},
}

// Result summarizes a seed run.
type Result struct {
	Admin    *models.User
	Customer *models.User
	Products []*models.Product
}

// Run wipes the store and loads the sample accounts and catalog. Running it
// twice leaves the same data set behind.
func Run(ctx context.Context, store *repositories.Store, auth *services.AuthService, catalog *services.ProductService, log logrus.FieldLogger) (*Result, error) {
	if err := store.Reset(ctx); err != nil {
		return nil, fmt.Errorf("reset store: %w", err)
	}
	log.Info("Store cleared")

	admin, err := auth.Provision(ctx, Admin, models.RoleAdmin)
	if err != nil {
		return nil, fmt.Errorf("create admin: %w", err)
	}
	customer, err := auth.Provision(ctx, Customer, models.RoleUser)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	log.WithFields(logrus.Fields{"admin": admin.Email, "user": customer.Email}).Info("Accounts created")

	identity := &services.Identity{ID: admin.ID, Role: admin.Role, Name: admin.Name}
	result := &Result{Admin: admin, Customer: customer}
	for _, in := range Catalog {
		product, err := catalog.CreateProduct(ctx, identity, in)
		if err != nil {
			return nil, fmt.Errorf("create product %q: %w", in.Name, err)
		}
		result.Products = append(result.Products, product)
	}
	log.WithField("products", len(result.Products)).Info("Catalog loaded")

	return result, nil
}
