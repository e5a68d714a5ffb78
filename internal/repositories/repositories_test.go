package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"eshop/internal/models"
	"eshop/internal/repositories"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type storeFactory func(t *testing.T) *repositories.Store

func openMemory(t *testing.T) *repositories.Store {
	store, err := repositories.Open(context.Background(), repositories.Options{Driver: repositories.DriverMemory})
	require.NoError(t, err)
	return store
}

func openSQLite(t *testing.T) *repositories.Store {
	ctx := context.Background()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	store, err := repositories.Open(ctx, repositories.Options{Driver: repositories.DriverSQLite, DSN: dsn})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close(ctx) })
	return store
}

func TestRepositories_Memory(t *testing.T) {
	runRepositoryContract(t, openMemory)
}

func TestRepositories_SQLite(t *testing.T) {
	runRepositoryContract(t, openSQLite)
}

func runRepositoryContract(t *testing.T, open storeFactory) {
	t.Run("UserCreateAndLookup", func(t *testing.T) { testUserCreateAndLookup(t, open(t)) })
	t.Run("UserDuplicateEmail", func(t *testing.T) { testUserDuplicateEmail(t, open(t)) })
	t.Run("UserUpdateProfile", func(t *testing.T) { testUserUpdateProfile(t, open(t)) })
	t.Run("ProductCRUD", func(t *testing.T) { testProductCRUD(t, open(t)) })
	t.Run("ProductUpdateKeepsRating", func(t *testing.T) { testProductUpdateKeepsRating(t, open(t)) })
	t.Run("ProductFilters", func(t *testing.T) { testProductFilters(t, open(t)) })
	t.Run("ProductSearchFoldsUnicode", func(t *testing.T) { testProductSearchFoldsUnicode(t, open(t)) })
	t.Run("ProductSortAndPaging", func(t *testing.T) { testProductSortAndPaging(t, open(t)) })
	t.Run("AddReview", func(t *testing.T) { testAddReview(t, open(t)) })
	t.Run("DeleteCascadesReviews", func(t *testing.T) { testDeleteCascadesReviews(t, open(t)) })
	t.Run("Reset", func(t *testing.T) { testReset(t, open(t)) })
}

func newUser(email string) *models.User {
	return &models.User{
		Name:     "Test User",
		Email:    email,
		Password: "$2a$10$hash",
		Role:     models.RoleUser,
	}
}

var baseTime = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func newProduct(name string, price float64, category models.Category, offset int) *models.Product {
	created := baseTime.Add(time.Duration(offset) * time.Minute)
	return &models.Product{
		Name:        name,
		Description: "A product used by repository tests",
		Price:       price,
		Category:    category,
		Brand:       models.DefaultProductBrand,
		Images:      []string{"https://example.com/" + name + ".jpg"},
		Stock:       10,
		CreatedBy:   "admin-1",
		CreatedAt:   created,
		UpdatedAt:   created,
	}
}

func testUserCreateAndLookup(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	user := newUser("mario@example.com")
	user.Address = models.Address{City: "Kyoto", Country: "Japan"}
	require.NoError(t, store.Users.Create(ctx, user))
	assert.NotEmpty(t, user.ID)

	byEmail, err := store.Users.GetByEmail(ctx, "mario@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)
	assert.Equal(t, "Kyoto", byEmail.Address.City)

	byID, err := store.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, byID.Role)

	_, err = store.Users.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	_, err = store.Users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testUserDuplicateEmail(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	require.NoError(t, store.Users.Create(ctx, newUser("luigi@example.com")))
	err := store.Users.Create(ctx, newUser("luigi@example.com"))
	assert.ErrorIs(t, err, repositories.ErrDuplicate)
}

func testUserUpdateProfile(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	user := newUser("peach@example.com")
	require.NoError(t, store.Users.Create(ctx, user))
	other := newUser("daisy@example.com")
	require.NoError(t, store.Users.Create(ctx, other))

	user.Name = "Princess Peach"
	user.Phone = "555-0100"
	user.Role = models.RoleAdmin
	require.NoError(t, store.Users.Update(ctx, user))

	got, err := store.Users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "Princess Peach", got.Name)
	assert.Equal(t, "555-0100", got.Phone)
	assert.Equal(t, models.RoleUser, got.Role, "role is not a profile field")

	user.Email = "daisy@example.com"
	assert.ErrorIs(t, store.Users.Update(ctx, user), repositories.ErrDuplicate)

	ghost := newUser("ghost@example.com")
	ghost.ID = "missing"
	assert.ErrorIs(t, store.Users.Update(ctx, ghost), repositories.ErrNotFound)
}

func testProductCRUD(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	original := 69.99
	product := newProduct("Zelda", 59.99, models.CategoryGames, 0)
	product.OriginalPrice = &original
	product.Tags = []string{"adventure", "open-world"}
	product.Specifications.Set("Players", "1")
	product.Specifications.Set("Genre", "Action")
	require.NoError(t, store.Products.Create(ctx, product))
	require.NotEmpty(t, product.ID)

	got, err := store.Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zelda", got.Name)
	require.NotNil(t, got.OriginalPrice)
	assert.Equal(t, 69.99, *got.OriginalPrice)
	assert.Equal(t, []string{"adventure", "open-world"}, got.Tags)
	assert.Equal(t, models.Specifications{{Key: "Players", Value: "1"}, {Key: "Genre", Value: "Action"}}, got.Specifications)

	got.Price = 49.99
	got.Stock = 0
	got.Featured = false
	got.UpdatedAt = baseTime.Add(time.Hour)
	require.NoError(t, store.Products.Update(ctx, got))

	updated, err := store.Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 49.99, updated.Price)
	assert.Equal(t, 0, updated.Stock)
	assert.Equal(t, "admin-1", updated.CreatedBy)

	missing := newProduct("Ghost", 1, models.CategoryGames, 0)
	missing.ID = "missing"
	assert.ErrorIs(t, store.Products.Update(ctx, missing), repositories.ErrNotFound)

	require.NoError(t, store.Products.Delete(ctx, product.ID))
	_, err = store.Products.GetByID(ctx, product.ID)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	assert.ErrorIs(t, store.Products.Delete(ctx, product.ID), repositories.ErrNotFound)
}

func testProductUpdateKeepsRating(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	product := newProduct("Pro Controller", 69.99, models.CategoryControllers, 0)
	require.NoError(t, store.Products.Create(ctx, product))
	_, err := store.Products.AddReview(ctx, product.ID, &models.Review{UserID: "u1", Name: "Toad", Rating: 4, Comment: "Very comfy"})
	require.NoError(t, err)

	stale := newProduct("Pro Controller v2", 64.99, models.CategoryControllers, 0)
	stale.ID = product.ID
	stale.CreatedBy = "someone-else"
	require.NoError(t, store.Products.Update(ctx, stale))

	got, err := store.Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, "Pro Controller v2", got.Name)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 1, got.NumReviews)
	assert.Len(t, got.Reviews, 1)
	assert.Equal(t, "admin-1", got.CreatedBy)
}

func seedCatalog(t *testing.T, store *repositories.Store) []*models.Product {
	ctx := context.Background()
	products := []*models.Product{
		newProduct("Super Mario Odyssey", 49.99, models.CategoryGames, 0),
		newProduct("Zelda Breath of the Wild", 59.99, models.CategoryGames, 1),
		newProduct("Switch OLED", 349.99, models.CategoryConsoles, 2),
		newProduct("Carrying Case", 19.99, models.CategoryCases, 3),
		newProduct("Mario Kart 8", 59.99, models.CategoryGames, 4),
	}
	products[1].Featured = true
	products[1].OnSale = true
	products[3].Stock = 0
	for _, p := range products {
		require.NoError(t, store.Products.Create(ctx, p))
	}
	return products
}

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func testProductFilters(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	seedCatalog(t, store)
	minPrice := 50.0
	maxPrice := 60.0

	cases := []struct {
		name  string
		query models.ProductQuery
		want  []string
	}{
		{"category and min price", models.ProductQuery{Category: models.CategoryGames, MinPrice: &minPrice, Sort: models.SortCreatedAt},
			[]string{"Zelda Breath of the Wild", "Mario Kart 8"}},
		{"search is case insensitive", models.ProductQuery{Search: "MARIO", Sort: models.SortCreatedAt},
			[]string{"Super Mario Odyssey", "Mario Kart 8"}},
		{"search matches description", models.ProductQuery{Search: "repository tests", Sort: models.SortCreatedAt, Limit: 2},
			[]string{"Super Mario Odyssey", "Zelda Breath of the Wild"}},
		{"search treats wildcards literally", models.ProductQuery{Search: "%", Sort: models.SortCreatedAt},
			[]string{}},
		{"price range", models.ProductQuery{MinPrice: &minPrice, MaxPrice: &maxPrice, Sort: models.SortCreatedAt},
			[]string{"Zelda Breath of the Wild", "Mario Kart 8"}},
		{"in stock", models.ProductQuery{InStock: true, Category: models.CategoryCases, Sort: models.SortCreatedAt},
			[]string{}},
		{"featured and on sale", models.ProductQuery{Featured: true, OnSale: true, Sort: models.SortCreatedAt},
			[]string{"Zelda Breath of the Wild"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			products, total, err := store.Products.Find(ctx, tc.query)
			require.NoError(t, err)
			assert.Equal(t, tc.want, names(products))
			if tc.query.Limit == 0 {
				assert.Equal(t, int64(len(tc.want)), total)
			}
			for _, p := range products {
				assert.Empty(t, p.Reviews)
			}
		})
	}
}

func testProductSearchFoldsUnicode(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	pokemon := newProduct("Pokémon Écarlate", 59.99, models.CategoryGames, 0)
	pokemon.Description = "Une aventure en monde ouvert à ÉTOILE"
	require.NoError(t, store.Products.Create(ctx, pokemon))
	require.NoError(t, store.Products.Create(ctx, newProduct("Kirby", 59.99, models.CategoryGames, 1)))

	for _, search := range []string{"POKÉMON", "écarlate", "étoile", "Étoile"} {
		products, total, err := store.Products.Find(ctx, models.ProductQuery{Search: search, Sort: models.SortCreatedAt})
		require.NoError(t, err, search)
		assert.Equal(t, []string{"Pokémon Écarlate"}, names(products), search)
		assert.Equal(t, int64(1), total, search)
	}

	// Renamed products are found under the new name only.
	renamed := *pokemon
	renamed.Name = "Pokémon Violet"
	require.NoError(t, store.Products.Update(ctx, &renamed))
	products, _, err := store.Products.Find(ctx, models.ProductQuery{Search: "VIOLET", Sort: models.SortCreatedAt})
	require.NoError(t, err)
	assert.Equal(t, []string{"Pokémon Violet"}, names(products))
	products, _, err = store.Products.Find(ctx, models.ProductQuery{Search: "ÉCARLATE", Sort: models.SortCreatedAt})
	require.NoError(t, err)
	assert.Empty(t, products)
}

func testProductSortAndPaging(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	seedCatalog(t, store)

	products, total, err := store.Products.Find(ctx, models.ProductQuery{Sort: models.SortPrice, SortDesc: true, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	// Equal prices keep creation order.
	assert.Equal(t, []string{"Switch OLED", "Zelda Breath of the Wild", "Mario Kart 8", "Super Mario Odyssey", "Carrying Case"}, names(products))

	page2, total, err := store.Products.Find(ctx, models.ProductQuery{Sort: models.SortName, Page: 2, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"Super Mario Odyssey", "Switch OLED"}, names(page2))

	beyond, total, err := store.Products.Find(ctx, models.ProductQuery{Sort: models.SortCreatedAt, Page: 9, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, beyond)

	huge, total, err := store.Products.Find(ctx, models.ProductQuery{Sort: models.SortCreatedAt, Page: 4611686018427387904, Limit: 12})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, huge)

	first, _, err := store.Products.Find(ctx, models.ProductQuery{Sort: models.SortCreatedAt, SortDesc: true, Page: 1, Limit: 3})
	require.NoError(t, err)
	again, _, err := store.Products.Find(ctx, models.ProductQuery{Sort: models.SortCreatedAt, SortDesc: true, Page: 1, Limit: 3})
	require.NoError(t, err)
	assert.Equal(t, names(first), names(again))
	assert.Equal(t, []string{"Mario Kart 8", "Carrying Case", "Switch OLED"}, names(first))
}

func testAddReview(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	product := newProduct("Zelda", 59.99, models.CategoryGames, 0)
	require.NoError(t, store.Products.Create(ctx, product))

	for i, rating := range []int{5, 3, 4} {
		review := &models.Review{UserID: "u1", Name: "Link", Rating: rating, Comment: "Great game"}
		updated, err := store.Products.AddReview(ctx, product.ID, review)
		require.NoError(t, err)
		assert.NotEmpty(t, review.ID)
		assert.Equal(t, i+1, updated.NumReviews)
		assert.Len(t, updated.Reviews, i+1)
	}

	got, err := store.Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.0, got.Rating)
	assert.Equal(t, 3, got.NumReviews)
	require.Len(t, got.Reviews, 3)
	assert.Equal(t, 5, got.Reviews[0].Rating)
	assert.Equal(t, "Link", got.Reviews[0].Name)

	minRating := 4.0
	rated, _, err := store.Products.Find(ctx, models.ProductQuery{MinRating: &minRating, Sort: models.SortRating})
	require.NoError(t, err)
	assert.Equal(t, []string{"Zelda"}, names(rated))

	_, err = store.Products.AddReview(ctx, "missing", &models.Review{UserID: "u1", Name: "Link", Rating: 5, Comment: "Great game"})
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func testDeleteCascadesReviews(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	product := newProduct("Animal Crossing", 54.99, models.CategoryGames, 0)
	require.NoError(t, store.Products.Create(ctx, product))
	_, err := store.Products.AddReview(ctx, product.ID, &models.Review{UserID: "u1", Name: "Isabelle", Rating: 5, Comment: "So relaxing"})
	require.NoError(t, err)

	require.NoError(t, store.Products.Delete(ctx, product.ID))

	// Re-create under the same id: no orphaned reviews may come back.
	again := newProduct("Animal Crossing", 54.99, models.CategoryGames, 0)
	again.ID = product.ID
	require.NoError(t, store.Products.Create(ctx, again))
	got, err := store.Products.GetByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Reviews)
	assert.Equal(t, 0, got.NumReviews)
}

func testReset(t *testing.T, store *repositories.Store) {
	ctx := context.Background()
	seedCatalog(t, store)
	require.NoError(t, store.Users.Create(ctx, newUser("bowser@example.com")))

	require.NoError(t, store.Reset(ctx))

	products, total, err := store.Products.Find(ctx, models.ProductQuery{})
	require.NoError(t, err)
	assert.Empty(t, products)
	assert.Zero(t, total)
	_, err = store.Users.GetByEmail(ctx, "bowser@example.com")
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := repositories.Open(context.Background(), repositories.Options{Driver: "cassandra"})
	assert.Error(t, err)
}
