package repositories

import (
	"bytes"
	"context"
	"fmt"
	"testing"

	"eshop/internal/logging"
	"eshop/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLiteWithLog(t *testing.T, out *bytes.Buffer) *Store {
	ctx := context.Background()
	log, err := logging.New("debug", "text", out)
	require.NoError(t, err)
	store, err := Open(ctx, Options{
		Driver: DriverSQLite,
		DSN:    fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()),
		Logger: log,
	})
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close(ctx) })
	return store
}

func TestGORMLogger_GoesThroughLogrus(t *testing.T) {
	var out bytes.Buffer
	store := openSQLiteWithLog(t, &out)
	out.Reset()

	_, err := store.Users.GetByEmail(context.Background(), "nobody@nintendo.com")
	require.ErrorIs(t, err, ErrNotFound)
	assert.NotContains(t, out.String(), "record not found")
	assert.NotContains(t, out.String(), "nobody@nintendo.com")

	err = store.db.Exec("SELECT * FROM missing_table").Error
	require.Error(t, err)
	assert.Contains(t, out.String(), "no such table")
	assert.Contains(t, out.String(), "component=gorm")
}

func TestBackfillSearchColumns(t *testing.T) {
	ctx := context.Background()
	var out bytes.Buffer
	store := openSQLiteWithLog(t, &out)

	product := &models.Product{
		Name:        "Pokémon Écarlate",
		Description: "Une aventure en monde ouvert",
		Price:       59.99,
		Category:    models.CategoryGames,
		Brand:       models.DefaultProductBrand,
		Images:      []string{"https://example.com/pokemon.jpg"},
		CreatedBy:   "admin-1",
	}
	require.NoError(t, store.Products.Create(ctx, product))
	require.NoError(t, store.db.Model(&models.Product{}).Where("id = ?", product.ID).
		Updates(map[string]interface{}{"name_folded": "", "description_folded": ""}).Error)

	found, _, err := store.Products.Find(ctx, models.ProductQuery{Search: "écarlate"})
	require.NoError(t, err)
	assert.Empty(t, found)

	require.NoError(t, store.Migrate(ctx))

	found, total, err := store.Products.Find(ctx, models.ProductQuery{Search: "ÉCARLATE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, found, 1)
	assert.Equal(t, product.ID, found[0].ID)
}
