// Package testutil opens throwaway databases and seeds fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/models"
	pkgdb "github.com/Skotchmaster/table_order/pkg/db"
)

const PostgresDSNEnv = "ORDERING_TEST_DATABASE_URL"

// InitTestDB returns a migrated in-memory SQLite database private to t.
func InitTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := pkgdb.Open(context.Background(), pkgdb.DriverSQLite, dsn)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

// InitPostgresDB connects to the database named by ORDERING_TEST_DATABASE_URL
// and empties it, or skips the test when the variable is unset.
func InitPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := os.Getenv(PostgresDSNEnv)
	if dsn == "" {
		t.Skipf("%s not set", PostgresDSNEnv)
	}

	db, err := pkgdb.Open(context.Background(), pkgdb.DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, models.AutoMigrate(db))
	ClearDB(t, db)

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func ClearDB(t *testing.T, db *gorm.DB) {
	t.Helper()

	tables := []string{
		"processed_events",
		"order_products",
		"orders",
		"products",
		"menu_categories",
		"restaurants",
	}
	for _, tbl := range tables {
		require.NoError(t, db.Exec("DELETE FROM "+tbl).Error)
	}
}

type Fixture struct {
	Restaurant models.Restaurant
	Category   models.MenuCategory
	Burger     models.Product
	Fries      models.Product
	Soda       models.Product
}

// SeedRestaurant creates a restaurant with one category and three products
// priced 10.00, 5.00 and 4.50.
func SeedRestaurant(t *testing.T, db *gorm.DB, slug string) Fixture {
	t.Helper()

	f := Fixture{
		Restaurant: models.Restaurant{
			Slug:           slug,
			Name:           "FSW Donalds",
			Description:    "O melhor fast food do mundo",
			AvatarImageURL: "https://img.example/avatar.png",
			CoverImageURL:  "https://img.example/cover.png",
		},
	}
	require.NoError(t, db.Create(&f.Restaurant).Error)

	f.Category = models.MenuCategory{RestaurantID: f.Restaurant.ID, Name: "Lanches"}
	require.NoError(t, db.Create(&f.Category).Error)

	mk := func(name, price string, ingredients ...string) models.Product {
		p := models.Product{
			Name:           name,
			Description:    name + " description",
			Price:          decimal.RequireFromString(price),
			ImageURL:       "https://img.example/" + name + ".png",
			Ingredients:    models.Ingredients(ingredients),
			RestaurantID:   f.Restaurant.ID,
			MenuCategoryID: f.Category.ID,
		}
		require.NoError(t, db.Create(&p).Error)
		return p
	}
	f.Burger = mk("Burger", "10.00", "pao", "carne", "queijo")
	f.Fries = mk("Fries", "5.00", "batata")
	f.Soda = mk("Soda", "4.50")
	return f
}
