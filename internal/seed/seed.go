// Package seed loads a demo restaurant for local runs.
package seed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/models"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/internal/search"
)

const DemoSlug = "fsw-donalds"

// Indexer is satisfied by *search.Client.
type Indexer interface {
	EnsureIndex(ctx context.Context) error
	IndexProduct(ctx context.Context, doc search.ProductDoc) error
}

type demoProduct struct {
	name        string
	description string
	price       string
	ingredients []string
}

var demoMenu = []struct {
	category string
	products []demoProduct
}{
	{"Combos", []demoProduct{
		{"McOferta Media Big Mac Duplo", "Quatro hamburgueres, alface, queijo, molho especial, cebola e picles no pao com gergelim, batata e bebida.", "39.90", []string{"Pao com gergelim", "Hamburguer de carne 100% bovina", "Alface americana", "Queijo processado sabor cheddar", "Molho especial", "Cebola", "Picles"}},
		{"Novo Brabo Melt Onion Rings", "Dois hamburgueres de carne, bacon, molho cheddar, onion rings e maionese no pao tipo brioche.", "41.50", []string{"Pao tipo brioche", "Hamburguer de carne 100% bovina", "Bacon", "Molho cheddar", "Onion rings"}},
	}},
	{"Lanches", []demoProduct{
		{"Big Mac", "Dois hamburgueres, alface, queijo, molho especial, cebola e picles no pao com gergelim.", "25.90", []string{"Pao com gergelim", "Hamburguer de carne 100% bovina", "Alface americana", "Queijo processado sabor cheddar", "Molho especial", "Cebola", "Picles"}},
		{"Quarterao com Queijo", "Hamburguer de carne, duas fatias de queijo, picles, cebola, ketchup e mostarda.", "23.50", []string{"Pao com gergelim", "Hamburguer de carne 100% bovina", "Queijo processado sabor cheddar", "Picles", "Cebola", "Ketchup", "Mostarda"}},
	}},
	{"Fritas", []demoProduct{
		{"Fritas Grande", "Batatas fritas crocantes e sequinhas.", "10.90", []string{"Batata", "Sal"}},
		{"Fritas Media", "Batatas fritas crocantes e sequinhas.", "9.90", []string{"Batata", "Sal"}},
	}},
	{"Bebidas", []demoProduct{
		{"Coca-Cola", "Coca-Cola gelada para acompanhar seu lanche.", "5.90", nil},
		{"Suco de Laranja", "Suco de laranja natural.", "7.90", nil},
	}},
	{"Sobremesas", []demoProduct{
		{"Casquinha de Baunilha", "Casquinha de sorvete sabor baunilha.", "3.90", nil},
		{"McFlurry de Ovomaltine", "Sorvete de baunilha com flocos de Ovomaltine.", "10.90", nil},
	}},
}

func demoRestaurant() *models.Restaurant {
	rest := &models.Restaurant{
		ID:             uuid.New(),
		Slug:           DemoSlug,
		Name:           "FSW Donalds",
		Description:    "O melhor fast food do mundo",
		AvatarImageURL: "https://img.example/fsw-donalds/avatar.png",
		CoverImageURL:  "https://img.example/fsw-donalds/cover.png",
	}
	for _, c := range demoMenu {
		cat := models.MenuCategory{ID: uuid.New(), RestaurantID: rest.ID, Name: c.category}
		for _, p := range c.products {
			cat.Products = append(cat.Products, models.Product{
				Name:           p.name,
				Description:    p.description,
				Price:          decimal.RequireFromString(p.price),
				ImageURL:       "https://img.example/fsw-donalds/products/" + uuid.NewString() + ".png",
				Ingredients:    models.Ingredients(p.ingredients),
				RestaurantID:   rest.ID,
				MenuCategoryID: cat.ID,
			})
		}
		rest.MenuCategories = append(rest.MenuCategories, cat)
	}
	return rest
}

// Demo creates the demo restaurant unless it exists and indexes its products
// when idx is not nil. Running it twice is safe.
func Demo(ctx context.Context, r *repo.GormRepo, idx Indexer) (*models.Restaurant, error) {
	l := slog.Default().With("component", "seed")

	rest, err := r.GetRestaurantBySlug(ctx, DemoSlug)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rest = demoRestaurant()
		if err := r.CreateRestaurant(ctx, rest); err != nil {
			return nil, fmt.Errorf("create demo restaurant: %w", err)
		}
		l.Info("seed_restaurant_created", "slug", rest.Slug)
	case err != nil:
		return nil, err
	default:
		l.Info("seed_restaurant_exists", "slug", rest.Slug)
	}

	if idx == nil {
		return rest, nil
	}
	if err := idx.EnsureIndex(ctx); err != nil {
		return nil, fmt.Errorf("ensure index: %w", err)
	}
	products, err := r.ListProducts(ctx, rest.ID)
	if err != nil {
		return nil, err
	}
	for _, p := range products {
		if err := idx.IndexProduct(ctx, search.DocFromProduct(p)); err != nil {
			return nil, fmt.Errorf("index product %s: %w", p.ID, err)
		}
	}
	l.Info("seed_products_indexed", "count", len(products))
	return rest, nil
}
