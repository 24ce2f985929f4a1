package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/cache"
	"github.com/Skotchmaster/table_order/internal/domain"
	"github.com/Skotchmaster/table_order/internal/models"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/internal/search"
	"github.com/Skotchmaster/table_order/internal/util"
)

// Searcher is satisfied by *search.Client.
type Searcher interface {
	Search(ctx context.Context, restaurantID, query string, from, size int) (int64, []search.ProductDoc, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Cache  *cache.Cache
	Search Searcher
}

type Menu struct {
	ConsumptionMethod domain.ConsumptionMethod `json:"consumptionMethod"`
	Restaurant        *models.Restaurant       `json:"restaurant"`
}

type SearchPage struct {
	Items []search.ProductDoc `json:"items"`
	Total int64               `json:"total"`
	Page  int                 `json:"page"`
	Size  int                 `json:"size"`
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s", ErrNotFound, what)
	}
	return err
}

func (s *CatalogService) GetRestaurant(ctx context.Context, slug string) (*models.Restaurant, error) {
	rest, err := s.Repo.GetRestaurantBySlug(ctx, slug)
	if err != nil {
		return nil, notFound(err, "restaurant "+slug)
	}
	return rest, nil
}

// GetMenu returns the restaurant with categories and products for a valid
// consumption method.
func (s *CatalogService) GetMenu(ctx context.Context, slug, rawMethod string) (*Menu, error) {
	method, err := domain.ParseConsumptionMethod(rawMethod)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	return cache.Fetch(ctx, s.Cache, cache.MenuKey(slug, string(method)), func(ctx context.Context) (*Menu, error) {
		rest, err := s.Repo.GetMenu(ctx, slug)
		if err != nil {
			return nil, notFound(err, "restaurant "+slug)
		}
		return &Menu{ConsumptionMethod: method, Restaurant: rest}, nil
	})
}

// GetProduct returns a product only through the restaurant that owns it.
func (s *CatalogService) GetProduct(ctx context.Context, slug string, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product "+id.String())
	}
	if p.Restaurant == nil || p.Restaurant.Slug != slug {
		return nil, fmt.Errorf("%w: product %s", ErrNotFound, id)
	}
	return p, nil
}

// SearchMenu uses the search cluster when configured and a database
// substring match otherwise.
func (s *CatalogService) SearchMenu(ctx context.Context, slug, q string, page, size int) (*SearchPage, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, fmt.Errorf("%w: query required", ErrValidation)
	}
	rest, err := s.GetRestaurant(ctx, slug)
	if err != nil {
		return nil, err
	}

	page = util.ClampPage(page)
	offset, limit := util.Calculate(page, size)
	out := &SearchPage{Page: page, Size: limit}

	if s.Search != nil {
		total, docs, err := s.Search.Search(ctx, rest.ID.String(), q, offset, limit)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		out.Total, out.Items = total, docs
		return out, nil
	}

	total, products, err := s.Repo.SearchProducts(ctx, rest.ID, q, offset, limit)
	if err != nil {
		return nil, err
	}
	out.Total = total
	out.Items = make([]search.ProductDoc, 0, len(products))
	for _, p := range products {
		out.Items = append(out.Items, search.DocFromProduct(p))
	}
	return out, nil
}
