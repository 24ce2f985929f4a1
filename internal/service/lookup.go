package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/table_order/internal/cache"
	"github.com/Skotchmaster/table_order/internal/models"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/internal/util"
	"github.com/Skotchmaster/table_order/pkg/cpf"
)

type OrderPage struct {
	Orders []models.Order `json:"orders"`
	Total  int64          `json:"total"`
	Page   int            `json:"page"`
	Size   int            `json:"size"`
}

type LookupService struct {
	Repo  *repo.GormRepo
	Cache *cache.Cache
}

// ListByCPF returns the CPF's orders newest first. An unknown CPF yields an
// empty page; a malformed one is ErrValidation.
func (s *LookupService) ListByCPF(ctx context.Context, rawCPF string, page, size int) (*OrderPage, error) {
	if !cpf.IsValid(rawCPF) {
		return nil, fmt.Errorf("%w: invalid cpf", ErrValidation)
	}
	digits := cpf.Normalize(rawCPF)
	page = util.ClampPage(page)
	offset, limit := util.Calculate(page, size)

	return cache.Fetch(ctx, s.Cache, cache.OrdersKey(digits, page, limit), func(ctx context.Context) (*OrderPage, error) {
		total, orders, err := s.Repo.ListOrdersByCPF(ctx, digits, offset, limit)
		if err != nil {
			return nil, fmt.Errorf("list orders: %w", err)
		}
		return &OrderPage{Orders: orders, Total: total, Page: page, Size: limit}, nil
	})
}

// GetOrder returns the order when cpf matches its customer. A mismatch is
// reported as ErrNotFound so order ids cannot be probed.
func (s *LookupService) GetOrder(ctx context.Context, id uint, rawCPF string) (*models.Order, error) {
	return getOwnedOrder(ctx, s.Repo, id, rawCPF)
}
