package service

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/models"
	"github.com/Skotchmaster/table_order/internal/repo"
	"github.com/Skotchmaster/table_order/pkg/cpf"
)

func getOwnedOrder(ctx context.Context, r *repo.GormRepo, id uint, rawCPF string) (*models.Order, error) {
	if !cpf.IsValid(rawCPF) {
		return nil, fmt.Errorf("%w: invalid cpf", ErrValidation)
	}
	order, err := r.GetOrder(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
		}
		return nil, err
	}
	if order.CustomerCPF != cpf.Normalize(rawCPF) {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return order, nil
}
