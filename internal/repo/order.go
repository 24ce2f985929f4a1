package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/table_order/internal/domain"
	"github.com/Skotchmaster/table_order/internal/models"
)

// CreateOrder inserts the order and its line items atomically. On return the
// order and every line carry their generated ids.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		lines := order.OrderProducts
		if len(lines) == 0 {
			return errors.New("order has no line items")
		}
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range lines {
			lines[i].OrderID = order.ID
			lines[i].Position = i
		}
		if err := tx.Omit(clause.Associations).Create(&lines).Error; err != nil {
			return err
		}
		order.OrderProducts = lines
		return nil
	})
}

func byPosition(db *gorm.DB) *gorm.DB { return db.Order("position ASC") }

// GetOrder loads the order with its restaurant and line items (with products).
func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := r.DB.WithContext(ctx).
		Preload("Restaurant").
		Preload("OrderProducts", byPosition).
		Preload("OrderProducts.Product").
		Where("id = ?", id).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrdersByCPF returns the CPF's orders newest first with restaurant and
// line items preloaded.
func (r *GormRepo) ListOrdersByCPF(ctx context.Context, cpf string, offset, limit int) (int64, []models.Order, error) {
	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).Where("customer_cpf = ?", cpf).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	orders := make([]models.Order, 0, limit)
	if total == 0 {
		return 0, orders, nil
	}

	err := r.DB.WithContext(ctx).
		Preload("Restaurant").
		Preload("OrderProducts", byPosition).
		Preload("OrderProducts.Product").
		Where("customer_cpf = ?", cpf).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&orders).Error
	if err != nil {
		return 0, nil, err
	}
	return total, orders, nil
}

type TransitionResult int

const (
	TransitionApplied TransitionResult = iota
	TransitionDuplicateEvent
	TransitionOrderNotFound
	TransitionRejected
)

func (r TransitionResult) String() string {
	switch r {
	case TransitionApplied:
		return "applied"
	case TransitionDuplicateEvent:
		return "duplicate_event"
	case TransitionOrderNotFound:
		return "order_not_found"
	case TransitionRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

type Transition struct {
	Result TransitionResult
	// Order is the order after the attempt; nil when it does not exist.
	Order *models.Order
}

// ApplyStatusTransition records ev and moves the order from PENDING to next
// in one transaction. A repeated event id changes nothing. The update is a
// compare-and-set on status, so the first terminal state wins.
func (r *GormRepo) ApplyStatusTransition(ctx context.Context, ev *models.ProcessedEvent, next domain.OrderStatus) (Transition, error) {
	var out Transition

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Where("id = ?", ev.OrderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				out.Result = TransitionOrderNotFound
				return nil
			}
			return err
		}

		res := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoNothing: true,
		}).Create(ev)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			out.Result = TransitionDuplicateEvent
			out.Order = &order
			return nil
		}

		upd := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, domain.OrderStatusPending).
			Updates(map[string]any{"status": next, "updated_at": tx.NowFunc()})
		if upd.Error != nil {
			return upd.Error
		}

		if err := tx.Preload("Restaurant").Where("id = ?", order.ID).First(&order).Error; err != nil {
			return err
		}
		out.Order = &order
		if upd.RowsAffected == 0 {
			out.Result = TransitionRejected
			return nil
		}
		out.Result = TransitionApplied
		return nil
	})
	if err != nil {
		return Transition{}, err
	}
	return out, nil
}
