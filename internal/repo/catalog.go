package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/table_order/internal/models"
)

func (r *GormRepo) GetRestaurantBySlug(ctx context.Context, slug string) (*models.Restaurant, error) {
	var rest models.Restaurant
	if err := r.DB.WithContext(ctx).Where("slug = ?", slug).First(&rest).Error; err != nil {
		return nil, err
	}
	return &rest, nil
}

// GetMenu loads the restaurant with its categories and their products.
func (r *GormRepo) GetMenu(ctx context.Context, slug string) (*models.Restaurant, error) {
	var rest models.Restaurant
	err := r.DB.WithContext(ctx).
		Preload("MenuCategories", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC, name ASC") }).
		Preload("MenuCategories.Products", func(db *gorm.DB) *gorm.DB { return db.Order("name ASC") }).
		Where("slug = ?", slug).
		First(&rest).Error
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

// GetProduct loads the product together with its restaurant.
func (r *GormRepo) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var p models.Product
	if err := r.DB.WithContext(ctx).Preload("Restaurant").Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *GormRepo) GetProductsByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var items []models.Product
	if len(ids) == 0 {
		return items, nil
	}
	if err := r.DB.WithContext(ctx).Where("id IN ?", ids).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) ListProducts(ctx context.Context, restaurantID uuid.UUID) ([]models.Product, error) {
	var items []models.Product
	if err := r.DB.WithContext(ctx).Where("restaurant_id = ?", restaurantID).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// CreateRestaurant stores the restaurant, its categories and their products
// in one transaction. Products must already carry the restaurant id.
func (r *GormRepo) CreateRestaurant(ctx context.Context, rest *models.Restaurant) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(rest).Error
	})
}

// SearchProducts is a case-insensitive substring match on name and
// description, used when no search cluster is configured.
func (r *GormRepo) SearchProducts(ctx context.Context, restaurantID uuid.UUID, q string, offset, limit int) (int64, []models.Product, error) {
	like := "%" + strings.ToLower(q) + "%"
	where := "restaurant_id = ? AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)"

	var total int64
	if err := r.DB.WithContext(ctx).Model(&models.Product{}).Where(where, restaurantID, like, like).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Where(where, restaurantID, like, like).
		Order("name ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}
