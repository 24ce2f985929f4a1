package models

import (
	"database/sql/driver"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"

	"github.com/Skotchmaster/table_order/internal/domain"
)

type Restaurant struct {
	ID             uuid.UUID      `gorm:"primaryKey"               json:"id"`
	Slug           string         `gorm:"uniqueIndex;not null"     json:"slug"`
	Name           string         `gorm:"not null"                 json:"name"`
	Description    string         `gorm:"not null"                 json:"description"`
	AvatarImageURL string         `gorm:"not null"                 json:"avatarImageUrl"`
	CoverImageURL  string         `gorm:"not null"                 json:"coverImageUrl"`
	MenuCategories []MenuCategory `gorm:"constraint:OnDelete:CASCADE" json:"menuCategories,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

type MenuCategory struct {
	ID           uuid.UUID `gorm:"primaryKey"           json:"id"`
	RestaurantID uuid.UUID `gorm:"index;not null"       json:"restaurantId"`
	Name         string    `gorm:"not null"             json:"name"`
	Products     []Product `gorm:"constraint:OnDelete:CASCADE" json:"products,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type Product struct {
	ID             uuid.UUID       `gorm:"primaryKey"                json:"id"`
	Name           string          `gorm:"not null"                  json:"name"`
	Description    string          `gorm:"not null"                  json:"description"`
	Price          decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL       string          `gorm:"not null"                  json:"imageUrl"`
	Ingredients    Ingredients     `json:"ingredients"`
	RestaurantID   uuid.UUID       `gorm:"index;not null"            json:"restaurantId"`
	MenuCategoryID uuid.UUID       `gorm:"index;not null"            json:"menuCategoryId"`
	Restaurant     *Restaurant     `json:"restaurant,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
}

type Order struct {
	ID                uint                     `gorm:"primaryKey;autoIncrement"   json:"id"`
	RestaurantID      uuid.UUID                `gorm:"index;not null"             json:"restaurantId"`
	CustomerName      string                   `gorm:"not null"                   json:"customerName"`
	CustomerEmail     string                   `gorm:"not null"                   json:"customerEmail"`
	CustomerCPF       string                   `gorm:"column:customer_cpf;index;not null;size:11" json:"customerCpf"`
	ConsumptionMethod domain.ConsumptionMethod `gorm:"not null;size:16"           json:"consumptionMethod"`
	Status            domain.OrderStatus       `gorm:"index;not null;size:32"     json:"status"`
	Total             decimal.Decimal          `gorm:"type:numeric(10,2);not null" json:"total"`
	Restaurant        *Restaurant              `json:"restaurant,omitempty"`
	OrderProducts     []OrderProduct           `json:"orderProducts,omitempty"`
	CreatedAt         time.Time                `gorm:"index"                      json:"createdAt"`
	UpdatedAt         time.Time                `json:"updatedAt"`
}

type OrderProduct struct {
	ID        uuid.UUID       `gorm:"primaryKey"                  json:"id"`
	OrderID   uint            `gorm:"index;not null"              json:"orderId"`
	ProductID uuid.UUID       `gorm:"index;not null"              json:"productId"`
	Quantity  int             `gorm:"not null;check:quantity>0"   json:"quantity"`
	Price     decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	Position  int             `gorm:"not null;default:0"          json:"position"`
	Product   *Product        `json:"product,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// ProcessedEvent records every processor event applied to an order, keyed by
// the processor's event id.
type ProcessedEvent struct {
	ID          uint      `gorm:"primaryKey;autoIncrement"  json:"id"`
	EventID     string    `gorm:"uniqueIndex;not null"      json:"eventId"`
	Kind        string    `gorm:"not null"                  json:"kind"`
	OrderID     uint      `gorm:"index;not null"            json:"orderId"`
	ProcessedAt time.Time `gorm:"not null"                  json:"processedAt"`
}

func (r *Restaurant) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

func (c *MenuCategory) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (op *OrderProduct) BeforeCreate(tx *gorm.DB) error {
	if op.ID == uuid.Nil {
		op.ID = uuid.New()
	}
	return nil
}

// Ingredients is stored as text[] on postgres and as an array literal elsewhere.
type Ingredients pq.StringArray

func (Ingredients) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "text[]"
	}
	return "text"
}

func (i Ingredients) Value() (driver.Value, error) {
	return pq.StringArray(i).Value()
}

func (i *Ingredients) Scan(src any) error {
	return (*pq.StringArray)(i).Scan(src)
}

// All lists the models migrated at startup.
func All() []any {
	return []any{
		&Restaurant{},
		&MenuCategory{},
		&Product{},
		&Order{},
		&OrderProduct{},
		&ProcessedEvent{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
