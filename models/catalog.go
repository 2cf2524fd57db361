package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchasable 為可購買的商品規格，ProductID 指向所屬商品
type Purchasable struct {
	ID               int64               `json:"id" gorm:"primaryKey"`
	ProductID        *int64              `json:"product_id" gorm:"index"`
	SKU              string              `json:"sku" gorm:"size:64;uniqueIndex"`
	Price            decimal.Decimal     `json:"price" gorm:"type:decimal(14,4);not null"`
	PromotionalPrice decimal.NullDecimal `json:"promotional_price" gorm:"type:decimal(14,4)"`
	CreatedAt        time.Time           `json:"created_at"`
	UpdatedAt        time.Time           `json:"updated_at"`
}

type ProductCategory struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	ProductID  int64     `json:"product_id" gorm:"not null;uniqueIndex:idx_product_category"`
	CategoryID int64     `json:"category_id" gorm:"not null;uniqueIndex:idx_product_category"`
	CreatedAt  time.Time `json:"created_at"`
}

type UserGroupMembership struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	UserID      int64     `json:"user_id" gorm:"not null;uniqueIndex:idx_user_group"`
	UserGroupID int64     `json:"user_group_id" gorm:"not null;uniqueIndex:idx_user_group"`
	CreatedAt   time.Time `json:"created_at"`
}
