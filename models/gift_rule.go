package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// 未設定排序時的預設值
const DefaultSortOrder = 999

// 贈品規則
type GiftRule struct {
	ID                int64               `json:"id" gorm:"primaryKey"`
	Name              string              `json:"name" gorm:"size:255;not null"`
	Note              *string             `json:"note" gorm:"size:255"` // 作為贈品明細的描述
	GiftPurchasableID int64               `json:"gift_purchasable_id" gorm:"not null;index"`
	GiftQty           int                 `json:"gift_qty" gorm:"not null"`
	GiftPrice         decimal.Decimal     `json:"gift_price" gorm:"type:decimal(14,4);not null"`
	Enabled           bool                `json:"enabled" gorm:"not null"`
	DateFrom          *time.Time          `json:"date_from"`
	DateTo            *time.Time          `json:"date_to"`
	MinSubtotal       decimal.NullDecimal `json:"min_subtotal" gorm:"type:decimal(14,4)"`
	MaxSubtotal       decimal.NullDecimal `json:"max_subtotal" gorm:"type:decimal(14,4)"`
	AllCategories     bool                `json:"all_categories" gorm:"not null"`
	AllPurchasables   bool                `json:"all_purchasables" gorm:"not null"`
	AutoAdd           bool                `json:"auto_add" gorm:"not null"`
	ReAddOnRemoval    bool                `json:"re_add_on_removal" gorm:"not null"`
	SortOrder         int                 `json:"sort_order" gorm:"not null;index"`
	CreatedAt         time.Time           `json:"created_at"`
	UpdatedAt         time.Time           `json:"updated_at"`

	Categories   []GiftRuleCategory    `json:"categories" gorm:"foreignKey:GiftRuleID"`
	Purchasables []GiftRulePurchasable `json:"purchasables" gorm:"foreignKey:GiftRuleID"`
	UserGroups   []GiftRuleUserGroup   `json:"user_groups" gorm:"foreignKey:GiftRuleID"`
}

// NewGiftRule 回傳帶有預設值的規則
func NewGiftRule() *GiftRule {
	return &GiftRule{
		GiftQty:         1,
		GiftPrice:       decimal.Zero,
		Enabled:         true,
		AllCategories:   true,
		AllPurchasables: true,
		AutoAdd:         true,
		SortOrder:       DefaultSortOrder,
	}
}

type GiftRuleCategory struct {
	ID         int64     `json:"id" gorm:"primaryKey"`
	GiftRuleID int64     `json:"gift_rule_id" gorm:"not null;uniqueIndex:idx_gift_rule_category"`
	CategoryID int64     `json:"category_id" gorm:"not null;uniqueIndex:idx_gift_rule_category"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

type GiftRulePurchasable struct {
	ID            int64     `json:"id" gorm:"primaryKey"`
	GiftRuleID    int64     `json:"gift_rule_id" gorm:"not null;uniqueIndex:idx_gift_rule_purchasable"`
	PurchasableID int64     `json:"purchasable_id" gorm:"not null;uniqueIndex:idx_gift_rule_purchasable"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type GiftRuleUserGroup struct {
	ID          int64     `json:"id" gorm:"primaryKey"`
	GiftRuleID  int64     `json:"gift_rule_id" gorm:"not null;uniqueIndex:idx_gift_rule_user_group"`
	UserGroupID int64     `json:"user_group_id" gorm:"not null;uniqueIndex:idx_gift_rule_user_group"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (r *GiftRule) CategoryIDs() []int64 {
	ids := make([]int64, 0, len(r.Categories))
	for _, c := range r.Categories {
		ids = append(ids, c.CategoryID)
	}
	return ids
}

func (r *GiftRule) PurchasableIDs() []int64 {
	ids := make([]int64, 0, len(r.Purchasables))
	for _, p := range r.Purchasables {
		ids = append(ids, p.PurchasableID)
	}
	return ids
}

func (r *GiftRule) UserGroupIDs() []int64 {
	ids := make([]int64, 0, len(r.UserGroups))
	for _, g := range r.UserGroups {
		ids = append(ids, g.UserGroupID)
	}
	return ids
}

// SetCategoryIDs 以去重後的 id 取代分類條件
func (r *GiftRule) SetCategoryIDs(ids []int64) {
	r.Categories = nil
	for _, id := range uniqueIDs(ids) {
		r.Categories = append(r.Categories, GiftRuleCategory{GiftRuleID: r.ID, CategoryID: id})
	}
}

func (r *GiftRule) SetPurchasableIDs(ids []int64) {
	r.Purchasables = nil
	for _, id := range uniqueIDs(ids) {
		r.Purchasables = append(r.Purchasables, GiftRulePurchasable{GiftRuleID: r.ID, PurchasableID: id})
	}
}

func (r *GiftRule) SetUserGroupIDs(ids []int64) {
	r.UserGroups = nil
	for _, id := range uniqueIDs(ids) {
		r.UserGroups = append(r.UserGroups, GiftRuleUserGroup{GiftRuleID: r.ID, UserGroupID: id})
	}
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
