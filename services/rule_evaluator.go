package services

import (
	"time"

	"gift_with_purchase/models"

	"github.com/shopspring/decimal"
)

// CartSnapshot 是評估規則時購物車（不含贈品）的唯讀快照
type CartSnapshot struct {
	PurchasableIDs   map[int64]struct{}
	ItemCategoryIDs  [][]int64 // 每筆一般明細所屬商品的分類
	CustomerID       *int64
	CustomerGroupIDs map[int64]struct{}
}

func (s CartSnapshot) hasPurchasable(id int64) bool {
	_, ok := s.PurchasableIDs[id]
	return ok
}

// RuleEvaluator 判斷規則是否適用於購物車，不修改任何狀態
type RuleEvaluator struct {
	now func() time.Time
}

func NewRuleEvaluator(now func() time.Time) *RuleEvaluator {
	if now == nil {
		now = time.Now
	}
	return &RuleEvaluator{now: now}
}

// Matches 所有條件皆成立才回傳 true
func (e *RuleEvaluator) Matches(rule *models.GiftRule, snap CartSnapshot, nonGiftSubtotal decimal.Decimal) bool {
	if rule == nil {
		return false
	}

	// 有效期間，兩端皆包含
	now := e.now()
	if rule.DateFrom != nil && now.Before(*rule.DateFrom) {
		return false
	}
	if rule.DateTo != nil && now.After(*rule.DateTo) {
		return false
	}

	// 小計門檻
	if rule.MinSubtotal.Valid && nonGiftSubtotal.LessThan(rule.MinSubtotal.Decimal) {
		return false
	}
	if rule.MaxSubtotal.Valid && nonGiftSubtotal.GreaterThan(rule.MaxSubtotal.Decimal) {
		return false
	}

	// 指定商品必須全部在購物車內
	if !rule.AllPurchasables {
		for _, id := range rule.PurchasableIDs() {
			if !snap.hasPurchasable(id) {
				return false
			}
		}
	}

	// 指定分類只需任一明細符合任一分類
	if !rule.AllCategories {
		required := rule.CategoryIDs()
		if len(required) > 0 && !anyItemInCategories(snap.ItemCategoryIDs, required) {
			return false
		}
	}

	// 會員群組
	groups := rule.UserGroupIDs()
	if len(groups) > 0 {
		if snap.CustomerID == nil {
			return false
		}
		matched := false
		for _, g := range groups {
			if _, ok := snap.CustomerGroupIDs[g]; ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}

	return true
}

func anyItemInCategories(items [][]int64, required []int64) bool {
	want := make(map[int64]struct{}, len(required))
	for _, id := range required {
		want[id] = struct{}{}
	}
	for _, categories := range items {
		for _, c := range categories {
			if _, ok := want[c]; ok {
				return true
			}
		}
	}
	return false
}
