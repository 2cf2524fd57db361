package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestLineItemGiftRef(t *testing.T) {
	plain := &LineItem{}
	_, ok := plain.GiftRuleRef()
	assert.False(t, ok)
	assert.False(t, plain.IsGift())

	zero := int64(0)
	plain.GiftRuleID = &zero
	assert.False(t, plain.IsGift())

	rule := NewGiftRule()
	rule.ID = 3
	rule.GiftPurchasableID = 42
	gift := NewGiftLineItem(rule)
	id, ok := gift.GiftRuleRef()
	assert.True(t, ok)
	assert.Equal(t, int64(3), id)
	assert.Equal(t, "", gift.Description)

	// 修改規則不影響已建立的明細
	rule.ID = 4
	id, _ = gift.GiftRuleRef()
	assert.Equal(t, int64(3), id)
}

func TestLineItemSalePrice(t *testing.T) {
	li := &LineItem{Qty: 2, Price: decimal.NewFromInt(10)}
	assert.True(t, li.Subtotal().Equal(decimal.NewFromInt(20)))

	li.PromotionalPrice = decimal.NewFromInt(8)
	assert.True(t, li.SalePrice().Equal(decimal.NewFromInt(8)))
	assert.True(t, li.Subtotal().Equal(decimal.NewFromInt(16)))

	li.PromotionalPrice = decimal.NewFromInt(12)
	assert.True(t, li.SalePrice().Equal(decimal.NewFromInt(10)))
}

func TestOrderLineItems(t *testing.T) {
	order := &Order{ID: 9}
	assert.Equal(t, "9", order.Key())
	order.Number = "abc"
	assert.Equal(t, "abc", order.Key())
	assert.Equal(t, "temp", (&Order{}).Key())

	rule := NewGiftRule()
	rule.ID = 1
	plain := &LineItem{ID: 1, PurchasableID: 7, Qty: 1, Price: decimal.NewFromInt(30)}
	gift := NewGiftLineItem(rule)
	gift.Price = decimal.NewFromInt(100)
	order.AddLineItem(plain)
	order.AddLineItem(gift)

	assert.Equal(t, int64(9), gift.OrderID)
	assert.Same(t, plain, order.FindLineItem(1))
	assert.Nil(t, order.FindLineItem(2))
	assert.Equal(t, []*LineItem{plain}, order.NonGiftLineItems())
	assert.Same(t, gift, order.GiftLineItemFor(1))
	assert.Nil(t, order.GiftLineItemFor(2))
	assert.True(t, order.NonGiftSubtotal().Equal(decimal.NewFromInt(30)))

	assert.True(t, order.RemoveLineItem(gift))
	assert.False(t, order.RemoveLineItem(gift))
	assert.Len(t, order.LineItems, 1)
}

func TestGiftRuleSetters(t *testing.T) {
	rule := NewGiftRule()
	rule.SetCategoryIDs([]int64{3, 1, 3})
	rule.SetPurchasableIDs([]int64{5})
	rule.SetUserGroupIDs(nil)

	assert.Equal(t, []int64{3, 1}, rule.CategoryIDs())
	assert.Equal(t, []int64{5}, rule.PurchasableIDs())
	assert.Empty(t, rule.UserGroupIDs())
	assert.Equal(t, DefaultSortOrder, rule.SortOrder)
	assert.True(t, rule.GiftPrice.IsZero())
}
