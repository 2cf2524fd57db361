package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"gift_with_purchase/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	categories map[int64][]int64
	groups     map[int64][]int64
	err        error

	mu    sync.Mutex
	calls int
}

func (c *fakeCatalog) called() {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
}

func (c *fakeCatalog) RelatedCategoryIDs(ctx context.Context, purchasableID int64) ([]int64, error) {
	c.called()
	if c.err != nil {
		return nil, c.err
	}
	return c.categories[purchasableID], nil
}

func (c *fakeCatalog) GroupsForUser(ctx context.Context, userID int64) ([]int64, error) {
	c.called()
	if c.err != nil {
		return nil, c.err
	}
	return c.groups[userID], nil
}

type removedSet map[int64]bool

func (r removedSet) WasRemoved(orderKey string, ruleID int64) bool { return r[ruleID] }

func newSynchronizer(catalog *fakeCatalog) *GiftSynchronizer {
	return NewGiftSynchronizer(NewRuleEvaluator(nil), catalog, catalog, nil)
}

func cartWith(subtotal string) *models.Order {
	order := &models.Order{ID: 1, Number: "order-1"}
	order.AddLineItem(&models.LineItem{ID: 10, PurchasableID: 7, Qty: 1, Price: dec(subtotal)})
	return order
}

func minSubtotalRule(id int64, min string) *models.GiftRule {
	r := giftRule(id, 42)
	r.MinSubtotal = decimal.NewNullDecimal(dec(min))
	return r
}

func TestReconcileAddsGiftOnce(t *testing.T) {
	s := newSynchronizer(&fakeCatalog{})
	rule := minSubtotalRule(1, "50")
	note := "free tote bag"
	rule.Note = &note
	order := cartWith("60")

	result := s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, nil)
	require.True(t, result.Changed())
	require.Len(t, result.Added, 1)
	require.Len(t, order.LineItems, 2)

	gift := order.GiftLineItemFor(1)
	require.NotNil(t, gift)
	assert.Equal(t, int64(42), gift.PurchasableID)
	assert.Equal(t, 1, gift.Qty)
	assert.Equal(t, "free tote bag", gift.Description)
	assert.True(t, gift.Price.IsZero())
	assert.True(t, gift.PromotionalPrice.IsZero())

	// 狀態不變時再次對帳不應有變動
	again := s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, nil)
	assert.False(t, again.Changed())
	assert.Len(t, order.LineItems, 2)
}

func TestReconcileRemovesGiftWhenConditionsFail(t *testing.T) {
	s := newSynchronizer(&fakeCatalog{})
	rule := minSubtotalRule(1, "50")
	order := cartWith("60")
	s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, nil)

	order.LineItems[0].Price = dec("40")
	result := s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, nil)
	require.Len(t, result.Removed, 1)
	assert.Equal(t, ReasonConditionsNotMet, result.Removed[0].Reason)
	assert.Nil(t, order.GiftLineItemFor(1))
	assert.Len(t, order.LineItems, 1)
}

func TestReconcileRespectsAutoAdd(t *testing.T) {
	s := newSynchronizer(&fakeCatalog{})
	rule := giftRule(1, 42)
	rule.AutoAdd = false
	order := cartWith("60")

	result := s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, nil)
	assert.False(t, result.Changed())
	assert.Nil(t, order.GiftLineItemFor(1))
}

func TestReconcileRespectsRemovalRecord(t *testing.T) {
	s := newSynchronizer(&fakeCatalog{})
	rule := giftRule(1, 42)
	order := cartWith("60")

	result := s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, removedSet{1: true})
	assert.False(t, result.Changed())

	rule.ReAddOnRemoval = true
	result = s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, removedSet{1: true})
	assert.Len(t, result.Added, 1)
}

func TestReconcileExcludesGiftsFromSubtotal(t *testing.T) {
	s := newSynchronizer(&fakeCatalog{})
	rule := minSubtotalRule(1, "50")
	order := cartWith("40")

	// 高價贈品也不會讓小計達標
	other := giftRule(2, 43)
	other.Enabled = true
	expensive := models.NewGiftLineItem(other)
	expensive.Price = dec("100")
	expensive.PromotionalPrice = dec("100")
	order.AddLineItem(expensive)

	s.Reconcile(context.Background(), order, []*models.GiftRule{rule, other}, nil)
	assert.Nil(t, order.GiftLineItemFor(1))
	assert.NotNil(t, order.GiftLineItemFor(2))
}

func TestReconcileRemovesStaleAndDuplicateGifts(t *testing.T) {
	s := newSynchronizer(&fakeCatalog{})
	rule := giftRule(1, 42)
	deleted := giftRule(9, 99)
	order := cartWith("60")
	order.AddLineItem(models.NewGiftLineItem(rule))
	order.AddLineItem(models.NewGiftLineItem(rule))
	order.AddLineItem(models.NewGiftLineItem(deleted))

	result := s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, nil)
	require.Len(t, result.Removed, 2)
	reasons := []RemovalReason{result.Removed[0].Reason, result.Removed[1].Reason}
	assert.ElementsMatch(t, []RemovalReason{ReasonDuplicate, ReasonRuleUnavailable}, reasons)
	assert.Len(t, order.LineItems, 2)
	assert.NotNil(t, order.GiftLineItemFor(1))
	assert.Nil(t, order.GiftLineItemFor(9))
}

func TestReconcileSkipsDisabledRules(t *testing.T) {
	s := newSynchronizer(&fakeCatalog{})
	rule := giftRule(1, 42)
	order := cartWith("60")
	s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, nil)
	require.NotNil(t, order.GiftLineItemFor(1))

	rule.Enabled = false
	result := s.Reconcile(context.Background(), order, []*models.GiftRule{rule}, nil)
	require.Len(t, result.Removed, 1)
	assert.Equal(t, ReasonRuleUnavailable, result.Removed[0].Reason)
}

func TestReconcileInsertsInSortOrder(t *testing.T) {
	s := newSynchronizer(&fakeCatalog{})
	first := giftRule(1, 41)
	first.SortOrder = 20
	second := giftRule(2, 42)
	second.SortOrder = 10
	order := cartWith("60")

	s.Reconcile(context.Background(), order, []*models.GiftRule{first, second}, nil)
	require.Len(t, order.LineItems, 3)
	assert.Equal(t, int64(42), order.LineItems[1].PurchasableID)
	assert.Equal(t, int64(41), order.LineItems[2].PurchasableID)
}

func TestReconcileCategoryAndGroupLookups(t *testing.T) {
	catalog := &fakeCatalog{
		categories: map[int64][]int64{7: {5}},
		groups:     map[int64][]int64{100: {3}},
	}
	s := newSynchronizer(catalog)

	plain := giftRule(1, 42)
	s.Reconcile(context.Background(), cartWith("60"), []*models.GiftRule{plain}, nil)
	assert.Equal(t, 0, catalog.calls)

	byCategory := giftRule(2, 43)
	byCategory.AllCategories = false
	byCategory.SetCategoryIDs([]int64{5, 6})
	byGroup := giftRule(3, 44)
	byGroup.SetUserGroupIDs([]int64{3})

	ctx := interactiveCtx(int64Ptr(100))
	order := cartWith("60")
	s.Reconcile(ctx, order, []*models.GiftRule{byCategory, byGroup}, nil)
	assert.NotNil(t, order.GiftLineItemFor(2))
	assert.NotNil(t, order.GiftLineItemFor(3))

	// 匿名顧客不符合群組條件
	anonymous := cartWith("60")
	s.Reconcile(context.Background(), anonymous, []*models.GiftRule{byGroup}, nil)
	assert.Nil(t, anonymous.GiftLineItemFor(3))
}

func TestReconcileFailsClosedOnLookupError(t *testing.T) {
	catalog := &fakeCatalog{err: errors.New("catalog down")}
	s := newSynchronizer(catalog)

	rule := giftRule(1, 42)
	rule.AllCategories = false
	rule.SetCategoryIDs([]int64{5})
	order := cartWith("60")

	result := s.Reconcile(interactiveCtx(int64Ptr(1)), order, []*models.GiftRule{rule}, nil)
	assert.False(t, result.Changed())
}
