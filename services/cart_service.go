package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gift_with_purchase/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type nopHooks struct{}

func (nopHooks) OnOrderSaved(context.Context, *models.Order) error                     { return nil }
func (nopHooks) OnOrderCompleted(context.Context, *models.Order)                       {}
func (nopHooks) OnLineItemRemoved(context.Context, *models.Order, *models.LineItem)   {}
func (nopHooks) OnLineItemPopulated(context.Context, *models.Order, *models.LineItem) {}

// CartService 為購物車的異動流程，每次儲存都會重新計價並觸發 CartHooks。
// 同一張訂單的異動從讀取到儲存完成都在 orderLocks 內依序執行。
type CartService struct {
	db      *gorm.DB
	catalog *CatalogService
	hooks   CartHooks
	locks   *orderLocks
	logger  *slog.Logger
}

func NewCartService(db *gorm.DB, catalog *CatalogService, logger *slog.Logger) *CartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &CartService{db: db, catalog: catalog, hooks: nopHooks{}, locks: newOrderLocks(), logger: logger}
}

func (s *CartService) SetHooks(h CartHooks) {
	if h == nil {
		h = nopHooks{}
	}
	s.hooks = h
}

func (s *CartService) CreateCart(ctx context.Context, customerID *int64) (*models.Order, error) {
	order := &models.Order{
		Number:     uuid.New().String(),
		CustomerID: customerID,
	}
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return nil, err
	}
	return order, nil
}

// GetCart 前台請求只能讀取自己的購物車；別人的購物車一律回報不存在
func (s *CartService) GetCart(ctx context.Context, id int64) (*models.Order, error) {
	order := &models.Order{}
	err := s.db.WithContext(ctx).
		Preload("LineItems", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(order, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if !canAccess(ctx, order) {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// canAccess 沒有 Session 的內部呼叫與管理者不受限；匿名購物車任何人都可存取
func canAccess(ctx context.Context, order *models.Order) bool {
	session, ok := SessionFromContext(ctx)
	if !ok || session.IsAdmin() || order.CustomerID == nil {
		return true
	}
	return session.CustomerID != nil && *session.CustomerID == *order.CustomerID
}

func (s *CartService) openCart(ctx context.Context, id int64) (*models.Order, error) {
	order, err := s.GetCart(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.IsCompleted {
		return nil, ErrOrderCompleted
	}
	return order, nil
}

// AddItem 同一商品已在購物車（非贈品）時累加數量
func (s *CartService) AddItem(ctx context.Context, orderID, purchasableID int64, qty int) (*models.Order, error) {
	if qty < 1 {
		return nil, ErrInvalidQty
	}
	defer s.locks.lock(orderID)()

	order, err := s.openCart(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if _, err := s.catalog.Purchasable(ctx, purchasableID); err != nil {
		return nil, err
	}

	var line *models.LineItem
	for _, li := range order.NonGiftLineItems() {
		if li.PurchasableID == purchasableID {
			line = li
			break
		}
	}
	if line != nil {
		line.Qty += qty
	} else {
		order.AddLineItem(&models.LineItem{PurchasableID: purchasableID, Qty: qty, Options: map[string]any{}})
	}

	if err := s.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// UpdateQty 數量小於等於 0 視為顧客移除
func (s *CartService) UpdateQty(ctx context.Context, orderID, lineItemID int64, qty int) (*models.Order, error) {
	defer s.locks.lock(orderID)()

	if qty <= 0 {
		return s.removeLineItem(ctx, orderID, lineItemID)
	}
	order, err := s.openCart(ctx, orderID)
	if err != nil {
		return nil, err
	}
	li := order.FindLineItem(lineItemID)
	if li == nil {
		return nil, ErrLineItemNotFound
	}
	if li.IsGift() {
		return nil, ErrGiftLineItemReadOnly
	}
	li.Qty = qty

	if err := s.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *CartService) RemoveLineItem(ctx context.Context, orderID, lineItemID int64) (*models.Order, error) {
	defer s.locks.lock(orderID)()
	return s.removeLineItem(ctx, orderID, lineItemID)
}

// removeLineItem 呼叫端須已持有訂單鎖
func (s *CartService) removeLineItem(ctx context.Context, orderID, lineItemID int64) (*models.Order, error) {
	order, err := s.openCart(ctx, orderID)
	if err != nil {
		return nil, err
	}
	li := order.FindLineItem(lineItemID)
	if li == nil {
		return nil, ErrLineItemNotFound
	}
	order.RemoveLineItem(li)
	s.hooks.OnLineItemRemoved(ctx, order, li)

	if err := s.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (s *CartService) CompleteOrder(ctx context.Context, orderID int64) (*models.Order, error) {
	defer s.locks.lock(orderID)()

	order, err := s.openCart(ctx, orderID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	order.IsCompleted = true
	order.CompletedAt = &now

	if err := s.SaveOrder(ctx, order); err != nil {
		return nil, err
	}
	s.hooks.OnOrderCompleted(ctx, order)
	return order, nil
}

// SaveOrder 重新計價、寫入資料庫，再交給 OnOrderSaved。
// 對帳時會重入，因此這裡不取訂單鎖。
func (s *CartService) SaveOrder(ctx context.Context, order *models.Order) error {
	for _, li := range order.LineItems {
		s.populate(ctx, li)
		s.hooks.OnLineItemPopulated(ctx, order, li)
	}
	if err := s.persist(ctx, order); err != nil {
		return err
	}
	return s.hooks.OnOrderSaved(ctx, order)
}

// populate 以商品目前的價格重新計價；查不到商品時保留原價
func (s *CartService) populate(ctx context.Context, li *models.LineItem) {
	p, err := s.catalog.Purchasable(ctx, li.PurchasableID)
	if err != nil {
		s.logger.WarnContext(ctx, "重新計價失敗，保留原價格", "purchasable_id", li.PurchasableID, "error", err)
		return
	}
	li.Price = p.Price
	li.PromotionalPrice = decimal.Zero
	if p.PromotionalPrice.Valid {
		li.PromotionalPrice = p.PromotionalPrice.Decimal
	}
}

// persist 在同一個交易內寫入訂單與明細，並刪除已不在訂單上的明細
func (s *CartService) persist(ctx context.Context, order *models.Order) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("LineItems").Save(order).Error; err != nil {
			return err
		}

		keep := make([]int64, 0, len(order.LineItems))
		for _, li := range order.LineItems {
			if li.ID != 0 {
				keep = append(keep, li.ID)
			}
		}
		stale := tx.Where("order_id = ?", order.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		if err := stale.Delete(&models.LineItem{}).Error; err != nil {
			return err
		}

		for _, li := range order.LineItems {
			li.OrderID = order.ID
			if err := tx.Save(li).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to persist order %s: %w", order.Key(), err)
	}
	return nil
}
