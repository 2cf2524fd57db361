package models

import (
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

type Order struct {
	ID          int64       `json:"id" gorm:"primaryKey"`
	Number      string      `json:"number" gorm:"size:36;uniqueIndex"`
	CustomerID  *int64      `json:"customer_id" gorm:"index"`
	IsCompleted bool        `json:"is_completed" gorm:"not null"`
	CompletedAt *time.Time  `json:"completed_at"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	LineItems   []*LineItem `json:"line_items" gorm:"foreignKey:OrderID"`
}

// LineItem 為購物車明細。GiftRuleID 為 nil 時是一般商品，否則是該規則產生的贈品。
type LineItem struct {
	ID               int64           `json:"id" gorm:"primaryKey"`
	OrderID          int64           `json:"order_id" gorm:"index"`
	PurchasableID    int64           `json:"purchasable_id" gorm:"not null"`
	Qty              int             `json:"qty" gorm:"not null"`
	Price            decimal.Decimal `json:"price" gorm:"type:decimal(14,4);not null"`
	PromotionalPrice decimal.Decimal `json:"promotional_price" gorm:"type:decimal(14,4);not null"`
	Description      string          `json:"description" gorm:"size:255"`
	Options          map[string]any  `json:"options" gorm:"serializer:json;type:text"`
	GiftRuleID       *int64          `json:"gift_rule_id" gorm:"index"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewGiftLineItem 依規則建立贈品明細，價格固定為規則的贈品價
func NewGiftLineItem(rule *GiftRule) *LineItem {
	ruleID := rule.ID
	description := ""
	if rule.Note != nil {
		description = *rule.Note
	}
	return &LineItem{
		PurchasableID:    rule.GiftPurchasableID,
		Qty:              rule.GiftQty,
		Price:            rule.GiftPrice,
		PromotionalPrice: rule.GiftPrice,
		Description:      description,
		Options:          map[string]any{},
		GiftRuleID:       &ruleID,
	}
}

// GiftRuleRef 回傳贈品所屬規則；非贈品回傳 false
func (li *LineItem) GiftRuleRef() (int64, bool) {
	if li.GiftRuleID == nil || *li.GiftRuleID <= 0 {
		return 0, false
	}
	return *li.GiftRuleID, true
}

func (li *LineItem) IsGift() bool {
	_, ok := li.GiftRuleRef()
	return ok
}

// SalePrice 有效的促銷價低於原價時採用促銷價
func (li *LineItem) SalePrice() decimal.Decimal {
	if li.PromotionalPrice.IsPositive() && li.PromotionalPrice.LessThan(li.Price) {
		return li.PromotionalPrice
	}
	return li.Price
}

func (li *LineItem) Subtotal() decimal.Decimal {
	return li.SalePrice().Mul(decimal.NewFromInt(int64(li.Qty)))
}

// Key 用於追蹤每張訂單的暫存狀態
func (o *Order) Key() string {
	if o.Number != "" {
		return o.Number
	}
	if o.ID != 0 {
		return strconv.FormatInt(o.ID, 10)
	}
	return "temp"
}

func (o *Order) AddLineItem(li *LineItem) {
	li.OrderID = o.ID
	o.LineItems = append(o.LineItems, li)
}

// RemoveLineItem 從記憶體中的訂單移除明細，回傳是否找到
func (o *Order) RemoveLineItem(li *LineItem) bool {
	for i, item := range o.LineItems {
		if item == li {
			o.LineItems = append(o.LineItems[:i], o.LineItems[i+1:]...)
			return true
		}
	}
	return false
}

func (o *Order) FindLineItem(id int64) *LineItem {
	for _, li := range o.LineItems {
		if li.ID == id {
			return li
		}
	}
	return nil
}

func (o *Order) NonGiftLineItems() []*LineItem {
	items := make([]*LineItem, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		if !li.IsGift() {
			items = append(items, li)
		}
	}
	return items
}

// GiftLineItemFor 回傳該規則的第一筆贈品明細
func (o *Order) GiftLineItemFor(ruleID int64) *LineItem {
	for _, li := range o.LineItems {
		if id, ok := li.GiftRuleRef(); ok && id == ruleID {
			return li
		}
	}
	return nil
}

// NonGiftSubtotal 贈品不計入小計
func (o *Order) NonGiftSubtotal() decimal.Decimal {
	total := decimal.Zero
	for _, li := range o.NonGiftLineItems() {
		total = total.Add(li.Subtotal())
	}
	return total
}
