package models

import "time"

type GiftEventType string

const (
	GiftAdded   GiftEventType = "GIFT_ADDED"   // 自動加入贈品
	GiftRemoved GiftEventType = "GIFT_REMOVED" // 條件不符或規則失效而移除
)

type GiftEvent struct {
	Type          GiftEventType `json:"type"`
	OrderID       int64         `json:"order_id"`
	OrderNumber   string        `json:"order_number"`
	GiftRuleID    int64         `json:"gift_rule_id"`
	PurchasableID int64         `json:"purchasable_id"`
	Qty           int           `json:"qty"`
	OccurredAt    time.Time     `json:"occurred_at"`
}

type GiftRuleEventType string

const (
	GiftRuleSaved   GiftRuleEventType = "GIFT_RULE_SAVED"
	GiftRuleDeleted GiftRuleEventType = "GIFT_RULE_DELETED"
)

// GiftRuleEvent 後台新增、修改或刪除規則後發送
type GiftRuleEvent struct {
	Type       GiftRuleEventType `json:"type"`
	GiftRuleID int64             `json:"gift_rule_id"`
	Name       string            `json:"name"`
	IsNew      bool              `json:"is_new"`
	OccurredAt time.Time         `json:"occurred_at"`
}
