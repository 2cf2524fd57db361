package services

import (
	"context"
	"errors"
	"log/slog"

	"gift_with_purchase/models"
)

// GiftRuleStore 為對帳流程讀取規則所需的介面
type GiftRuleStore interface {
	GetAllEnabledGiftRules(ctx context.Context) ([]*models.GiftRule, error)
	GetGiftRuleByID(ctx context.Context, id int64) (*models.GiftRule, error)
}

// PriceEnforcer 在價格重新計算後把贈品價格改回規則的贈品價
type PriceEnforcer struct {
	rules  GiftRuleStore
	logger *slog.Logger
}

func NewPriceEnforcer(rules GiftRuleStore, logger *slog.Logger) *PriceEnforcer {
	if logger == nil {
		logger = slog.Default()
	}
	return &PriceEnforcer{rules: rules, logger: logger}
}

// Enforce 規則已刪除或讀取失敗時不更動價格，移除交給下一次對帳
func (p *PriceEnforcer) Enforce(ctx context.Context, li *models.LineItem) {
	ruleID, ok := li.GiftRuleRef()
	if !ok {
		return
	}

	rule, err := p.rules.GetGiftRuleByID(ctx, ruleID)
	if err != nil {
		if !errors.Is(err, ErrGiftRuleNotFound) {
			p.logger.WarnContext(ctx, "讀取贈品規則失敗，保留原價格", "rule_id", ruleID, "error", err)
		}
		return
	}

	li.Price = rule.GiftPrice
	li.PromotionalPrice = rule.GiftPrice
}
