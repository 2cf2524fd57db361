package services

import (
	"context"
	"fmt"
	"os"
	"time"

	"gift_with_purchase/models"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// RuleSeed 為 YAML 規則檔中的一筆規則，未填的欄位使用 NewGiftRule 的預設值
type RuleSeed struct {
	Name              string     `yaml:"name"`
	Note              *string    `yaml:"note"`
	GiftPurchasableID int64      `yaml:"gift_purchasable_id"`
	GiftQty           *int       `yaml:"gift_qty"`
	GiftPrice         *float64   `yaml:"gift_price"`
	Enabled           *bool      `yaml:"enabled"`
	DateFrom          *time.Time `yaml:"date_from"`
	DateTo            *time.Time `yaml:"date_to"`
	MinSubtotal       *float64   `yaml:"min_subtotal"`
	MaxSubtotal       *float64   `yaml:"max_subtotal"`
	CategoryIDs       []int64    `yaml:"category_ids"`
	PurchasableIDs    []int64    `yaml:"purchasable_ids"`
	UserGroupIDs      []int64    `yaml:"user_group_ids"`
	AutoAdd           *bool      `yaml:"auto_add"`
	ReAddOnRemoval    *bool      `yaml:"re_add_on_removal"`
	SortOrder         *int       `yaml:"sort_order"`
}

type RuleSeedFile struct {
	Rules []RuleSeed `yaml:"rules"`
}

func ParseRuleSeed(data []byte) ([]*models.GiftRule, error) {
	var file RuleSeedFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse rule seed: %w", err)
	}
	rules := make([]*models.GiftRule, 0, len(file.Rules))
	for _, seed := range file.Rules {
		rules = append(rules, seed.toRule())
	}
	return rules, nil
}

func (s RuleSeed) toRule() *models.GiftRule {
	rule := models.NewGiftRule()
	rule.Name = s.Name
	rule.Note = s.Note
	rule.GiftPurchasableID = s.GiftPurchasableID
	rule.DateFrom = s.DateFrom
	rule.DateTo = s.DateTo
	if s.GiftQty != nil {
		rule.GiftQty = *s.GiftQty
	}
	if s.GiftPrice != nil {
		rule.GiftPrice = decimal.NewFromFloat(*s.GiftPrice)
	}
	if s.Enabled != nil {
		rule.Enabled = *s.Enabled
	}
	if s.MinSubtotal != nil {
		rule.MinSubtotal = decimal.NewNullDecimal(decimal.NewFromFloat(*s.MinSubtotal))
	}
	if s.MaxSubtotal != nil {
		rule.MaxSubtotal = decimal.NewNullDecimal(decimal.NewFromFloat(*s.MaxSubtotal))
	}
	if len(s.CategoryIDs) > 0 {
		rule.AllCategories = false
		rule.SetCategoryIDs(s.CategoryIDs)
	}
	if len(s.PurchasableIDs) > 0 {
		rule.AllPurchasables = false
		rule.SetPurchasableIDs(s.PurchasableIDs)
	}
	rule.SetUserGroupIDs(s.UserGroupIDs)
	if s.AutoAdd != nil {
		rule.AutoAdd = *s.AutoAdd
	}
	if s.ReAddOnRemoval != nil {
		rule.ReAddOnRemoval = *s.ReAddOnRemoval
	}
	if s.SortOrder != nil {
		rule.SortOrder = *s.SortOrder
	}
	return rule
}

// LoadRuleSeed 讀取規則檔並逐筆建立，回傳建立的筆數
func LoadRuleSeed(ctx context.Context, svc *GiftRuleService, path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("failed to read rule seed %s: %w", path, err)
	}
	rules, err := ParseRuleSeed(data)
	if err != nil {
		return 0, err
	}
	for i, rule := range rules {
		if err := svc.CreateGiftRule(ctx, rule); err != nil {
			return i, fmt.Errorf("rule %q: %w", rule.Name, err)
		}
	}
	return len(rules), nil
}
