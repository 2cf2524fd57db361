package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gift_with_purchase/models"

	"gorm.io/gorm"
)

// GiftRuleEventPublisher 接收規則異動事件
type GiftRuleEventPublisher interface {
	PublishGiftRuleEvents(ctx context.Context, events ...models.GiftRuleEvent) error
}

type nopRulePublisher struct{}

func (nopRulePublisher) PublishGiftRuleEvents(context.Context, ...models.GiftRuleEvent) error {
	return nil
}

type GiftRuleService struct {
	db        *gorm.DB
	catalog   *CatalogService
	publisher GiftRuleEventPublisher
	logger    *slog.Logger
}

func NewGiftRuleService(db *gorm.DB) *GiftRuleService {
	return &GiftRuleService{
		db:        db,
		catalog:   NewCatalogService(db),
		publisher: nopRulePublisher{},
		logger:    slog.Default(),
	}
}

func (s *GiftRuleService) SetPublisher(p GiftRuleEventPublisher) {
	if p == nil {
		p = nopRulePublisher{}
	}
	s.publisher = p
}

// publish 在交易提交後呼叫；發送失敗只記錄
func (s *GiftRuleService) publish(ctx context.Context, typ models.GiftRuleEventType, rule *models.GiftRule, isNew bool) {
	e := models.GiftRuleEvent{
		Type:       typ,
		GiftRuleID: rule.ID,
		Name:       rule.Name,
		IsNew:      isNew,
		OccurredAt: time.Now(),
	}
	if err := s.publisher.PublishGiftRuleEvents(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "發送規則異動事件失敗", "gift_rule_id", rule.ID, "type", typ, "error", err)
	}
}

// dropUnknownPurchasables 指定商品已不存在時略過該條件
func (s *GiftRuleService) dropUnknownPurchasables(ctx context.Context, rule *models.GiftRule) error {
	ids := rule.PurchasableIDs()
	if len(ids) == 0 {
		return nil
	}
	found, err := s.catalog.ExistingPurchasableIDs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to check purchasables: %w", err)
	}
	kept := rule.Purchasables[:0]
	for _, p := range rule.Purchasables {
		if !found[p.PurchasableID] {
			s.logger.WarnContext(ctx, "指定商品不存在，已略過", "gift_rule", rule.Name, "purchasable_id", p.PurchasableID)
			continue
		}
		kept = append(kept, p)
	}
	rule.Purchasables = kept
	return nil
}

func validateGiftRule(rule *models.GiftRule) error {
	if strings.TrimSpace(rule.Name) == "" {
		return ErrGiftRuleNameRequired
	}
	if rule.GiftPurchasableID == 0 {
		return ErrGiftPurchasableNeeded
	}
	if rule.GiftQty < 1 {
		return ErrGiftQtyTooSmall
	}
	if rule.DateFrom != nil && rule.DateTo != nil && rule.DateFrom.After(*rule.DateTo) {
		return ErrInvalidDateRange
	}
	if rule.MinSubtotal.Valid && rule.MaxSubtotal.Valid && rule.MinSubtotal.Decimal.GreaterThan(rule.MaxSubtotal.Decimal) {
		return ErrInvalidSubtotalRange
	}
	return nil
}

// normalize 全部分類／全部商品時清空對應條件
func normalize(rule *models.GiftRule) {
	if rule.AllCategories {
		rule.Categories = nil
	}
	if rule.AllPurchasables {
		rule.Purchasables = nil
	}
	if rule.SortOrder == 0 {
		rule.SortOrder = models.DefaultSortOrder
	}
}

func (s *GiftRuleService) CreateGiftRule(ctx context.Context, rule *models.GiftRule) error {
	if err := validateGiftRule(rule); err != nil {
		return err
	}
	normalize(rule)
	if err := s.dropUnknownPurchasables(ctx, rule); err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(rule).Error; err != nil {
		return err
	}
	s.publish(ctx, models.GiftRuleSaved, rule, true)
	return nil
}

// UpdateGiftRule 關聯條件整批刪除後重建；排序只能透過 ReorderGiftRules 修改
func (s *GiftRuleService) UpdateGiftRule(ctx context.Context, id int64, rule *models.GiftRule) error {
	if err := validateGiftRule(rule); err != nil {
		return err
	}
	normalize(rule)
	if err := s.dropUnknownPurchasables(ctx, rule); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing := &models.GiftRule{}
		if err := tx.First(existing, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGiftRuleNotFound
			}
			return err
		}

		rule.ID = id
		rule.CreatedAt = existing.CreatedAt
		rule.SortOrder = existing.SortOrder
		if err := tx.Omit("Categories", "Purchasables", "UserGroups").Save(rule).Error; err != nil {
			return err
		}
		if err := deleteRelations(tx, id); err != nil {
			return err
		}

		for i := range rule.Categories {
			rule.Categories[i].ID = 0
			rule.Categories[i].GiftRuleID = id
		}
		for i := range rule.Purchasables {
			rule.Purchasables[i].ID = 0
			rule.Purchasables[i].GiftRuleID = id
		}
		for i := range rule.UserGroups {
			rule.UserGroups[i].ID = 0
			rule.UserGroups[i].GiftRuleID = id
		}
		if len(rule.Categories) > 0 {
			if err := tx.Create(&rule.Categories).Error; err != nil {
				return err
			}
		}
		if len(rule.Purchasables) > 0 {
			if err := tx.Create(&rule.Purchasables).Error; err != nil {
				return err
			}
		}
		if len(rule.UserGroups) > 0 {
			if err := tx.Create(&rule.UserGroups).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.publish(ctx, models.GiftRuleSaved, rule, false)
	return nil
}

func deleteRelations(tx *gorm.DB, ruleID int64) error {
	if err := tx.Where("gift_rule_id = ?", ruleID).Delete(&models.GiftRuleCategory{}).Error; err != nil {
		return err
	}
	if err := tx.Where("gift_rule_id = ?", ruleID).Delete(&models.GiftRulePurchasable{}).Error; err != nil {
		return err
	}
	return tx.Where("gift_rule_id = ?", ruleID).Delete(&models.GiftRuleUserGroup{}).Error
}

func (s *GiftRuleService) DeleteGiftRule(ctx context.Context, id int64) error {
	rule := &models.GiftRule{}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(rule, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrGiftRuleNotFound
			}
			return err
		}
		if err := deleteRelations(tx, id); err != nil {
			return err
		}
		return tx.Delete(&models.GiftRule{}, id).Error
	})
	if err != nil {
		return err
	}
	s.publish(ctx, models.GiftRuleDeleted, rule, false)
	return nil
}

func (s *GiftRuleService) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Categories").
		Preload("Purchasables").
		Preload("UserGroups")
}

// GetAllGiftRules 依 sort_order 由小到大
func (s *GiftRuleService) GetAllGiftRules(ctx context.Context) ([]*models.GiftRule, error) {
	var rules []*models.GiftRule
	if err := s.withRelations(ctx).Order("sort_order ASC").Order("id ASC").Find(&rules).Error; err != nil {
		return nil, fmt.Errorf("failed to load gift rules: %w", err)
	}
	return rules, nil
}

func (s *GiftRuleService) GetAllEnabledGiftRules(ctx context.Context) ([]*models.GiftRule, error) {
	var rules []*models.GiftRule
	err := s.withRelations(ctx).
		Where("enabled = ?", true).
		Order("sort_order ASC").Order("id ASC").
		Find(&rules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load enabled gift rules: %w", err)
	}
	return rules, nil
}

func (s *GiftRuleService) GetGiftRuleByID(ctx context.Context, id int64) (*models.GiftRule, error) {
	rule := &models.GiftRule{}
	if err := s.withRelations(ctx).First(rule, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGiftRuleNotFound
		}
		return nil, err
	}
	return rule, nil
}

// ReorderGiftRules ids 的順序即新的 sort_order（從 1 開始）
func (s *GiftRuleService) ReorderGiftRules(ctx context.Context, ids []int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, id := range ids {
			if err := tx.Model(&models.GiftRule{}).Where("id = ?", id).Update("sort_order", i+1).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

func (s *GiftRuleService) UpdateStatusByIDs(ctx context.Context, ids []int64, enabled bool) error {
	if len(ids) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Model(&models.GiftRule{}).Where("id IN ?", ids).Update("enabled", enabled).Error
}
