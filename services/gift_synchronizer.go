package services

import (
	"context"
	"log/slog"
	"sort"

	"gift_with_purchase/models"
)

type CategoryResolver interface {
	RelatedCategoryIDs(ctx context.Context, purchasableID int64) ([]int64, error)
}

type GroupResolver interface {
	GroupsForUser(ctx context.Context, userID int64) ([]int64, error)
}

type RemovalView interface {
	WasRemoved(orderKey string, ruleID int64) bool
}

type RemovalReason string

const (
	ReasonConditionsNotMet RemovalReason = "conditions_not_met"
	ReasonRuleUnavailable  RemovalReason = "rule_unavailable" // 規則已刪除或停用
	ReasonDuplicate        RemovalReason = "duplicate"
)

type RemovedGift struct {
	LineItem *models.LineItem
	Reason   RemovalReason
}

type SyncResult struct {
	Added   []*models.LineItem
	Removed []RemovedGift
}

func (r SyncResult) Changed() bool {
	return len(r.Added) > 0 || len(r.Removed) > 0
}

// GiftSynchronizer 比對規則與目前明細，決定要新增或移除的贈品
type GiftSynchronizer struct {
	evaluator  *RuleEvaluator
	categories CategoryResolver
	groups     GroupResolver
	logger     *slog.Logger
}

func NewGiftSynchronizer(evaluator *RuleEvaluator, categories CategoryResolver, groups GroupResolver, logger *slog.Logger) *GiftSynchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &GiftSynchronizer{evaluator: evaluator, categories: categories, groups: groups, logger: logger}
}

// Reconcile 直接修改 order 的明細，rules 應為已啟用的規則
func (s *GiftSynchronizer) Reconcile(ctx context.Context, order *models.Order, rules []*models.GiftRule, removed RemovalView) SyncResult {
	var result SyncResult

	ordered := make([]*models.GiftRule, 0, len(rules))
	for _, r := range rules {
		if r != nil && r.Enabled {
			ordered = append(ordered, r)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].SortOrder < ordered[j].SortOrder })

	subtotal := order.NonGiftSubtotal()
	snap := s.snapshot(ctx, order, ordered)
	active := make(map[int64]struct{}, len(ordered))

	for _, rule := range ordered {
		active[rule.ID] = struct{}{}
		existing := order.GiftLineItemFor(rule.ID)
		matched := s.evaluator.Matches(rule, snap, subtotal)

		switch {
		case matched && existing == nil:
			if !rule.AutoAdd {
				continue
			}
			if !rule.ReAddOnRemoval && removed != nil && removed.WasRemoved(order.Key(), rule.ID) {
				continue
			}
			li := models.NewGiftLineItem(rule)
			order.AddLineItem(li)
			result.Added = append(result.Added, li)
		case !matched && existing != nil:
			order.RemoveLineItem(existing)
			result.Removed = append(result.Removed, RemovedGift{LineItem: existing, Reason: ReasonConditionsNotMet})
		}
	}

	// 規則不存在、已停用或重複的贈品一律移除
	seen := make(map[int64]struct{})
	for _, li := range append([]*models.LineItem(nil), order.LineItems...) {
		ruleID, ok := li.GiftRuleRef()
		if !ok {
			continue
		}
		if _, ok := active[ruleID]; !ok {
			order.RemoveLineItem(li)
			result.Removed = append(result.Removed, RemovedGift{LineItem: li, Reason: ReasonRuleUnavailable})
			continue
		}
		if _, dup := seen[ruleID]; dup {
			order.RemoveLineItem(li)
			result.Removed = append(result.Removed, RemovedGift{LineItem: li, Reason: ReasonDuplicate})
			continue
		}
		seen[ruleID] = struct{}{}
	}

	return result
}

// snapshot 只查詢規則實際需要的分類與群組資料，查詢失敗視為空集合
func (s *GiftSynchronizer) snapshot(ctx context.Context, order *models.Order, rules []*models.GiftRule) CartSnapshot {
	nonGift := order.NonGiftLineItems()
	snap := CartSnapshot{
		PurchasableIDs:   make(map[int64]struct{}, len(nonGift)),
		CustomerID:       customerFromContext(ctx),
		CustomerGroupIDs: map[int64]struct{}{},
	}
	for _, li := range nonGift {
		snap.PurchasableIDs[li.PurchasableID] = struct{}{}
	}

	needCategories, needGroups := false, false
	for _, r := range rules {
		if !r.AllCategories && len(r.Categories) > 0 {
			needCategories = true
		}
		if len(r.UserGroups) > 0 {
			needGroups = true
		}
	}

	if needCategories && s.categories != nil {
		for _, li := range nonGift {
			ids, err := s.categories.RelatedCategoryIDs(ctx, li.PurchasableID)
			if err != nil {
				s.logger.WarnContext(ctx, "查詢商品分類失敗", "purchasable_id", li.PurchasableID, "error", err)
				continue
			}
			snap.ItemCategoryIDs = append(snap.ItemCategoryIDs, ids)
		}
	}

	if needGroups && snap.CustomerID != nil && s.groups != nil {
		ids, err := s.groups.GroupsForUser(ctx, *snap.CustomerID)
		if err != nil {
			s.logger.WarnContext(ctx, "查詢會員群組失敗", "customer_id", *snap.CustomerID, "error", err)
		}
		for _, id := range ids {
			snap.CustomerGroupIDs[id] = struct{}{}
		}
	}

	return snap
}
