package services

import (
	"context"
	"log/slog"
	"time"

	"gift_with_purchase/metrics"
	"gift_with_purchase/models"
)

// OrderPersister 儲存整張訂單（不做完整驗證）
type OrderPersister interface {
	SaveOrder(ctx context.Context, order *models.Order) error
}

type GiftEventPublisher interface {
	PublishGiftEvents(ctx context.Context, events ...models.GiftEvent) error
}

// CartHooks 是購物車流程在各階段同步呼叫的掛點
type CartHooks interface {
	// OnOrderSaved 訂單儲存後呼叫；若有新增或移除贈品會再儲存一次
	OnOrderSaved(ctx context.Context, order *models.Order) error
	// OnOrderCompleted 訂單完成後呼叫
	OnOrderCompleted(ctx context.Context, order *models.Order)
	// OnLineItemRemoved 顧客手動移除明細後呼叫
	OnLineItemRemoved(ctx context.Context, order *models.Order, li *models.LineItem)
	// OnLineItemPopulated 明細重新計價後呼叫
	OnLineItemPopulated(ctx context.Context, order *models.Order, li *models.LineItem)
}

type GiftCartService struct {
	rules     GiftRuleStore
	sync      *GiftSynchronizer
	tracker   *RemovalTracker
	enforcer  *PriceEnforcer
	persister OrderPersister
	probe     ContextProbe
	publisher GiftEventPublisher
	metrics   *metrics.GiftMetrics
	logger    *slog.Logger
	now       func() time.Time
}

type GiftCartOptions struct {
	Probe     ContextProbe
	Publisher GiftEventPublisher
	Metrics   *metrics.GiftMetrics
	Logger    *slog.Logger
	Now       func() time.Time
}

func NewGiftCartService(rules GiftRuleStore, synchronizer *GiftSynchronizer, tracker *RemovalTracker, enforcer *PriceEnforcer, persister OrderPersister, opts GiftCartOptions) *GiftCartService {
	if opts.Probe == nil {
		opts.Probe = SessionProbe{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &GiftCartService{
		rules:     rules,
		sync:      synchronizer,
		tracker:   tracker,
		enforcer:  enforcer,
		persister: persister,
		probe:     opts.Probe,
		publisher: opts.Publisher,
		metrics:   opts.Metrics,
		logger:    opts.Logger,
		now:       opts.Now,
	}
}

// SetPersister 用於購物車服務與本服務互相參照的情況
func (s *GiftCartService) SetPersister(p OrderPersister) {
	s.persister = p
}

type reconcilingKey struct{}

// withReconciling 標記這個呼叫鏈正在對帳的訂單
func withReconciling(ctx context.Context, key string) context.Context {
	parent, _ := ctx.Value(reconcilingKey{}).(map[string]struct{})
	keys := make(map[string]struct{}, len(parent)+1)
	for k := range parent {
		keys[k] = struct{}{}
	}
	keys[key] = struct{}{}
	return context.WithValue(ctx, reconcilingKey{}, keys)
}

func isReconciling(ctx context.Context, key string) bool {
	keys, _ := ctx.Value(reconcilingKey{}).(map[string]struct{})
	_, ok := keys[key]
	return ok
}

// ApplyGiftRules 依規則新增或移除贈品，有變動時只儲存一次。
// 儲存失敗的錯誤原樣回傳，記憶體中的訂單維持已修改的狀態。
// 同一訂單的併發請求由購物車流程序列化，這裡只略過同一呼叫鏈的重入。
func (s *GiftCartService) ApplyGiftRules(ctx context.Context, order *models.Order) error {
	key := order.Key()
	if isReconciling(ctx, key) {
		// 儲存訂單會再次觸發，這裡直接略過
		return nil
	}
	ctx = withReconciling(ctx, key)

	if order.IsCompleted {
		s.metrics.Reconciled(metrics.ResultSkipped, 0)
		return nil
	}
	if !s.probe.IsInteractive(ctx) {
		s.metrics.Reconciled(metrics.ResultSkipped, 0)
		return nil
	}

	started := s.now()
	elapsed := func() time.Duration { return s.now().Sub(started) }
	rules, err := s.rules.GetAllEnabledGiftRules(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "讀取贈品規則失敗，略過本次對帳", "order", key, "error", err)
		s.metrics.Reconciled(metrics.ResultSkipped, elapsed())
		return nil
	}

	result := s.sync.Reconcile(ctx, order, rules, s.tracker)
	if !result.Changed() {
		s.metrics.Reconciled(metrics.ResultUnchanged, elapsed())
		return nil
	}

	if err := s.persister.SaveOrder(ctx, order); err != nil {
		s.metrics.Reconciled(metrics.ResultFailed, elapsed())
		return err
	}
	s.metrics.Reconciled(metrics.ResultChanged, elapsed())

	s.logger.InfoContext(ctx, "贈品明細已更新", "order", key, "added", len(result.Added), "removed", len(result.Removed))
	s.emit(ctx, order, result)
	return nil
}

func (s *GiftCartService) emit(ctx context.Context, order *models.Order, result SyncResult) {
	now := s.now()
	events := make([]models.GiftEvent, 0, len(result.Added)+len(result.Removed))
	for _, li := range result.Added {
		ruleID, _ := li.GiftRuleRef()
		s.metrics.GiftAdded(ruleID)
		events = append(events, giftEvent(models.GiftAdded, order, li, ruleID, now))
	}
	for _, r := range result.Removed {
		ruleID, _ := r.LineItem.GiftRuleRef()
		s.metrics.GiftRemoved(ruleID, string(r.Reason))
		events = append(events, giftEvent(models.GiftRemoved, order, r.LineItem, ruleID, now))
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishGiftEvents(ctx, events...); err != nil {
		s.logger.WarnContext(ctx, "發送贈品事件失敗", "order", order.Key(), "error", err)
	}
}

func giftEvent(t models.GiftEventType, order *models.Order, li *models.LineItem, ruleID int64, at time.Time) models.GiftEvent {
	return models.GiftEvent{
		Type:          t,
		OrderID:       order.ID,
		OrderNumber:   order.Number,
		GiftRuleID:    ruleID,
		PurchasableID: li.PurchasableID,
		Qty:           li.Qty,
		OccurredAt:    at,
	}
}

func (s *GiftCartService) OnOrderSaved(ctx context.Context, order *models.Order) error {
	return s.ApplyGiftRules(ctx, order)
}

func (s *GiftCartService) OnOrderCompleted(ctx context.Context, order *models.Order) {
	s.tracker.Clear(order.Key())
}

func (s *GiftCartService) OnLineItemRemoved(ctx context.Context, order *models.Order, li *models.LineItem) {
	ruleID, ok := li.GiftRuleRef()
	if !ok {
		return
	}
	s.tracker.RecordRemoval(order.Key(), ruleID)
	s.logger.InfoContext(ctx, "顧客移除贈品", "order", order.Key(), "rule_id", ruleID)
}

func (s *GiftCartService) OnLineItemPopulated(ctx context.Context, order *models.Order, li *models.LineItem) {
	s.enforcer.Enforce(ctx, li)
}
