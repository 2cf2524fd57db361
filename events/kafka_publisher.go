package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"gift_with_purchase/models"

	"github.com/segmentio/kafka-go"
)

// batchTimeout 對帳在請求路徑上同步發送，不等預設的一秒湊批
const batchTimeout = 10 * time.Millisecond

// KafkaPublisher 贈品事件與規則異動事件共用同一個 writer，topic 逐筆指定
type KafkaPublisher struct {
	writer    *kafka.Writer
	topic     string
	ruleTopic string
}

func NewKafkaPublisher(brokers []string, topic, ruleTopic string) *KafkaPublisher {
	return &KafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: batchTimeout,
		},
		topic:     topic,
		ruleTopic: ruleTopic,
	}
}

// PublishGiftEvents 以訂單編號為 key，同一訂單的事件會進同一個 partition
func (k *KafkaPublisher) PublishGiftEvents(ctx context.Context, events ...models.GiftEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := buildMessage(e)
		if err != nil {
			return err
		}
		msg.Topic = k.topic
		msgs = append(msgs, msg)
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write gift events: %w", err)
	}
	return nil
}

// PublishGiftRuleEvents 以規則編號為 key
func (k *KafkaPublisher) PublishGiftRuleEvents(ctx context.Context, events ...models.GiftRuleEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafka.Message, 0, len(events))
	for _, e := range events {
		msg, err := buildRuleMessage(e)
		if err != nil {
			return err
		}
		msg.Topic = k.ruleTopic
		msgs = append(msgs, msg)
	}
	if err := k.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("failed to write gift rule events: %w", err)
	}
	return nil
}

func (k *KafkaPublisher) Close() error {
	return k.writer.Close()
}

func buildMessage(e models.GiftEvent) (kafka.Message, error) {
	v, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal gift event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(e.OrderNumber),
		Value: v,
		Time:  e.OccurredAt,
	}, nil
}

func buildRuleMessage(e models.GiftRuleEvent) (kafka.Message, error) {
	v, err := json.Marshal(e)
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal gift rule event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(strconv.FormatInt(e.GiftRuleID, 10)),
		Value: v,
		Time:  e.OccurredAt,
	}, nil
}

// NopPublisher 未設定 broker 時使用
type NopPublisher struct{}

func (NopPublisher) PublishGiftEvents(context.Context, ...models.GiftEvent) error { return nil }

func (NopPublisher) PublishGiftRuleEvents(context.Context, ...models.GiftRuleEvent) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
