package services

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	awspkg "pos-service/pkg/aws"
)

const (
	EventTransactionRecorded = "transaction.recorded"
	EventStockLow            = "stock.low"
)

// EventPublisher sends domain events to an SNS topic. Publishing is best effort:
// failures are logged and never fail the caller. A nil publisher drops events.
type EventPublisher struct {
	sns      awspkg.SNSPublisher
	topicArn string
}

func NewEventPublisher(sns awspkg.SNSPublisher, topicArn string) *EventPublisher {
	if sns == nil || topicArn == "" {
		return nil
	}
	return &EventPublisher{sns: sns, topicArn: topicArn}
}

func (p *EventPublisher) Publish(ctx context.Context, event string, payload interface{}) {
	if p == nil {
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		zap.L().Error("Failed to marshal event", zap.String("event", event), zap.Error(err))
		return
	}
	if err := p.sns.Publish(ctx, p.topicArn, body); err != nil {
		zap.L().Warn("Failed to publish event", zap.String("event", event), zap.Error(err))
	}
}

func recordCount(m *awspkg.MetricsClient, name string, dims map[string]string) {
	recordValue(m, name, 1, dims)
}

func recordValue(m *awspkg.MetricsClient, name string, value float64, dims map[string]string) {
	if !m.IsEnabled() {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := m.RecordValue(ctx, name, value, dims); err != nil {
			zap.L().Debug("Failed to record metric", zap.String("metric", name), zap.Error(err))
		}
	}()
}
