package repository

import (
	"context"
	"time"

	"OptionPulse/internal/domain/models"
	domrepo "OptionPulse/internal/domain/repository"
	pkgkafka "OptionPulse/pkg/kafka"
	applogger "OptionPulse/pkg/logger"
)

// KafkaRecorder decorates a Ledger with settlement event publishing.
// Placement and statistics pass straight through; each recorded settlement
// is also published to a Kafka topic for downstream analytics. Publish
// failures are logged and never surfaced to the caller.
type KafkaRecorder struct {
	inner    domrepo.Ledger
	producer *pkgkafka.Producer
	topic    string
	log      *applogger.Logger
}

var _ domrepo.Ledger = (*KafkaRecorder)(nil)

// NewKafkaRecorder wraps inner with settlement event publishing.
func NewKafkaRecorder(inner domrepo.Ledger, producer *pkgkafka.Producer, topic string, log *applogger.Logger) *KafkaRecorder {
	return &KafkaRecorder{inner: inner, producer: producer, topic: topic, log: log}
}

func (r *KafkaRecorder) PlaceTrade(ctx context.Context, params models.TradeParameters) (domrepo.PlacementResult, error) {
	return r.inner.PlaceTrade(ctx, params)
}

type settlementEvent struct {
	TradeID    string         `json:"trade_id"`
	Outcome    models.Outcome `json:"outcome"`
	FinalPrice float64        `json:"final_price"`
	Payout     string         `json:"payout"`
	Profit     string         `json:"profit"`
	EarlyClose bool           `json:"early_close"`
	SettledAt  time.Time      `json:"settled_at"`
}

func (r *KafkaRecorder) RecordSettlement(ctx context.Context, tradeID string, res models.SettlementResult) error {
	err := r.inner.RecordSettlement(ctx, tradeID, res)

	evt := settlementEvent{
		TradeID:    tradeID,
		Outcome:    res.Outcome,
		FinalPrice: res.FinalPrice,
		Payout:     res.Payout.String(),
		Profit:     res.Profit.String(),
		EarlyClose: res.EarlyClose,
		SettledAt:  time.Now().UTC(),
	}
	if perr := r.producer.Publish(ctx, r.topic, []byte(tradeID), evt); perr != nil {
		r.log.Warn("settlement event publish failed",
			applogger.String("trade_id", tradeID),
			applogger.String("topic", r.topic),
			applogger.Error(perr),
		)
	}

	return err
}

func (r *KafkaRecorder) FetchStatistics(ctx context.Context) ([]models.StatBucket, error) {
	return r.inner.FetchStatistics(ctx)
}
