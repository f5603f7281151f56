package listener

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fekuna/omnipos-inventory-service/internal/feed"
	"github.com/fekuna/omnipos-inventory-service/internal/feed/dto"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/broker"
	"github.com/fekuna/omnipos-inventory-service/internal/platform/logger"
	"go.uber.org/zap"
)

// SyncListener feeds batches from the sync topic into the reconciler.
type SyncListener struct {
	consumer broker.MessageReader
	uc       feed.UseCase
	logger   logger.ZapLogger
	retry    time.Duration
}

func NewSyncListener(consumer broker.MessageReader, uc feed.UseCase, logger logger.ZapLogger) *SyncListener {
	return &SyncListener{
		consumer: consumer,
		uc:       uc,
		logger:   logger,
		retry:    time.Second,
	}
}

func (l *SyncListener) Start(ctx context.Context) {
	l.logger.Info("Starting Sync Kafka Listener")
	for {
		select {
		case <-ctx.Done():
			l.logger.Info("Stopping Sync Kafka Listener")
			return
		default:
			msg, err := l.consumer.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Error("Failed to read kafka message", zap.Error(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(l.retry):
				}
				continue
			}
			l.processMessage(ctx, msg.Value)
		}
	}
}

func (l *SyncListener) processMessage(ctx context.Context, value []byte) {
	var batch dto.SyncBatch
	if err := json.Unmarshal(value, &batch); err != nil {
		l.logger.Error("Failed to unmarshal sync batch", zap.Error(err))
		return
	}
	if batch.SourceID == "" {
		l.logger.Warn("Dropping sync batch without source id", zap.Int("changes", len(batch.Changes)))
		return
	}

	result, err := l.uc.ApplySyncChanges(ctx, batch.SourceID, batch.Changes)
	if err != nil {
		l.logger.Error("Failed to apply sync batch",
			zap.String("source_id", batch.SourceID),
			zap.Error(err),
		)
		return
	}
	if result.ItemsFailed > 0 {
		l.logger.Warn("Sync batch had failures",
			zap.String("source_id", batch.SourceID),
			zap.Int("failed", result.ItemsFailed),
			zap.Strings("errors", result.Errors),
		)
	}
}
