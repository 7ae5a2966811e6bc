package ingest

import (
	"context"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/sanspareilsmyn/occulens/internal/config"
	"github.com/sanspareilsmyn/occulens/internal/stoprec"
)

type kafkaZapLogger struct {
	log *zap.Logger
}

func (l kafkaZapLogger) Printf(msg string, args ...interface{}) {
	l.log.Info(fmt.Sprintf(msg, args...))
}

type kafkaZapErrorLogger struct {
	log *zap.Logger
}

func (l kafkaZapErrorLogger) Printf(msg string, args ...interface{}) {
	l.log.Error(fmt.Sprintf(msg, args...))
}

// Collector drains stop records from a Kafka topic into memory so a whole
// batch can be analyzed at once. Collection stops when the record cap is
// reached, the topic goes idle, or the context is cancelled.
type Collector struct {
	reader *kafka.Reader
	cfg    config.KafkaConfig
	logger *zap.Logger
}

// NewCollector creates and configures a new Kafka collector instance.
func NewCollector(cfg config.KafkaConfig, logger *zap.Logger) (*Collector, error) {
	if len(cfg.Brokers) == 0 || cfg.Topic == "" || cfg.GroupID == "" {
		logger.Error("Kafka configuration validation failed",
			zap.Strings("brokers", cfg.Brokers),
			zap.String("topic", cfg.Topic),
			zap.String("group_id", cfg.GroupID),
		)
		return nil, ErrInvalidKafkaConfig
	}

	readerCfg := kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		GroupID:     cfg.GroupID,
		Topic:       cfg.Topic,
		Logger:      kafkaZapLogger{logger.Named("kafka-reader").WithOptions(zap.AddCallerSkip(1))},
		ErrorLogger: kafkaZapErrorLogger{logger.Named("kafka-reader-error").WithOptions(zap.AddCallerSkip(1))},
	}
	r := kafka.NewReader(readerCfg)

	logger.Info("Kafka collector created",
		zap.String("topic", cfg.Topic),
		zap.String("group_id", cfg.GroupID),
		zap.Strings("brokers", cfg.Brokers),
		zap.Int("max_records", cfg.MaxRecords),
		zap.Duration("idle_timeout", cfg.IdleTimeout),
	)

	return &Collector{
		reader: r,
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Collect reads messages until MaxRecords have been accumulated, no message
// arrives within IdleTimeout, or ctx is cancelled. Messages that fail to
// parse are logged and skipped; everything successfully parsed so far is
// returned even when collection ends on cancellation.
func (c *Collector) Collect(ctx context.Context) ([]stoprec.Record, error) {
	sugar := c.logger.Sugar()
	sugar.Info("Starting Kafka collection...")

	defer func() {
		if err := c.reader.Close(); err != nil {
			sugar.Errorw("Failed to close Kafka reader cleanly", zap.Error(err))
		}
	}()

	records := make([]stoprec.Record, 0, c.cfg.MaxRecords)
	var parseFailures int

	for len(records) < c.cfg.MaxRecords {
		fetchCtx, cancel := context.WithTimeout(ctx, c.cfg.IdleTimeout)
		m, err := c.reader.FetchMessage(fetchCtx)
		cancel()
		if err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				sugar.Infow("Topic idle, ending collection",
					"idle_timeout", c.cfg.IdleTimeout,
					"records", len(records),
				)
				break
			}
			if errors.Is(err, context.Canceled) {
				c.logger.Debug("Context cancelled, stopping collection.", zap.Error(err))
				break
			}
			c.logger.Error("Error fetching message from Kafka", zap.Error(err))
			return records, fmt.Errorf("%w: %w", ErrKafkaFetchFailed, err)
		}

		rec, err := stoprec.ParseJSON(m.Value)
		if err != nil {
			parseFailures++
			c.logger.Warn("Skipping unparsable message",
				zap.Error(err),
				zap.Int64("offset", m.Offset),
				zap.Int("partition", m.Partition),
			)
			continue
		}
		records = append(records, rec)

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Warn("Failed to commit message offset", zap.Error(err))
		}
	}

	sugar.Infow("Kafka collection finished",
		"records", len(records),
		"parse_failures", parseFailures,
	)
	return records, nil
}
