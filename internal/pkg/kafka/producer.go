package kafka

import (
	"Driftline/internal/api/config"
	log "log/slog"
	"sync/atomic"
	"time"

	"github.com/IBM/sarama"
	"github.com/goccy/go-json"
	"github.com/pkg/errors"
)

// Producer 行变更事件生产者
// 每次业务写库成功后产出一条 RowEvent，topic = prefix + 表名
type Producer struct {
	producer    sarama.SyncProducer
	topicPrefix string
	seq         atomic.Int64
}

func NewProducer(cfg *config.Config) (*Producer, error) {
	p, err := sarama.NewSyncProducer(cfg.Kafka.Brokers, NewSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, errors.Wrap(err, "create kafka producer")
	}
	return &Producer{
		producer:    p,
		topicPrefix: cfg.KafkaFeed.TopicPrefix,
	}, nil
}

// PublishRow 发布一条行变更事件
// 发布失败只记日志不回滚业务写入，事件流是尽力而为的通知通道
func (s *Producer) PublishRow(table, typ string, rows ...map[string]interface{}) {
	ev := RowEvent{
		ID:      s.seq.Add(1),
		Table:   table,
		PKNames: []string{"id"},
		Type:    typ,
		TS:      time.Now().UnixMilli(),
		Data:    rows,
	}

	payload, err := json.Marshal(&ev)
	if err != nil {
		log.Error("marshal row event failed", "table", table, "err", err)
		return
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topicPrefix + table,
		Key:   sarama.StringEncoder(table),
		Value: sarama.ByteEncoder(payload),
	}
	if _, _, err = s.producer.SendMessage(msg); err != nil {
		log.Error("publish row event failed", "table", table, "type", typ, "err", err)
	}
}

func (s *Producer) Close() error {
	return s.producer.Close()
}
