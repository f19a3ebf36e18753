package feed

import (
	"Driftline/internal/api/config"
	"Driftline/internal/pkg/consts"
	"Driftline/internal/pkg/kafka"
	"context"
	log "log/slog"

	"github.com/IBM/sarama"
	"github.com/pkg/errors"
)

// 事件流覆盖的表，topic = prefix + 表名
var watchedTables = []string{
	consts.TableMessages,
	consts.TableChannels,
	consts.TableUsers,
	consts.TableChannelMembers,
}

// Consumer 行变更事件消费者，收到即派发给 Bus
type Consumer struct {
	group sarama.ConsumerGroup
	bus   *Bus
}

func NewConsumer(cfg *config.Config, bus *Bus) (*Consumer, error) {
	group, err := sarama.NewConsumerGroup(cfg.Kafka.Brokers, cfg.KafkaFeed.GroupID, kafka.NewSaramaConfig(cfg.Kafka))
	if err != nil {
		return nil, errors.Wrap(err, "create feed consumer group")
	}
	return &Consumer{group: group, bus: bus}, nil
}

// Start 阻塞消费，ctx 取消后关闭消费组
func (s *Consumer) Start(ctx context.Context, cfg *config.Config) error {
	topics := make([]string, 0, len(watchedTables))
	for _, table := range watchedTables {
		topics = append(topics, cfg.KafkaFeed.TopicPrefix+table)
	}

	log.Info("Feed consumer started", "topics", topics)
	for {
		if err := s.group.Consume(ctx, topics, s); err != nil {
			log.Error("Error from feed consumer", "err", err)
		}
		if ctx.Err() != nil {
			break
		}
	}

	log.Info("Feed consumer shutting down...")
	return s.group.Close()
}

func (s *Consumer) Setup(sarama.ConsumerGroupSession) error {
	log.Info("feed consumer setup")
	return nil
}

func (s *Consumer) Cleanup(sarama.ConsumerGroupSession) error {
	log.Info("feed consumer cleanup")
	return nil
}

func (s *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	for msg := range claim.Messages() {
		ev, err := kafka.ToRowEvent(msg)
		if err != nil {
			// 坏事件跳过，不能卡住整个分区
			log.Error("drop malformed row event", "topic", msg.Topic, "err", err)
		} else {
			s.bus.Dispatch(ev)
		}
		session.MarkMessage(msg, "")
	}
	return nil
}
