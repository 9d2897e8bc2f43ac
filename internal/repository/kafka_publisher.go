package repository

import (
	"context"
	"time"

	"PulseTrade/internal/domain/models"
	"PulseTrade/pkg/kafka"
)

// KafkaSignalPublisher writes every risk verdict to a Kafka topic, keyed
// by symbol so per-symbol ordering survives partitioning.
type KafkaSignalPublisher struct {
	producer *kafka.Producer
	topic    string
}

func NewKafkaSignalPublisher(brokers []string, topic string, opts ...kafka.ProducerOption) (*KafkaSignalPublisher, error) {
	producer, err := kafka.NewProducer(append([]kafka.ProducerOption{
		kafka.WithBrokers(brokers),
		kafka.WithHashByKey(true),
	}, opts...)...)
	if err != nil {
		return nil, err
	}
	return &KafkaSignalPublisher{producer: producer, topic: topic}, nil
}

type verdictEvent struct {
	Signal    *models.Signal `json:"signal"`
	Approved  bool           `json:"approved"`
	Reason    string         `json:"reason,omitempty"`
	Timestamp int64          `json:"timestamp"`
}

func (p *KafkaSignalPublisher) PublishVerdict(ctx context.Context, sig *models.Signal, approved bool, reason string) error {
	return p.producer.Publish(ctx, p.topic, []byte(sig.Symbol), verdictEvent{
		Signal:    sig,
		Approved:  approved,
		Reason:    reason,
		Timestamp: time.Now().Unix(),
	})
}

func (p *KafkaSignalPublisher) Close() error {
	return p.producer.Close()
}
