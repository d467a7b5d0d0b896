package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"

	"github.com/drdata1010/plan-b-backend-sub001/pkg/log"
)

// KafkaProducer implements Producer on a Kafka topic.
type KafkaProducer struct {
	producer *kafka.Producer
	topic    string
	doneCh   chan struct{}
}

// NewKafkaProducer connects to the brokers and starts the delivery report
// handler.
func NewKafkaProducer(brokers, topic string) (*KafkaProducer, error) {
	p, err := kafka.NewProducer(&kafka.ConfigMap{
		"bootstrap.servers": brokers,
		"acks":              "1",
		"linger.ms":         5,
		"compression.type":  "snappy",
	})
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}

	kp := &KafkaProducer{
		producer: p,
		topic:    topic,
		doneCh:   make(chan struct{}),
	}
	go kp.deliveryReportHandler()
	return kp, nil
}

func (kp *KafkaProducer) deliveryReportHandler() {
	for e := range kp.producer.Events() {
		if ev, ok := e.(*kafka.Message); ok && ev.TopicPartition.Error != nil {
			log.L().Warn().Err(ev.TopicPartition.Error).Msg("kafka delivery failed")
		}
	}
	close(kp.doneCh)
}

// Publish enqueues the event keyed by entity id so per-entity order holds.
func (kp *KafkaProducer) Publish(_ context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	err = kp.producer.Produce(&kafka.Message{
		TopicPartition: kafka.TopicPartition{
			Topic:     &kp.topic,
			Partition: kafka.PartitionAny,
		},
		Key:   []byte(event.EntityID),
		Value: value,
	}, nil)
	if err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes pending deliveries and shuts the producer down.
func (kp *KafkaProducer) Close() error {
	kp.producer.Flush(5000)
	kp.producer.Close()
	<-kp.doneCh
	return nil
}
