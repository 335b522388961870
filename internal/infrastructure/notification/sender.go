package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"associacao_pagamentos/internal/domain/entities"

	"github.com/IBM/sarama"
)

const DefaultTopic = "payment.confirmed"

// Sender delivers one notification to the outreach side.
type Sender interface {
	Send(ctx context.Context, n entities.Notification) error
}

// KafkaSender publishes notifications for the WhatsApp outreach service.
// Messages are keyed by payment id so redeliveries land on one partition.
type KafkaSender struct {
	producer sarama.SyncProducer
	topic    string
}

var _ Sender = (*KafkaSender)(nil)

func NewKafkaSender(producer sarama.SyncProducer, topic string) *KafkaSender {
	if topic == "" {
		topic = DefaultTopic
	}
	return &KafkaSender{producer: producer, topic: topic}
}

// NewSaramaConfig returns the producer settings used for notifications.
// SendMessage cannot be cancelled, so the broker ack wait and the network
// timeouts are all set to sendTimeout to keep a blocked send near the
// dispatcher's per-send deadline.
func NewSaramaConfig(sendTimeout time.Duration) *sarama.Config {
	if sendTimeout <= 0 {
		sendTimeout = defaultSendTimeout
	}
	cfg := sarama.NewConfig()
	cfg.Version = sarama.V3_3_0_0
	cfg.ClientID = "associacao-pagamentos"
	cfg.Producer.RequiredAcks = sarama.WaitForAll
	cfg.Producer.Compression = sarama.CompressionSnappy
	cfg.Producer.Retry.Max = 3
	cfg.Producer.Return.Successes = true
	cfg.Producer.Return.Errors = true
	cfg.Producer.Timeout = sendTimeout
	cfg.Net.DialTimeout = sendTimeout
	cfg.Net.ReadTimeout = sendTimeout
	cfg.Net.WriteTimeout = sendTimeout
	return cfg
}

// ConnectKafka opens a sync producer against brokers.
func ConnectKafka(brokers []string, sendTimeout time.Duration) (sarama.SyncProducer, error) {
	producer, err := sarama.NewSyncProducer(brokers, NewSaramaConfig(sendTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka producer: %w", err)
	}
	log.Printf("[payment][notification] kafka producer connected brokers=%v", brokers)
	return producer, nil
}

// Send publishes n. A context that is already done skips the publish; once
// SendMessage starts it is bounded by the producer timeouts instead.
func (s *KafkaSender) Send(ctx context.Context, n entities.Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("notification not published: %w", err)
	}
	value, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: s.topic,
		Key:   sarama.StringEncoder(n.PaymentID),
		Value: sarama.ByteEncoder(value),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte(n.Kind)},
		},
		Timestamp: time.Now(),
	}

	partition, offset, err := s.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("failed to publish notification: %w", err)
	}
	log.Printf("[payment][notification] published payment_id=%s topic=%s partition=%d offset=%d", n.PaymentID, s.topic, partition, offset)
	return nil
}

func (s *KafkaSender) Close() error {
	return s.producer.Close()
}

// LogSender only logs; used when no brokers are configured.
type LogSender struct{}

var _ Sender = LogSender{}

func (LogSender) Send(_ context.Context, n entities.Notification) error {
	log.Printf("[payment][notification] kind=%s payment_id=%s type=%s appointment_id=%s subscription_id=%s amount=%s",
		n.Kind, n.PaymentID, n.PaymentType, n.AppointmentID, n.SubscriptionID, n.Amount.StringFixed(2))
	return nil
}
