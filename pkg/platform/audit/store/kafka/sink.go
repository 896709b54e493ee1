// Package kafka relays audit events to a Kafka topic. Each event is one record
// keyed by its subject so every change to an entity lands on one partition in
// order.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	audit "datagate/pkg/platform/audit"
)

const (
	headerAction    = "action"
	headerRequestID = "request_id"
)

// Sink implements audit.Store by producing synchronously to a topic.
type Sink struct {
	client *kgo.Client
	topic  string
}

// Dial connects to brokers and verifies at least one is reachable.
func Dial(ctx context.Context, brokers []string, topic string) (*Sink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}
	return New(client, topic), nil
}

func New(client *kgo.Client, topic string) *Sink {
	return &Sink{client: client, topic: topic}
}

// EnsureTopic creates the topic when missing. An existing topic is left alone.
func (s *Sink) EnsureTopic(ctx context.Context, partitions int32, replicationFactor int16) error {
	adm := kadm.NewClient(s.client)
	resp, err := adm.CreateTopics(ctx, partitions, replicationFactor, nil, s.topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", s.topic, err)
	}
	for _, r := range resp {
		if r.Err != nil && !errors.Is(r.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", r.Topic, r.Err)
		}
	}
	return nil
}

// Append produces event and waits for the broker acknowledgement.
func (s *Sink) Append(ctx context.Context, event audit.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	record := &kgo.Record{
		Topic:     s.topic,
		Key:       []byte(event.Subject),
		Value:     value,
		Timestamp: event.Timestamp,
		Headers: []kgo.RecordHeader{
			{Key: headerAction, Value: []byte(event.Action)},
			{Key: headerRequestID, Value: []byte(event.RequestID)},
		},
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce audit event: %w", err)
	}
	return nil
}

// Topic returns the destination topic.
func (s *Sink) Topic() string {
	return s.topic
}

func (s *Sink) Close() {
	s.client.Close()
}
