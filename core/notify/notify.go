// Copyright 2021 Dalarub & Ettrich GmbH - All Rights Reserved
// Unauthorized copying of this file, via any medium is strictly prohibited
// Proprietary and confidential
// info@dalarub.com
//

// Package notify publishes change events of templates and template data to kafka
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"

	"github.com/relabs-tech/contaconmigo/core"
	"github.com/relabs-tech/contaconmigo/core/logger"
)

// DefaultTopic is the topic change events are published to if none is configured
const DefaultTopic = "contaconmigo.events"

const writeTimeout = 5 * time.Second

// Event is the payload of a change event
type Event struct {
	Resource  string         `json:"resource"`
	Operation core.Operation `json:"operation"`
	ID        uuid.UUID      `json:"id"`
	UserID    string         `json:"user_id"`
	Timestamp time.Time      `json:"timestamp"`
}

// Payload returns the JSON encoding of the event
func (e Event) Payload() ([]byte, error) {
	return json.Marshal(e)
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka is a core.Notifier which publishes every notification as one kafka message.
// Messages are keyed by the owner of the changed record, so all changes of one user
// land in the same partition in order.
type Kafka struct {
	writer messageWriter
	topic  string
}

var _ core.Notifier = (*Kafka)(nil)

// NewKafka returns a notifier publishing to topic on brokers
func NewKafka(brokers []string, topic string) *Kafka {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: true,
		},
		topic: topic,
	}
}

// Notify implements core.Notifier
func (k *Kafka) Notify(ctx context.Context, resource string, operation core.Operation, payload []byte) error {
	var owner struct {
		UserID string `json:"user_id"`
	}
	if err := json.Unmarshal(payload, &owner); err != nil {
		return fmt.Errorf("invalid notification payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	err := k.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(owner.UserID),
		Value: payload,
		Headers: []kafka.Header{
			{Key: "resource", Value: []byte(resource)},
			{Key: "operation", Value: []byte(operation)},
		},
	})
	if err != nil {
		return fmt.Errorf("cannot publish %s %s to %s: %w", operation, resource, k.topic, err)
	}
	logger.FromContext(ctx).Debugf("published %s %s to %s", operation, resource, k.topic)
	return nil
}

// Close flushes pending messages and closes the connection to the brokers
func (k *Kafka) Close() error {
	return k.writer.Close()
}
