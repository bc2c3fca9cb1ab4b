// Package events publishes client, appointment and session change events
// to Kafka.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	ClientCreated      = "client.created"
	ClientUpdated      = "client.updated"
	ClientDeleted      = "client.deleted"
	AppointmentCreated = "appointment.created"
	AppointmentUpdated = "appointment.updated"
	AppointmentDeleted = "appointment.deleted"
	SessionSignedIn    = "session.signed_in"
	SessionSignedOut   = "session.signed_out"
)

type Event struct {
	Type     string      `json:"type"`
	EntityID int64       `json:"entity_id"`
	ActorID  int64       `json:"actor_id,omitempty"`
	At       time.Time   `json:"at"`
	Payload  interface{} `json:"payload,omitempty"`
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type kafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher writes every event to topic, keyed by entity id so one
// record's changes stay ordered.
func NewKafkaPublisher(brokers []string, topic string) Publisher {
	return &kafkaPublisher{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Balancer:     &kafka.Hash{},
			BatchTimeout: 50 * time.Millisecond,
		},
		topic: topic,
	}
}

func (p *kafkaPublisher) Publish(ctx context.Context, e Event) error {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s event: %w", e.Type, err)
	}
	err = p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.topic,
		Key:   []byte(strconv.FormatInt(e.EntityID, 10)),
		Value: value,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(e.Type)},
		},
	})
	if err != nil {
		return fmt.Errorf("publish %s event: %w", e.Type, err)
	}
	return nil
}

func (p *kafkaPublisher) Close() error {
	return p.writer.Close()
}

type multiPublisher []Publisher

// Multi publishes every event to each of pubs in order. All of them are
// attempted; their errors are joined.
func Multi(pubs ...Publisher) Publisher { return multiPublisher(pubs) }

func (m multiPublisher) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m multiPublisher) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type nopPublisher struct{}

// Nop discards events. Used when no brokers are configured.
func Nop() Publisher { return nopPublisher{} }

func (nopPublisher) Publish(context.Context, Event) error { return nil }
func (nopPublisher) Close() error                         { return nil }
