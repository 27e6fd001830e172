package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cmlabs-hris/attendance-backend-go/internal/domain/activity"
	kafkago "github.com/segmentio/kafka-go"
)

const DefaultActivityTopic = "attendance.activity"

// MessageWriter is the subset of *kafkago.Writer the publisher needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
}

type activityMessage struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	Action     string                 `json:"action"`
	Message    string                 `json:"message"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
}

// ActivityPublisher is an activity.Sink that streams entries to a kafka topic keyed by
// user, so one user's events stay ordered within a partition.
type ActivityPublisher struct {
	writer MessageWriter
	topic  string
}

func NewActivityPublisher(writer MessageWriter, topic string) *ActivityPublisher {
	if topic == "" {
		topic = DefaultActivityTopic
	}
	return &ActivityPublisher{writer: writer, topic: topic}
}

// NewWriter builds a kafka writer for the given brokers. Topics are set per message.
func NewWriter(brokers []string) *kafkago.Writer {
	return &kafkago.Writer{
		Addr:                   kafkago.TCP(brokers...),
		Balancer:               &kafkago.Hash{},
		RequiredAcks:           kafkago.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
}

func (p *ActivityPublisher) Record(ctx context.Context, entry activity.Entry) error {
	payload, err := json.Marshal(activityMessage{
		ID:         entry.ID,
		UserID:     entry.UserID,
		Action:     string(entry.Action),
		Message:    entry.Message,
		Metadata:   entry.Metadata,
		OccurredAt: entry.OccurredAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("failed to encode activity entry: %w", err)
	}

	err = p.writer.WriteMessages(ctx, kafkago.Message{
		Topic: p.topic,
		Key:   []byte(entry.UserID),
		Value: payload,
		Headers: []kafkago.Header{
			{Key: "event_type", Value: []byte(entry.Action)},
		},
		Time: entry.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("failed to publish activity entry: %w", err)
	}
	return nil
}
