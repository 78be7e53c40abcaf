package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/devjoshi2005/Grc-Compliance-Engine/pkg/engine"
)

// Writer is the part of kafka.Writer the publisher uses.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher sends risk records to a topic, one message per record.
type KafkaPublisher struct {
	writer Writer
	runID  string
}

// NewKafkaPublisher builds a writer for a comma-separated broker list.
func NewKafkaPublisher(brokers, topic, runID string) (*KafkaPublisher, error) {
	addrs := splitBrokers(brokers)
	if len(addrs) == 0 || topic == "" {
		return nil, fmt.Errorf("kafka: brokers and topic are required")
	}
	return NewPublisher(&kafka.Writer{
		Addr:         kafka.TCP(addrs...),
		Topic:        topic,
		RequiredAcks: kafka.RequireAll,
		Balancer:     &kafka.Hash{},
	}, runID), nil
}

// NewPublisher wraps an existing writer.
func NewPublisher(w Writer, runID string) *KafkaPublisher {
	return &KafkaPublisher{writer: w, runID: runID}
}

// Messages builds one message per record, keyed by asset uid so updates for
// the same asset land on the same partition.
func Messages(records []engine.RiskRecord, runID string, now time.Time) ([]kafka.Message, error) {
	msgs := make([]kafka.Message, 0, len(records))
	for _, r := range records {
		data, err := json.Marshal(r)
		if err != nil {
			return nil, err
		}
		msg := kafka.Message{
			Key:   []byte(r.AssetUID),
			Value: data,
			Time:  now,
		}
		if runID != "" {
			msg.Headers = []kafka.Header{{Key: "run_id", Value: []byte(runID)}}
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Publish writes all records in one batch.
func (p *KafkaPublisher) Publish(ctx context.Context, records []engine.RiskRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs, err := Messages(records, p.runID, time.Now())
	if err != nil {
		return fmt.Errorf("kafka: encode: %w", err)
	}
	if err := p.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("kafka: publish %d records: %w", len(msgs), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func splitBrokers(s string) []string {
	var out []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			out = append(out, b)
		}
	}
	return out
}
