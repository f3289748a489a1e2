package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"
)

// Kafka publishes registry events to a Kafka topic for external indexers.
// Records are keyed by certificate id (or principal for issuer-set changes)
// so per-record ordering is preserved within a partition.
type Kafka struct {
	client *kgo.Client
	topic  string
}

// kafkaPayload is the JSON structure published to the topic. Zero-valued
// fields are omitted so each kind carries only its own data.
type kafkaPayload struct {
	Kind          string `json:"kind"`
	Timestamp     string `json:"timestamp"`
	RequestID     string `json:"request_id,omitempty"`
	Principal     string `json:"principal,omitempty"`
	CertificateID string `json:"certificate_id,omitempty"`
	Issuer        string `json:"issuer,omitempty"`
	Recipient     string `json:"recipient,omitempty"`
	RecipientName string `json:"recipient_name,omitempty"`
	Course        string `json:"course,omitempty"`
	RevokedBy     string `json:"revoked_by,omitempty"`
}

// NewKafka connects a producer and ensures the topic exists.
func NewKafka(ctx context.Context, brokers []string, topic string) (*Kafka, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	admin := kadm.NewClient(client)
	if _, err := admin.CreateTopics(ctx, 1, 1, nil, topic); err != nil {
		if !strings.Contains(err.Error(), "TOPIC_ALREADY_EXISTS") {
			client.Close()
			return nil, fmt.Errorf("ensure topic %s: %w", topic, err)
		}
	}

	return &Kafka{client: client, topic: topic}, nil
}

func (k *Kafka) Emit(ctx context.Context, event Event) error {
	payload := kafkaPayload{
		Kind:      string(event.Kind),
		Timestamp: event.Timestamp.UTC().Format(time.RFC3339Nano),
		RequestID: event.RequestID,
	}
	key := event.CertificateID.String()
	switch event.Kind {
	case KindIssuerAdded, KindIssuerRemoved:
		payload.Principal = event.Principal.String()
		key = event.Principal.String()
	case KindCertificateIssued:
		payload.CertificateID = event.CertificateID.String()
		payload.Issuer = event.Issuer.String()
		if !event.Recipient.IsZero() {
			payload.Recipient = event.Recipient.String()
		}
		payload.RecipientName = event.RecipientName
		payload.Course = event.Course
	case KindCertificateRevoked:
		payload.CertificateID = event.CertificateID.String()
		payload.RevokedBy = event.RevokedBy.String()
	}

	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	record := &kgo.Record{Topic: k.topic, Key: []byte(key), Value: value}
	if err := k.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event: %w", err)
	}
	return nil
}

// Close flushes and shuts down the producer.
func (k *Kafka) Close() {
	k.client.Close()
}
