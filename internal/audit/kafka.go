package audit

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"github.com/twmb/franz-go/pkg/kgo"

	"manifestgate/internal/domain"
)

// KafkaSink streams ledger entries to a broker topic for downstream SIEM and
// retention pipelines. Production is asynchronous and failures are logged and
// discarded at this boundary; the store remains the system of record.
type KafkaSink struct {
	client *kgo.Client
	topic  string
	log    *logrus.Logger
}

// NewKafkaSink dials the brokers. Returns nil when no brokers are configured
// so wiring can treat the sink as optional.
func NewKafkaSink(brokers []string, topic string, log *logrus.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, nil
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
	)
	if err != nil {
		return nil, err
	}
	return &KafkaSink{client: client, topic: topic, log: log}, nil
}

func (s *KafkaSink) Publish(ctx context.Context, entry domain.AuditLogEntry) {
	payload, err := json.Marshal(entry)
	if err != nil {
		s.log.WithError(err).Warn("audit kafka sink: marshal failed")
		return
	}
	record := &kgo.Record{
		Topic: s.topic,
		Key:   []byte(entry.EntityID),
		Value: payload,
	}
	s.client.Produce(ctx, record, func(_ *kgo.Record, err error) {
		if err != nil {
			s.log.WithError(err).WithField("entry_id", entry.ID).
				Warn("audit kafka sink: produce failed")
		}
	})
}

func (s *KafkaSink) Close() {
	s.client.Close()
}
