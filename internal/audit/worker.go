package audit

import (
	"context"

	"github.com/sirupsen/logrus"

	"manifestgate/internal/domain"
)

// Worker drains buffered ledger entries into a downstream sink, keeping slow
// fan-out (a broker round trip) off the caller's request path. It pairs with
// ChannelSink on the producing side.
type Worker struct {
	sink  Sink
	inbox <-chan domain.AuditLogEntry
	log   *logrus.Logger
}

func NewWorker(sink Sink, inbox <-chan domain.AuditLogEntry, log *logrus.Logger) *Worker {
	return &Worker{sink: sink, inbox: inbox, log: log}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			if n := len(w.inbox); n > 0 {
				w.log.WithField("buffered", n).Warn("audit worker: stopping with undelivered entries")
			}
			return ctx.Err()
		case entry := <-w.inbox:
			w.sink.Publish(ctx, entry)
		}
	}
}

// ChannelSink feeds a Worker. When the buffer is full the entry is dropped
// rather than blocking the caller's request.
type ChannelSink struct {
	ch chan<- domain.AuditLogEntry
}

func NewChannelSink(ch chan<- domain.AuditLogEntry) *ChannelSink {
	return &ChannelSink{ch: ch}
}

func (s *ChannelSink) Publish(_ context.Context, entry domain.AuditLogEntry) {
	select {
	case s.ch <- entry:
	default:
	}
}
