package events

import (
	"context"
	"log/slog"
)

// Buffer is a channel-backed publisher that decouples mutation latency from
// slow sinks. Emit never blocks: if the buffer is full the event is dropped
// and counted against the log, never against the caller.
type Buffer struct {
	ch     chan Event
	logger *slog.Logger
}

func NewBuffer(size int, logger *slog.Logger) *Buffer {
	return &Buffer{ch: make(chan Event, size), logger: logger}
}

func (b *Buffer) Emit(ctx context.Context, event Event) error {
	select {
	case b.ch <- event:
	default:
		b.logger.WarnContext(ctx, "event buffer full, dropping notification",
			"kind", string(event.Kind),
			"certificate_id", event.CertificateID.String(),
		)
	}
	return nil
}

// Worker drains a Buffer into a sink. Sink errors are logged and the worker
// keeps going; committed ledger state never depends on sink delivery.
type Worker struct {
	buffer *Buffer
	sink   Publisher
	logger *slog.Logger
}

func NewWorker(buffer *Buffer, sink Publisher, logger *slog.Logger) *Worker {
	return &Worker{buffer: buffer, sink: sink, logger: logger}
}

func (w *Worker) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-w.buffer.ch:
			if err := w.sink.Emit(ctx, event); err != nil {
				w.logger.ErrorContext(ctx, "event sink failed",
					"kind", string(event.Kind),
					"error", err,
				)
			}
		}
	}
}
