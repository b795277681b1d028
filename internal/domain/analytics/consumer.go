package analytics

import (
	"context"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/pm/patient-platform/internal/events"
	"github.com/pm/patient-platform/internal/platform/metrics"
)

// Worker drains a delivery channel and folds each event into the aggregator.
// Malformed payloads are acked and dropped so a poison message cannot wedge
// the queue; a store failure on a well-formed event nacks with requeue.
type Worker struct {
	svc     *Service
	metrics metrics.Recorder
	log     zerolog.Logger
}

func NewWorker(svc *Service, rec metrics.Recorder, log zerolog.Logger) *Worker {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Worker{svc: svc, metrics: rec, log: log}
}

// Run processes deliveries until the channel closes or ctx is cancelled.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	ev, err := events.Unmarshal(d.Body)
	if err != nil {
		w.metrics.EventMalformed()
		w.log.Warn().Err(err).
			Str("routing_key", d.RoutingKey).
			Str("message_id", d.MessageId).
			Msg("malformed event dropped")
		_ = d.Ack(false)
		return
	}

	if err := w.svc.Apply(ctx, ev); err != nil {
		w.log.Error().Err(err).
			Str("patient_id", ev.PatientID).
			Str("event_type", string(ev.EventType)).
			Msg("event apply failed, requeueing")
		_ = d.Nack(false, true)
		return
	}
	_ = d.Ack(false)
}
