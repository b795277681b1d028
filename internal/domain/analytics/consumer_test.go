package analytics

import (
	"context"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"

	"github.com/pm/patient-platform/internal/events"
)

type fakeAcknowledger struct {
	acks, nacks int
	requeued    bool
}

func (f *fakeAcknowledger) Ack(tag uint64, multiple bool) error {
	f.acks++
	return nil
}

func (f *fakeAcknowledger) Nack(tag uint64, multiple, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}

func (f *fakeAcknowledger) Reject(tag uint64, requeue bool) error {
	f.nacks++
	f.requeued = requeue
	return nil
}

func delivery(body []byte, ack *fakeAcknowledger) amqp.Delivery {
	return amqp.Delivery{Acknowledger: ack, Body: body, RoutingKey: "patient.created"}
}

func TestWorker_AcksGoodEvent(t *testing.T) {
	repo := newMemRepo()
	w := NewWorker(newTestService(repo), nil, zerolog.Nop())

	body, err := events.Marshal(created("1990-01-01"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ack := &fakeAcknowledger{}
	w.handle(context.Background(), delivery(body, ack))

	if ack.acks != 1 || ack.nacks != 0 {
		t.Fatalf("acks=%d nacks=%d, want 1/0", ack.acks, ack.nacks)
	}
	if len(repo.buckets) != 1 {
		t.Error("event not folded into a bucket")
	}
}

func TestWorker_MalformedIsAckedAndDropped(t *testing.T) {
	repo := newMemRepo()
	w := NewWorker(newTestService(repo), nil, zerolog.Nop())

	ack := &fakeAcknowledger{}
	w.handle(context.Background(), delivery([]byte(`{not json`), ack))

	if ack.acks != 1 || ack.nacks != 0 {
		t.Fatalf("acks=%d nacks=%d, want malformed to be acked away", ack.acks, ack.nacks)
	}
	if len(repo.buckets) != 0 {
		t.Error("malformed payload must not touch buckets")
	}
}

func TestWorker_StoreFailureNacksWithRequeue(t *testing.T) {
	repo := newMemRepo()
	repo.applyErr = context.DeadlineExceeded
	w := NewWorker(newTestService(repo), nil, zerolog.Nop())

	body, err := events.Marshal(created("1990-01-01"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	ack := &fakeAcknowledger{}
	w.handle(context.Background(), delivery(body, ack))

	if ack.nacks != 1 || !ack.requeued {
		t.Fatalf("nacks=%d requeued=%v, want 1/true", ack.nacks, ack.requeued)
	}
}

func TestWorker_RunStopsOnClosedChannel(t *testing.T) {
	w := NewWorker(newTestService(newMemRepo()), nil, zerolog.Nop())

	ch := make(chan amqp.Delivery)
	close(ch)
	done := make(chan error, 1)
	go func() { done <- w.Run(context.Background(), ch) }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned %v on closed channel, want nil", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after channel close")
	}
}

func TestWorker_RunStopsOnContextCancel(t *testing.T) {
	w := NewWorker(newTestService(newMemRepo()), nil, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan amqp.Delivery)
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx, ch) }()
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
