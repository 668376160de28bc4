package usecase

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"farmvoice/internal/domain"
)

func TestTranscriptDeliveryRulesFailureSendsRawText(t *testing.T) {
	t.Parallel()

	backend := &fakeDelivery{reply: "ok"}
	d := newTranscriptDelivery(&fakeRules{err: errors.New("rules")}, backend)

	reply, err := d.Deliver(context.Background(), slog.New(slog.DiscardHandler), "raw ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reply != "ok" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	if queries := backend.snapshotQueries(); len(queries) != 1 || queries[0] != "raw " {
		t.Fatalf("expected raw transcript delivered, got %q", queries)
	}
}

func TestTranscriptDeliveryWrapsBackendFailure(t *testing.T) {
	t.Parallel()

	backend := &fakeDelivery{err: errors.New("status 502")}
	d := newTranscriptDelivery(nil, backend)

	_, err := d.Deliver(context.Background(), slog.New(slog.DiscardHandler), "raw")
	if !errors.Is(err, domain.ErrDeliveryFailed) {
		t.Fatalf("expected ErrDeliveryFailed, got %v", err)
	}
	if domain.KindOf(err) != domain.ErrorKindDeliveryFailed {
		t.Fatalf("unexpected kind: %s", domain.KindOf(err))
	}
	if backend.callCount() != 1 {
		t.Fatalf("expected a single attempt, got %d", backend.callCount())
	}
}
