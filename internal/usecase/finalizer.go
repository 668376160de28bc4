package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"farmvoice/internal/domain"
	"farmvoice/internal/ports"
)

// transcriptDelivery sends one finalized transcript to the backend.
type transcriptDelivery struct {
	rules   ports.RulesEngine
	backend ports.Delivery
}

func newTranscriptDelivery(rules ports.RulesEngine, backend ports.Delivery) transcriptDelivery {
	return transcriptDelivery{rules: rules, backend: backend}
}

// Deliver performs a single attempt. Rule failures fall back to the raw
// transcript; backend failures are wrapped with domain.ErrDeliveryFailed.
func (d transcriptDelivery) Deliver(ctx context.Context, logger *slog.Logger, transcript string) (string, error) {
	query := transcript
	if d.rules != nil {
		transformed, err := d.rules.Apply(transcript)
		if err != nil {
			logger.Warn("query rules failed, sending raw transcript", "error", err)
		} else {
			query = transformed
		}
	}

	reply, err := d.backend.Ask(ctx, query)
	if err != nil {
		if !errors.Is(err, domain.ErrDeliveryFailed) {
			err = fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
		}
		return "", err
	}
	return reply, nil
}
