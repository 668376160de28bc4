package usecase

import (
	"context"
	"log/slog"
	"sync/atomic"

	"farmvoice/internal/ports"
)

// turn holds the resources acquired by one successful Start.
type turn struct {
	id     int
	cancel context.CancelFunc
	audio  ports.AudioSession
	link   ports.VoiceChannel
	logger *slog.Logger

	pending *pendingTranscript

	stopping  atomic.Bool
	loopDone  chan struct{}
	audioDone chan struct{}
	audioErr  chan error
}

func newTurn(id int, cancel context.CancelFunc, audio ports.AudioSession, link ports.VoiceChannel, logger *slog.Logger) *turn {
	return &turn{
		id:        id,
		cancel:    cancel,
		audio:     audio,
		link:      link,
		logger:    logger,
		pending:   newPendingTranscript(),
		loopDone:  make(chan struct{}),
		audioDone: make(chan struct{}),
		audioErr:  make(chan error, 1),
	}
}
