package usecase

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"farmvoice/internal/ports"
)

// pumpAudioChunks copies microphone audio into the voice channel until the
// capture ends. The outcome is reported once on result; nil means the
// capture finished cleanly.
func pumpAudioChunks(
	audio ports.AudioSession,
	link ports.VoiceChannel,
	chunkSize int,
	result chan<- error,
	done chan struct{},
) {
	var pumpErr error
	defer func() {
		result <- pumpErr
		close(done)
	}()

	if chunkSize < 256 {
		chunkSize = 4096
	}

	buf := make([]byte, chunkSize)
	for {
		n, err := audio.Read(buf)
		if n > 0 {
			if sendErr := link.SendAudio(buf[:n]); sendErr != nil {
				pumpErr = fmt.Errorf("failed to stream audio: %w", sendErr)
				return
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, os.ErrClosed) {
				pumpErr = fmt.Errorf("audio capture error: %w", err)
			}
			return
		}
	}
}

func waitForStream(link ports.VoiceChannel, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = 4 * time.Second
	}

	done := make(chan error, 1)
	go func() {
		done <- link.Wait()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(timeout):
		_ = link.Close()
		return <-done
	}
}
