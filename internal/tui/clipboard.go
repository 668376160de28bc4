package tui

import (
	"context"
	"errors"

	"github.com/atotto/clipboard"
)

// SystemClipboard writes to the desktop clipboard. On Linux it needs xclip,
// xsel or wl-copy on PATH.
type SystemClipboard struct{}

func (SystemClipboard) SetText(_ context.Context, text string) error {
	if clipboard.Unsupported {
		return errors.New("no clipboard utility available")
	}
	return clipboard.WriteAll(text)
}
