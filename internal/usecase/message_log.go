package usecase

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"farmvoice/internal/domain"
)

// messageLog is the append-only conversation transcript. Order is insertion
// order; timestamps are informational.
type messageLog struct {
	mu       sync.Mutex
	messages []domain.Message
	now      func() time.Time
}

func newMessageLog(now func() time.Time) *messageLog {
	if now == nil {
		now = time.Now
	}
	return &messageLog{now: now}
}

func (l *messageLog) Append(role domain.Role, content string) domain.Message {
	msg := domain.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: l.now(),
	}

	l.mu.Lock()
	l.messages = append(l.messages, msg)
	l.mu.Unlock()
	return msg
}

func (l *messageLog) Snapshot() []domain.Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.Message, len(l.messages))
	copy(out, l.messages)
	return out
}

func (l *messageLog) Find(id string) (domain.Message, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msg := range l.messages {
		if msg.ID == id {
			return msg, true
		}
	}
	return domain.Message{}, false
}
