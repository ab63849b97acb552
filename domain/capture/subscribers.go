package capture

import (
	"sync"

	"github.com/google/uuid"

	"github.com/soocke/screen-capture-go/domain/frame"
)

// FrameFunc receives each captured frame. It runs synchronously on the
// capture worker, so a slow callback throttles capture cadence. The view is
// revoked the moment the callback set returns; do not retain it.
type FrameFunc func(*frame.View)

// Token identifies one subscription for Unsubscribe.
type Token = uuid.UUID

type subscription struct {
	token Token
	fn    FrameFunc
}

// subscriberList is an ordered callback registry. Delivery follows
// registration order.
type subscriberList struct {
	mu   sync.RWMutex
	subs []subscription
}

func (l *subscriberList) add(fn FrameFunc) Token {
	l.mu.Lock()
	defer l.mu.Unlock()
	token := uuid.New()
	l.subs = append(l.subs, subscription{token: token, fn: fn})
	return token
}

func (l *subscriberList) remove(token Token) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, s := range l.subs {
		if s.token == token {
			l.subs = append(l.subs[:i], l.subs[i+1:]...)
			return nil
		}
	}
	return ErrSubscriberNotFound
}

func (l *subscriberList) snapshot() []subscription {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]subscription, len(l.subs))
	copy(out, l.subs)
	return out
}

func (l *subscriberList) clear() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.subs = nil
}

// newFrameView wraps a mapped staging buffer for delivery. The view derives
// its addressable geometry from the pitch; the region records the output
// rectangle the frame was captured from.
func newFrameView(m Mapped, width, height int) *frame.View {
	return frame.NewView(m.Data, m.RowPitch, m.SliceSize, frame.Region{Width: width, Height: height})
}
