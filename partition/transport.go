package partition

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Transport is the message-passing abstraction the partition engine
// exchanges quadrant payloads over. A production deployment would back
// this with real inter-process messaging; LocalTransport below backs it
// with channels for in-process use (tests and the local simulator the CLI
// exposes).
type Transport interface {
	Send(ctx context.Context, from, to int32, epoch uuid.UUID, payload []byte) error
	Recv(ctx context.Context, from, to int32, epoch uuid.UUID) ([]byte, error)
}

type transportKey struct {
	from, to int32
	epoch    uuid.UUID
}

// LocalTransport implements Transport with one buffered channel per
// (from, to, epoch) triple, lazily created on first use by either side of
// the pair. It is safe for concurrent Send/Recv calls across many
// goroutines, which is how Reshuffle drives it.
type LocalTransport struct {
	mu       sync.Mutex
	channels map[transportKey]chan []byte
}

// NewLocalTransport returns a ready-to-use in-process Transport.
func NewLocalTransport() *LocalTransport {
	return &LocalTransport{channels: make(map[transportKey]chan []byte)}
}

func (lt *LocalTransport) channel(key transportKey) chan []byte {
	lt.mu.Lock()
	defer lt.mu.Unlock()
	ch, ok := lt.channels[key]
	if !ok {
		ch = make(chan []byte, 1)
		lt.channels[key] = ch
	}

	return ch
}

// Send posts payload on the (from, to, epoch) channel. It never blocks past
// ctx cancellation.
func (lt *LocalTransport) Send(ctx context.Context, from, to int32, epoch uuid.UUID, payload []byte) error {
	ch := lt.channel(transportKey{from, to, epoch})
	select {
	case ch <- payload:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("partition: send %d->%d: %w", from, to, ctx.Err())
	}
}

// Recv blocks until the matching Send arrives or ctx is done.
func (lt *LocalTransport) Recv(ctx context.Context, from, to int32, epoch uuid.UUID) ([]byte, error) {
	ch := lt.channel(transportKey{from, to, epoch})
	select {
	case payload := <-ch:
		return payload, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("partition: recv %d<-%d: %w", to, from, ctx.Err())
	}
}
