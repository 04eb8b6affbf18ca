package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"hotel-service/internal/apperr"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	mu       sync.Mutex
	messages []kafka.Message
	next     int
	log      []string
	fetchErr error
}

func (r *fakeReader) record(entry string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, entry)
}

func (r *fakeReader) entries() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if r.fetchErr != nil {
		err := r.fetchErr
		r.fetchErr = nil
		r.mu.Unlock()
		return kafka.Message{}, err
	}
	if r.next < len(r.messages) {
		msg := r.messages[r.next]
		r.next++
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()

	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(ctx context.Context, msgs ...kafka.Message) error {
	for _, msg := range msgs {
		r.record(fmt.Sprintf("commit:%d", msg.Offset))
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func newTestConsumer(reader *fakeReader) *Consumer {
	c := newConsumer(reader, "payment-callbacks")
	c.retryBackoff = time.Millisecond
	c.maxRetryBackoff = 4 * time.Millisecond
	return c
}

func TestStartConsumingRetriesFailedMessageBeforeLaterOffsets(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Partition: 0, Offset: 10, Value: []byte(`{"vnp_TxnRef":"42-1"}`)},
		{Partition: 0, Offset: 11, Value: []byte(`{"vnp_TxnRef":"43-1"}`)},
	}}
	c := newTestConsumer(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	failures := 2
	handler := func(ctx context.Context, msg kafka.Message) error {
		reader.record(fmt.Sprintf("handle:%d", msg.Offset))
		if msg.Offset == 10 && failures > 0 {
			failures--
			return apperr.Internal(errors.New("connection reset"), "failed to lock booking 42")
		}
		if msg.Offset == 11 {
			cancel()
		}
		return nil
	}

	err := c.StartConsuming(ctx, handler)
	assert.ErrorIs(t, err, context.Canceled)

	assert.Equal(t, []string{
		"handle:10",
		"handle:10",
		"handle:10",
		"commit:10",
		"handle:11",
		"commit:11",
	}, reader.entries())
}

func TestStartConsumingStopsRetryingOnCancel(t *testing.T) {
	reader := &fakeReader{messages: []kafka.Message{
		{Partition: 0, Offset: 10},
		{Partition: 0, Offset: 11},
	}}
	c := newTestConsumer(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	attempts := 0
	handler := func(ctx context.Context, msg kafka.Message) error {
		reader.record(fmt.Sprintf("handle:%d", msg.Offset))
		attempts++
		if attempts == 3 {
			cancel()
		}
		return errors.New("database unavailable")
	}

	err := c.StartConsuming(ctx, handler)
	assert.ErrorIs(t, err, context.Canceled)

	entries := reader.entries()
	require.NotEmpty(t, entries)
	for _, entry := range entries {
		assert.Equal(t, "handle:10", entry)
	}
}

func TestStartConsumingRecoversFromFetchError(t *testing.T) {
	reader := &fakeReader{
		messages: []kafka.Message{{Partition: 0, Offset: 3}},
		fetchErr: errors.New("leader not available"),
	}
	c := newTestConsumer(reader)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	err := c.StartConsuming(ctx, func(ctx context.Context, msg kafka.Message) error {
		cancel()
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []string{"commit:3"}, reader.entries())
}
