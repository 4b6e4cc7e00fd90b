package dispatch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/filemill/internal/common"
	"github.com/dmitrijs2005/filemill/internal/logging"
	"github.com/dmitrijs2005/filemill/internal/processing"
	"github.com/dmitrijs2005/filemill/internal/queue"
)

type fixture struct {
	dispatcher  *Dispatcher
	requests    *processing.Protocol
	completions *processing.Protocol
}

func newFixture(t *testing.T, timeout time.Duration) *fixture {
	t.Helper()

	broker := queue.NewMemoryBroker()
	opts := queue.Options{VisibilityTimeout: time.Second, MaxDeliveries: 5}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))

	requests := processing.NewProtocol(broker.Queue("requests", opts), nil, 5*time.Millisecond, logger)
	completions := processing.NewProtocol(broker.Queue("completions", opts), nil, 5*time.Millisecond, logger)

	d := New(requests, completions, timeout, logger)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, d.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &fixture{dispatcher: d, requests: requests, completions: completions}
}

// echoWorker consumes requests and immediately publishes a completion
// with the same request id.
func echoWorker(t *testing.T, f *fixture) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			msg, err := f.requests.DequeueBlocking(ctx)
			if err != nil {
				return
			}
			completion := &processing.Message{
				RequestID:   msg.RequestID,
				FileURI:     "mem://outputs/" + msg.RequestID,
				ContentType: "text/plain",
				ToolName:    msg.ToolName,
			}
			assert.NoError(t, f.completions.Enqueue(ctx, completion))
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
}

func TestDispatcher_SubmitRoundTrip(t *testing.T) {
	f := newFixture(t, 2*time.Second)
	echoWorker(t, f)

	result, err := f.dispatcher.Submit(context.Background(), "mem://files/u01/a.txt", "text/plain", "hash")
	require.NoError(t, err)
	assert.Equal(t, "mem://outputs/"+result.RequestID, result.FileURI)
	assert.Equal(t, "hash", result.ToolName)
}

func TestDispatcher_SubmitTimesOutWithoutWorker(t *testing.T) {
	f := newFixture(t, 50*time.Millisecond)

	_, err := f.dispatcher.Submit(context.Background(), "mem://files/u01/a.txt", "text/plain", "hash")
	assert.ErrorIs(t, err, common.ErrProcessingTimeout)
}

func TestDispatcher_SubmitHonorsContextCancellation(t *testing.T) {
	f := newFixture(t, time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := f.dispatcher.Submit(ctx, "mem://files/u01/a.txt", "text/plain", "hash")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDispatcher_ConcurrentSubmitsCorrelateByRequestID(t *testing.T) {
	f := newFixture(t, 5*time.Second)
	echoWorker(t, f)

	const n = 10
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			uri := fmt.Sprintf("mem://files/u01/file-%d.txt", i)
			result, err := f.dispatcher.Submit(context.Background(), uri, "text/plain", "hash")
			if assert.NoError(t, err) {
				assert.Equal(t, "mem://outputs/"+result.RequestID, result.FileURI)
			}
		}(i)
	}
	wg.Wait()
}

func TestDispatcher_DropsCompletionWithoutWaiter(t *testing.T) {
	f := newFixture(t, time.Second)
	ctx := context.Background()

	orphan := &processing.Message{
		RequestID:   "orphan-request",
		FileURI:     "mem://outputs/orphan",
		ContentType: "text/plain",
		ToolName:    "hash",
	}
	require.NoError(t, f.completions.Enqueue(ctx, orphan))

	// The router must drain it without blocking.
	require.Eventually(t, func() bool {
		msgs, err := f.completions.Peek(ctx, 10)
		return err == nil && len(msgs) == 0
	}, 2*time.Second, 10*time.Millisecond)
}
