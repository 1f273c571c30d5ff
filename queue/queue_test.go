package queue

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/aicrew/types"
)

func newTestQueue(t *testing.T) (*Publisher, *Consumer, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewPublisher(client, ""), NewConsumer(client, "", nil), mr
}

type recorder struct {
	mu    sync.Mutex
	tasks []types.Task
	err   error
	// errOnce fails only the first delivery.
	errOnce bool
	done    chan struct{}
	want    int
}

func newRecorder(want int) *recorder {
	return &recorder{done: make(chan struct{}), want: want}
}

func (r *recorder) handle(_ context.Context, task types.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		err := r.err
		if r.errOnce {
			r.err = nil
		}
		return err
	}
	r.tasks = append(r.tasks, task)
	if len(r.tasks) == r.want {
		close(r.done)
	}
	return nil
}

func (r *recorder) received() []types.Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]types.Task, len(r.tasks))
	copy(out, r.tasks)
	return out
}

func waitFor(t *testing.T, ch chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for deliveries")
	}
}

func TestQueue_PublishAndConsume(t *testing.T) {
	pub, con, _ := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pub.Publish(ctx, types.Task{ID: "T1", Title: "first", Status: types.StatusPending}))
	require.NoError(t, pub.Publish(ctx, types.Task{ID: "T2", Title: "second", Status: types.StatusPending}))

	rec := newRecorder(2)
	go con.Run(ctx, rec.handle)
	waitFor(t, rec.done)

	got := rec.received()
	require.Len(t, got, 2)
	assert.Equal(t, "T1", got[0].ID, "FIFO order")
	assert.Equal(t, "T2", got[1].ID)
	assert.Equal(t, "first", got[0].Title)
}

func TestConsumer_StopsOnCancel(t *testing.T) {
	_, con, _ := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- con.Run(ctx, func(context.Context, types.Task) error { return nil }) }()

	cancel()
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("consumer did not stop on cancel")
	}
}

func TestConsumer_RequeuesRetryableFailures(t *testing.T) {
	pub, con, _ := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pub.Publish(ctx, types.Task{ID: "T1", Title: "flaky", Status: types.StatusPending}))

	rec := newRecorder(1)
	rec.err = types.NewError(types.ErrTimeout, "transient").WithRetryable(true)
	rec.errOnce = true

	go con.Run(ctx, rec.handle)
	waitFor(t, rec.done)

	got := rec.received()
	require.Len(t, got, 1)
	assert.Equal(t, "T1", got[0].ID, "task redelivered after retryable failure")
}

func TestConsumer_DropsNonRetryableFailures(t *testing.T) {
	pub, con, mr := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, pub.Publish(ctx, types.Task{ID: "T1", Title: "bad", Status: types.StatusPending}))
	require.NoError(t, pub.Publish(ctx, types.Task{ID: "T2", Title: "good", Status: types.StatusPending}))

	rec := newRecorder(1)
	rec.err = types.NewError(types.ErrInvalidTask, "permanent")
	rec.errOnce = true

	go con.Run(ctx, rec.handle)
	waitFor(t, rec.done)

	got := rec.received()
	require.Len(t, got, 1)
	assert.Equal(t, "T2", got[0].ID, "failed task dropped, next one delivered")

	// Nothing left queued.
	assert.Equal(t, 0, len(mr.Keys()))
}

func TestConsumer_DropsGarbagePayloads(t *testing.T) {
	pub, con, mr := newTestQueue(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := mr.Lpush(DefaultKey, "{not json")
	require.NoError(t, err)
	_, err = mr.Lpush(DefaultKey, `{"title":"no id"}`)
	require.NoError(t, err)
	require.NoError(t, pub.Publish(ctx, types.Task{ID: "T1", Title: "valid", Status: types.StatusPending}))

	rec := newRecorder(1)
	go con.Run(ctx, rec.handle)
	waitFor(t, rec.done)

	got := rec.received()
	require.Len(t, got, 1)
	assert.Equal(t, "T1", got[0].ID)
}
