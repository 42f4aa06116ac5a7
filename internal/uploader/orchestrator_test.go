package uploader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTransport: Put của file có gate sẽ chờ tới khi gate đóng hoặc ctx bị hủy
type fakeTransport struct {
	mu          sync.Mutex
	active      int
	maxActive   int
	gates       map[string]chan struct{}
	failPresign map[string]error
	uploaded    map[string]string
	delay       time.Duration
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		gates:       map[string]chan struct{}{},
		failPresign: map[string]error{},
		uploaded:    map[string]string{},
	}
}

func (f *fakeTransport) Presign(_ context.Context, filename, _ string, _ int64) (*Presigned, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.failPresign[filename]; err != nil {
		return nil, err
	}
	return &Presigned{URL: "put/" + filename, Key: "uploads/" + filename}, nil
}

func (f *fakeTransport) Put(ctx context.Context, url, _ string, body io.Reader, _ int64) error {
	name := strings.TrimPrefix(url, "put/")

	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	gate := f.gates[name]
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.active--
		f.mu.Unlock()
	}()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.delay > 0 {
		time.Sleep(f.delay)
	}

	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.mu.Lock()
	f.uploaded[name] = string(data)
	f.mu.Unlock()
	return nil
}

func (f *fakeTransport) ViewURL(_ context.Context, key string) (string, error) {
	return "view/" + key, nil
}

func (f *fakeTransport) gate(name string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[name] = ch
	return ch
}

func memSource(name, content string) Source {
	return Source{
		Name:        name,
		Size:        int64(len(content)),
		ContentType: "image/png",
		Open: func() (io.ReadCloser, error) {
			return io.NopCloser(strings.NewReader(content)), nil
		},
	}
}

func TestRunCompletesAllItems(t *testing.T) {
	tr := newFakeTransport()
	o := New(tr)

	id := o.Add(memSource("a.png", "aaa"))
	o.Add(memSource("b.png", "bbbb"))

	require.NoError(t, o.Run(context.Background()))

	item, ok := o.Item(id)
	require.True(t, ok)
	assert.Equal(t, StateDone, item.State)
	assert.Equal(t, 100, item.Progress)
	assert.Equal(t, "uploads/a.png", item.Key)
	assert.Equal(t, "view/uploads/a.png", item.ViewURL)
	assert.Equal(t, "bbbb", tr.uploaded["b.png"])
	assert.Equal(t, 100.0, o.Progress())
}

func TestConcurrencyIsBounded(t *testing.T) {
	tr := newFakeTransport()
	tr.delay = 10 * time.Millisecond
	o := New(tr, WithWorkers(3))

	for i := 0; i < 12; i++ {
		o.Add(memSource(fmt.Sprintf("f%d.png", i), "x"))
	}
	require.NoError(t, o.Run(context.Background()))

	assert.LessOrEqual(t, tr.maxActive, 3)
	assert.Greater(t, tr.maxActive, 1)
	for _, it := range o.Items() {
		assert.Equal(t, StateDone, it.State, it.Name)
	}
}

func TestFailureIsPerItemAndRetryable(t *testing.T) {
	tr := newFakeTransport()
	tr.failPresign["bad.png"] = errors.New("status 413: file too large")
	o := New(tr)

	bad := o.Add(memSource("bad.png", "x"))
	good := o.Add(memSource("good.png", "y"))
	require.NoError(t, o.Run(context.Background()))

	item, _ := o.Item(bad)
	assert.Equal(t, StateError, item.State)
	assert.Contains(t, item.Err, "presign")
	item, _ = o.Item(good)
	assert.Equal(t, StateDone, item.State)

	// lỗi không làm progress tổng đi xuống
	assert.Equal(t, 100.0, o.Progress())

	assert.ErrorIs(t, o.Retry(good), ErrNotRetryable)
	assert.ErrorIs(t, o.Retry("nope"), ErrUnknownItem)

	delete(tr.failPresign, "bad.png")
	require.NoError(t, o.Retry(bad))
	item, _ = o.Item(bad)
	assert.Equal(t, StateQueued, item.State)
	assert.Empty(t, item.Err)
	assert.Equal(t, 50.0, o.Progress())

	require.NoError(t, o.Run(context.Background()))
	item, _ = o.Item(bad)
	assert.Equal(t, StateDone, item.State)
}

func TestAddDuringRunWakesIdleWorker(t *testing.T) {
	tr := newFakeTransport()
	release := tr.gate("slow.png")
	o := New(tr, WithWorkers(2))

	slow := o.Add(memSource("slow.png", "s"))

	runErr := make(chan error, 1)
	go func() { runErr <- o.Run(context.Background()) }()

	require.Eventually(t, func() bool {
		it, _ := o.Item(slow)
		return it.State == StateUploading
	}, time.Second, 5*time.Millisecond)

	late := o.Add(memSource("late.png", "l"))
	require.Eventually(t, func() bool {
		it, _ := o.Item(late)
		return it.State == StateDone
	}, time.Second, 5*time.Millisecond)

	it, _ := o.Item(slow)
	assert.Equal(t, StateUploading, it.State)

	close(release)
	select {
	case err := <-runErr:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
	it, _ = o.Item(slow)
	assert.Equal(t, StateDone, it.State)
}

func TestRunRejectsConcurrentRun(t *testing.T) {
	tr := newFakeTransport()
	release := tr.gate("a.png")
	o := New(tr)
	o.Add(memSource("a.png", "a"))

	done := make(chan struct{})
	go func() {
		_ = o.Run(context.Background())
		close(done)
	}()
	require.Eventually(t, func() bool { return o.Items()[0].State == StateUploading }, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, o.Run(context.Background()), ErrAlreadyRunning)
	close(release)
	<-done
}

func TestCancelStopsWorkers(t *testing.T) {
	tr := newFakeTransport()
	tr.gate("a.png")
	o := New(tr, WithWorkers(1))

	a := o.Add(memSource("a.png", "a"))
	b := o.Add(memSource("b.png", "b"))

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- o.Run(ctx) }()

	require.Eventually(t, func() bool {
		it, _ := o.Item(a)
		return it.State == StateUploading
	}, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-runErr:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	it, _ := o.Item(a)
	assert.Equal(t, StateError, it.State)
	it, _ = o.Item(b)
	assert.Equal(t, StateQueued, it.State)
}

func TestObserverSeesMonotonicProgress(t *testing.T) {
	tr := newFakeTransport()

	var mu sync.Mutex
	var seen []Item
	o := New(tr, WithObserver(func(it Item) {
		mu.Lock()
		seen = append(seen, it)
		mu.Unlock()
	}))

	o.Add(memSource("big.png", strings.Repeat("x", 64<<10)))
	require.NoError(t, o.Run(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	require.NotEmpty(t, seen)
	assert.Equal(t, StateQueued, seen[0].State)
	assert.Equal(t, StateDone, seen[len(seen)-1].State)

	last := -1
	for _, it := range seen {
		assert.GreaterOrEqual(t, it.Progress, last)
		last = it.Progress
	}
	assert.Greater(t, len(seen), 3)
}

func TestProgressEmpty(t *testing.T) {
	o := New(newFakeTransport())
	assert.Equal(t, 0.0, o.Progress())

	o.Add(memSource("a.png", "a"))
	assert.Equal(t, 0.0, o.Progress())
}

func TestRunWithEmptyQueueReturns(t *testing.T) {
	o := New(newFakeTransport())
	assert.NoError(t, o.Run(context.Background()))
}
