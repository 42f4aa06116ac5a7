package uploader

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers là số upload chạy song song mặc định
const DefaultWorkers = 3

// Presigned là kết quả presign: URL PUT đã ký và object key được cấp
type Presigned struct {
	URL string
	Key string
}

// Transport là các lời gọi mạng của một lượt upload, *APIClient implement interface này
type Transport interface {
	Presign(ctx context.Context, filename, contentType string, size int64) (*Presigned, error)
	Put(ctx context.Context, url, contentType string, body io.Reader, size int64) error
	ViewURL(ctx context.Context, key string) (string, error)
}

type Option func(*Orchestrator)

// WithWorkers đặt số worker; n < 1 giữ mặc định
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n >= 1 {
			o.workers = n
		}
	}
}

// WithObserver nhận snapshot mỗi khi một item đổi state hoặc progress
// Observer được gọi ngoài lock nên có thể gọi lại Items/Progress
func WithObserver(fn func(Item)) Option {
	return func(o *Orchestrator) {
		o.observer = fn
	}
}

type entry struct {
	item Item
	src  Source
}

// Orchestrator chạy các upload qua một pool worker cố định trên hàng đợi FIFO chung
//
// Item thêm (hoặc retry) trong lúc Run đang chạy đánh thức worker rảnh ngay.
// Run kết thúc khi hàng đợi rỗng và không còn item đang upload.
type Orchestrator struct {
	transport Transport
	workers   int
	observer  func(Item)

	mu       sync.Mutex
	cond     *sync.Cond
	seq      int
	items    map[string]*entry
	order    []string
	queue    []string
	inFlight int
	running  bool
}

func New(transport Transport, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		transport: transport,
		workers:   DefaultWorkers,
		items:     make(map[string]*entry),
	}
	o.cond = sync.NewCond(&o.mu)
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ============================================
// QUEUE
// ============================================

// Add đưa source vào cuối hàng đợi, trả về id của item
func (o *Orchestrator) Add(src Source) string {
	o.mu.Lock()
	o.seq++
	id := strconv.Itoa(o.seq)
	e := &entry{
		item: Item{ID: id, Name: src.Name, State: StateQueued},
		src:  src,
	}
	o.items[id] = e
	o.order = append(o.order, id)
	o.queue = append(o.queue, id)
	snapshot := e.item
	o.cond.Signal()
	o.mu.Unlock()

	o.notify(snapshot)
	return id
}

// Retry đưa một item lỗi về queued; item ở state khác trả ErrNotRetryable
func (o *Orchestrator) Retry(id string) error {
	o.mu.Lock()
	e, ok := o.items[id]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownItem, id)
	}
	if e.item.State != StateError {
		o.mu.Unlock()
		return fmt.Errorf("%w: item %s is %s", ErrNotRetryable, id, e.item.State)
	}

	e.item = Item{ID: e.item.ID, Name: e.item.Name, State: StateQueued}
	o.queue = append(o.queue, id)
	snapshot := e.item
	o.cond.Signal()
	o.mu.Unlock()

	o.notify(snapshot)
	return nil
}

// Items trả về snapshot các item theo thứ tự thêm vào
func (o *Orchestrator) Items() []Item {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Item, 0, len(o.order))
	for _, id := range o.order {
		out = append(out, o.items[id].item)
	}
	return out
}

func (o *Orchestrator) Item(id string) (Item, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.items[id]
	if !ok {
		return Item{}, false
	}
	return e.item, true
}

// Progress là trung bình progress của các item không lỗi; 0 khi không có item nào
func (o *Orchestrator) Progress() float64 {
	o.mu.Lock()
	defer o.mu.Unlock()

	sum, n := 0, 0
	for _, e := range o.items {
		if e.item.State == StateError {
			continue
		}
		sum += e.item.Progress
		n++
	}
	if n == 0 {
		return 0
	}
	return float64(sum) / float64(n)
}

// ============================================
// RUN
// ============================================

// Run chạy worker cho tới khi hàng đợi cạn
// Cancel ctx: worker ngừng nhận item mới, request đang chạy bị hủy và item đó kết thúc ở error
func (o *Orchestrator) Run(ctx context.Context) error {
	o.mu.Lock()
	if o.running {
		o.mu.Unlock()
		return ErrAlreadyRunning
	}
	o.running = true
	o.mu.Unlock()

	defer func() {
		o.mu.Lock()
		o.running = false
		o.mu.Unlock()
	}()

	g, gctx := errgroup.WithContext(ctx)

	// worker đang Wait phải thức dậy khi ctx bị hủy
	stop := context.AfterFunc(gctx, func() {
		o.mu.Lock()
		o.cond.Broadcast()
		o.mu.Unlock()
	})
	defer stop()

	for i := 0; i < o.workers; i++ {
		g.Go(func() error {
			o.work(gctx)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}

func (o *Orchestrator) work(ctx context.Context) {
	for {
		e, ok := o.next(ctx)
		if !ok {
			return
		}
		o.process(ctx, e)
		o.done()
	}
}

// next lấy item đầu hàng đợi; khi hàng đợi rỗng nhưng còn upload đang chạy thì chờ,
// vì Add/Retry có thể đưa thêm item trước khi lượt chạy kết thúc
func (o *Orchestrator) next(ctx context.Context) (*entry, bool) {
	o.mu.Lock()
	for len(o.queue) == 0 && o.inFlight > 0 && ctx.Err() == nil {
		o.cond.Wait()
	}
	if ctx.Err() != nil || len(o.queue) == 0 {
		o.cond.Broadcast()
		o.mu.Unlock()
		return nil, false
	}

	id := o.queue[0]
	o.queue = o.queue[1:]
	e := o.items[id]
	e.item.State = StateUploading
	e.item.Progress = 0
	o.inFlight++
	snapshot := e.item
	o.mu.Unlock()

	o.notify(snapshot)
	return e, true
}

func (o *Orchestrator) done() {
	o.mu.Lock()
	o.inFlight--
	if o.inFlight == 0 && len(o.queue) == 0 {
		o.cond.Broadcast()
	}
	o.mu.Unlock()
}

// process: presign -> PUT (kèm progress) -> view-url; lỗi ở bước nào thì item kết thúc ở error
func (o *Orchestrator) process(ctx context.Context, e *entry) {
	id, src := e.item.ID, e.src

	signed, err := o.transport.Presign(ctx, src.Name, src.ContentType, src.Size)
	if err != nil {
		o.fail(id, fmt.Errorf("presign: %w", err))
		return
	}
	o.update(id, func(it *Item) { it.Key = signed.Key })

	body, err := src.Open()
	if err != nil {
		o.fail(id, fmt.Errorf("open %s: %w", src.Name, err))
		return
	}
	defer body.Close()

	reader := newProgressReader(body, src.Size, func(pct int) {
		o.update(id, func(it *Item) {
			if pct > it.Progress {
				it.Progress = pct
			}
		})
	})
	if err := o.transport.Put(ctx, signed.URL, src.ContentType, reader, src.Size); err != nil {
		o.fail(id, fmt.Errorf("upload: %w", err))
		return
	}

	viewURL, err := o.transport.ViewURL(ctx, signed.Key)
	if err != nil {
		o.fail(id, fmt.Errorf("view-url: %w", err))
		return
	}

	o.update(id, func(it *Item) {
		it.State = StateDone
		it.Progress = 100
		it.ViewURL = viewURL
	})
}

func (o *Orchestrator) fail(id string, err error) {
	o.update(id, func(it *Item) {
		it.State = StateError
		it.Err = err.Error()
	})
}

func (o *Orchestrator) update(id string, fn func(*Item)) {
	o.mu.Lock()
	e := o.items[id]
	before := e.item
	fn(&e.item)
	snapshot := e.item
	o.mu.Unlock()

	if snapshot != before {
		o.notify(snapshot)
	}
}

func (o *Orchestrator) notify(item Item) {
	if o.observer != nil {
		o.observer(item)
	}
}
