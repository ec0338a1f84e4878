package canvas

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/mmuslimabdulj/goat-canvas/internal/domain"
)

// ErrNotConnected is returned by ApplyLocal when the edit was applied locally
// but there is no connection to send it on. It is lost on the next snapshot.
var ErrNotConnected = errors.New("canvas: not connected")

// DefaultQueueSize is the default inbound queue length of a Reconciler
const DefaultQueueSize = 256

// Sender delivers a locally originated event to the room
type Sender interface {
	Send(ev domain.Event) error
}

type inbound struct {
	ev   domain.Event
	snap *domain.Snapshot
}

type call struct {
	fn   func(*Reconciler)
	done chan struct{}
}

// Reconciler merges optimistic local edits and remote events into a Store.
//
// All methods except Enqueue, EnqueueSnapshot, Do and Submit must be called
// on the goroutine that owns the Reconciler: the one calling Drain, or Run
// itself. Network readers hand events over with Enqueue.
type Reconciler struct {
	store  *Store
	sender Sender

	inbox chan inbound
	calls chan call

	// Local interactions in flight. Remote updates for a dragged element and
	// remote viewport changes during a pan are suppressed until they end.
	dragging map[string]struct{}
	panning  bool

	onChange func(ev domain.Event)
}

// NewReconciler creates a reconciler over store. sender may be nil until a
// connection is available (see SetSender).
func NewReconciler(store *Store, sender Sender, queueSize int) *Reconciler {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	return &Reconciler{
		store:    store,
		sender:   sender,
		inbox:    make(chan inbound, queueSize),
		calls:    make(chan call),
		dragging: make(map[string]struct{}),
	}
}

// Store returns the store being reconciled
func (r *Reconciler) Store() *Store {
	return r.store
}

// SetSender swaps the outbound connection, nil when offline
func (r *Reconciler) SetSender(s Sender) {
	r.sender = s
}

// OnChange registers a callback run after every remote event or snapshot
// that changed the store. The event is nil for a snapshot.
func (r *Reconciler) OnChange(fn func(ev domain.Event)) {
	r.onChange = fn
}

// ApplyLocal applies an edit made on this client immediately, then sends it.
// There is no rollback: a racing remote edit applied later simply wins.
func (r *Reconciler) ApplyLocal(ev domain.Event) error {
	switch e := ev.(type) {
	case domain.ElementAdded:
		if err := e.Element.Validate(); err != nil {
			return err
		}
	case domain.ElementUpdated:
		if err := e.Element.Validate(); err != nil {
			return err
		}
	case domain.ElementDeleted:
		delete(r.dragging, e.ID)
	case domain.ViewportChanged:
		if err := e.Viewport.Validate(); err != nil {
			return err
		}
		ev = domain.ViewportChanged{Viewport: e.Viewport.Clamp()}
	case domain.CursorMoved:
		// Our own cursor is not part of the mirror
		return r.send(ev)
	case domain.ParticipantLeft:
		return fmt.Errorf("%w: %s", domain.ErrServerOnlyEvent, ev.Type())
	}

	changed, err := r.store.Apply(ev)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return r.send(ev)
}

func (r *Reconciler) send(ev domain.Event) error {
	if r.sender == nil {
		return ErrNotConnected
	}
	return r.sender.Send(ev)
}

// ApplyRemote applies an event relayed by the server and reports whether the
// store changed. Updates that would fight a local drag or pan are dropped.
func (r *Reconciler) ApplyRemote(ev domain.Event) bool {
	switch e := ev.(type) {
	case domain.ElementUpdated:
		if _, ok := r.dragging[e.Element.ID]; ok {
			return false
		}
	case domain.ElementDeleted:
		delete(r.dragging, e.ID)
	case domain.ViewportChanged:
		if r.panning {
			return false
		}
	case domain.CursorMoved:
		if e.ParticipantID == r.store.Self() {
			return false
		}
	}

	changed, err := r.store.Apply(ev)
	if err != nil {
		log.Printf("[canvas] remote %s: %v", ev.Type(), err)
		return false
	}
	if changed && r.onChange != nil {
		r.onChange(ev)
	}
	return changed
}

// ApplySnapshot replaces the store with the server's state. Drags of elements
// that no longer exist end here.
func (r *Reconciler) ApplySnapshot(snap domain.Snapshot) {
	r.store.Reset(snap)
	for id := range r.dragging {
		if _, ok := r.store.Element(id); !ok {
			delete(r.dragging, id)
		}
	}
	if r.onChange != nil {
		r.onChange(nil)
	}
}

// BeginDrag marks an element as being moved locally
func (r *Reconciler) BeginDrag(id string) {
	r.dragging[id] = struct{}{}
}

// EndDrag ends a local move started with BeginDrag
func (r *Reconciler) EndDrag(id string) {
	delete(r.dragging, id)
}

// Dragging reports whether id is being moved locally
func (r *Reconciler) Dragging(id string) bool {
	_, ok := r.dragging[id]
	return ok
}

// BeginPan marks the viewport as being changed locally
func (r *Reconciler) BeginPan() {
	r.panning = true
}

// EndPan ends a local pan or zoom
func (r *Reconciler) EndPan() {
	r.panning = false
}

// Enqueue hands a remote event to the owning goroutine. Safe for concurrent
// use; it blocks while the queue is full, and returns false if ctx ends first.
func (r *Reconciler) Enqueue(ctx context.Context, ev domain.Event) bool {
	return r.push(ctx, inbound{ev: ev})
}

// EnqueueSnapshot hands a room:init snapshot to the owning goroutine
func (r *Reconciler) EnqueueSnapshot(ctx context.Context, snap domain.Snapshot) bool {
	return r.push(ctx, inbound{snap: &snap})
}

func (r *Reconciler) push(ctx context.Context, in inbound) bool {
	select {
	case r.inbox <- in:
		return true
	case <-ctx.Done():
		return false
	}
}

// Drain applies every queued remote event without blocking and returns how
// many it took off the queue
func (r *Reconciler) Drain() int {
	n := 0
	for {
		select {
		case in := <-r.inbox:
			r.handle(in)
			n++
		default:
			return n
		}
	}
}

func (r *Reconciler) handle(in inbound) {
	if in.snap != nil {
		r.ApplySnapshot(*in.snap)
		return
	}
	r.ApplyRemote(in.ev)
}

// Run makes the calling goroutine the owner: it applies queued remote events
// and serves Do and Submit until ctx is done
func (r *Reconciler) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case in := <-r.inbox:
			r.handle(in)
		case c := <-r.calls:
			c.fn(r)
			close(c.done)
		}
	}
}

// Do runs fn on the goroutine executing Run and waits for it to return
func (r *Reconciler) Do(ctx context.Context, fn func(*Reconciler)) error {
	c := call{fn: fn, done: make(chan struct{})}
	select {
	case r.calls <- c:
	case <-ctx.Done():
		return ctx.Err()
	}
	<-c.done
	return nil
}

// Submit applies a local edit through Run's goroutine
func (r *Reconciler) Submit(ctx context.Context, ev domain.Event) error {
	var applyErr error
	if err := r.Do(ctx, func(r *Reconciler) {
		applyErr = r.ApplyLocal(ev)
	}); err != nil {
		return err
	}
	return applyErr
}
