package status

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"enstore_storefront/internal/models"
)

// DefaultInterval is the pause between two status fetches.
const DefaultInterval = 10 * time.Second

var (
	ErrFetchInFlight    = errors.New("status fetch already in flight")
	ErrCancelNotAllowed = errors.New("transaction can no longer be cancelled")
	ErrPollerClosed     = errors.New("status poller closed")
)

// Fetcher is the API surface the poller needs.
type Fetcher interface {
	Status(ctx context.Context, code string) (*models.Transaction, error)
	Cancel(ctx context.Context, code string) error
}

// Update is published after every state change.
type Update struct {
	Code        string
	State       State
	Transaction *models.Transaction
	Expired     bool
	Trigger     Event
}

// Option configures a Poller.
type Option func(*Poller)

func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithClock(c Clock) Option {
	return func(p *Poller) { p.clock = c }
}

// WithUpdateHandler registers fn to receive every Update. fn runs on the
// goroutine that caused the change and must not block for long.
func WithUpdateHandler(fn func(Update)) Option {
	return func(p *Poller) { p.onUpdate = fn }
}

// WithTransaction seeds the poller with an already fetched snapshot so Run
// skips the initial fetch.
func WithTransaction(tx *models.Transaction) Option {
	return func(p *Poller) { p.initial = tx }
}

// Poller re-fetches one transaction on an interval until it settles. Fetches
// never overlap, results arriving after teardown are dropped.
type Poller struct {
	code     string
	fetcher  Fetcher
	interval time.Duration
	clock    Clock
	onUpdate func(Update)
	initial  *models.Transaction

	mu         sync.Mutex
	idle       *sync.Cond
	machine    *Machine
	inFlight   bool
	cancelling bool
	closed     bool
	done       chan struct{}
	doneClosed bool
}

func NewPoller(code string, fetcher Fetcher, opts ...Option) *Poller {
	p := &Poller{
		code:     code,
		fetcher:  fetcher,
		interval: DefaultInterval,
		clock:    SystemClock{},
		machine:  NewMachine(),
		done:     make(chan struct{}),
	}
	p.idle = sync.NewCond(&p.mu)
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Poller) Code() string { return p.code }

// Done is closed once the transaction reaches a terminal state.
func (p *Poller) Done() <-chan struct{} { return p.done }

// Snapshot returns the current state.
func (p *Poller) Snapshot() Update {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.snapshotLocked("")
}

// Run fetches the transaction, then keeps polling until it settles or ctx is
// cancelled. Tick errors are logged and retried on the next tick.
func (p *Poller) Run(ctx context.Context) error {
	defer p.close()

	if p.initial != nil {
		p.seed(p.initial)
	} else if _, err := p.fetch(ctx, EventStart); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Printf("status %s: initial fetch failed: %v", p.code, err)
	}

	ticker := p.clock.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return nil
		default:
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-p.done:
			return nil
		case <-ticker.C():
			_, err := p.fetch(ctx, EventTick)
			switch {
			case err == nil, errors.Is(err, ErrFetchInFlight), errors.Is(err, ErrInvalidTransition):
			case ctx.Err() != nil:
				return ctx.Err()
			default:
				log.Printf("status %s: poll failed: %v", p.code, err)
			}
		}
	}
}

// Check fetches the status out of band without touching the poll interval.
// Errors are returned to the caller.
func (p *Poller) Check(ctx context.Context) (*models.Transaction, error) {
	return p.fetch(ctx, EventManualCheck)
}

// Expire marks the local countdown as run out. A transaction that is still
// pending becomes failed and polling stops.
func (p *Poller) Expire() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	if _, err := p.machine.Fire(EventExpired, nil); err != nil {
		p.mu.Unlock()
		return
	}
	p.settleLocked()
	upd := p.snapshotLocked(EventExpired)
	p.mu.Unlock()
	p.emit(upd)
}

// Cancel asks the API to cancel the transaction, then re-fetches its status
// once. Only allowed while the transaction is neither paid, expired nor
// settled. A failed cancel leaves the state untouched. Once the API accepted
// the cancel the re-fetch is best effort: when polling already settled the
// transaction, or the re-fetch fails, the last snapshot is returned.
func (p *Poller) Cancel(ctx context.Context) (*models.Transaction, error) {
	p.mu.Lock()
	if !p.cancellableLocked() {
		p.mu.Unlock()
		return nil, ErrCancelNotAllowed
	}
	p.cancelling = true
	p.mu.Unlock()

	defer func() {
		p.mu.Lock()
		p.cancelling = false
		p.mu.Unlock()
	}()

	if err := p.fetcher.Cancel(ctx, p.code); err != nil {
		return nil, err
	}

	p.mu.Lock()
	for p.inFlight && !p.closed {
		p.idle.Wait()
	}
	if p.closed || p.machine.State().Terminal() {
		tx := p.machine.Transaction()
		p.mu.Unlock()
		return tx, nil
	}
	if err := p.beginLocked(EventCancelResolved); err != nil {
		tx := p.machine.Transaction()
		p.mu.Unlock()
		return tx, nil
	}
	p.mu.Unlock()

	tx, err := p.resolve(ctx, EventCancelResolved)
	if err == nil {
		return tx, nil
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if !errors.Is(err, ErrPollerClosed) && !errors.Is(err, ErrInvalidTransition) {
		log.Printf("status %s: re-fetch after cancel failed: %v", p.code, err)
	}
	return p.Snapshot().Transaction, nil
}

// Cancellable reports whether Cancel would be attempted.
func (p *Poller) Cancellable() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cancellableLocked()
}

func (p *Poller) cancellableLocked() bool {
	if p.closed || p.cancelling || p.machine.Expired() || p.machine.State().Terminal() {
		return false
	}
	tx := p.machine.Transaction()
	return tx != nil && Cancellable(*tx, false)
}

func (p *Poller) seed(tx *models.Transaction) {
	p.mu.Lock()
	if _, err := p.machine.Fire(EventStart, nil); err != nil {
		p.mu.Unlock()
		return
	}
	if _, err := p.machine.Fire(EventFetchResolved, tx); err != nil {
		p.mu.Unlock()
		return
	}
	p.settleLocked()
	upd := p.snapshotLocked(EventStart)
	p.mu.Unlock()
	p.emit(upd)
}

func (p *Poller) fetch(ctx context.Context, trigger Event) (*models.Transaction, error) {
	p.mu.Lock()
	if err := p.beginLocked(trigger); err != nil {
		p.mu.Unlock()
		return nil, err
	}
	p.mu.Unlock()
	return p.resolve(ctx, trigger)
}

// beginLocked claims the in-flight slot for a fetch triggered by trigger.
func (p *Poller) beginLocked(trigger Event) error {
	if p.closed {
		return ErrPollerClosed
	}
	if p.inFlight {
		return ErrFetchInFlight
	}
	if _, err := p.machine.Fire(trigger, nil); err != nil {
		return err
	}
	p.inFlight = true
	return nil
}

// resolve performs the fetch claimed by beginLocked and releases the slot.
func (p *Poller) resolve(ctx context.Context, trigger Event) (*models.Transaction, error) {
	tx, err := p.fetcher.Status(ctx, p.code)

	p.mu.Lock()
	p.inFlight = false
	p.idle.Broadcast()

	if p.closed || ctx.Err() != nil {
		p.mu.Unlock()
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ErrPollerClosed
	}
	if err != nil {
		_, _ = p.machine.Fire(EventFetchFailed, nil)
		p.mu.Unlock()
		return nil, err
	}
	if _, ferr := p.machine.Fire(EventFetchResolved, tx); ferr != nil {
		p.mu.Unlock()
		return nil, ferr
	}
	p.settleLocked()
	upd := p.snapshotLocked(trigger)
	p.mu.Unlock()

	p.emit(upd)
	return upd.Transaction, nil
}

func (p *Poller) settleLocked() {
	if p.machine.State().Terminal() && !p.doneClosed {
		p.doneClosed = true
		close(p.done)
	}
}

func (p *Poller) snapshotLocked(trigger Event) Update {
	return Update{
		Code:        p.code,
		State:       p.machine.State(),
		Transaction: p.machine.Transaction(),
		Expired:     p.machine.Expired(),
		Trigger:     trigger,
	}
}

func (p *Poller) emit(u Update) {
	if p.onUpdate != nil {
		p.onUpdate(u)
	}
}

func (p *Poller) close() {
	p.mu.Lock()
	p.closed = true
	p.idle.Broadcast()
	p.mu.Unlock()
}
