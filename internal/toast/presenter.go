package toast

import (
	"html"
	"log"
	"sync"
	"time"

	"github.com/alphaseven/escrow-chat/internal/session"
	"github.com/alphaseven/escrow-chat/internal/stats"
)

const MetricToastsShown = "ToastsShown"

const (
	defaultEntranceDelay   = 10 * time.Millisecond
	defaultDisplayDuration = 5 * time.Second
	defaultExitGrace       = 300 * time.Millisecond
)

// State is the lifecycle stage of a toast: Created -> Visible ->
// Expiring -> Removed. Expiring toasts are still on screen playing
// their exit animation.
type State int

const (
	StateCreated State = iota
	StateVisible
	StateExpiring
	StateRemoved
)

// Toast is one transient notification. Text fields are escaped against
// markup injection at creation time.
type Toast struct {
	Id         int64
	TradeId    int
	SenderName string
	Body       string
	CreatedAt  time.Time
	Visible    bool
}

type entry struct {
	toast Toast
	state State
	timer *time.Timer
}

// Config controls presentation timing and rendering callbacks. Zero
// durations fall back to the defaults; OnChange receives a snapshot of
// the active queue after every transition.
type Config struct {
	EntranceDelay   time.Duration
	DisplayDuration time.Duration
	ExitGrace       time.Duration
	OnChange        func(active []Toast)
	OnNavigate      func(tradeId int)
}

// Presenter owns the ordered queue of visible toast notifications. It
// consumes routed message events and is independent of the transport.
type Presenter struct {
	log             *log.Logger
	stats           stats.StatsProvider
	entranceDelay   time.Duration
	displayDuration time.Duration
	exitGrace       time.Duration
	onChange        func(active []Toast)
	onNavigate      func(tradeId int)

	mu     sync.Mutex
	nextId int64
	queue  []*entry
	closed bool

	// emitMu serializes onChange deliveries so the host never renders
	// a stale snapshot after a newer one.
	emitMu sync.Mutex
}

func NewPresenter(cfg Config, sp stats.StatsProvider, logger *log.Logger) *Presenter {
	p := &Presenter{
		log:             logger,
		stats:           sp,
		entranceDelay:   cfg.EntranceDelay,
		displayDuration: cfg.DisplayDuration,
		exitGrace:       cfg.ExitGrace,
		onChange:        cfg.OnChange,
		onNavigate:      cfg.OnNavigate,
	}

	if p.entranceDelay <= 0 {
		p.entranceDelay = defaultEntranceDelay
	}
	if p.displayDuration <= 0 {
		p.displayDuration = defaultDisplayDuration
	}
	if p.exitGrace <= 0 {
		p.exitGrace = defaultExitGrace
	}

	return p
}

// HandleEvent is the session subscriber entry point. Only message
// events produce toasts; self-filtering happens upstream in the
// router.
func (p *Presenter) HandleEvent(ev *session.Event) {
	if ev.Message == nil {
		return
	}

	p.Show(ev.Message.TradeId, ev.Message.SenderName, ev.Message.Body)
}

// Show enqueues a toast for a chat message and starts its lifecycle
// timers.
func (p *Presenter) Show(tradeId int, senderName, body string) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	p.nextId++
	e := &entry{
		toast: Toast{
			Id:         p.nextId,
			TradeId:    tradeId,
			SenderName: html.EscapeString(senderName),
			Body:       html.EscapeString(body),
			CreatedAt:  time.Now(),
		},
		state: StateCreated,
	}
	p.queue = append(p.queue, e)

	id := e.toast.Id
	e.timer = time.AfterFunc(p.entranceDelay, func() { p.advance(id, StateVisible) })
	p.mu.Unlock()

	p.stats.Incr(MetricToastsShown)
	p.emitChange()
}

// advance moves a toast to the next lifecycle stage and schedules the
// one after. Transitions are unconditional; new events never extend a
// toast's lifetime.
func (p *Presenter) advance(id int64, to State) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}

	e := p.find(id)
	if e == nil || to != e.state+1 {
		p.mu.Unlock()
		return
	}

	e.state = to
	switch to {
	case StateVisible:
		e.toast.Visible = true
		e.timer = time.AfterFunc(p.displayDuration, func() { p.advance(id, StateExpiring) })
	case StateExpiring:
		e.timer = time.AfterFunc(p.exitGrace, func() { p.advance(id, StateRemoved) })
	case StateRemoved:
		e.toast.Visible = false
		e.timer = nil
		p.remove(id)
	}
	p.mu.Unlock()

	p.emitChange()
}

// Tap handles a user interaction on a toast: it navigates to the chat
// for that trade without altering the toast's lifecycle timers.
func (p *Presenter) Tap(id int64) {
	p.mu.Lock()
	e := p.find(id)
	ok := e != nil && (e.state == StateVisible || e.state == StateExpiring)
	var tradeId int
	if ok {
		tradeId = e.toast.TradeId
	}
	p.mu.Unlock()

	if !ok {
		p.log.Printf("toast %d not active, ignoring tap", id)
		return
	}

	if p.onNavigate != nil {
		p.onNavigate(tradeId)
	}
}

// Active returns the queue in insertion order, oldest first.
func (p *Presenter) Active() []Toast {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.snapshotLocked()
}

// Stop cancels every pending timer and clears the queue. Late timer
// fires against a stopped presenter are no-ops.
func (p *Presenter) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true

	for _, e := range p.queue {
		if e.timer != nil {
			e.timer.Stop()
		}
	}
	p.queue = nil
}

func (p *Presenter) find(id int64) *entry {
	for _, e := range p.queue {
		if e.toast.Id == id {
			return e
		}
	}

	return nil
}

func (p *Presenter) remove(id int64) {
	for i, e := range p.queue {
		if e.toast.Id == id {
			p.queue = append(p.queue[:i], p.queue[i+1:]...)
			return
		}
	}
}

func (p *Presenter) snapshotLocked() []Toast {
	active := make([]Toast, 0, len(p.queue))
	for _, e := range p.queue {
		active = append(active, e.toast)
	}

	return active
}

// emitChange delivers the current queue to the host. The snapshot is
// taken under emitMu, after any earlier delivery has finished, so
// concurrent timer fires cannot hand the host snapshots out of order.
func (p *Presenter) emitChange() {
	if p.onChange == nil {
		return
	}

	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	active := p.snapshotLocked()
	p.mu.Unlock()

	p.onChange(active)
}
