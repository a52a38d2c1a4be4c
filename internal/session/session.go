package session

import (
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alphaseven/escrow-chat/internal/stats"
	"github.com/teris-io/shortid"
)

const (
	MetricConnects       = "Connects"
	MetricReconnects     = "Reconnects"
	MetricFramesReceived = "FramesReceived"
	MetricDecodeErrors   = "DecodeErrors"
	MetricMessagesSent   = "MessagesSent"
)

// RegisterMetrics registers every counter the session updates.
func RegisterMetrics(sp stats.StatsProvider) {
	for _, name := range []string{
		MetricConnects,
		MetricReconnects,
		MetricFramesReceived,
		MetricDecodeErrors,
		MetricMessagesSent,
	} {
		sp.RegisterMetric(name)
	}
}

type sendReq struct {
	body string
	ok   chan bool
}

// Session multiplexes chat for any number of trade rooms over a single
// websocket connection. All session state is owned by the run loop
// goroutine; the public surface communicates with it over channels.
//
// A Session is explicitly constructed and owned by the host
// application: call Start to bring it up and Stop to tear it down.
type Session struct {
	id        string
	userId    int
	log       *log.Logger
	stats     stats.StatsProvider
	transport *Transport
	rooms     *roomSet
	router    *router
	policy    ReconnectPolicy

	statusFn StatusFunc

	joinChan  chan int
	leaveChan chan int
	sendChan  chan *sendReq
	stopChan  chan struct{}
	done      chan struct{}

	// gen invalidates deferred work scheduled by an earlier lifecycle;
	// a reconnect timer only fires if its generation still matches.
	gen atomic.Uint64

	started atomic.Bool

	stateMu sync.RWMutex
	state   ConnectionState

	stopOnce sync.Once
	doneOnce sync.Once
}

func NewSession(serverURL string, userId int, policy ReconnectPolicy, sp stats.StatsProvider, logger *log.Logger) *Session {
	if policy == nil {
		policy = NewFixedReconnect(defaultReconnectDelay)
	}

	rooms := newRoomSet()

	return &Session{
		id:        shortid.MustGenerate(),
		userId:    userId,
		log:       logger,
		stats:     sp,
		transport: NewTransport(serverURL, logger),
		rooms:     rooms,
		router:    newRouter(userId, rooms, logger),
		policy:    policy,
		joinChan:  make(chan int, 16),
		leaveChan: make(chan int, 16),
		sendChan:  make(chan *sendReq),
		stopChan:  make(chan struct{}),
		done:      make(chan struct{}),
		state:     StateDisconnected,
	}
}

// Id is a per-instance identifier used in log lines.
func (s *Session) Id() string {
	return s.id
}

func (s *Session) State() ConnectionState {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()

	return s.state
}

// Rooms returns a snapshot of the tracked subscriptions.
func (s *Session) Rooms() []RoomSubscription {
	return s.rooms.snapshot()
}

// OnStatus registers the status callback. Must be called before Start.
func (s *Session) OnStatus(fn StatusFunc) {
	s.statusFn = fn
}

// Notify registers a passive subscriber for every tracked room.
// Events originated by the local user are suppressed.
func (s *Session) Notify(h EventHandler) {
	s.router.subscribe(&subscriber{handler: h, filterSelf: true})
}

// Watch registers an active subscriber for a single trade room. No
// self-filtering applies; the view renders its own sent messages via a
// local echo.
func (s *Session) Watch(tradeId int, h EventHandler) {
	s.router.subscribe(&subscriber{handler: h, tradeId: tradeId})
}

// Start seeds room membership and brings up the connection. Calling
// Start more than once, or after Stop, is a no-op.
func (s *Session) Start(tradeIds []int) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}

	select {
	case <-s.stopChan:
		s.doneOnce.Do(func() { close(s.done) })
		return
	default:
	}

	for _, id := range tradeIds {
		s.rooms.track(id)
	}

	go s.run()
}

// Stop tears the session down: it cancels any pending reconnect,
// best-effort leaves joined rooms, closes the transport and renders
// stale timers inert. Stop is idempotent and must not be called from
// an event handler.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		s.gen.Add(1)
		close(s.stopChan)

		// With no run loop there is nothing to wind down.
		if !s.started.Load() {
			s.doneOnce.Do(func() { close(s.done) })
		}
	})

	<-s.done
}

// RequestJoin tracks the trade room and joins it immediately when
// connected; otherwise the join is replayed once the connection opens.
func (s *Session) RequestJoin(tradeId int) {
	select {
	case s.joinChan <- tradeId:
	case <-s.done:
	}
}

// RequestLeave leaves the trade room and stops tracking it.
func (s *Session) RequestLeave(tradeId int) {
	select {
	case s.leaveChan <- tradeId:
	case <-s.done:
	}
}

// SendMessage sends a chat message to the currently joined room. It
// reports delivery to the transport; false means the session is not
// connected.
func (s *Session) SendMessage(body string) bool {
	req := &sendReq{body: body, ok: make(chan bool, 1)}

	select {
	case s.sendChan <- req:
	case <-s.done:
		return false
	}

	select {
	case ok := <-req.ok:
		return ok
	case <-s.done:
		return false
	}
}

func (s *Session) run() {
	defer s.doneOnce.Do(func() { close(s.done) })

	var (
		reconnectTimer *time.Timer
		timerGen       uint64
	)

	s.setState(StateConnecting, "Connecting to chat server...")
	s.transport.Connect()

	for {
		var timerC <-chan time.Time
		if reconnectTimer != nil {
			timerC = reconnectTimer.C
		}

		select {
		case ev := <-s.transport.Events():
			switch ev.Type {
			case TransportOpened:
				s.handleOpened()
			case TransportFrame:
				s.handleFrame(ev.Frame)
			case TransportErrored:
				s.log.Printf("session %s: transport error: %v", s.id, ev.Err)
			case TransportClosed:
				if reconnectTimer != nil {
					// Reconnect already scheduled.
					continue
				}
				delay := s.handleClosed()
				reconnectTimer = time.NewTimer(delay)
				timerGen = s.gen.Load()
			}
		case <-timerC:
			reconnectTimer = nil
			if timerGen != s.gen.Load() || s.State() >= StateOpen {
				continue
			}

			s.stats.Incr(MetricReconnects)
			s.setState(StateConnecting, "Reconnecting to chat server...")
			s.transport.Connect()
		case tradeId := <-s.joinChan:
			s.handleJoin(tradeId)
		case tradeId := <-s.leaveChan:
			s.handleLeave(tradeId)
		case req := <-s.sendChan:
			s.handleSend(req)
		case <-s.stopChan:
			if reconnectTimer != nil {
				reconnectTimer.Stop()
			}
			s.teardown()
			return
		}
	}
}

func (s *Session) handleOpened() {
	s.stats.Incr(MetricConnects)
	s.policy.Reset()

	// Membership is connection-scoped; every room must confirm again.
	s.rooms.resetJoined()
	s.setState(StateOpen, "Connected - joining trade rooms...")

	for _, tradeId := range s.rooms.ids() {
		if !s.sendFrame(JoinCommand(tradeId, s.userId)) {
			s.log.Printf("session %s: failed to send join for trade %d", s.id, tradeId)
		}
	}
}

func (s *Session) handleClosed() time.Duration {
	s.rooms.resetJoined()
	s.setState(StateDisconnected, "Disconnected from chat server")

	delay := s.policy.NextBackOff()
	s.log.Printf("session %s: reconnecting in %s", s.id, delay)

	return delay
}

func (s *Session) handleFrame(raw []byte) {
	s.stats.Incr(MetricFramesReceived)

	ev, err := s.router.decode(raw)
	if err != nil {
		s.stats.Incr(MetricDecodeErrors)
		s.log.Printf("session %s: decode: %v", s.id, err)
		return
	}
	if ev == nil {
		return
	}

	switch {
	case ev.Joined != nil:
		// A join confirmation for an unknown trade means the server
		// added us to a new room; start monitoring it.
		s.rooms.track(ev.Joined.TradeId)
		s.rooms.markJoined(ev.Joined.TradeId)
		if s.State() == StateOpen {
			s.setState(StateJoined, fmt.Sprintf("Connected to trade #%d chat", ev.Joined.TradeId))
		}
	case ev.Left != nil:
		s.rooms.markLeft(ev.Left.TradeId)
	case ev.Error != nil:
		s.log.Printf("session %s: server error: %s", s.id, ev.Error.Detail)
	}

	s.router.dispatch(ev)
}

func (s *Session) handleJoin(tradeId int) {
	s.rooms.track(tradeId)

	if s.State() >= StateOpen {
		s.sendFrame(JoinCommand(tradeId, s.userId))
	}
}

func (s *Session) handleLeave(tradeId int) {
	if s.rooms.joined(tradeId) {
		s.sendFrame(LeaveCommand(tradeId))
	}

	s.rooms.untrack(tradeId)
}

func (s *Session) handleSend(req *sendReq) {
	if s.State() < StateOpen {
		s.log.Printf("session %s: cannot send message, not connected", s.id)
		req.ok <- false
		return
	}

	ok := s.sendFrame(SendCommand(req.body))
	if ok {
		s.stats.Incr(MetricMessagesSent)
	}

	req.ok <- ok
}

func (s *Session) teardown() {
	for _, sub := range s.rooms.snapshot() {
		if sub.Joined {
			s.sendFrame(LeaveCommand(sub.TradeId))
		}
	}

	s.transport.Close()
	s.rooms.resetJoined()
	s.setState(StateDisconnected, "Disconnected from chat server")
	s.log.Printf("session %s: stopped", s.id)
}

func (s *Session) sendFrame(f *Frame) bool {
	raw, err := serializeFrame(f)
	if err != nil {
		s.log.Printf("session %s: serialize frame: %v", s.id, err)
		return false
	}

	return s.transport.Send(raw)
}

func (s *Session) setState(state ConnectionState, message string) {
	s.stateMu.Lock()
	changed := s.state != state
	s.state = state
	s.stateMu.Unlock()

	if changed && s.statusFn != nil {
		s.statusFn(state, message)
	}
}
