package session

import (
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait        = 10 * time.Second
	handshakeTimeout = 10 * time.Second
	maxMessageSize   = 1024
)

type TransportEventType int

const (
	TransportOpened TransportEventType = iota
	TransportFrame
	TransportErrored
	TransportClosed
)

// TransportEvent is one observable transition of the underlying
// connection: opened, frame-received, errored or closed.
type TransportEvent struct {
	Type  TransportEventType
	Frame []byte
	Err   error
}

// Transport owns exactly one websocket connection. It has no protocol
// knowledge; it dials, pumps raw frames and reports lifecycle events.
// It never reconnects on its own.
type Transport struct {
	url    string
	log    *log.Logger
	dialer *websocket.Dialer
	events chan TransportEvent

	mu         sync.Mutex
	conn       *websocket.Conn
	connecting bool
	closed     bool
}

func NewTransport(url string, logger *log.Logger) *Transport {
	return &Transport{
		url:    url,
		log:    logger,
		dialer: &websocket.Dialer{HandshakeTimeout: handshakeTimeout},
		events: make(chan TransportEvent, 64),
	}
}

func (t *Transport) Events() <-chan TransportEvent {
	return t.events
}

// Connect starts a dial unless one is already in flight, a connection
// is open or the transport has been closed, in which case it is a
// no-op.
func (t *Transport) Connect() {
	t.mu.Lock()
	if t.connecting || t.conn != nil || t.closed {
		t.mu.Unlock()
		return
	}
	t.connecting = true
	t.mu.Unlock()

	go t.dial()
}

func (t *Transport) dial() {
	conn, _, err := t.dialer.Dial(t.url, nil)

	t.mu.Lock()
	t.connecting = false
	if err != nil {
		t.mu.Unlock()
		t.log.Printf("ws: dial %s: %v", t.url, err)
		t.emit(TransportEvent{Type: TransportErrored, Err: err})
		t.emit(TransportEvent{Type: TransportClosed})
		return
	}
	if t.closed {
		// Close raced the dial; discard the late connection.
		t.mu.Unlock()
		conn.Close()
		t.log.Println("ws: discarding connection established after close")
		return
	}
	t.conn = conn
	t.mu.Unlock()

	conn.SetReadLimit(maxMessageSize)
	t.emit(TransportEvent{Type: TransportOpened})

	go t.read(conn)
}

func (t *Transport) read(conn *websocket.Conn) {
	defer func() {
		t.detach(conn)
		t.emit(TransportEvent{Type: TransportClosed})
		t.log.Println("ws: read exiting")
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				t.log.Printf("ws: read: %v", err)
				t.emit(TransportEvent{Type: TransportErrored, Err: err})
			}
			return
		}

		t.emit(TransportEvent{Type: TransportFrame, Frame: raw})
	}
}

// emit queues an event for the consumer. Frames and errors are
// best-effort and dropped under backpressure; opened and closed events
// must always arrive or the consumer loses track of the connection, so
// they evict the oldest queued event until they fit.
func (t *Transport) emit(ev TransportEvent) {
	switch ev.Type {
	case TransportOpened, TransportClosed:
		for {
			select {
			case t.events <- ev:
				return
			default:
			}

			select {
			case <-t.events:
				t.log.Println("ws: event channel full, evicting oldest event")
			default:
			}
		}
	default:
		select {
		case t.events <- ev:
		default:
			t.log.Println("ws: event channel full, dropping event")
		}
	}
}

// Send writes one frame to the connection. It reports failure as a
// boolean so sends racing a disconnect stay non-fatal to the caller.
func (t *Transport) Send(raw []byte) bool {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		t.log.Println("ws: cannot send, not connected")
		return false
	}

	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, raw); err != nil {
		if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure,
			websocket.CloseNormalClosure) {
			t.log.Printf("ws: write message: %s", err)
		}
		return false
	}

	return true
}

// detach tears down one connection after its read pump exits, leaving
// the transport reusable for the next Connect.
func (t *Transport) detach(conn *websocket.Conn) {
	t.mu.Lock()
	defer t.mu.Unlock()

	conn.Close()
	if t.conn == conn {
		t.conn = nil
	}
}

// Close shuts the transport down for good: it closes the current
// connection, discards any dial still in flight and refuses further
// Connect calls. Close is idempotent.
func (t *Transport) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true
	if t.conn != nil {
		t.conn.Close()
		t.conn = nil
	}
}
