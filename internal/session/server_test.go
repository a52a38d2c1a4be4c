package session

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/websocket"
)

// chatServer is a minimal in-process chat backend for tests. It records
// every frame the client sends and, when autoJoin is set, confirms join
// requests the way the real server does.
type chatServer struct {
	t        *testing.T
	srv      *httptest.Server
	upgrader websocket.Upgrader
	autoJoin bool

	frames chan Frame

	mu       sync.Mutex
	conns    []*websocket.Conn
	upgrades int
}

func newChatServer(t *testing.T, autoJoin bool) *chatServer {
	cs := &chatServer{
		t:        t,
		autoJoin: autoJoin,
		frames:   make(chan Frame, 64),
	}

	cs.srv = httptest.NewServer(http.HandlerFunc(cs.handle))
	t.Cleanup(cs.srv.Close)

	return cs
}

func (cs *chatServer) handle(w http.ResponseWriter, r *http.Request) {
	conn, err := cs.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	cs.mu.Lock()
	cs.conns = append(cs.conns, conn)
	cs.upgrades++
	cs.mu.Unlock()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var f Frame
		if err := json.Unmarshal(raw, &f); err != nil {
			continue
		}

		cs.frames <- f

		if cs.autoJoin && f.Action == actionJoin {
			cs.write(conn, &Frame{Action: actionJoined, TradeId: f.TradeId})
		}
	}
}

func (cs *chatServer) url() string {
	return "ws" + strings.TrimPrefix(cs.srv.URL, "http")
}

func (cs *chatServer) write(conn *websocket.Conn, f *Frame) {
	raw, err := json.Marshal(f)
	if err != nil {
		cs.t.Error("marshal frame:", err)
		return
	}

	cs.mu.Lock()
	defer cs.mu.Unlock()
	conn.WriteMessage(websocket.TextMessage, raw)
}

// push sends a frame to the most recent client connection.
func (cs *chatServer) push(f *Frame) {
	cs.mu.Lock()
	conn := cs.conns[len(cs.conns)-1]
	cs.mu.Unlock()

	cs.write(conn, f)
}

// pushRaw sends an arbitrary payload, valid or not.
func (cs *chatServer) pushRaw(raw string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	conn := cs.conns[len(cs.conns)-1]
	conn.WriteMessage(websocket.TextMessage, []byte(raw))
}

// dropConns closes every client connection server-side to simulate a
// network failure.
func (cs *chatServer) dropConns() {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	for _, conn := range cs.conns {
		conn.Close()
	}
	cs.conns = nil
}

func (cs *chatServer) upgradeCount() int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	return cs.upgrades
}
