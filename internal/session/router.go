package session

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
)

// EventHandler receives dispatched events. Handlers run on the session
// loop goroutine and must not block.
type EventHandler func(ev *Event)

type subscriber struct {
	handler    EventHandler
	tradeId    int // 0 means all rooms
	filterSelf bool
}

// router decodes raw frames into events and dispatches them to
// registered subscribers. Malformed or unrecognized frames are dropped
// and reported as decode errors, never escalated.
type router struct {
	log    *log.Logger
	userId int
	rooms  *roomSet

	mu   sync.RWMutex
	subs []*subscriber
}

func newRouter(userId int, rooms *roomSet, logger *log.Logger) *router {
	return &router{
		log:    logger,
		userId: userId,
		rooms:  rooms,
	}
}

func (rt *router) subscribe(sub *subscriber) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.subs = append(rt.subs, sub)
}

// decode classifies a raw frame. A nil event with a nil error means
// the frame was valid but not interesting (e.g. a message for an
// untracked trade).
func (rt *router) decode(raw []byte) (*Event, error) {
	var f Frame
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse frame: %w", err)
	}

	switch f.Action {
	case actionJoined:
		return &Event{Joined: &JoinedEvent{TradeId: f.TradeId}}, nil
	case actionLeft:
		return &Event{Left: &LeftEvent{TradeId: f.TradeId}}, nil
	case actionMessage:
		if !rt.rooms.tracked(f.TradeId) {
			rt.log.Printf("dropping message for untracked trade %d", f.TradeId)
			return nil, nil
		}

		return &Event{Message: &MessageEvent{
			TradeId:    f.TradeId,
			SenderId:   f.SenderId,
			SenderName: f.SenderName,
			Body:       f.Message,
		}}, nil
	}

	if f.Error != "" {
		return &Event{Error: &ErrorEvent{Detail: f.Error}}, nil
	}

	if f.Action == "" {
		return nil, fmt.Errorf("frame missing action")
	}

	return nil, fmt.Errorf("unknown action %q", f.Action)
}

func (rt *router) dispatch(ev *Event) {
	rt.mu.RLock()
	defer rt.mu.RUnlock()

	for _, sub := range rt.subs {
		if rt.wants(sub, ev) {
			sub.handler(ev)
		}
	}
}

func (rt *router) wants(sub *subscriber, ev *Event) bool {
	if ev.Message != nil {
		if sub.filterSelf && ev.Message.SenderId == rt.userId {
			return false
		}
		if sub.tradeId != 0 && sub.tradeId != ev.Message.TradeId {
			return false
		}
	}

	if sub.tradeId != 0 {
		if ev.Joined != nil && ev.Joined.TradeId != sub.tradeId {
			return false
		}
		if ev.Left != nil && ev.Left.TradeId != sub.tradeId {
			return false
		}
	}

	return true
}
