package session

import (
	"testing"

	"github.com/alphaseven/escrow-chat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(t *testing.T, userId int, trackedTrades ...int) *router {
	rooms := newRoomSet()
	for _, id := range trackedTrades {
		rooms.track(id)
	}

	return newRouter(userId, rooms, testutil.TestLogger(t))
}

func Test_decode(t *testing.T) {
	rt := newTestRouter(t, 42, 7)

	tcases := []struct {
		name    string
		raw     string
		err     bool
		verify  func(t *testing.T, ev *Event)
		dropped bool
	}{
		{
			name: "joined frame",
			raw:  `{"action":"joined","trade_id":7}`,
			verify: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Joined, "expected joined event")
				assert.Equal(t, 7, ev.Joined.TradeId, "expected trade id to match")
			},
		},
		{
			name: "left frame",
			raw:  `{"action":"left","trade_id":7}`,
			verify: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Left, "expected left event")
				assert.Equal(t, 7, ev.Left.TradeId, "expected trade id to match")
			},
		},
		{
			name: "message frame for tracked trade",
			raw:  `{"action":"message","trade_id":7,"sender_id":99,"sender_name":"Bob","message":"hi"}`,
			verify: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Message, "expected message event")
				assert.Equal(t, 7, ev.Message.TradeId, "expected trade id to match")
				assert.Equal(t, 99, ev.Message.SenderId, "expected sender id to match")
				assert.Equal(t, "Bob", ev.Message.SenderName, "expected sender name to match")
				assert.Equal(t, "hi", ev.Message.Body, "expected body to match")
			},
		},
		{
			name:    "message frame for untracked trade",
			raw:     `{"action":"message","trade_id":999,"sender_id":99,"message":"hi"}`,
			dropped: true,
		},
		{
			name: "error frame without action",
			raw:  `{"error":"room is full"}`,
			verify: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Error, "expected error event")
				assert.Equal(t, "room is full", ev.Error.Detail, "expected error detail to match")
			},
		},
		{
			name: "unknown action with error field",
			raw:  `{"action":"kicked","error":"banned"}`,
			verify: func(t *testing.T, ev *Event) {
				require.NotNil(t, ev.Error, "expected error event for unknown action carrying an error field")
				assert.Equal(t, "banned", ev.Error.Detail, "expected error detail to match")
			},
		},
		{
			name: "missing action",
			raw:  `{"trade_id":7}`,
			err:  true,
		},
		{
			name: "unknown action",
			raw:  `{"action":"presence","trade_id":7}`,
			err:  true,
		},
		{
			name: "malformed json",
			raw:  `{"action":`,
			err:  true,
		},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			ev, err := rt.decode([]byte(tc.raw))
			if tc.err {
				assert.Error(t, err, "expected decode error for frame: %s", tc.raw)
				assert.Nil(t, ev, "expected no event on decode error")
				return
			}

			assert.NoError(t, err, "expected no decode error for frame: %s", tc.raw)
			if tc.dropped {
				assert.Nil(t, ev, "expected frame to be dropped")
				return
			}

			require.NotNil(t, ev, "expected an event")
			tc.verify(t, ev)
		})
	}
}

func Test_dispatchSelfFiltering(t *testing.T) {
	rt := newTestRouter(t, 42, 7)

	var notified []*Event
	rt.subscribe(&subscriber{
		handler:    func(ev *Event) { notified = append(notified, ev) },
		filterSelf: true,
	})

	var watched []*Event
	rt.subscribe(&subscriber{
		handler: func(ev *Event) { watched = append(watched, ev) },
		tradeId: 7,
	})

	// A message from another user reaches both subscribers.
	rt.dispatch(&Event{Message: &MessageEvent{TradeId: 7, SenderId: 99, Body: "hi"}})
	assert.Len(t, notified, 1, "expected notifier to receive message from other user")
	assert.Len(t, watched, 1, "expected watcher to receive message from other user")

	// A self-originated message is suppressed for the notifier only.
	rt.dispatch(&Event{Message: &MessageEvent{TradeId: 7, SenderId: 42, Body: "mine"}})
	assert.Len(t, notified, 1, "expected notifier to never receive self-originated messages")
	assert.Len(t, watched, 2, "expected watcher to receive self-originated messages")
}

func Test_dispatchRoomScoping(t *testing.T) {
	rt := newTestRouter(t, 42, 7, 9)

	var events []*Event
	rt.subscribe(&subscriber{
		handler: func(ev *Event) { events = append(events, ev) },
		tradeId: 7,
	})

	rt.dispatch(&Event{Message: &MessageEvent{TradeId: 9, SenderId: 99}})
	rt.dispatch(&Event{Joined: &JoinedEvent{TradeId: 9}})
	rt.dispatch(&Event{Left: &LeftEvent{TradeId: 9}})
	assert.Empty(t, events, "expected no events for other rooms")

	rt.dispatch(&Event{Joined: &JoinedEvent{TradeId: 7}})
	rt.dispatch(&Event{Message: &MessageEvent{TradeId: 7, SenderId: 99}})
	assert.Len(t, events, 2, "expected events for the watched room")

	// Server errors carry no room and reach every subscriber.
	rt.dispatch(&Event{Error: &ErrorEvent{Detail: "oops"}})
	assert.Len(t, events, 3, "expected error events to reach room-scoped subscribers")
}
