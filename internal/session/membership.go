package session

import (
	"sort"
	"sync"
)

// RoomSubscription tracks one trade room the client should be joined
// to. Joined flips to true only after the server confirms and is reset
// on every disconnect; membership is connection-scoped.
type RoomSubscription struct {
	TradeId int
	Joined  bool
}

type roomSet struct {
	mu    sync.RWMutex
	rooms map[int]*RoomSubscription
}

func newRoomSet() *roomSet {
	return &roomSet{
		rooms: make(map[int]*RoomSubscription),
	}
}

// track adds a subscription for the trade. It reports whether the room
// was newly added; tracking an already-tracked room is a no-op.
func (rs *roomSet) track(tradeId int) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if _, ok := rs.rooms[tradeId]; ok {
		return false
	}

	rs.rooms[tradeId] = &RoomSubscription{TradeId: tradeId}
	return true
}

func (rs *roomSet) untrack(tradeId int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	delete(rs.rooms, tradeId)
}

func (rs *roomSet) tracked(tradeId int) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	_, ok := rs.rooms[tradeId]
	return ok
}

// markJoined records a server-confirmed join. It reports whether the
// room is tracked.
func (rs *roomSet) markJoined(tradeId int) bool {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	sub, ok := rs.rooms[tradeId]
	if !ok {
		return false
	}

	sub.Joined = true
	return true
}

func (rs *roomSet) markLeft(tradeId int) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if sub, ok := rs.rooms[tradeId]; ok {
		sub.Joined = false
	}
}

func (rs *roomSet) joined(tradeId int) bool {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	sub, ok := rs.rooms[tradeId]
	return ok && sub.Joined
}

// resetJoined forces every subscription back to unjoined. Called on
// every disconnect so membership is replayed on the next connection.
func (rs *roomSet) resetJoined() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	for _, sub := range rs.rooms {
		sub.Joined = false
	}
}

func (rs *roomSet) ids() []int {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	ids := make([]int, 0, len(rs.rooms))
	for id := range rs.rooms {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	return ids
}

func (rs *roomSet) snapshot() []RoomSubscription {
	rs.mu.RLock()
	defer rs.mu.RUnlock()

	subs := make([]RoomSubscription, 0, len(rs.rooms))
	for _, sub := range rs.rooms {
		subs = append(subs, *sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].TradeId < subs[j].TradeId })

	return subs
}
