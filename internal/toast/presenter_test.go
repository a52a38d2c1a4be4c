package toast

import (
	"sync"
	"testing"
	"time"

	"github.com/alphaseven/escrow-chat/internal/session"
	"github.com/alphaseven/escrow-chat/internal/stats"
	"github.com/alphaseven/escrow-chat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{
		EntranceDelay:   5 * time.Millisecond,
		DisplayDuration: 60 * time.Millisecond,
		ExitGrace:       20 * time.Millisecond,
	}
}

func newTestPresenter(t *testing.T, cfg Config) *Presenter {
	p := NewPresenter(cfg, stats.Noop{}, testutil.TestLogger(t))
	t.Cleanup(p.Stop)

	return p
}

func TestPresenterLifecycle(t *testing.T) {
	p := newTestPresenter(t, testConfig())

	p.Show(7, "Bob", "hi")

	active := p.Active()
	require.Len(t, active, 1, "expected one toast in the queue")
	assert.False(t, active[0].Visible, "expected toast to start hidden during the entrance delay")
	assert.Equal(t, 7, active[0].TradeId, "expected trade id to match")
	assert.Equal(t, "Bob", active[0].SenderName, "expected sender name to match")
	assert.Equal(t, "hi", active[0].Body, "expected body to match")

	require.Eventually(t, func() bool {
		active := p.Active()
		return len(active) == 1 && active[0].Visible
	}, time.Second, time.Millisecond, "expected toast to become visible after the entrance delay")

	require.Eventually(t, func() bool {
		return len(p.Active()) == 0
	}, time.Second, time.Millisecond, "expected toast to be removed after display duration plus exit grace")
}

func TestPresenterRemovalTiming(t *testing.T) {
	cfg := testConfig()
	p := newTestPresenter(t, cfg)

	start := time.Now()
	p.Show(7, "Bob", "hi")

	require.Eventually(t, func() bool {
		return len(p.Active()) == 0
	}, time.Second, time.Millisecond)
	elapsed := time.Since(start)

	minLifetime := cfg.EntranceDelay + cfg.DisplayDuration + cfg.ExitGrace
	assert.GreaterOrEqual(t, elapsed, minLifetime, "expected toast to live for the full display duration and exit grace")
}

func TestPresenterQueueOrder(t *testing.T) {
	cfg := testConfig()
	cfg.DisplayDuration = time.Second
	p := newTestPresenter(t, cfg)

	p.Show(7, "Bob", "first")
	p.Show(9, "Eve", "second")
	p.Show(7, "Bob", "third")

	active := p.Active()
	require.Len(t, active, 3, "expected all toasts queued")
	assert.Equal(t, []int64{1, 2, 3}, []int64{active[0].Id, active[1].Id, active[2].Id},
		"expected monotonic ids in insertion order")
	assert.Equal(t, "first", active[0].Body, "expected oldest toast first")
}

func TestPresenterEscapesText(t *testing.T) {
	cfg := testConfig()
	cfg.DisplayDuration = time.Second
	p := newTestPresenter(t, cfg)

	p.Show(7, `<b>Bob</b>`, `<script>alert("hi")</script>`)

	active := p.Active()
	require.Len(t, active, 1, "expected one toast")
	assert.Equal(t, "&lt;b&gt;Bob&lt;/b&gt;", active[0].SenderName, "expected sender name to be escaped")
	assert.NotContains(t, active[0].Body, "<script>", "expected body markup to be escaped")
}

func TestPresenterHandleEvent(t *testing.T) {
	cfg := testConfig()
	cfg.DisplayDuration = time.Second
	p := newTestPresenter(t, cfg)

	p.HandleEvent(&session.Event{Joined: &session.JoinedEvent{TradeId: 7}})
	p.HandleEvent(&session.Event{Error: &session.ErrorEvent{Detail: "oops"}})
	assert.Empty(t, p.Active(), "expected non-message events to produce no toasts")

	p.HandleEvent(&session.Event{Message: &session.MessageEvent{
		TradeId:    7,
		SenderId:   99,
		SenderName: "Bob",
		Body:       "hi",
	}})

	active := p.Active()
	require.Len(t, active, 1, "expected a toast for the message event")
	assert.Equal(t, "hi", active[0].Body, "expected body to match")
}

func TestPresenterTap(t *testing.T) {
	cfg := testConfig()
	cfg.DisplayDuration = time.Second

	var (
		mu        sync.Mutex
		navigated []int
	)
	cfg.OnNavigate = func(tradeId int) {
		mu.Lock()
		defer mu.Unlock()
		navigated = append(navigated, tradeId)
	}

	p := newTestPresenter(t, cfg)

	p.Show(7, "Bob", "hi")

	// A tap during the entrance delay is ignored.
	p.Tap(1)
	mu.Lock()
	assert.Empty(t, navigated, "expected no navigation before the toast is visible")
	mu.Unlock()

	require.Eventually(t, func() bool {
		active := p.Active()
		return len(active) == 1 && active[0].Visible
	}, time.Second, time.Millisecond)

	p.Tap(1)
	mu.Lock()
	assert.Equal(t, []int{7}, navigated, "expected tap to navigate to the toast's trade chat")
	mu.Unlock()

	// Tapping does not alter the lifecycle timers.
	active := p.Active()
	require.Len(t, active, 1, "expected toast to remain in the queue after tap")
	assert.True(t, active[0].Visible, "expected toast to remain visible after tap")

	// A tap on an unknown toast is ignored.
	p.Tap(99)
}

func TestPresenterOnChangeDeliversLatestSnapshotLast(t *testing.T) {
	var (
		mu   sync.Mutex
		last []Toast
	)
	cfg := testConfig()
	cfg.OnChange = func(active []Toast) {
		mu.Lock()
		defer mu.Unlock()
		last = append([]Toast(nil), active...)
	}
	p := newTestPresenter(t, cfg)

	// Overlapping lifecycles fire transitions from independent timer
	// goroutines.
	for i := 0; i < 5; i++ {
		p.Show(7, "Bob", "hi")
	}

	require.Eventually(t, func() bool {
		return len(p.Active()) == 0
	}, time.Second, time.Millisecond)

	// Let any in-flight deliveries finish.
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Empty(t, last, "expected the final rendered snapshot to show the empty queue, not a stale one")
}

func TestPresenterStop(t *testing.T) {
	cfg := testConfig()
	cfg.DisplayDuration = time.Second
	p := newTestPresenter(t, cfg)

	p.Show(7, "Bob", "hi")
	p.Show(9, "Eve", "yo")

	p.Stop()
	assert.Empty(t, p.Active(), "expected queue to be cleared on stop")

	// Late timer fires and new events against a stopped presenter are
	// no-ops.
	time.Sleep(20 * time.Millisecond)
	p.Show(7, "Bob", "again")
	assert.Empty(t, p.Active(), "expected no toasts after stop")

	p.Stop()
}

func TestPresenterIndependentLifecycles(t *testing.T) {
	cfg := testConfig()
	p := newTestPresenter(t, cfg)

	p.Show(7, "Bob", "first")
	time.Sleep(cfg.DisplayDuration / 2)
	p.Show(9, "Eve", "second")

	// The first toast expires while the second is still on screen.
	require.Eventually(t, func() bool {
		active := p.Active()
		return len(active) == 1 && active[0].Body == "second"
	}, time.Second, time.Millisecond, "expected the older toast to be removed first")

	require.Eventually(t, func() bool {
		return len(p.Active()) == 0
	}, time.Second, time.Millisecond, "expected the second toast to expire on its own schedule")
}
