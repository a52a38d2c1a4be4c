package session

import (
	"time"

	"github.com/cenkalti/backoff/v4"
)

const defaultReconnectDelay = 3 * time.Second

// ReconnectPolicy decides how long to wait before the next dial after
// the connection closes. Reset is called after every successful open.
type ReconnectPolicy interface {
	NextBackOff() time.Duration
	Reset()
}

// NewFixedReconnect returns a policy with a constant delay between
// attempts.
func NewFixedReconnect(delay time.Duration) ReconnectPolicy {
	if delay <= 0 {
		delay = defaultReconnectDelay
	}

	return backoff.NewConstantBackOff(delay)
}

// NewBackoffReconnect returns an exponential backoff policy that never
// gives up; delays grow from initial up to max.
func NewBackoffReconnect(initial, max time.Duration) ReconnectPolicy {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = initial
	b.MaxInterval = max
	b.MaxElapsedTime = 0

	return b
}
