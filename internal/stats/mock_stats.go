package stats

import "github.com/stretchr/testify/mock"

// MockStatsUpdater is a testify mock of StatsProvider for asserting on
// the counters the session and presenter touch.
type MockStatsUpdater struct {
	mock.Mock
}

// ExpectAnyMetric allows every counter operation without asserting on
// specific names, for tests that only care about other behavior.
func (m *MockStatsUpdater) ExpectAnyMetric() *MockStatsUpdater {
	m.On("Incr", mock.Anything)
	m.On("Decr", mock.Anything)
	m.On("RegisterMetric", mock.Anything)

	return m
}

func (m *MockStatsUpdater) Incr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Decr(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) RegisterMetric(name string) {
	m.Called(name)
}
func (m *MockStatsUpdater) Run() {
	m.Called()
}
