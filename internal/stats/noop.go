package stats

// Noop satisfies StatsProvider for clients that expose no debug
// listener.
type Noop struct{}

func (Noop) Incr(name string)           {}
func (Noop) Decr(name string)           {}
func (Noop) RegisterMetric(name string) {}
func (Noop) Run()                       {}
