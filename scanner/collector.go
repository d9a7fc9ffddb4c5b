package scanner

import (
	"slices"
	"sync"
	"time"

	"randscan/port"
)

// Result is the aggregate outcome of one scan.
type Result struct {
	ID        string    `json:"id" yaml:"id"`
	Target    string    `json:"target" yaml:"target"`
	IP        string    `json:"ip" yaml:"ip"`
	Start     time.Time `json:"start" yaml:"start"`
	End       time.Time `json:"end" yaml:"end"`
	Total     int       `json:"total" yaml:"total"`
	Probed    int       `json:"probed" yaml:"probed"`
	Open      int       `json:"open" yaml:"open"`
	OpenPorts []uint16  `json:"open_ports" yaml:"open_ports"`
	Closed    int       `json:"closed" yaml:"closed"`
	TimedOut  int       `json:"timed_out" yaml:"timed_out"`
	Errors    int       `json:"errors" yaml:"errors"`
	Canceled  bool      `json:"canceled" yaml:"canceled"`
}

// Elapsed is the wall time between start and end.
func (r Result) Elapsed() time.Duration { return r.End.Sub(r.Start) }

// Progress is emitted after every recorded probe.
type Progress struct {
	Port    uint16
	State   port.State
	Probed  int
	Total   int
	Percent int
	Open    int
}

// Collector aggregates probe outcomes. It is safe for concurrent use.
type Collector struct {
	mu       sync.Mutex
	total    int
	recorded [(port.Max + 1) / 64]uint64 // one bit per port
	open     []uint16
	probed   int
	closed   int
	timedOut int
	errs     int
}

// NewCollector creates a collector for a scan over total ports.
func NewCollector(total int) *Collector {
	return &Collector{total: total}
}

// Record adds one outcome and returns the resulting progress event.
// A port is counted at most once; repeated outcomes for the same port are
// ignored and reported with ok == false.
func (c *Collector) Record(o port.Outcome) (Progress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	word, bit := o.Port/64, uint64(1)<<(o.Port%64)
	if c.recorded[word]&bit != 0 {
		return c.progressLocked(o), false
	}
	c.recorded[word] |= bit
	c.probed++

	switch {
	case o.State.IsOpen():
		c.open = append(c.open, o.Port)
	case o.State == port.StateClosed:
		c.closed++
	case o.State == port.StateTimedOut:
		c.timedOut++
	default:
		c.errs++
	}
	return c.progressLocked(o), true
}

func (c *Collector) progressLocked(o port.Outcome) Progress {
	pct := 100
	if c.total > 0 {
		pct = c.probed * 100 / c.total
	}
	return Progress{
		Port:    o.Port,
		State:   o.State,
		Probed:  c.probed,
		Total:   c.total,
		Percent: pct,
		Open:    len(c.open),
	}
}

// Snapshot returns the current counts and the open ports in ascending order.
// Run metadata (ID, target, timestamps) is left for the caller to fill in.
func (c *Collector) Snapshot() Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	open := slices.Clone(c.open)
	slices.Sort(open)
	if open == nil {
		open = []uint16{}
	}
	return Result{
		Total:     c.total,
		Probed:    c.probed,
		Open:      len(open),
		OpenPorts: open,
		Closed:    c.closed,
		TimedOut:  c.timedOut,
		Errors:    c.errs,
	}
}
