package scanner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/netip"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"randscan/port"
)

const (
	DefaultTimeout     = time.Second
	DefaultConcurrency = 100

	// maxExhaustedBackoff caps the wait before retrying a port whose probe
	// failed for lack of local descriptors.
	maxExhaustedBackoff = 250 * time.Millisecond
)

var (
	ErrNoTarget       = errors.New("missing target ip")
	ErrNoPorts        = errors.New("no ports to scan")
	ErrBadPorts       = errors.New("invalid port list")
	ErrBadTimeout     = errors.New("timeout must be positive")
	ErrBadConcurrency = errors.New("concurrency must be positive")
)

// Config contains runtime configuration for the Manager.
type Config struct {
	Target      string // display name; defaults to IP
	IP          netip.Addr
	Ports       []uint16 // each in [port.Min, port.Max], no duplicates
	Timeout     time.Duration
	Concurrency int
	Seed        uint64 // 0 picks a random permutation
}

// Validate reports the first configuration problem that makes a scan
// impossible.
func (c Config) Validate() error {
	if !c.IP.IsValid() {
		return fmt.Errorf("invalid manager config: %w", ErrNoTarget)
	}
	if len(c.Ports) == 0 {
		return fmt.Errorf("invalid manager config: %w", ErrNoPorts)
	}
	var seen [(port.Max + 1) / 64]uint64
	for _, p := range c.Ports {
		if p < port.Min {
			return fmt.Errorf("invalid manager config: %w (port %d out of range)", ErrBadPorts, p)
		}
		word, bit := p/64, uint64(1)<<(p%64)
		if seen[word]&bit != 0 {
			return fmt.Errorf("invalid manager config: %w (duplicate port %d)", ErrBadPorts, p)
		}
		seen[word] |= bit
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("invalid manager config: %w (got %s)", ErrBadTimeout, c.Timeout)
	}
	if c.Concurrency <= 0 {
		return fmt.Errorf("invalid manager config: %w (got %d)", ErrBadConcurrency, c.Concurrency)
	}
	return nil
}

// ProgressSink receives a progress event after every recorded probe.
// Events are delivered from a single goroutine, in recording order.
type ProgressSink interface {
	OnProgress(Progress)
}

// ProgressFunc adapts a function to ProgressSink.
type ProgressFunc func(Progress)

func (f ProgressFunc) OnProgress(p Progress) { f(p) }

// Option customizes a Manager.
type Option func(*Manager)

// WithProber replaces the TCP connect prober.
func WithProber(p Prober) Option {
	return func(m *Manager) { m.prober = p }
}

// WithProgress attaches a progress sink.
func WithProgress(s ProgressSink) Option {
	return func(m *Manager) { m.progress = s }
}

// WithLogger replaces the manager's logger.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// Manager runs one randomized scan per Run call.
type Manager struct {
	cfg      Config
	prober   Prober
	progress ProgressSink
	logger   zerolog.Logger
}

// NewManager creates a new Manager with the provided config.
func NewManager(cfg Config, opts ...Option) *Manager {
	m := &Manager{
		cfg:    cfg,
		prober: TCPProber{},
		logger: log.With().Str("component", "scanner").Logger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Run probes every configured port exactly once in random order, with at
// most Concurrency probes in flight, and returns the aggregated result.
//
// Configuration errors are returned before any probing. Per-port failures
// never abort the scan. If ctx is canceled, no new probes are launched,
// in-flight probes are abandoned without being recorded, and the partial
// result is returned with Canceled set.
func (m *Manager) Run(ctx context.Context) (Result, error) {
	if err := m.cfg.Validate(); err != nil {
		return Result{}, err
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	set := port.NewSet(m.cfg.Ports, m.rng())
	col := NewCollector(set.Len())
	id := uuid.NewString()
	target := m.cfg.Target
	if target == "" {
		target = m.cfg.IP.String()
	}
	logger := m.logger.With().Str("scan_id", id).Str("ip", m.cfg.IP.String()).Logger()

	workers := min(m.cfg.Concurrency, set.Len())
	logger.Info().Int("ports", set.Len()).Int("concurrency", workers).
		Dur("timeout", m.cfg.Timeout).Msg("scan started")

	start := time.Now()
	outcomes := make(chan port.Outcome, workers)
	sem := semaphore.NewWeighted(int64(workers))

	// dispatcher: one probe per free slot until the set is exhausted or the
	// scan is canceled, then close outcomes once every probe has returned.
	go func() {
		var wg sync.WaitGroup
		defer func() {
			wg.Wait()
			close(outcomes)
		}()
		for {
			if err := sem.Acquire(ctx, 1); err != nil {
				return
			}
			if ctx.Err() != nil {
				sem.Release(1)
				return
			}
			p, ok := set.Take()
			if !ok {
				sem.Release(1)
				return
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				defer sem.Release(1)
				o := m.probe(ctx, p, logger)
				select {
				case outcomes <- o:
				case <-ctx.Done():
				}
			}()
		}
	}()

	for o := range outcomes {
		if ctx.Err() != nil {
			continue
		}
		prog, ok := col.Record(o)
		if !ok {
			continue
		}
		if o.State == port.StateError {
			logger.Debug().Uint16("port", o.Port).Str("reason", o.Reason).Msg("probe error")
		}
		if m.progress != nil {
			m.progress.OnProgress(prog)
		}
	}

	res := col.Snapshot()
	res.ID = id
	res.Target = target
	res.IP = m.cfg.IP.String()
	res.Start = start
	res.End = time.Now()
	res.Canceled = ctx.Err() != nil && res.Probed < res.Total

	ev := logger.Info()
	if res.Canceled {
		ev = logger.Warn()
	}
	ev.Int("probed", res.Probed).Int("open", res.Open).Bool("canceled", res.Canceled).
		Dur("elapsed", res.Elapsed()).Msg("scan finished")
	return res, nil
}

// probe runs the prober, waiting and retrying the same port while the
// failure is local descriptor exhaustion.
func (m *Manager) probe(ctx context.Context, p uint16, logger zerolog.Logger) port.Outcome {
	backoff := min(m.cfg.Timeout, maxExhaustedBackoff)
	for {
		o := m.prober.Probe(ctx, m.cfg.IP, p, m.cfg.Timeout)
		if !IsResourceExhausted(o) {
			return o
		}
		logger.Debug().Uint16("port", p).Msg("out of descriptors, retrying")
		select {
		case <-ctx.Done():
			return o
		case <-time.After(backoff):
		}
	}
}

func (m *Manager) rng() *rand.Rand {
	if m.cfg.Seed == 0 {
		return nil
	}
	return rand.New(rand.NewPCG(m.cfg.Seed, m.cfg.Seed^0x9e3779b97f4a7c15))
}
