package quota

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"voicetrans/internal/logging"
	"voicetrans/internal/storage"
)

// KB is the unit probe sizes are expressed in.
const KB int64 = 1024

const (
	// DefaultTolerance stops the bisection once the feasible interval is narrower than this.
	DefaultTolerance = KB
	// DefaultProbeKey is the substrate key used for throwaway payloads.
	DefaultProbeKey = "__voicetrans_quota_probe__"

	flightKey = "probe"
)

// DefaultSizes are the payload sizes tried, in order, before bisecting.
var DefaultSizes = []int64{100 * KB, 500 * KB, 1024 * KB, 2048 * KB, 5120 * KB, 10240 * KB, 20480 * KB}

// Prober measures and caches the capacity of a substrate.
type Prober struct {
	substrate storage.Substrate
	sizes     []int64
	tolerance int64
	key       string
	logger    *slog.Logger

	group  singleflight.Group
	result atomic.Pointer[int64]
}

// Option customizes a Prober.
type Option func(*Prober)

// WithSizes overrides the ascending payload sizes of the exponential phase.
func WithSizes(sizes []int64) Option {
	return func(p *Prober) {
		if len(sizes) > 0 {
			p.sizes = append([]int64(nil), sizes...)
		}
	}
}

// WithTolerance overrides the bisection stopping width.
func WithTolerance(tolerance int64) Option {
	return func(p *Prober) {
		if tolerance > 0 {
			p.tolerance = tolerance
		}
	}
}

// WithProbeKey overrides the key throwaway payloads are written under.
func WithProbeKey(key string) Option {
	return func(p *Prober) {
		if strings.TrimSpace(key) != "" {
			p.key = key
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Prober) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// New constructs a Prober for substrate. Nothing is probed until Start or Probe.
func New(substrate storage.Substrate, opts ...Option) *Prober {
	p := &Prober{
		substrate: substrate,
		sizes:     DefaultSizes,
		tolerance: DefaultTolerance,
		key:       DefaultProbeKey,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.NewComponentLogger(p.logger, "quota")
	return p
}

// Cached returns the probed capacity without blocking. The boolean is false
// until a probe has completed.
func (p *Prober) Cached() (int64, bool) {
	if v := p.result.Load(); v != nil {
		return *v, true
	}
	return 0, false
}

// Start launches the probe in the background and returns immediately.
func (p *Prober) Start(ctx context.Context) {
	if _, ok := p.Cached(); ok {
		return
	}
	go p.Probe(ctx)
}

// Probe returns the substrate capacity in bytes, measuring it on first use.
// Zero means no probe size fit. Cancelling ctx does not abort a running probe.
func (p *Prober) Probe(ctx context.Context) int64 {
	if v, ok := p.Cached(); ok {
		return v
	}
	ctx = context.WithoutCancel(ctx)
	v, _, _ := p.group.Do(flightKey, func() (any, error) {
		if cached, ok := p.Cached(); ok {
			return cached, nil
		}
		measured := p.measure(ctx)
		p.result.Store(&measured)
		return measured, nil
	})
	return v.(int64)
}

func (p *Prober) measure(ctx context.Context) int64 {
	start := time.Now()
	var low int64
	for _, size := range p.sizes {
		if !p.fits(ctx, size) {
			break
		}
		low = size
	}
	if low == 0 {
		logging.WarnWithContext(p.logger, "quota probe found no working size", "quota_probe_failed",
			logging.Int64("smallest_bytes", p.smallest()),
			logging.String(logging.FieldErrorHint, "check storage backend capacity and permissions"),
			logging.String(logging.FieldImpact, "storage usage will be reported as unavailable"),
		)
		return 0
	}

	high := low * 2
	for high-low >= p.tolerance {
		mid := low + (high-low)/2
		if p.fits(ctx, mid) {
			low = mid
		} else {
			high = mid
		}
	}

	p.logger.Info("quota probed",
		logging.Int64(logging.FieldBytes, low),
		logging.Duration("elapsed", time.Since(start)),
	)
	return low
}

// fits reports whether a payload of size bytes can be written and removed.
func (p *Prober) fits(ctx context.Context, size int64) bool {
	payload := strings.Repeat("x", int(size))
	if err := p.substrate.Set(ctx, p.key, payload); err != nil {
		p.logger.Debug("probe write rejected", logging.Int64(logging.FieldBytes, size), logging.Error(err))
		return false
	}
	if err := p.substrate.Delete(ctx, p.key); err != nil {
		p.logger.Debug("probe cleanup failed", logging.Int64(logging.FieldBytes, size), logging.Error(err))
		return false
	}
	return true
}

func (p *Prober) smallest() int64 {
	if len(p.sizes) == 0 {
		return 0
	}
	return p.sizes[0]
}
