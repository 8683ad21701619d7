package quota_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"voicetrans/internal/quota"
	"voicetrans/internal/storage"
)

// limitSubstrate accepts any value up to limit bytes and rejects larger ones.
type limitSubstrate struct {
	*storage.Memory
	limit  int64
	writes atomic.Int64
	fail   error
}

func newLimitSubstrate(limit int64) *limitSubstrate {
	return &limitSubstrate{Memory: storage.NewMemory(0), limit: limit}
}

func (s *limitSubstrate) Set(ctx context.Context, key, value string) error {
	s.writes.Add(1)
	if s.fail != nil {
		return s.fail
	}
	if int64(len(value)) > s.limit {
		return storage.ErrQuotaExceeded
	}
	return s.Memory.Set(ctx, key, value)
}

const mib = 1024 * quota.KB

func TestProbeFindsLimitWithinTolerance(t *testing.T) {
	sub := newLimitSubstrate(3 * mib)
	p := quota.New(sub)

	got := p.Probe(context.Background())
	if got < 3*mib || got >= 3*mib+quota.KB {
		t.Fatalf("Probe = %d, want in [%d, %d)", got, 3*mib, 3*mib+quota.KB)
	}
	keys, _ := sub.Keys(context.Background())
	if len(keys) != 0 {
		t.Fatalf("probe payload left behind: %v", keys)
	}
}

func TestProbeReturnsZeroWhenNothingFits(t *testing.T) {
	sub := newLimitSubstrate(10 * quota.KB)
	p := quota.New(sub)

	if got := p.Probe(context.Background()); got != 0 {
		t.Fatalf("Probe = %d, want 0", got)
	}
	if v, ok := p.Cached(); !ok || v != 0 {
		t.Fatalf("Cached = %d %v, want 0 true", v, ok)
	}
}

func TestProbeTreatsErrorsAsNotFitting(t *testing.T) {
	sub := newLimitSubstrate(100 * mib)
	sub.fail = errors.New("disk on fire")
	p := quota.New(sub)

	if got := p.Probe(context.Background()); got != 0 {
		t.Fatalf("Probe = %d, want 0", got)
	}
}

func TestProbeAgainstMemoryCapacity(t *testing.T) {
	sub := storage.NewMemory(600 * quota.KB)
	p := quota.New(sub, quota.WithProbeKey("k"))

	got := p.Probe(context.Background())
	// The key counts against capacity, so the largest payload is one byte short.
	want := 600*quota.KB - 1
	if got > want || got <= want-quota.KB {
		t.Fatalf("Probe = %d, want within 1KB below %d", got, want)
	}
}

func TestCachedEmptyBeforeProbe(t *testing.T) {
	p := quota.New(newLimitSubstrate(mib))
	if _, ok := p.Cached(); ok {
		t.Fatal("Cached reported a value before probing")
	}
}

func TestProbeRunsOnce(t *testing.T) {
	reference := newLimitSubstrate(3 * mib)
	quota.New(reference).Probe(context.Background())
	perProbe := reference.writes.Load()

	sub := newLimitSubstrate(3 * mib)
	p := quota.New(sub)

	var wg sync.WaitGroup
	results := make([]int64, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = p.Probe(context.Background())
		}(i)
	}
	wg.Wait()
	p.Probe(context.Background())

	for i, v := range results {
		if v != results[0] {
			t.Fatalf("caller %d got %d, caller 0 got %d", i, v, results[0])
		}
	}
	if got := sub.writes.Load(); got != perProbe {
		t.Fatalf("writes = %d, want %d (a single probe)", got, perProbe)
	}
}

func TestProbeIgnoresCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := quota.New(newLimitSubstrate(mib))
	if got := p.Probe(ctx); got < mib {
		t.Fatalf("Probe = %d, want at least %d", got, mib)
	}
}

func TestStartPopulatesCache(t *testing.T) {
	p := quota.New(newLimitSubstrate(2*mib), quota.WithSizes([]int64{quota.KB, mib}), quota.WithTolerance(4*quota.KB))
	p.Start(context.Background())

	// Bisection runs on [1MiB, 2MiB] and never tests the upper bound itself.
	got := p.Probe(context.Background())
	if got <= 2*mib-4*quota.KB || got >= 2*mib {
		t.Fatalf("Probe = %d, want in (%d, %d)", got, 2*mib-4*quota.KB, 2*mib)
	}
	if v, ok := p.Cached(); !ok || v != got {
		t.Fatalf("Cached = %d %v, want %d true", v, ok, got)
	}
}
