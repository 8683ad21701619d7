package usage_test

import (
	"context"
	"testing"

	"voicetrans/internal/quota"
	"voicetrans/internal/storage"
	"voicetrans/internal/usage"
)

type fixedQuota struct {
	total int64
	ok    bool
}

func (q fixedQuota) Cached() (int64, bool) { return q.total, q.ok }

func TestUsageUnavailableBeforeProbe(t *testing.T) {
	sub := storage.NewMemory(2 << 20)
	prober := quota.New(sub)
	reporter := usage.New(sub, prober, nil)

	if _, ok := reporter.Usage(context.Background()); ok {
		t.Fatal("usage reported before any probe")
	}

	prober.Probe(context.Background())
	report, ok := reporter.Usage(context.Background())
	if !ok {
		t.Fatal("usage unavailable after probe")
	}
	if report.Used != 0 || report.Total <= 0 {
		t.Fatalf("report = %+v", report)
	}
}

func TestUsageUnavailableWhenQuotaZero(t *testing.T) {
	reporter := usage.New(storage.NewMemory(0), fixedQuota{total: 0, ok: true}, nil)
	if _, ok := reporter.Usage(context.Background()); ok {
		t.Fatal("usage reported for zero quota")
	}
}

func TestUsageCountsUTF16Units(t *testing.T) {
	ctx := context.Background()
	sub := storage.NewMemory(0)
	// 2*2 + 2*2, then 2*1 + 2*2 for the surrogate pair.
	_ = sub.Set(ctx, "ab", "你好")
	_ = sub.Set(ctx, "k", "😀")

	report, ok := usage.New(sub, fixedQuota{total: 1024, ok: true}, nil).Usage(ctx)
	if !ok {
		t.Fatal("usage unavailable")
	}
	if report.Used != 14 {
		t.Fatalf("Used = %d, want 14", report.Used)
	}
	if report.UsedFormatted != "14.00 B" || report.TotalFormatted != "1.00 KB" {
		t.Fatalf("formatted = %q / %q", report.UsedFormatted, report.TotalFormatted)
	}
}

func TestUsagePercentageClamped(t *testing.T) {
	ctx := context.Background()
	sub := storage.NewMemory(0)
	_ = sub.Set(ctx, "key", "a long value that outgrows the quota")

	report, ok := usage.New(sub, fixedQuota{total: 10, ok: true}, nil).Usage(ctx)
	if !ok {
		t.Fatal("usage unavailable")
	}
	if report.Percentage != 100 {
		t.Fatalf("Percentage = %v, want 100", report.Percentage)
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "0.00 B"},
		{1023, "1023.00 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{3 * 1024 * 1024, "3.00 MB"},
		{5 * 1024 * 1024 * 1024, "5.00 GB"},
		{2048 * 1024 * 1024 * 1024, "2048.00 GB"},
	}
	for _, tt := range tests {
		if got := usage.FormatBytes(tt.in); got != tt.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
