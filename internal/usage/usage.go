package usage

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf16"

	"voicetrans/internal/logging"
	"voicetrans/internal/storage"
)

// QuotaSource exposes a cached capacity. quota.Prober satisfies it.
type QuotaSource interface {
	Cached() (int64, bool)
}

// Report is a snapshot of substrate usage.
type Report struct {
	Used           int64   `json:"used"`
	Total          int64   `json:"total"`
	Percentage     float64 `json:"percentage"`
	UsedFormatted  string  `json:"usedFormatted"`
	TotalFormatted string  `json:"totalFormatted"`
}

// Reporter computes usage against the cached quota.
type Reporter struct {
	substrate storage.Substrate
	quota     QuotaSource
	logger    *slog.Logger
}

// New constructs a Reporter.
func New(substrate storage.Substrate, quota QuotaSource, logger *slog.Logger) *Reporter {
	return &Reporter{
		substrate: substrate,
		quota:     quota,
		logger:    logging.NewComponentLogger(logger, "usage"),
	}
}

// Usage returns the current report. The boolean is false when the quota has
// not been probed yet, probed as zero, or the substrate could not be read.
//
// Used counts two bytes per UTF-16 code unit of every key and value. It is a
// stable approximation, not the serialized size on disk.
func (r *Reporter) Usage(ctx context.Context) (Report, bool) {
	total, probed := r.quota.Cached()
	if !probed || total <= 0 {
		return Report{}, false
	}

	used, err := r.used(ctx)
	if err != nil {
		logging.WarnWithContext(r.logger, "usage unavailable", "usage_read_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "storage usage not reported"),
		)
		return Report{}, false
	}

	percentage := float64(used) / float64(total) * 100
	if percentage > 100 {
		percentage = 100
	}
	return Report{
		Used:           used,
		Total:          total,
		Percentage:     percentage,
		UsedFormatted:  FormatBytes(used),
		TotalFormatted: FormatBytes(total),
	}, true
}

func (r *Reporter) used(ctx context.Context) (int64, error) {
	keys, err := r.substrate.Keys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list keys: %w", err)
	}
	var used int64
	for _, key := range keys {
		value, found, err := r.substrate.Get(ctx, key)
		if err != nil {
			return 0, fmt.Errorf("read %q: %w", key, err)
		}
		if !found {
			continue
		}
		used += 2*utf16Len(key) + 2*utf16Len(value)
	}
	return used, nil
}

func utf16Len(s string) int64 {
	var n int64
	for _, r := range s {
		n += int64(utf16.RuneLen(r))
	}
	return n
}

var units = []string{"B", "KB", "MB", "GB"}

// FormatBytes renders n with two decimals in the largest unit that keeps the
// value below 1024, e.g. "1.50 KB".
func FormatBytes(n int64) string {
	value := float64(n)
	unit := 0
	for value >= 1024 && unit < len(units)-1 {
		value /= 1024
		unit++
	}
	return fmt.Sprintf("%.2f %s", value, units[unit])
}
