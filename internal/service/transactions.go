package service

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"time"

	"github.com/solana-scout/internal/types"
)

const (
	// FrequencyUnknown is the frequency label when fewer than two timed records exist
	FrequencyUnknown = "N/A"

	sampleSize = 5
)

// SummarizeTransactions aggregates a newest-first signature history.
func SummarizeTransactions(records []types.SignatureRecord) types.TransactionSummary {
	summary := types.TransactionSummary{
		Recent:       len(records),
		AvgFrequency: FrequencyUnknown,
		Txns:         []types.TransactionSample{},
	}
	if len(records) == 0 {
		return summary
	}

	var oldest, newest time.Time
	timed, succeeded := 0, 0
	for _, r := range records {
		if !r.Failed {
			succeeded++
		}
		if r.BlockTime == nil {
			continue
		}
		t := *r.BlockTime
		if timed == 0 || t.Before(oldest) {
			oldest = t
		}
		if timed == 0 || t.After(newest) {
			newest = t
		}
		timed++
	}

	if timed > 0 {
		summary.Oldest = &oldest
		summary.Newest = &newest
	}

	if timed > 1 {
		if spanHours := newest.Sub(oldest).Hours(); spanHours > 0 {
			summary.TxPerDay = float64(timed) / spanHours * 24
			summary.AvgFrequency = FormatFrequency(summary.TxPerDay)
		}
	}

	pct := float64(succeeded) / float64(len(records)) * 100
	rounded := math.Round(pct*10) / 10
	summary.SuccessRate = fmt.Sprintf("%.1f%%", pct)
	summary.SuccessRatePct = &rounded

	n := len(records)
	if n > sampleSize {
		n = sampleSize
	}
	for _, r := range records[:n] {
		summary.Txns = append(summary.Txns, types.TransactionSample{
			Signature: r.Signature,
			Time:      r.BlockTime,
			Success:   !r.Failed,
		})
	}

	return summary
}

// FormatFrequency renders a per-day rate as "~N txns/day", or per week below one a day
func FormatFrequency(txPerDay float64) string {
	if txPerDay <= 0 || math.IsInf(txPerDay, 0) || math.IsNaN(txPerDay) {
		return FrequencyUnknown
	}
	if txPerDay >= 1 {
		return fmt.Sprintf("~%.1f txns/day", txPerDay)
	}
	return fmt.Sprintf("~%.1f txns/week", txPerDay*7)
}

var frequencyLabel = regexp.MustCompile(`~([\d.]+)\s+txns/(day|week)`)

// ParseFrequencyLabel converts a FormatFrequency label back to transactions per day.
// Unrecognised labels, including "N/A", yield 0.
func ParseFrequencyLabel(label string) float64 {
	m := frequencyLabel.FindStringSubmatch(label)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	if m[2] == "week" {
		return v / 7
	}
	return v
}
