package service

import (
	"fmt"
	"math"
	"time"

	"github.com/solana-scout/internal/types"
)

const (
	// BaselineRiskScore is the score before any adjustment fires
	BaselineRiskScore = 50

	minRiskScore = 0
	maxRiskScore = 100
)

// WalletMetrics are the derived figures the scorer and classifier work on
type WalletMetrics struct {
	SOL          float64
	TokenCount   int // non-zero holdings
	Transactions types.TransactionSummary
}

// MetricsFromReport extracts the scoring inputs of an assembled report
func MetricsFromReport(r *types.WalletReport) WalletMetrics {
	return WalletMetrics{
		SOL:          r.Balance.SOL,
		TokenCount:   r.Tokens.NonZero,
		Transactions: r.Transactions,
	}
}

// riskRule is one threshold adjustment. label may depend on the metrics.
type riskRule struct {
	impact int
	match  func(m WalletMetrics, now time.Time) (string, bool)
}

func fixed(label string, cond func(m WalletMetrics) bool) func(WalletMetrics, time.Time) (string, bool) {
	return func(m WalletMetrics, _ time.Time) (string, bool) {
		return label, cond(m)
	}
}

// walletAgeDays is the age of the oldest known transaction, only when both ends are known
func walletAgeDays(m WalletMetrics, now time.Time) (float64, bool) {
	tx := m.Transactions
	if tx.Oldest == nil || tx.Newest == nil {
		return 0, false
	}
	return now.Sub(*tx.Oldest).Hours() / 24, true
}

// riskRules is evaluated in order; every rule is independent.
var riskRules = []riskRule{
	{impact: -10, match: fixed("High SOL balance (established wallet)", func(m WalletMetrics) bool { return m.SOL > 100 })},
	{impact: 15, match: fixed("Near-zero SOL balance", func(m WalletMetrics) bool { return m.SOL < 0.01 })},
	{impact: -5, match: fixed("Diverse token portfolio (>20 tokens)", func(m WalletMetrics) bool { return m.TokenCount > 20 })},
	{impact: 10, match: fixed("No token holdings", func(m WalletMetrics) bool { return m.TokenCount == 0 })},
	{impact: -5, match: fixed("High transaction activity", func(m WalletMetrics) bool { return m.Transactions.Recent >= 100 })},
	{impact: 15, match: fixed("Very low transaction count", func(m WalletMetrics) bool { return m.Transactions.Recent < 5 })},
	{impact: 20, match: fixed("High transaction failure rate", func(m WalletMetrics) bool {
		return m.Transactions.SuccessRatePct != nil && *m.Transactions.SuccessRatePct < 50
	})},
	{impact: -5, match: fixed("High success rate", func(m WalletMetrics) bool {
		return m.Transactions.SuccessRatePct != nil && *m.Transactions.SuccessRatePct > 95
	})},
	{impact: -10, match: func(m WalletMetrics, now time.Time) (string, bool) {
		days, ok := walletAgeDays(m, now)
		if !ok || days <= 365 {
			return "", false
		}
		return fmt.Sprintf("Wallet active for %d days", int(math.Floor(days))), true
	}},
	{impact: 20, match: func(m WalletMetrics, now time.Time) (string, bool) {
		days, ok := walletAgeDays(m, now)
		return "Wallet less than 7 days old", ok && days < 7
	}},
}

// ScoreRisk applies the fixed rule list to the baseline and clamps the result.
// now anchors the wallet age.
func ScoreRisk(m WalletMetrics, now time.Time) types.RiskAssessment {
	score := BaselineRiskScore
	factors := make([]types.RiskFactor, 0, len(riskRules))

	for _, rule := range riskRules {
		label, ok := rule.match(m, now)
		if !ok {
			continue
		}
		direction := types.DirectionUp
		if rule.impact < 0 {
			direction = types.DirectionDown
		}
		factors = append(factors, types.RiskFactor{Label: label, Impact: rule.impact, Direction: direction})
		score += rule.impact
	}

	score = ClampScore(score)
	return types.RiskAssessment{
		Score:   score,
		Level:   LevelForScore(score),
		Factors: factors,
	}
}

// ClampScore bounds a raw score to [0, 100]
func ClampScore(score int) int {
	if score < minRiskScore {
		return minRiskScore
	}
	if score > maxRiskScore {
		return maxRiskScore
	}
	return score
}

// LevelForScore maps a clamped score to its band
func LevelForScore(score int) types.RiskLevel {
	switch {
	case score <= 25:
		return types.RiskLow
	case score <= 50:
		return types.RiskModerate
	case score <= 75:
		return types.RiskHigh
	default:
		return types.RiskCritical
	}
}
