package render

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solana-scout/internal/types"
)

var scanned = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func sampleReport(holdings int) *types.WalletReport {
	hs := make([]types.TokenHolding, 0, holdings)
	for i := 0; i < holdings; i++ {
		hs = append(hs, types.TokenHolding{
			Mint:     fmt.Sprintf("Mint%02dxxxxxxxxxxxxxxxxxxxxxxxxxxxx", i),
			Amount:   "1500000",
			UIAmount: decimal.RequireFromString("1.5"),
			Decimals: 6,
		})
	}
	oldest := scanned.Add(-400 * 24 * time.Hour)
	rate := 98.3
	label := "Jupiter v6"

	return &types.WalletReport{
		Version:   types.ReportVersion,
		Address:   "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU",
		Timestamp: scanned,
		Balance:   types.Balance{Lamports: 1_500_000_000_000, SOL: 1500},
		Tokens:    types.Tokens{Count: holdings + 1, NonZero: holdings, Holdings: hs},
		Transactions: types.TransactionSummary{
			Recent:         60,
			Oldest:         &oldest,
			Newest:         &scanned,
			AvgFrequency:   "~1.0 txns/week",
			SuccessRate:    "98.3%",
			SuccessRatePct: &rate,
		},
		Programs: types.ProgramSummary{
			Note: "note",
			List: []types.ProgramUsage{{ID: "JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4", Count: 3, Label: &label}},
		},
		Risk: types.RiskAssessment{
			Score: 25,
			Level: types.RiskLow,
			Factors: []types.RiskFactor{
				{Label: "High SOL balance (established wallet)", Impact: -10, Direction: types.DirectionDown},
				{Label: "Near-zero SOL balance", Impact: 15, Direction: types.DirectionUp},
			},
		},
		Classification: types.Classification{
			Type:        "Whale",
			Description: "Large SOL holder with significant on-chain presence.",
			Tags:        []string{"whale", "funded"},
		},
		Meta: types.Meta{RPC: "https://rpc.test", Agent: types.Agent},
	}
}

func TestReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Report(&buf, sampleReport(12)))
	out := buf.String()

	assert.Contains(t, out, "SOLANA SCOUT REPORT")
	assert.Contains(t, out, "7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU")
	assert.Contains(t, out, "1500 SOL")
	assert.Contains(t, out, "Token Accounts:  13")
	assert.Contains(t, out, "Mint00xx…  Balance: 1.5 (decimals: 6)")
	assert.Contains(t, out, "... and 2 more")
	assert.NotContains(t, out, "Mint10")
	assert.Contains(t, out, "2024-01-26T12:00:00Z")
	assert.Contains(t, out, "98.3%")
	assert.Contains(t, out, "JUP6LkbZbjS1jKKw…  (3 interactions) Jupiter v6")
	assert.Contains(t, out, "🟢 LOW")
	assert.Contains(t, out, "🔽 High SOL balance (established wallet) (-10)")
	assert.Contains(t, out, "🔺 Near-zero SOL balance (+15)")
	assert.Contains(t, out, "whale, funded")
}

func TestReportEmptySections(t *testing.T) {
	r := sampleReport(0)
	r.Transactions = types.TransactionSummary{AvgFrequency: "N/A"}
	r.Programs = types.ProgramSummary{Note: "Program details unavailable", List: []types.ProgramUsage{}}

	var buf bytes.Buffer
	require.NoError(t, Report(&buf, r))
	out := buf.String()

	assert.Contains(t, out, "First Seen:      N/A")
	assert.Contains(t, out, "Program details unavailable")
	assert.NotContains(t, out, "more")
	assert.NotContains(t, out, "Success Rate")
}

func TestLevelBadge(t *testing.T) {
	assert.Equal(t, "🟡 MODERATE", LevelBadge(types.RiskModerate))
	assert.Equal(t, "🟠 HIGH", LevelBadge(types.RiskHigh))
	assert.Equal(t, "🔴 CRITICAL", LevelBadge(types.RiskCritical))
	assert.Equal(t, "UNKNOWN", LevelBadge("UNKNOWN"))
}

func TestFormatSOL(t *testing.T) {
	assert.Equal(t, "0", formatSOL(0))
	assert.Equal(t, "0.000000001", formatSOL(1e-9))
	assert.Equal(t, "2.5", formatSOL(2.5))
	assert.Equal(t, "1500", formatSOL(1500))
}

func TestComparison(t *testing.T) {
	c := &types.ComparisonReport{
		Version:   types.ReportVersion,
		Type:      types.ReportTypeComparison,
		Timestamp: scanned,
		Wallets: types.ComparedWallets{
			Wallet1: types.WalletDigest{Address: "walletA", Classification: "Whale", Risk: types.RiskLow},
			Wallet2: types.WalletDigest{Address: "walletB", Classification: "New Wallet", Risk: types.RiskCritical},
		},
		Similarity: types.Similarity{
			Score:        57,
			Relationship: "moderate",
			Description:  "Some shared characteristics",
			Breakdown: types.SimilarityBreakdown{
				TokenOverlap:       50,
				ActivitySimilarity: 62,
				BalanceRatio:       25,
				SharedTags:         []string{"funded"},
			},
		},
		SharedTokens: types.SharedTokens{
			Count: 1,
			Tokens: []types.SharedToken{{
				Mint:           "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
				Wallet1Balance: decimal.RequireFromString("10.25"),
				Wallet2Balance: decimal.RequireFromString("3"),
			}},
		},
		BalanceComparison: types.BalanceComparison{
			Wallet1: types.SOLAmount{SOL: 40},
			Wallet2: types.SOLAmount{SOL: 10},
			Ratio:   "4.00x",
		},
		RiskComparison: types.RiskComparison{
			Wallet1: types.RiskDigest{Score: 20, Level: types.RiskLow},
			Wallet2: types.RiskDigest{Score: 90, Level: types.RiskCritical},
			Delta:   70,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Comparison(&buf, c))
	out := buf.String()

	assert.Contains(t, out, "SOLANA SCOUT COMPARISON")
	assert.Contains(t, out, "57/100 (moderate)")
	assert.Contains(t, out, "Token Overlap:   50%")
	assert.Contains(t, out, "Same Type:       no")
	assert.Contains(t, out, "EPjFWdd5…  10.25 / 3")
	assert.Contains(t, out, "4.00x")
	assert.Contains(t, out, "Delta:           70")
	assert.Contains(t, out, "New Wallet · 🔴 CRITICAL")
}

type failingWriter struct{ after int }

func (f *failingWriter) Write(p []byte) (int, error) {
	if f.after == 0 {
		return 0, errors.New("broken pipe")
	}
	f.after--
	return len(p), nil
}

func TestReportPropagatesWriteErrors(t *testing.T) {
	err := Report(&failingWriter{after: 3}, sampleReport(1))
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "broken pipe"))
}
