// Package render formats wallet and comparison reports for terminals.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/solana-scout/internal/types"
)

const (
	// MaxListed caps the holdings and programs printed per report
	MaxListed = 10

	notAvailable = "N/A"
)

var levelBadges = map[types.RiskLevel]string{
	types.RiskLow:      "🟢",
	types.RiskModerate: "🟡",
	types.RiskHigh:     "🟠",
	types.RiskCritical: "🔴",
}

// LevelBadge returns the level prefixed with its colour marker, e.g. "🟢 LOW"
func LevelBadge(level types.RiskLevel) string {
	if badge, ok := levelBadges[level]; ok {
		return badge + " " + string(level)
	}
	return string(level)
}

func section(title string) string {
	const width = 40
	head := "─── " + title + " "
	if pad := width - len([]rune(head)); pad > 0 {
		head += strings.Repeat("─", pad)
	}
	return "  " + head
}

func shorten(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func formatTime(t *time.Time) string {
	if t == nil {
		return notAvailable
	}
	return t.UTC().Format(time.RFC3339)
}

func signed(n int) string {
	if n > 0 {
		return fmt.Sprintf("+%d", n)
	}
	return fmt.Sprintf("%d", n)
}

// errWriter remembers the first write error so callers can print freely
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

// Report writes the human-readable profile of one wallet
func Report(w io.Writer, r *types.WalletReport) error {
	out := &errWriter{w: w}

	out.printf("\n")
	out.printf("  ╔═══════════════════════════════════════════╗\n")
	out.printf("  ║         SOLANA SCOUT REPORT               ║\n")
	out.printf("  ╚═══════════════════════════════════════════╝\n\n")
	out.printf("  📍 Address:    %s\n", r.Address)
	out.printf("  🕐 Scanned:    %s\n", r.Timestamp.UTC().Format(time.RFC3339))
	out.printf("  🌐 RPC:        %s\n\n", r.Meta.RPC)

	out.printf("%s\n", section("BALANCE"))
	out.printf("  💰 SOL Balance:     %s SOL\n", formatSOL(r.Balance.SOL))
	out.printf("  💵 Lamports:        %d\n\n", r.Balance.Lamports)

	out.printf("%s\n", section("TOKEN HOLDINGS"))
	out.printf("  🪙  Token Accounts:  %d\n", r.Tokens.Count)
	out.printf("  📊 Non-zero:        %d\n", r.Tokens.NonZero)
	for i, h := range r.Tokens.Holdings {
		if i == MaxListed {
			out.printf("     ... and %d more\n", len(r.Tokens.Holdings)-MaxListed)
			break
		}
		out.printf("     • %s  Balance: %s (decimals: %d)\n", shorten(h.Mint, 8), h.UIAmount.String(), h.Decimals)
	}
	out.printf("\n")

	tx := r.Transactions
	out.printf("%s\n", section("TRANSACTION ACTIVITY"))
	out.printf("  📝 Recent Txns:     %d\n", tx.Recent)
	out.printf("  📅 First Seen:      %s\n", formatTime(tx.Oldest))
	out.printf("  📅 Last Active:     %s\n", formatTime(tx.Newest))
	out.printf("  ⏱️  Avg Frequency:   %s\n", tx.AvgFrequency)
	if tx.SuccessRate != "" {
		out.printf("  ✅ Success Rate:    %s\n", tx.SuccessRate)
	}
	out.printf("\n")

	out.printf("%s\n", section("PROGRAMS USED"))
	if len(r.Programs.List) == 0 {
		out.printf("     %s\n", r.Programs.Note)
	}
	for i, p := range r.Programs.List {
		if i == MaxListed {
			break
		}
		label := ""
		if p.Label != nil {
			label = *p.Label
		}
		out.printf("     • %s  (%d interactions) %s\n", shorten(p.ID, 16), p.Count, label)
	}
	out.printf("\n")

	out.printf("%s\n", section("RISK PROFILE"))
	out.printf("  🎯 Risk Score:      %d/100\n", r.Risk.Score)
	out.printf("  🏷️  Risk Level:      %s\n", LevelBadge(r.Risk.Level))
	out.printf("  📋 Factors:\n")
	for _, f := range r.Risk.Factors {
		arrow := "🔽"
		if f.Direction == types.DirectionUp {
			arrow = "🔺"
		}
		out.printf("     %s %s (%s)\n", arrow, f.Label, signed(f.Impact))
	}
	out.printf("\n")

	out.printf("%s\n", section("WALLET CLASSIFICATION"))
	out.printf("  🤖 Type:            %s\n", r.Classification.Type)
	out.printf("  📝 Description:     %s\n", r.Classification.Description)
	out.printf("  🔖 Tags:            %s\n\n", strings.Join(r.Classification.Tags, ", "))

	return out.err
}

// Comparison writes the human-readable comparison of two wallets
func Comparison(w io.Writer, c *types.ComparisonReport) error {
	out := &errWriter{w: w}
	w1, w2 := c.Wallets.Wallet1, c.Wallets.Wallet2

	out.printf("\n")
	out.printf("  ╔═══════════════════════════════════════════╗\n")
	out.printf("  ║         SOLANA SCOUT COMPARISON           ║\n")
	out.printf("  ╚═══════════════════════════════════════════╝\n\n")
	out.printf("  🅰️  Wallet 1:   %s\n", w1.Address)
	out.printf("                %s · %s\n", w1.Classification, LevelBadge(w1.Risk))
	out.printf("  🅱️  Wallet 2:   %s\n", w2.Address)
	out.printf("                %s · %s\n", w2.Classification, LevelBadge(w2.Risk))
	out.printf("  🕐 Compared:   %s\n\n", c.Timestamp.UTC().Format(time.RFC3339))

	s := c.Similarity
	out.printf("%s\n", section("SIMILARITY"))
	out.printf("  🔗 Score:           %d/100 (%s)\n", s.Score, s.Relationship)
	out.printf("  📝 Verdict:         %s\n", s.Description)
	out.printf("  🪙  Token Overlap:   %d%%\n", s.Breakdown.TokenOverlap)
	out.printf("  📈 Activity:        %d%%\n", s.Breakdown.ActivitySimilarity)
	out.printf("  💰 Balance Ratio:   %d%%\n", s.Breakdown.BalanceRatio)
	out.printf("  🤖 Same Type:       %s\n", yesNo(s.Breakdown.ClassificationMatch))
	shared := notAvailable
	if len(s.Breakdown.SharedTags) > 0 {
		shared = strings.Join(s.Breakdown.SharedTags, ", ")
	}
	out.printf("  🔖 Shared Tags:     %s\n\n", shared)

	out.printf("%s\n", section("SHARED TOKENS"))
	out.printf("  📊 Count:           %d\n", c.SharedTokens.Count)
	for i, t := range c.SharedTokens.Tokens {
		if i == MaxListed {
			out.printf("     ... and %d more\n", len(c.SharedTokens.Tokens)-MaxListed)
			break
		}
		out.printf("     • %s  %s / %s\n", shorten(t.Mint, 8), t.Wallet1Balance.String(), t.Wallet2Balance.String())
	}
	out.printf("\n")

	b := c.BalanceComparison
	out.printf("%s\n", section("BALANCES"))
	out.printf("  💰 Wallet 1:        %s SOL\n", formatSOL(b.Wallet1.SOL))
	out.printf("  💰 Wallet 2:        %s SOL\n", formatSOL(b.Wallet2.SOL))
	out.printf("  ⚖️  Ratio:           %s\n\n", b.Ratio)

	rc := c.RiskComparison
	out.printf("%s\n", section("RISK"))
	out.printf("  🎯 Wallet 1:        %d/100 %s\n", rc.Wallet1.Score, LevelBadge(rc.Wallet1.Level))
	out.printf("  🎯 Wallet 2:        %d/100 %s\n", rc.Wallet2.Score, LevelBadge(rc.Wallet2.Level))
	out.printf("  Δ  Delta:           %d\n\n", rc.Delta)

	return out.err
}

func formatSOL(sol float64) string {
	s := fmt.Sprintf("%.9f", sol)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
