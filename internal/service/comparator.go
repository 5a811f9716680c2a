package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/solana-scout/internal/types"
)

// WalletReporter produces the report of a single wallet
type WalletReporter interface {
	BuildReport(ctx context.Context, address string) (*types.WalletReport, error)
}

// Similarity weights, summing to 100
const (
	weightTokenOverlap = 35
	weightActivity     = 30
	weightBalance      = 15
	weightClassMatch   = 10
	weightSharedTags   = 10

	sharedTagsForFullWeight = 3
)

// Verdict is a named band of the composite similarity score
type Verdict struct {
	MinScore    int
	Label       string
	Description string
}

// verdicts is ordered by descending lower bound
var verdicts = []Verdict{
	{MinScore: 80, Label: "strongly linked", Description: "High probability of same owner or coordinated wallets"},
	{MinScore: 60, Label: "similar", Description: "Significant overlap in behavior and holdings"},
	{MinScore: 40, Label: "moderate", Description: "Some shared characteristics"},
	{MinScore: 20, Label: "different", Description: "Minimal overlap"},
	{MinScore: math.MinInt, Label: "unrelated", Description: "No meaningful connection detected"},
}

// VerdictForScore returns the band a similarity score falls in
func VerdictForScore(score int) Verdict {
	for _, v := range verdicts {
		if score >= v.MinScore {
			return v
		}
	}
	return verdicts[len(verdicts)-1]
}

// Comparator scores how alike two wallets are
type Comparator struct {
	reporter WalletReporter
	endpoint string
	now      func() time.Time
}

// NewComparator creates a comparator on top of a wallet reporter
func NewComparator(reporter WalletReporter, endpoint string) *Comparator {
	return &Comparator{
		reporter: reporter,
		endpoint: endpoint,
		now:      time.Now,
	}
}

// Compare builds both reports concurrently and compares them. Either build
// failing fails the comparison.
func (c *Comparator) Compare(ctx context.Context, addressA, addressB string) (*types.ComparisonReport, error) {
	var r1, r2 *types.WalletReport

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := c.reporter.BuildReport(gctx, addressA)
		if err != nil {
			return err
		}
		r1 = r
		return nil
	})
	g.Go(func() error {
		r, err := c.reporter.BuildReport(gctx, addressB)
		if err != nil {
			return err
		}
		r2 = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return CompareReports(r1, r2, c.now().UTC(), c.endpoint), nil
}

// CompareReports derives the comparison of two finished reports
func CompareReports(r1, r2 *types.WalletReport, now time.Time, rpcEndpoint string) *types.ComparisonReport {
	shared := SharedHoldings(r1.Tokens.Holdings, r2.Tokens.Holdings)
	overlap := TokenOverlap(r1.Tokens.Holdings, r2.Tokens.Holdings)
	activity := ActivitySimilarity(r1.Transactions, r2.Transactions)
	balance := BalanceRatio(r1.Balance.SOL, r2.Balance.SOL)
	classMatch := r1.Classification.Type == r2.Classification.Type
	sharedTags := SharedTags(r1.Classification.Tags, r2.Classification.Tags)

	score := SimilarityScore(overlap, activity, balance, classMatch, len(sharedTags))
	verdict := VerdictForScore(score)

	return &types.ComparisonReport{
		Version:   types.ReportVersion,
		Type:      types.ReportTypeComparison,
		Timestamp: now,
		Wallets: types.ComparedWallets{
			Wallet1: digest(r1),
			Wallet2: digest(r2),
		},
		Similarity: types.Similarity{
			Score:        score,
			Relationship: verdict.Label,
			Description:  verdict.Description,
			Breakdown: types.SimilarityBreakdown{
				TokenOverlap:        percent(overlap),
				ActivitySimilarity:  percent(activity),
				BalanceRatio:        percent(balance),
				ClassificationMatch: classMatch,
				SharedTags:          sharedTags,
			},
		},
		SharedTokens: types.SharedTokens{
			Count:  len(shared),
			Tokens: shared,
		},
		BalanceComparison: types.BalanceComparison{
			Wallet1: types.SOLAmount{SOL: r1.Balance.SOL},
			Wallet2: types.SOLAmount{SOL: r2.Balance.SOL},
			Ratio:   FormatBalanceRatio(r1.Balance.SOL, r2.Balance.SOL),
		},
		RiskComparison: types.RiskComparison{
			Wallet1: types.RiskDigest{Score: r1.Risk.Score, Level: r1.Risk.Level},
			Wallet2: types.RiskDigest{Score: r2.Risk.Score, Level: r2.Risk.Level},
			Delta:   absInt(r1.Risk.Score - r2.Risk.Score),
		},
		Meta: types.Meta{
			RPC:   rpcEndpoint,
			Agent: types.Agent,
		},
	}
}

// SimilarityScore combines the components into a 0-100 score
func SimilarityScore(overlap, activity, balance float64, classMatch bool, sharedTagCount int) int {
	match := 0.0
	if classMatch {
		match = 1
	}
	tags := math.Min(float64(sharedTagCount)/sharedTagsForFullWeight, 1)

	return int(math.Round(
		weightTokenOverlap*overlap +
			weightActivity*activity +
			weightBalance*balance +
			weightClassMatch*match +
			weightSharedTags*tags,
	))
}

// TokenOverlap is the Jaccard index of the two mint sets, 0 when both are empty
func TokenOverlap(a, b []types.TokenHolding) float64 {
	setA := mintSet(a)
	setB := mintSet(b)

	intersection := 0
	for mint := range setA {
		if _, ok := setB[mint]; ok {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

// SharedHoldings lists mints held by both wallets, in the order of a
func SharedHoldings(a, b []types.TokenHolding) []types.SharedToken {
	byMint := make(map[string]types.TokenHolding, len(b))
	for _, h := range b {
		byMint[h.Mint] = h
	}

	shared := make([]types.SharedToken, 0)
	seen := make(map[string]struct{}, len(a))
	for _, h := range a {
		other, ok := byMint[h.Mint]
		if !ok {
			continue
		}
		if _, dup := seen[h.Mint]; dup {
			continue
		}
		seen[h.Mint] = struct{}{}
		shared = append(shared, types.SharedToken{
			Mint:           h.Mint,
			Wallet1Balance: h.UIAmount,
			Wallet2Balance: other.UIAmount,
		})
	}
	return shared
}

// ActivitySimilarity compares transaction frequency and success rate.
// Frequencies are compared as their labels show them, so a rate that
// renders as "~0.0 txns/week" counts as no activity.
func ActivitySimilarity(a, b types.TransactionSummary) float64 {
	f1, f2 := shownFrequency(a), shownFrequency(b)
	if f1 == 0 && f2 == 0 {
		return 1
	}
	if f1 == 0 || f2 == 0 {
		return 0
	}

	freq := math.Min(f1, f2) / math.Max(f1, f2)
	success := 1 - math.Abs(successRate(a)-successRate(b))/100
	return 0.6*freq + 0.4*success
}

func shownFrequency(s types.TransactionSummary) float64 {
	return ParseFrequencyLabel(FormatFrequency(s.TxPerDay))
}

func successRate(s types.TransactionSummary) float64 {
	if s.SuccessRatePct == nil {
		return 0
	}
	return *s.SuccessRatePct
}

// BalanceRatio is min/max of the two balances, 1 when both are zero and 0 when one is
func BalanceRatio(a, b float64) float64 {
	if a == 0 && b == 0 {
		return 1
	}
	if a == 0 || b == 0 {
		return 0
	}
	return math.Min(a, b) / math.Max(a, b)
}

// FormatBalanceRatio renders max/min as "N.NNx", or "N/A" when either balance is zero
func FormatBalanceRatio(a, b float64) string {
	if a <= 0 || b <= 0 {
		return "N/A"
	}
	return fmt.Sprintf("%.2fx", math.Max(a, b)/math.Min(a, b))
}

// SharedTags returns the tags present in both sets, in the order of a
func SharedTags(a, b []string) []string {
	inB := make(map[string]struct{}, len(b))
	for _, t := range b {
		inB[t] = struct{}{}
	}
	shared := make([]string, 0)
	for _, t := range a {
		if _, ok := inB[t]; ok {
			shared = append(shared, t)
			delete(inB, t)
		}
	}
	return shared
}

func mintSet(holdings []types.TokenHolding) map[string]struct{} {
	set := make(map[string]struct{}, len(holdings))
	for _, h := range holdings {
		set[h.Mint] = struct{}{}
	}
	return set
}

func digest(r *types.WalletReport) types.WalletDigest {
	return types.WalletDigest{
		Address:        r.Address,
		Classification: r.Classification.Type,
		Risk:           r.Risk.Level,
	}
}

func percent(x float64) int {
	return int(math.Round(x * 100))
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
