// Package types provides the value types produced by the wallet scout.
package types

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// ReportVersion is the schema version stamped on every report
	ReportVersion = "2.0.0"
	// Agent identifies the producer in report metadata
	Agent = "solana-scout/" + ReportVersion
	// ReportTypeComparison marks a comparison report
	ReportTypeComparison = "comparison"
)

// RiskLevel represents one of the four ordered risk bands
type RiskLevel string

const (
	// RiskLow covers scores 0-25
	RiskLow RiskLevel = "LOW"
	// RiskModerate covers scores 26-50
	RiskModerate RiskLevel = "MODERATE"
	// RiskHigh covers scores 51-75
	RiskHigh RiskLevel = "HIGH"
	// RiskCritical covers scores 76-100
	RiskCritical RiskLevel = "CRITICAL"
)

// Direction tells whether a risk factor raised or lowered the score
type Direction string

const (
	// DirectionUp raises the score
	DirectionUp Direction = "up"
	// DirectionDown lowers the score
	DirectionDown Direction = "down"
)

// TokenAccount is a decoded SPL token account as returned by the RPC adapter
type TokenAccount struct {
	Mint     string
	Amount   string // raw integer amount, kept as a string
	Decimals uint8
}

// SignatureRecord is one entry of an address' signature history
type SignatureRecord struct {
	Signature string
	BlockTime *time.Time
	Failed    bool
}

// Balance holds the native balance of a wallet
type Balance struct {
	Lamports uint64  `json:"lamports"`
	SOL      float64 `json:"sol"`
}

// TokenHolding represents one token position of a wallet.
// UIAmount is always Amount / 10^Decimals computed exactly.
type TokenHolding struct {
	Mint     string          `json:"mint"`
	Amount   string          `json:"amount"`
	UIAmount decimal.Decimal `json:"uiAmount"`
	Decimals uint8           `json:"decimals"`
}

// MarshalJSON emits uiAmount as a JSON number without losing precision
func (h TokenHolding) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mint     string      `json:"mint"`
		Amount   string      `json:"amount"`
		UIAmount json.Number `json:"uiAmount"`
		Decimals uint8       `json:"decimals"`
	}{
		Mint:     h.Mint,
		Amount:   h.Amount,
		UIAmount: json.Number(h.UIAmount.String()),
		Decimals: h.Decimals,
	})
}

// Tokens summarizes the token accounts of a wallet
type Tokens struct {
	Count    int            `json:"count"`   // all token accounts, including empty ones
	NonZero  int            `json:"nonZero"` // accounts with a positive balance
	Holdings []TokenHolding `json:"holdings"`
}

// TransactionSample is a short view of a recent signature
type TransactionSample struct {
	Signature string     `json:"signature"`
	Time      *time.Time `json:"time"`
	Success   bool       `json:"success"`
}

// TransactionSummary aggregates the recent signature history of a wallet
type TransactionSummary struct {
	Recent         int                 `json:"recent"`
	Oldest         *time.Time          `json:"oldestSignature"`
	Newest         *time.Time          `json:"newestSignature"`
	AvgFrequency   string              `json:"avgFrequency"`
	TxPerDay       float64             `json:"txPerDay"`
	SuccessRate    string              `json:"successRate,omitempty"`
	SuccessRatePct *float64            `json:"successRatePct,omitempty"`
	Txns           []TransactionSample `json:"txns"`
}

// ProgramUsage counts interactions with one on-chain program
type ProgramUsage struct {
	ID    string  `json:"id"`
	Count int     `json:"count"`
	Label *string `json:"label"`
}

// ProgramSummary lists the programs a wallet interacted with
type ProgramSummary struct {
	Note string         `json:"note"`
	List []ProgramUsage `json:"list"`
}

// RiskFactor is one fired adjustment of the risk score
type RiskFactor struct {
	Label     string    `json:"label"`
	Impact    int       `json:"impact"`
	Direction Direction `json:"direction"`
}

// RiskAssessment is the clamped heuristic risk score of a wallet
type RiskAssessment struct {
	Score   int          `json:"score"`
	Level   RiskLevel    `json:"level"`
	Factors []RiskFactor `json:"factors"`
}

// Classification is the wallet type and its tag set
type Classification struct {
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

// HasTag reports whether tag is in the classification tag set
func (c Classification) HasTag(tag string) bool {
	for _, t := range c.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Meta describes where a report came from
type Meta struct {
	RPC   string `json:"rpc"`
	Agent string `json:"agent"`
}

// WalletReport is the full profile of a single wallet
type WalletReport struct {
	Version        string             `json:"version"`
	Address        string             `json:"address"`
	Timestamp      time.Time          `json:"timestamp"`
	Balance        Balance            `json:"balance"`
	Tokens         Tokens             `json:"tokens"`
	Transactions   TransactionSummary `json:"transactions"`
	Programs       ProgramSummary     `json:"programs"`
	Risk           RiskAssessment     `json:"risk"`
	Classification Classification     `json:"classification"`
	Meta           Meta               `json:"meta"`
}

// WalletDigest is the per-wallet header of a comparison
type WalletDigest struct {
	Address        string    `json:"address"`
	Classification string    `json:"classification"`
	Risk           RiskLevel `json:"risk"`
}

// SimilarityBreakdown holds the components of the similarity score, as percentages
type SimilarityBreakdown struct {
	TokenOverlap        int      `json:"tokenOverlap"`
	ActivitySimilarity  int      `json:"activitySimilarity"`
	BalanceRatio        int      `json:"balanceRatio"`
	ClassificationMatch bool     `json:"classificationMatch"`
	SharedTags          []string `json:"sharedTags"`
}

// Similarity is the composite similarity score and its verdict
type Similarity struct {
	Score        int                 `json:"score"`
	Relationship string              `json:"relationship"`
	Description  string              `json:"description"`
	Breakdown    SimilarityBreakdown `json:"breakdown"`
}

// SharedToken is a mint held by both compared wallets
type SharedToken struct {
	Mint           string          `json:"mint"`
	Wallet1Balance decimal.Decimal `json:"wallet1Balance"`
	Wallet2Balance decimal.Decimal `json:"wallet2Balance"`
}

// MarshalJSON emits both balances as JSON numbers
func (s SharedToken) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Mint           string      `json:"mint"`
		Wallet1Balance json.Number `json:"wallet1Balance"`
		Wallet2Balance json.Number `json:"wallet2Balance"`
	}{
		Mint:           s.Mint,
		Wallet1Balance: json.Number(s.Wallet1Balance.String()),
		Wallet2Balance: json.Number(s.Wallet2Balance.String()),
	})
}

// SharedTokens is the intersection of the two mint sets
type SharedTokens struct {
	Count  int           `json:"count"`
	Tokens []SharedToken `json:"tokens"`
}

// SOLAmount wraps a SOL balance
type SOLAmount struct {
	SOL float64 `json:"sol"`
}

// BalanceComparison compares the native balances of two wallets
type BalanceComparison struct {
	Wallet1 SOLAmount `json:"wallet1"`
	Wallet2 SOLAmount `json:"wallet2"`
	Ratio   string    `json:"ratio"`
}

// RiskDigest is a score and its level
type RiskDigest struct {
	Score int       `json:"score"`
	Level RiskLevel `json:"level"`
}

// RiskComparison compares the risk of two wallets
type RiskComparison struct {
	Wallet1 RiskDigest `json:"wallet1"`
	Wallet2 RiskDigest `json:"wallet2"`
	Delta   int        `json:"delta"`
}

// ComparedWallets holds the digests of both wallets
type ComparedWallets struct {
	Wallet1 WalletDigest `json:"wallet1"`
	Wallet2 WalletDigest `json:"wallet2"`
}

// ComparisonReport is the similarity analysis of two wallets
type ComparisonReport struct {
	Version           string            `json:"version"`
	Type              string            `json:"type"`
	Timestamp         time.Time         `json:"timestamp"`
	Wallets           ComparedWallets   `json:"wallets"`
	Similarity        Similarity        `json:"similarity"`
	SharedTokens      SharedTokens      `json:"sharedTokens"`
	BalanceComparison BalanceComparison `json:"balanceComparison"`
	RiskComparison    RiskComparison    `json:"riskComparison"`
	Meta              Meta              `json:"meta"`
}

// ServiceError represents a structured error response
type ServiceError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

func (e *ServiceError) Error() string {
	return e.Message
}
