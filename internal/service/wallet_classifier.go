package service

import (
	"github.com/solana-scout/internal/types"
)

// Tags added on top of the rule tags
const (
	TagStandard    = "standard"
	TagFunded      = "funded"
	TagTokenHolder = "token-holder"
)

// classRule is one wallet archetype. Every matching rule adds its tag; only the first sets the type.
type classRule struct {
	walletType  string
	description string
	tag         string
	match       func(m WalletMetrics) bool
}

var classRules = []classRule{
	{
		walletType:  "Whale",
		description: "Large SOL holder with significant on-chain presence.",
		tag:         "whale",
		match:       func(m WalletMetrics) bool { return m.SOL > 1000 },
	},
	{
		walletType:  "Active Trader",
		description: "Frequent transaction activity suggests active trading or bot usage.",
		tag:         "active-trader",
		match:       func(m WalletMetrics) bool { return m.Transactions.Recent >= 50 },
	},
	{
		walletType:  "Token Collector",
		description: "Holds many different token types, possibly airdrop farmer or diversified holder.",
		tag:         "token-collector",
		match:       func(m WalletMetrics) bool { return m.TokenCount > 15 },
	},
	{
		walletType:  "Dormant Wallet",
		description: "Minimal recent activity. May be a cold storage or abandoned wallet.",
		tag:         "dormant",
		match:       func(m WalletMetrics) bool { return m.Transactions.Recent < 3 && m.SOL > 0 },
	},
	{
		walletType:  "New Wallet",
		description: "Recently created with minimal history.",
		tag:         "new",
		match:       func(m WalletMetrics) bool { return m.Transactions.Recent < 5 && m.SOL < 1 },
	},
}

const (
	standardType        = "Standard Wallet"
	standardDescription = "Regular Solana wallet with typical activity patterns."
)

// Classify assigns a wallet type and its tag set
func Classify(m WalletMetrics) types.Classification {
	var c types.Classification
	tags := make([]string, 0, len(classRules)+2)

	for _, rule := range classRules {
		if !rule.match(m) {
			continue
		}
		if c.Type == "" {
			c.Type = rule.walletType
			c.Description = rule.description
		}
		tags = append(tags, rule.tag)
	}

	if c.Type == "" {
		c.Type = standardType
		c.Description = standardDescription
		tags = append(tags, TagStandard)
	}
	if m.SOL > 0 {
		tags = append(tags, TagFunded)
	}
	if m.TokenCount > 0 {
		tags = append(tags, TagTokenHolder)
	}

	c.Tags = tags
	return c
}
