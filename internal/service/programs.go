package service

import (
	"sort"

	"github.com/solana-scout/internal/types"
)

// ProgramsNote explains why the program list is empty
const ProgramsNote = "Program interaction details require getTransaction calls (rate-limited). Showing known associations from token accounts."

// programLabels maps well-known program ids to display names
var programLabels = map[string]string{
	"TokenkegQfeZyiNwAJbNbGKPFXCWuBvf9Ss623VQ5DA": "SPL Token",
	"TokenzQdBNbLqP5VEhdkAS6EPFLC1PHnBqCXEpPxuEb": "Token-2022",
	"11111111111111111111111111111111":            "System Program",
	"ATokenGPvbdGVxr1b2hvZbsiqW5xWH25efTNsLJA8knL": "Associated Token",
	"ComputeBudget111111111111111111111111111111": "Compute Budget",
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4": "Jupiter v6",
	"JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB": "Jupiter v4",
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc": "Orca Whirlpool",
	"9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP": "Orca Swap v2",
	"MemoSq4gqABAXKb96qnH8TysNcWxMyWCqXgDLGmfcHr": "Memo v2",
	"Memo1UhkJBfCR6MNBgfGGPSYDXhUFhHEFm7dMtkREgc": "Memo v1",
	"metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s": "Metaplex Metadata",
	"cndy3Z4yapfJBmL3ShUp5exZKqR3z33thTzeNMm2gRZ": "Candy Machine v2",
	"So11111111111111111111111111111111111111112": "Wrapped SOL",
	"srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX": "Serum DEX",
	"DjVE6JNiYqPL2QXyCUUh8rNjHrbz9hXHNYt99MQ59qw1": "Orca Token Swap",
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": "Raydium AMM",
	"RVKd61ztZW9GUwhRbbLoYVRE5Xf1B2tVscKqwZqXgEr": "Raydium CLMM",
	"PhoeNiXZ8ByJGLkxNfZRnkUfjvmuYqLR89jjFHGqdXY": "Phoenix DEX",
	"MangoeKQhtMN1RSqz5YMSGm8EL4pCBXiKHSia4Vwyum": "Mango v4",
	"dRiftyHA39MWEi3m9aunc5MzRF1JYuBsbn6VPcn33UH": "Drift Protocol",
	"MarBaEFrqeMi5sPGsJKp7eFEoLycCFD8qVi2GYQEnAM": "Marinade Finance",
	"SSwpkEEcbUqx4vtoEByFjSkhKdCT862DNVb52nZg1UZ": "Saber Stable Swap",
	"LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo": "Meteora DLMM",
	"Eo7WjKq67rjJQSZxS6z3YkapzY3eMj6Xy8X5EQVn5UaB": "Phantom",
	"voTpe3tHQ7AjQHMapgSue2HJFAh2cGsdokqN3XqmVSj": "Tensor",
	"TSWAPaqyCSx2KABk68Shruf4rp7CxcNi8hAsbdwmHbN": "Tensor Swap",
	"M2mx93ekt1fmXSVkTrUL9xVFHkmME8HTUi5Cyc5aF7K": "Magic Eden v2",
	"stake11111111111111111111111111111111111111": "Stake Program",
	"Vote111111111111111111111111111111111111111": "Vote Program",
}

var defiPrograms = map[string]struct{}{
	"JUP6LkbZbjS1jKKwapdHNy74zcZ3tLUZoi5QNyVTaV4": {},
	"JUP4Fb2cqiRUcaTHdrPC8h2gNsA2ETXiPDD33WcGuJB": {},
	"whirLbMiicVdio4qvUfM5KAg6Ct8VwpYzGff3uctyCc": {},
	"9W959DqEETiGZocYWCQPaJ6sBmUzgfxXfqGeTEdp3aQP": {},
	"675kPX9MHTjS2zt1qfr1NYHuzeLXfQM9H24wFSUt1Mp8": {},
	"RVKd61ztZW9GUwhRbbLoYVRE5Xf1B2tVscKqwZqXgEr": {},
	"PhoeNiXZ8ByJGLkxNfZRnkUfjvmuYqLR89jjFHGqdXY": {},
	"MangoeKQhtMN1RSqz5YMSGm8EL4pCBXiKHSia4Vwyum": {},
	"dRiftyHA39MWEi3m9aunc5MzRF1JYuBsbn6VPcn33UH": {},
	"MarBaEFrqeMi5sPGsJKp7eFEoLycCFD8qVi2GYQEnAM": {},
	"SSwpkEEcbUqx4vtoEByFjSkhKdCT862DNVb52nZg1UZ": {},
	"LBUZKhRxPF3XUpBCjp4YzTKgLccjZhTSDM9YuVaPwxo": {},
	"srmqPvymJeFKQ4zGQed1GFppgkRHL9kaELCbyksJtPX": {},
	"DjVE6JNiYqPL2QXyCUUh8rNjHrbz9hXHNYt99MQ59qw1": {},
}

var nftPrograms = map[string]struct{}{
	"metaqbxxUerdq28cj1RbAWkYQm3ybzjb6a8bt518x1s": {},
	"cndy3Z4yapfJBmL3ShUp5exZKqR3z33thTzeNMm2gRZ": {},
	"voTpe3tHQ7AjQHMapgSue2HJFAh2cGsdokqN3XqmVSj": {},
	"TSWAPaqyCSx2KABk68Shruf4rp7CxcNi8hAsbdwmHbN": {},
	"M2mx93ekt1fmXSVkTrUL9xVFHkmME8HTUi5Cyc5aF7K": {},
}

// ProgramLabel returns the display name of a known program
func ProgramLabel(id string) (string, bool) {
	label, ok := programLabels[id]
	return label, ok
}

// IsDeFiProgram reports whether id is a known DEX, lending or staking program
func IsDeFiProgram(id string) bool {
	_, ok := defiPrograms[id]
	return ok
}

// IsNFTProgram reports whether id is a known NFT program
func IsNFTProgram(id string) bool {
	_, ok := nftPrograms[id]
	return ok
}

// SummarizePrograms turns per-program interaction counts into a labelled list,
// busiest first. Signature history carries no program ids, so the report
// builder always passes an empty map and the list stays empty.
func SummarizePrograms(counts map[string]int) types.ProgramSummary {
	list := make([]types.ProgramUsage, 0, len(counts))
	for id, n := range counts {
		usage := types.ProgramUsage{ID: id, Count: n}
		if label, ok := ProgramLabel(id); ok {
			usage.Label = &label
		}
		list = append(list, usage)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].Count != list[j].Count {
			return list[i].Count > list[j].Count
		}
		return list[i].ID < list[j].ID
	})

	return types.ProgramSummary{Note: ProgramsNote, List: list}
}
