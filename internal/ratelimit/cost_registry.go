package ratelimit

import (
	"sort"
	"sync"
)

// Solana RPC methods used by the scout
const (
	MethodGetBalance              = "getBalance"
	MethodGetTokenAccountsByOwner = "getTokenAccountsByOwner"
	MethodGetSignaturesForAddress = "getSignaturesForAddress"
)

// Request unit weights. Account scans and history lookups are heavier than balance reads.
const (
	DefaultCost                 = 1
	CostGetBalance              = 1
	CostGetTokenAccountsByOwner = 5
	CostGetSignaturesForAddress = 5
)

// CostRegistry maps RPC methods to their request unit cost.
// It is safe for concurrent use.
type CostRegistry struct {
	mu          sync.RWMutex
	costs       map[string]int
	defaultCost int
}

// NewCostRegistry creates a registry with the built-in costs and optional overrides.
// Non-positive overrides are ignored.
func NewCostRegistry(overrides map[string]int) *CostRegistry {
	costs := map[string]int{
		MethodGetBalance:              CostGetBalance,
		MethodGetTokenAccountsByOwner: CostGetTokenAccountsByOwner,
		MethodGetSignaturesForAddress: CostGetSignaturesForAddress,
	}
	for method, cost := range overrides {
		if cost > 0 {
			costs[method] = cost
		}
	}
	return &CostRegistry{costs: costs, defaultCost: DefaultCost}
}

// GetCost returns the cost of method, or the default for unknown methods.
func (r *CostRegistry) GetCost(method string) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if cost, ok := r.costs[method]; ok {
		return cost
	}
	return r.defaultCost
}

// SetCost updates the cost of method. Non-positive values are ignored.
func (r *CostRegistry) SetCost(method string, cost int) {
	if cost <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.costs[method] = cost
}

// KnownMethods returns the sorted list of methods with a registered cost.
func (r *CostRegistry) KnownMethods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	methods := make([]string, 0, len(r.costs))
	for method := range r.costs {
		methods = append(methods, method)
	}
	sort.Strings(methods)
	return methods
}

// ReportCost is the total cost of building one wallet report
func (r *CostRegistry) ReportCost() int {
	return r.GetCost(MethodGetBalance) +
		r.GetCost(MethodGetTokenAccountsByOwner) +
		r.GetCost(MethodGetSignaturesForAddress)
}
