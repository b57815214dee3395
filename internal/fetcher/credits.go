package fetcher

import (
	"sync"
	"sync/atomic"
)

// Provider names for credit accounting, one counter per upstream source.
const (
	ProviderMetadata     = "metadata"
	ProviderHolders      = "holders"
	ProviderBondingCurve = "bonding_curve"
	ProviderRugCheck     = "rugcheck"
	ProviderDex          = "dex_aggregator"
	ProviderOnChain      = "onchain"
)

// creditLedger tracks credits spent per provider as independent atomic
// counters. Nothing ever decrements it.
type creditLedger struct {
	counters sync.Map // string -> *int64
}

func newCreditLedger() *creditLedger {
	return &creditLedger{}
}

func (l *creditLedger) charge(provider string, amount int64) {
	v, _ := l.counters.LoadOrStore(provider, new(int64))
	atomic.AddInt64(v.(*int64), amount)
}

// Used returns the total credits charged to the named provider.
func (l *creditLedger) Used(provider string) int64 {
	v, ok := l.counters.Load(provider)
	if !ok {
		return 0
	}
	return atomic.LoadInt64(v.(*int64))
}

// Total returns the sum of credits charged across every provider.
func (l *creditLedger) Total() int64 {
	var total int64
	l.counters.Range(func(_, v interface{}) bool {
		total += atomic.LoadInt64(v.(*int64))
		return true
	})
	return total
}
