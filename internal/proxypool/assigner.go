package proxypool

import (
	"math/rand"
	"sync"
)

// Assigner hands each account one proxy from the pool and keeps it for the process lifetime
type Assigner struct {
	mu          sync.Mutex
	proxies     []Proxy
	assignments map[int64]Proxy
	pick        func(n int) int
}

// NewAssigner creates an assigner over a fixed pool
func NewAssigner(proxies []Proxy) *Assigner {
	return NewAssignerWithPicker(proxies, rand.Intn)
}

// NewAssignerWithPicker lets tests control the random choice; pick(n) must return [0, n)
func NewAssignerWithPicker(proxies []Proxy, pick func(n int) int) *Assigner {
	pool := make([]Proxy, len(proxies))
	copy(pool, proxies)

	return &Assigner{
		proxies:     pool,
		assignments: make(map[int64]Proxy),
		pick:        pick,
	}
}

// Assign returns the sticky proxy for accountID, choosing one uniformly at random on first use.
// ok is false when the pool is empty.
func (a *Assigner) Assign(accountID int64) (proxy Proxy, ok bool) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if existing, found := a.assignments[accountID]; found {
		return existing, true
	}

	if len(a.proxies) == 0 {
		return Proxy{}, false
	}

	proxy = a.proxies[a.pick(len(a.proxies))]
	a.assignments[accountID] = proxy
	return proxy, true
}

// Size returns the number of proxies in the pool
func (a *Assigner) Size() int {
	return len(a.proxies)
}

// Assigned returns how many accounts currently hold a proxy
func (a *Assigner) Assigned() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.assignments)
}
