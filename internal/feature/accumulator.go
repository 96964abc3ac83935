package feature

import (
	"sync"
	"time"
)

// ClientState represents the current state of a client (IP)
type ClientState struct {
	IP string

	// RecentTimestamps holds request instants in observed order, pruned to
	// the rapid-fire window at every Prune call.
	RecentTimestamps []time.Time
	StaticHits       int

	TotalRequests int
	FirstSeen     time.Time
	LastSeen      time.Time
}

// Snapshot is a copy of the counters of one client after an update
type Snapshot struct {
	IP            string
	WindowSize    int
	StaticHits    int
	TotalRequests int
	Removed       int // entries dropped by the last Prune
}

// Accumulator tracks per-client state for one run
type Accumulator struct {
	mu         sync.Mutex
	clients    map[string]*ClientState
	maxClients int
}

// NewAccumulator creates a new client state store. maxClients <= 0 disables eviction.
func NewAccumulator(maxClients int) *Accumulator {
	return &Accumulator{
		clients:    make(map[string]*ClientState),
		maxClients: maxClients,
	}
}

// AddRequest records one request instant and, when staticHit is set, a static asset hit
func (a *Accumulator) AddRequest(ip string, at time.Time, staticHit bool) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, exists := a.clients[ip]
	if !exists {
		if a.maxClients > 0 && len(a.clients) >= a.maxClients {
			a.evictLowPriority()
		}
		state = &ClientState{
			IP:        ip,
			FirstSeen: at,
		}
		a.clients[ip] = state
	}

	state.RecentTimestamps = append(state.RecentTimestamps, at)
	state.TotalRequests++
	if staticHit {
		state.StaticHits++
	}
	state.LastSeen = at

	return state.snapshot(0)
}

// Prune drops every timestamp older than window relative to now. Ages are
// truncated to whole seconds before comparing, so with a 10s window an entry
// exactly 10s (or 10.9s) old is kept. Entries newer than now are kept.
func (a *Accumulator) Prune(ip string, now time.Time, window time.Duration) Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()

	state, ok := a.clients[ip]
	if !ok {
		return Snapshot{IP: ip}
	}

	limit := int64(window / time.Second)
	kept := state.RecentTimestamps[:0]
	for _, ts := range state.RecentTimestamps {
		if int64(now.Sub(ts)/time.Second) > limit {
			continue
		}
		kept = append(kept, ts)
	}
	removed := len(state.RecentTimestamps) - len(kept)
	// Clear the tail so dropped instants do not pin the backing array
	clear(state.RecentTimestamps[len(kept):])
	state.RecentTimestamps = kept

	return state.snapshot(removed)
}

// Get returns a copy of the state of an IP
func (a *Accumulator) Get(ip string) (ClientState, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	state, ok := a.clients[ip]
	if !ok {
		return ClientState{}, false
	}
	return state.clone(), true
}

// GetAll returns copies of every tracked client
func (a *Accumulator) GetAll() map[string]ClientState {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make(map[string]ClientState, len(a.clients))
	for ip, state := range a.clients {
		out[ip] = state.clone()
	}
	return out
}

// Len returns the number of tracked clients
func (a *Accumulator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.clients)
}

// Reset forgets every client
func (a *Accumulator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.clients = make(map[string]*ClientState)
}

func (s *ClientState) snapshot(removed int) Snapshot {
	return Snapshot{
		IP:            s.IP,
		WindowSize:    len(s.RecentTimestamps),
		StaticHits:    s.StaticHits,
		TotalRequests: s.TotalRequests,
		Removed:       removed,
	}
}

func (s *ClientState) clone() ClientState {
	c := *s
	c.RecentTimestamps = append([]time.Time(nil), s.RecentTimestamps...)
	return c
}

// evictLowPriority removes one entry: prioritizing small windows and old timestamps.
// Caller must hold lock.
func (a *Accumulator) evictLowPriority() {
	var bestIP string
	smallest := -1
	var oldest time.Time

	for ip, state := range a.clients {
		size := len(state.RecentTimestamps)
		if smallest == -1 || size < smallest || (size == smallest && state.LastSeen.Before(oldest)) {
			smallest = size
			oldest = state.LastSeen
			bestIP = ip
		}
	}

	if bestIP != "" {
		delete(a.clients, bestIP)
	}
}
