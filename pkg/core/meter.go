package core

import "sync"

// Meters tracks weighted running averages keyed by metric name. It is safe
// for concurrent use.
type Meters struct {
	mu     sync.RWMutex
	sums   map[string]float64
	counts map[string]float64
}

func NewMeters() *Meters {
	return &Meters{
		sums:   map[string]float64{},
		counts: map[string]float64{},
	}
}

// Update folds a value into the running average with the given weight.
func (m *Meters) Update(name string, value float64, weight int) {
	if weight <= 0 {
		weight = 1
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sums[name] += value * float64(weight)
	m.counts[name] += float64(weight)
}

// Avg returns the running average for a metric, zero if never updated.
func (m *Meters) Avg(name string) float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := m.counts[name]
	if count == 0 {
		return 0
	}
	return m.sums[name] / count
}

// Snapshot returns the current averages for all metrics.
func (m *Meters) Snapshot() map[string]float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]float64, len(m.sums))
	for name, count := range m.counts {
		if count == 0 {
			continue
		}
		out[name] = m.sums[name] / count
	}
	return out
}

// Reset clears all meters.
func (m *Meters) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sums = map[string]float64{}
	m.counts = map[string]float64{}
}
