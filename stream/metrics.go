package stream

import "sync/atomic"

type MetricsSnapshot struct {
	Subscribers int64 `json:"subscribers"`
	Published   int64 `json:"published"`
	Delivered   int64 `json:"delivered"`
	Pruned      int64 `json:"pruned"`
}

type Metrics struct {
	subscribers atomic.Int64
	published   atomic.Int64
	delivered   atomic.Int64
	pruned      atomic.Int64
}

// NewMetrics returns zeroed counters.
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) RecordSubscriber(delta int) {
	m.subscribers.Add(int64(delta))
}

func (m *Metrics) RecordPublished(delta int) {
	m.published.Add(int64(delta))
}

func (m *Metrics) RecordDelivered(delta int) {
	m.delivered.Add(int64(delta))
}

func (m *Metrics) RecordPruned(delta int) {
	m.pruned.Add(int64(delta))
}

func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		Subscribers: m.subscribers.Load(),
		Published:   m.published.Load(),
		Delivered:   m.delivered.Load(),
		Pruned:      m.pruned.Load(),
	}
}
