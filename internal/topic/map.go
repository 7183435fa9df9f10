package topic

import (
	"sync"

	"github.com/felicia-viz/viz-relay/internal/model"
)

// Event types reported by Apply.
const (
	EventRegistered   = "registered"
	EventUpdated      = "updated"
	EventUnregistered = "unregistered"
	EventIgnored      = "ignored" // UNREGISTERED for a topic the map never held
)

// Change describes the effect of one Apply call.
type Change struct {
	Topic     string
	EventType string
	Info      model.TopicInfo
}

// Map is an insertion-ordered, concurrency-safe table of TopicInfo by topic name.
type Map struct {
	mu      sync.RWMutex
	order   []string
	entries map[string]model.TopicInfo
}

// NewMap creates an empty Map.
func NewMap() *Map {
	return &Map{
		entries: make(map[string]model.TopicInfo),
	}
}

// Apply folds a discovery update into the map. REGISTERED inserts or replaces
// the entry; any other status removes it.
func (m *Map) Apply(info model.TopicInfo) Change {
	if info.Status == model.TopicRegistered {
		updated := m.Upsert(info)
		if updated {
			return Change{Topic: info.Topic, EventType: EventUpdated, Info: info}
		}
		return Change{Topic: info.Topic, EventType: EventRegistered, Info: info}
	}

	if m.Delete(info.Topic) {
		return Change{Topic: info.Topic, EventType: EventUnregistered, Info: info}
	}
	return Change{Topic: info.Topic, EventType: EventIgnored, Info: info}
}

// Upsert stores info under its topic. A replaced entry keeps its position.
// Reports whether an entry already existed.
func (m *Map) Upsert(info model.TopicInfo) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, existed := m.entries[info.Topic]
	if !existed {
		m.order = append(m.order, info.Topic)
	}
	m.entries[info.Topic] = info
	return existed
}

// Delete removes a topic. Reports whether it was present.
func (m *Map) Delete(topic string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[topic]; !ok {
		return false
	}
	delete(m.entries, topic)
	for i, name := range m.order {
		if name == topic {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the entry for topic.
func (m *Map) Get(topic string) (model.TopicInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	info, ok := m.entries[topic]
	return info, ok
}

// List returns a copy of every entry in insertion order. Never nil.
func (m *Map) List() []model.TopicInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.TopicInfo, 0, len(m.order))
	for _, name := range m.order {
		result = append(result, m.entries[name])
	}
	return result
}

// Summaries returns {topic, typeName} pairs in insertion order. Never nil.
func (m *Map) Summaries() []model.TopicSummary {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]model.TopicSummary, 0, len(m.order))
	for _, name := range m.order {
		result = append(result, m.entries[name].Summary())
	}
	return result
}

// Len returns the number of topics.
func (m *Map) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
