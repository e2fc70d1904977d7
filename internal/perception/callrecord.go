package perception

import (
	"sync"
	"time"
)

// Provider tags used on call records. These name the route taken, not a
// backend: local generation, local fallback, cloud, and the two cloud
// failure modes.
const (
	CallLocal             = "local"
	CallLocalUnavailable  = "local_unavailable"
	CallCloud             = "cloud"
	CallCloudError        = "cloud_error"
	CallCloudUnconfigured = "cloud_unconfigured"
)

// CallRecord describes the most recent inference attempt. It is a
// diagnostic slot, not an audit log: every attempt, success or failure,
// overwrites it.
type CallRecord struct {
	// ID correlates the record with the interpretation call that
	// produced it.
	ID string `json:"id,omitempty"`

	// Provider is the route tag (local, cloud, ...).
	Provider string `json:"provider"`

	// Engine is the human-readable model descriptor of the backend
	// involved, when known.
	Engine string `json:"engine"`

	// Reason names the operation that triggered the call
	// (private_prompt, interpret_instruction, ...) or the failure text.
	Reason string `json:"reason"`

	// At is when the record was written.
	At time.Time `json:"at"`
}

// CallRecordStore is a thread-safe single-slot store for the most recent
// call. Readers only ever observe the latest write; staleness is by
// contract.
type CallRecordStore struct {
	mu   sync.RWMutex
	last CallRecord
}

// NewCallRecordStore returns an empty store.
func NewCallRecordStore() *CallRecordStore {
	return &CallRecordStore{}
}

// Set overwrites the slot with the given record, stamping the time.
func (s *CallRecordStore) Set(rec CallRecord) {
	rec.At = time.Now()
	s.mu.Lock()
	s.last = rec
	s.mu.Unlock()
}

// Get returns a copy of the most recent record.
func (s *CallRecordStore) Get() CallRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}
