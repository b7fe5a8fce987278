package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// DiagnosticEntry is one record of the engine's post-mortem trail.
type DiagnosticEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Event     EventType `json:"event,omitempty"`
	StepID    string    `json:"stepId,omitempty"`
	Note      string    `json:"note,omitempty"`
}

// KeyValueStore persists the diagnostic blob.
type KeyValueStore interface {
	SetString(key, value string) error
}

type diagnosticRing struct {
	entries []DiagnosticEntry
	start   int
	size    int
}

func newDiagnosticRing(capacity int) *diagnosticRing {
	if capacity <= 0 {
		capacity = DiagnosticsCapacity
	}
	return &diagnosticRing{entries: make([]DiagnosticEntry, capacity)}
}

func (ring *diagnosticRing) add(entry DiagnosticEntry) {
	capacity := len(ring.entries)
	if ring.size < capacity {
		ring.entries[(ring.start+ring.size)%capacity] = entry
		ring.size++
		return
	}
	ring.entries[ring.start] = entry
	ring.start = (ring.start + 1) % capacity
}

func (ring *diagnosticRing) snapshot() []DiagnosticEntry {
	out := make([]DiagnosticEntry, 0, ring.size)
	for offset := 0; offset < ring.size; offset++ {
		out = append(out, ring.entries[(ring.start+offset)%len(ring.entries)])
	}
	return out
}

type diagnosticHeader struct {
	RunID    string    `json:"runId"`
	SavedAt  time.Time `json:"savedAt"`
	Failures int       `json:"failures"`
}

// encodeDiagnostics renders a header line followed by one JSON entry per line.
func encodeDiagnostics(runID string, savedAt time.Time, failures int, entries []DiagnosticEntry) (string, error) {
	var buffer bytes.Buffer
	encoder := json.NewEncoder(&buffer)
	if err := encoder.Encode(diagnosticHeader{RunID: runID, SavedAt: savedAt, Failures: failures}); err != nil {
		return "", fmt.Errorf("encode diagnostic header: %w", err)
	}
	for _, entry := range entries {
		if err := encoder.Encode(entry); err != nil {
			return "", fmt.Errorf("encode diagnostic entry: %w", err)
		}
	}
	return buffer.String(), nil
}
