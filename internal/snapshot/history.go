package snapshot

import (
	"math"
	"time"

	"github.com/halverson/orrery/internal/state"
)

// History is a bounded FIFO of snapshots with strictly increasing ids
// starting at 1. Once over capacity the oldest snapshot is evicted; ids
// are never reused, so a caller holding an evicted id simply finds it
// gone.
type History struct {
	snapshots []*Snapshot
	max       int
	nextID    uint64

	// now is swappable for tests.
	now func() time.Time
}

// NewHistory creates a history holding at most max snapshots.
func NewHistory(max int) *History {
	return &History{max: max, nextID: 1, now: time.Now}
}

// Take deep-copies rs into a new snapshot, appends it, and evicts the
// oldest entry if the history is over capacity. The label may be empty.
func (h *History) Take(rs *state.RuntimeState, label string) *Snapshot {
	snap := &Snapshot{
		ID:        h.nextID,
		Time:      rs.Time.CurrentTime,
		Timestamp: h.now().UnixMicro(),
		State:     rs.Clone(),
		Label:     label,
		Metadata: Metadata{
			Step:           rs.Time.StepCount,
			ObjectCount:    len(rs.World.Objects),
			ParameterCount: rs.World.Parameters.Len(),
			SizeBytes:      estimateSize(rs),
		},
	}
	h.nextID++

	h.snapshots = append(h.snapshots, snap)
	if len(h.snapshots) > h.max {
		h.snapshots = h.snapshots[1:]
	}
	return snap
}

// Get returns the snapshot with the given id, or nil.
func (h *History) Get(id uint64) *Snapshot {
	for _, s := range h.snapshots {
		if s.ID == id {
			return s
		}
	}
	return nil
}

// Latest returns the most recent snapshot, or nil.
func (h *History) Latest() *Snapshot {
	if len(h.snapshots) == 0 {
		return nil
	}
	return h.snapshots[len(h.snapshots)-1]
}

// AtTime returns the snapshot whose simulation time is closest to t, or
// nil when the history is empty.
func (h *History) AtTime(t float64) *Snapshot {
	var best *Snapshot
	bestDiff := math.Inf(1)
	for _, s := range h.snapshots {
		if d := math.Abs(s.Time - t); d < bestDiff {
			best, bestDiff = s, d
		}
	}
	return best
}

// WithLabel returns all snapshots carrying the label, oldest first.
func (h *History) WithLabel(label string) []*Snapshot {
	var out []*Snapshot
	for _, s := range h.snapshots {
		if s.Label == label {
			out = append(out, s)
		}
	}
	return out
}

// InRange returns snapshots with start <= time <= end, oldest first.
func (h *History) InRange(start, end float64) []*Snapshot {
	var out []*Snapshot
	for _, s := range h.snapshots {
		if s.Time >= start && s.Time <= end {
			out = append(out, s)
		}
	}
	return out
}

// All returns every held snapshot, oldest first. The slice is a copy; the
// snapshots are shared.
func (h *History) All() []*Snapshot {
	out := make([]*Snapshot, len(h.snapshots))
	copy(out, h.snapshots)
	return out
}

// Count returns the number of held snapshots.
func (h *History) Count() int { return len(h.snapshots) }

// Clear drops every snapshot. Ids keep counting from where they were.
func (h *History) Clear() { h.snapshots = nil }

// TrimTo evicts oldest snapshots until at most limit remain.
func (h *History) TrimTo(limit int) {
	if limit < 0 {
		limit = 0
	}
	for len(h.snapshots) > limit {
		h.snapshots = h.snapshots[1:]
	}
}

// TotalSizeBytes sums the size estimates of all held snapshots.
func (h *History) TotalSizeBytes() int {
	total := 0
	for _, s := range h.snapshots {
		total += s.Metadata.SizeBytes
	}
	return total
}

// Stats summarizes the history for diagnostics.
type Stats struct {
	Count          int     `json:"count"`
	Max            int     `json:"max"`
	TotalSizeBytes int     `json:"total_size_bytes"`
	TimeSpan       float64 `json:"time_span"`
}

// Utilization is the used fraction of capacity.
func (s Stats) Utilization() float64 {
	if s.Max == 0 {
		return 0
	}
	return float64(s.Count) / float64(s.Max)
}

// Stats returns current history statistics.
func (h *History) Stats() Stats {
	stats := Stats{
		Count:          len(h.snapshots),
		Max:            h.max,
		TotalSizeBytes: h.TotalSizeBytes(),
	}
	if len(h.snapshots) > 0 {
		stats.TimeSpan = h.snapshots[len(h.snapshots)-1].Time - h.snapshots[0].Time
	}
	return stats
}
