package snapshot

import (
	"math"

	"github.com/halverson/orrery/internal/state"
)

// parameterDiffTolerance is the threshold below which two parameter values
// count as unchanged in a diff.
const parameterDiffTolerance = 1e-10

// Metadata describes a snapshot without loading its full state.
type Metadata struct {
	Step           uint64 `json:"step"`
	ObjectCount    int    `json:"object_count"`
	ParameterCount int    `json:"parameter_count"`
	SizeBytes      int    `json:"size_bytes"`
}

// Snapshot is an immutable capture of runtime state. The state is a deep
// copy taken at capture time; it never aliases the engine's live state.
type Snapshot struct {
	ID        uint64              `json:"id"`
	Time      float64             `json:"time"`
	Timestamp int64               `json:"timestamp"` // unix microseconds
	State     *state.RuntimeState `json:"state"`
	Label     string              `json:"label,omitempty"`
	Metadata  Metadata            `json:"metadata"`
}

// Diff reports what changed between two snapshots.
type Diff struct {
	IDA               uint64   `json:"id_a"`
	IDB               uint64   `json:"id_b"`
	TimeDiff          float64  `json:"time_diff"`
	ObjectsAdded      []string `json:"objects_added"`
	ObjectsRemoved    []string `json:"objects_removed"`
	ObjectsModified   []string `json:"objects_modified"`
	ParametersChanged []string `json:"parameters_changed"`
}

// Empty reports whether the diff found no differences.
func (d *Diff) Empty() bool {
	return len(d.ObjectsAdded) == 0 && len(d.ObjectsRemoved) == 0 &&
		len(d.ObjectsModified) == 0 && len(d.ParametersChanged) == 0
}

// DiffAgainst compares this snapshot with a later one. Objects present
// here but not in other are removed; present only in other, added; present
// in both with any transform component moved beyond the tolerance,
// modified. Parameters count as changed past the same tolerance.
func (s *Snapshot) DiffAgainst(other *Snapshot) *Diff {
	diff := &Diff{
		IDA:      s.ID,
		IDB:      other.ID,
		TimeDiff: other.Time - s.Time,
	}

	for _, id := range s.State.World.ObjectIDs() {
		otherObj := other.State.World.Object(id)
		if otherObj == nil {
			diff.ObjectsRemoved = append(diff.ObjectsRemoved, string(id))
			continue
		}
		if objectMoved(s.State.World.Object(id), otherObj) {
			diff.ObjectsModified = append(diff.ObjectsModified, string(id))
		}
	}
	for _, id := range other.State.World.ObjectIDs() {
		if s.State.World.Object(id) == nil {
			diff.ObjectsAdded = append(diff.ObjectsAdded, string(id))
		}
	}

	for _, id := range s.State.World.Parameters.IDs() {
		a, _ := s.State.World.Parameters.Get(id)
		b, ok := other.State.World.Parameters.Get(id)
		if ok && math.Abs(a-b) > parameterDiffTolerance {
			diff.ParametersChanged = append(diff.ParametersChanged, id)
		}
	}
	return diff
}

func objectMoved(a, b *state.ObjectState) bool {
	return vectorMoved(a.Position, b.Position) ||
		vectorMoved(a.Scale, b.Scale) ||
		quatMoved(a.Orientation, b.Orientation)
}

func vectorMoved(a, b state.Vector3) bool {
	return math.Abs(a.X-b.X) > parameterDiffTolerance ||
		math.Abs(a.Y-b.Y) > parameterDiffTolerance ||
		math.Abs(a.Z-b.Z) > parameterDiffTolerance
}

func quatMoved(a, b state.Quaternion) bool {
	return math.Abs(a.W-b.W) > parameterDiffTolerance ||
		math.Abs(a.X-b.X) > parameterDiffTolerance ||
		math.Abs(a.Y-b.Y) > parameterDiffTolerance ||
		math.Abs(a.Z-b.Z) > parameterDiffTolerance
}

// estimateSize is a rough serialized-size estimate used for history
// accounting, not an exact byte count.
func estimateSize(rs *state.RuntimeState) int {
	const (
		objectBytes     = 200
		parameterBytes  = 50
		constraintBytes = 100
		overheadBytes   = 1000
	)
	return len(rs.World.Objects)*objectBytes +
		rs.World.Parameters.Len()*parameterBytes +
		len(rs.World.Constraints)*constraintBytes +
		overheadBytes
}
