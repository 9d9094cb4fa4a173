package snapshot

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/halverson/orrery/internal/state"
)

// Domain prefixes for content-addressed identity. The version suffix
// allows future algorithm migration without colliding with old hashes.
const (
	DomainSnapshot = "orrery/snapshot/v1"
	DomainRun      = "orrery/run/v1"
)

// hashWithDomain computes SHA256(domain + 0x00 + data). The null byte
// prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint computes the content-addressed identity of a runtime state.
// Two states fingerprint equal exactly when every object transform,
// parameter value, constraint, and the time bits are bit-identical. Labels
// and wall-clock timestamps are excluded.
func Fingerprint(rs *state.RuntimeState) (string, error) {
	canonical, err := marshalCanonical(stateToCanonical(rs))
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainSnapshot, canonical), nil
}

// stateToCanonical flattens a runtime state into the map form the
// canonical marshaler accepts.
func stateToCanonical(rs *state.RuntimeState) map[string]any {
	objects := make(map[string]any, len(rs.World.Objects))
	for id, obj := range rs.World.Objects {
		entry := map[string]any{
			"kind":        string(obj.Kind),
			"position":    vecToCanonical(obj.Position),
			"orientation": quatToCanonical(obj.Orientation),
			"scale":       vecToCanonical(obj.Scale),
			"static":      obj.Static,
			"visible":     obj.Visible,
		}
		if obj.Velocity != nil {
			entry["velocity"] = vecToCanonical(*obj.Velocity)
		}
		if obj.AngularVelocity != nil {
			entry["angular_velocity"] = vecToCanonical(*obj.AngularVelocity)
		}
		objects[string(id)] = entry
	}

	params := make(map[string]any, rs.World.Parameters.Len())
	for id, value := range rs.World.Parameters.Values() {
		params[id] = value
	}

	constraints := make([]any, 0, len(rs.World.Constraints))
	for _, c := range rs.World.Constraints {
		constraints = append(constraints, map[string]any{
			"id":       c.ID,
			"kind":     string(c.Kind),
			"target":   c.Target,
			"priority": c.Priority,
			"enabled":  c.Enabled,
		})
	}

	return map[string]any{
		"objects":     objects,
		"parameters":  params,
		"constraints": constraints,
		"time":        rs.Time.CurrentTime,
		"step":        rs.Time.StepCount,
	}
}

func vecToCanonical(v state.Vector3) []any {
	return []any{v.X, v.Y, v.Z}
}

func quatToCanonical(q state.Quaternion) []any {
	return []any{q.W, q.X, q.Y, q.Z}
}
