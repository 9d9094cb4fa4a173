package snapshot

import (
	"github.com/halverson/orrery/internal/state"
)

// RendererSnapshot is the frame handed to a rendering frontend. It is a
// flattened view of runtime state with geometry and material resolved,
// so the consumer never needs the simulation types.
type RendererSnapshot struct {
	Tick      uint64           `json:"tick"`
	Timestamp float64          `json:"timestamp"`
	Objects   []SnapshotObject `json:"objects"`
	FocusIDs  []string         `json:"focus_ids,omitempty"`
}

// SnapshotObject describes one renderable object.
type SnapshotObject struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Geometry  Geometry  `json:"geometry"`
	Transform Transform `json:"transform"`
	Material  Material  `json:"material"`
	Visible   bool      `json:"visible"`
}

// Geometry is a tagged union over renderable primitives. Dimensions come
// from the object's scale vector.
type Geometry struct {
	Kind     string  `json:"kind"`
	Radius   float64 `json:"radius,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	Depth    float64 `json:"depth,omitempty"`
	Segments int     `json:"segments,omitempty"`
}

// Transform carries position, rotation as xyzw, and per-axis scale.
type Transform struct {
	Position [3]float64 `json:"position"`
	Rotation [4]float64 `json:"rotation"`
	Scale    [3]float64 `json:"scale"`
}

// Material uses a soft blue default so un-styled scenes still read well.
type Material struct {
	Color     [4]float64 `json:"color"`
	Metallic  float64    `json:"metallic"`
	Roughness float64    `json:"roughness"`
	Opacity   float64    `json:"opacity"`
}

func defaultMaterial() Material {
	return Material{
		Color:     [4]float64{0.5, 0.7, 1.0, 1.0},
		Metallic:  0.3,
		Roughness: 0.7,
		Opacity:   1.0,
	}
}

// Builder turns runtime state into renderer snapshots. It owns the
// numeric id assignment: each object name maps to a stable id for the
// life of the builder, so frontends can track objects across frames.
type Builder struct {
	ids    map[state.ObjectID]uint64
	nextID uint64
}

// NewBuilder returns a Builder with an empty id table.
func NewBuilder() *Builder {
	return &Builder{ids: make(map[state.ObjectID]uint64), nextID: 1}
}

// Build produces a renderer snapshot for the current state. Objects are
// emitted in sorted name order so output is deterministic.
func (b *Builder) Build(rs *state.RuntimeState, focus []string) *RendererSnapshot {
	snap := &RendererSnapshot{
		Tick:      rs.Time.StepCount,
		Timestamp: rs.Time.CurrentTime,
		FocusIDs:  focus,
	}
	for _, id := range rs.World.ObjectIDs() {
		obj := rs.World.Objects[id]
		snap.Objects = append(snap.Objects, b.buildObject(id, obj))
	}
	return snap
}

func (b *Builder) buildObject(id state.ObjectID, obj *state.ObjectState) SnapshotObject {
	return SnapshotObject{
		ID:       b.idFor(id),
		Name:     string(id),
		Geometry: geometryFor(obj),
		Transform: Transform{
			Position: [3]float64{obj.Position.X, obj.Position.Y, obj.Position.Z},
			Rotation: [4]float64{obj.Orientation.X, obj.Orientation.Y, obj.Orientation.Z, obj.Orientation.W},
			Scale:    [3]float64{obj.Scale.X, obj.Scale.Y, obj.Scale.Z},
		},
		Material: defaultMaterial(),
		Visible:  obj.Visible,
	}
}

func (b *Builder) idFor(id state.ObjectID) uint64 {
	if n, ok := b.ids[id]; ok {
		return n
	}
	n := b.nextID
	b.nextID++
	b.ids[id] = n
	return n
}

func geometryFor(obj *state.ObjectState) Geometry {
	s := obj.Scale
	switch obj.Kind {
	case state.KindSphere:
		return Geometry{Kind: "sphere", Radius: s.X * 0.5, Segments: 32}
	case state.KindBox:
		return Geometry{Kind: "box", Width: s.X, Height: s.Y, Depth: s.Z}
	case state.KindCylinder:
		return Geometry{Kind: "cylinder", Radius: s.X * 0.5, Height: s.Y, Segments: 32}
	case state.KindPlane:
		return Geometry{Kind: "plane", Width: s.X, Depth: s.Z}
	default:
		// Points and unknown kinds render as small spheres.
		return Geometry{Kind: "sphere", Radius: 0.05, Segments: 16}
	}
}
