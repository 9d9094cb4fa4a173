package render

import (
	"fmt"

	"github.com/halverson/orrery/internal/snapshot"
)

// Backend is the contract a rendering engine implements. The bridge
// issues commands; the backend executes them and never calls back.
type Backend interface {
	// CreateObject adds a renderable and returns its render id.
	CreateObject(g snapshot.Geometry, tr snapshot.Transform, m snapshot.Material) (uint64, error)
	UpdateTransform(id uint64, tr snapshot.Transform) error
	UpdateMaterial(id uint64, m snapshot.Material) error
	SetVisible(id uint64, visible bool) error
	RemoveObject(id uint64) error
	ClearScene() error
	// Name identifies the backend in logs.
	Name() string
}

// ObjectError reports a backend command against an unknown render id.
type ObjectError struct {
	Backend string
	Op      string
	ID      uint64
}

func (e *ObjectError) Error() string {
	return fmt.Sprintf("%s: %s: unknown render id %d", e.Backend, e.Op, e.ID)
}
