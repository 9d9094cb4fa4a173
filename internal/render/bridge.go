package render

import (
	"io"
	"log/slog"

	"github.com/halverson/orrery/internal/snapshot"
)

// Stats counts bridge activity since construction.
type Stats struct {
	FramesRendered  int `json:"frames_rendered"`
	ObjectsCreated  int `json:"objects_created"`
	ObjectsUpdated  int `json:"objects_updated"`
	ObjectsRemoved  int `json:"objects_removed"`
	ErrorsTolerated int `json:"errors_tolerated"`
}

// Bridge converts renderer snapshots into backend commands. It tracks
// which snapshot objects exist in the backend scene, creating, updating,
// and removing as frames arrive. Per-object failures are logged and
// skipped so one bad object cannot stall the frame.
type Bridge struct {
	backend  Backend
	sceneMap map[uint64]uint64 // snapshot object id -> backend render id
	logger   *slog.Logger
	stats    Stats
}

// BridgeOption customizes bridge construction.
type BridgeOption func(*Bridge)

// WithBridgeLogger sets the structured logger.
func WithBridgeLogger(logger *slog.Logger) BridgeOption {
	return func(b *Bridge) { b.logger = logger }
}

// NewBridge wraps a backend.
func NewBridge(backend Backend, opts ...BridgeOption) *Bridge {
	b := &Bridge{
		backend:  backend,
		sceneMap: make(map[uint64]uint64),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Render pushes one frame to the backend. Objects new to the scene are
// created, known ones updated, and vanished ones removed.
func (b *Bridge) Render(frame *snapshot.RendererSnapshot) error {
	seen := make(map[uint64]bool, len(frame.Objects))

	for _, obj := range frame.Objects {
		seen[obj.ID] = true
		renderID, known := b.sceneMap[obj.ID]
		if !known {
			id, err := b.backend.CreateObject(obj.Geometry, obj.Transform, obj.Material)
			if err != nil {
				b.tolerate("create", obj.Name, err)
				continue
			}
			b.sceneMap[obj.ID] = id
			b.stats.ObjectsCreated++
			continue
		}
		if err := b.backend.UpdateTransform(renderID, obj.Transform); err != nil {
			b.tolerate("update", obj.Name, err)
			continue
		}
		if err := b.backend.SetVisible(renderID, obj.Visible); err != nil {
			b.tolerate("visibility", obj.Name, err)
			continue
		}
		b.stats.ObjectsUpdated++
	}

	for objID, renderID := range b.sceneMap {
		if seen[objID] {
			continue
		}
		if err := b.backend.RemoveObject(renderID); err != nil {
			b.tolerate("remove", "", err)
		}
		delete(b.sceneMap, objID)
		b.stats.ObjectsRemoved++
	}

	b.stats.FramesRendered++
	return nil
}

func (b *Bridge) tolerate(op, name string, err error) {
	b.stats.ErrorsTolerated++
	b.logger.Error("render command failed",
		"backend", b.backend.Name(), "op", op, "object", name, "error", err)
}

// Clear empties the backend scene and forgets all mappings.
func (b *Bridge) Clear() error {
	if err := b.backend.ClearScene(); err != nil {
		return err
	}
	b.sceneMap = make(map[uint64]uint64)
	return nil
}

// Stats returns activity counters.
func (b *Bridge) Stats() Stats { return b.stats }
