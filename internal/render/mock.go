package render

import (
	"fmt"
	"sort"

	"github.com/halverson/orrery/internal/snapshot"
)

// MockObject is the mock backend's record of one renderable.
type MockObject struct {
	Geometry  snapshot.Geometry
	Transform snapshot.Transform
	Material  snapshot.Material
	Visible   bool
}

// MockBackend records every command for test inspection. It owns its id
// counter; ids are unique for the backend's lifetime and never reused.
type MockBackend struct {
	objects map[uint64]*MockObject
	nextID  uint64
	ops     []string
}

// NewMockBackend creates an empty mock backend.
func NewMockBackend() *MockBackend {
	return &MockBackend{objects: make(map[uint64]*MockObject), nextID: 1}
}

func (m *MockBackend) CreateObject(g snapshot.Geometry, tr snapshot.Transform, mat snapshot.Material) (uint64, error) {
	id := m.nextID
	m.nextID++
	m.objects[id] = &MockObject{Geometry: g, Transform: tr, Material: mat, Visible: true}
	m.ops = append(m.ops, fmt.Sprintf("create %d %s", id, g.Kind))
	return id, nil
}

func (m *MockBackend) UpdateTransform(id uint64, tr snapshot.Transform) error {
	obj, ok := m.objects[id]
	if !ok {
		return &ObjectError{Backend: m.Name(), Op: "update_transform", ID: id}
	}
	obj.Transform = tr
	m.ops = append(m.ops, fmt.Sprintf("transform %d", id))
	return nil
}

func (m *MockBackend) UpdateMaterial(id uint64, mat snapshot.Material) error {
	obj, ok := m.objects[id]
	if !ok {
		return &ObjectError{Backend: m.Name(), Op: "update_material", ID: id}
	}
	obj.Material = mat
	m.ops = append(m.ops, fmt.Sprintf("material %d", id))
	return nil
}

func (m *MockBackend) SetVisible(id uint64, visible bool) error {
	obj, ok := m.objects[id]
	if !ok {
		return &ObjectError{Backend: m.Name(), Op: "set_visible", ID: id}
	}
	obj.Visible = visible
	m.ops = append(m.ops, fmt.Sprintf("visible %d %t", id, visible))
	return nil
}

func (m *MockBackend) RemoveObject(id uint64) error {
	if _, ok := m.objects[id]; !ok {
		return &ObjectError{Backend: m.Name(), Op: "remove", ID: id}
	}
	delete(m.objects, id)
	m.ops = append(m.ops, fmt.Sprintf("remove %d", id))
	return nil
}

func (m *MockBackend) ClearScene() error {
	m.objects = make(map[uint64]*MockObject)
	m.ops = append(m.ops, "clear")
	return nil
}

func (m *MockBackend) Name() string { return "mock" }

// Object returns the recorded object for a render id, or nil.
func (m *MockBackend) Object(id uint64) *MockObject { return m.objects[id] }

// Count returns the number of live objects.
func (m *MockBackend) Count() int { return len(m.objects) }

// IDs returns live render ids in ascending order.
func (m *MockBackend) IDs() []uint64 {
	ids := make([]uint64, 0, len(m.objects))
	for id := range m.objects {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Ops returns the command log in issue order.
func (m *MockBackend) Ops() []string { return m.ops }
