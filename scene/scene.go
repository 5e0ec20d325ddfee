// Package scene assembles bodies into a renderable whole: an immutable body
// store, per-body motion models, and the frame engine that turns a
// simulation time into a spatially consistent snapshot of every body.
package scene

import (
	"fmt"
	"sync"

	"github.com/signalsfoundry/orbital-visualizer/model"
)

// Scene is a store of celestial bodies. Bodies are added while loading a
// scenario and treated as immutable afterwards; configuration changes build
// a new Scene and swap it into the engine rather than mutating this one.
type Scene struct {
	mu sync.RWMutex

	Name string

	bodies map[string]*model.Body
	// order preserves insertion order so frames list bodies
	// deterministically.
	order []string
}

// New constructs an empty scene.
func New(name string) *Scene {
	return &Scene{
		Name:   name,
		bodies: make(map[string]*model.Body),
	}
}

// AddBody adds a new body. It returns an error if the ID already exists or
// the referenced parent has not been added yet (parents must precede their
// children so frame computation can resolve positions in one pass).
func (s *Scene) AddBody(b *model.Body) error {
	if b == nil || b.ID == "" {
		return fmt.Errorf("scene: body must have an ID")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.bodies[b.ID]; exists {
		return fmt.Errorf("scene: body with ID %q already exists", b.ID)
	}
	if b.ParentID != "" {
		if _, ok := s.bodies[b.ParentID]; !ok {
			return fmt.Errorf("scene: parent %q not found for body %q", b.ParentID, b.ID)
		}
	}
	s.bodies[b.ID] = b
	s.order = append(s.order, b.ID)
	return nil
}

// Body returns the body with the given ID, or nil if not found.
func (s *Scene) Body(id string) *model.Body {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bodies[id]
}

// Bodies returns all bodies in insertion order (parents before children).
func (s *Scene) Bodies() []*model.Body {
	s.mu.RLock()
	defer s.mu.RUnlock()

	res := make([]*model.Body, 0, len(s.order))
	for _, id := range s.order {
		res = append(res, s.bodies[id])
	}
	return res
}

// Len returns the number of bodies in the scene.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}
