package world

import (
	"sync"

	"github.com/lugo/server/internal/core/ecs"
)

// MaskFilter admits objects whose layers all lie inside ViewMask.
type MaskFilter struct {
	mu       sync.RWMutex
	viewMask Mask
}

func NewMaskFilter(m Mask) *MaskFilter { return &MaskFilter{viewMask: m} }

func (f *MaskFilter) ViewMask() Mask {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.viewMask
}

func (f *MaskFilter) SetViewMask(m Mask) {
	f.mu.Lock()
	f.viewMask = m
	f.mu.Unlock()
}

func (f *MaskFilter) View(obj *GameObject) bool {
	return obj.Layer()&^f.ViewMask() == 0
}

// RenderDistanceFilter admits objects within Distance of the viewer. The
// viewer itself is always admitted.
type RenderDistanceFilter struct {
	viewer *GameObject

	mu       sync.RWMutex
	distance float32
	origin   Vector3
}

// NewRenderDistanceFilter caches the zone's ghost distance.
func NewRenderDistanceFilter(viewer *GameObject) *RenderDistanceFilter {
	f := &RenderDistanceFilter{viewer: viewer, distance: viewer.Zone().RenderDistance()}
	f.origin = viewer.Position()
	return f
}

func (f *RenderDistanceFilter) Distance() float32 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.distance
}

func (f *RenderDistanceFilter) SetDistance(d float32) {
	f.mu.Lock()
	f.distance = d
	f.mu.Unlock()
}

// Tick samples the viewer's position.
func (f *RenderDistanceFilter) Tick() {
	p := f.viewer.Position()
	f.mu.Lock()
	f.origin = p
	f.mu.Unlock()
}

func (f *RenderDistanceFilter) View(obj *GameObject) bool {
	if obj == f.viewer {
		return true
	}
	f.mu.RLock()
	origin, dist := f.origin, f.distance
	f.mu.RUnlock()
	return Distance(origin, obj.Position()) <= dist
}

// FlagFilter hides objects tied to flags the player has already set, such
// as collected collectibles.
type FlagFilter struct {
	mu    sync.RWMutex
	flags map[uint32]struct{}
}

func NewFlagFilter() *FlagFilter {
	return &FlagFilter{flags: make(map[uint32]struct{})}
}

func (f *FlagFilter) Set(flag uint32) {
	f.mu.Lock()
	f.flags[flag] = struct{}{}
	f.mu.Unlock()
}

func (f *FlagFilter) Unset(flag uint32) {
	f.mu.Lock()
	delete(f.flags, flag)
	f.mu.Unlock()
}

func (f *FlagFilter) IsSet(flag uint32) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.flags[flag]
	return ok
}

func (f *FlagFilter) View(obj *GameObject) bool {
	c, ok := GetComponent[*Collectible](obj)
	if !ok {
		return true
	}
	return !f.IsSet(c.Flag())
}

// ExcludeFilter hides individual objects from one player.
type ExcludeFilter struct {
	mu       sync.RWMutex
	excluded map[ecs.ObjectID]struct{}
}

func NewExcludeFilter() *ExcludeFilter {
	return &ExcludeFilter{excluded: make(map[ecs.ObjectID]struct{})}
}

func (f *ExcludeFilter) Exclude(id ecs.ObjectID) {
	f.mu.Lock()
	f.excluded[id] = struct{}{}
	f.mu.Unlock()
}

func (f *ExcludeFilter) Include(id ecs.ObjectID) {
	f.mu.Lock()
	delete(f.excluded, id)
	f.mu.Unlock()
}

func (f *ExcludeFilter) View(obj *GameObject) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, hidden := f.excluded[obj.ID()]
	return !hidden
}
