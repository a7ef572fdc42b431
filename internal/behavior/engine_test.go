package behavior

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeIsCached(t *testing.T) {
	tz := newTestZone(t)
	e := EngineOf(tz.Zone)
	assert.Same(t, e, EngineOf(tz.Zone))

	a := e.Tree(20)
	assert.Same(t, a, e.Tree(20))
	assert.Equal(t, TemplateAreaOfEffect, a.Template())
	assert.Equal(t, uint32(20), a.BehaviorID())
	assert.Equal(t, 2, e.Cached(), "AoE and its attack")
}

func TestMissingDataFallsBackToEmpty(t *testing.T) {
	tz := newTestZone(t)
	e := EngineOf(tz.Zone)

	tests := []struct {
		name string
		id   uint32
	}{
		{"zero", 0},
		{"no row", 9999},
		{"unknown template", 80},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := e.Tree(tt.id)
			assert.Equal(t, TemplateEmpty, n.Template())
			assert.NoError(t, n.Execute(nil, Branch{}))
		})
	}
}

func TestMissingChildIsEmpty(t *testing.T) {
	tz := newTestZone(t)
	n, ok := EngineOf(tz.Zone).Tree(93).(*heal)
	require.True(t, ok)
	assert.Equal(t, int32(3), n.amount)

	d, ok := EngineOf(tz.Zone).Tree(91).(*duration)
	require.True(t, ok)
	assert.Equal(t, TemplateTargetCaster, d.action.Template())

	tc, ok := EngineOf(tz.Zone).Tree(190).(*changeOrientation)
	require.True(t, ok)
	assert.True(t, tc.toTarget)
}

func TestCycleIsBroken(t *testing.T) {
	tz := newTestZone(t)
	root, ok := EngineOf(tz.Zone).Tree(70).(*and)
	require.True(t, ok)
	require.Len(t, root.children, 1)

	inner, ok := root.children[0].(*and)
	require.True(t, ok)
	require.Len(t, inner.children, 1)
	assert.Equal(t, TemplateEmpty, inner.children[0].Template())
	assert.Equal(t, uint32(70), inner.children[0].BehaviorID())
}

func TestTemplateNames(t *testing.T) {
	assert.Equal(t, "SwitchMultiple", TemplateSwitchMultiple.String())
	assert.Equal(t, "Template(99)", TemplateID(99).String())
	for id := range templateNames {
		_, ok := templates[id]
		assert.True(t, ok, "template %s has no node", id)
	}
}
