package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, "u1"), name)
	}
	for _, name := range []string{"b", "d", "f", "missing"} {
		assert.False(t, m.Enabled(name, "u1"), name)
	}
}

func TestEnabled_Percentages(t *testing.T) {
	m := NewManager("always=100%,never=0%,canary=25%,over=250%")

	assert.True(t, m.Enabled("always", "u1"))
	assert.True(t, m.Enabled("over", "u1"), "values above 100% are clamped")
	assert.False(t, m.Enabled("never", "u1"))
	assert.False(t, m.Enabled("canary", ""), "partial rollouts need a user")

	first := m.Enabled("canary", "user-42")
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled("canary", "user-42"), "evaluation is stable per user")
	}

	enabled := 0
	for i := 0; i < 1000; i++ {
		if m.Enabled("canary", "user-"+string(rune('a'+i%26))+string(rune('a'+i/26%26))) {
			enabled++
		}
	}
	assert.Greater(t, enabled, 0)
	assert.Less(t, enabled, 1000)
}

func TestNewManager_SkipsMalformed(t *testing.T) {
	m := NewManager(" bad ,x=on, Y = 20% ,z=maybe,=on,w= ")

	assert.Equal(t, []string{"x", "y"}, m.Names())
	snap := m.Snapshot("")
	assert.Equal(t, map[string]any{"value": "on", "enabled": true}, snap["x"])
	assert.Equal(t, map[string]any{"value": "20%", "enabled": false}, snap["y"])
}

func TestNilManager(t *testing.T) {
	var m *Manager
	assert.False(t, m.Enabled(EventStream, "u1"))
	assert.Empty(t, m.Names())
}
