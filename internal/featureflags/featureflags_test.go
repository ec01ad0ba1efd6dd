package featureflags

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnabled_BooleanValues(t *testing.T) {
	m := NewManager("a=on,b=off,c=true,d=false,e=1,f=0")

	for _, name := range []string{"a", "c", "e"} {
		assert.True(t, m.Enabled(name, 1), name)
	}
	for _, name := range []string{"b", "d", "f", "unknown"} {
		assert.False(t, m.Enabled(name, 1), name)
	}
}

func TestEnabled_KnownFlagDefaults(t *testing.T) {
	m := NewManager("")
	assert.True(t, m.Enabled(PublicGallery, 0))
	assert.True(t, m.Enabled(Thumbnails, 0))

	m = NewManager("public_gallery=off, THUMBNAILS = Off")
	assert.False(t, m.Enabled(PublicGallery, 0))
	assert.False(t, m.Enabled(Thumbnails, 7))

	var nilManager *Manager
	assert.True(t, nilManager.Enabled(PublicGallery, 0))
	assert.Empty(t, nilManager.Raw())
	assert.Equal(t, []string{PublicGallery, Thumbnails}, nilManager.Names())
}

func TestEnabled_PercentageRollout(t *testing.T) {
	m := NewManager("thumbnails=50%,full=100%,none=0%,bad=x%")

	assert.True(t, m.Enabled("full", 0))
	assert.False(t, m.Enabled("none", 5))
	assert.False(t, m.Enabled("bad", 5))
	assert.False(t, m.Enabled(Thumbnails, 0), "anonymous callers are outside partial rollouts")

	// Deterministic per user.
	first := m.Enabled(Thumbnails, 42)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.Enabled(Thumbnails, 42))
	}

	enabled := 0
	for uid := uint(1); uid <= 1000; uid++ {
		if m.Enabled(Thumbnails, uid) {
			enabled++
		}
	}
	assert.InDelta(t, 500, enabled, 150)
}

func TestNewManager_SkipsMalformedPairs(t *testing.T) {
	m := NewManager("ok=on,,novalue=,=on,justkey")
	assert.Equal(t, map[string]string{"ok": "on"}, m.Raw())
}

func TestSnapshotIncludesKnownFlags(t *testing.T) {
	m := NewManager("beta=on")
	snap := m.Snapshot(1)
	assert.Equal(t, map[string]bool{"beta": true, PublicGallery: true, Thumbnails: true}, snap)
	assert.Equal(t, []string{"beta", PublicGallery, Thumbnails}, m.Names())
}
