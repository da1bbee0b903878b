package chainsync

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStaticReflectsSetValue(t *testing.T) {
	m := NewStatic(true)
	assert.True(t, m.Synced())

	m.Set(false)
	assert.False(t, m.Synced())
}

func TestStaticImplementsMonitor(t *testing.T) {
	var _ Monitor = NewStatic(false)
}
