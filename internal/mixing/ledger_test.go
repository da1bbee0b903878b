package mixing

import (
	"testing"

	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/assert"
)

func TestLedgerStampTracksLastSeen(t *testing.T) {
	l := NewLedger()
	coord := wire.OutPoint{Index: 1}

	assert.EqualValues(t, 0, l.Count())
	l.Stamp(coord)
	assert.EqualValues(t, 1, l.Count())
	assert.EqualValues(t, 1, l.LastFor(coord))
}

func TestLedgerTooRecentScalesWithRegistrySize(t *testing.T) {
	l := NewLedger()
	coord := wire.OutPoint{Index: 1}

	l.Stamp(coord)
	assert.True(t, l.TooRecent(coord, 10))

	other := wire.OutPoint{Index: 2}
	for i := 0; i < 3; i++ {
		l.Stamp(other)
	}
	assert.False(t, l.TooRecent(coord, 10))
}

func TestLedgerTooRecentUnknownCoordinatorIsNotRecentOnceTotalGrows(t *testing.T) {
	l := NewLedger()
	coord := wire.OutPoint{Index: 1}
	for i := 0; i < 20; i++ {
		l.Stamp(coord)
	}
	assert.False(t, l.TooRecent(wire.OutPoint{Index: 99}, 10))
}
