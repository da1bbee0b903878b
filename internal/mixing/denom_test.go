package mixing

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/assert"
)

func TestStandardDenominationsRoundTripAmountToDenom(t *testing.T) {
	for _, amt := range StandardDenominations() {
		d, ok := AmountToDenom(amt)
		require := assert.New(t)
		require.True(ok, "amount %d should map to a denomination", amt)
		require.True(IsValidDenomination(d))

		back, ok := DenomToAmount(d)
		require.True(ok)
		require.Equal(amt, back)
	}
}

func TestIsValidDenominationRejectsUnknownBits(t *testing.T) {
	assert.False(t, IsValidDenomination(Denomination(0)))
	assert.False(t, IsValidDenomination(Denomination(1<<10)))
}

func TestDenomToAmountInvalid(t *testing.T) {
	_, ok := DenomToAmount(Denomination(0))
	assert.False(t, ok)
}

func TestSmallestDenomination(t *testing.T) {
	assert.Equal(t, btcutil.Amount(1e8)/100, SmallestDenomination())
}

func TestAmountToDenomUnknownAmount(t *testing.T) {
	_, ok := AmountToDenom(btcutil.Amount(12345))
	assert.False(t, ok)
}

func TestDenominationsForCombinesOutputs(t *testing.T) {
	one, ok := DenomToAmount(Denom1)
	assert.True(t, ok)
	tenth, ok := DenomToAmount(DenomTenth)
	assert.True(t, ok)

	got := DenominationsFor([]int64{int64(one), int64(tenth)})
	assert.Equal(t, Denom1|DenomTenth, got)
}

func TestDenominationsForUnknownAmountContributesNothing(t *testing.T) {
	got := DenominationsFor([]int64{999})
	assert.Equal(t, Denomination(0), got)
}

func TestDenominationsForEmptyIsZero(t *testing.T) {
	assert.Equal(t, Denomination(0), DenominationsFor(nil))
}
