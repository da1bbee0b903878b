package mixing

import (
	"github.com/btcsuite/btcd/btcutil"
)

// Denomination is a single-bit code identifying one of the standard
// mix amounts, mirroring the bitset encoding privatesend.h uses for
// nSessionDenom.
type Denomination uint32

const coin = btcutil.Amount(1e8)

const (
	Denom10    Denomination = 1 << 0
	Denom1     Denomination = 1 << 1
	DenomTenth Denomination = 1 << 2
	DenomCent  Denomination = 1 << 3
)

var denomTable = []struct {
	code Denomination
	amt  btcutil.Amount
}{
	{Denom10, 10 * coin},
	{Denom1, coin},
	{DenomTenth, coin / 10},
	{DenomCent, coin / 100},
}

// StandardDenominations returns the catalog of mixable amounts, largest first.
func StandardDenominations() []btcutil.Amount {
	out := make([]btcutil.Amount, len(denomTable))
	for i, d := range denomTable {
		out[i] = d.amt
	}
	return out
}

// SmallestDenomination is the floor amount collateral fees are derived from.
func SmallestDenomination() btcutil.Amount {
	return denomTable[len(denomTable)-1].amt
}

// IsValidDenomination reports whether d is exactly one of the standard codes.
func IsValidDenomination(d Denomination) bool {
	for _, e := range denomTable {
		if e.code == d {
			return true
		}
	}
	return false
}

// DenomToAmount maps a denomination code to its amount.
func DenomToAmount(d Denomination) (btcutil.Amount, bool) {
	for _, e := range denomTable {
		if e.code == d {
			return e.amt, true
		}
	}
	return 0, false
}

// AmountToDenom maps an exact amount back to its denomination code.
func AmountToDenom(a btcutil.Amount) (Denomination, bool) {
	for _, e := range denomTable {
		if e.amt == a {
			return e.code, true
		}
	}
	return 0, false
}

// DenominationsFor ORs together the denomination code of every output,
// the same aggregate libdash uses to tell whether a set of outputs is
// uniformly denominated.
func DenominationsFor(outputs []int64) Denomination {
	var code Denomination
	for _, v := range outputs {
		if d, ok := AmountToDenom(btcutil.Amount(v)); ok {
			code |= d
		}
	}
	return code
}
