package mempool

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlreadyInMempoolRecognizesKnownMessages(t *testing.T) {
	assert.True(t, alreadyInMempool(errors.New("already have transaction abcd")))
	assert.True(t, alreadyInMempool(errors.New("txn-already-in-mempool")))
	assert.False(t, alreadyInMempool(errors.New("insufficient fee")))
	assert.False(t, alreadyInMempool(nil))
}
