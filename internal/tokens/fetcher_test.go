package tokens

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	result []byte
	err    error
	msg    ethereum.CallMsg
}

func (c *fakeCaller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.msg = msg
	return c.result, c.err
}

func TestERC20Fetcher_Decimals(t *testing.T) {
	caller := &fakeCaller{result: common.LeftPadBytes([]byte{6}, 32)}
	f := NewERC20Fetcher(caller, 0)

	decimals, err := f.Decimals(context.Background(), weth)
	require.NoError(t, err)
	assert.Equal(t, 6, decimals)

	require.NotNil(t, caller.msg.To)
	assert.Equal(t, weth, *caller.msg.To)
	// decimals() selector
	assert.Equal(t, []byte{0x31, 0x3c, 0xe5, 0x67}, caller.msg.Data)
}

func TestERC20Fetcher_Errors(t *testing.T) {
	tests := []struct {
		name   string
		caller *fakeCaller
	}{
		{"call error", &fakeCaller{err: errors.New("connection refused")}},
		{"empty result", &fakeCaller{result: nil}},
		{"short result", &fakeCaller{result: []byte{1, 2}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewERC20Fetcher(tt.caller, 0).Decimals(context.Background(), weth)
			assert.Error(t, err)
		})
	}
}
