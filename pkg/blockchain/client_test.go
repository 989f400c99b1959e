package blockchain

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wireTx(to *common.Address, value int64) *rpcTransaction {
	return &rpcTransaction{
		Hash:     common.HexToHash("0x01"),
		From:     common.HexToAddress("0xAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAAA"),
		To:       to,
		Value:    (*hexutil.Big)(big.NewInt(value)),
		Gas:      21000,
		GasPrice: (*hexutil.Big)(big.NewInt(1000000000)),
		Nonce:    7,
		Input:    hexutil.Bytes{},
	}
}

func TestToPendingLowercasesAddresses(t *testing.T) {
	to := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	tx := wireTx(&to, 42).toPending()

	assert.Equal(t, "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", tx.From)
	assert.Equal(t, "0x7a250d5630b4cf539739df2c5dacb4c659f2488d", tx.To)
	assert.Equal(t, uint64(21000), tx.Gas)
	assert.Equal(t, uint64(7), tx.Nonce)
	assert.Zero(t, big.NewInt(42).Cmp(tx.Value))
	assert.Equal(t, "0x", tx.InputData)
	assert.Nil(t, tx.MaxFeePerGas)
	assert.Nil(t, tx.BlockNumber)
}

func TestToPendingContractCreation(t *testing.T) {
	tx := wireTx(nil, 0).toPending()
	assert.Empty(t, tx.To)
}

func TestToPendingNilAmountsBecomeZero(t *testing.T) {
	raw := &rpcTransaction{Hash: common.HexToHash("0x02")}
	tx := raw.toPending()
	require.NotNil(t, tx.Value)
	require.NotNil(t, tx.GasPrice)
	assert.Zero(t, tx.Value.Sign())
	assert.Zero(t, tx.GasPrice.Sign())
}

func TestFlattenTxpoolHonorsLimit(t *testing.T) {
	to := common.HexToAddress("0x7a250d5630B4cF539739dF2C5dAcb4c659F2488D")
	content := txpoolContent{
		Pending: map[string]map[string]*rpcTransaction{
			"0xsender1": {
				"0": wireTx(&to, 1),
				"1": wireTx(&to, 2),
			},
			"0xsender2": {
				"5": wireTx(&to, 3),
			},
		},
		Queued: map[string]map[string]*rpcTransaction{
			"0xsender3": {
				"9": wireTx(&to, 4),
			},
		},
	}

	assert.Len(t, flattenTxpool(content, 10), 4)
	assert.Len(t, flattenTxpool(content, 2), 2)
	assert.Empty(t, flattenTxpool(txpoolContent{}, 10))
}
