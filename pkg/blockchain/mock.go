package blockchain

import (
	"math/big"
	"math/rand"

	"github.com/ethereum/go-ethereum/params"
)

// Router targets used by the synthetic batch.
var mockRouters = []string{
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d", // Uniswap V2
	"0xe592427a0aece92de3edee1f18e0157c05861564", // Uniswap V3
	"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f", // SushiSwap
}

// swapExactTokensForTokens with zeroed arguments.
const mockSwapInput = "0x38ed1739" + "0000000000000000000000000000000000000000000000000000000000000000" + "0000000000000000000000000000000000000000000000000000000000000000"

const hexDigits = "0123456789abcdef"

// MockPendingTransactions builds a synthetic pending batch for demo mode,
// shaped like real mempool traffic (router swaps around 30 gwei). Callers
// are expected to label the output clearly as mock data.
func MockPendingTransactions(limit int) []PendingTransaction {
	n := limit
	if n > 20 {
		n = 20
	}

	gwei := big.NewInt(params.GWei)
	txs := make([]PendingTransaction, 0, n)
	for i := 0; i < n; i++ {
		gasPrice := new(big.Int).Mul(big.NewInt(25+rand.Int63n(26)), gwei)
		maxFee := new(big.Int).Add(gasPrice, new(big.Int).Mul(big.NewInt(5), gwei))
		txs = append(txs, PendingTransaction{
			Hash:                 randomHex(64),
			From:                 randomHex(40),
			To:                   mockRouters[rand.Intn(len(mockRouters))],
			Value:                new(big.Int).Mul(big.NewInt(rand.Int63n(11)), big.NewInt(params.Ether)),
			Gas:                  uint64(100000 + rand.Intn(400000)),
			GasPrice:             gasPrice,
			MaxFeePerGas:         maxFee,
			MaxPriorityFeePerGas: new(big.Int).Mul(big.NewInt(2), gwei),
			Nonce:                uint64(1 + rand.Intn(1000)),
			InputData:            mockSwapInput,
		})
	}
	return txs
}

func randomHex(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = hexDigits[rand.Intn(len(hexDigits))]
	}
	return "0x" + string(b)
}
