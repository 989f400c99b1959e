package mev

import (
	"fmt"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/params"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/poolscope/poolscope/internal/catalog"
	"github.com/poolscope/poolscope/internal/decoder"
	"github.com/poolscope/poolscope/pkg/blockchain"
)

const uniswapV2Router = "0x7a250d5630b4cf539739df2c5dacb4c659f2488d"

func newTestDetector(t Thresholds) *Detector {
	return NewDetector(decoder.New(catalog.Default()), t)
}

func ether(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.Ether))
}

func gwei(n int64) *big.Int {
	return new(big.Int).Mul(big.NewInt(n), big.NewInt(params.GWei))
}

func swapTx(hash string, amountIn *big.Int) blockchain.PendingTransaction {
	input := fmt.Sprintf("0x38ed1739%064x%064x", amountIn, big.NewInt(1))
	return blockchain.PendingTransaction{
		Hash:      hash,
		From:      "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		To:        uniswapV2Router,
		Value:     new(big.Int),
		Gas:       200000,
		GasPrice:  gwei(40),
		InputData: input,
	}
}

func transferTx(hash string) blockchain.PendingTransaction {
	return blockchain.PendingTransaction{
		Hash:      hash,
		From:      "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb",
		To:        "0xcccccccccccccccccccccccccccccccccccccccc",
		Value:     ether(1),
		Gas:       21000,
		GasPrice:  gwei(30),
		InputData: "0x",
	}
}

func TestThresholdsResolve(t *testing.T) {
	resolved := Thresholds{}.Resolve()
	assert.Equal(t, float64(DefaultMinSwapValueUSD), resolved.MinSwapValueUSD)
	assert.Equal(t, float64(DefaultMinProfitUSD), resolved.MinProfitUSD)

	custom := Thresholds{MinSwapValueUSD: 500, MinProfitUSD: 10}.Resolve()
	assert.Equal(t, 500.0, custom.MinSwapValueUSD)
	assert.Equal(t, 10.0, custom.MinProfitUSD)
}

// An explicitly configured zero threshold is a real threshold; the
// detector must not swap it for a default.
func TestDetectorHonorsZeroThresholds(t *testing.T) {
	det := newTestDetector(Thresholds{MinSwapValueUSD: 0, MinProfitUSD: 0})
	assert.Zero(t, det.Thresholds().MinSwapValueUSD)
	assert.Zero(t, det.Thresholds().MinProfitUSD)

	// 1 token at 3000 USD, profit well under 100: still emitted.
	swaps := det.DetectPendingSwaps([]blockchain.PendingTransaction{swapTx("0x01", ether(1))}, 3000)
	opportunities := det.DetectSandwich(swaps, 3000)
	require.Len(t, opportunities, 1)
	assert.InDelta(t, 2.7, opportunities[0].EstimatedProfitUSD, 0.01)
}

func TestDetectPendingSwaps(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())

	txs := []blockchain.PendingTransaction{
		transferTx("0x01"),
		swapTx("0x02", ether(50)),
		transferTx("0x03"),
		swapTx("0x04", ether(1)),
	}
	swaps := det.DetectPendingSwaps(txs, 3000)

	require.Len(t, swaps, 2)
	assert.Equal(t, "0x02", swaps[0].TxHash)
	assert.Equal(t, "0x04", swaps[1].TxHash)
	assert.Equal(t, "Uniswap V2 Router", swaps[0].DEX)
	assert.Zero(t, ether(50).Cmp(swaps[0].AmountIn))
	assert.Zero(t, gwei(40).Cmp(swaps[0].GasPrice))
}

func TestDetectPendingSwapsEmptyBatch(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())
	swaps := det.DetectPendingSwaps(nil, 3000)
	assert.NotNil(t, swaps)
	assert.Empty(t, swaps)
}

// 50 tokens at a price of 3000 is a 150,000 USD swap. Slippage caps at
// 5%, so the expected capture is 150000 * 0.05 * 0.3 = 2250 USD with
// 75,000 USD front-run capital.
func TestDetectSandwichScoring(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())

	swaps := det.DetectPendingSwaps([]blockchain.PendingTransaction{swapTx("0xab", ether(50))}, 3000)
	require.Len(t, swaps, 1)

	opportunities := det.DetectSandwich(swaps, 3000)
	require.Len(t, opportunities, 1)

	opp := opportunities[0]
	assert.Equal(t, KindSandwich, opp.Kind)
	assert.Equal(t, "0xab", opp.TargetTx)
	assert.InDelta(t, 2250.0, opp.EstimatedProfitUSD, 0.01)
	assert.InDelta(t, 75000.0, opp.RequiredCapitalUSD, 0.01)
	assert.Equal(t, RiskHigh, opp.Risk)
	assert.Equal(t, 0.3, opp.Confidence)

	assert.Equal(t, "Uniswap V2 Router", opp.Details["dex"])
	assert.InDelta(t, 150000.0, opp.Details["swap_value_usd"].(float64), 0.01)
	assert.InDelta(t, 0.05, opp.Details["target_slippage"].(float64), 1e-9)
	assert.InDelta(t, 40.0, opp.Details["gas_price_gwei"].(float64), 1e-9)
}

func TestDetectSandwichBelowValueThreshold(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())

	// 1 token at 3000 USD is well under the 10,000 USD minimum.
	swaps := det.DetectPendingSwaps([]blockchain.PendingTransaction{swapTx("0x01", ether(1))}, 3000)
	assert.Empty(t, det.DetectSandwich(swaps, 3000))
}

func TestDetectSandwichSkipsUnknownAmounts(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())

	// exactInputSingle exposes no amount layout, so AmountIn is nil.
	tx := swapTx("0x01", ether(50))
	tx.InputData = "0x414bf389" + fmt.Sprintf("%064x", big.NewInt(1))

	swaps := det.DetectPendingSwaps([]blockchain.PendingTransaction{tx}, 3000)
	require.Len(t, swaps, 1)
	require.Nil(t, swaps[0].AmountIn)
	assert.Empty(t, det.DetectSandwich(swaps, 3000))
}

// Raising a threshold can only shrink the result set.
func TestDetectSandwichThresholdMonotonic(t *testing.T) {
	txs := []blockchain.PendingTransaction{
		swapTx("0x01", ether(10)),
		swapTx("0x02", ether(50)),
		swapTx("0x03", ether(500)),
	}

	loose := newTestDetector(Thresholds{MinSwapValueUSD: 1000, MinProfitUSD: 1})
	strict := newTestDetector(Thresholds{MinSwapValueUSD: 200000, MinProfitUSD: 1})

	looseSwaps := loose.DetectPendingSwaps(txs, 3000)
	assert.GreaterOrEqual(t,
		len(loose.DetectSandwich(looseSwaps, 3000)),
		len(strict.DetectSandwich(looseSwaps, 3000)))
}

func TestDetectArbitrageAlwaysEmpty(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())
	swaps := det.DetectPendingSwaps([]blockchain.PendingTransaction{swapTx("0x01", ether(500))}, 3000)

	got := det.DetectArbitrage(swaps)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetectLiquidationAlwaysEmpty(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())
	got := det.DetectLiquidation([]blockchain.PendingTransaction{swapTx("0x01", ether(500))})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestDetectAll(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())
	txs := []blockchain.PendingTransaction{
		transferTx("0x01"),
		swapTx("0x02", ether(50)),
		swapTx("0x03", ether(1)),
	}

	result := det.DetectAll(txs, 3000)
	assert.Equal(t, 2, result.SwapCount)
	assert.Len(t, result.Sandwich, 1)
	assert.Empty(t, result.Arbitrage)
	assert.Empty(t, result.Liquidation)
}

// Detection is a pure function: running it twice over the same batch
// gives identical results.
func TestDetectAllIdempotent(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())
	txs := []blockchain.PendingTransaction{
		swapTx("0x01", ether(50)),
		transferTx("0x02"),
	}

	first := det.DetectAll(txs, 3000)
	second := det.DetectAll(txs, 3000)
	assert.Equal(t, first, second)
}

func TestSortByProfitStable(t *testing.T) {
	opportunities := []Opportunity{
		{TargetTx: "0x01", EstimatedProfitUSD: 50},
		{TargetTx: "0x02", EstimatedProfitUSD: 200},
		{TargetTx: "0x03", EstimatedProfitUSD: 200},
		{TargetTx: "0x04", EstimatedProfitUSD: 10},
	}
	SortByProfit(opportunities)

	hashes := []string{
		opportunities[0].TargetTx,
		opportunities[1].TargetTx,
		opportunities[2].TargetTx,
		opportunities[3].TargetTx,
	}
	assert.Equal(t, []string{"0x02", "0x03", "0x01", "0x04"}, hashes)
}

func TestEmptyInputIsNotASwap(t *testing.T) {
	det := newTestDetector(Thresholds{}.Resolve())
	result := det.DetectAll([]blockchain.PendingTransaction{transferTx("0x01")}, 3000)
	assert.Zero(t, result.SwapCount)
	assert.Empty(t, result.Sandwich)
}
