// Package mev scores pending DEX swaps as speculative MEV opportunity
// candidates using threshold heuristics.
//
// The numbers here are heuristic placeholders: swap value is estimated
// by treating amount-in as an 18-decimal native amount regardless of the
// actual token, slippage grows linearly with value up to a 5% cap, and a
// fixed 30% of that slippage is assumed capturable. None of this consults
// pool state; treat the output as candidates to investigate, not profit
// predictions.
package mev

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/params"

	"github.com/poolscope/poolscope/internal/decoder"
	"github.com/poolscope/poolscope/pkg/blockchain"
)

// Kind is a category of MEV opportunity.
type Kind string

const (
	KindSandwich    Kind = "sandwich"
	KindArbitrage   Kind = "arbitrage"
	KindLiquidation Kind = "liquidation"
	KindBackrun     Kind = "backrun"
)

// RiskLevel grades how likely an opportunity is to go wrong.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Default thresholds, used when neither a config file nor an explicit
// override provides a value.
const (
	DefaultMinSwapValueUSD = 10000
	DefaultMinProfitUSD    = 100
)

// Sandwich heuristic constants. Placeholder values; no ground truth
// exists to tune them against.
const (
	slippageCap        = 0.05    // slippage estimate is capped at 5%
	slippageValueScale = 1000000 // estimated slippage = valueUSD / this, pre-cap
	captureFraction    = 0.3     // share of slippage assumed capturable
	capitalFraction    = 0.5     // front-run capital relative to swap value
	sandwichConfidence = 0.3     // constant without pool analysis
)

// PendingSwap is a detected swap bound to its originating transaction.
type PendingSwap struct {
	TxHash       string   `json:"tx_hash"`
	DEX          string   `json:"dex"`
	AmountIn     *big.Int `json:"amount_in"`
	AmountOutMin *big.Int `json:"amount_out_min"`
	GasPrice     *big.Int `json:"gas_price"`
	From         string   `json:"from_address"`
}

// Opportunity is a scored MEV candidate.
type Opportunity struct {
	Kind               Kind           `json:"opportunity_type"`
	TargetTx           string         `json:"target_tx"`
	EstimatedProfitUSD float64        `json:"estimated_profit_usd"`
	RequiredCapitalUSD float64        `json:"required_capital_usd"`
	Risk               RiskLevel      `json:"risk_level"`
	Confidence         float64        `json:"confidence"`
	Details            map[string]any `json:"details"`
}

// Result aggregates one full detection pass over a transaction batch.
type Result struct {
	SwapCount   int           `json:"pending_swaps"`
	Sandwich    []Opportunity `json:"sandwich"`
	Arbitrage   []Opportunity `json:"arbitrage"`
	Liquidation []Opportunity `json:"liquidation"`
}

// Thresholds configures the detector. The detector applies them exactly
// as given; an explicitly configured zero is a real threshold, not an
// absent one. Callers constructing thresholds without a config source
// can fill the blanks with Resolve.
type Thresholds struct {
	MinSwapValueUSD float64
	MinProfitUSD    float64
}

// Resolve fills zero-valued thresholds with the built-in defaults. Only
// for callers that have no config source to distinguish "unset" from an
// explicit zero; config resolution happens in the config package.
func (t Thresholds) Resolve() Thresholds {
	if t.MinSwapValueUSD <= 0 {
		t.MinSwapValueUSD = DefaultMinSwapValueUSD
	}
	if t.MinProfitUSD <= 0 {
		t.MinProfitUSD = DefaultMinProfitUSD
	}
	return t
}

// Detector runs the opportunity heuristics. All methods are pure
// transformations over their inputs; a Detector is safe for concurrent
// use once constructed.
type Detector struct {
	dec        *decoder.Decoder
	thresholds Thresholds
}

// NewDetector builds a detector around an explicitly supplied decoder.
// Thresholds are used as given.
func NewDetector(dec *decoder.Decoder, t Thresholds) *Detector {
	return &Detector{dec: dec, thresholds: t}
}

// Thresholds returns the thresholds in effect.
func (d *Detector) Thresholds() Thresholds { return d.thresholds }

// DetectPendingSwaps maps each transaction through decode and swap
// identification, keeping order. ethPrice is part of the detection
// interface but only consumed at scoring time by the current heuristics.
func (d *Detector) DetectPendingSwaps(txs []blockchain.PendingTransaction, ethPrice float64) []PendingSwap {
	_ = ethPrice

	swaps := make([]PendingSwap, 0)
	for _, tx := range txs {
		call := d.dec.Decode(tx.InputData, tx.To)
		info, ok := decoder.IdentifySwap(call)
		if !ok {
			continue
		}
		swaps = append(swaps, PendingSwap{
			TxHash:       tx.Hash,
			DEX:          info.DEX,
			AmountIn:     info.AmountIn,
			AmountOutMin: info.AmountOutMin,
			GasPrice:     tx.GasPrice,
			From:         tx.From,
		})
	}
	return swaps
}

// DetectSandwich scores swaps as sandwich candidates. A swap qualifies
// when its estimated USD value and estimated profit both clear the
// configured thresholds.
func (d *Detector) DetectSandwich(swaps []PendingSwap, ethPrice float64) []Opportunity {
	opportunities := make([]Opportunity, 0)

	for _, swap := range swaps {
		if swap.AmountIn == nil {
			continue
		}

		// Known approximation: amount-in is treated as an 18-decimal
		// native amount whatever the input token actually is.
		valueUSD := weiToFloat(swap.AmountIn, params.Ether) * ethPrice
		if valueUSD < d.thresholds.MinSwapValueUSD {
			continue
		}

		slippage := valueUSD / slippageValueScale
		if slippage > slippageCap {
			slippage = slippageCap
		}
		profit := valueUSD * slippage * captureFraction
		if profit < d.thresholds.MinProfitUSD {
			continue
		}

		opportunities = append(opportunities, Opportunity{
			Kind:               KindSandwich,
			TargetTx:           swap.TxHash,
			EstimatedProfitUSD: profit,
			RequiredCapitalUSD: valueUSD * capitalFraction,
			Risk:               RiskHigh,
			Confidence:         sandwichConfidence,
			Details: map[string]any{
				"dex":             swap.DEX,
				"swap_value_usd":  valueUSD,
				"target_slippage": slippage,
				"gas_price_gwei":  weiToFloat(swap.GasPrice, params.GWei),
			},
		})
	}

	return opportunities
}

// DetectArbitrage is an extension point. Real detection needs pool prices
// across venues, which this system deliberately does not read, so it
// always reports nothing.
func (d *Detector) DetectArbitrage(swaps []PendingSwap) []Opportunity {
	return []Opportunity{}
}

// DetectLiquidation is an extension point. Real detection needs lending
// protocol position state, out of scope here, so it always reports nothing.
func (d *Detector) DetectLiquidation(txs []blockchain.PendingTransaction) []Opportunity {
	return []Opportunity{}
}

// DetectAll runs swap identification and every heuristic over one batch.
func (d *Detector) DetectAll(txs []blockchain.PendingTransaction, ethPrice float64) Result {
	swaps := d.DetectPendingSwaps(txs, ethPrice)
	return Result{
		SwapCount:   len(swaps),
		Sandwich:    d.DetectSandwich(swaps, ethPrice),
		Arbitrage:   d.DetectArbitrage(swaps),
		Liquidation: d.DetectLiquidation(txs),
	}
}

// SortByProfit orders opportunities by estimated profit, highest first.
// The sort is stable so equal-profit entries keep encounter order.
func SortByProfit(opportunities []Opportunity) {
	sort.SliceStable(opportunities, func(i, j int) bool {
		return opportunities[i].EstimatedProfitUSD > opportunities[j].EstimatedProfitUSD
	})
}

// weiToFloat converts a base-unit amount to a float in the given unit
// (params.Ether or params.GWei). nil amounts count as zero.
func weiToFloat(wei *big.Int, unit int64) float64 {
	if wei == nil {
		return 0
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, new(big.Float).SetInt64(unit))
	out, _ := f.Float64()
	return out
}
