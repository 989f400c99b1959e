// Package gas summarizes the gas-price distribution of a pending
// transaction batch and derives simple fee recommendations from the
// current base fee.
package gas

import (
	"math/big"
	"sort"

	"github.com/ethereum/go-ethereum/params"

	"github.com/poolscope/poolscope/pkg/blockchain"
)

// Distribution describes the gas prices observed across a pending batch.
// All amounts are in wei.
type Distribution struct {
	PendingCount int      `json:"pending_count"`
	Min          *big.Int `json:"min"`
	Max          *big.Int `json:"max"`
	Mean         *big.Int `json:"mean"`
	Median       *big.Int `json:"median"`
	P25          *big.Int `json:"p25"`
	P75          *big.Int `json:"p75"`
	P90          *big.Int `json:"p90"`
	AboveBaseFee int      `json:"above_base_fee"`
	EIP1559Share float64  `json:"eip1559_share"`
}

// Recommendation is a suggested fee setting for one urgency level.
type Recommendation struct {
	Label       string   `json:"label"`
	PriorityFee *big.Int `json:"priority_fee"`
	MaxFee      *big.Int `json:"max_fee"`
}

// Analyze computes the gas-price distribution of a batch. baseFee may be
// nil when the node did not report one. An empty batch yields a zeroed
// distribution, not an error.
func Analyze(txs []blockchain.PendingTransaction, baseFee *big.Int) Distribution {
	dist := Distribution{PendingCount: len(txs)}
	if len(txs) == 0 {
		return dist
	}

	prices := make([]*big.Int, 0, len(txs))
	sum := new(big.Int)
	eip1559 := 0
	for _, tx := range txs {
		price := tx.GasPrice
		if price == nil {
			price = new(big.Int)
		}
		prices = append(prices, price)
		sum.Add(sum, price)
		if tx.MaxFeePerGas != nil {
			eip1559++
		}
		if baseFee != nil && price.Cmp(baseFee) > 0 {
			dist.AboveBaseFee++
		}
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].Cmp(prices[j]) < 0 })

	dist.Min = prices[0]
	dist.Max = prices[len(prices)-1]
	dist.Mean = sum.Div(sum, big.NewInt(int64(len(prices))))
	dist.Median = percentile(prices, 50)
	dist.P25 = percentile(prices, 25)
	dist.P75 = percentile(prices, 75)
	dist.P90 = percentile(prices, 90)
	dist.EIP1559Share = float64(eip1559) / float64(len(txs))

	return dist
}

// Recommendations derives slow/standard/fast fee suggestions from the
// base fee: 1, 2 and 3 gwei priority respectively, max fee at twice the
// base fee plus the priority to ride out base-fee growth.
func Recommendations(baseFee *big.Int) []Recommendation {
	if baseFee == nil {
		baseFee = new(big.Int)
	}

	levels := []struct {
		label        string
		priorityGwei int64
	}{
		{"slow", 1},
		{"standard", 2},
		{"fast", 3},
	}

	recs := make([]Recommendation, 0, len(levels))
	for _, l := range levels {
		priority := new(big.Int).Mul(big.NewInt(l.priorityGwei), big.NewInt(params.GWei))
		maxFee := new(big.Int).Mul(baseFee, big.NewInt(2))
		maxFee.Add(maxFee, priority)
		recs = append(recs, Recommendation{
			Label:       l.label,
			PriorityFee: priority,
			MaxFee:      maxFee,
		})
	}
	return recs
}

// percentile picks the nearest-rank value from an ascending slice.
func percentile(sorted []*big.Int, p int) *big.Int {
	if len(sorted) == 0 {
		return new(big.Int)
	}
	idx := p * (len(sorted) - 1) / 100
	return sorted[idx]
}
