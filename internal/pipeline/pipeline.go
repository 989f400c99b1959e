// Package pipeline composes the decode, identify and score stages over
// pending-transaction batches and over live streams.
package pipeline

import (
	"github.com/poolscope/poolscope/internal/decoder"
	"github.com/poolscope/poolscope/internal/mev"
	"github.com/poolscope/poolscope/pkg/blockchain"
)

// Report is the aggregate outcome of one analysis pass.
type Report struct {
	PendingCount int               `json:"pending_count"`
	SwapCount    int               `json:"swap_count"`
	Sandwich     []mev.Opportunity `json:"sandwich"`
	Arbitrage    []mev.Opportunity `json:"arbitrage"`
	Liquidation  []mev.Opportunity `json:"liquidation"`
}

// Opportunities flattens all detected opportunities, sandwich first.
func (r Report) Opportunities() []mev.Opportunity {
	out := make([]mev.Opportunity, 0, len(r.Sandwich)+len(r.Arbitrage)+len(r.Liquidation))
	out = append(out, r.Sandwich...)
	out = append(out, r.Arbitrage...)
	out = append(out, r.Liquidation...)
	return out
}

// Pipeline wires a decoder and detector together. It adds no decision
// logic of its own: batches pass through the stages unfiltered and in
// order.
type Pipeline struct {
	dec *decoder.Decoder
	det *mev.Detector
}

// New builds a pipeline from explicitly supplied stages.
func New(dec *decoder.Decoder, det *mev.Detector) *Pipeline {
	return &Pipeline{dec: dec, det: det}
}

// Decoder exposes the decode stage for consumers that classify
// individual transactions (tables, stream alerts).
func (p *Pipeline) Decoder() *decoder.Decoder { return p.dec }

// Detector exposes the scoring stage.
func (p *Pipeline) Detector() *mev.Detector { return p.det }

// Analyze runs the full batch pipeline: identify swaps, score every
// heuristic, aggregate counts.
func (p *Pipeline) Analyze(txs []blockchain.PendingTransaction, ethPrice float64) Report {
	result := p.det.DetectAll(txs, ethPrice)
	return Report{
		PendingCount: len(txs),
		SwapCount:    result.SwapCount,
		Sandwich:     result.Sandwich,
		Arbitrage:    result.Arbitrage,
		Liquidation:  result.Liquidation,
	}
}
