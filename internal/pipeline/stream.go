package pipeline

import (
	"context"

	"github.com/reugn/go-streams"
	"github.com/reugn/go-streams/flow"

	"github.com/poolscope/poolscope/internal/decoder"
	"github.com/poolscope/poolscope/internal/mev"
	"github.com/poolscope/poolscope/pkg/blockchain"
)

// StreamEvent is one classified transaction from a live feed, with any
// opportunities its swap produced.
type StreamEvent struct {
	Tx            blockchain.PendingTransaction `json:"tx"`
	Call          decoder.DecodedCall           `json:"call"`
	Opportunities []mev.Opportunity             `json:"opportunities"`
}

// Stream runs the pipeline over a live source until ctx is cancelled or
// the source closes. Each transaction is classified and scored on its
// own; handle is called from a single goroutine in arrival order.
func (p *Pipeline) Stream(ctx context.Context, source streams.Source, ethPrice float64, handle func(StreamEvent)) {
	classify := flow.NewMap(func(v any) StreamEvent {
		return p.classifyOne(v.(blockchain.PendingTransaction), ethPrice)
	}, 1)

	done := make(chan struct{})
	sink := newFuncSink(func(v any) {
		handle(v.(StreamEvent))
	}, done)

	go func() {
		source.Via(classify).To(sink)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
}

// classifyOne runs decode, identify and sandwich scoring for a single
// transaction. Per-transaction results are independent, so scoring a
// one-element batch matches the batch pipeline's output for that entry.
func (p *Pipeline) classifyOne(tx blockchain.PendingTransaction, ethPrice float64) StreamEvent {
	call := p.dec.Decode(tx.InputData, tx.To)
	event := StreamEvent{Tx: tx, Call: call, Opportunities: []mev.Opportunity{}}

	batch := []blockchain.PendingTransaction{tx}
	swaps := p.det.DetectPendingSwaps(batch, ethPrice)
	if len(swaps) > 0 {
		event.Opportunities = p.det.DetectSandwich(swaps, ethPrice)
	}
	return event
}

// funcSink adapts a callback into a streams.Sink and signals completion.
type funcSink struct {
	in   chan any
	done chan struct{}
}

func newFuncSink(fn func(any), done chan struct{}) *funcSink {
	s := &funcSink{in: make(chan any), done: done}
	go func() {
		defer close(done)
		for v := range s.in {
			fn(v)
		}
	}()
	return s
}

// In implements streams.Sink.
func (s *funcSink) In() chan<- any { return s.in }

// AwaitCompletion blocks until the upstream flow closes.
func (s *funcSink) AwaitCompletion() { <-s.done }
