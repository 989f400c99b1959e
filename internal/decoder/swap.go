package decoder

import (
	"math/big"
	"strings"

	"github.com/poolscope/poolscope/internal/catalog"
)

// SwapInfo describes a detected DEX swap. Token identities require path
// decoding and are left empty; amounts are nil when the selector's layout
// did not expose them (nil means unknown, not zero).
type SwapInfo struct {
	DEX          string   `json:"dex"`
	Method       string   `json:"method"`
	TokenIn      string   `json:"token_in,omitempty"`
	TokenOut     string   `json:"token_out,omitempty"`
	AmountIn     *big.Int `json:"amount_in"`
	AmountOutMin *big.Int `json:"amount_out_min"`
	ExactInput   bool     `json:"is_exact_input"`
}

// IdentifySwap reports whether the decoded call is a DEX swap. Calls of any
// other kind yield ok=false.
func IdentifySwap(call DecodedCall) (SwapInfo, bool) {
	if call.Kind != catalog.KindSwap {
		return SwapInfo{}, false
	}

	dex := call.Contract
	if dex == "" {
		dex = "Unknown DEX"
	}

	method := strings.ToLower(call.Method)
	exactInput := strings.Contains(method, "exact") && strings.Contains(method, "input")

	return SwapInfo{
		DEX:          dex,
		Method:       call.Method,
		AmountIn:     paramUint(call.Params, "amountIn"),
		AmountOutMin: paramUint(call.Params, "amountOutMin"),
		ExactInput:   exactInput,
	}, true
}

func paramUint(params map[string]any, key string) *big.Int {
	v, ok := params[key]
	if !ok {
		return nil
	}
	n, ok := v.(*big.Int)
	if !ok {
		return nil
	}
	return n
}
