// Package decoder turns raw transaction input data into a structured call
// description using the selector catalog, and identifies DEX swaps among
// the decoded calls.
//
// Decoding is total: any byte string, including empty, truncated or
// non-hex input, yields a DecodedCall. The worst case is Kind "unknown"
// with an empty parameter map.
package decoder

import (
	"math/big"
	"strings"

	"github.com/poolscope/poolscope/internal/catalog"
)

// selectorHexLen is "0x" plus 8 hex digits (4 bytes).
const selectorHexLen = 10

// wordHexLen is one ABI word: 32 bytes as hex characters.
const wordHexLen = 64

// DecodedCall is the semantic description of one transaction's calldata.
type DecodedCall struct {
	Method   string         `json:"method_name"`
	Kind     catalog.Kind   `json:"method_type"`
	Contract string         `json:"contract_name,omitempty"`
	Selector string         `json:"raw_signature"`
	Params   map[string]any `json:"params"`
}

// Decoder resolves calldata against a selector catalog. It keeps no state
// beyond the catalog reference and is safe for concurrent use.
type Decoder struct {
	catalog *catalog.Catalog
}

// New returns a decoder backed by the given catalog.
func New(c *catalog.Catalog) *Decoder {
	return &Decoder{catalog: c}
}

// Decode decodes transaction input data. toAddress may be empty (contract
// creation); it is only used to resolve the contract label.
func (d *Decoder) Decode(inputData, toAddress string) DecodedCall {
	if inputData == "" || inputData == catalog.NativeTransferSelector {
		return DecodedCall{
			Method:   "ETH Transfer",
			Kind:     catalog.KindTransfer,
			Contract: d.contractName(toAddress),
			Selector: catalog.NativeTransferSelector,
			Params:   map[string]any{},
		}
	}

	selector := inputData
	if len(selector) > selectorHexLen {
		selector = selector[:selectorHexLen]
	}
	selector = strings.ToLower(selector)

	entry, ok := d.catalog.Selector(selector)
	if !ok {
		entry = catalog.Entry{Name: "Unknown", Kind: catalog.KindUnknown}
	}

	return DecodedCall{
		Method:   entry.Name,
		Kind:     entry.Kind,
		Contract: d.contractName(toAddress),
		Selector: selector,
		Params:   decodeParams(inputData, selector),
	}
}

func (d *Decoder) contractName(address string) string {
	if address == "" {
		return ""
	}
	name, _ := d.catalog.Contract(address)
	return name
}

// decodeParams extracts named parameters for the selectors with a fixed,
// known word layout. Everything else gets an empty map; no speculative
// decoding.
func decodeParams(inputData, selector string) map[string]any {
	params := map[string]any{}
	if len(inputData) < selectorHexLen {
		return params
	}

	data := inputData[selectorHexLen:]
	if data == "" {
		return params
	}

	words := splitWords(data)

	switch selector {
	case "0x38ed1739", "0x8803dbee":
		// swapExactTokensForTokens / swapTokensForExactTokens
		params["amountIn"] = wordUint(words, 0)
		params["amountOutMin"] = wordUint(words, 1)
	case "0x7ff36ab5", "0xfb3bdb41":
		// swapExactETHForTokens / swapETHForExactTokens
		params["amountOutMin"] = wordUint(words, 0)
	case "0xa9059cbb":
		// transfer(address,uint256)
		params["to"] = wordAddress(words, 0)
		params["amount"] = wordUint(words, 1)
	case "0x095ea7b3":
		// approve(address,uint256)
		params["spender"] = wordAddress(words, 0)
		params["amount"] = wordUint(words, 1)
	}

	return params
}

// splitWords chops calldata (sans selector) into consecutive 32-byte words.
// The trailing word may be short; extractors treat short input as zero.
func splitWords(data string) []string {
	words := make([]string, 0, (len(data)+wordHexLen-1)/wordHexLen)
	for i := 0; i < len(data); i += wordHexLen {
		end := i + wordHexLen
		if end > len(data) {
			end = len(data)
		}
		words = append(words, data[i:end])
	}
	return words
}

// wordUint reads word i as an unsigned big integer. Missing, short or
// non-hex words yield zero rather than an error.
func wordUint(words []string, i int) *big.Int {
	if i >= len(words) || words[i] == "" {
		return new(big.Int)
	}
	n, ok := new(big.Int).SetString(words[i], 16)
	if !ok || n.Sign() < 0 {
		return new(big.Int)
	}
	return n
}

// wordAddress reads the low 20 bytes of word i as a "0x"-prefixed address.
func wordAddress(words []string, i int) string {
	if i >= len(words) {
		return ""
	}
	w := strings.ToLower(words[i])
	if len(w) > 40 {
		w = w[len(w)-40:]
	}
	return "0x" + w
}
