// Package catalog holds the static lookup tables used to classify
// transaction calldata: 4-byte method selectors and well-known contract
// addresses. The tables are built once and never mutated afterwards.
package catalog

import "strings"

// Kind classifies what a known method does.
type Kind string

const (
	KindTransfer  Kind = "transfer"
	KindApproval  Kind = "approval"
	KindSwap      Kind = "swap"
	KindLiquidity Kind = "liquidity"
	KindMulticall Kind = "multicall"
	KindUnknown   Kind = "unknown"
)

// NativeTransferSelector is the sentinel used for transactions with empty
// input data (a plain ETH transfer).
const NativeTransferSelector = "0x"

// Entry describes a known method signature.
type Entry struct {
	Name string
	Kind Kind
}

// Catalog resolves selectors and contract addresses. Lookups are
// case-insensitive and exact; unknown keys simply report not-found.
type Catalog struct {
	selectors map[string]Entry
	contracts map[string]string
}

// Default returns the built-in catalog covering the common router,
// ERC20 and multicall selectors plus well-known mainnet contracts.
func Default() *Catalog {
	return &Catalog{
		selectors: methodSignatures,
		contracts: knownContracts,
	}
}

// Selector looks up a 4-byte selector ("0x" + 8 hex digits, any case).
func (c *Catalog) Selector(selector string) (Entry, bool) {
	e, ok := c.selectors[strings.ToLower(selector)]
	return e, ok
}

// Contract returns the human label for a known contract address.
func (c *Catalog) Contract(address string) (string, bool) {
	name, ok := c.contracts[strings.ToLower(address)]
	return name, ok
}

// methodSignatures maps keccak256 selector prefixes to method entries.
// Extending the catalog is purely additive: add a row, nothing else changes.
var methodSignatures = map[string]Entry{
	// Uniswap V2 Router
	"0x38ed1739": {Name: "swapExactTokensForTokens", Kind: KindSwap},
	"0x8803dbee": {Name: "swapTokensForExactTokens", Kind: KindSwap},
	"0x7ff36ab5": {Name: "swapExactETHForTokens", Kind: KindSwap},
	"0x4a25d94a": {Name: "swapTokensForExactETH", Kind: KindSwap},
	"0x18cbafe5": {Name: "swapExactTokensForETH", Kind: KindSwap},
	"0xfb3bdb41": {Name: "swapETHForExactTokens", Kind: KindSwap},
	"0xe8e33700": {Name: "addLiquidity", Kind: KindLiquidity},
	"0xf305d719": {Name: "addLiquidityETH", Kind: KindLiquidity},
	"0xbaa2abde": {Name: "removeLiquidity", Kind: KindLiquidity},
	"0x02751cec": {Name: "removeLiquidityETH", Kind: KindLiquidity},

	// Uniswap V3 Router
	"0x414bf389": {Name: "exactInputSingle", Kind: KindSwap},
	"0xc04b8d59": {Name: "exactInput", Kind: KindSwap},
	"0xdb3e2198": {Name: "exactOutputSingle", Kind: KindSwap},
	"0xf28c0498": {Name: "exactOutput", Kind: KindSwap},
	"0x5ae401dc": {Name: "multicall", Kind: KindMulticall},
	"0xac9650d8": {Name: "multicall", Kind: KindMulticall},

	// ERC20
	"0xa9059cbb": {Name: "transfer", Kind: KindTransfer},
	"0x23b872dd": {Name: "transferFrom", Kind: KindTransfer},
	"0x095ea7b3": {Name: "approve", Kind: KindApproval},

	// Empty calldata sentinel
	NativeTransferSelector: {Name: "ETH Transfer", Kind: KindTransfer},
}

// knownContracts maps lowercase mainnet addresses to display labels.
var knownContracts = map[string]string{
	"0x7a250d5630b4cf539739df2c5dacb4c659f2488d": "Uniswap V2 Router",
	"0xe592427a0aece92de3edee1f18e0157c05861564": "Uniswap V3 Router",
	"0x68b3465833fb72a70ecdf485e0e4c7bd8665fc45": "Uniswap Universal Router",
	"0xd9e1ce17f2641f24ae83637ab66a2cca9c378b9f": "SushiSwap Router",
	"0x1111111254fb6c44bac0bed2854e76f90643097d": "1inch Router",
	"0xdef1c0ded9bec7f1a1670819833240f027b25eff": "0x Exchange Proxy",
	"0x881d40237659c251811cec9c364ef91dc08d300c": "Metamask Swap Router",

	"0xc02aaa39b223fe8d0a0e5c4f27ead9083c756cc2": "WETH",
	"0xa0b86991c6218b36c1d19d4a2e9eb0ce3606eb48": "USDC",
	"0xdac17f958d2ee523a2206206994597c13d831ec7": "USDT",
	"0x6b175474e89094c44da98b954eedeac495271d0f": "DAI",
}
