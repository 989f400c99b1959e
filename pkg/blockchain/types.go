// Package blockchain talks to an Ethereum-compatible node over JSON-RPC
// and exposes the wire records the analysis pipeline consumes.
package blockchain

import "math/big"

// PendingTransaction is one observed mempool entry. It is built once per
// fetch and never mutated afterwards.
type PendingTransaction struct {
	Hash                 string   `json:"hash"`
	From                 string   `json:"from_address"`
	To                   string   `json:"to_address,omitempty"` // empty for contract creation
	Value                *big.Int `json:"value"`
	Gas                  uint64   `json:"gas"`
	GasPrice             *big.Int `json:"gas_price"`
	MaxFeePerGas         *big.Int `json:"max_fee_per_gas,omitempty"`
	MaxPriorityFeePerGas *big.Int `json:"max_priority_fee_per_gas,omitempty"`
	Nonce                uint64   `json:"nonce"`
	InputData            string   `json:"input_data"`
	BlockNumber          *uint64  `json:"block_number,omitempty"` // nil while pending
}

// GasInfo is the current fee picture reported by the node.
type GasInfo struct {
	BaseFee      *big.Int `json:"base_fee"`
	PriorityFee  *big.Int `json:"priority_fee"`
	GasPrice     *big.Int `json:"gas_price"`
	PendingCount int      `json:"pending_count"`
}
