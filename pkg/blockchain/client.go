package blockchain

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/params"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/sirupsen/logrus"
)

// Client fetches mempool data from an Ethereum-compatible node.
type Client struct {
	rpc *rpc.Client
	url string
	log *logrus.Entry
}

// Dial connects to the node at url.
func Dial(ctx context.Context, url string) (*Client, error) {
	c, err := rpc.DialContext(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return &Client{
		rpc: c,
		url: url,
		log: logrus.WithField("component", "rpc"),
	}, nil
}

// URL returns the endpoint this client talks to.
func (c *Client) URL() string { return c.url }

// Close releases the underlying connection.
func (c *Client) Close() { c.rpc.Close() }

// rpcTransaction is the JSON-RPC wire shape of a transaction.
type rpcTransaction struct {
	Hash                 common.Hash     `json:"hash"`
	From                 common.Address  `json:"from"`
	To                   *common.Address `json:"to"`
	Value                *hexutil.Big    `json:"value"`
	Gas                  hexutil.Uint64  `json:"gas"`
	GasPrice             *hexutil.Big    `json:"gasPrice"`
	MaxFeePerGas         *hexutil.Big    `json:"maxFeePerGas"`
	MaxPriorityFeePerGas *hexutil.Big    `json:"maxPriorityFeePerGas"`
	Nonce                hexutil.Uint64  `json:"nonce"`
	Input                hexutil.Bytes   `json:"input"`
	BlockNumber          *hexutil.Big    `json:"blockNumber"`
}

func (t *rpcTransaction) toPending() PendingTransaction {
	tx := PendingTransaction{
		Hash:      t.Hash.Hex(),
		From:      strings.ToLower(t.From.Hex()),
		Value:     bigOrZero(t.Value),
		Gas:       uint64(t.Gas),
		GasPrice:  bigOrZero(t.GasPrice),
		Nonce:     uint64(t.Nonce),
		InputData: t.Input.String(),
	}
	if t.To != nil {
		tx.To = strings.ToLower(t.To.Hex())
	}
	if t.MaxFeePerGas != nil {
		tx.MaxFeePerGas = (*big.Int)(t.MaxFeePerGas)
	}
	if t.MaxPriorityFeePerGas != nil {
		tx.MaxPriorityFeePerGas = (*big.Int)(t.MaxPriorityFeePerGas)
	}
	if t.BlockNumber != nil {
		n := (*big.Int)(t.BlockNumber).Uint64()
		tx.BlockNumber = &n
	}
	return tx
}

func bigOrZero(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

// txpoolContent mirrors the txpool_content response: pool -> sender ->
// nonce -> transaction.
type txpoolContent struct {
	Pending map[string]map[string]*rpcTransaction `json:"pending"`
	Queued  map[string]map[string]*rpcTransaction `json:"queued"`
}

// PendingTransactions fetches up to limit mempool entries. It tries
// txpool_content (Geth) first, then eth_pendingTransactions; not every
// node supports either. The two failures are aggregated into one error.
func (c *Client) PendingTransactions(ctx context.Context, limit int) ([]PendingTransaction, error) {
	var errs []string

	var content txpoolContent
	if err := c.rpc.CallContext(ctx, &content, "txpool_content"); err != nil {
		errs = append(errs, fmt.Sprintf("txpool_content: %v", err))
		c.log.WithError(err).Debug("txpool_content not available")
	} else if len(content.Pending) > 0 || len(content.Queued) > 0 {
		return flattenTxpool(content, limit), nil
	}

	var raw []*rpcTransaction
	if err := c.rpc.CallContext(ctx, &raw, "eth_pendingTransactions"); err != nil {
		errs = append(errs, fmt.Sprintf("eth_pendingTransactions: %v", err))
		c.log.WithError(err).Debug("eth_pendingTransactions not available")
	} else if len(raw) > 0 {
		if len(raw) > limit {
			raw = raw[:limit]
		}
		txs := make([]PendingTransaction, 0, len(raw))
		for _, t := range raw {
			txs = append(txs, t.toPending())
		}
		return txs, nil
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("no pending transactions from %s: %s", c.url, strings.Join(errs, "; "))
	}
	return []PendingTransaction{}, nil
}

func flattenTxpool(content txpoolContent, limit int) []PendingTransaction {
	txs := make([]PendingTransaction, 0, limit)
	for _, pool := range []map[string]map[string]*rpcTransaction{content.Pending, content.Queued} {
		for _, nonces := range pool {
			for _, t := range nonces {
				if len(txs) >= limit {
					return txs
				}
				txs = append(txs, t.toPending())
			}
		}
	}
	return txs
}

// rpcBlock carries only the header field GasInfo needs.
type rpcBlock struct {
	BaseFeePerGas *hexutil.Big `json:"baseFeePerGas"`
}

// txpoolStatus mirrors txpool_status.
type txpoolStatus struct {
	Pending hexutil.Uint64 `json:"pending"`
	Queued  hexutil.Uint64 `json:"queued"`
}

// GasInfo reports the node's current fee picture. Failures degrade to
// conservative defaults (30 gwei base, 2 gwei priority) rather than an
// error, so reporting keeps working against limited nodes.
func (c *Client) GasInfo(ctx context.Context) GasInfo {
	gwei := big.NewInt(params.GWei)
	info := GasInfo{
		BaseFee:     new(big.Int).Mul(big.NewInt(30), gwei),
		PriorityFee: new(big.Int).Mul(big.NewInt(2), gwei),
		GasPrice:    new(big.Int).Mul(big.NewInt(32), gwei),
	}

	var block rpcBlock
	if err := c.rpc.CallContext(ctx, &block, "eth_getBlockByNumber", "latest", false); err != nil {
		c.log.WithError(err).Debug("eth_getBlockByNumber failed, using default gas info")
		return info
	}
	if block.BaseFeePerGas != nil {
		info.BaseFee = (*big.Int)(block.BaseFeePerGas)
	}

	var price hexutil.Big
	if err := c.rpc.CallContext(ctx, &price, "eth_gasPrice"); err != nil {
		c.log.WithError(err).Debug("eth_gasPrice failed, using default gas price")
		return info
	}
	info.GasPrice = (*big.Int)(&price)

	priority := new(big.Int).Sub(info.GasPrice, info.BaseFee)
	if priority.Cmp(gwei) < 0 {
		priority = new(big.Int).Set(gwei)
	}
	info.PriorityFee = priority

	// txpool_status is optional; plenty of nodes refuse it.
	var status txpoolStatus
	if err := c.rpc.CallContext(ctx, &status, "txpool_status"); err == nil {
		info.PendingCount = int(status.Pending)
	}

	return info
}

// TransactionByHash fetches a single transaction, pending or mined.
// Returns nil when the node does not know the hash.
func (c *Client) TransactionByHash(ctx context.Context, hash string) (*PendingTransaction, error) {
	var raw *rpcTransaction
	if err := c.rpc.CallContext(ctx, &raw, "eth_getTransactionByHash", hash); err != nil {
		return nil, fmt.Errorf("eth_getTransactionByHash %s: %w", hash, err)
	}
	if raw == nil {
		return nil, nil
	}
	tx := raw.toPending()
	return &tx, nil
}

// BlockNumber returns the current chain head number.
func (c *Client) BlockNumber(ctx context.Context) (uint64, error) {
	var n hexutil.Uint64
	if err := c.rpc.CallContext(ctx, &n, "eth_blockNumber"); err != nil {
		return 0, fmt.Errorf("eth_blockNumber: %w", err)
	}
	return uint64(n), nil
}
