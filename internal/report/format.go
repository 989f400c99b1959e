// Package report renders analysis results for humans (fixed-width tables)
// and machines (indented JSON). It owns all display-unit conversion; the
// records it consumes stay in base units.
package report

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/params"

	"github.com/poolscope/poolscope/internal/decoder"
	"github.com/poolscope/poolscope/internal/gas"
	"github.com/poolscope/poolscope/internal/mev"
	"github.com/poolscope/poolscope/pkg/blockchain"
)

const (
	pendingTableCap = 50
	swapsTableCap   = 30
)

// Gwei renders a wei amount in gwei.
func Gwei(wei *big.Int) string {
	return fmt.Sprintf("%.1f gwei", toUnit(wei, params.GWei))
}

// Ether renders a wei amount in ETH: 4 decimals at or above one ether,
// 6 below.
func Ether(wei *big.Int) string {
	eth := toUnit(wei, params.Ether)
	if eth >= 1 {
		return fmt.Sprintf("%.4f ETH", eth)
	}
	return fmt.Sprintf("%.6f ETH", eth)
}

// USD renders a dollar value, collapsing thousands and millions.
func USD(value float64) string {
	switch {
	case value >= 1e6:
		return fmt.Sprintf("$%.2fM", value/1e6)
	case value >= 1e3:
		return fmt.Sprintf("$%.1fK", value/1e3)
	default:
		return fmt.Sprintf("$%.2f", value)
	}
}

// ShortAddress truncates a hash or address for table display.
func ShortAddress(address string, length int) string {
	if address == "" {
		return "N/A"
	}
	if len(address) <= length {
		return address
	}
	half := (length - 3) / 2
	return address[:half] + "..." + address[len(address)-half:]
}

// JSON renders any record as indented JSON.
func JSON(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}
	return string(data), nil
}

// PendingTable renders a pending-transaction table, classifying each entry
// through the supplied decoder.
func PendingTable(txs []blockchain.PendingTransaction, dec *decoder.Decoder) string {
	if len(txs) == 0 {
		return "No pending transactions."
	}

	var b strings.Builder
	b.WriteString("\nPENDING TRANSACTIONS\n")
	b.WriteString(strings.Repeat("=", 100) + "\n")
	fmt.Fprintf(&b, "%-18s %-14s %-14s %-12s %-12s %-10s %-12s\n",
		"Hash", "From", "To", "Value", "Gas Price", "Gas", "Type")
	b.WriteString(strings.Repeat("-", 100) + "\n")

	shown := len(txs)
	if shown > pendingTableCap {
		shown = pendingTableCap
	}
	for _, tx := range txs[:shown] {
		to := tx.To
		if to == "" {
			to = "Contract"
		}
		value := "0"
		if tx.Value != nil && tx.Value.Sign() > 0 {
			value = Ether(tx.Value)
		}
		call := dec.Decode(tx.InputData, tx.To)
		kind := string(call.Kind)
		if len(kind) > 10 {
			kind = kind[:10]
		}
		fmt.Fprintf(&b, "%-18s %-14s %-14s %-12s %-12s %-10s %-12s\n",
			ShortAddress(tx.Hash, 16),
			ShortAddress(tx.From, 12),
			ShortAddress(to, 12),
			value,
			Gwei(tx.GasPrice),
			fmt.Sprintf("%d", tx.Gas),
			kind)
	}

	b.WriteString(strings.Repeat("-", 100) + "\n")
	fmt.Fprintf(&b, "Showing %d of %d pending transactions\n", shown, len(txs))
	return b.String()
}

// SwapsTable renders detected pending swaps.
func SwapsTable(swaps []mev.PendingSwap) string {
	if len(swaps) == 0 {
		return "No pending swaps detected."
	}

	var b strings.Builder
	b.WriteString("\nPENDING DEX SWAPS\n")
	b.WriteString(strings.Repeat("=", 90) + "\n")
	fmt.Fprintf(&b, "%-18s %-20s %-16s %-12s %-14s\n",
		"Hash", "DEX", "Amount In", "Gas Price", "From")
	b.WriteString(strings.Repeat("-", 90) + "\n")

	shown := len(swaps)
	if shown > swapsTableCap {
		shown = swapsTableCap
	}
	for _, swap := range swaps[:shown] {
		dex := swap.DEX
		if len(dex) > 18 {
			dex = dex[:18]
		}
		amount := "Unknown"
		if swap.AmountIn != nil {
			amount = Ether(swap.AmountIn)
		}
		fmt.Fprintf(&b, "%-18s %-20s %-16s %-12s %-14s\n",
			ShortAddress(swap.TxHash, 16),
			dex,
			amount,
			Gwei(swap.GasPrice),
			ShortAddress(swap.From, 12))
	}

	b.WriteString(strings.Repeat("-", 90) + "\n")
	fmt.Fprintf(&b, "Total: %d pending swaps\n", len(swaps))
	return b.String()
}

// OpportunitiesTable renders scored opportunities, highest profit first.
func OpportunitiesTable(opportunities []mev.Opportunity) string {
	if len(opportunities) == 0 {
		return "No MEV opportunities detected."
	}

	sorted := make([]mev.Opportunity, len(opportunities))
	copy(sorted, opportunities)
	mev.SortByProfit(sorted)

	var b strings.Builder
	b.WriteString("\nMEV OPPORTUNITIES DETECTED\n")
	b.WriteString(strings.Repeat("=", 80) + "\n")
	fmt.Fprintf(&b, "%-12s %-14s %-14s %-10s %-12s\n",
		"Type", "Est. Profit", "Capital Req", "Risk", "Confidence")
	b.WriteString(strings.Repeat("-", 80) + "\n")

	for _, opp := range sorted {
		fmt.Fprintf(&b, "%-12s $%11.0f $%11.0f %-10s %10.0f%%\n",
			opp.Kind,
			opp.EstimatedProfitUSD,
			opp.RequiredCapitalUSD,
			opp.Risk,
			opp.Confidence*100)
	}

	b.WriteString(strings.Repeat("-", 80) + "\n")
	fmt.Fprintf(&b, "Total: %d potential opportunities\n\n", len(sorted))
	b.WriteString("WARNING: MEV detection is for research purposes only.\n")
	b.WriteString("    Actual profitability requires real-time pool data and\n")
	b.WriteString("    sophisticated execution infrastructure.\n")
	return b.String()
}

// Summary renders the overall mempool summary.
func Summary(pendingCount int, info blockchain.GasInfo, swapCount, opportunities int) string {
	var b strings.Builder
	b.WriteString("\nMEMPOOL SUMMARY\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Pending Transactions: %d\n", pendingCount)
	fmt.Fprintf(&b, "Pending Swaps:        %d\n", swapCount)
	fmt.Fprintf(&b, "MEV Opportunities:    %d\n\n", opportunities)
	b.WriteString("Gas Prices:\n")
	fmt.Fprintf(&b, "  Base Fee:     %s\n", Gwei(info.BaseFee))
	fmt.Fprintf(&b, "  Priority Fee: %s\n", Gwei(info.PriorityFee))
	fmt.Fprintf(&b, "  Gas Price:    %s\n", Gwei(info.GasPrice))
	b.WriteString(strings.Repeat("=", 50) + "\n")
	return b.String()
}

// GasReport renders the gas-price distribution and fee recommendations.
func GasReport(dist gas.Distribution, recs []gas.Recommendation) string {
	var b strings.Builder
	b.WriteString("\nGAS PRICE DISTRIBUTION\n")
	b.WriteString(strings.Repeat("=", 50) + "\n")
	fmt.Fprintf(&b, "Pending analyzed: %d\n", dist.PendingCount)
	if dist.PendingCount > 0 {
		fmt.Fprintf(&b, "  Min:    %s\n", Gwei(dist.Min))
		fmt.Fprintf(&b, "  P25:    %s\n", Gwei(dist.P25))
		fmt.Fprintf(&b, "  Median: %s\n", Gwei(dist.Median))
		fmt.Fprintf(&b, "  Mean:   %s\n", Gwei(dist.Mean))
		fmt.Fprintf(&b, "  P75:    %s\n", Gwei(dist.P75))
		fmt.Fprintf(&b, "  P90:    %s\n", Gwei(dist.P90))
		fmt.Fprintf(&b, "  Max:    %s\n", Gwei(dist.Max))
		fmt.Fprintf(&b, "  Above base fee: %d (EIP-1559 share %.0f%%)\n",
			dist.AboveBaseFee, dist.EIP1559Share*100)
	}
	b.WriteString("\nRecommendations:\n")
	for _, rec := range recs {
		fmt.Fprintf(&b, "  %-9s priority %-10s max fee %s\n",
			rec.Label, Gwei(rec.PriorityFee), Gwei(rec.MaxFee))
	}
	b.WriteString(strings.Repeat("=", 50) + "\n")
	return b.String()
}

// StreamAlert renders a single transaction as a one-line alert for
// stream mode.
func StreamAlert(tx blockchain.PendingTransaction, call decoder.DecodedCall) string {
	ts := time.Now().Format("15:04:05")
	if tx.Value != nil && tx.Value.Sign() > 0 {
		return fmt.Sprintf("[%s] %s | %s | %s | %s",
			ts, ShortAddress(tx.Hash, 12), Gwei(tx.GasPrice), Ether(tx.Value), call.Method)
	}
	return fmt.Sprintf("[%s] %s | %s | %s",
		ts, ShortAddress(tx.Hash, 12), Gwei(tx.GasPrice), call.Method)
}

func toUnit(wei *big.Int, unit int64) float64 {
	if wei == nil {
		return 0
	}
	f := new(big.Float).SetInt(wei)
	f.Quo(f, new(big.Float).SetInt64(unit))
	out, _ := f.Float64()
	return out
}
