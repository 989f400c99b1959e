// Command poolscope inspects a node's transaction pool: it classifies
// pending transactions, summarizes gas prices, lists pending DEX swaps
// and flags candidate MEV opportunities.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/big"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/ethereum/go-ethereum/params"
	"github.com/sirupsen/logrus"

	"github.com/poolscope/poolscope/internal/catalog"
	"github.com/poolscope/poolscope/internal/config"
	"github.com/poolscope/poolscope/internal/decoder"
	"github.com/poolscope/poolscope/internal/gas"
	"github.com/poolscope/poolscope/internal/mev"
	"github.com/poolscope/poolscope/internal/pipeline"
	"github.com/poolscope/poolscope/internal/report"
	"github.com/poolscope/poolscope/pkg/blockchain"
	"github.com/poolscope/poolscope/pkg/pricefeed"
)

const usage = `poolscope - mempool transaction classifier and MEV scanner

Usage:
  poolscope [flags] <command> [command flags]

Commands:
  pending          View pending transactions
  gas              Analyze gas prices
  swaps            Show pending DEX swaps
  mev              Scan for MEV opportunities
  summary          Overall mempool summary (default)
  watch <address>  Show pending transactions to a contract
  stream           Follow the mempool live over WebSocket
  status           Check node connection status

Flags:
  -chain string        Network: ethereum, polygon, arbitrum, optimism, base (default "ethereum")
  -rpc-url string      Custom node HTTP endpoint
  -ws-url string       Custom node WebSocket endpoint (stream)
  -config string       Path to settings.yaml
  -format string       Output format: table or json (default "table")
  -eth-price float     ETH price for USD conversion; 0 = fetch, fallback 3000
  -min-swap-value float  Override minimum swap value in USD
  -min-profit float      Override minimum profit in USD
  -nats-url string     Publish stream alerts to this NATS endpoint
  -nats-subject string Subject for published alerts
  -demo                Use mock data when the node fetch fails
  -v                   Verbose output
`

type options struct {
	chain        string
	rpcURL       string
	wsURL        string
	configPath   string
	format       string
	ethPrice     float64
	minSwapValue float64
	minProfit    float64
	natsURL      string
	natsSubject  string
	demo         bool
	verbose      bool

	cfg  *config.Config
	pipe *pipeline.Pipeline
}

func main() {
	opts := &options{}
	flag.StringVar(&opts.chain, "chain", "", "network name")
	flag.StringVar(&opts.rpcURL, "rpc-url", "", "custom node HTTP endpoint")
	flag.StringVar(&opts.wsURL, "ws-url", "", "custom node WebSocket endpoint")
	flag.StringVar(&opts.configPath, "config", "settings.yaml", "path to config file")
	flag.StringVar(&opts.format, "format", "table", "output format: table or json")
	flag.Float64Var(&opts.ethPrice, "eth-price", 0, "ETH price in USD (0 = fetch)")
	flag.Float64Var(&opts.minSwapValue, "min-swap-value", 0, "minimum swap value in USD")
	flag.Float64Var(&opts.minProfit, "min-profit", 0, "minimum profit in USD")
	flag.StringVar(&opts.natsURL, "nats-url", "", "NATS endpoint for alert publication (stream)")
	flag.StringVar(&opts.natsSubject, "nats-subject", "", "NATS subject for alerts (stream)")
	flag.BoolVar(&opts.demo, "demo", false, "use mock data when RPC fails")
	flag.BoolVar(&opts.verbose, "v", false, "verbose output")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	logrus.SetLevel(logrus.WarnLevel)
	if opts.verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logrus.WithError(err).Warn("config unavailable, using defaults")
	}
	opts.cfg = cfg
	if opts.chain == "" {
		opts.chain = cfg.Chain
	}

	dec := decoder.New(catalog.Default())
	det := mev.NewDetector(dec, cfg.Thresholds(opts.minSwapValue, opts.minProfit))
	opts.pipe = pipeline.New(dec, det)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	command := flag.Arg(0)
	if command == "" {
		command = "summary"
	}

	if err := run(ctx, command, flag.Args(), opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, command string, args []string, opts *options) error {
	switch command {
	case "pending":
		return cmdPending(ctx, opts, commandLimit(args, 50))
	case "gas":
		return cmdGas(ctx, opts)
	case "swaps":
		return cmdSwaps(ctx, opts, commandLimit(args, 100))
	case "mev":
		return cmdMEV(ctx, opts, commandLimit(args, 200))
	case "summary":
		return cmdSummary(ctx, opts)
	case "watch":
		if len(args) < 2 {
			return fmt.Errorf("watch requires a contract address")
		}
		return cmdWatch(ctx, opts, args[1], commandLimit(args[1:], 100))
	case "stream":
		return cmdStream(ctx, opts)
	case "status":
		return cmdStatus(ctx, opts)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

// commandLimit parses an optional -limit flag after the command word.
func commandLimit(args []string, def int) int {
	fs := flag.NewFlagSet("limit", flag.ContinueOnError)
	limit := fs.Int("limit", def, "max transactions")
	if len(args) > 1 {
		_ = fs.Parse(args[1:])
	}
	return *limit
}

// dial connects to the configured node. A nil client with no error means
// demo mode should fall back to mock data.
func dial(ctx context.Context, opts *options) (*blockchain.Client, error) {
	url := opts.cfg.HTTPURL(opts.chain, opts.rpcURL)
	if url == "" {
		return nil, fmt.Errorf("no RPC endpoint known for chain %q", opts.chain)
	}
	client, err := blockchain.Dial(ctx, url)
	if err != nil {
		if opts.demo {
			logrus.WithError(err).Warn("node unreachable, demo mode continues with mock data")
			return nil, nil
		}
		return nil, err
	}
	return client, nil
}

// fetchPending returns a pending batch, substituting a clearly-labeled
// synthetic batch in demo mode when the node cannot provide one.
func fetchPending(ctx context.Context, opts *options, client *blockchain.Client, limit int) ([]blockchain.PendingTransaction, error) {
	if client == nil {
		fmt.Fprintln(os.Stderr, "WARNING: Using mock data - could not fetch real mempool data")
		return blockchain.MockPendingTransactions(limit), nil
	}
	txs, err := client.PendingTransactions(ctx, limit)
	if err != nil {
		if opts.demo {
			fmt.Fprintln(os.Stderr, "WARNING: Using mock data - could not fetch real mempool data")
			return blockchain.MockPendingTransactions(limit), nil
		}
		return nil, fmt.Errorf("%w\nHint: use -demo to fall back to mock data", err)
	}
	return txs, nil
}

// ethPrice resolves the USD price: explicit flag first, then the price
// feed, then the built-in default.
func ethPrice(ctx context.Context, opts *options) float64 {
	if opts.ethPrice > 0 {
		return opts.ethPrice
	}
	price, err := pricefeed.New().EthereumUSD(ctx)
	if err != nil {
		logrus.WithError(err).Debug("price feed unavailable, using default")
		return config.DefaultEthPriceUSD
	}
	logrus.WithField("eth_usd", price).Debug("fetched spot price")
	return price
}

func gasInfo(ctx context.Context, client *blockchain.Client) blockchain.GasInfo {
	if client == nil {
		gwei := big.NewInt(params.GWei)
		return blockchain.GasInfo{
			BaseFee:     new(big.Int).Mul(big.NewInt(30), gwei),
			PriorityFee: new(big.Int).Mul(big.NewInt(2), gwei),
			GasPrice:    new(big.Int).Mul(big.NewInt(32), gwei),
		}
	}
	return client.GasInfo(ctx)
}

func printJSON(v any) error {
	out, err := report.JSON(v)
	if err != nil {
		return err
	}
	fmt.Println(out)
	return nil
}

func cmdPending(ctx context.Context, opts *options, limit int) error {
	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	txs, err := fetchPending(ctx, opts, client, limit)
	if err != nil {
		return err
	}
	if opts.format == "json" {
		return printJSON(txs)
	}
	fmt.Println(report.PendingTable(txs, opts.pipe.Decoder()))
	return nil
}

func cmdGas(ctx context.Context, opts *options) error {
	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	info := gasInfo(ctx, client)
	txs, err := fetchPending(ctx, opts, client, 200)
	if err != nil {
		return err
	}
	dist := gas.Analyze(txs, info.BaseFee)
	recs := gas.Recommendations(info.BaseFee)
	if opts.format == "json" {
		return printJSON(map[string]any{
			"gas_info":        info,
			"distribution":    dist,
			"recommendations": recs,
		})
	}
	fmt.Println(report.GasReport(dist, recs))
	return nil
}

func cmdSwaps(ctx context.Context, opts *options, limit int) error {
	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	txs, err := fetchPending(ctx, opts, client, limit)
	if err != nil {
		return err
	}
	swaps := opts.pipe.Detector().DetectPendingSwaps(txs, ethPrice(ctx, opts))
	if opts.format == "json" {
		return printJSON(swaps)
	}
	fmt.Println(report.SwapsTable(swaps))
	return nil
}

func cmdMEV(ctx context.Context, opts *options, limit int) error {
	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	txs, err := fetchPending(ctx, opts, client, limit)
	if err != nil {
		return err
	}
	rep := opts.pipe.Analyze(txs, ethPrice(ctx, opts))
	if opts.format == "json" {
		return printJSON(rep)
	}
	fmt.Printf("\nPending Swaps Analyzed: %d\n", rep.SwapCount)
	fmt.Println(report.OpportunitiesTable(rep.Opportunities()))
	return nil
}

func cmdSummary(ctx context.Context, opts *options) error {
	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	info := gasInfo(ctx, client)
	txs, err := fetchPending(ctx, opts, client, 200)
	if err != nil {
		return err
	}
	rep := opts.pipe.Analyze(txs, ethPrice(ctx, opts))
	total := len(rep.Opportunities())
	if opts.format == "json" {
		return printJSON(map[string]any{
			"pending_count":     rep.PendingCount,
			"swap_count":        rep.SwapCount,
			"opportunity_count": total,
			"gas_info":          info,
		})
	}
	fmt.Println(report.Summary(rep.PendingCount, info, rep.SwapCount, total))
	return nil
}

func cmdWatch(ctx context.Context, opts *options, contract string, limit int) error {
	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	txs, err := fetchPending(ctx, opts, client, limit)
	if err != nil {
		return err
	}

	matching := make([]blockchain.PendingTransaction, 0)
	for _, tx := range txs {
		if tx.To != "" && strings.EqualFold(tx.To, contract) {
			matching = append(matching, tx)
		}
	}

	if opts.format == "json" {
		return printJSON(matching)
	}

	fmt.Printf("\nWatching for pending transactions to: %s\n", contract)
	if len(matching) == 0 {
		fmt.Println("No pending transactions found for this contract.")
		return nil
	}
	fmt.Printf("Found %d pending transactions:\n\n", len(matching))
	for _, tx := range matching {
		call := opts.pipe.Decoder().Decode(tx.InputData, tx.To)
		fmt.Printf("  %s\n", report.ShortAddress(tx.Hash, 16))
		fmt.Printf("    Method: %s\n", call.Method)
		fmt.Printf("    From:   %s\n", report.ShortAddress(tx.From, 16))
		fmt.Printf("    Gas:    %s\n\n", report.Gwei(tx.GasPrice))
	}
	return nil
}

func cmdStream(ctx context.Context, opts *options) error {
	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	if client == nil {
		return fmt.Errorf("stream mode needs a reachable node")
	}

	wsURL := opts.cfg.WSURL(opts.chain, opts.wsURL)
	if wsURL == "" {
		return fmt.Errorf("no WebSocket endpoint known for chain %q", opts.chain)
	}

	natsURL := opts.cfg.NATS.URL
	if opts.natsURL != "" {
		natsURL = opts.natsURL
	}
	subject := opts.cfg.NATS.Subject
	if opts.natsSubject != "" {
		subject = opts.natsSubject
	}

	var sink *pipeline.NATSSink
	if natsURL != "" {
		sink, err = pipeline.NewNATSSink(natsURL, opts.cfg.NATS.Stream, subject)
		if err != nil {
			return err
		}
		defer sink.Close()
	}

	source := blockchain.NewPendingTxSource(wsURL, client)
	if err := source.Start(); err != nil {
		return err
	}
	defer source.Close()

	fmt.Fprintf(os.Stderr, "Streaming pending transactions from %s (Ctrl-C to stop)\n", wsURL)

	price := ethPrice(ctx, opts)
	opts.pipe.Stream(ctx, source, price, func(event pipeline.StreamEvent) {
		fmt.Println(report.StreamAlert(event.Tx, event.Call))
		for _, opp := range event.Opportunities {
			fmt.Printf("    candidate %s: profit %s, capital %s, confidence %.0f%%\n",
				opp.Kind, report.USD(opp.EstimatedProfitUSD),
				report.USD(opp.RequiredCapitalUSD), opp.Confidence*100)
		}
		if sink != nil {
			if err := sink.Publish(ctx, event); err != nil {
				logrus.WithError(err).Warn("alert publish failed")
			}
		}
	})
	return nil
}

func cmdStatus(ctx context.Context, opts *options) error {
	fmt.Println("\nPOOLSCOPE STATUS")
	fmt.Println("==================================================")
	fmt.Printf("Chain:   %s\n", opts.chain)

	client, err := dial(ctx, opts)
	if err != nil {
		return err
	}
	if client != nil {
		defer client.Close()
	}
	if client == nil {
		fmt.Println("Connection: unavailable (demo mode)")
		return nil
	}
	fmt.Printf("RPC URL: %s\n", client.URL())

	if block, err := client.BlockNumber(ctx); err != nil {
		fmt.Printf("Connection: Error - %v\n", err)
	} else {
		fmt.Printf("Current Block: %d\n", block)
		fmt.Println("Connection: OK")
	}

	info := client.GasInfo(ctx)
	fmt.Printf("\nGas Price: %s\n", report.Gwei(info.GasPrice))
	fmt.Printf("Base Fee:  %s\n", report.Gwei(info.BaseFee))
	fmt.Println("==================================================")
	return nil
}
