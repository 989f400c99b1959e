package blockchain

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gorilla/websocket"
	"github.com/reugn/go-streams"
	"github.com/sirupsen/logrus"
)

// subscriptionMessage is the eth_subscription notification envelope; for
// newPendingTransactions the result is the transaction hash.
type subscriptionMessage struct {
	Params struct {
		Subscription string `json:"subscription"`
		Result       string `json:"result"`
	} `json:"params"`
}

// PendingTxSource subscribes to newPendingTransactions over WebSocket and
// emits full PendingTransaction records, resolving each announced hash
// through the HTTP client. It implements streams.Source so it can head a
// processing flow.
type PendingTxSource struct {
	wsURL  string
	client *Client
	conn   *websocket.Conn
	outCh  chan any
	ctx    context.Context
	cancel context.CancelFunc
	log    *logrus.Entry
}

// NewPendingTxSource creates a source for the given WebSocket endpoint.
// client resolves announced hashes to full transactions.
func NewPendingTxSource(wsURL string, client *Client) *PendingTxSource {
	ctx, cancel := context.WithCancel(context.Background())
	return &PendingTxSource{
		wsURL:  wsURL,
		client: client,
		outCh:  make(chan any),
		ctx:    ctx,
		cancel: cancel,
		log:    logrus.WithField("component", "pending-tx-source"),
	}
}

// Out returns the channel of PendingTransaction values.
func (s *PendingTxSource) Out() <-chan any {
	return s.outCh
}

// Via implements streams.Source.
func (s *PendingTxSource) Via(flow streams.Flow) streams.Flow {
	go func() {
		for v := range s.outCh {
			flow.In() <- v
		}
		close(flow.In())
	}()
	return flow
}

// Close stops the source.
func (s *PendingTxSource) Close() error {
	s.cancel()
	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Start connects, subscribes and begins emitting transactions until the
// source is closed or the connection drops.
func (s *PendingTxSource) Start() error {
	conn, _, err := websocket.DefaultDialer.Dial(s.wsURL, nil)
	if err != nil {
		return fmt.Errorf("websocket dial %s: %w", s.wsURL, err)
	}
	s.conn = conn
	s.log.WithField("url", s.wsURL).Debug("connected")

	subscribe := map[string]any{
		"jsonrpc": "2.0",
		"id":      1,
		"method":  "eth_subscribe",
		"params":  []any{"newPendingTransactions"},
	}
	if err := conn.WriteJSON(subscribe); err != nil {
		conn.Close()
		return fmt.Errorf("subscribe newPendingTransactions: %w", err)
	}
	s.log.Debug("subscribed to newPendingTransactions")

	go func() {
		defer close(s.outCh)
		defer conn.Close()

		for {
			select {
			case <-s.ctx.Done():
				return
			default:
			}

			_, data, err := conn.ReadMessage()
			if err != nil {
				if s.ctx.Err() == nil {
					s.log.WithError(err).Warn("websocket read failed, stopping")
				}
				return
			}

			var msg subscriptionMessage
			if err := json.Unmarshal(data, &msg); err != nil || msg.Params.Result == "" {
				continue // subscription confirmation or unrelated frame
			}

			tx, err := s.fetchTx(msg.Params.Result)
			if err != nil {
				s.log.WithError(err).WithField("hash", msg.Params.Result).Debug("transaction lookup failed")
				continue
			}
			if tx == nil {
				continue // already dropped or mined away
			}

			select {
			case s.outCh <- *tx:
			case <-s.ctx.Done():
				return
			}
		}
	}()

	return nil
}

func (s *PendingTxSource) fetchTx(hash string) (*PendingTransaction, error) {
	ctx, cancel := context.WithTimeout(s.ctx, 10*time.Second)
	defer cancel()
	return s.client.TransactionByHash(ctx, hash)
}
