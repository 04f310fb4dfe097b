// Package solana subscribes to program logs over the Solana JSON-RPC websocket
package solana

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	perr "mintwatch/internal/platform/errors"
	"mintwatch/internal/platform/logger"
	"mintwatch/internal/services/watcher/domain"

	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gorilla/websocket"
)

const (
	defaultHandshakeTimeout = 15 * time.Second
	defaultUserAgent        = "mintwatch"

	methodLogsSubscribe    = "logsSubscribe"
	methodLogsNotification = "logsNotification"
	subscribeRequestID     = 1
)

// Options configures the Subscriber
type Options struct {
	Endpoint         string
	HandshakeTimeout time.Duration
	UserAgent        string
}

// Subscriber dials the RPC websocket and opens logsSubscribe streams
type Subscriber struct {
	opts   Options
	dialer *websocket.Dialer
	log    logger.Logger
}

var _ domain.Subscriber = (*Subscriber)(nil)

// NewSubscriber creates a Subscriber with sane defaults
func NewSubscriber(o Options) *Subscriber {
	if o.HandshakeTimeout <= 0 {
		o.HandshakeTimeout = defaultHandshakeTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	return &Subscriber{
		opts: o,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: o.HandshakeTimeout,
		},
		log: logger.Named("solana-ws").With().Str("endpoint", o.Endpoint).Logger(),
	}
}

type subscribeRequest struct {
	JSONRPC string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
	ID      int    `json:"id"`
}

type mentionsFilter struct {
	Mentions []string `json:"mentions"`
}

type commitmentConfig struct {
	Commitment rpc.CommitmentType `json:"commitment"`
}

// Subscribe dials the endpoint and sends logsSubscribe for account at the given commitment
func (s *Subscriber) Subscribe(ctx context.Context, account, commitment string) (domain.Subscription, error) {
	hdr := http.Header{}
	hdr.Set("User-Agent", s.opts.UserAgent)

	conn, resp, err := s.dialer.DialContext(ctx, s.opts.Endpoint, hdr)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeTransport, "dial %s", s.opts.Endpoint)
	}

	req := subscribeRequest{
		JSONRPC: "2.0",
		Method:  methodLogsSubscribe,
		Params: []any{
			mentionsFilter{Mentions: []string{account}},
			commitmentConfig{Commitment: rpc.CommitmentType(commitment)},
		},
		ID: subscribeRequestID,
	}
	if err := conn.WriteJSON(req); err != nil {
		_ = conn.Close()
		return nil, perr.Wrap(err, perr.ErrorCodeTransport, "send logsSubscribe")
	}

	s.log.Info().Str("account", account).Str("commitment", commitment).Msg("logsSubscribe sent")
	return &subscription{conn: conn, log: s.log}, nil
}

type subscription struct {
	conn      *websocket.Conn
	log       logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// Next blocks until a logsNotification arrives
// cancelling ctx closes the connection and returns ctx.Err()
func (s *subscription) Next(ctx context.Context) (domain.RawLogEvent, error) {
	for {
		if err := ctx.Err(); err != nil {
			return domain.RawLogEvent{}, err
		}
		stop := context.AfterFunc(ctx, func() { _ = s.Close() })
		_, data, err := s.conn.ReadMessage()
		stop()
		if err != nil {
			if ctx.Err() != nil {
				return domain.RawLogEvent{}, ctx.Err()
			}
			return domain.RawLogEvent{}, perr.Wrap(err, perr.ErrorCodeTransport, "read logs stream")
		}
		ev, ok, err := s.decode(data)
		if err != nil {
			return domain.RawLogEvent{}, err
		}
		if ok {
			return ev, nil
		}
	}
}

// Close closes the underlying connection once
func (s *subscription) Close() error {
	s.closeOnce.Do(func() {
		_ = s.conn.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		s.closeErr = s.conn.Close()
	})
	return s.closeErr
}

type rpcMessage struct {
	Method string          `json:"method"`
	ID     *int            `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
	Params *struct {
		Subscription uint64 `json:"subscription"`
		Result       struct {
			Context struct {
				Slot uint64 `json:"slot"`
			} `json:"context"`
			Value struct {
				Signature string          `json:"signature"`
				Logs      []string        `json:"logs"`
				Err       json.RawMessage `json:"err"`
			} `json:"value"`
		} `json:"result"`
	} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// decode returns the notification carried by data, if any
// a rejected logsSubscribe is a transport error: the stream will never deliver
func (s *subscription) decode(data []byte) (domain.RawLogEvent, bool, error) {
	var msg rpcMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		s.log.Debug().Err(err).Int("bytes", len(data)).Msg("ignoring non-json frame")
		return domain.RawLogEvent{}, false, nil
	}

	switch {
	case msg.Method == methodLogsNotification && msg.Params != nil:
		v := msg.Params.Result.Value
		ev := domain.RawLogEvent{
			Signature: v.Signature,
			Logs:      v.Logs,
			Slot:      msg.Params.Result.Context.Slot,
		}
		if len(v.Err) > 0 && string(v.Err) != "null" {
			var e any
			if err := json.Unmarshal(v.Err, &e); err != nil {
				e = string(v.Err)
			}
			ev.Err = e
		}
		return ev, true, nil

	case msg.ID != nil && *msg.ID == subscribeRequestID && msg.Error != nil:
		s.log.Error().Int("code", msg.Error.Code).Str("message", msg.Error.Message).Msg("logsSubscribe rejected")
		return domain.RawLogEvent{}, false, perr.Transportf("logsSubscribe rejected: %d %s", msg.Error.Code, msg.Error.Message)

	case msg.ID != nil && *msg.ID == subscribeRequestID && len(msg.Result) > 0:
		s.log.Debug().RawJSON("subscription_id", msg.Result).Msg("logsSubscribe confirmed")
	}
	return domain.RawLogEvent{}, false, nil
}
