package client

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ethereum/go-ethereum/log"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/0xmsu/tycho-indexer/internal/stopwaiter"
	"github.com/0xmsu/tycho-indexer/models"
)

// consumerQueueCapacity bounds the realtime client's outbound channel
// (spec.md §4.4's "capacity ≈ 30").
const consumerQueueCapacity = 30

// SessionState is the realtime client's connection lifecycle state (spec.md
// §4.4's state machine).
type SessionState uint8

const (
	StateConnecting SessionState = iota
	StateOpen
	StateClosing
	StateClosed
)

// Config configures a RealtimeClient.
type Config struct {
	URL              string
	DefaultExtractor ExtractorIdentity
	Backoff          backoff.BackOff
}

// RealtimeClient is the realtime subscription websocket client (spec.md
// §4.4): it owns one websocket session, tracks active subscriptions, and
// forwards decoded data-plane messages to a bounded consumer channel.
type RealtimeClient struct {
	stopwaiter.StopWaiter

	cfg Config

	mu     sync.Mutex
	state  SessionState
	active map[string]ExtractorIdentity // subscription_id -> extractor identity
	conn   *websocket.Conn

	out chan models.BlockAccountChanges
}

// NewRealtimeClient builds a client in the CONNECTING state. Call Start to
// begin connecting.
func NewRealtimeClient(cfg Config) *RealtimeClient {
	if cfg.Backoff == nil {
		cfg.Backoff = backoff.NewExponentialBackOff()
	}
	return &RealtimeClient{
		cfg:    cfg,
		state:  StateConnecting,
		active: make(map[string]ExtractorIdentity),
		out:    make(chan models.BlockAccountChanges, consumerQueueCapacity),
	}
}

// Start launches the background connection/read-pump loop under ctx.
func (c *RealtimeClient) Start(ctx context.Context) error {
	c.StopWaiter.Start(ctx)
	if err := c.connect(c.GetContext()); err != nil {
		return err
	}
	c.LaunchThread(c.readPump)
	c.LaunchThread(c.closeOnCancel)
	return nil
}

// closeOnCancel closes the live connection as soon as ctx is done, since
// gorilla/websocket's ReadMessage does not itself observe context
// cancellation and would otherwise block readPump past shutdown.
func (c *RealtimeClient) closeOnCancel(ctx context.Context) {
	<-ctx.Done()
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

// RealtimeMessages returns the bounded queue of decoded data-plane
// messages.
func (c *RealtimeClient) RealtimeMessages() <-chan models.BlockAccountChanges {
	return c.out
}

// State reports the client's current session state.
func (c *RealtimeClient) State() SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// ActiveSubscriptions returns a snapshot of the active subscription set.
func (c *RealtimeClient) ActiveSubscriptions() map[string]ExtractorIdentity {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[string]ExtractorIdentity, len(c.active))
	for k, v := range c.active {
		out[k] = v
	}
	return out
}

// Subscribe sends a Subscribe command for the given extractor identity.
// Registration of the resulting subscription_id happens asynchronously
// when the server's NewSubscription response arrives.
func (c *RealtimeClient) Subscribe(id ExtractorIdentity) error {
	return c.send(SubscribeCommand(id))
}

// Unsubscribe sends an Unsubscribe command for subscriptionID.
func (c *RealtimeClient) Unsubscribe(subscriptionID string) error {
	return c.send(UnsubscribeCommand(subscriptionID))
}

func (c *RealtimeClient) send(cmd Command) error {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return errors.New("realtime client: not connected")
	}
	body, err := json.Marshal(cmd)
	if err != nil {
		return errors.Wrap(err, "marshal command")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteMessage(websocket.TextMessage, body)
}

func (c *RealtimeClient) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.cfg.URL, nil)
	if err != nil {
		return errors.Wrap(err, "realtime client: initial connect")
	}
	conn.SetPingHandler(func(appData string) error {
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(5*time.Second))
	})

	c.mu.Lock()
	c.conn = conn
	c.state = StateOpen
	c.mu.Unlock()

	if err := c.Subscribe(c.cfg.DefaultExtractor); err != nil {
		// Non-fatal: the send failure is logged, subscription may still be
		// negotiated by server policy (spec.md §4.4, "Failure semantics").
		log.Warn("realtime client: initial subscribe failed", "err", err)
	}
	return nil
}

// readPump is the background goroutine driving the session's state machine
// for as long as ctx is live.
func (c *RealtimeClient) readPump(ctx context.Context) {
	defer c.teardown()
	for {
		if ctx.Err() != nil {
			return
		}
		c.mu.Lock()
		conn := c.conn
		c.mu.Unlock()
		if conn == nil {
			return
		}

		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) || ctx.Err() != nil {
				return
			}
			log.Warn("realtime client: read error, reconnecting", "err", err)
			if !c.reconnect(ctx) {
				return
			}
			continue
		}

		var msg WebSocketMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			// Non-fatal per spec.md §4.4: log and continue.
			log.Warn("realtime client: failed to deserialize inbound frame", "err", err)
			continue
		}
		if fatal := c.handleMessage(ctx, msg); fatal {
			return
		}
	}
}

// handleMessage processes one inbound frame and reports whether it is a
// protocol violation fatal to the session (spec.md §7: "Protocol
// violation... Fatal; crash the affected session/call").
func (c *RealtimeClient) handleMessage(ctx context.Context, msg WebSocketMessage) bool {
	switch msg.Kind {
	case MessageKindResponse:
		return c.handleResponse(*msg.Response)
	case MessageKindBlockAccountChanges:
		select {
		case c.out <- *msg.BlockAccountChanges:
		case <-ctx.Done():
		}
	}
	return false
}

func (c *RealtimeClient) handleResponse(r Response) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch r.Kind {
	case ResponseNewSubscription:
		c.active[r.SubscriptionID] = r.ExtractorID
	case ResponseSubscriptionEnded:
		if _, ok := c.active[r.SubscriptionID]; !ok {
			// Protocol violation: the server ended a subscription the
			// client never recorded (spec.md §4.4, §7). Fatal: tear down
			// the session rather than continue in an inconsistent state.
			log.Error("realtime client: SubscriptionEnded for unknown subscription, closing session", "subscription_id", r.SubscriptionID)
			return true
		}
		delete(c.active, r.SubscriptionID)
	}
	return false
}

// reconnect retries the websocket dial with backoff, re-subscribing to
// every previously active extractor on success. It returns false if ctx
// was canceled before a connection could be established.
func (c *RealtimeClient) reconnect(ctx context.Context) bool {
	c.mu.Lock()
	c.state = StateConnecting
	previouslyActive := make([]ExtractorIdentity, 0, len(c.active))
	for _, id := range c.active {
		previouslyActive = append(previouslyActive, id)
	}
	c.active = make(map[string]ExtractorIdentity)
	c.mu.Unlock()

	bo := backoff.WithContext(c.cfg.Backoff, ctx)
	err := backoff.Retry(func() error {
		return c.connect(ctx)
	}, bo)
	if err != nil {
		return false
	}
	for _, id := range previouslyActive {
		if err := c.Subscribe(id); err != nil {
			log.Warn("realtime client: re-subscribe failed after reconnect", "err", err)
		}
	}
	return true
}

func (c *RealtimeClient) teardown() {
	c.mu.Lock()
	c.state = StateClosed
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
	close(c.out)
}

// Close transitions the session to CLOSING and tears down the background
// read pump, waiting for it to exit.
func (c *RealtimeClient) Close() {
	c.mu.Lock()
	c.state = StateClosing
	conn := c.conn
	c.mu.Unlock()
	if conn != nil {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(5*time.Second))
	}
	c.StopAndWait()
}
