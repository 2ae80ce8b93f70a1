// Package subscriber opens a persistent push channel to an external chain
// node, registers per-program interest, and translates incoming push
// notifications into ProgramEvents on a process-local broadcast channel.
package subscriber

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/chainwatch/watchtower/domain/event"
	"github.com/chainwatch/watchtower/internal/broadcast"
	"github.com/chainwatch/watchtower/internal/resilience"
	"github.com/chainwatch/watchtower/internal/werrors"
	"github.com/chainwatch/watchtower/pkg/logger"
)

const eventBroadcastCapacity = 1000

// State is one state in the Subscriber's connection lifecycle.
type State int

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateDisconnected
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Subscriber maintains one push connection and republishes accepted
// notifications as ProgramEvents.
type Subscriber struct {
	config  Config
	filter  *EventFilter
	log     *logger.Logger
	bus     *broadcast.Bus[*event.ProgramEvent]
	breaker *resilience.CircuitBreaker

	stateMu sync.RWMutex
	state   State

	connMu sync.Mutex
	conn   *websocket.Conn

	stopOnce sync.Once
	stopCh   chan struct{}
}

// New validates cfg and constructs a Subscriber in the Idle state.
func New(cfg Config, log *logger.Logger) (*Subscriber, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.NewDefault("subscriber")
	}
	return &Subscriber{
		config:  cfg,
		filter:  NewEventFilter(cfg.Programs, cfg.Filters.IncludeFailed, cfg.Filters.IncludeVotes),
		log:     log,
		bus:     broadcast.New[*event.ProgramEvent](eventBroadcastCapacity),
		breaker: resilience.NewCircuitBreaker(resilience.DefaultCircuitBreakerConfig()),
		stopCh:  make(chan struct{}),
		state:   StateIdle,
	}, nil
}

// State reports the connection lifecycle's current state.
func (s *Subscriber) State() State {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	return s.state
}

func (s *Subscriber) setState(st State) {
	s.stateMu.Lock()
	s.state = st
	s.stateMu.Unlock()
}

// SubscribeToEvents returns a fresh broadcast receiver for every accepted
// event.
func (s *Subscriber) SubscribeToEvents() <-chan *event.ProgramEvent {
	return s.bus.Subscribe()
}

// UnsubscribeFromEvents releases a subscription returned by
// SubscribeToEvents.
func (s *Subscriber) UnsubscribeFromEvents(recv <-chan *event.ProgramEvent) {
	s.bus.Unsubscribe(recv)
}

// Start runs the connect/subscribe/reconnect loop in the background until
// ctx is cancelled or Stop is called.
func (s *Subscriber) Start(ctx context.Context) {
	go s.run(ctx)
}

// Stop requests the connection loop to exit. Safe to call more than once.
func (s *Subscriber) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Subscriber) run(ctx context.Context) {
	attempts := 0
	for {
		select {
		case <-ctx.Done():
			s.setState(StateStopped)
			return
		case <-s.stopCh:
			s.setState(StateStopped)
			return
		default:
		}

		s.setState(StateConnecting)
		err := s.breaker.Execute(ctx, s.connectAndStream)
		if err == nil {
			// connectAndStream reports every exit as an error, a clean
			// remote close included, so those take the counted path
			// below; a nil return resets the counter and retries at once.
			attempts = 0
			continue
		}

		s.setState(StateDisconnected)
		s.log.WithField("error", err).Warn("subscriber connection error")

		attempts++
		if s.config.MaxReconnectAttempts > 0 && attempts > s.config.MaxReconnectAttempts {
			s.log.WithField("attempts", attempts).Error("max reconnect attempts reached, stopping subscriber")
			s.setState(StateStopped)
			return
		}

		select {
		case <-ctx.Done():
			s.setState(StateStopped)
			return
		case <-s.stopCh:
			s.setState(StateStopped)
			return
		case <-time.After(s.config.ReconnectDelay):
		}
	}
}

// connectAndStream dials the node, re-establishes every configured
// subscription, and reads frames until the connection fails or closes.
func (s *Subscriber) connectAndStream(ctx context.Context) error {
	dialer := websocket.Dialer{HandshakeTimeout: s.config.Timeout}
	conn, _, err := dialer.DialContext(ctx, s.config.WSURL, nil)
	if err != nil {
		return werrors.ConnectionFailure(err)
	}
	defer conn.Close()

	s.connMu.Lock()
	s.conn = conn
	s.connMu.Unlock()
	s.setState(StateConnected)
	s.log.WithField("ws_url", s.config.WSURL).Info("subscriber connected")

	if err := s.subscribeAll(conn); err != nil {
		return err
	}

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return werrors.ConnectionFailure(err)
		}
		s.handleFrame(raw)
	}
}

// subscribeAll sends one subscription request per (program, interest-kind)
// tuple configured: program-state interest and log-mention interest.
func (s *Subscriber) subscribeAll(conn *websocket.Conn) error {
	nextID := 0
	for _, p := range s.config.Programs {
		if p.MonitorAccounts || p.MonitorTransactions {
			nextID++
			req := map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      nextID,
				"method":  "programSubscribe",
				"params": []interface{}{
					p.ID,
					map[string]interface{}{"commitment": s.config.Filters.Commitment, "encoding": "jsonParsed"},
				},
			}
			if err := conn.WriteJSON(req); err != nil {
				return werrors.ConnectionFailure(err)
			}
			s.log.WithField("program", p.Name).Info("subscribed to program")
		}

		if p.MonitorLogs {
			nextID++
			req := map[string]interface{}{
				"jsonrpc": "2.0",
				"id":      nextID,
				"method":  "logsSubscribe",
				"params": []interface{}{
					map[string]interface{}{"mentions": []string{p.ID}},
					map[string]interface{}{"commitment": s.config.Filters.Commitment},
				},
			}
			if err := conn.WriteJSON(req); err != nil {
				return werrors.ConnectionFailure(err)
			}
			s.log.WithField("program", p.Name).Info("subscribed to logs")
		}
	}
	return nil
}

func (s *Subscriber) handleFrame(raw []byte) {
	events, err := DecodeNotification(raw, s.filter)
	if err != nil {
		s.log.WithField("error", err).Warn("failed to decode notification")
		return
	}
	for _, evt := range events {
		if !s.filter.Accepts(evt) {
			continue
		}
		s.bus.Publish(evt)
	}
}
