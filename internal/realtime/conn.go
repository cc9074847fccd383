// Package realtime maintains one long-lived STOMP-over-WebSocket connection
// per backend domain and routes inbound topic messages to local handlers.
package realtime

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

type State int32

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
	StateDeactivated
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDeactivated:
		return "deactivated"
	}
	return "unknown"
}

var ErrDeactivated = errors.New("connection deactivated")

// Handler receives the raw frame body for one topic message.
type Handler func(body []byte)

// TokenFunc supplies the current bearer token for the websocket handshake.
type TokenFunc func() (string, error)

// session is one live STOMP connection; lost is closed exactly once when the
// connection dies under us.
type session struct {
	conn *stomp.Conn
	lost chan struct{}
	once sync.Once
}

func (s *session) fail() {
	s.once.Do(func() { close(s.lost) })
}

// Conn is a managed connection for one backend domain. The topic registry
// survives reconnects: every registered topic is re-subscribed after each
// successful connect. Reconnection uses a fixed delay forever; only
// Deactivate is terminal.
type Conn struct {
	name           string
	url            string
	token          TokenFunc
	reconnectDelay time.Duration
	log            *logrus.Entry

	mu       sync.Mutex
	state    State
	cur      *session
	handlers map[string]Handler
	active   map[string]*stomp.Subscription
	ready    chan struct{}

	done chan struct{}
	wg   sync.WaitGroup
}

func NewConn(name, url string, reconnectDelay time.Duration, token TokenFunc, log *logrus.Entry) *Conn {
	return &Conn{
		name:           name,
		url:            url,
		token:          token,
		reconnectDelay: reconnectDelay,
		log:            log.WithField("socket", name),
		handlers:       make(map[string]Handler),
		active:         make(map[string]*stomp.Subscription),
		ready:          make(chan struct{}),
		done:           make(chan struct{}),
	}
}

// Start launches the connect/reconnect loop.
func (c *Conn) Start() {
	c.wg.Add(1)
	go c.run()
}

func (c *Conn) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// WaitReady blocks until the connection is established, the context expires,
// or the connection is deactivated. It replaces poll-until-connected loops:
// the readiness channel is resolved exactly once per connect.
func (c *Conn) WaitReady(ctx context.Context) error {
	for {
		c.mu.Lock()
		switch c.state {
		case StateDeactivated:
			c.mu.Unlock()
			return ErrDeactivated
		case StateConnected:
			c.mu.Unlock()
			return nil
		}
		ready := c.ready
		c.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.done:
			return ErrDeactivated
		case <-ready:
		}
	}
}

// Subscribe registers a handler for a topic. If the connection is live the
// subscription is established immediately, otherwise on the next connect.
// The returned cancel is idempotent.
func (c *Conn) Subscribe(topic string, h Handler) func() {
	c.mu.Lock()
	c.handlers[topic] = h
	s := c.cur
	connected := c.state == StateConnected
	c.mu.Unlock()

	if connected && s != nil {
		c.establish(s, topic, h)
	}

	return func() {
		c.mu.Lock()
		delete(c.handlers, topic)
		sub := c.active[topic]
		delete(c.active, topic)
		c.mu.Unlock()
		if sub != nil {
			if err := sub.Unsubscribe(); err != nil {
				c.log.WithError(err).WithField("topic", topic).Debug("unsubscribe failed")
			}
		}
	}
}

// Deactivate tears the connection down for good and waits for every owned
// goroutine to exit. No timers or handlers remain afterwards.
func (c *Conn) Deactivate() {
	c.mu.Lock()
	if c.state == StateDeactivated {
		c.mu.Unlock()
		return
	}
	c.state = StateDeactivated
	s := c.cur
	c.mu.Unlock()

	close(c.done)
	if s != nil {
		s.fail()
	}
	c.wg.Wait()
}

func (c *Conn) run() {
	defer c.wg.Done()

	for {
		select {
		case <-c.done:
			return
		default:
		}

		c.setState(StateConnecting)
		st, err := c.dial()
		if err != nil {
			c.log.WithError(err).Warnf("connect failed, retrying in %s", c.reconnectDelay)
			c.setState(StateDisconnected)
			if !c.sleep() {
				return
			}
			continue
		}

		s := &session{conn: st, lost: make(chan struct{})}

		c.mu.Lock()
		if c.state == StateDeactivated {
			c.mu.Unlock()
			st.Disconnect()
			return
		}
		c.cur = s
		c.state = StateConnected
		close(c.ready)
		topics := make(map[string]Handler, len(c.handlers))
		for topic, h := range c.handlers {
			topics[topic] = h
		}
		c.mu.Unlock()
		c.log.Info("connected")

		for topic, h := range topics {
			c.establish(s, topic, h)
		}

		select {
		case <-c.done:
			st.Disconnect()
			c.drop(s)
			return
		case <-s.lost:
			c.log.Warnf("connection lost, reconnecting in %s", c.reconnectDelay)
			st.Disconnect()
			c.drop(s)
			c.setState(StateDisconnected)
			if !c.sleep() {
				return
			}
		}
	}
}

func (c *Conn) dial() (*stomp.Conn, error) {
	url := c.url
	if c.token != nil {
		token, err := c.token()
		if err != nil {
			return nil, err
		}
		url = url + "?token=" + token
	}

	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	st, err := stomp.Connect(newWSStream(ws),
		stomp.ConnOpt.HeartBeat(10*time.Second, 10*time.Second),
	)
	if err != nil {
		ws.Close()
		return nil, err
	}
	return st, nil
}

func (c *Conn) establish(s *session, topic string, h Handler) {
	sub, err := s.conn.Subscribe(topic, stomp.AckAuto)
	if err != nil {
		c.log.WithError(err).WithField("topic", topic).Warn("subscribe failed")
		s.fail()
		return
	}

	if !c.addPump() {
		if err := sub.Unsubscribe(); err != nil {
			c.log.WithError(err).WithField("topic", topic).Debug("unsubscribe failed")
		}
		return
	}

	c.mu.Lock()
	c.active[topic] = sub
	c.mu.Unlock()

	go c.pump(s, topic, sub, h)
}

// addPump reserves a pump slot, refusing once the connection has been
// deactivated so no goroutine starts after Deactivate began waiting.
func (c *Conn) addPump() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateDeactivated {
		return false
	}
	c.wg.Add(1)
	return true
}

func (c *Conn) pump(s *session, topic string, sub *stomp.Subscription, h Handler) {
	defer c.wg.Done()

	for msg := range sub.C {
		if msg.Err != nil {
			c.log.WithError(msg.Err).WithField("topic", topic).Debug("subscription error")
			break
		}
		c.handle(topic, h, msg.Body)
	}

	// A closed channel means either a cancelled subscription or a dead
	// connection; only the latter should trigger a reconnect.
	c.mu.Lock()
	_, registered := c.handlers[topic]
	c.mu.Unlock()
	if registered {
		s.fail()
	}
}

// handle shields the subscription from handler panics.
func (c *Conn) handle(topic string, h Handler, body []byte) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("topic", topic).Errorf("handler panicked: %v", r)
		}
	}()
	h(body)
}

func (c *Conn) drop(s *session) {
	c.mu.Lock()
	if c.cur == s {
		c.cur = nil
	}
	c.active = make(map[string]*stomp.Subscription)
	c.ready = make(chan struct{})
	c.mu.Unlock()
}

func (c *Conn) setState(next State) {
	c.mu.Lock()
	if c.state != StateDeactivated {
		c.state = next
	}
	c.mu.Unlock()
}

// sleep waits out the fixed reconnect delay; false means the connection was
// deactivated while waiting.
func (c *Conn) sleep() bool {
	select {
	case <-c.done:
		return false
	case <-time.After(c.reconnectDelay):
		return true
	}
}
