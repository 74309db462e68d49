package chromium

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

var errConnClosed = errors.New("devtools connection closed")

// message is a DevTools protocol frame: a command, its response, or an event.
type message struct {
	ID        int64           `json:"id,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Method    string          `json:"method,omitempty"`
	Params    json.RawMessage `json:"params,omitempty"`
	Result    json.RawMessage `json:"result,omitempty"`
	Error     *protocolError  `json:"error,omitempty"`
}

type protocolError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *protocolError) Error() string {
	return fmt.Sprintf("devtools error %d: %s", e.Code, e.Message)
}

type eventKey struct {
	sessionID string
	method    string
}

/*
conn is a DevTools client over a single browser websocket. Page sessions
share it in flat mode: commands and events carry a sessionId. Calls are safe
from multiple goroutines.
*/
type conn struct {
	ws      *websocket.Conn
	writeMu sync.Mutex
	nextID  atomic.Int64

	mu        sync.Mutex
	pending   map[int64]chan *message
	listeners map[eventKey][]chan json.RawMessage
	err       error

	done chan struct{}
}

func dial(ctx context.Context, url string) (*conn, error) {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("error connecting to devtools: %w", err)
	}
	c := &conn{
		ws:        ws,
		pending:   map[int64]chan *message{},
		listeners: map[eventKey][]chan json.RawMessage{},
		done:      make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func (c *conn) readLoop() {
	for {
		var m message
		if err := c.ws.ReadJSON(&m); err != nil {
			c.shutdown(err)
			return
		}
		if m.ID != 0 {
			c.mu.Lock()
			ch, ok := c.pending[m.ID]
			delete(c.pending, m.ID)
			c.mu.Unlock()
			if ok {
				ch <- &m
			}
			continue
		}
		if m.Method == "" {
			continue
		}
		c.mu.Lock()
		for _, ch := range c.listeners[eventKey{m.SessionID, m.Method}] {
			select {
			case ch <- m.Params:
			default:
			}
		}
		c.mu.Unlock()
	}
}

func (c *conn) shutdown(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	if err == nil {
		err = errConnClosed
	}
	c.err = err
	close(c.done)
}

// call sends method and decodes the response's result into result (if
// non-nil). sessionID is empty for browser-level commands.
func (c *conn) call(ctx context.Context, sessionID, method string, params, result any) error {
	id := c.nextID.Add(1)
	req := message{ID: id, SessionID: sessionID, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("error encoding %s params: %w", method, err)
		}
		req.Params = raw
	}

	ch := make(chan *message, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", method, err)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	c.writeMu.Lock()
	err := c.ws.WriteJSON(req)
	c.writeMu.Unlock()
	if err != nil {
		c.forget(id)
		return fmt.Errorf("error sending %s: %w", method, err)
	}

	var resp *message
	select {
	case resp = <-ch:
	case <-c.done:
		select {
		case resp = <-ch:
		default:
			c.forget(id)
			return fmt.Errorf("%s: %w", method, c.closeErr())
		}
	case <-ctx.Done():
		c.forget(id)
		return ctx.Err()
	}

	if resp.Error != nil {
		return fmt.Errorf("%s: %w", method, resp.Error)
	}
	if result != nil && len(resp.Result) > 0 {
		if err := json.Unmarshal(resp.Result, result); err != nil {
			return fmt.Errorf("error decoding %s result: %w", method, err)
		}
	}
	return nil
}

func (c *conn) forget(id int64) {
	c.mu.Lock()
	delete(c.pending, id)
	c.mu.Unlock()
}

func (c *conn) alive() bool {
	select {
	case <-c.done:
		return false
	default:
		return true
	}
}

func (c *conn) closeErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// subscribe delivers the params of the next events named method on the
// given session. Subscribe before issuing the command that triggers them.
func (c *conn) subscribe(sessionID, method string) (<-chan json.RawMessage, func()) {
	key := eventKey{sessionID, method}
	ch := make(chan json.RawMessage, 1)
	c.mu.Lock()
	c.listeners[key] = append(c.listeners[key], ch)
	c.mu.Unlock()

	return ch, func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		list := c.listeners[key]
		for i, l := range list {
			if l == ch {
				c.listeners[key] = append(list[:i], list[i+1:]...)
				break
			}
		}
		if len(c.listeners[key]) == 0 {
			delete(c.listeners, key)
		}
	}
}

func (c *conn) close() error {
	c.shutdown(errConnClosed)
	return c.ws.Close()
}
