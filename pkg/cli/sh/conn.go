package sh

import (
	"errors"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/websocket"
)

// DefaultTimeout bounds the wait for a command reply.
const DefaultTimeout = time.Second

// ErrNotConnected is returned when no node is connected.
var ErrNotConnected = errors.New("not connected")

// Conn is a websocket connection to a node console.
type Conn struct {
	URL     string
	Timeout time.Duration

	origin string
	lock   sync.Mutex
	ws     *websocket.Conn
}

// Dial connects to a node console, e.g. ws://10.255.250.150:8080/console.
func Dial(consoleURL string) (*Conn, error) {
	u, err := url.Parse(consoleURL)
	if err != nil {
		return nil, err
	}
	if u.Path == "" {
		u.Path = "/console"
	}
	origin := &url.URL{Scheme: "http", Host: u.Host}
	if u.Scheme == "wss" {
		origin.Scheme = "https"
	}
	c := &Conn{URL: u.String(), Timeout: DefaultTimeout, origin: origin.String()}
	if c.ws, err = websocket.Dial(c.URL, "", c.origin); err != nil {
		return nil, err
	}
	return c, nil
}

// Do sends one command line and waits for the reply lines.
func (c *Conn) Do(line string) ([]string, error) {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.ws == nil {
		return nil, ErrNotConnected
	}
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if err := c.ws.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, err
	}
	if err := websocket.Message.Send(c.ws, line); err != nil {
		c.redial()
		return nil, err
	}
	var reply string
	if err := websocket.Message.Receive(c.ws, &reply); err != nil {
		c.redial()
		return nil, err
	}
	return strings.Split(reply, "\n"), nil
}

// redial replaces the connection after a failed exchange so a late reply
// is never taken as the answer to the next command.
func (c *Conn) redial() {
	c.ws.Close()
	ws, err := websocket.Dial(c.URL, "", c.origin)
	if err != nil {
		c.ws = nil
		return
	}
	c.ws = ws
}

// Close implements io.Closer.
func (c *Conn) Close() error {
	c.lock.Lock()
	defer c.lock.Unlock()
	if c.ws == nil {
		return nil
	}
	err := c.ws.Close()
	c.ws = nil
	return err
}
