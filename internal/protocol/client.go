package protocol

import (
	"context"
	"encoding/json"
	"net"
	"time"

	"github.com/leonardcser/cachefront/store"
)

// Client implements store.Store over a unix socket.
type Client struct {
	socketPath string
}

var _ store.Store = (*Client)(nil)

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

func (c *Client) withConn(ctx context.Context, fn func(conn net.Conn) error) error {
	d := net.Dialer{Timeout: 500 * time.Millisecond}
	conn, err := d.DialContext(ctx, "unix", c.socketPath)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return fn(conn)
}

func (c *Client) roundTrip(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := c.withConn(ctx, func(conn net.Conn) error {
		if err := json.NewEncoder(conn).Encode(&req); err != nil {
			return err
		}
		return json.NewDecoder(conn).Decode(&resp)
	})
	if err != nil {
		return Response{}, err
	}
	if !resp.OK {
		if resp.Error == store.ErrNotFound.Error() {
			return Response{}, store.ErrNotFound
		}
		return Response{}, errorsNew(resp.Error)
	}
	return resp, nil
}

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.roundTrip(ctx, Request{Op: "get", Key: key})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), resp.Value...), nil
}

// Put always carries an explicit TTL so the daemon never substitutes its
// route/default TTL: the local caller owns the TTL decision.
func (c *Client) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	ms := ttl.Milliseconds()
	if ms < 0 {
		ms = 0
	}
	_, err := c.roundTrip(ctx, Request{
		Op:        "put",
		Key:       key,
		Value:     value,
		TTLMillis: &ms,
	})
	return err
}

func (c *Client) Evict(ctx context.Context, key string) error {
	_, err := c.roundTrip(ctx, Request{Op: "evict", Key: key})
	return err
}

func (c *Client) Clear(ctx context.Context) error {
	_, err := c.roundTrip(ctx, Request{Op: "clear"})
	return err
}

func (c *Client) Size(ctx context.Context) (int, error) {
	resp, err := c.roundTrip(ctx, Request{Op: "size"})
	if err != nil {
		return 0, err
	}
	return resp.Size, nil
}

// Local helper to avoid importing fmt just for errors.
func errorsNew(msg string) error { return &simpleError{s: msg} }

type simpleError struct{ s string }

func (e *simpleError) Error() string { return e.s }
