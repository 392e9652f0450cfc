package protocol

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardcser/cachefront/store"
)

// testServer runs a minimal daemon loop over a memory store, the same
// request/response exchange cachefrontd speaks, including its TTL defaulting:
// an unset TTL gets defaultTTL, an explicit TTL (zero included) is honored
// verbatim. Requests are recorded for wire-level assertions.
type testServer struct {
	sock       string
	defaultTTL time.Duration

	mu   sync.Mutex
	last *Request
}

func startTestServer(t *testing.T, defaultTTL time.Duration) *testServer {
	t.Helper()

	srv := &testServer{
		sock:       filepath.Join(t.TempDir(), "test.sock"),
		defaultTTL: defaultTTL,
	}
	l, err := net.Listen("unix", srv.sock)
	require.NoError(t, err)

	st := store.NewMemory(store.MemoryOptions{})
	t.Cleanup(func() {
		_ = l.Close()
		_ = st.Close()
	})

	go func() {
		for {
			conn, err := l.Accept()
			if err != nil {
				return
			}
			go srv.serve(conn, st)
		}
	}()
	return srv
}

func (s *testServer) serve(conn net.Conn, st store.Store) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	ctx := context.Background()
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		s.mu.Lock()
		s.last = &req
		s.mu.Unlock()

		switch req.Op {
		case "get":
			v, err := st.Get(ctx, req.Key)
			if err != nil {
				_ = enc.Encode(Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(Response{OK: true, Value: v})
		case "put":
			var ttl time.Duration
			if req.TTLMillis == nil {
				ttl = s.defaultTTL
			} else if *req.TTLMillis > 0 {
				ttl = time.Duration(*req.TTLMillis) * time.Millisecond
			}
			_ = st.Put(ctx, req.Key, req.Value, ttl)
			_ = enc.Encode(Response{OK: true})
		case "evict":
			_ = st.Evict(ctx, req.Key)
			_ = enc.Encode(Response{OK: true})
		case "clear":
			_ = st.Clear(ctx)
			_ = enc.Encode(Response{OK: true})
		case "size":
			n, _ := st.Size(ctx)
			_ = enc.Encode(Response{OK: true, Size: n})
		default:
			_ = enc.Encode(Response{OK: false, Error: "unknown op"})
		}
	}
}

func (s *testServer) lastRequest() *Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func TestClientImplementsStore(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	c := NewClient(startTestServer(t, 0).sock)

	require.NoError(c.Put(ctx, "k", []byte("v"), 0))
	v, err := c.Get(ctx, "k")
	require.NoError(err)
	assert.Equal([]byte("v"), v)

	n, err := c.Size(ctx)
	require.NoError(err)
	assert.Equal(1, n)

	require.NoError(c.Evict(ctx, "k"))
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(err, store.ErrNotFound)

	require.NoError(c.Put(ctx, "a", []byte("1"), 0))
	require.NoError(c.Put(ctx, "b", []byte("2"), 0))
	require.NoError(c.Clear(ctx))
	n, err = c.Size(ctx)
	require.NoError(err)
	assert.Equal(0, n)
}

func TestClientPutCarriesSubSecondTTL(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)
	ctx := context.Background()

	srv := startTestServer(t, 0)
	c := NewClient(srv.sock)

	require.NoError(c.Put(ctx, "k", []byte("v"), 500*time.Millisecond))

	// The TTL crosses the wire explicitly and at full resolution.
	req := srv.lastRequest()
	require.NotNil(req)
	require.NotNil(req.TTLMillis)
	assert.Equal(int64(500), *req.TTLMillis)

	// And the entry actually expires on the sub-second schedule.
	_, err := c.Get(ctx, "k")
	require.NoError(err)
	time.Sleep(600 * time.Millisecond)
	_, err = c.Get(ctx, "k")
	assert.ErrorIs(err, store.ErrNotFound)
}

func TestClientPutZeroTTLNeverExpires(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()

	// The server would default an unset TTL to 30ms; an explicit 0 from the
	// client must not be treated as unset.
	srv := startTestServer(t, 30*time.Millisecond)
	c := NewClient(srv.sock)

	require.NoError(c.Put(ctx, "k", []byte("v"), 0))

	req := srv.lastRequest()
	require.NotNil(req)
	require.NotNil(req.TTLMillis)
	assert.Equal(t, int64(0), *req.TTLMillis)

	time.Sleep(80 * time.Millisecond)
	_, err := c.Get(ctx, "k")
	require.NoError(err, "explicit ttl=0 must mean never expires, not the server default")
}

func TestClientDialFailure(t *testing.T) {
	c := NewClient(filepath.Join(t.TempDir(), "nope.sock"))
	_, err := c.Get(context.Background(), "k")
	assert.Error(t, err)
	assert.False(t, errors.Is(err, store.ErrNotFound))
}
