package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/leonardcser/cachefront/internal/config"
	"github.com/leonardcser/cachefront/internal/logger"
	"github.com/leonardcser/cachefront/internal/protocol"
	"github.com/leonardcser/cachefront/pattern"
	"github.com/leonardcser/cachefront/store"
)

func main() {
	app := &cli.App{
		Name:  "cachefrontd",
		Usage: "TTL-routing cache daemon over a unix socket",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Usage:   "path to YAML config",
				EnvVars: []string{"CACHEFRONTD_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "listen",
				Usage:   "unix socket path (overrides config)",
				EnvVars: []string{"CACHEFRONTD_SOCK"},
			},
			&cli.StringFlag{
				Name:  "log",
				Usage: "log file path (overrides config)",
			},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cctx *cli.Context) error {
	cfg, err := config.Load(cctx.String("config"))
	if err != nil {
		return err
	}

	log, closer, err := setupLogger(firstNonEmpty(cctx.String("log"), cfg.Log))
	if err != nil {
		return err
	}
	defer closer.Close()

	st, closeStore, err := openStore(cfg.Store)
	if err != nil {
		return err
	}
	defer closeStore()

	router, err := newTTLRouter(cfg)
	if err != nil {
		return err
	}

	sock := firstNonEmpty(cctx.String("listen"), cfg.Listen, defaultSocketPath())
	if err := os.MkdirAll(filepath.Dir(sock), 0o755); err != nil {
		return err
	}
	_ = os.Remove(sock) // stale socket from a previous run

	l, err := net.Listen("unix", sock)
	if err != nil {
		return err
	}
	defer l.Close()
	_ = os.Chmod(sock, 0o600)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		l.Close()
	}()

	log.Info("cachefrontd listening",
		"socket", sock, "backend", firstNonEmpty(cfg.Store.Backend, "memory"), "routes", len(cfg.Routes))

	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				log.Info("cachefrontd shutting down")
				return nil
			}
			continue
		}
		go handleConn(ctx, conn, st, router, log)
	}
}

func setupLogger(path string) (*slog.Logger, io.Closer, error) {
	if path != "" {
		return logger.Setup(path)
	}
	return logger.SetupFromEnv()
}

func openStore(cfg config.Store) (store.Store, func() error, error) {
	switch cfg.Backend {
	case "", "memory":
		m := store.NewMemory(store.MemoryOptions{})
		return m, m.Close, nil
	case "bolt":
		b, err := store.OpenBolt(cfg.Path, store.BoltOptions{})
		if err != nil {
			return nil, nil, err
		}
		return b, b.Close, nil
	case "redis":
		r, err := store.NewRedis(cfg.RedisURL, cfg.RedisPrefix)
		if err != nil {
			return nil, nil, err
		}
		return r, r.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
}

// ttlRouter resolves the TTL for puts that do not carry one, using the
// config's pattern routes (first match wins) and falling back to the default.
type ttlRouter struct {
	routes []ttlRoute
	def    time.Duration
}

type ttlRoute struct {
	pattern *pattern.Pattern
	ttl     time.Duration
}

func newTTLRouter(cfg *config.Config) (*ttlRouter, error) {
	r := &ttlRouter{def: cfg.Defaults.TTL()}
	for _, rc := range cfg.Routes {
		p, err := pattern.Compile(rc.Pattern)
		if err != nil {
			return nil, err
		}
		r.routes = append(r.routes, ttlRoute{pattern: p, ttl: rc.TTL()})
	}
	return r, nil
}

func (r *ttlRouter) resolve(key string) time.Duration {
	for _, rt := range r.routes {
		if _, ok := rt.pattern.Match(key); ok {
			return rt.ttl
		}
	}
	return r.def
}

func handleConn(ctx context.Context, conn net.Conn, st store.Store, router *ttlRouter, log *slog.Logger) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req protocol.Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		switch req.Op {
		case "get":
			v, err := st.Get(ctx, req.Key)
			if err != nil {
				_ = enc.Encode(protocol.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(protocol.Response{OK: true, Value: v})
		case "put":
			// Route TTL defaulting applies only when the request leaves
			// the TTL unset; an explicit 0 means "never expires".
			var ttl time.Duration
			if req.TTLMillis == nil {
				ttl = router.resolve(req.Key)
			} else if *req.TTLMillis > 0 {
				ttl = time.Duration(*req.TTLMillis) * time.Millisecond
			}
			if err := st.Put(ctx, req.Key, req.Value, ttl); err != nil {
				_ = enc.Encode(protocol.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(protocol.Response{OK: true})
		case "evict":
			if err := st.Evict(ctx, req.Key); err != nil {
				_ = enc.Encode(protocol.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(protocol.Response{OK: true})
		case "clear":
			if err := st.Clear(ctx); err != nil {
				_ = enc.Encode(protocol.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(protocol.Response{OK: true})
		case "size":
			n, err := st.Size(ctx)
			if err != nil {
				_ = enc.Encode(protocol.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(protocol.Response{OK: true, Size: n})
		default:
			log.Warn("unknown op", "op", req.Op)
			_ = enc.Encode(protocol.Response{OK: false, Error: "unknown op"})
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}
	}
}

func defaultSocketPath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "cachefrontd", "cachefrontd.sock")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
