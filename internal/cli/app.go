package cli

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"time"

	goEstate "github.com/MrEthical07/goEstate"
	"github.com/MrEthical07/goEstate/node"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// runtime holds everything a command needs once the engine is up.
type runtime struct {
	engine   *goEstate.Engine
	logger   *slog.Logger
	closers  []func()
	settings *settings
}

func (r *runtime) Close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

func newLogger(s *settings, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: s.LogLevel}
	if s.LogFormat == "text" {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

// openRuntime dials the node and Redis and builds the engine. With dev set Redis is an
// in-process miniredis and a missing ed25519 key pair is generated.
func openRuntime(ctx context.Context, s *settings, logger *slog.Logger, auditOut io.Writer, dev bool) (*runtime, error) {
	rt := &runtime{logger: logger, settings: s}
	fail := func(err error) (*runtime, error) {
		rt.Close()
		return nil, err
	}

	cfg := s.Engine
	if dev && cfg.JWT.SigningMethod == "ed25519" && len(cfg.JWT.PrivateKey) == 0 {
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return fail(fmt.Errorf("generate dev signing key: %w", err))
		}
		cfg.JWT.PrivateKey, cfg.JWT.PublicKey = priv, pub
		logger.Warn("using an ephemeral signing key, sessions will not survive a restart")
	}

	var rdb redis.UniversalClient
	if dev {
		mr, err := miniredis.Run()
		if err != nil {
			return fail(fmt.Errorf("start miniredis: %w", err))
		}
		rt.closers = append(rt.closers, mr.Close)
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
		logger.Info("using in-process redis", "addr", mr.Addr())
	} else {
		rdb = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs:    []string{s.Redis.Addr},
			Password: s.Redis.Password,
			DB:       s.Redis.DB,
		})
	}
	rt.closers = append(rt.closers, func() { _ = rdb.Close() })

	client, err := node.Dial(ctx, cfg.Node.URL, node.Options{
		RequestTimeout: cfg.Node.RequestTimeout,
		Observer: func(method string, elapsed time.Duration, err error) {
			logger.Debug("node call", "method", method, "elapsed", elapsed, "error", err)
		},
	})
	if err != nil {
		return fail(fmt.Errorf("dial node %s: %w", cfg.Node.URL, err))
	}
	rt.closers = append(rt.closers, client.Close)

	engine, err := goEstate.New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithNode(client).
		WithLogger(logger).
		WithAuditSink(auditSink(s, logger, auditOut)).
		Build()
	if err != nil {
		return fail(fmt.Errorf("build engine: %w", err))
	}
	rt.closers = append(rt.closers, engine.Close)
	rt.engine = engine

	return rt, nil
}

func auditSink(s *settings, logger *slog.Logger, out io.Writer) goEstate.AuditSink {
	switch s.AuditSink {
	case "slog":
		return goEstate.NewSlogSink(logger.With("component", "audit"))
	case "json":
		return goEstate.NewJSONWriterSink(out)
	default:
		return goEstate.NoOpSink{}
	}
}
